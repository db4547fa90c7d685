package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lungscreen/lungscreen/internal/platform/auth"
	"github.com/lungscreen/lungscreen/internal/platform/reporting"
	"github.com/lungscreen/lungscreen/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	g.GET("/stats", h.Stats)
	g.GET("/users", h.ListUsers)
	g.GET("/users/export", h.ExportUsers)
	g.GET("/analytics/report", h.Report)
	g.GET("/analytics/recent", h.RecentPredictions)
	g.GET("/analytics/timeseries", h.TimeSeries)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListUsers(c echo.Context) error {
	pg := pagination.FromContext(c)
	users, total, err := h.svc.ListUsers(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.Page(c, users, total))
}

func (h *Handler) ExportUsers(c echo.Context) error {
	r, err := h.svc.ExportUsers(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return reporting.Attach(c, r)
}

func (h *Handler) Report(c echo.Context) error {
	format, err := reporting.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.Report(c.Request().Context(), format)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return reporting.Attach(c, r)
}

func (h *Handler) RecentPredictions(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	return c.JSON(http.StatusOK, h.svc.usage.Recent(limit))
}

func (h *Handler) TimeSeries(c echo.Context) error {
	interval, err := durationParam(c, "interval", time.Hour)
	if err != nil {
		return err
	}
	lookback, err := durationParam(c, "lookback", 24*time.Hour)
	if err != nil {
		return err
	}
	if interval > lookback {
		return echo.NewHTTPError(http.StatusBadRequest, "interval must not exceed lookback")
	}
	if lookback/interval > maxBuckets {
		return echo.NewHTTPError(http.StatusBadRequest, "too many buckets; widen the interval")
	}
	return c.JSON(http.StatusOK, h.svc.usage.TimeSeries(interval, lookback))
}

const maxBuckets = 1000

func durationParam(c echo.Context, name string, def time.Duration) (time.Duration, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive duration such as 1h")
	}
	return d, nil
}

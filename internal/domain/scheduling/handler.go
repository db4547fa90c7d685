package scheduling

import (
	"errors"
	"net/http"

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
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)
	api.GET("/appointments/options", h.Options)

	patient := api.Group("/appointments", auth.RequireRole(auth.RolePatient))
	patient.POST("", h.Book)
	patient.GET("/mine", h.ListMine)
	patient.GET("/latest/confirmation", h.Confirmation)
	patient.POST("/:id/cancel", h.Cancel)

	admin := api.Group("/admin/appointments", auth.RequireRole(auth.RoleAdmin))
	admin.GET("", h.List)
	admin.GET("/export", h.Export)
	admin.PATCH("/:id/status", h.SetStatus)
}

type doctorView struct {
	Doctor
	Label string `json:"label"`
}

func (h *Handler) ListDoctors(c echo.Context) error {
	spec := c.QueryParam("specialization")
	if spec != "" && !contains(Specializations, spec) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown specialization: "+spec)
	}
	docs := Doctors(spec)
	out := make([]doctorView, 0, len(docs))
	for _, d := range docs {
		out = append(out, doctorView{Doctor: d, Label: DoctorLabel(d)})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := parseDoctorID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, ok := DoctorByID(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, doctorView{Doctor: d, Label: DoctorLabel(d)})
}

func (h *Handler) Options(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"specializations": Specializations,
		"times":           Times,
		"reasons":         Reasons,
	})
}

func (h *Handler) Book(c echo.Context) error {
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Book(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListMine(c echo.Context) error {
	items, err := h.svc.ListMine(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return toHTTPError(err)
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Cancel(c echo.Context) error {
	a, err := h.svc.Cancel(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Confirmation(c echo.Context) error {
	format, err := reporting.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.Confirmation(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), format)
	if err != nil {
		return toHTTPError(err)
	}
	return reporting.Attach(c, r)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.Page(c, items, total))
}

func (h *Handler) Export(c echo.Context) error {
	r, err := h.svc.ExportCSV(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return reporting.Attach(c, r)
}

func (h *Handler) SetStatus(c echo.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.SetStatus(c.Request().Context(), c.Param("id"), body.Status)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func toHTTPError(err error) error {
	var missing *MissingFieldsError
	switch {
	case errors.As(err, &missing):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDoctorNotFound),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrPastDate),
		errors.Is(err, ErrInvalidTime),
		errors.Is(err, ErrInvalidReason),
		errors.Is(err, ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAppointmentNotFound), errors.Is(err, ErrNoBooking):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSlotTaken), errors.Is(err, ErrNotCancellable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

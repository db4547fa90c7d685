package education

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/education", h.List)
	api.GET("/education/:id", h.Get)
}

func (h *Handler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, Topics())
}

func (h *Handler) Get(c echo.Context) error {
	t, ok := Find(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "topic not found")
	}
	return c.JSON(http.StatusOK, t)
}

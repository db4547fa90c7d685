package prediction

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lungscreen/lungscreen/internal/domain/risk"
	"github.com/lungscreen/lungscreen/internal/domain/session"
	"github.com/lungscreen/lungscreen/internal/inference"
	"github.com/lungscreen/lungscreen/internal/platform/auth"
	"github.com/lungscreen/lungscreen/internal/platform/reporting"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/predictions", auth.RequireRole(auth.RolePatient))
	g.POST("/tabular", h.PredictTabular)
	g.POST("/image", h.PredictImage)
	g.GET("", h.GetRecord)
	g.DELETE("/:kind", h.ClearPrediction)
	g.GET("/:kind/report", h.Report)
}

// Response adds the derived confidence figures to a stored prediction.
type Response struct {
	*session.StoredPrediction
	CancerConfidence    *float64 `json:"cancer_confidence,omitempty"`
	ConfidenceNarrative string   `json:"confidence_narrative,omitempty"`
}

func newResponse(p *session.StoredPrediction) *Response {
	if p == nil {
		return nil
	}
	r := &Response{StoredPrediction: p}
	if p.Score != nil {
		pc := p.Score.PCancer()
		r.CancerConfidence = &pc
		r.ConfidenceNarrative = risk.ConfidenceNarrative(pc)
	}
	return r
}

func currentSession(c echo.Context) (*session.Session, error) {
	sess := auth.SessionFromContext(c.Request().Context())
	if sess == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "no active session")
	}
	return sess, nil
}

// decodeFeatures accepts each parameter as a JSON string or number.
func decodeFeatures(c echo.Context) (map[string]string, error) {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case nil:
		default:
			return nil, fmt.Errorf("%w: %s must be a number", risk.ErrInvalidFeature, k)
		}
	}
	return out, nil
}

func (h *Handler) PredictTabular(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	inputs, err := decodeFeatures(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.PredictTabular(c.Request().Context(), sess, inputs)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, newResponse(p))
}

func (h *Handler) PredictImage(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer f.Close()

	p, err := h.svc.PredictImage(c.Request().Context(), sess, Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, newResponse(p))
}

func (h *Handler) GetRecord(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.Record(c.Request().Context(), sess)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tabular": newResponse(rec.Tabular),
		"image":   newResponse(rec.Image),
	})
}

func (h *Handler) ClearPrediction(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	kind, ok := risk.ParseSource(c.Param("kind"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, session.ErrInvalidKind.Error())
	}
	if err := h.svc.Clear(c.Request().Context(), sess, kind); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Report(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	kind, ok := risk.ParseSource(c.Param("kind"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, session.ErrInvalidKind.Error())
	}
	format, err := reporting.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.Report(c.Request().Context(), sess, kind, format)
	if err != nil {
		return toHTTPError(err)
	}
	return reporting.Attach(c, r)
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, risk.ErrInvalidFeature),
		errors.Is(err, ErrUnsupportedFile),
		errors.Is(err, ErrEmptyFile),
		errors.Is(err, inference.ErrUnsupportedImage),
		errors.Is(err, inference.ErrInvalidImage),
		errors.Is(err, inference.ErrImageTooLarge),
		errors.Is(err, session.ErrInvalidKind):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, inference.ErrTabularUnavailable),
		errors.Is(err, inference.ErrImageUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrNoPrediction):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusUnauthorized, "session expired or logged out")
	case errors.Is(err, risk.ErrScoreOutOfRange):
		return echo.NewHTTPError(http.StatusBadGateway, "image model returned an invalid score")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

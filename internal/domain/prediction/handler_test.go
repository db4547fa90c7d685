package prediction

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/lungscreen/lungscreen/internal/inference"
	"github.com/lungscreen/lungscreen/internal/platform/auth"
)

func (f *fixture) context(method, target string, body *bytes.Buffer, contentType string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	req = req.WithContext(auth.WithSession(req.Context(), f.sess))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d (%v)", code, httpErr.Code, httpErr.Message)
	}
}

func tabularBody(t *testing.T, override map[string]interface{}) *bytes.Buffer {
	t.Helper()
	body := map[string]interface{}{}
	for k, v := range validInputs() {
		body[k] = v
	}
	body["age"] = 44
	for k, v := range override {
		body[k] = v
	}
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewBuffer(b)
}

func TestHandler_PredictTabular(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	c, rec := f.context(http.MethodPost, "/", tabularBody(t, nil), echo.MIMEApplicationJSON)

	if err := h.PredictTabular(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assessment := resp["assessment"].(map[string]interface{})
	if assessment["risk_level"] != "High" {
		t.Errorf("unexpected assessment %v", assessment)
	}
}

func TestHandler_PredictTabular_Malformed(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)

	c, _ := f.context(http.MethodPost, "/", tabularBody(t, map[string]interface{}{"fatigue": []int{1}}), echo.MIMEApplicationJSON)
	assertStatus(t, h.PredictTabular(c), http.StatusBadRequest)

	c, _ = f.context(http.MethodPost, "/", tabularBody(t, map[string]interface{}{"fatigue": "x"}), echo.MIMEApplicationJSON)
	assertStatus(t, h.PredictTabular(c), http.StatusBadRequest)

	c, _ = f.context(http.MethodPost, "/", bytes.NewBufferString("{not json"), echo.MIMEApplicationJSON)
	assertStatus(t, h.PredictTabular(c), http.StatusBadRequest)
}

func TestHandler_PredictTabular_Unavailable(t *testing.T) {
	f := newFixture(t)
	f.svc.models = &inference.Models{}
	h := NewHandler(f.svc)
	c, _ := f.context(http.MethodPost, "/", tabularBody(t, nil), echo.MIMEApplicationJSON)

	err := h.PredictTabular(c)
	assertStatus(t, err, http.StatusServiceUnavailable)
	if msg := err.(*echo.HTTPError).Message; msg != "tabular model unavailable" {
		t.Errorf("unexpected message %v", msg)
	}
}

func multipartBody(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write(data)
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHandler_PredictImage(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	body, ct := multipartBody(t, "file", "scan.png", pngBytes(t))
	c, rec := f.context(http.MethodPost, "/", body, ct)

	if err := h.PredictImage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["confidence_narrative"] != "High confidence" {
		t.Errorf("unexpected narrative %v", resp["confidence_narrative"])
	}
	if cc, _ := resp["cancer_confidence"].(float64); cc < 0.89 || cc > 0.91 {
		t.Errorf("unexpected cancer confidence %v", resp["cancer_confidence"])
	}
}

func TestHandler_PredictImage_MissingFile(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	body, ct := multipartBody(t, "other", "scan.png", pngBytes(t))
	c, _ := f.context(http.MethodPost, "/", body, ct)
	assertStatus(t, h.PredictImage(c), http.StatusBadRequest)
}

func TestHandler_PredictImage_WrongType(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	body, ct := multipartBody(t, "file", "scan.bmp", []byte("BM"))
	c, _ := f.context(http.MethodPost, "/", body, ct)
	assertStatus(t, h.PredictImage(c), http.StatusBadRequest)
}

func TestHandler_PredictImage_BadImageData(t *testing.T) {
	whole := pngBytes(t)
	tests := []struct {
		name string
		data []byte
	}{
		{"oversized header", oversizedPNG()},
		{"truncated", whole[:len(whole)/2]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			h := NewHandler(f.svc)
			body, ct := multipartBody(t, "file", "scan.png", tt.data)
			c, _ := f.context(http.MethodPost, "/", body, ct)
			assertStatus(t, h.PredictImage(c), http.StatusBadRequest)
			if f.image.calls != 0 {
				t.Error("model must not run on bad image data")
			}
		})
	}
}

func TestHandler_RecordClearAndReport(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)

	c, _ := f.context(http.MethodPost, "/", tabularBody(t, nil), echo.MIMEApplicationJSON)
	if err := h.PredictTabular(c); err != nil {
		t.Fatalf("predict: %v", err)
	}

	c, rec := f.context(http.MethodGet, "/", nil, "")
	if err := h.GetRecord(c); err != nil {
		t.Fatalf("record: %v", err)
	}
	var record map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &record)
	if record["tabular"] == nil || record["image"] != nil {
		t.Errorf("unexpected record %v", record)
	}

	c, rec = f.context(http.MethodGet, "/?format=docx", nil, "")
	c.SetParamNames("kind")
	c.SetParamValues("tabular")
	if err := h.Report(c); err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderContentDisposition), ".docx") {
		t.Errorf("expected docx attachment, got %q", rec.Header().Get(echo.HeaderContentDisposition))
	}

	c, _ = f.context(http.MethodGet, "/?format=rtf", nil, "")
	c.SetParamNames("kind")
	c.SetParamValues("tabular")
	assertStatus(t, h.Report(c), http.StatusBadRequest)

	c, rec = f.context(http.MethodDelete, "/", nil, "")
	c.SetParamNames("kind")
	c.SetParamValues("tabular")
	if err := h.ClearPrediction(c); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	c, _ = f.context(http.MethodGet, "/", nil, "")
	c.SetParamNames("kind")
	c.SetParamValues("tabular")
	assertStatus(t, h.Report(c), http.StatusNotFound)

	c, _ = f.context(http.MethodDelete, "/", nil, "")
	c.SetParamNames("kind")
	c.SetParamValues("xray")
	assertStatus(t, h.ClearPrediction(c), http.StatusBadRequest)
}

func TestHandler_NoSession(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	assertStatus(t, h.GetRecord(c), http.StatusUnauthorized)
}

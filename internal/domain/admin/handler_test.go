package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func get(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec), rec
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestHandler_Stats(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc)
	c, rec := get("/")
	if err := h.Stats(c); err != nil {
		t.Fatalf("stats: %v", err)
	}
	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["total_users"] != float64(2) || body["confirmed"] != float64(4) {
		t.Errorf("unexpected body %v", body)
	}
}

func TestHandler_ListUsers(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc)
	c, rec := get("/?limit=1")
	if err := h.ListUsers(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"total":2`) || !strings.Contains(body, `"has_more":true`) {
		t.Errorf("unexpected body %s", body)
	}
	if strings.Contains(body, "hunter2") {
		t.Error("password leaked")
	}
}

func TestHandler_Report(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc)

	c, rec := get("/?format=docx")
	if err := h.Report(c); err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.HasPrefix(rec.Body.String(), "PK") {
		t.Error("expected a zip container")
	}

	c, _ = get("/?format=odt")
	expectHTTPError(t, h.Report(c), http.StatusBadRequest)
}

func TestHandler_ExportUsers(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc)
	c, rec := get("/")
	if err := h.ExportUsers(c); err != nil {
		t.Fatalf("export: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestHandler_RecentAndTimeSeries(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc)

	c, rec := get("/?limit=2")
	if err := h.RecentPredictions(c); err != nil {
		t.Fatalf("recent: %v", err)
	}
	var events []map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &events)
	if len(events) != 2 {
		t.Errorf("expected 2 events, got %d", len(events))
	}

	c, _ = get("/?limit=zero")
	expectHTTPError(t, h.RecentPredictions(c), http.StatusBadRequest)

	c, rec = get("/?interval=1h&lookback=3h")
	if err := h.TimeSeries(c); err != nil {
		t.Fatalf("timeseries: %v", err)
	}
	var buckets []map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &buckets)
	if len(buckets) < 3 {
		t.Errorf("expected at least 3 buckets, got %d", len(buckets))
	}

	c, _ = get("/?interval=1s&lookback=24h")
	expectHTTPError(t, h.TimeSeries(c), http.StatusBadRequest)

	c, _ = get("/?interval=bogus")
	expectHTTPError(t, h.TimeSeries(c), http.StatusBadRequest)
}

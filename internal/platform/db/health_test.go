package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runHealth(t *testing.T, h echo.HandlerFunc) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec, body
}

func TestHealthHandler_AllHealthy(t *testing.T) {
	checks := []Check{
		{Name: "database", Probe: func(context.Context) error { return nil }},
		{Name: "redis", Probe: func(context.Context) error { return nil }},
	}
	extra := func() map[string]interface{} {
		return map[string]interface{}{"models": map[string]bool{"tabular": true, "image": false}}
	}

	rec, body := runHealth(t, HealthHandler(checks, extra))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", body["status"])
	}
	if _, ok := body["models"]; !ok {
		t.Error("expected models section in body")
	}
}

func TestHealthHandler_FailingCheck(t *testing.T) {
	checks := []Check{
		{Name: "database", Probe: func(context.Context) error { return errors.New("connection refused") }},
	}

	rec, body := runHealth(t, HealthHandler(checks, nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("expected unhealthy, got %v", body["status"])
	}
	results := body["checks"].(map[string]interface{})
	if results["database"] != "connection refused" {
		t.Errorf("unexpected check result %v", results["database"])
	}
}

func TestHealthHandler_NoChecks(t *testing.T) {
	rec, _ := runHealth(t, HealthHandler(nil, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with no dependencies configured, got %d", rec.Code)
	}
}

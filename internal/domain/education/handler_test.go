package education

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/lungscreen/lungscreen/internal/domain/risk"
)

func TestHandler_List(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := NewHandler().List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []Topic
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"overview", "risk-factors", "symptoms", "ct-scan-model", "tabular-model"}
	if len(got) != len(want) {
		t.Fatalf("expected %d topics, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("topic %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestHandler_Get(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("tabular-model")

	if err := NewHandler().Get(c); err != nil {
		t.Fatalf("get: %v", err)
	}
	var topic Topic
	json.Unmarshal(rec.Body.Bytes(), &topic)
	if len(topic.Sections) == 0 || len(topic.Sections[0].Points) != len(risk.FeatureNames) {
		t.Errorf("expected one input per feature, got %+v", topic.Sections)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("nope")
	err := NewHandler().Get(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func ctxWithQuery(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users?"+query, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", DefaultLimit, 0},
		{"limit=5&offset=10", 5, 10},
		{"limit=500", MaxLimit, 0},
		{"limit=-1&offset=-5", DefaultLimit, 0},
		{"limit=abc", DefaultLimit, 0},
	}
	for _, tt := range tests {
		p := FromContext(ctxWithQuery(tt.query))
		if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
			t.Errorf("%q: got limit=%d offset=%d, want %d/%d", tt.query, p.Limit, p.Offset, tt.wantLimit, tt.wantOffset)
		}
	}
}

func TestNewResponse(t *testing.T) {
	r := NewResponse([]string{"a"}, 25, 10, 10)
	if !r.HasMore {
		t.Error("expected more results")
	}
	r = NewResponse([]string{"a"}, 25, 10, 20)
	if r.HasMore {
		t.Error("expected last page")
	}
}

func TestParams_PreviousOffset(t *testing.T) {
	if got := (Params{Limit: 10, Offset: 5}).PreviousOffset(); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := (Params{Limit: 10, Offset: 30}).PreviousOffset(); got != 20 {
		t.Errorf("expected 20, got %d", got)
	}
}

func TestPage_Links(t *testing.T) {
	r := Page(ctxWithQuery("limit=10&offset=10"), []int{1}, 35)
	rels := map[string]string{}
	for _, l := range r.Links {
		rels[l.Relation] = l.URL
	}
	if rels["self"] != "/api/v1/admin/users?offset=10&limit=10" {
		t.Errorf("unexpected self link %q", rels["self"])
	}
	if rels["next"] != "/api/v1/admin/users?offset=20&limit=10" {
		t.Errorf("unexpected next link %q", rels["next"])
	}
	if rels["previous"] != "/api/v1/admin/users?offset=0&limit=10" {
		t.Errorf("unexpected previous link %q", rels["previous"])
	}

	r = Page(ctxWithQuery(""), []int{}, 0)
	if len(r.Links) != 1 {
		t.Errorf("expected only a self link, got %v", r.Links)
	}
}

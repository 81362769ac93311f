package pagination

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestParse(t *testing.T) {
	tests := []struct {
		limit, offset string
		want          Params
	}{
		{"", "", Params{Limit: DefaultLimit}},
		{"10", "30", Params{Limit: 10, Offset: 30}},
		{"500", "0", Params{Limit: MaxLimit}},
		{"-5", "-1", Params{Limit: DefaultLimit}},
		{"abc", "x", Params{Limit: DefaultLimit}},
	}
	for _, tt := range tests {
		if got := Parse(tt.limit, tt.offset); got != tt.want {
			t.Errorf("Parse(%q, %q) = %+v, want %+v", tt.limit, tt.offset, got, tt.want)
		}
	}
}

func TestFromContext(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/tabelas-normativas?limit=5&offset=10", nil), httptest.NewRecorder())
	if got := FromContext(c); got != (Params{Limit: 5, Offset: 10}) {
		t.Errorf("unexpected params %+v", got)
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage([]string{"a", "b"}, 5, Params{Limit: 2, Offset: 2})
	if !p.HasMore || p.Total != 5 || p.Limit != 2 || p.Offset != 2 {
		t.Errorf("unexpected page %+v", p)
	}
	if NewPage([]string{"e"}, 5, Params{Limit: 2, Offset: 4}).HasMore {
		t.Error("expected the last page to have no more results")
	}

	out, err := json.Marshal(NewPage[int](nil, 0, Params{Limit: DefaultLimit}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"data":[]`) {
		t.Errorf("expected an empty data array, got %s", out)
	}
}

func TestParams_LinkHeader(t *testing.T) {
	u, _ := url.Parse("/api/v1/tabelas-normativas?tipo=mig&limit=10&offset=10")

	tests := []struct {
		name   string
		p      Params
		total  int
		want   []string
		absent []string
	}{
		{
			name:  "middle page",
			p:     Params{Limit: 10, Offset: 10},
			total: 35,
			want: []string{
				`</api/v1/tabelas-normativas?limit=10&offset=20&tipo=mig>; rel="next"`,
				`</api/v1/tabelas-normativas?limit=10&offset=0&tipo=mig>; rel="prev"`,
			},
		},
		{
			name:   "first page",
			p:      Params{Limit: 10},
			total:  35,
			want:   []string{`rel="next"`},
			absent: []string{`rel="prev"`},
		},
		{
			name:   "prev clamps at zero",
			p:      Params{Limit: 10, Offset: 4},
			total:  12,
			want:   []string{`offset=0&tipo=mig>; rel="prev"`},
			absent: []string{`rel="next"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.p.LinkHeader(u, tt.total)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("expected %q in %q", w, got)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(got, a) {
					t.Errorf("did not expect %q in %q", a, got)
				}
			}
		})
	}

	if got := (Params{Limit: 10}).LinkHeader(u, 3); got != "" {
		t.Errorf("expected no links for a single page, got %q", got)
	}
}

func TestSetLinkHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/tabelas-normativas?tipo=r1", nil), rec)

	SetLinkHeader(c, Params{Limit: 1}, 3)
	if got := rec.Header().Get("Link"); !strings.Contains(got, "tipo=r1") {
		t.Errorf("expected the filter to survive, got %q", got)
	}

	rec = httptest.NewRecorder()
	c = echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/tabelas-normativas", nil), rec)
	SetLinkHeader(c, Params{Limit: 10}, 3)
	if _, ok := rec.Header()["Link"]; ok {
		t.Error("expected no Link header for a single page")
	}
}

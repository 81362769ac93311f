// Package pagination reads limit/offset query parameters and renders
// paginated list responses with RFC 8288 Link headers.
package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is one page request. Out-of-range values are clamped, never
// rejected.
type Params struct {
	Limit  int
	Offset int
}

func FromContext(c echo.Context) Params {
	return Parse(c.QueryParam("limit"), c.QueryParam("offset"))
}

// Parse clamps limit to 1..MaxLimit (DefaultLimit when missing or
// invalid) and offset to >= 0.
func Parse(limit, offset string) Params {
	p := Params{Limit: DefaultLimit}
	if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		p.Limit = min(n, MaxLimit)
	}
	if n, err := strconv.Atoi(offset); err == nil && n > 0 {
		p.Offset = n
	}
	return p
}

func (p Params) HasNext(total int) bool { return p.Offset+p.Limit < total }

func (p Params) HasPrevious() bool { return p.Offset > 0 }

// Page is the list envelope returned by collection endpoints.
type Page[T any] struct {
	Data    []T  `json:"data"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// NewPage wraps items; a nil slice is rendered as [].
func NewPage[T any](items []T, total int, p Params) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Data: items, Total: total, Limit: p.Limit, Offset: p.Offset, HasMore: p.HasNext(total)}
}

// LinkHeader returns next/prev links for u, keeping its other query
// parameters (filters such as tipo). It is empty for a single page.
func (p Params) LinkHeader(u *url.URL, total int) string {
	var links []string
	if p.HasNext(total) {
		links = append(links, link(u, p.Limit, p.Offset+p.Limit, "next"))
	}
	if p.HasPrevious() {
		links = append(links, link(u, p.Limit, max(p.Offset-p.Limit, 0), "prev"))
	}
	return strings.Join(links, ", ")
}

func link(u *url.URL, limit, offset int, rel string) string {
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return fmt.Sprintf(`<%s?%s>; rel=%q`, u.Path, q.Encode(), rel)
}

// SetLinkHeader writes the Link header for the current request.
func SetLinkHeader(c echo.Context, p Params, total int) {
	if h := p.LinkHeader(c.Request().URL, total); h != "" {
		c.Response().Header().Set("Link", h)
	}
}

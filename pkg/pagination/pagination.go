package pagination

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/JaimeStill/docent/pkg/query"
)

// ErrInvalidPage reports a malformed page or page_size parameter.
var ErrInvalidPage = errors.New("invalid pagination parameter")

// SortFields accepts either "Label,-UpdatedAt" or a JSON array of
// query.SortField objects.
type SortFields []query.SortField

func (s *SortFields) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = query.ParseSortFields(str)
		return nil
	}

	var fields []query.SortField
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = fields
	return nil
}

// PageRequest selects one page of a listing, optionally filtered by a
// free-text search and ordered by sort fields.
type PageRequest struct {
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Search   *string    `json:"search,omitempty"`
	Sort     SortFields `json:"sort,omitempty"`
}

// Normalize clamps Page to at least 1 and PageSize into [1, cfg.MaxPageSize],
// substituting cfg.DefaultPageSize when unset.
func (r *PageRequest) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	r.PageSize = min(r.PageSize, cfg.MaxPageSize)
}

// Offset returns the number of rows preceding the page.
func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// Window returns the [start, end) slice bounds of the page within total items.
func (r PageRequest) Window(total int) (start, end int) {
	start = min(r.Offset(), total)
	end = min(start+r.PageSize, total)
	return start, end
}

// PageRequestFromQuery reads page, page_size, search, and sort from values
// and normalizes the result. Non-numeric page or page_size values are
// rejected with ErrInvalidPage.
func PageRequestFromQuery(values url.Values, cfg Config) (PageRequest, error) {
	var req PageRequest

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"page", &req.Page},
		{"page_size", &req.PageSize},
	} {
		raw := values.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return PageRequest{}, fmt.Errorf("%w: %s=%q", ErrInvalidPage, p.name, raw)
		}
		*p.dst = n
	}

	if s := values.Get("search"); s != "" {
		req.Search = &s
	}
	req.Sort = query.ParseSortFields(values.Get("sort"))

	req.Normalize(cfg)
	return req, nil
}

// PageResult is one page of T with the counts a client needs to page further.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPageResult wraps data as the page req selected out of total items.
// TotalPages is at least 1 so an empty listing still reports page 1 of 1.
func NewPageResult[T any](data []T, total int, req PageRequest) PageResult[T] {
	if data == nil {
		data = []T{}
	}

	totalPages := 1
	if req.PageSize > 0 && total > 0 {
		totalPages = (total + req.PageSize - 1) / req.PageSize
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}
}

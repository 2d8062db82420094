package model

import (
	"net/url"
	"strconv"
)

// PagedReply is one page of a server-side search.
type PagedReply[T any] struct {
	Items    []T `json:"items"`
	Offset   int `json:"offset"`
	Total    int `json:"total"`
	MaxPages int `json:"maxPages"`
}

// SearchParams are the query parameters accepted by list endpoints.
// Filter terms look like "state::created" and are joined with ";".
// Sort names a field, prefixed with "-" for descending order.
type SearchParams struct {
	Filter string
	Sort   string
	Page   int
	Limit  int
}

// Query encodes the non-zero parameters.
func (p SearchParams) Query() url.Values {
	q := url.Values{}
	if p.Filter != "" {
		q.Set("filter", p.Filter)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

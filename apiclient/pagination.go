package apiclient

import (
	"context"
	"net/url"
	"strconv"
)

// Page is the backend's paginated list shape
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// HasNext reports whether another page follows this one
func (p Page[T]) HasNext() bool {
	return p.Page < p.TotalPages
}

// PageParams are the common list query parameters. Zero values are omitted.
type PageParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
}

func (p PageParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.SortBy != "" {
		v.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		v.Set("sortOrder", p.SortOrder)
	}
	return v
}

// Requester is the request surface the endpoint services depend on
type Requester interface {
	Get(ctx context.Context, path string, out any, options ...RequestOption) error
	Post(ctx context.Context, path string, body, out any, options ...RequestOption) error
	Put(ctx context.Context, path string, body, out any, options ...RequestOption) error
	Patch(ctx context.Context, path string, body, out any, options ...RequestOption) error
	Delete(ctx context.Context, path string, body, out any, options ...RequestOption) error
	PostMultipart(ctx context.Context, path string, fields map[string]string, file FilePart, out any, options ...RequestOption) error
	Anonymous(ctx context.Context, method, path string, body, out any, options ...RequestOption) error
}

var _ Requester = (*Client)(nil)

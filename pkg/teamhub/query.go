package teamhub

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// QueryParams holds the query parameters accepted by listing endpoints.
// Zero-valued fields are omitted from the encoded query string.
type QueryParams struct {
	// Page selects a page directly; listings normally follow Link headers
	// instead.
	Page int
	// PerPage sets the server page size.
	PerPage int
	// Status filters by resource status (e.g. "archived", "trashed").
	Status string
	// Sort names the sort field.
	Sort string
	// Direction is "asc" or "desc".
	Direction string
	// Since restricts results to resources updated at or after the instant.
	Since time.Time
	// Filters carries endpoint-specific parameters verbatim. Keys with nil or
	// empty values are omitted.
	Filters map[string][]string
}

// NewQueryParams creates an empty QueryParams.
func NewQueryParams() *QueryParams {
	return &QueryParams{Filters: make(map[string][]string)}
}

// WithStatus sets the status filter.
func (q *QueryParams) WithStatus(status string) *QueryParams {
	q.Status = status

	return q
}

// WithPerPage sets the server page size.
func (q *QueryParams) WithPerPage(n int) *QueryParams {
	q.PerPage = n

	return q
}

// WithFilter appends values for an endpoint-specific parameter.
func (q *QueryParams) WithFilter(key string, values ...string) *QueryParams {
	if q.Filters == nil {
		q.Filters = make(map[string][]string)
	}

	q.Filters[key] = append(q.Filters[key], values...)

	return q
}

// ToValues encodes the parameters as url.Values. Nil and zero values are
// omitted, never sent as empty strings.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}

	if q == nil {
		return values
	}

	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}

	if q.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(q.PerPage))
	}

	if q.Status != "" {
		values.Set("status", q.Status)
	}

	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}

	if q.Direction != "" {
		values.Set("direction", q.Direction)
	}

	if !q.Since.IsZero() {
		values.Set("since", q.Since.UTC().Format(time.RFC3339))
	}

	for key, vals := range q.Filters {
		filtered := make([]string, 0, len(vals))

		for _, v := range vals {
			if v != "" {
				filtered = append(filtered, v)
			}
		}

		if len(filtered) > 0 {
			values.Set(key, strings.Join(filtered, ","))
		}
	}

	return values
}

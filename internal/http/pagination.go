package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/teamhub/pkg/teamhub"
)

// FetchPage fetches one page of a paginated listing. pageURL is either a
// path relative to the base URL (the first page) or an absolute rel="next"
// URL taken from a previous page's Link header. Next links that leave the
// API's origin are rejected rather than followed.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*teamhub.Page, error) {
	if strings.HasPrefix(pageURL, "http://") || strings.HasPrefix(pageURL, "https://") {
		if !sameOrigin(c.baseURL, pageURL) {
			return nil, fmt.Errorf("%w: %s", teamhub.ErrPaginationCrossOrigin, pageURL)
		}
	}

	resp, err := c.Get(ctx, pageURL, nil)
	if err != nil {
		return nil, err
	}

	items, bodyCount, err := extractItems(resp.Body)
	if err != nil {
		return nil, err
	}

	next := ParseNextLink(resp.Headers.Get("Link"))
	if next != "" {
		next, err = resolveURL(c.baseURL+"/", next)
		if err != nil {
			return nil, fmt.Errorf("resolving next link: %w", err)
		}
	}

	totalCount := bodyCount
	if headerCount := resp.Headers.Get("X-Total-Count"); headerCount != "" {
		if parsed, parseErr := strconv.Atoi(headerCount); parseErr == nil {
			totalCount = parsed
		}
	}

	return &teamhub.Page{
		Items:      items,
		NextURL:    next,
		TotalCount: totalCount,
		FromCache:  resp.FromCache,
	}, nil
}

// extractItems pulls the item list out of a page body. Listings are either a
// bare JSON array or an object wrapping a single array field alongside
// metadata such as total_count.
func extractItems(body []byte) ([]json.RawMessage, int, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return nil, 0, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, 0, fmt.Errorf("decoding page items: %w", err)
		}

		return items, 0, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, 0, fmt.Errorf("decoding page body: %w", err)
	}

	totalCount := 0
	if raw, ok := wrapper["total_count"]; ok {
		_ = json.Unmarshal(raw, &totalCount)
	}

	var items []json.RawMessage

	for key, raw := range wrapper {
		value := strings.TrimSpace(string(raw))
		if !strings.HasPrefix(value, "[") {
			continue
		}

		if items != nil {
			return nil, 0, fmt.Errorf("decoding page body: multiple array fields, cannot pick items (saw %q)", key)
		}

		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, 0, fmt.Errorf("decoding page items: %w", err)
		}
	}

	return items, totalCount, nil
}

// PaginateAll follows a listing from path to its end, decoding every item
// into T. The iterator's page cap still applies.
func PaginateAll[T any](ctx context.Context, client *Client, path string, query url.Values) ([]T, error) {
	return PaginateAllWithLimit[T](ctx, client, path, query, 0)
}

// PaginateAllWithLimit is PaginateAll capped at limit items. A limit of zero
// means no limit.
func PaginateAllWithLimit[T any](ctx context.Context, client *Client, path string, query url.Values, limit int) ([]T, error) {
	startURL := path
	if len(query) > 0 {
		startURL = path + "?" + query.Encode()
	}

	it := teamhub.NewPageIterator[T](ctx, client, startURL, client.MaxPages(), client.Hooks())
	defer it.Close()

	if limit <= 0 {
		return it.All()
	}

	items := make([]T, 0, limit)

	err := it.ForEach(func(item T) bool {
		items = append(items, item)

		return len(items) < limit
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

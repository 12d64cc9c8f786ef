package teamhub

import (
	"context"
	"encoding/json"
	"fmt"
)

// Page is one fetched page of a paginated listing.
type Page struct {
	// Items are the raw JSON items of this page.
	Items []json.RawMessage
	// NextURL is the resolved rel="next" Link target, empty on the last page.
	NextURL string
	// TotalCount is the X-Total-Count header value, 0 when absent.
	TotalCount int
	// FromCache indicates the page was served from the conditional cache.
	FromCache bool
}

// PageFetcher fetches one page of a paginated listing. The transport client
// implements it; pageURL is either the starting path or an absolute rel="next"
// URL from a previous page.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (*Page, error)
}

// PageIterator lazily walks a Link-header-paginated listing, decoding items
// into T. No request is made at construction: the first Next or HasNext call
// triggers the first page fetch, and subsequent pages are fetched only as
// their items are consumed. The sequence is forward-only and finite: it ends
// when a page carries no rel="next" Link or when maxPages pages have been
// fetched (the cap terminates silently; it is documented behavior, not an
// error).
//
// A PageIterator is single-consumer. Iterating one instance from multiple
// goroutines is undefined; create one iterator per consumer instead.
type PageIterator[T any] struct {
	ctx     context.Context
	fetcher PageFetcher
	hooks   Hooks

	nextURL  string
	maxPages int
	pages    int

	buffer []T
	index  int
	done   bool
	err    error

	closed  bool
	onClose func()
}

// NewPageIterator creates an iterator over the listing that starts at
// startURL. maxPages must be positive; hooks may be nil.
func NewPageIterator[T any](ctx context.Context, fetcher PageFetcher, startURL string, maxPages int, hooks Hooks) *PageIterator[T] {
	if hooks == nil {
		hooks = NoopHooks{}
	}

	return &PageIterator[T]{
		ctx:      ctx,
		fetcher:  fetcher,
		hooks:    hooks,
		nextURL:  startURL,
		maxPages: maxPages,
	}
}

// OnClose registers a cleanup function invoked exactly once when the iterator
// is closed or exhausted. It runs even when the consumer breaks out of
// iteration early, so resources tied to the listing can always be released.
func (it *PageIterator[T]) OnClose(fn func()) {
	it.onClose = fn
}

// HasNext reports whether another item is available, fetching the next page
// if the buffer is exhausted. A fetch failure makes HasNext return false;
// check Err or call Next to observe the error.
func (it *PageIterator[T]) HasNext() bool {
	if it.index < len(it.buffer) {
		return true
	}

	// Pages can be empty mid-sequence; keep fetching until an item shows up
	// or the sequence ends.
	for it.index >= len(it.buffer) && !it.done && it.err == nil {
		it.fetchNext()
	}

	return it.index < len(it.buffer)
}

// Next returns the next item. It returns ErrIteratorExhausted after the last
// item, or the fetch/decode error at the point of failure. Items already
// returned remain valid regardless of later errors.
func (it *PageIterator[T]) Next() (T, error) {
	var zero T

	if !it.HasNext() {
		if it.err != nil {
			return zero, it.err
		}

		return zero, ErrIteratorExhausted
	}

	item := it.buffer[it.index]
	it.index++

	if it.index >= len(it.buffer) && it.done {
		it.Close()
	}

	return item, nil
}

// Err returns the first error encountered during iteration, if any.
func (it *PageIterator[T]) Err() error {
	return it.err
}

// Close ends iteration and runs the registered cleanup exactly once. It is
// safe to call multiple times. Consumers using Next directly should defer it;
// All and ForEach close automatically.
func (it *PageIterator[T]) Close() {
	it.done = true

	if !it.closed {
		it.closed = true

		if it.onClose != nil {
			it.onClose()
		}
	}
}

// All drains the iterator and returns every remaining item.
func (it *PageIterator[T]) All() ([]T, error) {
	defer it.Close()

	var items []T

	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return items, err
		}

		items = append(items, item)
	}

	return items, it.err
}

// ForEach applies fn to each remaining item. Returning false from fn stops
// iteration early; cleanup still runs.
func (it *PageIterator[T]) ForEach(fn func(item T) bool) error {
	defer it.Close()

	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return err
		}

		if !fn(item) {
			return nil
		}
	}

	return it.err
}

// fetchNext loads the next page into the buffer. The pagination hook fires
// before the request, with the 1-based page index.
func (it *PageIterator[T]) fetchNext() {
	if it.nextURL == "" {
		it.done = true
		it.Close()

		return
	}

	if it.pages >= it.maxPages {
		// Silent cap: terminate the sequence without error.
		it.done = true
		it.Close()

		return
	}

	it.pages++
	it.firePageHook()

	page, err := it.fetcher.FetchPage(it.ctx, it.nextURL)
	if err != nil {
		it.err = err
		it.done = true
		it.Close()

		return
	}

	items := make([]T, 0, len(page.Items))

	for _, raw := range page.Items {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			it.err = fmt.Errorf("decoding page %d item: %w", it.pages, err)
			it.done = true
			it.Close()

			return
		}

		items = append(items, item)
	}

	it.buffer = items
	it.index = 0
	it.nextURL = page.NextURL

	if it.nextURL == "" {
		it.done = true
	}
}

// firePageHook notifies hooks of the upcoming fetch. A panicking hook must
// not break iteration.
func (it *PageIterator[T]) firePageHook() {
	defer func() { _ = recover() }()

	it.hooks.OnPage(it.ctx, it.nextURL, it.pages)
}

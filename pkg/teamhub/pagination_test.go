package teamhub

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// fakeFetcher serves scripted pages keyed by URL and counts fetches.
type fakeFetcher struct {
	pages   map[string]*Page
	fetches int
	err     error
}

func (f *fakeFetcher) FetchPage(_ context.Context, pageURL string) (*Page, error) {
	f.fetches++

	if f.err != nil {
		return nil, f.err
	}

	page, ok := f.pages[pageURL]
	if !ok {
		return &Page{}, nil
	}

	return page, nil
}

func rawItems(items ...fakeItem) []json.RawMessage {
	raw := make([]json.RawMessage, 0, len(items))

	for _, item := range items {
		data, _ := json.Marshal(item)
		raw = append(raw, data)
	}

	return raw
}

func twoPageFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]*Page{
		"/1/projects": {
			Items:   rawItems(fakeItem{ID: 1, Name: "alpha"}, fakeItem{ID: 2, Name: "beta"}),
			NextURL: "https://api.example.com/1/projects?page=2",
		},
		"https://api.example.com/1/projects?page=2": {
			Items: rawItems(fakeItem{ID: 3, Name: "gamma"}),
		},
	}}
}

func TestPageIterator_Laziness(t *testing.T) {
	t.Parallel()

	fetcher := twoPageFetcher()
	it := NewPageIterator[fakeItem](context.Background(), fetcher, "/1/projects", 100, nil)

	// Construction performs no fetch.
	assert.Zero(t, fetcher.fetches)

	require.True(t, it.HasNext())
	assert.Equal(t, 1, fetcher.fetches)

	// Consuming buffered items does not fetch further pages.
	first, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, fakeItem{ID: 1, Name: "alpha"}, first)

	_, err = it.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.fetches)

	// The third item forces the second page.
	third, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "gamma", third.Name)
	assert.Equal(t, 2, fetcher.fetches)
}

func TestPageIterator_Exhaustion(t *testing.T) {
	t.Parallel()

	it := NewPageIterator[fakeItem](context.Background(), twoPageFetcher(), "/1/projects", 100, nil)

	items, err := it.All()
	require.NoError(t, err)
	require.Len(t, items, 3)

	_, err = it.Next()
	require.ErrorIs(t, err, ErrIteratorExhausted)
	assert.False(t, it.HasNext())
	assert.NoError(t, it.Err())
}

func TestPageIterator_EmptyMidSequencePage(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]*Page{
		"/1/todos": {
			Items:   rawItems(fakeItem{ID: 1}),
			NextURL: "/1/todos?page=2",
		},
		"/1/todos?page=2": {NextURL: "/1/todos?page=3"},
		"/1/todos?page=3": {Items: rawItems(fakeItem{ID: 2})},
	}}

	it := NewPageIterator[fakeItem](context.Background(), fetcher, "/1/todos", 100, nil)

	items, err := it.All()
	require.NoError(t, err)
	assert.Equal(t, []fakeItem{{ID: 1}, {ID: 2}}, items)
	assert.Equal(t, 3, fetcher.fetches)
}

func TestPageIterator_MaxPagesCap(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]*Page{}}

	// An endless chain of single-item pages.
	for i := 1; i <= 10; i++ {
		url := "/1/items?page=" + strconv.Itoa(i)
		if i == 1 {
			url = "/1/items"
		}

		fetcher.pages[url] = &Page{
			Items:   rawItems(fakeItem{ID: i}),
			NextURL: "/1/items?page=" + strconv.Itoa(i+1),
		}
	}

	it := NewPageIterator[fakeItem](context.Background(), fetcher, "/1/items", 3, nil)

	items, err := it.All()
	require.NoError(t, err)

	// The cap ends the sequence silently after three pages.
	assert.Len(t, items, 3)
	assert.Equal(t, 3, fetcher.fetches)
}

func TestPageIterator_FetchError(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{err: assert.AnError}
	it := NewPageIterator[fakeItem](context.Background(), fetcher, "/1/projects", 100, nil)

	assert.False(t, it.HasNext())

	_, err := it.Next()
	require.ErrorIs(t, err, assert.AnError)
	require.ErrorIs(t, it.Err(), assert.AnError)
}

func TestPageIterator_DecodeError(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]*Page{
		"/1/projects": {Items: []json.RawMessage{json.RawMessage(`{"id":"not a number"}`)}},
	}}

	it := NewPageIterator[fakeItem](context.Background(), fetcher, "/1/projects", 100, nil)

	_, err := it.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding page 1")
}

func TestPageIterator_OnCloseRunsOnce(t *testing.T) {
	t.Parallel()

	t.Run("early break", func(t *testing.T) {
		t.Parallel()

		it := NewPageIterator[fakeItem](context.Background(), twoPageFetcher(), "/1/projects", 100, nil)

		closes := 0
		it.OnClose(func() { closes++ })

		err := it.ForEach(func(fakeItem) bool { return false })
		require.NoError(t, err)
		assert.Equal(t, 1, closes)

		it.Close()
		assert.Equal(t, 1, closes)
	})

	t.Run("full drain", func(t *testing.T) {
		t.Parallel()

		it := NewPageIterator[fakeItem](context.Background(), twoPageFetcher(), "/1/projects", 100, nil)

		closes := 0
		it.OnClose(func() { closes++ })

		_, err := it.All()
		require.NoError(t, err)
		assert.Equal(t, 1, closes)
	})

	t.Run("fetch error", func(t *testing.T) {
		t.Parallel()

		it := NewPageIterator[fakeItem](context.Background(), &fakeFetcher{err: assert.AnError}, "/1/projects", 100, nil)

		closes := 0
		it.OnClose(func() { closes++ })

		_, err := it.All()
		require.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 1, closes)
	})
}

func TestPageIterator_PageHook(t *testing.T) {
	t.Parallel()

	hooks := &recordingPageHooks{}
	it := NewPageIterator[fakeItem](context.Background(), twoPageFetcher(), "/1/projects", 100, hooks)

	_, err := it.All()
	require.NoError(t, err)

	require.Len(t, hooks.pages, 2)
	assert.Equal(t, pageEvent{url: "/1/projects", page: 1}, hooks.pages[0])
	assert.Equal(t, pageEvent{url: "https://api.example.com/1/projects?page=2", page: 2}, hooks.pages[1])
}

func TestPageIterator_PanickingPageHook(t *testing.T) {
	t.Parallel()

	it := NewPageIterator[fakeItem](context.Background(), twoPageFetcher(), "/1/projects", 100, panicPageHooks{})

	items, err := it.All()
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

type pageEvent struct {
	url  string
	page int
}

type recordingPageHooks struct {
	NoopHooks

	pages []pageEvent
}

func (h *recordingPageHooks) OnPage(_ context.Context, pageURL string, page int) {
	h.pages = append(h.pages, pageEvent{url: pageURL, page: page})
}

type panicPageHooks struct {
	NoopHooks
}

func (panicPageHooks) OnPage(context.Context, string, int) {
	panic("observer bug")
}

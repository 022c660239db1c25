package scraper

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sean-doody/tweet-scraper/models"
)

// fakeSource serves pre-built pages and counts how many were requested.
type fakeSource struct {
	pages    [][]models.RawTweet
	requests int
	err      error
}

func (f *fakeSource) Search(query, lang string, count int, maxID int64) ([]models.RawTweet, int64, error) {
	f.requests++
	if f.err != nil {
		return nil, 0, f.err
	}
	if f.requests > len(f.pages) {
		return nil, 0, nil
	}

	page := f.pages[f.requests-1]
	if f.requests == len(f.pages) {
		return page, 0, nil
	}
	return page, page[len(page)-1].ID - 1, nil
}

func makePage(startID int64, size int) []models.RawTweet {
	page := make([]models.RawTweet, 0, size)
	for i := 0; i < size; i++ {
		page = append(page, models.RawTweet{ID: startID - int64(i)})
	}
	return page
}

func drain(t *testing.T, p *Paginator) []models.RawTweet {
	t.Helper()
	var out []models.RawTweet
	for {
		tweet, ok, err := p.Next(context.Background())
		assert.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, tweet)
	}
}

func TestPaginatorStopsAtMaxMidPage(t *testing.T) {
	// two pages of 3 available, limit of 5: the second page is truncated
	src := &fakeSource{pages: [][]models.RawTweet{
		makePage(100, 3),
		makePage(90, 3),
	}}

	p := NewPaginator(src, "#covid19", "en", 3, 5)
	out := drain(t, p)

	assert.Len(t, out, 5)
	assert.Equal(t, 2, src.requests, "should request at most 2 pages")
}

func TestPaginatorNeverExceedsMax(t *testing.T) {
	src := &fakeSource{pages: [][]models.RawTweet{
		makePage(100, 3),
		makePage(90, 3),
		makePage(80, 3),
	}}

	p := NewPaginator(src, "q", "en", 3, 4)
	out := drain(t, p)

	assert.Len(t, out, 4)
}

func TestPaginatorStopsWhenSourceExhausted(t *testing.T) {
	src := &fakeSource{pages: [][]models.RawTweet{
		makePage(100, 2),
	}}

	p := NewPaginator(src, "q", "en", 100, 1000)
	out := drain(t, p)

	assert.Len(t, out, 2)
	assert.Equal(t, 1, src.requests)
}

func TestPaginatorEmptySource(t *testing.T) {
	src := &fakeSource{}

	p := NewPaginator(src, "q", "en", 100, 1000)
	out := drain(t, p)

	assert.Empty(t, out)
	assert.Equal(t, 1, src.requests)
}

func TestPaginatorPreservesPageOrder(t *testing.T) {
	src := &fakeSource{pages: [][]models.RawTweet{
		makePage(100, 2),
		makePage(50, 2),
	}}

	p := NewPaginator(src, "q", "en", 2, 10)
	out := drain(t, p)

	ids := make([]int64, 0, len(out))
	for _, tweet := range out {
		ids = append(ids, tweet.ID)
	}
	assert.Equal(t, []int64{100, 99, 50, 49}, ids)
}

func TestPaginatorPropagatesSourceFault(t *testing.T) {
	srcErr := fmt.Errorf("request failed with status 429: rate limit exceeded")
	src := &fakeSource{err: srcErr}

	p := NewPaginator(src, "q", "en", 100, 1000)
	_, ok, err := p.Next(context.Background())

	assert.False(t, ok)
	assert.Equal(t, srcErr, err, "source faults must propagate unmodified")

	// the sequence is terminated; no further requests are issued
	_, ok, err = p.Next(context.Background())
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, 1, src.requests)
}

func TestPaginatorHonorsCancellation(t *testing.T) {
	src := &fakeSource{pages: [][]models.RawTweet{
		makePage(100, 2),
		makePage(50, 2),
	}}

	p := NewPaginator(src, "q", "en", 2, 10)
	ctx, cancel := context.WithCancel(context.Background())

	first, ok, err := p.Next(ctx)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(100), first.ID)

	cancel()

	// the buffered item from the fetched page is still delivered; the next
	// page fetch is where cancellation takes effect
	_, ok, err = p.Next(ctx)
	assert.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = p.Next(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, src.requests, "no new page is requested after cancellation")
}

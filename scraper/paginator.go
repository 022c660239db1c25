package scraper

import (
	"context"

	"github.com/sean-doody/tweet-scraper/models"
)

// PageSource yields successive pages of raw tweets for a search query. One
// call returns one page plus the max_id token to request the page after it;
// a zero token means the source has no further pages. The page size is a
// hint only: the endpoint may return fewer tweets. Implementations own
// authentication and remote rate limiting; faults are returned unmodified
// and are never retried here.
type PageSource interface {
	Search(query, lang string, count int, maxID int64) ([]models.RawTweet, int64, error)
}

// Paginator walks a PageSource page by page and hands out individual raw
// tweets, stopping once maxTweets items have been yielded even if that falls
// mid-page. The sequence is single-pass: the underlying search carries
// server-side state, so a Paginator cannot be rewound or reused.
type Paginator struct {
	src       PageSource
	query     string
	lang      string
	pageSize  int
	maxTweets int

	buf       []models.RawTweet
	nextMaxID int64
	yielded   int
	exhausted bool
	done      bool
}

// NewPaginator creates a paginator over src bounded by maxTweets.
func NewPaginator(src PageSource, query, lang string, pageSize, maxTweets int) *Paginator {
	return &Paginator{
		src:       src,
		query:     query,
		lang:      lang,
		pageSize:  pageSize,
		maxTweets: maxTweets,
	}
}

// Next returns the next raw tweet in the sequence. ok is false once the
// bound is reached or the source is exhausted. Any error from the source
// terminates the sequence and is returned unmodified. Cancellation is
// cooperative: ctx is checked before each page fetch, never mid-request.
func (p *Paginator) Next(ctx context.Context) (models.RawTweet, bool, error) {
	if p.done || p.yielded >= p.maxTweets {
		p.done = true
		return models.RawTweet{}, false, nil
	}

	for len(p.buf) == 0 {
		if p.exhausted {
			p.done = true
			return models.RawTweet{}, false, nil
		}
		if err := ctx.Err(); err != nil {
			p.done = true
			return models.RawTweet{}, false, err
		}

		page, nextMaxID, err := p.src.Search(p.query, p.lang, p.pageSize, p.nextMaxID)
		if err != nil {
			p.done = true
			return models.RawTweet{}, false, err
		}

		p.buf = page
		p.nextMaxID = nextMaxID
		if nextMaxID == 0 || len(page) == 0 {
			p.exhausted = true
		}
	}

	tweet := p.buf[0]
	p.buf = p.buf[1:]
	p.yielded++
	return tweet, true, nil
}

// Yielded reports how many tweets have been handed out so far.
func (p *Paginator) Yielded() int {
	return p.yielded
}

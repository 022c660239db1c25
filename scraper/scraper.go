// Package scraper implements the normalization pipeline: it drives a paged
// tweet source, flattens each nested tweet into the fixed tabular schema,
// and accumulates the rows into a dataset.
package scraper

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sean-doody/tweet-scraper/dataset"
)

const (
	// DefaultLang restricts results to English, matching the search API default
	// used by the dataset this schema was built for.
	DefaultLang = "en"

	// DefaultPageSize is the per-request tweet count; 100 is the endpoint max.
	DefaultPageSize = 100

	// DefaultMaxTweets bounds the total number of tweets per run.
	DefaultMaxTweets = 1000

	maxPageSize = 100
)

// Options configures one scrape run.
type Options struct {
	Query     string
	Lang      string
	PageSize  int
	MaxTweets int
}

func (o *Options) applyDefaults() {
	if o.Lang == "" {
		o.Lang = DefaultLang
	}
	if o.PageSize <= 0 || o.PageSize > maxPageSize {
		o.PageSize = DefaultPageSize
	}
	if o.MaxTweets <= 0 {
		o.MaxTweets = DefaultMaxTweets
	}
}

// Scrape runs the full pipeline: paginate src, flatten every tweet, append
// to a dataset. The run aborts on the first fault from the source; missing
// nested data in individual tweets is absorbed by Flatten and never aborts
// the run. Returns min(available, MaxTweets) rows.
func Scrape(ctx context.Context, src PageSource, opts Options, log *logrus.Logger) (*dataset.Dataset, error) {
	if opts.Query == "" {
		return nil, fmt.Errorf("scrape query must not be empty")
	}
	opts.applyDefaults()

	log.WithFields(logrus.Fields{
		"query":      opts.Query,
		"lang":       opts.Lang,
		"page_size":  opts.PageSize,
		"max_tweets": opts.MaxTweets,
	}).Info("Starting scrape run")

	ds := dataset.New()
	pager := NewPaginator(src, opts.Query, opts.Lang, opts.PageSize, opts.MaxTweets)

	for {
		raw, ok, err := pager.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("scrape aborted after %d tweets: %w", pager.Yielded(), err)
		}
		if !ok {
			break
		}
		ds.Append(Flatten(raw))
	}

	log.WithFields(logrus.Fields{
		"query":  opts.Query,
		"tweets": ds.Len(),
	}).Info("Scrape run complete")

	return ds, nil
}

// Package stats aggregates a scraped dataset into summary figures for the
// CLI report and the HTTP API.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sean-doody/tweet-scraper/dataset"
	"github.com/sean-doody/tweet-scraper/models"
)

const (
	defaultTopHashtagsLimit = 10
	defaultTopAuthorsLimit  = 10
)

// HashtagCount is one entry of the hashtag leaderboard
type HashtagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Summary holds aggregate figures over one scraped dataset
type Summary struct {
	TotalTweets   int               `json:"total_tweets"`
	Retweets      int               `json:"retweets"`
	QuoteTweets   int               `json:"quote_tweets"`
	Replies       int               `json:"replies"`
	UniqueAuthors int               `json:"unique_authors"`
	TopHashtags   []HashtagCount    `json:"top_hashtags"`
	TopAuthors    map[string]int    `json:"top_authors"`
	MostRetweeted *models.FlatTweet `json:"most_retweeted,omitempty"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

// Summarize computes aggregate figures over a dataset in one pass.
func Summarize(ds *dataset.Dataset) Summary {
	summary := Summary{
		TopAuthors:  make(map[string]int),
		GeneratedAt: time.Now(),
	}

	hashtagCounts := make(map[string]int)
	authorCounts := make(map[string]int)
	var mostRetweeted *models.FlatTweet

	for i, tweet := range ds.Rows() {
		summary.TotalTweets++
		if tweet.IsRetweet {
			summary.Retweets++
		}
		if tweet.IsQuoteStatus {
			summary.QuoteTweets++
		}
		if tweet.InReplyToUserID != nil {
			summary.Replies++
		}

		authorCounts[tweet.ScreenName]++
		for _, tag := range tweet.Hashtags {
			hashtagCounts[tag]++
		}

		if mostRetweeted == nil || tweet.RetweetCount > mostRetweeted.RetweetCount {
			mostRetweeted = &ds.Rows()[i]
		}
	}

	summary.UniqueAuthors = len(authorCounts)
	summary.TopHashtags = topHashtags(hashtagCounts, defaultTopHashtagsLimit)
	summary.TopAuthors = topAuthors(authorCounts, defaultTopAuthorsLimit)
	summary.MostRetweeted = mostRetweeted

	return summary
}

// topHashtags ranks hashtags by count descending, ties broken by tag for a
// stable order.
func topHashtags(counts map[string]int, limit int) []HashtagCount {
	ranked := make([]HashtagCount, 0, len(counts))
	for tag, count := range counts {
		ranked = append(ranked, HashtagCount{Tag: tag, Count: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Tag < ranked[j].Tag
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func topAuthors(counts map[string]int, limit int) map[string]int {
	type authorCount struct {
		author string
		count  int
	}

	ranked := make([]authorCount, 0, len(counts))
	for author, count := range counts {
		ranked = append(ranked, authorCount{author: author, count: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].author < ranked[j].author
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	top := make(map[string]int, len(ranked))
	for _, entry := range ranked {
		top[entry.author] = entry.count
	}
	return top
}

// Tracker keeps the results of the most recent scrape run for the serve
// mode API. It is the only concurrently accessed state in the program: the
// pipeline itself stays single-threaded and the tracker receives finished
// datasets.
type Tracker struct {
	mutex   sync.RWMutex
	summary Summary
	runs    int
	lastRun time.Time
	log     *logrus.Logger
}

// NewTracker creates an empty tracker
func NewTracker(log *logrus.Logger) *Tracker {
	return &Tracker{log: log}
}

// Record summarizes a finished dataset and makes it the current result.
func (t *Tracker) Record(ds *dataset.Dataset) Summary {
	summary := Summarize(ds)

	t.mutex.Lock()
	t.summary = summary
	t.runs++
	t.lastRun = time.Now()
	t.mutex.Unlock()

	t.log.WithFields(logrus.Fields{
		"tweets":         summary.TotalTweets,
		"retweets":       summary.Retweets,
		"unique_authors": summary.UniqueAuthors,
		"runs":           t.Runs(),
	}).Info("Recorded scrape run statistics")

	return summary
}

// Summary returns the latest summary; ok is false before the first run.
func (t *Tracker) Summary() (Summary, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.summary, t.runs > 0
}

// Runs returns how many scrape runs have been recorded
func (t *Tracker) Runs() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.runs
}

// LastRun returns when the latest run was recorded
func (t *Tracker) LastRun() time.Time {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.lastRun
}

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sean-doody/tweet-scraper/models"
)

const (
	searchURL    = "https://api.twitter.com/1.1/search/tweets.json"
	authURL      = "https://api.twitter.com/oauth2/token"
	defaultCount = 100 // max number of tweets per search request

	// App-auth search allocation: 450 requests per rolling 15-minute window.
	windowRequests = 450
	windowSeconds  = 900
)

// TokenBucket implements a rate limiter using the token bucket algorithm
type TokenBucket struct {
	mutex       sync.Mutex
	capacity    int           // maximum tokens the bucket can hold
	tokens      float64       // current number of tokens
	fillRate    float64       // rate at which tokens are added (tokens per second)
	lastRefill  time.Time     // time of last token refill
	waitTimeout time.Duration // max time to wait for a token
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, fillRate float64, waitTimeout time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:    capacity,
		tokens:      1, // lets start with just 1 token to avoid initial burst
		fillRate:    fillRate,
		lastRefill:  time.Now(),
		waitTimeout: waitTimeout,
	}
}

// Take attempts to take a token from the bucket
// Returns true if successful, false if no token is available
func (tb *TokenBucket) Take() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	// Refill tokens based on time elapsed
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.lastRefill = now

	newTokens := elapsed * tb.fillRate
	if newTokens > 0 {
		tb.tokens = tb.tokens + newTokens
		if tb.tokens > float64(tb.capacity) {
			tb.tokens = float64(tb.capacity)
		}
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}

	return false
}

// TakeWithTimeout attempts to take a token from the bucket, waiting up to waitTimeout
func (tb *TokenBucket) TakeWithTimeout() bool {
	if tb.Take() {
		return true
	}

	// calculate the time to wait for the next token
	tb.mutex.Lock()
	tokensNeeded := 1 - tb.tokens
	timeToWait := time.Duration(tokensNeeded / tb.fillRate * float64(time.Second))
	if timeToWait > tb.waitTimeout {
		timeToWait = tb.waitTimeout
	}
	tb.mutex.Unlock()

	time.Sleep(timeToWait)
	return tb.Take()
}

// Update recalculates the fill rate from the x-rate-limit headers. When the
// window reset is in the past (or remaining is unknown) it falls back to the
// standard allocation.
func (tb *TokenBucket) Update(remaining int, resetEpoch int64) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	secondsLeft := float64(resetEpoch - time.Now().Unix())

	// use 95% of the computed rate as a safety buffer
	if remaining > 0 && secondsLeft > 1 {
		tb.fillRate = float64(remaining) / secondsLeft * 0.95
		return
	}
	tb.fillRate = float64(windowRequests) / float64(windowSeconds) * 0.95
}

// Credentials holds the five keys the search client is constructed from.
// All five must be populated; the access token pair is carried for
// user-context auth even though the client currently runs app-only.
type Credentials struct {
	APIKey       string
	APISecret    string
	BearerToken  string
	AccessToken  string
	AccessSecret string
}

// TwitterAPI is a client for the v1.1 tweet search endpoint. It owns
// authentication and remote rate limiting; callers drive it one page at a
// time through Search.
type TwitterAPI struct {
	creds       Credentials
	httpClient  *http.Client
	bearerToken string
	mutex       sync.RWMutex
	log         *logrus.Logger
	rateLimiter *TokenBucket

	rateRemainingCached int
	rateResetCached     int64
	rateHeadersMutex    sync.RWMutex
}

// searchResponse mirrors the v1.1 search payload.
type searchResponse struct {
	Statuses       []models.RawTweet `json:"statuses"`
	SearchMetadata struct {
		NextResults string `json:"next_results"`
	} `json:"search_metadata"`
}

// NewTwitterAPI creates a new search client. maxRequestsPerWindow caps the
// request rate per 15-minute window; zero or negative uses the documented
// app-auth allocation of 450.
func NewTwitterAPI(creds Credentials, maxRequestsPerWindow int, log *logrus.Logger) *TwitterAPI {
	if maxRequestsPerWindow <= 0 {
		maxRequestsPerWindow = windowRequests
	}

	targetRate := float64(maxRequestsPerWindow) / float64(windowSeconds) * 0.95

	// Create a token bucket rate limiter:
	// - capacity: 1 (no burst capacity)
	// - fillRate: 95% of the search window allocation
	// - waitTimeout: max 30 seconds wait for a token
	rateLimiter := NewTokenBucket(
		1, // no burst
		targetRate,
		30*time.Second,
	)

	return &TwitterAPI{
		creds:           creds,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		bearerToken:     creds.BearerToken,
		log:             log,
		rateLimiter:     rateLimiter,
		rateResetCached: time.Now().Unix() + windowSeconds,
	}
}

// GetRateLimitStatus returns the cached rate limit headers (remaining
// requests and the window reset as a unix timestamp).
func (t *TwitterAPI) GetRateLimitStatus() (int, int64) {
	t.rateHeadersMutex.RLock()
	defer t.rateHeadersMutex.RUnlock()
	return t.rateRemainingCached, t.rateResetCached
}

// authenticate obtains an app-only bearer token via the client-credentials
// grant. A bearer token supplied in the credentials is used as-is; tokens
// from this grant do not expire, so one fetch lasts the process lifetime.
func (t *TwitterAPI) authenticate() error {
	t.mutex.RLock()
	token := t.bearerToken
	t.mutex.RUnlock()

	if token != "" {
		return nil
	}

	t.log.Info("Authenticating with Twitter API")

	if !t.rateLimiter.TakeWithTimeout() {
		return fmt.Errorf("rate limit exceeded during authentication attempt")
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequest("POST", authURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create auth request: %w", err)
	}

	req.SetBasicAuth(url.QueryEscape(t.creds.APIKey), url.QueryEscape(t.creds.APISecret))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("auth request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var authResp struct {
		TokenType   string `json:"token_type"`
		AccessToken string `json:"access_token"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}

	t.mutex.Lock()
	t.bearerToken = authResp.AccessToken
	t.mutex.Unlock()

	t.log.Info("Successfully authenticated with Twitter API")
	return nil
}

// Search fetches one page of search results. maxID pins the page window
// (tweets with IDs at or below it); pass 0 for the first page. It returns
// the page in endpoint order plus the maxID for the next page, or 0 when the
// results are exhausted. Faults are returned unmodified and never retried at
// the page level.
func (t *TwitterAPI) Search(query, lang string, count int, maxID int64) ([]models.RawTweet, int64, error) {
	if err := t.authenticate(); err != nil {
		return nil, 0, err
	}

	if count <= 0 || count > defaultCount {
		count = defaultCount
	}

	if !t.rateLimiter.TakeWithTimeout() {
		t.log.Warn("Rate limit exceeded, waiting before retrying")
		time.Sleep(time.Second)
		return t.Search(query, lang, count, maxID)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))
	params.Set("tweet_mode", "extended")
	if lang != "" {
		params.Set("lang", lang)
	}
	if maxID > 0 {
		params.Set("max_id", strconv.FormatInt(maxID, 10))
	}

	endpoint := searchURL + "?" + params.Encode()

	t.log.WithFields(logrus.Fields{
		"query":  query,
		"lang":   lang,
		"count":  count,
		"max_id": maxID,
	}).Info("Fetching tweets from Twitter search API")

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	t.mutex.RLock()
	token := t.bearerToken
	t.mutex.RUnlock()

	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	t.updateRateLimits(resp)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.log.WithFields(logrus.Fields{
			"query":         query,
			"response_body": string(body),
			"status_code":   resp.StatusCode,
		}).Error("Twitter API error response")
		return nil, 0, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	tweets, nextMaxID, err := parseSearchResponse(body)
	if err != nil {
		return nil, 0, err
	}

	t.log.WithFields(logrus.Fields{
		"tweet_count": len(tweets),
		"query":       query,
		"max_id":      maxID,
		"next_max_id": nextMaxID,
	}).Info("Fetched tweets with pagination info")

	return tweets, nextMaxID, nil
}

// parseSearchResponse decodes one search payload and derives the max_id for
// the following page: one below the lowest ID seen, which is how the v1.1
// endpoint pages backwards through time. An empty page yields 0 (exhausted).
func parseSearchResponse(body []byte) ([]models.RawTweet, int64, error) {
	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, 0, fmt.Errorf("failed to decode search response: %w", err)
	}

	if len(searchResp.Statuses) == 0 {
		return nil, 0, nil
	}

	minID := searchResp.Statuses[0].ID
	for _, tweet := range searchResp.Statuses[1:] {
		if tweet.ID < minID {
			minID = tweet.ID
		}
	}

	// next_results being absent also signals the last page
	if searchResp.SearchMetadata.NextResults == "" {
		return searchResp.Statuses, 0, nil
	}

	return searchResp.Statuses, minID - 1, nil
}

// updateRateLimits updates the rate limiter based on response headers
func (t *TwitterAPI) updateRateLimits(resp *http.Response) {
	// x-rate-limit-remaining: requests left in the current window
	// x-rate-limit-reset: unix timestamp when the window resets
	remaining := getHeaderAsInt(resp.Header, "X-Rate-Limit-Remaining")
	reset := int64(getHeaderAsInt(resp.Header, "X-Rate-Limit-Reset"))

	// skip if we didn't get valid headers for some reason
	if remaining == 0 && reset == 0 {
		return
	}

	t.rateHeadersMutex.Lock()
	t.rateRemainingCached = remaining
	t.rateResetCached = reset
	t.rateHeadersMutex.Unlock()

	t.rateLimiter.Update(remaining, reset)

	t.log.WithFields(logrus.Fields{
		"remaining":     remaining,
		"reset_epoch":   reset,
		"new_fill_rate": t.rateLimiter.fillRate,
	}).Debug("Updated rate limiter based on Twitter headers")
}

func getHeaderAsInt(header http.Header, name string) int {
	value := header.Get(name)
	if value == "" {
		return 0
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}

	return intValue
}

package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHeaderAsInt(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string][]string
		key      string
		expected int
	}{
		{
			name: "Valid integer header",
			headers: map[string][]string{
				"X-Rate-Limit-Remaining": {"42"},
			},
			key:      "X-Rate-Limit-Remaining",
			expected: 42,
		},
		{
			name: "Empty header value",
			headers: map[string][]string{
				"X-Rate-Limit-Remaining": {""},
			},
			key:      "X-Rate-Limit-Remaining",
			expected: 0,
		},
		{
			name: "Missing header",
			headers: map[string][]string{
				"X-Rate-Limit-Reset": {"10"},
			},
			key:      "X-Rate-Limit-Remaining",
			expected: 0,
		},
		{
			name: "Non-integer header value",
			headers: map[string][]string{
				"X-Rate-Limit-Remaining": {"not-a-number"},
			},
			key:      "X-Rate-Limit-Remaining",
			expected: 0,
		},
		{
			name: "Multiple values for same header (should use first)",
			headers: map[string][]string{
				"X-Rate-Limit-Remaining": {"100", "200"},
			},
			key:      "X-Rate-Limit-Remaining",
			expected: 100,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header(tc.headers)
			result := getHeaderAsInt(header, tc.key)
			if result != tc.expected {
				t.Errorf("getHeaderAsInt(%v, %q) = %d; want %d",
					header, tc.key, result, tc.expected)
			}
		})
	}
}

func TestTokenBucketUpdate(t *testing.T) {
	tb := NewTokenBucket(10, 1.0, time.Second)

	// 300 requests remaining over the next 100 seconds
	tb.Update(300, time.Now().Unix()+100)

	// we expect .95 of the computed rate, within rounding of the elapsed clock
	assert.InDelta(t, 3.0*0.95, tb.fillRate, 0.1)
}

func TestTokenBucketUpdateFallsBackAfterReset(t *testing.T) {
	tb := NewTokenBucket(10, 1.0, time.Second)

	// reset already in the past: fall back to the standard allocation
	tb.Update(300, time.Now().Unix()-10)

	expectedRate := float64(windowRequests) / float64(windowSeconds) * 0.95
	assert.InDelta(t, expectedRate, tb.fillRate, 0.001)
}

func TestParseSearchResponse(t *testing.T) {
	body := []byte(`{
		"statuses": [
			{
				"id": 1050118621198921728,
				"created_at": "Wed Oct 10 20:19:24 +0000 2018",
				"full_text": "a tweet #golang",
				"retweet_count": 12,
				"favorite_count": 30,
				"is_quote_status": false,
				"user": {"id": 6253282, "screen_name": "api", "name": "Twitter API", "verified": true},
				"entities": {
					"hashtags": [{"text": "golang"}],
					"user_mentions": []
				}
			},
			{
				"id": 1050118621198921000,
				"created_at": "Wed Oct 10 20:18:00 +0000 2018",
				"full_text": "RT @api: a tweet #golang",
				"retweeted_status": {
					"id": 42,
					"full_text": "a tweet #golang",
					"user": {"id": 6253282, "screen_name": "api"}
				}
			}
		],
		"search_metadata": {
			"next_results": "?max_id=1050118621198920999&q=%23golang"
		}
	}`)

	tweets, nextMaxID, err := parseSearchResponse(body)
	require.NoError(t, err)
	require.Len(t, tweets, 2)

	assert.Equal(t, int64(1050118621198921728), tweets[0].ID)
	assert.Equal(t, "a tweet #golang", tweets[0].FullText)
	require.NotNil(t, tweets[0].User)
	assert.Equal(t, "api", tweets[0].User.ScreenName)
	require.NotNil(t, tweets[0].Entities)
	assert.Equal(t, "golang", tweets[0].Entities.Hashtags[0].Text)

	require.NotNil(t, tweets[1].RetweetedStatus)
	assert.Equal(t, int64(42), tweets[1].RetweetedStatus.ID)
	assert.Nil(t, tweets[1].Entities)

	// one below the lowest status ID on the page
	assert.Equal(t, int64(1050118621198920999), nextMaxID)
}

func TestParseSearchResponseLastPage(t *testing.T) {
	body := []byte(`{
		"statuses": [{"id": 10, "full_text": "last one"}],
		"search_metadata": {}
	}`)

	tweets, nextMaxID, err := parseSearchResponse(body)
	require.NoError(t, err)
	assert.Len(t, tweets, 1)
	assert.Equal(t, int64(0), nextMaxID, "missing next_results signals exhaustion")
}

func TestParseSearchResponseEmptyPage(t *testing.T) {
	body := []byte(`{"statuses": [], "search_metadata": {}}`)

	tweets, nextMaxID, err := parseSearchResponse(body)
	require.NoError(t, err)
	assert.Empty(t, tweets)
	assert.Equal(t, int64(0), nextMaxID)
}

func TestParseSearchResponseGarbage(t *testing.T) {
	_, _, err := parseSearchResponse([]byte("<html>rate limited</html>"))
	assert.Error(t, err)
}

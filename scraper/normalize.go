package scraper

import (
	"time"

	"github.com/sean-doody/tweet-scraper/models"
)

// Flatten maps one raw tweet onto the fixed flat schema. It is a pure
// function and never fails: a missing user, entities, or retweeted_status
// sub-structure degrades to zero/nil values instead of propagating an error.
func Flatten(raw models.RawTweet) models.FlatTweet {
	flat := models.FlatTweet{
		ID:                  raw.ID,
		CreatedAt:           parseCreatedAt(raw.CreatedAt),
		FullText:            raw.FullText,
		RetweetCount:        raw.RetweetCount,
		FavoriteCount:       raw.FavoriteCount,
		InReplyToUserID:     raw.InReplyToUserID,
		InReplyToScreenName: raw.InReplyToScreenName,
		IsQuoteStatus:       raw.IsQuoteStatus,
	}

	if raw.User != nil {
		flat.UserID = raw.User.ID
		flat.ScreenName = raw.User.ScreenName
		flat.Name = raw.User.Name
		flat.Verified = raw.User.Verified
	}

	flat.Hashtags = hashtagTexts(raw.Entities)
	flat.UserMentions = mentionHandles(raw.Entities)

	if raw.RetweetedStatus != nil {
		resolveRetweet(&flat, raw.RetweetedStatus)
	}

	return flat
}

// resolveRetweet populates the eight retweet_og_* fields from the embedded
// original tweet. All eight come out non-nil, even when the nested author is
// missing, so the is_retweet invariant holds. The original's own hashtags
// and mentions are deliberately not extracted.
func resolveRetweet(flat *models.FlatTweet, og *models.RawTweet) {
	flat.IsRetweet = true

	var author models.RawUser
	if og.User != nil {
		author = *og.User
	}

	ogID := og.ID
	ogAuthorID := author.ID
	ogScreenName := author.ScreenName
	ogName := author.Name
	ogDate := parseCreatedAt(og.CreatedAt)
	ogText := og.FullText
	ogRetweets := og.RetweetCount
	ogFavorites := og.FavoriteCount

	flat.RetweetOgID = &ogID
	flat.RetweetOgAuthorID = &ogAuthorID
	flat.RetweetOgAuthorScreenName = &ogScreenName
	flat.RetweetOgAuthorName = &ogName
	flat.RetweetOgDate = &ogDate
	flat.RetweetOgFullText = &ogText
	flat.RetweetOgRetweetCount = &ogRetweets
	flat.RetweetOgFavoriteCount = &ogFavorites
}

// hashtagTexts returns the hashtag texts in tweet order, or nil when the
// tweet has no entities or no hashtags. A nil slice (rather than an empty
// one) is what serializes to null downstream.
func hashtagTexts(entities *models.RawEntities) []string {
	if entities == nil || len(entities.Hashtags) == 0 {
		return nil
	}

	tags := make([]string, 0, len(entities.Hashtags))
	for _, hashtag := range entities.Hashtags {
		tags = append(tags, hashtag.Text)
	}
	return tags
}

// mentionHandles returns the mentioned screen names in tweet order, or nil
// when there are none.
func mentionHandles(entities *models.RawEntities) []string {
	if entities == nil || len(entities.UserMentions) == 0 {
		return nil
	}

	handles := make([]string, 0, len(entities.UserMentions))
	for _, mention := range entities.UserMentions {
		handles = append(handles, mention.ScreenName)
	}
	return handles
}

// parseCreatedAt parses the v1.1 timestamp format. A malformed or empty
// timestamp yields the zero time rather than an error.
func parseCreatedAt(value string) time.Time {
	t, err := time.Parse(models.TimeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

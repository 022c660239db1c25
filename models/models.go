package models

import (
	"time"
)

// TimeLayout is the timestamp format used by the Twitter v1.1 API
// (e.g. "Wed Oct 10 20:19:24 +0000 2018").
const TimeLayout = time.RubyDate

// RawUser is the nested author object attached to a raw tweet.
type RawUser struct {
	ID         int64  `json:"id"`
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
	Verified   bool   `json:"verified"`
}

// RawHashtag is a single entry of the entities hashtag list.
type RawHashtag struct {
	Text string `json:"text"`
}

// RawMention is a single entry of the entities user_mentions list.
type RawMention struct {
	ScreenName string `json:"screen_name"`
}

// RawEntities holds the structured entities of a tweet. The lists preserve
// the order in which the entities appear in the tweet text.
type RawEntities struct {
	Hashtags     []RawHashtag `json:"hashtags"`
	UserMentions []RawMention `json:"user_mentions"`
}

// RawTweet represents one tweet as returned by the v1.1 search endpoint.
// The optional sub-structures (user, entities, retweeted_status) are
// pointers; a nil pointer means the key was absent from the payload. A
// non-nil RetweetedStatus is the sole signal that the tweet is a retweet.
type RawTweet struct {
	ID                  int64        `json:"id"`
	CreatedAt           string       `json:"created_at"`
	FullText            string       `json:"full_text"`
	RetweetCount        int          `json:"retweet_count"`
	FavoriteCount       int          `json:"favorite_count"`
	InReplyToUserID     *int64       `json:"in_reply_to_user_id"`
	InReplyToScreenName *string      `json:"in_reply_to_screen_name"`
	IsQuoteStatus       bool         `json:"is_quote_status"`
	User                *RawUser     `json:"user"`
	Entities            *RawEntities `json:"entities"`
	RetweetedStatus     *RawTweet    `json:"retweeted_status"`
}

// FlatTweet is one normalized row of the output dataset. Every row carries
// the full field set; nullable scalars are pointers and list fields are nil
// when the tweet had no entities of that kind (nil rather than an empty
// slice, so the distinction survives serialization as null).
//
// The eight RetweetOg* fields are all non-nil when IsRetweet is true and all
// nil when it is false; no partial population occurs.
type FlatTweet struct {
	UserID        int64     `json:"user_id"`
	ScreenName    string    `json:"screen_name"`
	Name          string    `json:"name"`
	Verified      bool      `json:"verified"`
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	FullText      string    `json:"full_text"`
	RetweetCount  int       `json:"retweet_count"`
	FavoriteCount int       `json:"favorite_count"`

	Hashtags     []string `json:"hashtags"`
	UserMentions []string `json:"user_mentions"`

	InReplyToUserID     *int64  `json:"in_reply_to_user_id"`
	InReplyToScreenName *string `json:"in_reply_to_screen_name"`
	IsQuoteStatus       bool    `json:"is_quote_status"`

	IsRetweet                 bool       `json:"is_retweet"`
	RetweetOgID               *int64     `json:"retweet_og_id"`
	RetweetOgAuthorID         *int64     `json:"retweet_og_author_id"`
	RetweetOgAuthorScreenName *string    `json:"retweet_og_author_screen_name"`
	RetweetOgAuthorName       *string    `json:"retweet_og_author_name"`
	RetweetOgDate             *time.Time `json:"retweet_og_date"`
	RetweetOgFullText         *string    `json:"retweet_og_full_text"`
	RetweetOgRetweetCount     *int       `json:"retweet_og_retweet_count"`
	RetweetOgFavoriteCount    *int       `json:"retweet_og_favorite_count"`
}

// Columns is the fixed column order of the dataset. It matches the field
// order of FlatTweet and is identical for every persisted artifact.
var Columns = []string{
	"user_id",
	"screen_name",
	"name",
	"verified",
	"id",
	"created_at",
	"full_text",
	"retweet_count",
	"favorite_count",
	"hashtags",
	"user_mentions",
	"in_reply_to_user_id",
	"in_reply_to_screen_name",
	"is_quote_status",
	"is_retweet",
	"retweet_og_id",
	"retweet_og_author_id",
	"retweet_og_author_screen_name",
	"retweet_og_author_name",
	"retweet_og_date",
	"retweet_og_full_text",
	"retweet_og_retweet_count",
	"retweet_og_favorite_count",
}

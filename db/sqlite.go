package db

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/sean-doody/tweet-scraper/dataset"
	"github.com/sean-doody/tweet-scraper/models"
)

// timeLayout is how timestamps are stored in the tweets table.
const timeLayout = time.RFC3339Nano

// Database provides durable storage for scraped tweet datasets
type Database struct {
	db    *sql.DB
	mutex sync.RWMutex
	log   *logrus.Logger
}

// NewDatabase creates a new SQLite database connection
func NewDatabase(dbPath string, log *logrus.Logger) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{
		db:  db,
		log: log,
	}

	if err := database.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return database, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.db.Close()
}

// initTables creates the necessary tables if they don't exist. The tweet id
// is deliberately not a primary key: the same tweet can legitimately show up
// across distinct scrape runs and rows are never deduplicated.
func (d *Database) initTables() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	// note: in an ideal world, this would be a migration that we could just run once per environment (ie dev, staging, prod)
	query := `
	CREATE TABLE IF NOT EXISTS tweets (
		row_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		screen_name TEXT NOT NULL,
		name TEXT NOT NULL,
		verified BOOLEAN NOT NULL,
		id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		full_text TEXT NOT NULL,
		retweet_count INTEGER NOT NULL,
		favorite_count INTEGER NOT NULL,
		hashtags TEXT,
		user_mentions TEXT,
		in_reply_to_user_id INTEGER,
		in_reply_to_screen_name TEXT,
		is_quote_status BOOLEAN NOT NULL,
		is_retweet BOOLEAN NOT NULL,
		retweet_og_id INTEGER,
		retweet_og_author_id INTEGER,
		retweet_og_author_screen_name TEXT,
		retweet_og_author_name TEXT,
		retweet_og_date TIMESTAMP,
		retweet_og_full_text TEXT,
		retweet_og_retweet_count INTEGER,
		retweet_og_favorite_count INTEGER,
		scrape_query TEXT NOT NULL,
		collected_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tweets_retweet_count ON tweets(retweet_count DESC);
	CREATE INDEX IF NOT EXISTS idx_tweets_screen_name ON tweets(screen_name);
	`

	_, err := d.db.Exec(query)
	return err
}

// SaveDataset stores every row of a scraped dataset in one transaction,
// tagged with the query that produced it. List columns are stored joined
// with the dataset delimiter; null lists are stored as NULL.
func (d *Database) SaveDataset(ds *dataset.Dataset, scrapeQuery string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO tweets (
		user_id, screen_name, name, verified, id, created_at, full_text,
		retweet_count, favorite_count, hashtags, user_mentions,
		in_reply_to_user_id, in_reply_to_screen_name, is_quote_status,
		is_retweet, retweet_og_id, retweet_og_author_id,
		retweet_og_author_screen_name, retweet_og_author_name,
		retweet_og_date, retweet_og_full_text, retweet_og_retweet_count,
		retweet_og_favorite_count, scrape_query, collected_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(timeLayout)

	for _, tweet := range ds.Rows() {
		_, err := stmt.Exec(
			tweet.UserID, tweet.ScreenName, tweet.Name, tweet.Verified,
			tweet.ID, tweet.CreatedAt.Format(timeLayout), tweet.FullText,
			tweet.RetweetCount, tweet.FavoriteCount,
			listValue(tweet.Hashtags), listValue(tweet.UserMentions),
			tweet.InReplyToUserID, tweet.InReplyToScreenName,
			tweet.IsQuoteStatus, tweet.IsRetweet,
			tweet.RetweetOgID, tweet.RetweetOgAuthorID,
			tweet.RetweetOgAuthorScreenName, tweet.RetweetOgAuthorName,
			timeValue(tweet.RetweetOgDate), tweet.RetweetOgFullText,
			tweet.RetweetOgRetweetCount, tweet.RetweetOgFavoriteCount,
			scrapeQuery, now,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save tweet %d: %w", tweet.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset: %w", err)
	}

	d.log.WithFields(logrus.Fields{
		"tweets": ds.Len(),
		"query":  scrapeQuery,
	}).Info("Saved dataset to database")

	return nil
}

// GetTotalTweets returns the total number of stored tweet rows
func (d *Database) GetTotalTweets() (int, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM tweets").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get total tweets: %w", err)
	}

	return count, nil
}

// GetTopTweetsByRetweets returns the top N stored tweets by retweet count
func (d *Database) GetTopTweetsByRetweets(limit int) ([]models.FlatTweet, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	query := `
	SELECT user_id, screen_name, name, verified, id, created_at, full_text,
		retweet_count, favorite_count, hashtags, user_mentions,
		in_reply_to_user_id, in_reply_to_screen_name, is_quote_status,
		is_retweet, retweet_og_id, retweet_og_author_id,
		retweet_og_author_screen_name, retweet_og_author_name,
		retweet_og_date, retweet_og_full_text, retweet_og_retweet_count,
		retweet_og_favorite_count
	FROM tweets
	ORDER BY retweet_count DESC
	LIMIT ?
	`

	rows, err := d.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top tweets: %w", err)
	}
	defer rows.Close()

	tweets := make([]models.FlatTweet, 0, limit)
	for rows.Next() {
		tweet, err := scanTweet(rows)
		if err != nil {
			return nil, err
		}
		tweets = append(tweets, tweet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tweets, nil
}

// GetTweetCountsByAuthor returns the top N authors by stored tweet count
func (d *Database) GetTweetCountsByAuthor(limit int) (map[string]int, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	query := `
	SELECT screen_name, COUNT(*) as tweet_count
	FROM tweets
	GROUP BY screen_name
	ORDER BY tweet_count DESC
	LIMIT ?
	`

	rows, err := d.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top authors: %w", err)
	}
	defer rows.Close()

	authors := make(map[string]int)
	for rows.Next() {
		var screenName string
		var count int

		if err := rows.Scan(&screenName, &count); err != nil {
			return nil, fmt.Errorf("failed to scan author tweet count: %w", err)
		}

		authors[screenName] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return authors, nil
}

// scanTweet rebuilds a flat tweet from one result row. The retweet_og_*
// columns come back through sql.Null wrappers and are only materialized when
// is_retweet is set, keeping the all-or-nothing shape of the schema.
func scanTweet(rows *sql.Rows) (models.FlatTweet, error) {
	var tweet models.FlatTweet
	var createdAt string
	var hashtags, userMentions sql.NullString
	var inReplyToUserID sql.NullInt64
	var inReplyToScreenName sql.NullString
	var ogID, ogAuthorID sql.NullInt64
	var ogScreenName, ogName, ogDate, ogText sql.NullString
	var ogRetweets, ogFavorites sql.NullInt64

	err := rows.Scan(
		&tweet.UserID, &tweet.ScreenName, &tweet.Name, &tweet.Verified,
		&tweet.ID, &createdAt, &tweet.FullText,
		&tweet.RetweetCount, &tweet.FavoriteCount,
		&hashtags, &userMentions,
		&inReplyToUserID, &inReplyToScreenName, &tweet.IsQuoteStatus,
		&tweet.IsRetweet, &ogID, &ogAuthorID,
		&ogScreenName, &ogName,
		&ogDate, &ogText, &ogRetweets, &ogFavorites,
	)
	if err != nil {
		return tweet, fmt.Errorf("failed to scan tweet: %w", err)
	}

	tweet.CreatedAt, _ = time.Parse(timeLayout, createdAt)

	if hashtags.Valid {
		tweet.Hashtags = dataset.SplitList(hashtags.String)
	}
	if userMentions.Valid {
		tweet.UserMentions = dataset.SplitList(userMentions.String)
	}
	if inReplyToUserID.Valid {
		v := inReplyToUserID.Int64
		tweet.InReplyToUserID = &v
	}
	if inReplyToScreenName.Valid {
		v := inReplyToScreenName.String
		tweet.InReplyToScreenName = &v
	}

	if tweet.IsRetweet {
		id := ogID.Int64
		authorID := ogAuthorID.Int64
		screenName := ogScreenName.String
		name := ogName.String
		date, _ := time.Parse(timeLayout, ogDate.String)
		text := ogText.String
		retweets := int(ogRetweets.Int64)
		favorites := int(ogFavorites.Int64)

		tweet.RetweetOgID = &id
		tweet.RetweetOgAuthorID = &authorID
		tweet.RetweetOgAuthorScreenName = &screenName
		tweet.RetweetOgAuthorName = &name
		tweet.RetweetOgDate = &date
		tweet.RetweetOgFullText = &text
		tweet.RetweetOgRetweetCount = &retweets
		tweet.RetweetOgFavoriteCount = &favorites
	}

	return tweet, nil
}

// listValue renders a list column for storage; nil maps to NULL.
func listValue(items []string) interface{} {
	if items == nil {
		return nil
	}
	return dataset.JoinList(items)
}

// timeValue renders a nullable timestamp column for storage.
func timeValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(timeLayout)
}

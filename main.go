package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/sean-doody/tweet-scraper/api"
	"github.com/sean-doody/tweet-scraper/db"
	"github.com/sean-doody/tweet-scraper/scraper"
	"github.com/sean-doody/tweet-scraper/stats"
	"github.com/sean-doody/tweet-scraper/utils"
)

func main() {
	envPath := flag.String("env", ".env", "Path to .env file")
	logLevel := flag.String("log-level", "debug", "Logging level (debug, info, warn, error)")
	query := flag.String("query", "", "Search query (overrides SCRAPE_QUERY)")
	lang := flag.String("lang", "", "Language filter (overrides SCRAPE_LANG)")
	pageSize := flag.Int("count", 0, "Tweets per page, max 100 (overrides SCRAPE_PAGE_SIZE)")
	maxTweets := flag.Int("max", 0, "Max tweets to collect (overrides SCRAPE_MAX_TWEETS)")
	serve := flag.Bool("serve", false, "Run the HTTP API server instead of a one-shot scrape")
	flag.Parse()

	log := setupLogger(*logLevel)
	log.Info("Starting Tweet Scraper")

	config, err := utils.LoadConfig(*envPath, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	applyOverrides(config, *query, *lang, *pageSize, *maxTweets)

	log.WithFields(logrus.Fields{
		"query":       config.Scrape.Query,
		"lang":        config.Scrape.Lang,
		"page_size":   config.Scrape.PageSize,
		"max_tweets":  config.Scrape.MaxTweets,
		"server_port": config.Server.Port,
	}).Info("Configuration loaded")

	database, err := db.NewDatabase(config.Database.Path, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close()

	twitterAPI := api.NewTwitterAPI(
		api.Credentials{
			APIKey:       config.Twitter.APIKey,
			APISecret:    config.Twitter.APISecret,
			BearerToken:  config.Twitter.BearerToken,
			AccessToken:  config.Twitter.AccessToken,
			AccessSecret: config.Twitter.AccessSecret,
		},
		config.Twitter.MaxRequestsPerWindow,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !*serve {
		if err := runScrape(ctx, config, twitterAPI, database, log); err != nil {
			log.WithError(err).Fatal("Scrape run failed")
		}
		log.Info("Tweet Scraper finished")
		return
	}

	tracker := stats.NewTracker(log)
	go startEchoServer(ctx, config, twitterAPI, database, tracker, log)

	waitForShutdown(cancel, log)
}

// applyOverrides lets CLI flags win over the .env scrape defaults
func applyOverrides(config *utils.Config, query, lang string, pageSize, maxTweets int) {
	if query != "" {
		config.Scrape.Query = query
	}
	if lang != "" {
		config.Scrape.Lang = lang
	}
	if pageSize > 0 {
		config.Scrape.PageSize = pageSize
	}
	if maxTweets > 0 {
		config.Scrape.MaxTweets = maxTweets
	}
}

// runScrape executes one full pipeline run and persists the dataset in all
// three targets: JSON (lists preserved), CSV (lists flattened), and SQLite.
func runScrape(ctx context.Context, config *utils.Config, twitterAPI *api.TwitterAPI, database *db.Database, log *logrus.Logger) error {
	ds, err := scraper.Scrape(ctx, twitterAPI, scraper.Options{
		Query:     config.Scrape.Query,
		Lang:      config.Scrape.Lang,
		PageSize:  config.Scrape.PageSize,
		MaxTweets: config.Scrape.MaxTweets,
	}, log)
	if err != nil {
		return err
	}

	if err := ds.SaveJSON(config.Output.JSONPath); err != nil {
		return err
	}
	log.WithField("path", config.Output.JSONPath).Info("Wrote JSON artifact")

	if err := ds.SaveCSV(config.Output.CSVPath); err != nil {
		return err
	}
	log.WithField("path", config.Output.CSVPath).Info("Wrote CSV artifact")

	if err := database.SaveDataset(ds, config.Scrape.Query); err != nil {
		return err
	}

	summary := stats.Summarize(ds)
	log.WithFields(logrus.Fields{
		"tweets":         summary.TotalTweets,
		"retweets":       summary.Retweets,
		"quote_tweets":   summary.QuoteTweets,
		"replies":        summary.Replies,
		"unique_authors": summary.UniqueAuthors,
	}).Info("Scrape summary")

	return nil
}

// setupLogger sets up the logger with the specified log level
func setupLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

// startEchoServer starts the Echo HTTP API server
func startEchoServer(ctx context.Context, config *utils.Config, twitterAPI *api.TwitterAPI, database *db.Database, tracker *stats.Tracker, log *logrus.Logger) {
	e := echo.New()

	// middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	requestsPerSecond := float64(config.Twitter.MaxRequestsPerWindow) / 900.0

	rateLimit := rate.Limit(requestsPerSecond * 0.95) // use 95% of the rate limit to be safe

	rateLimiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rateLimit,
				Burst:     1, // no burst capability
				ExpiresIn: 3 * time.Minute,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded, please try again later",
			})
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded, please try again later",
			})
		},
	}
	e.Use(middleware.RateLimiterWithConfig(rateLimiterConfig))

	e.GET("/api/stats", func(c echo.Context) error {
		summary, ok := tracker.Summary()
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "No scrape has completed yet",
			})
		}
		return c.JSON(http.StatusOK, summary)
	})

	e.GET("/api/stats/hashtags", func(c echo.Context) error {
		summary, ok := tracker.Summary()
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "No scrape has completed yet",
			})
		}
		return c.JSON(http.StatusOK, summary.TopHashtags)
	})

	// kick off a synchronous pipeline run; the query params mirror the CLI flags
	e.POST("/api/scrape", func(c echo.Context) error {
		opts := scraper.Options{
			Query:     config.Scrape.Query,
			Lang:      config.Scrape.Lang,
			PageSize:  config.Scrape.PageSize,
			MaxTweets: config.Scrape.MaxTweets,
		}
		if q := c.QueryParam("query"); q != "" {
			opts.Query = q
		}
		if l := c.QueryParam("lang"); l != "" {
			opts.Lang = l
		}
		if m := c.QueryParam("max"); m != "" {
			if parsed, err := strconv.Atoi(m); err == nil && parsed > 0 {
				opts.MaxTweets = parsed
			}
		}

		ds, err := scraper.Scrape(c.Request().Context(), twitterAPI, opts, log)
		if err != nil {
			return c.JSON(http.StatusBadGateway, map[string]string{
				"error": err.Error(),
			})
		}

		if err := database.SaveDataset(ds, opts.Query); err != nil {
			log.WithError(err).Error("Failed to persist scraped dataset")
		}

		return c.JSON(http.StatusOK, tracker.Record(ds))
	})

	// health check endpoint; useful for k8s liveliness probes but not strictly required in this case
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	// start the server!
	go func() {
		serverAddr := fmt.Sprintf(":%d", config.Server.Port)
		log.WithField("port", config.Server.Port).Info("Starting API server")
		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("API server failed")
		}
	}()

	// wait for context cancellation to shut down server
	<-ctx.Done()
	log.Info("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("API server shutdown failed")
	}
}

// waitForShutdown waits for a shutdown signal
func waitForShutdown(cancel context.CancelFunc, log *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig.String()).Info("Shutdown signal received")

	cancel()

	time.Sleep(1 * time.Second)
	log.Info("Tweet Scraper stopped")
}

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig
	Twitter  TwitterConfig
	Scrape   ScrapeConfig
	Database DatabaseConfig
	Output   OutputConfig
	Server   ServerConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name    string
	Version string
}

// TwitterConfig holds the Twitter API credentials and request budget. All
// five credential keys must be populated before the API client is built,
// even though app-only requests sign with the bearer token alone.
type TwitterConfig struct {
	APIKey               string
	APISecret            string
	BearerToken          string
	AccessToken          string
	AccessSecret         string
	MaxRequestsPerWindow int // per 15-minute search window
}

// ScrapeConfig holds the default scrape parameters
type ScrapeConfig struct {
	Query     string
	Lang      string
	PageSize  int
	MaxTweets int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string
}

// OutputConfig holds the artifact paths for the two persisted formats
type OutputConfig struct {
	JSONPath string
	CSVPath  string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int
}

// LoadConfig loads configuration from .env file
func LoadConfig(envPath string, log *logrus.Logger) (*Config, error) {
	if envPath == "" {
		envPath = ".env"
	}

	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "Tweet Scraper"),
			Version: getEnv("APP_VERSION", "1.0.0"),
		},
		Twitter: TwitterConfig{
			APIKey:               getEnv("TWITTER_API_KEY", ""),
			APISecret:            getEnv("TWITTER_API_SECRET", ""),
			BearerToken:          getEnv("TWITTER_BEARER_TOKEN", ""),
			AccessToken:          getEnv("TWITTER_ACCESS_TOKEN", ""),
			AccessSecret:         getEnv("TWITTER_ACCESS_SECRET", ""),
			MaxRequestsPerWindow: getEnvAsInt("TWITTER_MAX_REQUESTS_PER_WINDOW", 450),
		},
		Scrape: ScrapeConfig{
			Query:     getEnv("SCRAPE_QUERY", ""),
			Lang:      getEnv("SCRAPE_LANG", "en"),
			PageSize:  getEnvAsInt("SCRAPE_PAGE_SIZE", 100),
			MaxTweets: getEnvAsInt("SCRAPE_MAX_TWEETS", 1000),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./tweets.db"),
		},
		Output: OutputConfig{
			JSONPath: getEnv("OUTPUT_JSON_PATH", "./twitter_data.json"),
			CSVPath:  getEnv("OUTPUT_CSV_PATH", "./twitter_data.csv"),
		},
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
	}

	// validation
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	log.WithField("file", envPath).Info("Config loaded successfully")
	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	// all five credential keys are required up front
	if config.Twitter.APIKey == "" {
		return fmt.Errorf("TWITTER_API_KEY environment variable is required")
	}
	if config.Twitter.APISecret == "" {
		return fmt.Errorf("TWITTER_API_SECRET environment variable is required")
	}
	if config.Twitter.BearerToken == "" {
		return fmt.Errorf("TWITTER_BEARER_TOKEN environment variable is required")
	}
	if config.Twitter.AccessToken == "" {
		return fmt.Errorf("TWITTER_ACCESS_TOKEN environment variable is required")
	}
	if config.Twitter.AccessSecret == "" {
		return fmt.Errorf("TWITTER_ACCESS_SECRET environment variable is required")
	}

	if config.Scrape.PageSize < 1 || config.Scrape.PageSize > 100 {
		return fmt.Errorf("SCRAPE_PAGE_SIZE must be between 1 and 100")
	}
	if config.Scrape.MaxTweets < 1 {
		return fmt.Errorf("SCRAPE_MAX_TWEETS must be positive")
	}

	// if we are storing the db in a nested directory, create the directory
	dbDir := filepath.Dir(config.Database.Path)
	if dbDir != "." && dbDir != "" {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return nil
}

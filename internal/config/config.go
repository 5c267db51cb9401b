package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Feed settings
	FeedsConfigPath string
	MaxStories      int
	MinBodyRunes    int
	ItemMaxAge      time.Duration

	// Rewrite settings
	GeminiAPIKey       string
	GeminiModel        string
	OpenAIAPIKey       string // optional secondary provider
	OpenAIModel        string
	MaxPromptRunes     int
	MaxRewriteRequests int // per day, 0 = unlimited
	RewriteCacheTTL    time.Duration

	// Image settings
	ImageAPIKey      string // optional, curated pools are used without it
	ImageAPIBaseURL  string
	ImagesPerSearch  int
	MaxImageRequests int // per day, 0 = unlimited
	LedgerPath       string
	LedgerDSN        string // set to use the Postgres ledger instead of the file one

	// Publish settings
	ContentDir      string
	AuthorName      string
	WriteRetries    int
	WriteRetryDelay time.Duration

	// App settings
	Debug          bool
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
	ItemPause      time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		FeedsConfigPath: "configs/feeds.yaml",
		MaxStories:      6,
		MinBodyRunes:    120,
		ItemMaxAge:      72 * time.Hour,
		GeminiModel:     "gemini-1.5-flash",
		OpenAIModel:     "gpt-4o-mini",
		MaxPromptRunes:  6000,
		RewriteCacheTTL: 48 * time.Hour,
		ImageAPIBaseURL: "https://api.unsplash.com",
		ImagesPerSearch: 10,
		LedgerPath:      "image_ledger.json",
		ContentDir:      "content/stories",
		AuthorName:      "Wanderpress Editorial",
		WriteRetries:    3,
		WriteRetryDelay: 2 * time.Second,
		RequestTimeout:  30 * time.Second,
		RetryAttempts:   3,
		RetryDelay:      5 * time.Second,
		ItemPause:       4 * time.Second,
	}

	// Load from environment
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.ImageAPIKey = os.Getenv("IMAGE_API_KEY")
	cfg.LedgerDSN = os.Getenv("LEDGER_DSN")

	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)
	cfg.ContentDir = getEnvOrDefault("CONTENT_DIR", cfg.ContentDir)
	cfg.LedgerPath = getEnvOrDefault("LEDGER_PATH", cfg.LedgerPath)
	cfg.AuthorName = getEnvOrDefault("AUTHOR_NAME", cfg.AuthorName)
	cfg.GeminiModel = getEnvOrDefault("GEMINI_MODEL", cfg.GeminiModel)
	cfg.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.ImageAPIBaseURL = getEnvOrDefault("IMAGE_API_BASE_URL", cfg.ImageAPIBaseURL)

	cfg.MaxStories = getEnvIntOrDefault("MAX_STORIES", cfg.MaxStories)
	cfg.MinBodyRunes = getEnvIntOrDefault("MIN_BODY_RUNES", cfg.MinBodyRunes)
	cfg.MaxPromptRunes = getEnvIntOrDefault("MAX_PROMPT_RUNES", cfg.MaxPromptRunes)
	cfg.ImagesPerSearch = getEnvIntOrDefault("IMAGES_PER_SEARCH", cfg.ImagesPerSearch)
	cfg.MaxRewriteRequests = getEnvIntOrDefault("MAX_REWRITE_REQUESTS", cfg.MaxRewriteRequests)
	cfg.MaxImageRequests = getEnvIntOrDefault("MAX_IMAGE_REQUESTS", cfg.MaxImageRequests)
	cfg.WriteRetries = getEnvIntOrDefault("WRITE_RETRIES", cfg.WriteRetries)
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)

	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RequestTimeout = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("RETRY_DELAY_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RetryDelay = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("ITEM_PAUSE_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.ItemPause = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("ITEM_MAX_AGE_HOURS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.ItemMaxAge = time.Duration(val) * time.Hour
		}
	}
	if v := os.Getenv("REWRITE_CACHE_TTL_HOURS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RewriteCacheTTL = time.Duration(val) * time.Hour
		}
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.MaxStories <= 0 {
		return fmt.Errorf("MAX_STORIES must be positive")
	}
	if c.ContentDir == "" {
		return fmt.Errorf("CONTENT_DIR must not be empty")
	}
	return nil
}

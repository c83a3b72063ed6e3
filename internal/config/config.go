package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the importer and the status server need. Only
// DATABASE_URL is mandatory; a missing value there is a fatal setup error,
// everything else has a working default.
type Config struct {
	Environment string
	Port        string

	DatabaseURL string
	RedisURL    string

	ProgressFile string

	// Vendor API endpoints and timeouts.
	QbankOverviewURL   string
	QbankQuestionURL   string
	QbankLegacyBaseURL string
	OverviewTimeout    time.Duration
	DetailTimeout      time.Duration

	// Pacing. RateLimitThreshold bounds a single pass to stay under the
	// vendor's observed rate-limit wall.
	RateLimitThreshold int
	ItemDelay          time.Duration
	LightPauseEvery    int
	LightPause         time.Duration
	HeavyPauseEvery    int
	HeavyPause         time.Duration

	Events EventConfig
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),

		DatabaseURL: databaseURL,
		RedisURL:    os.Getenv("REDIS_URL"),

		ProgressFile: getEnv("PROGRESS_FILE", "sat_import_progress.json"),

		QbankOverviewURL:   os.Getenv("QBANK_OVERVIEW_URL"),
		QbankQuestionURL:   os.Getenv("QBANK_QUESTION_URL"),
		QbankLegacyBaseURL: os.Getenv("QBANK_LEGACY_BASE_URL"),
		OverviewTimeout:    getEnvDuration("QBANK_OVERVIEW_TIMEOUT", 30*time.Second),
		DetailTimeout:      getEnvDuration("QBANK_DETAIL_TIMEOUT", 15*time.Second),

		RateLimitThreshold: getEnvInt("RATE_LIMIT_THRESHOLD", 422),
		ItemDelay:          getEnvDuration("PACING_ITEM_DELAY", 200*time.Millisecond),
		LightPauseEvery:    getEnvInt("PACING_LIGHT_PAUSE_EVERY", 10),
		LightPause:         getEnvDuration("PACING_LIGHT_PAUSE", 2*time.Second),
		HeavyPauseEvery:    getEnvInt("PACING_HEAVY_PAUSE_EVERY", 50),
		HeavyPause:         getEnvDuration("PACING_HEAVY_PAUSE", 5*time.Second),

		Events: LoadEventConfig(),
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

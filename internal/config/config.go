package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string
	LogLevel    string
	Timezone    string

	TestMode    bool
	LiveLogging bool

	TimeTolerance   time.Duration
	ImportBatchSize int
	Similarity      string

	EventbriteToken   string
	EventbriteOrgID   string
	EventbriteBaseURL string
	SquareToken       string
	SquareLocationID  string
	SquareBaseURL     string
	CatalogURL        string
	CatalogKey        string
	CatalogSecret     string
	WebhookSecret     string

	// AllowUnsignedWebhooks accepts order webhooks when no secret is set.
	AllowUnsignedWebhooks bool

	AdminKeyHash string
	AdminKeySalt string

	OTLPEndpoint string
}

// Load reads a .env file when one is present, then the environment.
func Load() Config {
	_ = godotenv.Load()
	return Parse()
}

func Parse() Config {
	return Config{
		Port:        getString("PORT", "8080"),
		DatabaseURL: getString("DATABASE_URL", ""),
		RedisAddr:   getString("REDIS_ADDRESS", ""),
		LogLevel:    getString("LOG_LEVEL", "info"),
		Timezone:    getString("TIMEZONE", "UTC"),

		TestMode:    getBool("TEST_MODE", false),
		LiveLogging: getBool("LIVE_LOGGING", false),

		TimeTolerance:   time.Duration(getInt("TIME_BUFFER_MINUTES", 30)) * time.Minute,
		ImportBatchSize: getInt("IMPORT_BATCH_SIZE", 2),
		Similarity:      getString("MATCH_SIMILARITY", "similar_text"),

		EventbriteToken:   getString("EVENTBRITE_TOKEN", ""),
		EventbriteOrgID:   getString("EVENTBRITE_ORG_ID", ""),
		EventbriteBaseURL: getString("EVENTBRITE_API_URL", "https://www.eventbriteapi.com/v3"),
		SquareToken:       getString("SQUARE_ACCESS_TOKEN", ""),
		SquareLocationID:  getString("SQUARE_LOCATION_ID", ""),
		SquareBaseURL:     getString("SQUARE_API_URL", "https://connect.squareup.com/v2"),
		CatalogURL:        getString("CATALOG_SERVICE_URL", "http://localhost:8081/wp-json/wc/v3"),
		CatalogKey:        getString("CATALOG_CONSUMER_KEY", ""),
		CatalogSecret:     getString("CATALOG_CONSUMER_SECRET", ""),
		WebhookSecret:     getString("CATALOG_WEBHOOK_SECRET", ""),

		AllowUnsignedWebhooks: getBool("CATALOG_WEBHOOK_ALLOW_UNSIGNED", false),

		AdminKeyHash: getString("ADMIN_API_KEY_HASH", ""),
		AdminKeySalt: getString("ADMIN_API_KEY_SALT", ""),

		OTLPEndpoint: getString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// Location resolves Timezone, defaulting to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides application configuration.
var Module = fx.Provide(Load)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	LogLevel    string

	HTTPAddr string

	// Snapshot persistence. An empty path disables persistence entirely and
	// the store runs in-memory only.
	SnapshotPath string

	// Inventory. UnlimitedSKUs are seeded with the unlimited sentinel and
	// exempt from stock tracking.
	InitialStock      int
	LowStockThreshold int
	UnlimitedSKUs     []string

	// Transaction store.
	MaxQuantity     int
	MaxTransactions int
	MaxRetries      int

	// Simulated payment gateway.
	PaymentDelay       time.Duration
	PaymentSuccessRate float64

	// Trace service.
	TraceCapacity      int
	TraceSlack         int
	StatsInterval      time.Duration
	TraceStatsWindow   time.Duration
	DayCheckInterval   time.Duration

	OtelEnabled  bool
	OtelEndpoint string
	OtelProtocol string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "tillsync"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		SnapshotPath: getenv("SNAPSHOT_PATH", "tillsync.db"),

		InitialStock:      getenvInt("INITIAL_STOCK", 24),
		LowStockThreshold: getenvInt("LOW_STOCK_THRESHOLD", 5),
		UnlimitedSKUs:     getenvList("UNLIMITED_SKUS", []string{"WATER-BOTTLE"}),

		MaxQuantity:     getenvInt("MAX_LINE_QUANTITY", 10),
		MaxTransactions: getenvInt("MAX_TRANSACTIONS", 50),
		MaxRetries:      getenvInt("MAX_PAYMENT_RETRIES", 3),

		PaymentDelay:       getenvDuration("PAYMENT_DELAY", 1500*time.Millisecond),
		PaymentSuccessRate: getenvFloat("PAYMENT_SUCCESS_RATE", 0.9),

		TraceCapacity:    getenvInt("TRACE_CAPACITY", 500),
		TraceSlack:       getenvInt("TRACE_SLACK", 50),
		StatsInterval:    getenvDuration("TRACE_STATS_INTERVAL", 500*time.Millisecond),
		TraceStatsWindow: getenvDuration("TRACE_STATS_WINDOW", 10*time.Second),
		DayCheckInterval: getenvDuration("DAY_CHECK_INTERVAL", time.Minute),

		OtelEnabled:  getenvBool("OTEL_ENABLED", false),
		OtelEndpoint: getenv("OTEL_EXPORTER_ENDPOINT", "localhost:4318"),
		OtelProtocol: strings.ToLower(getenv("OTEL_EXPORTER_PROTOCOL", "http")),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvList(key string, def []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

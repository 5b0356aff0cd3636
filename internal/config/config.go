package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Ledger source
	DataBackend     string
	TransactionsCSV string
	SQLiteDBPath    string
	DateLayout      string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment, applying defaults
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		DataBackend:     getEnv("DATA_BACKEND", "csv"),
		TransactionsCSV: getEnv("TRANSACTIONS_CSV", "./data/transactions.csv"),
		SQLiteDBPath:    getEnv("SQLITE_DB_PATH", "./data/ledger.db"),
		DateLayout:      getEnv("DATE_LAYOUT", "2/1/2006"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}

// LoadWithDotEnv loads the given .env files (".env" when none) into the environment,
// without overriding variables that are already set, then calls Load.
// Missing files are ignored.
func LoadWithDotEnv(filenames ...string) (*Config, error) {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}

	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", name, err)
		}
	}

	return Load(), nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	// Validate data backend
	switch c.DataBackend {
	case "csv":
		if c.TransactionsCSV == "" {
			errs = append(errs, "transactions CSV path cannot be empty when using csv backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [csv sqlite]", c.DataBackend))
	}

	for _, origin := range c.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, fmt.Sprintf("invalid CORS origin '%s': must be '*' or start with http:// or https://", origin))
		}
	}

	if !isDateLayout(c.DateLayout) {
		errs = append(errs, fmt.Sprintf("invalid date layout '%s': must contain day, month and year elements", c.DateLayout))
	}

	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'console' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// isDateLayout reports whether layout round-trips a date with distinct day, month and year
func isDateLayout(layout string) bool {
	if layout == "" {
		return false
	}

	ref := time.Date(2021, time.February, 3, 0, 0, 0, 0, time.UTC)
	parsed, err := time.Parse(layout, ref.Format(layout))
	return err == nil && parsed.Equal(ref)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

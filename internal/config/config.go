package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every runtime setting. All values come from environment
// variables (a .env file is loaded by main before this runs).
type Config struct {
	// HTTP server
	Port string

	// Database
	DatabaseURL string

	// Bulk customer import policy: when true, rows whose Contract ID
	// already exists are skipped and counted instead of failing the
	// whole batch.
	ImportSkipExisting bool

	// Upload limits
	MaxUploadBytes int64

	// Logging
	LogLevel string
}

func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "host=localhost user=traffic password=traffic dbname=traffic port=5432 sslmode=disable")
	v.SetDefault("IMPORT_SKIP_EXISTING", false)
	v.SetDefault("MAX_UPLOAD_BYTES", int64(10<<20))
	v.SetDefault("LOG_LEVEL", "info")

	return &Config{
		Port:               v.GetString("PORT"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		ImportSkipExisting: v.GetBool("IMPORT_SKIP_EXISTING"),
		MaxUploadBytes:     v.GetInt64("MAX_UPLOAD_BYTES"),
		LogLevel:           v.GetString("LOG_LEVEL"),
	}
}

// Validate checks the configuration and returns an error describing
// every invalid value.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "database url cannot be empty")
	}

	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Sprintf("invalid max upload bytes %d: must be positive", c.MaxUploadBytes))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	// Configure output
	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	// Create logger with timestamp
	logger := zerolog.New(output).With().Timestamp().Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component names used in the "component" field.
const (
	ComponentServer   = "storefront"
	ComponentStorage  = "storage-gateway"
	ComponentCart     = "cart-store"
	ComponentCache    = "category-cache"
	ComponentLoader   = "category-loader"
	ComponentView     = "category-view"
	ComponentClient   = "product-client"
	ComponentEventHub = "event-hub"
	ComponentPubSub   = "redis-transport"
)

// ForEnvironment returns the logger configuration for a deployment
// environment: human-readable debug output in development, JSON otherwise.
// A non-empty level overrides the environment default.
func ForEnvironment(environment, level string, pretty bool) Config {
	cfg := DefaultConfig()
	if strings.EqualFold(environment, "development") {
		cfg.Level = LevelDebug
		cfg.Pretty = true
	}
	if level != "" {
		cfg.Level = LogLevel(strings.ToLower(level))
	}
	if pretty {
		cfg.Pretty = true
	}
	return cfg
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Category cache hit/miss and expiry (key, age)
//   - Cart notifications and reloads
//   - Discarded (superseded) category loads
//
// Info: Normal operation events
//   - Category fetched from the product API
//   - Cache sweeps that removed entries, warm-up results
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Corrupt stored values replaced by empty defaults
//   - Retry attempts
//   - Dropped notifications (full subscriber queue)
//
// Error: Error conditions requiring attention
//   - Failed category loads (after retries)
//   - Cart persistence failures
//   - Configuration errors
//
// Context Fields:
//   - key: storage key
//   - category: normalized category name
//   - product_id: cart or catalog product
//   - error_class: Error classification (client, server, network)
//   - attempt: retry attempt number
//   - origin: cart store instance id

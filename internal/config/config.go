package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	Log    LogConfig
	PDOK   PDOKConfig
	Batch  BatchConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port    int
	GinMode string // debug, release, test
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// PDOKConfig holds the upstream service endpoints and request behaviour
type PDOKConfig struct {
	LocatieserverURL string
	AHNURL           string
	UserAgent        string
	Timeout          time.Duration // zero disables the client timeout
	MaxRetries       int           // zero disables retries
}

// BatchConfig holds defaults for the processing tools
type BatchConfig struct {
	Concurrency int
	InputCRS    string
	TargetCRS   string
	XField      string
	YField      string
	Delimiter   string
}

// Load reads configuration from file and environment variables.
// configFile may be empty, in which case the default search paths are used.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.pdok-services")
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("PDOK_SERVICES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.ginmode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("pdok.locatieserverURL", "https://api.pdok.nl/bzk/locatieserver/search/v3_1")
	v.SetDefault("pdok.ahnURL", "https://service.pdok.nl/rws/ahn/wcs/v1_0")
	v.SetDefault("pdok.userAgent", "pdok-services")
	v.SetDefault("pdok.timeout", 0)
	v.SetDefault("pdok.maxRetries", 0)
	v.SetDefault("batch.concurrency", 1)
	v.SetDefault("batch.inputCRS", "EPSG:4326")
	v.SetDefault("batch.targetCRS", "EPSG:4326")
	v.SetDefault("batch.xField", "x")
	v.SetDefault("batch.yField", "y")
	v.SetDefault("batch.delimiter", ",")
}

// Validate checks values that cannot be fixed up with a default
func (c *Config) Validate() error {
	if c.PDOK.LocatieserverURL == "" {
		return errors.New("pdok.locatieserverURL must not be empty")
	}
	if c.PDOK.AHNURL == "" {
		return errors.New("pdok.ahnURL must not be empty")
	}
	if c.PDOK.MaxRetries < 0 {
		return fmt.Errorf("pdok.maxRetries must be >= 0, got %d", c.PDOK.MaxRetries)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be >= 1, got %d", c.Batch.Concurrency)
	}
	if len(c.Batch.Delimiter) != 1 {
		return fmt.Errorf("batch.delimiter must be a single character, got %q", c.Batch.Delimiter)
	}
	return nil
}

// GetServerAddr returns the server address in the format ":port"
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// NewLogger creates a new slog.Logger based on the configuration
func (c *Config) NewLogger() *slog.Logger {
	return c.NewLoggerTo(os.Stdout)
}

// NewLoggerTo is NewLogger writing to out instead of stdout
func (c *Config) NewLoggerTo(out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(c.Log.Level),
	}

	// Choose handler based on format
	var handler slog.Handler
	switch strings.ToLower(c.Log.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default: // "text" or anything else
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps a configured level name to a slog.Level, defaulting to info
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

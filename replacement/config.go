package replacement

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds simulator and host configuration
type Config struct {
	// Host
	ListenAddress string `json:"listen_address"` // HTTP host address

	// Simulation defaults
	DefaultAlgorithm   string `json:"default_algorithm"`    // FIFO, ModifiedFIFO, LRU, Optimal
	DefaultFrameCount  int    `json:"default_frame_count"`  // Frames used when a request omits them
	AutoPlayIntervalMs int    `json:"autoplay_interval_ms"` // Delay between auto-played steps

	// Commentary
	CommentaryEnabled   bool   `json:"commentary_enabled"`
	CommentaryEndpoint  string `json:"commentary_endpoint"`   // POST {"prompt"} -> {"feedback"}
	CommentaryTimeoutMs int    `json:"commentary_timeout_ms"` // Per request

	// History transfer
	HistoryCompression string `json:"history_compression"` // none, lz4, snappy

	EnableMetrics bool   `json:"enable_metrics"`
	LogLevel      string `json:"log_level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddress:       "127.0.0.1:8080",
		DefaultAlgorithm:    string(FIFO),
		DefaultFrameCount:   3,
		AutoPlayIntervalMs:  1000,
		CommentaryEnabled:   false,
		CommentaryEndpoint:  "http://127.0.0.1:8081/api/ai-feedback",
		CommentaryTimeoutMs: 10000,
		HistoryCompression:  "snappy",
		EnableMetrics:       true,
		LogLevel:            "info",
	}
}

// LoadConfigFromFile loads configuration from a JSON file
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	err = json.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigFromEnv loads configuration from environment variables
// Falls back to default values if environment variables are not set
func LoadConfigFromEnv() *Config {
	config := DefaultConfig()

	if val := os.Getenv("PAGESIM_LISTEN_ADDRESS"); val != "" {
		config.ListenAddress = val
	}

	if val := os.Getenv("PAGESIM_DEFAULT_ALGORITHM"); val != "" {
		config.DefaultAlgorithm = val
	}

	if val := os.Getenv("PAGESIM_DEFAULT_FRAME_COUNT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.DefaultFrameCount = n
		}
	}

	if val := os.Getenv("PAGESIM_AUTOPLAY_INTERVAL_MS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.AutoPlayIntervalMs = n
		}
	}

	// Commentary
	if val := os.Getenv("PAGESIM_COMMENTARY_ENABLED"); val != "" {
		config.CommentaryEnabled = val == "true" || val == "1"
	}

	if val := os.Getenv("PAGESIM_COMMENTARY_ENDPOINT"); val != "" {
		config.CommentaryEndpoint = val
	}

	if val := os.Getenv("PAGESIM_COMMENTARY_TIMEOUT_MS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.CommentaryTimeoutMs = n
		}
	}

	if val := os.Getenv("PAGESIM_HISTORY_COMPRESSION"); val != "" {
		config.HistoryCompression = val
	}

	if val := os.Getenv("PAGESIM_ENABLE_METRICS"); val != "" {
		config.EnableMetrics = val == "true" || val == "1"
	}

	if val := os.Getenv("PAGESIM_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	return config
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	if _, err := ParseAlgorithm(c.DefaultAlgorithm); err != nil {
		return fmt.Errorf("invalid default algorithm: %w", err)
	}

	if c.DefaultFrameCount <= 0 {
		return fmt.Errorf("default frame count must be greater than 0")
	}

	if c.AutoPlayIntervalMs <= 0 {
		return fmt.Errorf("autoplay interval must be greater than 0")
	}

	if c.CommentaryEnabled && c.CommentaryEndpoint == "" {
		return fmt.Errorf("commentary endpoint cannot be empty when commentary is enabled")
	}

	if c.CommentaryTimeoutMs <= 0 {
		return fmt.Errorf("commentary timeout must be greater than 0")
	}

	if _, err := ParseCompressionType(c.HistoryCompression); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// AutoPlayInterval returns the auto-play delay as a duration
func (c *Config) AutoPlayInterval() time.Duration {
	return time.Duration(c.AutoPlayIntervalMs) * time.Millisecond
}

// CommentaryTimeout returns the commentary request timeout as a duration
func (c *Config) CommentaryTimeout() time.Duration {
	return time.Duration(c.CommentaryTimeoutMs) * time.Millisecond
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

package replacement

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.DefaultAlgorithm != "FIFO" {
		t.Errorf("Expected default algorithm FIFO, got %s", config.DefaultAlgorithm)
	}

	if config.AutoPlayInterval() != time.Second {
		t.Errorf("Expected autoplay interval 1s, got %v", config.AutoPlayInterval())
	}

	if config.CommentaryEnabled {
		t.Error("Expected commentary to be disabled by default")
	}

	if config.LogLevel != "info" {
		t.Errorf("Expected log level 'info', got '%s'", config.LogLevel)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"empty listen address", func(c *Config) { c.ListenAddress = "" }, true},
		{"unknown algorithm", func(c *Config) { c.DefaultAlgorithm = "MRU" }, true},
		{"algorithm alias", func(c *Config) { c.DefaultAlgorithm = "second-chance" }, false},
		{"zero frames", func(c *Config) { c.DefaultFrameCount = 0 }, true},
		{"zero interval", func(c *Config) { c.AutoPlayIntervalMs = 0 }, true},
		{"commentary without endpoint", func(c *Config) {
			c.CommentaryEnabled = true
			c.CommentaryEndpoint = ""
		}, true},
		{"zero commentary timeout", func(c *Config) { c.CommentaryTimeoutMs = 0 }, true},
		{"bad compression", func(c *Config) { c.HistoryCompression = "zstd" }, true},
		{"lz4 compression", func(c *Config) { c.HistoryCompression = "lz4" }, false},
		{"invalid log level", func(c *Config) { c.LogLevel = "trace" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagesim.json")

	config := DefaultConfig()
	config.DefaultAlgorithm = "LRU"
	config.DefaultFrameCount = 5
	config.HistoryCompression = "lz4"

	if err := config.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile failed: %v", err)
	}

	if loaded.DefaultAlgorithm != "LRU" || loaded.DefaultFrameCount != 5 || loaded.HistoryCompression != "lz4" {
		t.Errorf("Loaded config does not match saved: %+v", loaded)
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	if err := os.WriteFile(path, []byte(`{"default_frame_count": 7}`), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	loaded, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile failed: %v", err)
	}
	if loaded.DefaultFrameCount != 7 {
		t.Errorf("Expected frame count 7, got %d", loaded.DefaultFrameCount)
	}
	if loaded.AutoPlayIntervalMs != 1000 {
		t.Errorf("Expected default interval to survive, got %d", loaded.AutoPlayIntervalMs)
	}
}

func TestLoadConfigInvalidFile(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadConfigFromFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"log_level": "loud"}`), 0644)
	if _, err := LoadConfigFromFile(bad); err == nil {
		t.Error("Expected validation error")
	}

	garbage := filepath.Join(dir, "garbage.json")
	os.WriteFile(garbage, []byte(`{`), 0644)
	if _, err := LoadConfigFromFile(garbage); err == nil {
		t.Error("Expected parse error")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PAGESIM_LISTEN_ADDRESS", ":9090")
	t.Setenv("PAGESIM_DEFAULT_ALGORITHM", "Optimal")
	t.Setenv("PAGESIM_DEFAULT_FRAME_COUNT", "4")
	t.Setenv("PAGESIM_AUTOPLAY_INTERVAL_MS", "250")
	t.Setenv("PAGESIM_COMMENTARY_ENABLED", "1")
	t.Setenv("PAGESIM_COMMENTARY_ENDPOINT", "http://example.invalid/feedback")
	t.Setenv("PAGESIM_HISTORY_COMPRESSION", "none")
	t.Setenv("PAGESIM_LOG_LEVEL", "debug")

	config := LoadConfigFromEnv()

	if config.ListenAddress != ":9090" {
		t.Errorf("Expected listen address :9090, got %s", config.ListenAddress)
	}
	if config.DefaultAlgorithm != "Optimal" {
		t.Errorf("Expected algorithm Optimal, got %s", config.DefaultAlgorithm)
	}
	if config.DefaultFrameCount != 4 {
		t.Errorf("Expected 4 frames, got %d", config.DefaultFrameCount)
	}
	if config.AutoPlayInterval() != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", config.AutoPlayInterval())
	}
	if !config.CommentaryEnabled || config.CommentaryEndpoint != "http://example.invalid/feedback" {
		t.Errorf("Commentary settings not loaded: %+v", config)
	}
	if config.HistoryCompression != "none" || config.LogLevel != "debug" {
		t.Errorf("Unexpected compression/log level: %s/%s", config.HistoryCompression, config.LogLevel)
	}
}

func TestConfigClone(t *testing.T) {
	config := DefaultConfig()
	clone := config.Clone()
	clone.DefaultFrameCount = 9

	if config.DefaultFrameCount == 9 {
		t.Error("Clone shares state with original")
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"campus-paths/internal/database"
	"campus-paths/internal/pathservice"
)

const (
	DefaultAddr        = "127.0.0.1:8080"
	DefaultHTTPTimeout = 30 * time.Second

	// HistoryInMemory as database path keeps history for the process lifetime only
	HistoryInMemory = ":memory:"
)

// AppConfig is the persisted part of the configuration, stored in
// ~/.campus-paths/config.json
type AppConfig struct {
	ServiceURL   string `json:"service_url"`
	MapImage     string `json:"map_image"`
	DatabasePath string `json:"database_path"`
}

// Config is the effective configuration: file values overridden by environment
type Config struct {
	AppConfig
	Addr        string
	HTTPTimeout time.Duration
	ConfigPath  string
}

// Load reads the config file at path (the default location when empty) and
// applies CAMPUSPATHS_* environment overrides
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = database.GetConfigFilePath()
		if err != nil {
			return nil, err
		}
	}

	app, err := LoadAppConfig(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppConfig:   *app,
		Addr:        getEnv("CAMPUSPATHS_ADDR", DefaultAddr),
		HTTPTimeout: DefaultHTTPTimeout,
		ConfigPath:  path,
	}

	cfg.ServiceURL = getEnv("CAMPUSPATHS_SERVICE_URL", cfg.ServiceURL)
	cfg.MapImage = getEnv("CAMPUSPATHS_MAP_IMAGE", cfg.MapImage)
	cfg.DatabasePath = getEnv("CAMPUSPATHS_DB_PATH", cfg.DatabasePath)

	if raw := os.Getenv("CAMPUSPATHS_HTTP_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("invalid CAMPUSPATHS_HTTP_TIMEOUT %q: must be a positive duration", raw)
		}
		cfg.HTTPTimeout = timeout
	}

	if cfg.ServiceURL == "" {
		cfg.ServiceURL = pathservice.DefaultBaseURL
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath, err = database.GetDefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	log.Printf("Config loaded: service_url=%s map_image=%q database_path=%s timeout=%v",
		cfg.ServiceURL, cfg.MapImage, cfg.DatabasePath, cfg.HTTPTimeout)
	return cfg, nil
}

// LoadAppConfig reads the JSON config file. A missing file yields an empty config.
func LoadAppConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &AppConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config AppConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.ServiceURL = strings.TrimSpace(config.ServiceURL)
	return &config, nil
}

// SaveAppConfig writes the config file atomically
func SaveAppConfig(path string, config *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	log.Printf("Config saved: service_url=%s", config.ServiceURL)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

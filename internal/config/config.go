package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backend names accepted by STORE_BACKEND.
const (
	BackendJSON = "json"
	BackendBolt = "bolt"
)

// Config holds all core settings. Values come from an optional YAML file
// (RAINYDAYS_CONFIG) with environment variables layered on top.
type Config struct {
	// Weather API.
	WeatherBaseURL string
	WeatherAPIKey  string
	WeatherEnabled bool
	WeatherTimeout time.Duration
	WeatherUnits   string

	// Event store.
	StoreBackend string
	StorePath    string

	// Image hosting.
	ImageHostURL     string
	ImageHostPreset  string
	ImageHostTimeout time.Duration

	// Advisory banner.
	NotifyDuration time.Duration

	// Map viewport.
	ViewportSpan     float64
	DefaultLatitude  float64
	DefaultLongitude float64

	// Process.
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// fileConfig mirrors Config for the optional YAML file. Durations are strings
// ("5s") parsed with time.ParseDuration.
type fileConfig struct {
	Weather struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Timeout string `yaml:"timeout"`
		Units   string `yaml:"units"`
	} `yaml:"weather"`
	Store struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"store"`
	ImageHost struct {
		URL     string `yaml:"url"`
		Preset  string `yaml:"preset"`
		Timeout string `yaml:"timeout"`
	} `yaml:"image_host"`
	Notify struct {
		Duration string `yaml:"duration"`
	} `yaml:"notify"`
	Map struct {
		ViewportSpan     *float64 `yaml:"viewport_span"`
		DefaultLatitude  *float64 `yaml:"default_latitude"`
		DefaultLongitude *float64 `yaml:"default_longitude"`
	} `yaml:"map"`
	HTTPAddr        string `yaml:"http_addr"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// Load reads configuration, applying defaults where unset. Precedence is
// defaults < YAML file < environment.
func Load() (*Config, error) {
	cfg := &Config{
		WeatherBaseURL:   "https://api.openweathermap.org/data/2.5/forecast",
		WeatherTimeout:   5 * time.Second,
		WeatherUnits:     "metric",
		StoreBackend:     BackendJSON,
		StorePath:        "events.json",
		ImageHostTimeout: 10 * time.Second,
		NotifyDuration:   5 * time.Second,
		ViewportSpan:     0.05,
		HTTPAddr:         ":8080",
		LogLevel:         "info",
		LogFormat:        "json",
		ShutdownTimeout:  10 * time.Second,
	}

	if path := os.Getenv("RAINYDAYS_CONFIG"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.WeatherEnabled = cfg.WeatherAPIKey != ""
	if v := os.Getenv("WEATHER_ENABLED"); v != "" {
		cfg.WeatherEnabled = v == "true"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.WeatherBaseURL, fc.Weather.BaseURL)
	setString(&cfg.WeatherAPIKey, fc.Weather.APIKey)
	setString(&cfg.WeatherUnits, fc.Weather.Units)
	setString(&cfg.StoreBackend, fc.Store.Backend)
	setString(&cfg.StorePath, fc.Store.Path)
	setString(&cfg.ImageHostURL, fc.ImageHost.URL)
	setString(&cfg.ImageHostPreset, fc.ImageHost.Preset)
	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)

	if fc.Map.ViewportSpan != nil {
		cfg.ViewportSpan = *fc.Map.ViewportSpan
	}
	if fc.Map.DefaultLatitude != nil {
		cfg.DefaultLatitude = *fc.Map.DefaultLatitude
	}
	if fc.Map.DefaultLongitude != nil {
		cfg.DefaultLongitude = *fc.Map.DefaultLongitude
	}

	for _, d := range []struct {
		raw  string
		dst  *time.Duration
		name string
	}{
		{fc.Weather.Timeout, &cfg.WeatherTimeout, "weather.timeout"},
		{fc.ImageHost.Timeout, &cfg.ImageHostTimeout, "image_host.timeout"},
		{fc.Notify.Duration, &cfg.NotifyDuration, "notify.duration"},
		{fc.ShutdownTimeout, &cfg.ShutdownTimeout, "shutdown_timeout"},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config file %s: invalid %s: %w", path, d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.WeatherBaseURL, os.Getenv("WEATHER_BASE_URL"))
	setString(&cfg.WeatherAPIKey, os.Getenv("WEATHER_API_KEY"))
	setString(&cfg.WeatherUnits, os.Getenv("WEATHER_UNITS"))
	setString(&cfg.StoreBackend, os.Getenv("STORE_BACKEND"))
	setString(&cfg.StorePath, os.Getenv("STORE_PATH"))
	setString(&cfg.ImageHostURL, os.Getenv("IMAGE_HOST_URL"))
	setString(&cfg.ImageHostPreset, os.Getenv("IMAGE_HOST_PRESET"))
	setString(&cfg.HTTPAddr, os.Getenv("HTTP_ADDR"))
	setString(&cfg.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&cfg.LogFormat, os.Getenv("LOG_FORMAT"))

	for _, d := range []struct {
		env string
		dst *time.Duration
	}{
		{"WEATHER_TIMEOUT", &cfg.WeatherTimeout},
		{"IMAGE_HOST_TIMEOUT", &cfg.ImageHostTimeout},
		{"NOTIFY_DURATION", &cfg.NotifyDuration},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout},
	} {
		raw := os.Getenv(d.env)
		if raw == "" {
			continue
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.env, err)
		}
		*d.dst = v
	}

	for _, f := range []struct {
		env string
		dst *float64
	}{
		{"VIEWPORT_SPAN", &cfg.ViewportSpan},
		{"DEFAULT_LATITUDE", &cfg.DefaultLatitude},
		{"DEFAULT_LONGITUDE", &cfg.DefaultLongitude},
	} {
		raw := os.Getenv(f.env)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.env, err)
		}
		*f.dst = v
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.StoreBackend != BackendJSON && cfg.StoreBackend != BackendBolt {
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendJSON, BackendBolt, cfg.StoreBackend)
	}
	if cfg.StorePath == "" {
		return errors.New("STORE_PATH is required")
	}
	if cfg.WeatherEnabled && cfg.WeatherAPIKey == "" {
		return errors.New("WEATHER_ENABLED is true but WEATHER_API_KEY is not set")
	}
	if cfg.WeatherTimeout <= 0 {
		return errors.New("WEATHER_TIMEOUT must be positive")
	}
	if cfg.NotifyDuration <= 0 {
		return errors.New("NOTIFY_DURATION must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.ViewportSpan <= 0 {
		return errors.New("VIEWPORT_SPAN must be positive")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

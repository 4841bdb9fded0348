package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr               string        `yaml:"addr"`
	CORSOrigins        []string      `yaml:"cors_origins"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
}

// UpstreamConfig holds the API-Football connection settings.
// Credentials are never compiled in; they come from the environment or a config file.
type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	APIHost string        `yaml:"api_host"`
	Season  int           `yaml:"season"`
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig holds the optional activity stream connection
type RedisConfig struct {
	URL    string `yaml:"url"`
	Stream string `yaml:"stream"`
}

// LogConfig controls zerolog output
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:8080",
			},
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			SessionIdleTimeout: 30 * time.Minute,
		},
		Upstream: UpstreamConfig{
			BaseURL: "https://api-football-v1.p.rapidapi.com",
			Season:  2021,
		},
		Redis: RedisConfig{
			Stream: "dashboard.activity",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence (environment wins).
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides fields with any environment variables that are set
func applyEnv(cfg *Config) error {
	cfg.Server.Addr = getEnv("SERVER_ADDR", cfg.Server.Addr)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		cfg.Server.CORSOrigins = splitList(origins)
	}

	var err error
	if cfg.Server.SessionIdleTimeout, err = getEnvDuration("SESSION_IDLE_TIMEOUT", cfg.Server.SessionIdleTimeout); err != nil {
		return err
	}

	cfg.Upstream.BaseURL = strings.TrimRight(getEnv("APIFOOTBALL_BASE_URL", cfg.Upstream.BaseURL), "/")
	cfg.Upstream.APIKey = getEnv("APIFOOTBALL_KEY", cfg.Upstream.APIKey)
	cfg.Upstream.APIHost = getEnv("APIFOOTBALL_HOST", cfg.Upstream.APIHost)
	if cfg.Upstream.Season, err = getEnvInt("APIFOOTBALL_SEASON", cfg.Upstream.Season); err != nil {
		return err
	}
	if cfg.Upstream.Timeout, err = getEnvDuration("APIFOOTBALL_TIMEOUT", cfg.Upstream.Timeout); err != nil {
		return err
	}

	cfg.Redis.URL = getEnv("REDIS_URL", cfg.Redis.URL)
	cfg.Redis.Stream = getEnv("ACTIVITY_STREAM", cfg.Redis.Stream)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	if v := getEnv("LOG_PRETTY", ""); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_PRETTY: %w", err)
		}
		cfg.Log.Pretty = pretty
	}

	return nil
}

// Validate checks the fields the service cannot run without
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server addr is required"))
	}
	if c.Server.SessionIdleTimeout <= 0 {
		errs = append(errs, errors.New("session idle timeout must be positive"))
	}

	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid upstream base url %q", c.Upstream.BaseURL))
	}
	if c.Upstream.Season <= 0 {
		errs = append(errs, fmt.Errorf("invalid season %d", c.Upstream.Season))
	}
	if c.Upstream.Timeout < 0 {
		errs = append(errs, errors.New("upstream timeout must not be negative"))
	}

	return errors.Join(errs...)
}

// APIHostHeader returns the X-RapidAPI-Host value, defaulting to the base URL host
func (u UpstreamConfig) APIHostHeader() string {
	if u.APIHost != "" {
		return u.APIHost
	}
	parsed, err := url.Parse(u.BaseURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// splitList splits a comma-separated value, dropping blanks
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

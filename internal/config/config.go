// Package config loads server settings from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables win over it. Every setting has a default except
// JWT_SECRET.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretLen = 16

// Config holds all server configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	GitHub      GitHubConfig
	Recognition RecognitionConfig

	LogLevel slog.Level

	// Timezone is the fallback zone for day bucketing when a request does
	// not name one.
	Timezone *time.Location
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool
}

// GitHubConfig enables GitHub sign-in when ClientID and ClientSecret are set.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Enabled reports whether GitHub sign-in is configured.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// RecognitionConfig configures the food recognition gateway. Analysis is
// unavailable when APIKey is empty.
type RecognitionConfig struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Enabled reports whether an API key is configured.
func (r RecognitionConfig) Enabled() bool {
	return r.APIKey != ""
}

// Load reads .env (if any) and the environment, then validates the result.
// All problems are reported together.
func Load() (*Config, error) {
	_ = godotenv.Load()

	p := &parser{}
	cfg := &Config{
		Server: ServerConfig{
			Port: p.getInt("PORT", 8080),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "data/nutri-track.db"),
		},
		Auth: AuthConfig{
			JWTSecret:    os.Getenv("JWT_SECRET"),
			TokenTTL:     p.getDuration("TOKEN_TTL", 24*time.Hour),
			CookieSecure: p.getBool("COOKIE_SECURE", false),
		},
		GitHub: GitHubConfig{
			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			CallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
		},
		Recognition: RecognitionConfig{
			URL:     getEnv("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1/chat/completions"),
			APIKey:  os.Getenv("AI_GATEWAY_API_KEY"),
			Model:   getEnv("AI_MODEL", "google/gemini-2.5-flash"),
			Timeout: p.getDuration("ANALYZE_TIMEOUT", 60*time.Second),
		},
		LogLevel: p.getLevel("LOG_LEVEL", slog.LevelInfo),
		Timezone: p.getLocation("DEFAULT_TIMEZONE", time.Local),
	}

	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Server.Port)
	}

	if err := errors.Join(append(p.errs, cfg.Validate())...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that parsed but are out of range.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("DB_PATH must not be empty"))
	}
	if len(c.Auth.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLen))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Recognition.Timeout <= 0 {
		errs = append(errs, errors.New("ANALYZE_TIMEOUT must be positive"))
	}
	if c.Recognition.Enabled() && (c.Recognition.URL == "" || c.Recognition.Model == "") {
		errs = append(errs, errors.New("AI_GATEWAY_URL and AI_MODEL are required when AI_GATEWAY_API_KEY is set"))
	}
	return errors.Join(errs...)
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser reads typed variables and remembers every parse failure.
type parser struct {
	errs []error
}

func (p *parser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (p *parser) getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return i
}

func (p *parser) getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return b
}

func (p *parser) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return d
}

func (p *parser) getLevel(key string, defaultValue slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(value))); err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return l
}

func (p *parser) getLocation(key string, defaultValue *time.Location) *time.Location {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	loc, err := time.LoadLocation(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return loc
}

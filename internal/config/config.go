// Package config provides the configuration structure for the vibevoice service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// EnvGeminiAPIKey is consulted when no API key is configured or entered in settings.
const EnvGeminiAPIKey = "GEMINI_API_KEY"

// Defaults applied to fields left empty in the project configuration.
const (
	DefaultServerURL           = "http://localhost:3000"
	DefaultConnectTimeoutSecs  = 5
	DefaultGeminiBaseURL       = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel         = "gemini-1.5-flash"
	DefaultGeminiTimeoutSecs   = 60
	DefaultGeminiBackend       = BackendREST
	DefaultHTTPBind            = "127.0.0.1:8080"
	DefaultCommandSubject      = "vibevoice.playback.command"
	DefaultEndedSubject        = "vibevoice.playback.ended"
	DefaultPlaybackTextBucket  = "VIBEVOICE_PLAYBACK_TEXT"
	DefaultShutdownTimeoutSecs = 10
)

// Script generation backends.
const (
	BackendREST = "rest"
	BackendSDK  = "sdk"
)

// ErrUnknownBackend is returned when gemini.backend names no known backend.
var ErrUnknownBackend = errors.New("unknown gemini backend")

// TTSServerConfig holds the settings for the TTS server connection check.
type TTSServerConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// GeminiConfig holds the settings for podcast script generation.
type GeminiConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Backend        string `toml:"backend"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// MinRequestIntervalMillis rate limits REST requests; zero means unlimited.
	MinRequestIntervalMillis int `toml:"min_request_interval_ms"`
}

// NATSConfig holds the configuration for the playback command channel.
// Playback commands are only bridged when URL is set.
type NATSConfig struct {
	URL                string `toml:"url"`
	CommandSubject     string `toml:"command_subject"`
	EndedSubject       string `toml:"ended_subject"`
	PlaybackTextBucket string `toml:"playback_text_bucket"`
	// NormalizeText strips citation markers and smart punctuation from
	// playback text before the driver sees it.
	NormalizeText bool `toml:"normalize_text"`
}

// HTTPConfig holds the view API listener settings.
type HTTPConfig struct {
	Bind                   string `toml:"bind"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	TTSServer TTSServerConfig `toml:"tts_server"`
	Gemini    GeminiConfig    `toml:"gemini"`
	NATS      NATSConfig      `toml:"nats"`
	HTTP      HTTPConfig      `toml:"http"`
	Paths     PathsConfig     `toml:"paths"`
}

// Load loads the configuration for the vibevoice service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills empty fields and resolves the Gemini API key from the
// environment when the configuration does not carry one.
func (c *Config) ApplyDefaults() {
	c.TTSServer.URL = firstNonEmpty(c.TTSServer.URL, DefaultServerURL)
	if c.TTSServer.TimeoutSeconds <= 0 {
		c.TTSServer.TimeoutSeconds = DefaultConnectTimeoutSecs
	}

	c.Gemini.APIKey = firstNonEmpty(c.Gemini.APIKey, os.Getenv(EnvGeminiAPIKey))
	c.Gemini.BaseURL = firstNonEmpty(c.Gemini.BaseURL, DefaultGeminiBaseURL)
	c.Gemini.Model = firstNonEmpty(c.Gemini.Model, DefaultGeminiModel)
	c.Gemini.Backend = strings.ToLower(firstNonEmpty(c.Gemini.Backend, DefaultGeminiBackend))
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = DefaultGeminiTimeoutSecs
	}

	c.NATS.URL = strings.TrimSpace(c.NATS.URL)
	c.NATS.CommandSubject = firstNonEmpty(c.NATS.CommandSubject, DefaultCommandSubject)
	c.NATS.EndedSubject = firstNonEmpty(c.NATS.EndedSubject, DefaultEndedSubject)
	c.NATS.PlaybackTextBucket = firstNonEmpty(c.NATS.PlaybackTextBucket, DefaultPlaybackTextBucket)

	c.HTTP.Bind = firstNonEmpty(c.HTTP.Bind, DefaultHTTPBind)
	if c.HTTP.ShutdownTimeoutSeconds <= 0 {
		c.HTTP.ShutdownTimeoutSeconds = DefaultShutdownTimeoutSecs
	}

	c.Paths.BaseLogsDir = firstNonEmpty(c.Paths.BaseLogsDir, os.TempDir())
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	switch c.Gemini.Backend {
	case BackendREST, BackendSDK:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Gemini.Backend)
	}

	return nil
}

// ConnectTimeout returns the connection check timeout.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.TTSServer.TimeoutSeconds) * time.Second
}

// GeminiTimeout returns the script generation timeout.
func (c *Config) GeminiTimeout() time.Duration {
	return time.Duration(c.Gemini.TimeoutSeconds) * time.Second
}

// GeminiMinInterval returns the minimum spacing between REST script requests.
func (c *Config) GeminiMinInterval() time.Duration {
	if c.Gemini.MinRequestIntervalMillis <= 0 {
		return 0
	}

	return time.Duration(c.Gemini.MinRequestIntervalMillis) * time.Millisecond
}

// ShutdownTimeout returns how long the HTTP server may take to drain.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.HTTP.ShutdownTimeoutSeconds) * time.Second
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}

	return ""
}

// Package tts talks to the VibeVoice TTS server.
//
// The controller only needs two things from the server: the voice catalogue
// served at /config, used as the connectivity probe, and the /health endpoint
// used by the command line check. Audio itself is streamed by the external
// playback driver and never passes through this package.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/book-expert/vibevoice/internal/core"
)

// API endpoints and paths.
const (
	apiConfig = "/config"
	apiHealth = "/health"
)

// HTTP headers.
const (
	headerAccept    = "Accept"
	contentTypeJSON = "application/json"
)

// DefaultTimeout bounds a single connection check.
const DefaultTimeout = 5 * time.Second

// Error messages.
const (
	errServerURLCannotBeEmpty = "server url cannot be empty"
	errFmtServerNonOKStatus   = "TTS server returned non-OK status: %s, body: %s"
	maxErrorBodyBytes         = 512
)

// ErrServerURLEmpty is returned when no server URL is configured.
var ErrServerURLEmpty = errors.New(errServerURLCannotBeEmpty)

// StatusError reports a response that arrived but was not HTTP 200.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf(errFmtServerNonOKStatus, e.Status, e.Body)
}

// HTTPClient represents a client for the TTS HTTP server. The server URL is
// passed per call because users can repoint the application at runtime.
type HTTPClient struct {
	httpClient *http.Client
}

var _ core.ConnectionChecker = (*HTTPClient)(nil)

// NewHTTPClient creates a client whose requests are bounded by timeout.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchConfig retrieves the voice catalogue from GET {serverURL}/config.
//
// A *StatusError is returned when the server answered with anything other
// than 200; every other error means the server could not be reached or its
// body could not be decoded.
func (c *HTTPClient) FetchConfig(ctx context.Context, serverURL string) (core.VoiceConfig, error) {
	var cfg core.VoiceConfig

	body, err := c.get(ctx, serverURL, apiConfig)
	if err != nil {
		return cfg, err
	}

	err = parseJSON(body, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse voice config: %w", err)
	}

	if cfg.Voices == nil {
		cfg.Voices = []string{}
	}

	return cfg, nil
}

// HealthCheck verifies that the TTS server is running and operational.
func (c *HTTPClient) HealthCheck(ctx context.Context, serverURL string) error {
	_, err := c.get(ctx, serverURL, apiHealth)
	if err != nil {
		return fmt.Errorf("health check failed for server at %s: %w", serverURL, err)
	}

	return nil
}

func (c *HTTPClient) get(ctx context.Context, serverURL, path string) ([]byte, error) {
	base := strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if base == "" {
		return nil, ErrServerURLEmpty
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to TTS server at %s: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

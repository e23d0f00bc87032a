// Package script turns source text into a two-speaker podcast dialogue using
// the Gemini generateContent API.
//
// Two backends implement core.ScriptGenerator: Client speaks the REST wire
// format directly, passing the API key as the "key" query parameter, and
// SDKGenerator goes through the google.golang.org/genai client. Both send the
// same prompt with temperature 0.7 and at most 2048 output tokens, take the
// first candidate's first text part verbatim, and never retry.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/book-expert/vibevoice/internal/core"
	"golang.org/x/time/rate"
)

// Generation defaults.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-1.5-flash"
	DefaultTimeout = 60 * time.Second

	generationTemperature = 0.7
	maxOutputTokens       = 2048
	apiVersionPath        = "v1beta"
	maxErrorSnippetBytes  = 500
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

// Config captures the settings required to reach the generative API.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	// MinInterval spaces out requests to stay under the API quota.
	// Zero disables the limiter.
	MinInterval time.Duration
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}

	c.Model = strings.TrimPrefix(strings.TrimSpace(c.Model), "models/")
	if c.Model == "" {
		c.Model = DefaultModel
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	return c
}

// Client issues generateContent requests over plain HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ core.ScriptGenerator = (*Client)(nil)

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a REST client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg = cfg.withDefaults()

	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.MinInterval > 0 {
		client.limiter = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}
	for _, opt := range opts {
		opt(client)
	}

	return client
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content *content `json:"content"`
	} `json:"candidates"`
}

// GenerateScript sends the lecture prompt for req.SourceText and returns the
// generated dialogue verbatim.
func (c *Client) GenerateScript(ctx context.Context, req core.ScriptRequest) (string, error) {
	apiKey := req.APIKey
	if apiKey == "" {
		return "", core.ErrAPIKeyMissing
	}

	if c.limiter != nil {
		err := c.limiter.Wait(ctx)
		if err != nil {
			return "", fmt.Errorf("generate content: rate limiter: %w", err)
		}
	}

	payload := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: LecturePrompt(req.SourceText)}}}},
		GenerationConfig: generationConfig{
			Temperature:     generationTemperature,
			MaxOutputTokens: maxOutputTokens,
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("generate content: encode body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(apiKey), bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("generate content: new request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", redactKey(err, apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("generate content: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &core.APIStatusError{StatusCode: resp.StatusCode, Body: snippet(body)}
	}

	var decoded generateContentResponse

	err = json.Unmarshal(body, &decoded)
	if err != nil {
		return "", fmt.Errorf("generate content: decode response: %w", err)
	}

	return firstCandidateText(decoded)
}

func (c *Client) endpoint(apiKey string) string {
	query := url.Values{}
	query.Set("key", apiKey)

	return fmt.Sprintf("%s/%s/models/%s:generateContent?%s", c.cfg.BaseURL, apiVersionPath, c.cfg.Model, query.Encode())
}

func firstCandidateText(resp generateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", core.ErrNoCandidates
	}

	first := resp.Candidates[0].Content
	if first == nil || len(first.Parts) == 0 {
		return "", core.ErrEmptyContent
	}

	return first.Parts[0].Text, nil
}

// redactKey strips the API key from transport errors, which embed the request URL.
func redactKey(err error, apiKey string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{
			Op:  urlErr.Op,
			URL: strings.ReplaceAll(urlErr.URL, url.QueryEscape(apiKey), "REDACTED"),
			Err: urlErr.Err,
		}
	}

	return err
}

func snippet(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > maxErrorSnippetBytes {
		return trimmed[:maxErrorSnippetBytes]
	}

	return trimmed
}

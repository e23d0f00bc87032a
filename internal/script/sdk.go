package script

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/book-expert/vibevoice/internal/core"
	"google.golang.org/genai"
)

// SDKGenerator generates scripts through the official genai client. A client
// is built per request because the API key can change between calls.
type SDKGenerator struct {
	cfg        Config
	httpClient *http.Client
}

var _ core.ScriptGenerator = (*SDKGenerator)(nil)

// NewSDKGenerator constructs a genai-backed generator.
func NewSDKGenerator(cfg Config) *SDKGenerator {
	cfg = cfg.withDefaults()

	return &SDKGenerator{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// GenerateScript sends the lecture prompt for req.SourceText and returns the
// first candidate's first text part.
func (g *SDKGenerator) GenerateScript(ctx context.Context, req core.ScriptRequest) (string, error) {
	apiKey := req.APIKey
	if apiKey == "" {
		return "", core.ErrAPIKeyMissing
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    g.cfg.BaseURL + "/",
			APIVersion: apiVersionPath,
		},
	})
	if err != nil {
		return "", fmt.Errorf("genai client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(LecturePrompt(req.SourceText)), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](generationTemperature),
		MaxOutputTokens: maxOutputTokens,
	})
	if err != nil {
		return "", convertSDKError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", core.ErrNoCandidates
	}

	first := resp.Candidates[0]
	if first.Content == nil || len(first.Content.Parts) == 0 || first.Content.Parts[0] == nil {
		return "", core.ErrEmptyContent
	}

	return first.Content.Parts[0].Text, nil
}

func convertSDKError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &core.APIStatusError{StatusCode: apiErr.Code, Body: apiErr.Message}
	}

	return fmt.Errorf("generate content: %w", err)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiModel calls the Gemini API with the document as an inline part.
type GeminiModel struct {
	client *genai.Client
}

// NewGeminiModel creates a Gemini client. baseURL and httpClient are
// optional and used by tests.
func NewGeminiModel(ctx context.Context, apiKey, baseURL string, httpClient *http.Client) (*GeminiModel, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiModel{client: client}, nil
}

// Generate sends the document bytes and the prompt in one user turn and
// returns the concatenated text of the first candidate.
func (g *GeminiModel) Generate(ctx context.Context, model string, doc []byte, mimeType, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(doc, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", model, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini %s: empty response", model)
	}
	return text, nil
}

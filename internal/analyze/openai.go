// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIModel calls the OpenAI chat completions API with the document
// attached as a file content part.
type OpenAIModel struct {
	client openai.Client
}

// NewOpenAIModel creates an OpenAI client. The SDK's own retries are
// disabled; the analyzer decides what to retry. baseURL and httpClient
// are optional and used by tests.
func NewOpenAIModel(apiKey, baseURL string, httpClient *http.Client) *OpenAIModel {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &OpenAIModel{client: openai.NewClient(opts...)}
}

// Generate sends the document and the prompt as one user message.
func (m *OpenAIModel) Generate(ctx context.Context, model string, doc []byte, mimeType, prompt string) (string, error) {
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(doc)

	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
					FileData: openai.String(dataURL),
					Filename: openai.String("paper.pdf"),
				}),
				openai.TextContentPart(prompt),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai %s: %w", model, mapOpenAIError(err))
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai %s: no choices in response", model)
	}
	return resp.Choices[0].Message.Content, nil
}

// mapOpenAIError tags overload and quota responses with the analyzer's
// sentinels, keeping the original error text.
func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == "insufficient_quota" || apiErr.Type == "insufficient_quota":
		return fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
	case apiErr.StatusCode == http.StatusServiceUnavailable || apiErr.StatusCode == 529:
		return fmt.Errorf("%w: %v", ErrOverloaded, err)
	default:
		return err
	}
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const googleBaseURL = "https://generativelanguage.googleapis.com"

type googleClient struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// newGoogleClient pins the Gemini API backend so GOOGLE_GENAI_USE_VERTEXAI in
// the environment cannot redirect requests to Vertex AI.
func newGoogleClient(opts Options, httpClient *http.Client) (*googleClient, error) {
	timeout := opts.Timeout
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURLOrDefault(opts.BaseURL, googleBaseURL) + "/",
			Timeout: &timeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", ProviderGoogle, err)
	}
	return &googleClient{client: client, model: opts.Model, maxTokens: opts.MaxTokens}, nil
}

func (c *googleClient) Transform(ctx context.Context, instructions, text string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt(instructions, text)), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(systemPrompt)}},
		MaxOutputTokens:   int32(c.maxTokens),
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &APIError{Provider: ProviderGoogle, StatusCode: apiErr.Code, Body: apiErr.Message}
		}
		return "", requestFailed(ProviderGoogle, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nonEmpty(ProviderGoogle, "")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		out.WriteString(part.Text)
	}
	return nonEmpty(ProviderGoogle, out.String())
}

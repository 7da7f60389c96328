package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicBaseURL = "https://api.anthropic.com"

type anthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

func newAnthropicClient(opts Options, httpClient *http.Client) *anthropicClient {
	return &anthropicClient{
		client: anthropic.NewClient(
			option.WithAPIKey(opts.APIKey),
			option.WithBaseURL(baseURLOrDefault(opts.BaseURL, anthropicBaseURL)+"/"),
			option.WithHTTPClient(httpClient),
			option.WithRequestTimeout(opts.Timeout),
			option.WithMaxRetries(0),
		),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
	}
}

func (c *anthropicClient) Transform(ctx context.Context, instructions, text string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(instructions, text))),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &APIError{Provider: ProviderAnthropic, StatusCode: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}
		return "", requestFailed(ProviderAnthropic, err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return nonEmpty(ProviderAnthropic, out.String())
}

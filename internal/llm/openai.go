package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const openAIBaseURL = "https://api.openai.com"

type openAIClient struct {
	client    openai.Client
	model     string
	maxTokens int
}

func newOpenAIClient(opts Options, httpClient *http.Client) *openAIClient {
	return &openAIClient{
		client: openai.NewClient(
			option.WithAPIKey(opts.APIKey),
			option.WithBaseURL(baseURLOrDefault(opts.BaseURL, openAIBaseURL)+"/v1/"),
			option.WithHTTPClient(httpClient),
			option.WithRequestTimeout(opts.Timeout),
			option.WithMaxRetries(0),
		),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
	}
}

func (c *openAIClient) Transform(ctx context.Context, instructions, text string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(instructions, text)),
		},
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &APIError{Provider: ProviderOpenAI, StatusCode: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}
		return "", requestFailed(ProviderOpenAI, err)
	}
	if len(resp.Choices) == 0 {
		return nonEmpty(ProviderOpenAI, "")
	}
	return nonEmpty(ProviderOpenAI, resp.Choices[0].Message.Content)
}

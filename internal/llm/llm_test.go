package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUserPromptFencesTextAndInstructions(t *testing.T) {
	got := userPrompt("Fix grammar.", "helo wrld")
	require.Equal(t, "<<<TEXT>>>\nhelo wrld\n<<</TEXT>>>\n\n<<<INSTRUCTIONS>>>\nFix grammar.\n<<</INSTRUCTIONS>>>\nReturn the transformed text only.", got)
}

func TestNewRejectsUnknownProviderAndMissingKey(t *testing.T) {
	_, err := New(Options{Provider: "mistral", Model: "m", APIKey: "k"})
	require.ErrorIs(t, err, ErrUnsupportedProvider)

	_, err = New(Options{Provider: ProviderOpenAI, Model: "gpt-4o-mini"})
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type textBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func TestOpenAITransform(t *testing.T) {
	var captured struct {
		Model               string        `json:"model"`
		Messages            []chatMessage `json:"messages"`
		MaxCompletionTokens int           `json:"max_completion_tokens"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writeJSON(w, map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "Hello world"}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	tr, err := New(Options{Provider: ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-test", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	out, err := tr.Transform(context.Background(), "Fix grammar.", "helo world")
	require.NoError(t, err)
	require.Equal(t, "Hello world", out)

	require.Equal(t, "gpt-4o-mini", captured.Model)
	require.Equal(t, DefaultMaxTokens, captured.MaxCompletionTokens)
	require.Len(t, captured.Messages, 2)
	require.Equal(t, "system", captured.Messages[0].Role)
	require.Equal(t, systemPrompt, captured.Messages[0].Content)
	require.Equal(t, userPrompt("Fix grammar.", "helo world"), captured.Messages[1].Content)
}

func TestAnthropicTransform(t *testing.T) {
	var captured struct {
		Model     string      `json:"model"`
		MaxTokens int         `json:"max_tokens"`
		System    []textBlock `json:"system"`
		Messages  []struct {
			Role    string      `json:"role"`
			Content []textBlock `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		require.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writeJSON(w, map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "Bonjour "},
				{"type": "text", "text": "le monde"},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	tr, err := New(Options{Provider: ProviderAnthropic, Model: "claude-haiku-4-5", APIKey: "ak-test", BaseURL: server.URL, MaxTokens: 512})
	require.NoError(t, err)

	out, err := tr.Transform(context.Background(), "Translate to french.", "hello world")
	require.NoError(t, err)
	require.Equal(t, "Bonjour le monde", out)
	require.Equal(t, "claude-haiku-4-5", captured.Model)
	require.Equal(t, 512, captured.MaxTokens)
	require.Equal(t, []textBlock{{Type: "text", Text: systemPrompt}}, captured.System)
	require.Len(t, captured.Messages, 1)
	require.Equal(t, "user", captured.Messages[0].Role)
	require.Equal(t, userPrompt("Translate to french.", "hello world"), captured.Messages[0].Content[0].Text)
}

func TestGoogleTransform(t *testing.T) {
	type part struct {
		Text string `json:"text"`
	}
	var captured struct {
		SystemInstruction *struct {
			Parts []part `json:"parts"`
		} `json:"systemInstruction"`
		Contents []struct {
			Role  string `json:"role"`
			Parts []part `json:"parts"`
		} `json:"contents"`
		GenerationConfig struct {
			MaxOutputTokens int `json:"maxOutputTokens"`
		} `json:"generationConfig"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1beta/models/gemini-flash-lite-latest:generateContent", r.URL.Path)
		require.Equal(t, "gk-test", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writeJSON(w, map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "SELECT 1;"}}}},
			},
		})
	}))
	defer server.Close()

	tr, err := New(Options{Provider: ProviderGoogle, Model: "gemini-flash-lite-latest", APIKey: "gk-test", BaseURL: server.URL})
	require.NoError(t, err)

	out, err := tr.Transform(context.Background(), "Write SQL.", "one")
	require.NoError(t, err)
	require.Equal(t, "SELECT 1;", out)
	require.NotNil(t, captured.SystemInstruction)
	require.Equal(t, systemPrompt, captured.SystemInstruction.Parts[0].Text)
	require.Equal(t, DefaultMaxTokens, captured.GenerationConfig.MaxOutputTokens)
	require.Len(t, captured.Contents, 1)
	require.Equal(t, "user", captured.Contents[0].Role)
	require.Equal(t, userPrompt("Write SQL.", "one"), captured.Contents[0].Parts[0].Text)
}

func TestTransformReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	tr, err := New(Options{Provider: ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = tr.Transform(context.Background(), "Fix.", "text")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, ProviderOpenAI, apiErr.Provider)
	require.Contains(t, apiErr.Error(), "invalid key")
}

func TestTransformEmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	tr, err := New(Options{Provider: ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = tr.Transform(context.Background(), "Fix.", "text")
	require.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestTransformHonorsContextCancel(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	tr, err := New(Options{Provider: ProviderAnthropic, Model: "claude-haiku-4-5", APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = tr.Transform(ctx, "Fix.", "text")
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestGoogleTransformReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	tr, err := New(Options{Provider: ProviderGoogle, Model: "gemini-flash-lite-latest", APIKey: "gk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = tr.Transform(context.Background(), "Fix.", "text")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.Equal(t, ProviderGoogle, apiErr.Provider)
	require.Contains(t, apiErr.Error(), "quota exhausted")
}

func TestAnthropicEmptyContentIsEmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"content": []any{}, "stop_reason": "end_turn"})
	}))
	defer server.Close()

	tr, err := New(Options{Provider: ProviderAnthropic, Model: "claude-haiku-4-5", APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = tr.Transform(context.Background(), "Fix.", "text")
	require.ErrorIs(t, err, ErrEmptyCompletion)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

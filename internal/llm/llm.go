// Package llm sends rewrite prompts to hosted language-model providers.
package llm

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultMaxTokens bounds completion length when Options.MaxTokens is unset.
	DefaultMaxTokens = 4096
	// DefaultTimeout bounds one provider round-trip when Options.Timeout is unset.
	DefaultTimeout = 60 * time.Second

	systemPrompt = "Apply the provided instructions to the provided text"
)

var (
	// ErrUnsupportedProvider is returned by New for an unknown provider name.
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrEmptyCompletion is returned when a provider answers without any text.
	ErrEmptyCompletion = errors.New("empty completion")
	// ErrMissingAPIKey is returned by New when no API key could be resolved.
	ErrMissingAPIKey = errors.New("missing API key")
)

// Transformer rewrites text according to instructions.
type Transformer interface {
	Transform(ctx context.Context, instructions, text string) (string, error)
}

// Options configures a provider client.
type Options struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration

	// HTTPClient overrides the transport handed to the provider SDK.
	HTTPClient *http.Client
}

// APIError reports a non-2xx provider response.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s API error %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, body)
}

// New builds the Transformer for opts.Provider.
func New(opts Options) (Transformer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("%w for provider %q", ErrMissingAPIKey, opts.Provider)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(opts.Timeout)
	}

	switch opts.Provider {
	case ProviderOpenAI:
		return newOpenAIClient(opts, httpClient), nil
	case ProviderAnthropic:
		return newAnthropicClient(opts, httpClient), nil
	case ProviderGoogle:
		return newGoogleClient(opts, httpClient)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, opts.Provider)
	}
}

// userPrompt fences text and instructions so the model can tell them apart.
func userPrompt(instructions, text string) string {
	var b strings.Builder
	b.WriteString("<<<TEXT>>>\n")
	b.WriteString(text)
	b.WriteString("\n<<</TEXT>>>\n")
	b.WriteString("\n<<<INSTRUCTIONS>>>\n")
	b.WriteString(instructions)
	b.WriteString("\n<<</INSTRUCTIONS>>>\nReturn the transformed text only.")
	return b.String()
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

func baseURLOrDefault(configured, fallback string) string {
	configured = strings.TrimRight(strings.TrimSpace(configured), "/")
	if configured == "" {
		return fallback
	}
	return configured
}

// requestFailed wraps transport failures that carry no provider status.
func requestFailed(provider string, err error) error {
	return fmt.Errorf("%s request failed: %w", provider, err)
}

func nonEmpty(provider, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%s: %w", provider, ErrEmptyCompletion)
	}
	return content, nil
}

package llm

import (
	"os"
	"slices"
	"strings"
)

// Provider names accepted in model.provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google-genai"
)

// Providers lists supported providers in display order.
var Providers = []string{ProviderOpenAI, ProviderAnthropic, ProviderGoogle}

// ProviderModels lists the models offered for each provider.
var ProviderModels = map[string][]string{
	ProviderOpenAI: {
		"gpt-4o-mini",
		"gpt-4.1-nano",
		"gpt-5-nano",
		"gpt-5-mini",
		"gpt-5.2",
		"gpt-5",
		"gpt-4.1",
	},
	ProviderAnthropic: {"claude-haiku-4-5", "claude-sonnet-4-5", "claude-opus-4-5"},
	ProviderGoogle:    {"gemini-flash-lite-latest", "gemini-flash-latest"},
}

// RecommendedModels are fast, inexpensive picks for short rewrites.
var RecommendedModels = []string{
	"gpt-4o-mini",
	"claude-haiku-4-5",
	"gemini-flash-lite-latest",
}

// KnownModel reports whether model is listed for provider.
func KnownModel(provider, model string) bool {
	return slices.Contains(ProviderModels[provider], model)
}

// Recommended reports whether model is one of RecommendedModels.
func Recommended(model string) bool {
	return slices.Contains(RecommendedModels, model)
}

// DefaultAPIKeyEnv returns the conventional environment variable for provider.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGoogle:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// ResolveAPIKey picks the explicit key, then keyEnv, then the provider default
// variable. source names where the key came from ("config" or the variable).
func ResolveAPIKey(provider, explicit, keyEnv string) (key string, source string) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, "config"
	}
	for _, name := range []string{strings.TrimSpace(keyEnv), DefaultAPIKeyEnv(provider)} {
		if name == "" {
			continue
		}
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key, name
		}
	}
	return "", ""
}

// BaseURL returns configured when set, otherwise the provider's public endpoint.
func BaseURL(provider, configured string) string {
	switch provider {
	case ProviderOpenAI:
		return baseURLOrDefault(configured, openAIBaseURL)
	case ProviderAnthropic:
		return baseURLOrDefault(configured, anthropicBaseURL)
	case ProviderGoogle:
		return baseURLOrDefault(configured, googleBaseURL)
	default:
		return baseURLOrDefault(configured, "")
	}
}

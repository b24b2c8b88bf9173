package providers

import (
	"fmt"

	"ifs-actionplan/internal/llm"
	"ifs-actionplan/internal/llm/gemini"
	"ifs-actionplan/internal/llm/openai"
	"ifs-actionplan/internal/shared/config"
)

// New picks the LLM client for cfg. Missing credentials yield a placeholder
// so the rest of the API keeps working.
func New(cfg config.Config) llm.Client {
	switch cfg.LLMProvider {
	case "none":
		return llm.PlaceholderClient{Reason: "LLM_PROVIDER=none"}
	case "gemini":
		client, err := gemini.NewClient(gemini.Options{APIKey: cfg.LLMAPIKey, Model: cfg.LLMModel, Endpoint: cfg.LLMBaseURL})
		if err != nil {
			return llm.PlaceholderClient{Reason: err.Error()}
		}
		return client
	case openai.ProviderGroq, openai.ProviderOpenAI:
		client, err := openai.NewClient(openai.Options{
			Provider: cfg.LLMProvider,
			APIKey:   cfg.LLMAPIKey,
			Model:    cfg.LLMModel,
			BaseURL:  cfg.LLMBaseURL,
			Timeout:  cfg.LLMTimeout,
		})
		if err != nil {
			return llm.PlaceholderClient{Reason: err.Error()}
		}
		return client
	default:
		return llm.PlaceholderClient{Reason: fmt.Sprintf("unknown provider %q", cfg.LLMProvider)}
	}
}

// Name describes the configured provider for health output.
func Name(c llm.Client) string {
	switch v := c.(type) {
	case *openai.Client:
		return v.Provider()
	case *gemini.Client:
		return gemini.Provider
	default:
		return "none"
	}
}

// Model reports the model c actually calls when asked for requested.
func Model(c llm.Client, requested string) string {
	if v, ok := c.(*gemini.Client); ok {
		return v.ModelFor(requested)
	}
	return requested
}

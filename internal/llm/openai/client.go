package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ifs-actionplan/internal/llm"
	"ifs-actionplan/internal/shared/telemetry"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"

	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OpenAIBaseURL = "https://api.openai.com/v1"

	defaultTimeout = 120 * time.Second
	maxBodyBytes   = 4 << 20
)

// Options configures a Chat Completions client.
type Options struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements llm.Client against any OpenAI-compatible Chat Completions
// endpoint (Groq, OpenAI).
type Client struct {
	provider   string
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewClient validates opts and builds a client.
func NewClient(opts Options) (*Client, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = ProviderGroq
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("%w: %s api key is required", llm.ErrNotConfigured, provider)
	}

	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		switch provider {
		case ProviderGroq:
			base = GroqBaseURL
		case ProviderOpenAI:
			base = OpenAIBaseURL
		default:
			return nil, fmt.Errorf("unknown provider %q without base url", provider)
		}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		provider:   provider,
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      strings.TrimSpace(opts.Model),
		endpoint:   strings.TrimRight(base, "/") + "/chat/completions",
		httpClient: httpClient,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends one request. Failures are returned wrapped in llm.ErrUpstream.
func (c *Client) Complete(ctx context.Context, in llm.Request) (llm.Completion, error) {
	model := strings.TrimSpace(in.Model)
	if model == "" {
		model = c.model
	}
	if model == "" {
		return llm.Completion{}, fmt.Errorf("%w: model is required", llm.ErrNotConfigured)
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(in.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: in.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: in.User})

	body := chatRequest{Model: model, Messages: messages}
	if !fixedTemperature(model) {
		temp := in.Temperature
		body.Temperature = &temp
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return llm.Completion{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return llm.Completion{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.Completion{}, fmt.Errorf("%w: %s request timeout: %v", llm.ErrUpstream, c.provider, err)
		}
		return llm.Completion{}, fmt.Errorf("%w: %s transport: %v", llm.ErrUpstream, c.provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return llm.Completion{}, fmt.Errorf("%w: %s read body: %v", llm.ErrUpstream, c.provider, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return llm.Completion{}, fmt.Errorf("%w: %s http status %d: %s", llm.ErrUpstream, c.provider, resp.StatusCode, snippet(raw))
		}
		return llm.Completion{}, fmt.Errorf("%w: %s response parse: %v", llm.ErrUpstream, c.provider, err)
	}
	if parsed.Error != nil {
		return llm.Completion{}, fmt.Errorf("%w: %s http status %d: %s (%s)", llm.ErrUpstream, c.provider, resp.StatusCode, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return llm.Completion{}, fmt.Errorf("%w: %s http status %d: %s", llm.ErrUpstream, c.provider, resp.StatusCode, snippet(raw))
	}
	if len(parsed.Choices) == 0 {
		return llm.Completion{}, fmt.Errorf("%w: %s response missing choices", llm.ErrUpstream, c.provider)
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return llm.Completion{}, fmt.Errorf("%w: %s response empty content", llm.ErrUpstream, c.provider)
	}

	out := llm.Completion{Text: text, Provider: c.provider, Model: model}
	if parsed.Model != "" {
		out.Model = parsed.Model
	}
	if parsed.Usage != nil {
		out.Usage = llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		}
	}
	telemetry.Info("llm.completion", map[string]any{
		"provider":          c.provider,
		"model":             out.Model,
		"prompt_tokens":     out.Usage.PromptTokens,
		"completion_tokens": out.Usage.CompletionTokens,
		"duration_ms":       time.Since(start).Milliseconds(),
	})
	return out, nil
}

// Provider reports which backend the client talks to.
func (c *Client) Provider() string {
	return c.provider
}

// fixedTemperature lists models that reject an explicit temperature.
func fixedTemperature(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	return s
}

var _ llm.Client = (*Client)(nil)

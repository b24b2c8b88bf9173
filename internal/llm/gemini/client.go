package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"ifs-actionplan/internal/llm"
	"ifs-actionplan/internal/shared/telemetry"
)

const (
	Provider     = "gemini"
	DefaultModel = "gemini-1.5-flash"
)

// Options configures the Gemini client.
type Options struct {
	APIKey string
	Model  string
	// Endpoint overrides the API host, mainly for proxies.
	Endpoint string
}

// Client implements llm.Client on the Google Generative AI SDK.
type Client struct {
	apiKey   string
	model    string
	endpoint string
}

func NewClient(opts Options) (*Client, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is empty", llm.ErrNotConfigured)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Client{apiKey: key, model: model, endpoint: strings.TrimSpace(opts.Endpoint)}, nil
}

// Complete opens a short-lived SDK client, sends one GenerateContent call and
// returns the concatenated text parts.
func (c *Client) Complete(ctx context.Context, in llm.Request) (llm.Completion, error) {
	model := c.ModelFor(in.Model)

	clientOpts := []option.ClientOption{option.WithAPIKey(c.apiKey)}
	if c.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(c.endpoint))
	}
	cl, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return llm.Completion{}, fmt.Errorf("%w: gemini client: %v", llm.ErrUpstream, err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(float32(in.Temperature)),
	}
	if strings.TrimSpace(in.System) != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(in.System)}}
	}

	start := time.Now()
	resp, err := m.GenerateContent(ctx, genai.Text(in.User))
	if err != nil {
		return llm.Completion{}, fmt.Errorf("%w: gemini generate: %v", llm.ErrUpstream, err)
	}
	text := strings.TrimSpace(firstText(resp))
	if text == "" {
		return llm.Completion{}, fmt.Errorf("%w: gemini response empty content", llm.ErrUpstream)
	}

	out := llm.Completion{Text: text, Provider: Provider, Model: model, Usage: usageOf(resp)}
	telemetry.Info("llm.completion", map[string]any{
		"provider":          Provider,
		"model":             model,
		"prompt_tokens":     out.Usage.PromptTokens,
		"completion_tokens": out.Usage.CompletionTokens,
		"duration_ms":       time.Since(start).Milliseconds(),
	})
	return out, nil
}

// ModelFor returns the model a request for requested is sent to. Llama-style
// names from a shared LLM_MODEL fall back to the client's Gemini model.
func (c *Client) ModelFor(requested string) string {
	requested = strings.TrimSpace(requested)
	if strings.HasPrefix(requested, "gemini-") || strings.HasPrefix(requested, "models/gemini-") {
		return requested
	}
	return c.model
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func usageOf(resp *genai.GenerateContentResponse) llm.Usage {
	if resp == nil || resp.UsageMetadata == nil {
		return llm.Usage{}
	}
	u := resp.UsageMetadata
	return llm.Usage{
		PromptTokens:     int(u.PromptTokenCount),
		CompletionTokens: int(u.CandidatesTokenCount),
		TotalTokens:      int(u.TotalTokenCount),
	}
}

func ptrFloat32(v float32) *float32 { return &v }

var _ llm.Client = (*Client)(nil)

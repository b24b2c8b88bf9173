package llm

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned when no provider credential is available.
	ErrNotConfigured = errors.New("LLM provider not configured")
	// ErrUpstream wraps every provider-side failure: transport, status, payload.
	ErrUpstream = errors.New("LLM request failed")
)

// Client sends a single chat completion. Implementations never retry.
type Client interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// Request is a system + user message pair.
type Request struct {
	System      string
	User        string
	Model       string
	Temperature float64
}

// Completion is the text answer of the model.
type Completion struct {
	Text     string
	Provider string
	Model    string
	Usage    Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// PlaceholderClient stands in when no provider is configured.
type PlaceholderClient struct {
	Reason string
}

// Complete returns ErrNotConfigured.
func (p PlaceholderClient) Complete(ctx context.Context, req Request) (Completion, error) {
	_ = ctx
	_ = req
	if p.Reason != "" {
		return Completion{}, errors.Join(ErrNotConfigured, errors.New(p.Reason))
	}
	return Completion{}, ErrNotConfigured
}

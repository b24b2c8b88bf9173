package gemini

import (
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"ifs-actionplan/internal/llm"
)

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Options{}); !errors.Is(err, llm.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	c, err := NewClient(Options{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.model != DefaultModel {
		t.Fatalf("expected default model, got %q", c.model)
	}
}

func TestModelFor(t *testing.T) {
	c, _ := NewClient(Options{APIKey: "k", Model: "gemini-1.5-pro"})
	if got := c.ModelFor("meta-llama/llama-4-maverick-17b-128e-instruct"); got != "gemini-1.5-pro" {
		t.Fatalf("non-gemini model should fall back, got %q", got)
	}
	if got := c.ModelFor("gemini-2.0-flash"); got != "gemini-2.0-flash" {
		t.Fatalf("gemini model should be honoured, got %q", got)
	}
}

func TestFirstTextAndUsage(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Correction immédiate"), genai.Text(" : isoler")}}},
		},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 4, TotalTokenCount: 14},
	}
	if got := firstText(resp); got != "Correction immédiate : isoler" {
		t.Fatalf("unexpected text %q", got)
	}
	if u := usageOf(resp); u.TotalTokens != 14 || u.CompletionTokens != 4 {
		t.Fatalf("unexpected usage %+v", u)
	}
	if firstText(nil) != "" {
		t.Fatalf("nil response should yield empty text")
	}
}

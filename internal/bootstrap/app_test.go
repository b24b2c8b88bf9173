package bootstrap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"ifs-actionplan/internal/llm/gemini"
	"ifs-actionplan/internal/profile"
	"ifs-actionplan/internal/shared/config"
	"ifs-actionplan/internal/shared/telemetry"
)

func quiet(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Cleanup(telemetry.SetOutput(io.Discard))
}

func TestBuildDefaultsToMemory(t *testing.T) {
	quiet(t)
	app, err := Build(config.Config{LocalStoreDir: t.TempDir(), LLMProvider: "none"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.DB != nil || app.Router == nil || app.PlansRepo == nil {
		t.Fatalf("unexpected app: %+v", app)
	}
	if app.Profile.Name != profile.Default().Name {
		t.Fatalf("expected default profile, got %s", app.Profile.Name)
	}
	if got := app.Health.Provider; got != "none" {
		t.Fatalf("expected provider none, got %s", got)
	}
}

func TestBuildModelOverride(t *testing.T) {
	quiet(t)
	app, err := Build(config.Config{LocalStoreDir: t.TempDir(), LLMProvider: "none", LLMModel: "llama-3.3-70b-versatile"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.Health.Model != "llama-3.3-70b-versatile" {
		t.Fatalf("expected model override, got %s", app.Health.Model)
	}
}

func TestBuildReportsGeminiFallbackModel(t *testing.T) {
	quiet(t)
	tests := []struct {
		name     string
		llmModel string
		want     string
	}{
		{name: "profile model is not gemini", want: gemini.DefaultModel},
		{name: "llama override", llmModel: "llama-3.3-70b-versatile", want: gemini.DefaultModel},
		{name: "gemini override", llmModel: "gemini-2.0-flash", want: "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := Build(config.Config{
				LocalStoreDir: t.TempDir(),
				LLMProvider:   "gemini",
				LLMAPIKey:     "test-key",
				LLMModel:      tt.llmModel,
			})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if app.Health.Provider != gemini.Provider {
				t.Fatalf("expected gemini provider, got %s", app.Health.Provider)
			}
			if app.Health.Model != tt.want {
				t.Fatalf("expected model %s, got %s", tt.want, app.Health.Model)
			}
		})
	}
}

func TestBuildRejects(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	badProfile := filepath.Join(dir, "profile.yaml")
	if err := os.WriteFile(badProfile, []byte("header_row: [oops"), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	tests := []struct {
		name string
		cfg  config.Config
	}{
		{name: "s3 without bucket", cfg: config.Config{ObjectStoreType: "s3"}},
		{name: "production without database", cfg: config.Config{Env: "production", LocalStoreDir: dir}},
		{name: "unreadable profile", cfg: config.Config{LocalStoreDir: dir, ProfilePath: badProfile}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.cfg); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

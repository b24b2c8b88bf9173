package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"LLM_PROVIDER", "LLM_API_KEY", "GROQ_API_KEY", "GUIDE_URL", "MAX_UPLOAD_MB", "LLM_TIMEOUT_SECONDS", "ENV"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.LLMProvider != "groq" {
		t.Fatalf("expected groq provider, got %q", cfg.LLMProvider)
	}
	if cfg.GuideURL != DefaultGuideURL {
		t.Fatalf("unexpected guide url %q", cfg.GuideURL)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("unexpected max upload %d", cfg.MaxUploadBytes)
	}
	if cfg.LLMTimeout != 120*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.LLMTimeout)
	}
	if cfg.Env != "dev" {
		t.Fatalf("unexpected env %q", cfg.Env)
	}
}

func TestLoadResolvesProviderKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GROQ_API_KEY", "gsk-groq")

	cfg := Load()
	if cfg.LLMProvider != "openai" {
		t.Fatalf("expected openai, got %q", cfg.LLMProvider)
	}
	if cfg.LLMAPIKey != "sk-openai" {
		t.Fatalf("expected openai key, got %q", cfg.LLMAPIKey)
	}

	t.Setenv("LLM_API_KEY", "override")
	if got := Load().LLMAPIKey; got != "override" {
		t.Fatalf("expected LLM_API_KEY to win, got %q", got)
	}
}

func TestLoadEnvFilesKeepsProcessEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nexport GUIDE_PATH=\"/tmp/guide.csv\"\nPORT=9999\nbroken line\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("PORT", "7000")
	t.Setenv("GUIDE_PATH", "")
	os.Unsetenv("GUIDE_PATH")

	loadEnvFiles(path)

	if got := os.Getenv("PORT"); got != "7000" {
		t.Fatalf("expected process env to win, got %q", got)
	}
	if got := os.Getenv("GUIDE_PATH"); got != "/tmp/guide.csv" {
		t.Fatalf("expected GUIDE_PATH from file, got %q", got)
	}
}

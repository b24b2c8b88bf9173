package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultGuideURL = "https://raw.githubusercontent.com/M00N69/Action-planGroq/main/Guide%20Checklist_IFS%20Food%20V%208%20-%20CHECKLIST.csv"

	defaultMaxUploadMB = 10
	defaultLLMTimeout  = 120 * time.Second
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	S3Endpoint      string
	LLMProvider     string
	LLMModel        string
	LLMBaseURL      string
	LLMAPIKey       string
	LLMTimeout      time.Duration
	GuideURL        string
	GuidePath       string
	ProfilePath     string
	MaxUploadBytes  int64
	DatabaseURL     string
	Env             string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	provider := normalizeProvider(getEnv("LLM_PROVIDER", "groq"))

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		LLMProvider:     provider,
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMBaseURL:      getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:       apiKeyFor(provider),
		LLMTimeout:      secondsEnv("LLM_TIMEOUT_SECONDS", defaultLLMTimeout),
		GuideURL:        getEnv("GUIDE_URL", DefaultGuideURL),
		GuidePath:       getEnv("GUIDE_PATH", ""),
		ProfilePath:     getEnv("PROFILE_PATH", ""),
		MaxUploadBytes:  int64(intEnv("MAX_UPLOAD_MB", defaultMaxUploadMB)) << 20,
		DatabaseURL:     dbURL,
		Env:             env,
	}
}

// apiKeyFor resolves the bearer credential for a provider. LLM_API_KEY wins over
// the provider-specific variable.
func apiKeyFor(provider string) string {
	if key := strings.TrimSpace(os.Getenv("LLM_API_KEY")); key != "" {
		return key
	}
	switch provider {
	case "groq":
		return strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	case "openai":
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case "gemini":
		return strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	default:
		return ""
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func intEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	return val
}

func secondsEnv(key string, def time.Duration) time.Duration {
	secs := intEnv(key, 0)
	if secs <= 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "gemini", "google":
		return "gemini"
	case "none", "off", "disabled":
		return "none"
	default:
		return "groq"
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth for /api routes. Empty disables the check.
	APIKey string

	// Text generation
	LLMProvider     string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	AnthropicModel  string
	LLMTimeout      time.Duration

	// Upload limits
	MaxUploadBytes int64

	// Reference extraction
	PDFMaxPages          int
	PDFFallbackPdftotext bool
	ExcerptMaxChars      int

	// Layout
	LayoutMode         string
	LayoutMeasure      string
	LayoutMaxWidth     float64
	LayoutWordLimit    float64
	LayoutLineHeight   float64
	LayoutOptionIndent float64
	HeadingKeywords    []string
	OptionPattern      string

	// Rendering
	FontPath string
	FontSize float64

	// Generated documents
	SessionTTL time.Duration
}

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// LoadDotEnv reads a .env file into the environment if one exists. Variables
// already set are left alone.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("QUIZPRESS_API_KEY"),

		LLMProvider:     strings.ToLower(envOr("LLM_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		LLMTimeout:      envDuration("LLM_TIMEOUT", 120*time.Second),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 20971520), // 20MB

		PDFMaxPages:          envInt("PDF_MAX_PAGES", 15),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
		ExcerptMaxChars:      envInt("EXCERPT_MAX_CHARS", 3000),

		LayoutMode:         envOr("LAYOUT_MODE", "simple"),
		LayoutMeasure:      strings.ToLower(envOr("LAYOUT_MEASURE", "chars")),
		LayoutMaxWidth:     envFloat("LAYOUT_MAX_WIDTH", 55),
		LayoutWordLimit:    envFloat("LAYOUT_WORD_LIMIT", 50),
		LayoutLineHeight:   envFloat("LAYOUT_LINE_HEIGHT", 8),
		LayoutOptionIndent: envFloat("LAYOUT_OPTION_INDENT", 4),
		HeadingKeywords:    envList("HEADING_KEYWORDS"),
		OptionPattern:      os.Getenv("OPTION_PATTERN"),

		FontPath: os.Getenv("FONT_PATH"),
		FontSize: envFloat("FONT_SIZE", 11),

		SessionTTL: envDuration("SESSION_TTL", 1*time.Hour),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20971520
	}
	if cfg.PDFMaxPages <= 0 {
		cfg.PDFMaxPages = 15
	}
	if cfg.ExcerptMaxChars <= 0 {
		cfg.ExcerptMaxChars = 3000
	}
	if cfg.LayoutMaxWidth <= 0 {
		cfg.LayoutMaxWidth = 55
	}
	if cfg.LayoutWordLimit <= 0 {
		cfg.LayoutWordLimit = 50
	}
	if cfg.LayoutLineHeight <= 0 {
		cfg.LayoutLineHeight = 8
	}
	if cfg.LayoutOptionIndent < 0 {
		cfg.LayoutOptionIndent = 4
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = 11
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 120 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks settings that cannot be defaulted. A missing LLM key is not
// an error here: users may supply their own key with each request.
func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderAnthropic, c.LLMProvider)
	}
	switch c.LayoutMeasure {
	case "chars", "rendered":
	default:
		return fmt.Errorf("LAYOUT_MEASURE must be \"chars\" or \"rendered\", got %q", c.LayoutMeasure)
	}
	if c.LayoutWordLimit > c.LayoutMaxWidth {
		return fmt.Errorf("LAYOUT_WORD_LIMIT (%v) must not exceed LAYOUT_MAX_WIDTH (%v)", c.LayoutWordLimit, c.LayoutMaxWidth)
	}
	return nil
}

// ServerAPIKey returns the configured key for the selected provider.
func (c Config) ServerAPIKey() string {
	if c.LLMProvider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

// Model returns the configured model for the selected provider.
func (c Config) Model() string {
	if c.LLMProvider == ProviderAnthropic {
		return c.AnthropicModel
	}
	return c.OpenAIModel
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

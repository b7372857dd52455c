package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/quizpress/internal/layout"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LAYOUT_MAX_WIDTH", "")
	t.Setenv("PDF_MAX_PAGES", "")

	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected default port 8090, got %q", cfg.Port)
	}
	if cfg.LLMProvider != ProviderOpenAI {
		t.Errorf("expected default provider %q, got %q", ProviderOpenAI, cfg.LLMProvider)
	}
	if cfg.PDFMaxPages != 15 {
		t.Errorf("expected 15 pages, got %d", cfg.PDFMaxPages)
	}
	if cfg.LayoutMaxWidth != 55 {
		t.Errorf("expected max width 55, got %v", cfg.LayoutMaxWidth)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected 1h session ttl, got %v", cfg.SessionTTL)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PDF_MAX_PAGES", "-3")
	t.Setenv("LAYOUT_LINE_HEIGHT", "abc")
	t.Setenv("SESSION_TTL", "0s")

	cfg := Load()
	if cfg.PDFMaxPages != 15 {
		t.Errorf("expected clamped pages 15, got %d", cfg.PDFMaxPages)
	}
	if cfg.LayoutLineHeight != 8 {
		t.Errorf("expected default line height 8, got %v", cfg.LayoutLineHeight)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected default session ttl, got %v", cfg.SessionTTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"anthropic", func(c *Config) { c.LLMProvider = ProviderAnthropic }, false},
		{"unknown provider", func(c *Config) { c.LLMProvider = "cohere" }, true},
		{"unknown measure", func(c *Config) { c.LayoutMeasure = "pixels" }, true},
		{"word limit above width", func(c *Config) { c.LayoutWordLimit = 90 }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("LLM_PROVIDER", "")
			cfg := Load()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("expected error=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestServerAPIKeyFollowsProvider(t *testing.T) {
	cfg := Config{LLMProvider: ProviderOpenAI, OpenAIAPIKey: "sk-o", AnthropicAPIKey: "sk-a",
		OpenAIModel: "gpt", AnthropicModel: "claude"}
	if cfg.ServerAPIKey() != "sk-o" || cfg.Model() != "gpt" {
		t.Errorf("expected openai key and model, got %q %q", cfg.ServerAPIKey(), cfg.Model())
	}
	cfg.LLMProvider = ProviderAnthropic
	if cfg.ServerAPIKey() != "sk-a" || cfg.Model() != "claude" {
		t.Errorf("expected anthropic key and model, got %q %q", cfg.ServerAPIKey(), cfg.Model())
	}
}

func TestLayoutConfig(t *testing.T) {
	t.Setenv("LAYOUT_MODE", "words")
	t.Setenv("LAYOUT_MAX_WIDTH", "70")
	t.Setenv("LAYOUT_WORD_LIMIT", "45")
	t.Setenv("HEADING_KEYWORDS", "Algebra, Geometry")
	t.Setenv("OPTION_PATTERN", `^\s*[A-E]\.`)

	lc, err := Load().LayoutConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lc.Mode != layout.ModeWordPreserving {
		t.Errorf("expected word-preserving mode, got %s", lc.Mode)
	}
	if lc.MaxWidth != 70 || lc.WordLimit != 45 {
		t.Errorf("expected widths 70/45, got %v/%v", lc.MaxWidth, lc.WordLimit)
	}
	if lc.PageWidth < lc.MaxWidth+lc.OptionIndent {
		t.Errorf("expected page width to cover max width plus indent, got %v", lc.PageWidth)
	}
	if !lc.HeadingPattern.MatchString("GEOMETRY") || lc.HeadingPattern.MatchString("Mathematics") {
		t.Errorf("expected custom heading keywords only")
	}
	if !lc.OptionPattern.MatchString("E. none") {
		t.Errorf("expected custom option pattern to match")
	}
}

func TestLayoutConfig_BadPattern(t *testing.T) {
	t.Setenv("OPTION_PATTERN", "([")
	if _, err := Load().LayoutConfig(); err == nil {
		t.Fatal("expected error for invalid option pattern")
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("QUIZPRESS_DOTENV_PROBE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QUIZPRESS_DOTENV_PROBE", "")
	os.Unsetenv("QUIZPRESS_DOTENV_PROBE")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("QUIZPRESS_DOTENV_PROBE"); got != "from-file" {
		t.Errorf("expected value from .env file, got %q", got)
	}
}

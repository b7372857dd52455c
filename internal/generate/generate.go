package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ErrMissingCredential is returned when no API key is available for the
// selected provider.
var ErrMissingCredential = errors.New("missing API key for text generation")

// Generator sends one prompt to a hosted model and returns its text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// NewGenerator builds the client for a provider. An empty key yields
// ErrMissingCredential so callers can report it before any network call.
func NewGenerator(provider, apiKey, model string, opts ...Option) (Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}
	o := options{timeout: 120 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	switch strings.ToLower(provider) {
	case ProviderOpenAI, "":
		return NewOpenAIClient(apiKey, model, o.baseURL, o.timeout), nil
	case ProviderAnthropic:
		c := NewClaudeClient(apiKey, model, o.timeout)
		if o.baseURL != "" {
			c.baseURL = strings.TrimRight(o.baseURL, "/")
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

type options struct {
	baseURL string
	timeout time.Duration
}

// Option configures NewGenerator.
type Option func(*options)

// WithBaseURL points the client at a compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithTimeout bounds a single generation call.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// APIError is a non-success response from the generation service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("generation api error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsAuth reports whether the provider rejected the credential.
func (e *APIError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsAuthError reports whether err carries a rejected-credential response.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsAuth()
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:[a-zA-Z]+)?\\s*(.*?)\\s*```$")

// cleanOutput trims whitespace and unwraps a reply fenced as a single code block.
func cleanOutput(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/quizpress/internal/doctree"
	"github.com/dgallion1/quizpress/internal/excerpt"
	"github.com/dgallion1/quizpress/internal/generate"
	"github.com/dgallion1/quizpress/internal/layout"
	"github.com/dgallion1/quizpress/internal/parser"
	"github.com/dgallion1/quizpress/internal/render"
	"github.com/dgallion1/quizpress/internal/session"
)

// InputError is a problem with what the user submitted, as opposed to a
// failure of the generation service or the renderer.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Input is one user action: a reference upload plus generation parameters.
type Input struct {
	Topic string
	Count int
	// APIKey overrides the server's credential when set.
	APIKey   string
	Filename string
	Data     []byte
}

// Config carries the settings the service needs from the environment.
type Config struct {
	Provider     string
	ServerAPIKey string
	Model        string
	BaseURL      string
	Timeout      time.Duration
	Parser       parser.Options
	Excerpt      excerpt.Config
}

// GeneratorFactory builds a Generator for a credential.
type GeneratorFactory func(apiKey string) (generate.Generator, error)

// Service runs one synchronous generation cycle per call.
type Service struct {
	cfg          Config
	store        *session.Store
	stats        *generate.LLMStats
	renderer     *render.PDFRenderer
	textEngine   *layout.Engine
	newGenerator GeneratorFactory
	log          *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithGeneratorFactory replaces the provider-backed generator.
func WithGeneratorFactory(f GeneratorFactory) Option {
	return func(s *Service) { s.newGenerator = f }
}

func NewService(cfg Config, renderer *render.PDFRenderer, textEngine *layout.Engine, store *session.Store, stats *generate.LLMStats, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		cfg:        cfg,
		store:      store,
		stats:      stats,
		renderer:   renderer,
		textEngine: textEngine,
		log:        log,
	}
	s.newGenerator = func(apiKey string) (generate.Generator, error) {
		var gopts []generate.Option
		if cfg.BaseURL != "" {
			gopts = append(gopts, generate.WithBaseURL(cfg.BaseURL))
		}
		gopts = append(gopts, generate.WithTimeout(cfg.Timeout))
		return generate.NewGenerator(cfg.Provider, apiKey, cfg.Model, gopts...)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run validates the input, extracts a reference excerpt, calls the model once
// and renders the reply. The returned document is stored even when a later
// phase fails, so its state can be inspected; it is nil only when the input
// or credential was rejected up front.
func (s *Service) Run(ctx context.Context, in Input) (*session.Document, error) {
	req := generate.Request{Topic: strings.TrimSpace(in.Topic), Count: in.Count}
	if err := generate.ValidateRequest(req); err != nil {
		var ve *generate.ValidationError
		if errors.As(err, &ve) {
			return nil, &InputError{Field: ve.Field, Err: errors.New(ve.Reason)}
		}
		return nil, &InputError{Err: err}
	}

	apiKey := strings.TrimSpace(in.APIKey)
	if apiKey == "" {
		apiKey = s.cfg.ServerAPIKey
	}
	gen, err := s.newGenerator(apiKey)
	if err != nil {
		return nil, err
	}

	var tree *doctree.DocTree
	if len(in.Data) > 0 {
		tree, err = s.parse(in.Filename, in.Data)
		if err != nil {
			return nil, err
		}
	}

	doc := session.NewDocument(req.Topic, req.Count)
	doc.SetModel(gen.Model())
	s.store.Put(doc)
	log := s.log.With("doc_id", doc.ID, "topic", req.Topic, "count", req.Count)

	doc.SetStatus(session.StatusExtracting, "building reference excerpt")
	src := session.Source{Filename: in.Filename}
	if tree != nil {
		ex := excerpt.Build(tree, s.cfg.Excerpt)
		req.Excerpt = ex.Text
		src.ContentHash = session.ContentHashHex(in.Data)
		src.ExcerptChars = utf8.RuneCountInString(ex.Text)
		src.Truncated = ex.Truncated
		src.Pages = ex.Pages
		if ex.Text == "" {
			log.Warn("reference has no extractable text", "filename", in.Filename)
		}
		log.Info("reference excerpt built", "chars", src.ExcerptChars, "est_tokens", excerpt.EstimateTokens(ex.Text), "truncated", ex.Truncated)
	}
	doc.SetSource(src)

	doc.SetStatus(session.StatusGenerating, "waiting for model")
	prompt := generate.BuildPrompt(req)
	text, err := generate.NewInstrumented(gen, s.stats, log).Generate(ctx, prompt)
	if err != nil {
		doc.Fail(err)
		return doc, fmt.Errorf("generate: %w", err)
	}
	doc.SetText(text)

	doc.SetStatus(session.StatusRendering, "rendering pdf")
	if err := s.render(doc, text); err != nil {
		log.Error("render failed", "error", err)
		doc.Fail(err)
		return doc, fmt.Errorf("render: %w", err)
	}
	log.Info("document ready")
	return doc, nil
}

// Rerender lays out new text for an existing document, e.g. after the user
// edits the generated questions.
func (s *Service) Rerender(docID, text string) (*session.Document, error) {
	doc := s.store.Get(docID)
	if doc == nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(text) == "" {
		return nil, &InputError{Field: "text", Err: errors.New("is required")}
	}
	doc.SetText(text)
	doc.SetStatus(session.StatusRendering, "rendering pdf")
	if err := s.render(doc, text); err != nil {
		doc.Fail(err)
		return doc, fmt.Errorf("render: %w", err)
	}
	return doc, nil
}

// Layout runs the character-unit engine over text without rendering.
func (s *Service) Layout(text string) (layout.Result, layout.Config) {
	return s.textEngine.LayoutText(text), s.textEngine.Config()
}

// Document returns a stored document or nil.
func (s *Service) Document(id string) *session.Document {
	return s.store.Get(id)
}

// Delete drops a document before its TTL.
func (s *Service) Delete(id string) bool {
	if s.store.Get(id) == nil {
		return false
	}
	s.store.Delete(id)
	return true
}

// ErrNotFound is returned for unknown or expired document IDs.
var ErrNotFound = errors.New("document not found")

func (s *Service) render(doc *session.Document, text string) error {
	ld := layout.NewDocument(text)
	res, err := s.renderer.Render(ld)
	if err != nil {
		return err
	}
	doc.SetArtifacts(res.PDF, render.RenderText(s.textEngine, ld), res.Stats)
	return nil
}

func (s *Service) parse(filename string, data []byte) (*doctree.DocTree, error) {
	p, err := parser.ForFile(filename, s.cfg.Parser)
	if err != nil {
		return nil, &InputError{Field: "file", Err: err}
	}
	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, &InputError{Field: "file", Err: fmt.Errorf("parse: %w", err)}
	}
	return tree, nil
}

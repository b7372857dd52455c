package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/quizpress/internal/excerpt"
	"github.com/dgallion1/quizpress/internal/generate"
	"github.com/dgallion1/quizpress/internal/layout"
	"github.com/dgallion1/quizpress/internal/render"
	"github.com/dgallion1/quizpress/internal/session"
)

const reply = "MATHEMATICS\nQ1. Solve x + 1 = 2.\nA) 0\nB) 1\nC) 2\nD) 3\n\nANSWER KEY\nQ1: B"

type fakeGenerator struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func (f *fakeGenerator) Model() string { return "fake-model" }

type fixture struct {
	svc   *Service
	gen   *fakeGenerator
	keys  []string
	store *session.Store
	stats *generate.LLMStats
}

func newFixture(t *testing.T, serverKey string) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := layout.DefaultConfig()
	renderer, err := render.NewPDFRenderer(cfg, render.DefaultOptions(), log)
	if err != nil {
		t.Fatal(err)
	}
	engine, err := layout.New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		gen:   &fakeGenerator{text: reply},
		store: session.NewStore(time.Hour),
		stats: generate.NewLLMStats(time.Hour),
	}
	factory := func(apiKey string) (generate.Generator, error) {
		if apiKey == "" {
			return nil, generate.ErrMissingCredential
		}
		f.keys = append(f.keys, apiKey)
		return f.gen, nil
	}
	f.svc = NewService(Config{ServerAPIKey: serverKey, Excerpt: excerpt.Config{MaxChars: 600}},
		renderer, engine, f.store, f.stats, log, WithGeneratorFactory(factory))
	return f
}

func TestRun_GeneratesAndRenders(t *testing.T) {
	f := newFixture(t, "server-key")
	ref := "Q1. What is 2+2?\nA) 3\nB) 4\n\nQ2. What is 3*3?\nA) 6\nB) 9"

	doc, err := f.svc.Run(context.Background(), Input{
		Topic:    "Algebra",
		Count:    2,
		Filename: "reference.txt",
		Data:     []byte(ref),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := doc.Snapshot()
	if snap.Status != session.StatusReady {
		t.Fatalf("expected ready, got %q (%s)", snap.Status, snap.Error)
	}
	if snap.Model != "fake-model" || snap.Text != reply {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.Source.Filename != "reference.txt" || snap.Source.ExcerptChars == 0 || snap.Source.ContentHash == "" {
		t.Errorf("unexpected source %+v", snap.Source)
	}
	if snap.Render == nil || snap.Render.Placements == 0 {
		t.Errorf("expected render stats, got %+v", snap.Render)
	}

	if len(f.gen.prompts) != 1 {
		t.Fatalf("expected exactly one generation call, got %d", len(f.gen.prompts))
	}
	if !strings.Contains(f.gen.prompts[0], "Q2. What is 3*3?") {
		t.Error("expected reference excerpt in prompt")
	}
	if !strings.Contains(f.gen.prompts[0], "Write exactly 2 new multiple-choice questions about: Algebra") {
		t.Error("expected topic and count in prompt")
	}
	if f.keys[0] != "server-key" {
		t.Errorf("expected server key, got %q", f.keys[0])
	}

	pdf, ok := doc.Artifact(render.FormatPDF)
	if !ok || !strings.HasPrefix(string(pdf), "%PDF-") {
		t.Error("expected a PDF artifact")
	}
	txt, ok := doc.Artifact(render.FormatText)
	if !ok || !strings.Contains(string(txt), "    A) 0\n") {
		t.Errorf("expected indented options in text artifact, got %q", txt)
	}
	if f.store.Get(doc.ID) != doc {
		t.Error("expected document in store")
	}
	if f.stats.Snapshot().Count != 1 {
		t.Error("expected one recorded generation")
	}
}

func TestRun_UserKeyOverridesServerKey(t *testing.T) {
	f := newFixture(t, "server-key")
	if _, err := f.svc.Run(context.Background(), Input{Topic: "Physics", Count: 1, APIKey: " user-key "}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.keys[0] != "user-key" {
		t.Errorf("expected user key, got %q", f.keys[0])
	}
	if !strings.Contains(f.gen.prompts[0], "No reference material") {
		t.Error("expected no-reference prompt without an upload")
	}
}

func TestRun_MissingCredential(t *testing.T) {
	f := newFixture(t, "")
	doc, err := f.svc.Run(context.Background(), Input{Topic: "Physics", Count: 1})
	if !errors.Is(err, generate.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if doc != nil || f.store.Len() != 0 {
		t.Error("expected nothing stored for a missing credential")
	}
	if len(f.gen.prompts) != 0 {
		t.Error("expected no generation call")
	}
}

func TestRun_InputErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"bad count", Input{Topic: "Biology", Count: 11}, "count"},
		{"empty topic", Input{Count: 3}, "topic"},
		{"unsupported file", Input{Topic: "Biology", Count: 3, Filename: "scan.png", Data: []byte{1, 2}}, "file"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, "key")
			_, err := f.svc.Run(context.Background(), tc.in)
			var ie *InputError
			if !errors.As(err, &ie) {
				t.Fatalf("expected *InputError, got %v", err)
			}
			if ie.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, ie.Field)
			}
			if len(f.gen.prompts) != 0 {
				t.Error("expected no generation call")
			}
		})
	}
}

func TestRun_GenerationFailureIsRecorded(t *testing.T) {
	f := newFixture(t, "key")
	f.gen.err = &generate.APIError{StatusCode: 401, Message: "invalid key"}

	doc, err := f.svc.Run(context.Background(), Input{Topic: "Chemistry", Count: 2})
	if !generate.IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if doc == nil {
		t.Fatal("expected the failed document to be returned")
	}
	snap := doc.Snapshot()
	if snap.Status != session.StatusFailed || snap.Phase != "waiting for model" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if len(f.gen.prompts) != 1 {
		t.Errorf("expected a single attempt with no retry, got %d", len(f.gen.prompts))
	}
	if f.stats.Snapshot().Failures != 1 {
		t.Error("expected the failure to be recorded")
	}
}

func TestRun_LongLinesStayWithinWidth(t *testing.T) {
	f := newFixture(t, "key")
	f.gen.text = "PHYSICS\nQ1. " + strings.Repeat("∫", 500) + "\nA) " + strings.Repeat("x", 120)

	doc, err := f.svc.Run(context.Background(), Input{Topic: "Calculus", Count: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	txt, _ := doc.Artifact(render.FormatText)
	for _, line := range strings.Split(string(txt), "\n") {
		if n := len([]rune(line)); n > 59 {
			t.Errorf("line of %d runes exceeds width plus indent: %q", n, line)
		}
	}
}

func TestRerender(t *testing.T) {
	f := newFixture(t, "key")
	doc, err := f.svc.Run(context.Background(), Input{Topic: "Biology", Count: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	edited := "BIOLOGY\nQ1. Edited?\nA) yes\nB) no"
	if _, err := f.svc.Rerender(doc.ID, edited); err != nil {
		t.Fatalf("Rerender: %v", err)
	}
	if doc.Text() != edited {
		t.Errorf("expected edited text, got %q", doc.Text())
	}
	if _, err := f.svc.Rerender("missing", edited); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	var ie *InputError
	if _, err := f.svc.Rerender(doc.ID, "  "); !errors.As(err, &ie) {
		t.Errorf("expected *InputError for empty text, got %v", err)
	}
}

func TestLayout(t *testing.T) {
	f := newFixture(t, "key")
	res, cfg := f.svc.Layout("MATHEMATICS\nQ1. Solve x.\nA) 1\nB) 2\nC) 3\nD) 4\n")
	if cfg.MaxWidth != 55 {
		t.Errorf("expected default width, got %v", cfg.MaxWidth)
	}
	if got := res.Count(layout.KindPlace); got != 6 {
		t.Errorf("expected 6 placements, got %d", got)
	}
}

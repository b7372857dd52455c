package generate

import (
	"context"
	"log/slog"
	"time"
)

// Instrumented records the latency of every call made through a Generator.
type Instrumented struct {
	next  Generator
	stats *LLMStats
	log   *slog.Logger
}

func NewInstrumented(next Generator, stats *LLMStats, log *slog.Logger) *Instrumented {
	if log == nil {
		log = slog.Default()
	}
	return &Instrumented{next: next, stats: stats, log: log}
}

func (g *Instrumented) Model() string { return g.next.Model() }

func (g *Instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := g.next.Generate(ctx, prompt)
	elapsed := time.Since(start)
	if g.stats != nil {
		g.stats.Record(elapsed.Milliseconds(), err != nil)
	}
	if err != nil {
		g.log.Warn("generation failed", "model", g.next.Model(), "duration_ms", elapsed.Milliseconds(), "error", err)
		return "", err
	}
	g.log.Info("generation complete", "model", g.next.Model(), "duration_ms", elapsed.Milliseconds(), "chars", len(text))
	return text, nil
}

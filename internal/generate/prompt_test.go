package generate

import (
	"strings"
	"testing"
)

func TestBuildPrompt_EmbedsRequest(t *testing.T) {
	prompt := BuildPrompt(Request{
		Topic:   "  Logical reasoning ",
		Count:   4,
		Excerpt: "Q1. If all A are B...\nA) yes\nB) no",
	})

	for _, want := range []string{
		"Write exactly 4 new multiple-choice questions about: Logical reasoning\n",
		"Reference questions:\nQ1. If all A are B...",
		"ANSWER KEY",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
	if strings.Contains(prompt, noReference) {
		t.Error("did not expect the no-reference note when an excerpt is given")
	}
}

func TestBuildPrompt_NoExcerpt(t *testing.T) {
	prompt := BuildPrompt(Request{Topic: "Physics", Count: 1, Excerpt: " \n "})
	if !strings.Contains(prompt, noReference) {
		t.Errorf("expected no-reference note, got %q", prompt)
	}
}

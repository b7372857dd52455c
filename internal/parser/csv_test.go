package parser

import (
	"strings"
	"testing"
)

func TestCSVParser_QuestionBank(t *testing.T) {
	input := "Question,Option_A,Option B,Answer\n" +
		"What is 2+2?,3,4,B\n" +
		",,,\n" +
		"Capital of Italy?,Rome,Milan,A\n"
	tree, err := (&CSVParser{}).Parse(strings.NewReader(input), "bank.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "bank" {
		t.Errorf("expected title %q, got %q", "bank", tree.Title)
	}
	want := []string{
		"Q1. What is 2+2?\nA) 3\nB) 4\nAnswer: B",
		"Q2. Capital of Italy?\nA) Rome\nB) Milan\nAnswer: A",
	}
	if len(tree.Children) != len(want) {
		t.Fatalf("expected %d questions, got %d", len(want), len(tree.Children))
	}
	for i, w := range want {
		if tree.Children[i].Text != w {
			t.Errorf("question %d: expected %q, got %q", i, w, tree.Children[i].Text)
		}
	}
}

func TestCSVParser_PlainRows(t *testing.T) {
	tree, err := (&CSVParser{}).Parse(strings.NewReader("topic,score\nalgebra,10\ngeometry,\n"), "scores.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"topic: algebra, score: 10", "topic: geometry"}
	if len(tree.Children) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(tree.Children))
	}
	for i, w := range want {
		if tree.Children[i].Text != w {
			t.Errorf("row %d: expected %q, got %q", i, w, tree.Children[i].Text)
		}
	}
}

func TestCSVParser_HeaderOnly(t *testing.T) {
	tree, err := (&CSVParser{}).Parse(strings.NewReader("question,a,b\n"), "empty.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected no children, got %d", len(tree.Children))
	}
}

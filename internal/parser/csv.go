package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/quizpress/internal/doctree"
)

// CSVParser handles CSV files. A sheet with a question column is read as a
// question bank and each row is rewritten in the numbered-question format the
// generator is asked to produce. Other sheets become one node per row of
// "header: value" pairs.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	if len(records) < 2 {
		return tree, nil
	}

	headers := records[0]
	bank := questionColumns(headers)
	n := 0
	for _, row := range records[1:] {
		var text string
		if bank.question >= 0 {
			if cell(row, bank.question) == "" {
				continue
			}
			n++
			text = bank.format(n, row)
		} else {
			text = rowText(headers, row)
		}
		if text == "" {
			continue
		}
		tree.Children = append(tree.Children, &doctree.DocNode{Text: text})
	}
	return tree, nil
}

// bankColumns holds column indexes of a question bank; -1 means absent.
type bankColumns struct {
	question int
	answer   int
	options  []int // indexed by option letter, A first
}

const optionLetters = "ABCDE"

func questionColumns(headers []string) bankColumns {
	cols := bankColumns{question: -1, answer: -1, options: make([]int, len(optionLetters))}
	for i := range cols.options {
		cols.options[i] = -1
	}
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		switch key {
		case "question", "q", "prompt", "stem":
			cols.question = i
			continue
		case "answer", "correct", "correct answer", "key", "solution":
			cols.answer = i
			continue
		}
		key = strings.NewReplacer("option", "", "choice", "", "_", "", " ", "", ")", "", ".", "").Replace(key)
		if len(key) == 1 {
			if idx := strings.IndexByte(optionLetters, strings.ToUpper(key)[0]); idx >= 0 {
				cols.options[idx] = i
			}
		}
	}
	return cols
}

func (c bankColumns) format(n int, row []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Q%d. %s", n, cell(row, c.question))
	for i, col := range c.options {
		if v := cell(row, col); v != "" {
			fmt.Fprintf(&sb, "\n%c) %s", optionLetters[i], v)
		}
	}
	if v := cell(row, c.answer); v != "" {
		sb.WriteString("\nAnswer: " + v)
	}
	return sb.String()
}

func rowText(headers, row []string) string {
	var parts []string
	for j, v := range row {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if h := cell(headers, j); h != "" {
			parts = append(parts, h+": "+v)
		} else {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

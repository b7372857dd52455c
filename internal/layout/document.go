package layout

import (
	"strings"
	"unicode"
)

// Document is an immutable ordered sequence of generated text lines.
type Document struct {
	lines []string
}

// NewDocument splits text on explicit newlines. A single trailing newline does
// not produce an extra blank line.
func NewDocument(text string) *Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if text == "" {
		return &Document{}
	}
	text = strings.TrimSuffix(text, "\n")
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = cleanLine(l)
	}
	return &Document{lines: lines}
}

// DocumentFromLines builds a Document from already split lines.
func DocumentFromLines(lines []string) *Document {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = cleanLine(l)
	}
	return &Document{lines: out}
}

// Lines returns a copy of the document lines.
func (d *Document) Lines() []string {
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// Len returns the number of lines.
func (d *Document) Len() int {
	return len(d.lines)
}

// Text joins the lines back with newlines.
func (d *Document) Text() string {
	return strings.Join(d.lines, "\n")
}

// Map returns a new Document with fn applied to every line.
func (d *Document) Map(fn func(string) string) *Document {
	out := make([]string, len(d.lines))
	for i, l := range d.lines {
		out[i] = cleanLine(fn(l))
	}
	return &Document{lines: out}
}

func cleanLine(line string) string {
	line = strings.ReplaceAll(line, "\t", "    ")
	return strings.Map(func(r rune) rune {
		if r == '\n' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, line)
}

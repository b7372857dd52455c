package excerpt

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/quizpress/internal/doctree"
)

const (
	DefaultMaxChars = 3000
	MinChars        = 500
	MaxChars        = 8000
)

// Config controls how much reference text goes into a prompt.
type Config struct {
	MaxChars  int    // Upper bound in runes, clamped to [MinChars, MaxChars].
	Separator string // Placed between paragraphs. Defaults to a blank line.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxChars: DefaultMaxChars, Separator: "\n\n"}
}

// Excerpt is the bounded slice of reference text embedded in a prompt.
type Excerpt struct {
	Text      string
	Truncated bool     // True if some source text did not fit.
	Pages     []int    // Source pages that contributed, in order.
	Sections  []string // Heading paths that contributed, e.g. "Biology > Cells".
}

// Build walks a DocTree in reading order and collects whole paragraphs until
// the character budget is spent. The paragraph that overflows is filled
// sentence by sentence; if nothing has been collected yet, the first sentence
// is cut at a rune boundary so the excerpt is never empty for non-empty input.
func Build(tree *doctree.DocTree, cfg Config) Excerpt {
	cfg = cfg.withDefaults()
	b := &builder{max: cfg.MaxChars, sep: cfg.Separator, seenPage: map[int]bool{}}
	if tree == nil {
		return Excerpt{}
	}
	for _, child := range tree.Children {
		if !b.walk(child, nil) {
			break
		}
	}
	return Excerpt{
		Text:      b.buf.String(),
		Truncated: b.truncated,
		Pages:     b.pages,
		Sections:  b.sections,
	}
}

// FromText builds an excerpt from plain text with no structure.
func FromText(text string, cfg Config) Excerpt {
	return Build(&doctree.DocTree{Children: []*doctree.DocNode{{Text: text}}}, cfg)
}

func (c Config) withDefaults() Config {
	if c.MaxChars <= 0 {
		c.MaxChars = DefaultMaxChars
	}
	if c.MaxChars < MinChars {
		c.MaxChars = MinChars
	}
	if c.MaxChars > MaxChars {
		c.MaxChars = MaxChars
	}
	if c.Separator == "" {
		c.Separator = "\n\n"
	}
	return c
}

type builder struct {
	max int
	sep string

	buf       strings.Builder
	n         int
	truncated bool

	pages    []int
	seenPage map[int]bool
	sections []string
}

// walk returns false once the budget is exhausted.
func (b *builder) walk(node *doctree.DocNode, breadcrumb []string) bool {
	var bc []string
	bc = append(bc, breadcrumb...)
	if node.Title != "" {
		bc = append(bc, node.Title)
	}

	if strings.TrimSpace(node.Text) != "" {
		before := b.n
		ok := b.addText(node.Text)
		if b.n > before {
			b.record(node.Page, bc)
		}
		if !ok {
			return false
		}
	}

	for _, child := range node.Children {
		if !b.walk(child, bc) {
			return false
		}
	}
	return true
}

func (b *builder) addText(text string) bool {
	for _, para := range splitByParagraphs(text) {
		if b.add(para, b.sep) {
			continue
		}
		b.truncated = true
		b.addSentences(para)
		return false
	}
	return true
}

func (b *builder) addSentences(para string) {
	joiner := b.sep
	for _, sent := range splitSentences(para) {
		if !b.add(sent, joiner) {
			if b.n == 0 {
				b.cut(sent)
			}
			return
		}
		joiner = " "
	}
}

// add appends s preceded by joiner if the result stays within budget.
func (b *builder) add(s, joiner string) bool {
	need := utf8.RuneCountInString(s)
	if b.n > 0 {
		need += utf8.RuneCountInString(joiner)
	}
	if b.n+need > b.max {
		return false
	}
	if b.n > 0 {
		b.buf.WriteString(joiner)
	}
	b.buf.WriteString(s)
	b.n += need
	return true
}

func (b *builder) cut(s string) {
	count := 0
	for i := range s {
		if count == b.max {
			s = s[:i]
			break
		}
		count++
	}
	b.buf.WriteString(s)
	b.n += utf8.RuneCountInString(s)
}

func (b *builder) record(page int, bc []string) {
	if page > 0 && !b.seenPage[page] {
		b.seenPage[page] = true
		b.pages = append(b.pages, page)
	}
	if len(bc) > 0 {
		path := strings.Join(bc, " > ")
		if len(b.sections) == 0 || b.sections[len(b.sections)-1] != path {
			b.sections = append(b.sections, path)
		}
	}
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	parts := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

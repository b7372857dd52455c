package layout

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode selects how over-long lines are broken.
type Mode int

const (
	// ModeSimple cuts lines wider than the chunk width into fixed-size pieces,
	// possibly mid-word.
	ModeSimple Mode = iota
	// ModeWordPreserving packs whole words and only force-breaks words at or
	// above the per-word limit.
	ModeWordPreserving
)

func (m Mode) String() string {
	switch m {
	case ModeSimple:
		return "simple"
	case ModeWordPreserving:
		return "words"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode accepts "simple" or "words".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simple", "chunk", "chunks":
		return ModeSimple, nil
	case "words", "word", "word-preserving", "wrap":
		return ModeWordPreserving, nil
	}
	return ModeSimple, fmt.Errorf("unknown layout mode: %q", s)
}

// DefaultHeadingKeywords are the section names that get heading style.
var DefaultHeadingKeywords = []string{
	"mathematics",
	"reasoning on texts and data",
	"text comprehension",
	"logical reasoning",
	"biology",
	"chemistry",
	"physics",
	"general knowledge",
	"answers",
	"answer key",
}

// DefaultOptionPattern matches a multiple-choice option marker at line start.
const DefaultOptionPattern = `^\s*[A-Da-d]\)`

// HeadingPattern builds a case-insensitive pattern matching lines that start
// with one of the keywords, optionally preceded by markdown heading or bold
// markers and a "Section N" prefix.
func HeadingPattern(keywords []string) (*regexp.Regexp, error) {
	var alts []string
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		alts = append(alts, regexp.QuoteMeta(k))
	}
	if len(alts) == 0 {
		return nil, fmt.Errorf("no heading keywords")
	}
	expr := `(?i)^\s*(?:#{1,6}\s*)?(?:\*\*)?\s*(?:section\s+\d+\s*[:.\-]?\s*)?(?:` +
		strings.Join(alts, "|") + `)\b`
	return regexp.Compile(expr)
}

// Config holds the tunable layout parameters. Widths are in measurer units,
// heights in page units.
type Config struct {
	Mode Mode

	// MaxWidth is the safe chunk width W.
	MaxWidth float64
	// PageWidth is the printable width of the page.
	PageWidth float64
	// WordLimit is the hard per-word width in word-preserving mode.
	WordLimit          float64
	ContinuationMarker string

	LineHeight      float64
	BlankLineHeight float64
	// PageHeight is the printable page height.
	PageHeight float64

	OptionIndent   float64
	HeadingPattern *regexp.Regexp
	OptionPattern  *regexp.Regexp
}

// DefaultConfig returns character-unit defaults.
func DefaultConfig() Config {
	return Config{
		Mode:               ModeSimple,
		MaxWidth:           55,
		PageWidth:          85,
		WordLimit:          50,
		ContinuationMarker: "-",
		LineHeight:         8,
		BlankLineHeight:    8,
		PageHeight:         250,
		OptionIndent:       4,
		HeadingPattern:     defaultHeadingPattern,
		OptionPattern:      regexp.MustCompile(DefaultOptionPattern),
	}
}

var defaultHeadingPattern = func() *regexp.Regexp {
	re, err := HeadingPattern(DefaultHeadingKeywords)
	if err != nil {
		panic(err)
	}
	return re
}()

// Validate checks that the configuration can satisfy the width and height
// invariants for every input.
func (c Config) Validate() error {
	if c.MaxWidth <= 0 {
		return fmt.Errorf("max width must be positive, got %v", c.MaxWidth)
	}
	if c.PageWidth <= 0 {
		return fmt.Errorf("page width must be positive, got %v", c.PageWidth)
	}
	if c.LineHeight <= 0 {
		return fmt.Errorf("line height must be positive, got %v", c.LineHeight)
	}
	if c.BlankLineHeight < 0 {
		return fmt.Errorf("blank line height must not be negative, got %v", c.BlankLineHeight)
	}
	if c.PageHeight <= 0 {
		return fmt.Errorf("page height must be positive, got %v", c.PageHeight)
	}
	if c.LineHeight > c.PageHeight || c.BlankLineHeight > c.PageHeight {
		return fmt.Errorf("line height %v does not fit page height %v", c.LineHeight, c.PageHeight)
	}
	if c.OptionIndent < 0 {
		return fmt.Errorf("option indent must not be negative, got %v", c.OptionIndent)
	}
	if c.PageWidth-c.OptionIndent <= 0 {
		return fmt.Errorf("option indent %v leaves no room on page width %v", c.OptionIndent, c.PageWidth)
	}
	if c.Mode == ModeWordPreserving {
		if c.WordLimit <= 0 {
			return fmt.Errorf("word limit must be positive, got %v", c.WordLimit)
		}
		if c.WordLimit > c.effectiveWidth(c.OptionIndent) {
			return fmt.Errorf("word limit %v exceeds the narrowest line width %v",
				c.WordLimit, c.effectiveWidth(c.OptionIndent))
		}
	}
	return nil
}

// effectiveWidth is the width budget for a line starting at indent.
func (c Config) effectiveWidth(indent float64) float64 {
	return min(c.MaxWidth, c.PageWidth-indent)
}

func (c Config) withDefaults() Config {
	if c.BlankLineHeight == 0 {
		c.BlankLineHeight = c.LineHeight
	}
	if c.ContinuationMarker == "" {
		c.ContinuationMarker = "-"
	}
	return c
}

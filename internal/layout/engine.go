package layout

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Measurer reports the rendered width of a string. Implementations must be
// additive: Width(a+b) == Width(a)+Width(b).
type Measurer interface {
	Width(s string) float64
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(string) float64

func (f MeasureFunc) Width(s string) float64 { return f(s) }

// RuneCounter measures in character units.
type RuneCounter struct{}

func (RuneCounter) Width(s string) float64 { return float64(utf8.RuneCountInString(s)) }

// Style is the placement style of a line.
type Style int

const (
	StyleNormal Style = iota
	StyleHeading
	StyleOption
)

func (s Style) String() string {
	switch s {
	case StyleHeading:
		return "heading"
	case StyleOption:
		return "option"
	}
	return "normal"
}

func (s Style) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Kind is the type of a placement instruction.
type Kind int

const (
	KindPlace Kind = iota
	KindAdvance
	KindPageBreak
)

func (k Kind) String() string {
	switch k {
	case KindAdvance:
		return "advance"
	case KindPageBreak:
		return "page_break"
	}
	return "place"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Instruction is one placement command. For KindPlace, Width <= Limit holds.
type Instruction struct {
	Kind   Kind    `json:"kind"`
	Text   string  `json:"text,omitempty"`
	Style  Style   `json:"style"`
	Indent float64 `json:"indent,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Limit  float64 `json:"limit,omitempty"`
	Page   int     `json:"page"`
	Y      float64 `json:"y"`
	Height float64 `json:"height,omitempty"`
}

// State is the engine's pagination state.
type State int

const (
	WithinPage State = iota
	PageBreakPending
)

// Cursor tracks the current position during layout.
type Cursor struct {
	Page   int
	Offset float64
	Width  float64
}

// Result is the finished instruction stream.
type Result struct {
	Instructions []Instruction `json:"instructions"`
	Pages        int           `json:"pages"`
	// Dropped counts runes that could not fit any line on their own.
	Dropped int `json:"dropped,omitempty"`
}

// Count returns the number of instructions of the given kind.
func (r Result) Count(k Kind) int {
	n := 0
	for _, in := range r.Instructions {
		if in.Kind == k {
			n++
		}
	}
	return n
}

// Placements returns only the KindPlace instructions.
func (r Result) Placements() []Instruction {
	var out []Instruction
	for _, in := range r.Instructions {
		if in.Kind == KindPlace {
			out = append(out, in)
		}
	}
	return out
}

// Engine converts documents into placement instructions. It holds no
// per-run state and is safe for concurrent use.
type Engine struct {
	cfg     Config
	measure Measurer
}

// New validates cfg and returns an Engine. A nil measurer counts runes.
func New(cfg Config, m Measurer) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("layout config: %w", err)
	}
	if m == nil {
		m = RuneCounter{}
	}
	if cfg.Mode == ModeWordPreserving {
		if mw := m.Width(cfg.ContinuationMarker); mw >= cfg.WordLimit {
			return nil, fmt.Errorf("layout config: continuation marker width %v leaves no room under word limit %v",
				mw, cfg.WordLimit)
		}
	}
	return &Engine{cfg: cfg, measure: m}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Classify returns the placement style for a line.
func (e *Engine) Classify(line string) Style {
	if e.cfg.OptionPattern != nil && e.cfg.OptionPattern.MatchString(line) {
		return StyleOption
	}
	if e.cfg.HeadingPattern != nil && e.cfg.HeadingPattern.MatchString(line) {
		return StyleHeading
	}
	return StyleNormal
}

// Layout places every line of doc. It never fails: any string is reduced to
// chunks that fit their line budget.
func (e *Engine) Layout(doc *Document) Result {
	r := &run{e: e, cursor: Cursor{Page: 1, Width: e.cfg.effectiveWidth(0)}}
	if doc != nil {
		for _, line := range doc.lines {
			r.line(line)
		}
	}
	return Result{
		Instructions: r.out,
		Pages:        r.cursor.Page,
		Dropped:      r.dropped,
	}
}

// LayoutText is shorthand for Layout(NewDocument(text)).
func (e *Engine) LayoutText(text string) Result {
	return e.Layout(NewDocument(text))
}

type run struct {
	e       *Engine
	cursor  Cursor
	state   State
	out     []Instruction
	dropped int
}

func (r *run) line(line string) {
	if strings.TrimSpace(line) == "" {
		r.blank()
		return
	}

	style := r.e.Classify(line)
	indent := 0.0
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	if style == StyleOption {
		indent = r.e.cfg.OptionIndent
		line = strings.TrimLeftFunc(line, unicode.IsSpace)
	}
	limit := r.e.cfg.effectiveWidth(indent)
	r.cursor.Width = limit

	var chunks []string
	switch r.e.cfg.Mode {
	case ModeWordPreserving:
		chunks = r.wrapWords(line, limit)
	default:
		chunks = r.splitFixed(line, limit)
	}
	for _, c := range chunks {
		r.place(c, style, indent, limit)
	}
}

// ensureRoom starts a new page when advancing by h would pass the printable
// height.
func (r *run) ensureRoom(h float64) {
	if r.cursor.Offset+h > r.e.cfg.PageHeight {
		r.state = PageBreakPending
	}
	if r.state == PageBreakPending {
		r.cursor.Page++
		r.cursor.Offset = 0
		r.out = append(r.out, Instruction{Kind: KindPageBreak, Page: r.cursor.Page})
		r.state = WithinPage
	}
}

func (r *run) blank() {
	h := r.e.cfg.BlankLineHeight
	r.ensureRoom(h)
	r.out = append(r.out, Instruction{
		Kind:   KindAdvance,
		Page:   r.cursor.Page,
		Y:      r.cursor.Offset,
		Height: h,
	})
	r.cursor.Offset += h
}

func (r *run) place(text string, style Style, indent, limit float64) {
	h := r.e.cfg.LineHeight
	r.ensureRoom(h)
	r.out = append(r.out, Instruction{
		Kind:   KindPlace,
		Text:   text,
		Style:  style,
		Indent: indent,
		Width:  r.e.measure.Width(text),
		Limit:  limit,
		Page:   r.cursor.Page,
		Y:      r.cursor.Offset,
		Height: h,
	})
	r.cursor.Offset += h
}

// splitFixed cuts s into consecutive pieces no wider than limit.
func (r *run) splitFixed(s string, limit float64) []string {
	if r.e.measure.Width(s) <= limit {
		return []string{s}
	}
	var out []string
	var cur strings.Builder
	curW := 0.0
	for _, c := range s {
		cw := r.e.measure.Width(string(c))
		if cw > limit {
			r.dropped++
			continue
		}
		if curW+cw > limit {
			out = append(out, cur.String())
			cur.Reset()
			curW = 0
		}
		cur.WriteRune(c)
		curW += cw
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// wrapWords packs whole words into lines no wider than limit. Words at or
// above the word limit are broken with the continuation marker first.
func (r *run) wrapWords(s string, limit float64) []string {
	space := r.e.measure.Width(" ")
	var out []string
	var cur strings.Builder
	curW := 0.0

	add := func(w string, ww float64) {
		if cur.Len() > 0 && curW+space+ww <= limit {
			cur.WriteByte(' ')
			cur.WriteString(w)
			curW += space + ww
			return
		}
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
		cur.WriteString(w)
		curW = ww
	}

	for _, w := range strings.Fields(s) {
		ww := r.e.measure.Width(w)
		if ww < r.e.cfg.WordLimit {
			add(w, ww)
			continue
		}
		// A marked fragment always ends its line.
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curW = 0
		}
		frags := r.breakWord(w)
		for i, frag := range frags {
			if i < len(frags)-1 {
				out = append(out, frag)
				continue
			}
			add(frag, r.e.measure.Width(frag))
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// breakWord splits w into fragments whose width, marker included, stays
// within the word limit. Every fragment but the last carries the marker.
func (r *run) breakWord(w string) []string {
	limit := r.e.cfg.WordLimit
	marker := r.e.cfg.ContinuationMarker
	mw := r.e.measure.Width(marker)

	var out []string
	rest := w
	for rest != "" && r.e.measure.Width(rest) >= limit {
		var frag strings.Builder
		fw := 0.0
		consumed := 0
		for i, c := range rest {
			cw := r.e.measure.Width(string(c))
			if fw+cw+mw > limit {
				consumed = i
				break
			}
			frag.WriteRune(c)
			fw += cw
			consumed = i + utf8.RuneLen(c)
		}
		if frag.Len() == 0 {
			// The next rune cannot fit beside the marker.
			_, size := utf8.DecodeRuneInString(rest)
			rest = rest[size:]
			r.dropped++
			continue
		}
		out = append(out, frag.String()+marker)
		rest = rest[consumed:]
	}
	if rest != "" {
		out = append(out, rest)
	}
	return out
}

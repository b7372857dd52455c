package render

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/go-pdf/fpdf"

	"github.com/dgallion1/quizpress/internal/layout"
)

// Measure selects the unit the layout engine works in.
type Measure string

const (
	// MeasureChars lays out in character units and shrinks the font until a
	// full-width chunk of the widest glyph fits the printable width.
	MeasureChars Measure = "chars"
	// MeasureRendered lays out in millimetres using the font's real metrics.
	MeasureRendered Measure = "rendered"
)

const (
	ptToMM       = 25.4 / 72
	leadingRatio = 1.4
)

// Options configures a PDFRenderer.
type Options struct {
	PageSize string  // fpdf size name, e.g. "A4".
	Margin   float64 // mm on every side.
	FontSize float64 // points; may be reduced in chars mode.
	Measure  Measure
	Font     FontCapability
	Title    string
}

// DefaultOptions returns A4 with 15mm margins and the core font.
func DefaultOptions() Options {
	return Options{
		PageSize: "A4",
		Margin:   15,
		FontSize: 11,
		Measure:  MeasureChars,
		Font:     DefaultFont("no font configured"),
		Title:    "Practice questions",
	}
}

// Stats summarises one rendering.
type Stats struct {
	Pages        int     `json:"pages"`
	Placements   int     `json:"placements"`
	Advances     int     `json:"advances"`
	PageBreaks   int     `json:"page_breaks"`
	Dropped      int     `json:"dropped,omitempty"`
	Measure      string  `json:"measure"`
	FontFamily   string  `json:"font_family"`
	FontSize     float64 `json:"font_size"`
	FontFallback bool    `json:"font_fallback"`
}

// Result is a rendered PDF together with the layout that produced it.
type Result struct {
	PDF    []byte
	Layout layout.Result
	Config layout.Config
	Stats  Stats
}

// PDFRenderer turns a document into a PDF through the layout engine. Every
// string reaches the page through placeCell, which refuses content wider than
// the space left for it.
type PDFRenderer struct {
	cfg  layout.Config
	opts Options
	log  *slog.Logger
}

// NewPDFRenderer takes a character-unit layout configuration. In rendered
// mode widths are converted to millimetres at render time.
func NewPDFRenderer(cfg layout.Config, opts Options, log *slog.Logger) (*PDFRenderer, error) {
	def := DefaultOptions()
	if opts.PageSize == "" {
		opts.PageSize = def.PageSize
	}
	if opts.Margin <= 0 {
		opts.Margin = def.Margin
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.Measure == "" {
		opts.Measure = def.Measure
	}
	if opts.Font.Family == "" {
		opts.Font = def.Font
	}
	if opts.Title == "" {
		opts.Title = def.Title
	}
	switch opts.Measure {
	case MeasureChars, MeasureRendered:
	default:
		return nil, fmt.Errorf("unknown measure %q", opts.Measure)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("layout config: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &PDFRenderer{cfg: cfg, opts: opts, log: log}, nil
}

// page holds the per-render drawing state.
type page struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
	size   float64

	left, top      float64
	printW, printH float64
	xScale, yScale float64
	widths         map[rune]float64
}

// Render lays out doc and draws it. An error means the PDF library failed or
// a placement was refused; no partial output is returned.
func (r *PDFRenderer) Render(doc *layout.Document) (*Result, error) {
	p, err := r.newPage()
	if err != nil {
		return nil, err
	}

	var lc layout.Config
	var m layout.Measurer
	switch r.opts.Measure {
	case MeasureRendered:
		lc, m = r.renderedConfig(p)
	default:
		lc = r.charsConfig(p, doc)
	}

	engine, err := layout.New(lc, m)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	lr := engine.Layout(doc)
	if err := layout.Verify(lr.Instructions, engine.Config()); err != nil {
		return nil, err
	}

	p.pdf.AddPage()
	lineH := lc.LineHeight * p.yScale
	for _, in := range lr.Instructions {
		switch in.Kind {
		case layout.KindPageBreak:
			p.pdf.AddPage()
		case layout.KindPlace:
			p.setStyle(in.Style)
			x := p.left + in.Indent*p.xScale
			y := p.top + in.Y*p.yScale
			if err := p.placeCell(in.Text, x, y, in.Limit*p.xScale, lineH, in.Page); err != nil {
				return nil, err
			}
		}
	}
	if p.pdf.Err() {
		return nil, fmt.Errorf("render pdf: %w", p.pdf.Error())
	}

	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	stats := Stats{
		Pages:        lr.Pages,
		Placements:   lr.Count(layout.KindPlace),
		Advances:     lr.Count(layout.KindAdvance),
		PageBreaks:   lr.Count(layout.KindPageBreak),
		Dropped:      lr.Dropped,
		Measure:      string(r.opts.Measure),
		FontFamily:   p.family,
		FontSize:     p.size,
		FontFallback: p.family == CoreFamily,
	}
	if lr.Dropped > 0 {
		r.log.Warn("layout dropped unplaceable runes", "count", lr.Dropped)
	}
	return &Result{PDF: buf.Bytes(), Layout: lr, Config: engine.Config(), Stats: stats}, nil
}

func (r *PDFRenderer) newPage() (*page, error) {
	pdf := fpdf.New("P", "mm", r.opts.PageSize, "")
	pdf.SetMargins(r.opts.Margin, r.opts.Margin, r.opts.Margin)
	pdf.SetAutoPageBreak(false, r.opts.Margin)
	pdf.SetTitle(r.opts.Title, true)
	pdf.SetCreator("quizpress", true)

	p := &page{pdf: pdf, size: r.opts.FontSize, tr: func(s string) string { return s }, widths: map[rune]float64{}}
	if r.opts.Font.UTF8 && len(r.opts.Font.data) > 0 {
		pdf.AddUTF8FontFromBytes(r.opts.Font.Family, "", r.opts.Font.data)
		pdf.AddUTF8FontFromBytes(r.opts.Font.Family, "B", r.opts.Font.data)
		if pdf.Err() {
			r.log.Warn("embedded font rejected, using core font", "family", r.opts.Font.Family, "error", pdf.Error())
			pdf.ClearError()
		} else {
			p.family = r.opts.Font.Family
		}
	}
	if p.family == "" {
		p.family = CoreFamily
		p.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.SetFont(p.family, "", p.size)
	if pdf.Err() {
		return nil, fmt.Errorf("set font: %w", pdf.Error())
	}

	pw, ph := pdf.GetPageSize()
	left, top, right, bottom := pdf.GetMargins()
	p.left, p.top = left, top
	p.printW, p.printH = pw-left-right, ph-top-bottom
	return p, nil
}

// charsConfig keeps the configured character units. The font size is chosen
// so the widest glyph in doc, repeated across the widest possible line,
// fits the printable width, and a line fits its scaled line height.
func (r *PDFRenderer) charsConfig(p *page, doc *layout.Document) layout.Config {
	lc := r.cfg
	extent := min(lc.MaxWidth+lc.OptionIndent, lc.PageWidth)
	p.yScale = p.printH / lc.PageHeight

	widest := p.widestRune(doc)
	size := r.opts.FontSize
	if extent*widest > p.printW {
		size = size * p.printW / (extent * widest)
	}
	if maxSize := lc.LineHeight * p.yScale / (ptToMM * 1.15); size > maxSize {
		size = maxSize
	}
	p.xScale = widest * size / r.opts.FontSize
	p.size = size
	p.pdf.SetFont(p.family, "", size)
	return lc
}

// renderedConfig converts the character-unit settings into millimetres at the
// configured font size.
func (r *PDFRenderer) renderedConfig(p *page) (layout.Config, layout.Measurer) {
	lc := r.cfg
	digit := p.runeWidth('0')
	lineH := r.opts.FontSize * ptToMM * leadingRatio

	lc.MaxWidth = min(r.cfg.MaxWidth*digit, p.printW)
	lc.PageWidth = p.printW
	lc.OptionIndent = min(r.cfg.OptionIndent*digit, p.printW/2)
	lc.WordLimit = min(r.cfg.WordLimit*digit, min(lc.MaxWidth, lc.PageWidth-lc.OptionIndent))
	lc.LineHeight = lineH
	lc.BlankLineHeight = lineH
	lc.PageHeight = p.printH
	p.xScale, p.yScale = 1, 1

	return lc, layout.MeasureFunc(func(s string) float64 {
		w := 0.0
		for _, c := range s {
			w += p.runeWidth(c)
		}
		return w
	})
}

// runeWidth is the wider of the regular and bold advance of c at the current
// size, so measurements hold for every style.
func (p *page) runeWidth(c rune) float64 {
	if w, ok := p.widths[c]; ok {
		return w
	}
	s := p.tr(string(c))
	p.pdf.SetFont(p.family, "B", p.size)
	w := p.pdf.GetStringWidth(s)
	p.pdf.SetFont(p.family, "", p.size)
	w = max(w, p.pdf.GetStringWidth(s))
	p.widths[c] = w
	return w
}

func (p *page) widestRune(doc *layout.Document) float64 {
	widest := p.runeWidth('W')
	if doc == nil {
		return widest
	}
	for _, line := range doc.Lines() {
		for _, c := range line {
			widest = max(widest, p.runeWidth(c))
		}
	}
	return widest
}

func (p *page) setStyle(s layout.Style) {
	style := ""
	if s == layout.StyleHeading {
		style = "B"
	}
	p.pdf.SetFont(p.family, style, p.size)
}

// placeCell is the only way text reaches the page. It measures the text as it
// will be drawn and returns an overflow error instead of drawing content
// wider than available.
func (p *page) placeCell(text string, x, y, available, h float64, pageNo int) error {
	s := p.tr(text)
	w := p.pdf.GetStringWidth(s)
	if !layout.Fits(w, available) || !layout.Fits(x+w, p.left+p.printW) {
		return &layout.OverflowError{Text: text, Width: w, Available: available, Page: pageNo}
	}
	p.pdf.SetXY(x, y)
	p.pdf.CellFormat(available, h, s, "", 0, "LM", false, 0, "")
	return nil
}

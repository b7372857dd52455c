package config

import (
	"fmt"
	"regexp"

	"github.com/dgallion1/quizpress/internal/layout"
)

// LayoutConfig turns the LAYOUT_* settings into an engine configuration in
// character units. The renderer rescales it when measuring rendered widths.
func (c Config) LayoutConfig() (layout.Config, error) {
	lc := layout.DefaultConfig()

	mode, err := layout.ParseMode(c.LayoutMode)
	if err != nil {
		return lc, err
	}
	lc.Mode = mode
	lc.MaxWidth = c.LayoutMaxWidth
	lc.WordLimit = c.LayoutWordLimit
	lc.LineHeight = c.LayoutLineHeight
	lc.BlankLineHeight = c.LayoutLineHeight
	lc.OptionIndent = c.LayoutOptionIndent
	if lc.PageWidth < lc.MaxWidth+lc.OptionIndent {
		lc.PageWidth = lc.MaxWidth + lc.OptionIndent
	}

	if len(c.HeadingKeywords) > 0 {
		re, err := layout.HeadingPattern(c.HeadingKeywords)
		if err != nil {
			return lc, fmt.Errorf("HEADING_KEYWORDS: %w", err)
		}
		lc.HeadingPattern = re
	}
	if c.OptionPattern != "" {
		re, err := regexp.Compile(c.OptionPattern)
		if err != nil {
			return lc, fmt.Errorf("OPTION_PATTERN: %w", err)
		}
		lc.OptionPattern = re
	}

	if err := lc.Validate(); err != nil {
		return lc, err
	}
	return lc, nil
}

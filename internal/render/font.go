package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang/freetype/truetype"
)

// CoreFamily is the built-in PDF font used when no usable TTF is available.
const CoreFamily = "Helvetica"

// DefaultProbe holds runes a font must cover to be used for question sheets.
const DefaultProbe = "AZaz09.,;:()?!àèéìòù°±×÷πΔ√≤≥"

// FontCapability describes the font a renderer will use.
type FontCapability struct {
	Family string `json:"family"`
	Path   string `json:"path,omitempty"`
	// UTF8 is true for an embedded TrueType font. Core fonts only cover cp1252.
	UTF8     bool   `json:"utf8"`
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`

	data []byte
}

// DefaultFont is the capability used when probing fails.
func DefaultFont(reason string) FontCapability {
	return FontCapability{Family: CoreFamily, Fallback: true, Reason: reason}
}

// ProbeFont loads the TrueType font at path and checks that it has glyphs
// for every rune in probe. Any failure yields DefaultFont with the reason.
func ProbeFont(path, probe string) FontCapability {
	if path == "" {
		return DefaultFont("no font configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultFont(fmt.Sprintf("read font: %v", err))
	}
	font, err := truetype.Parse(data)
	if err != nil {
		return DefaultFont(fmt.Sprintf("parse font: %v", err))
	}
	for _, r := range probe {
		if font.Index(r) == 0 {
			return DefaultFont(fmt.Sprintf("font has no glyph for %q", r))
		}
	}

	family := strings.ReplaceAll(font.Name(truetype.NameIDFontFamily), " ", "")
	if family == "" {
		family = "Embedded"
	}
	return FontCapability{Family: family, Path: path, UTF8: true, data: data}
}

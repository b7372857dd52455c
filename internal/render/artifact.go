package render

import (
	"fmt"
	"strings"
)

// Format is a downloadable artifact type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatText Format = "txt"
)

// ParseFormat accepts "pdf", "txt" or "text". Empty means PDF.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pdf":
		return FormatPDF, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// FileName is the fixed download name for the format.
func (f Format) FileName() string {
	if f == FormatText {
		return "questions.txt"
	}
	return "questions.pdf"
}

// ContentType is the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatText {
		return "text/plain; charset=utf-8"
	}
	return "application/pdf"
}

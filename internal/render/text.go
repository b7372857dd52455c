package render

import (
	"strings"

	"github.com/dgallion1/quizpress/internal/layout"
)

// RenderText lays doc out in character units and returns the plain-text
// artifact. Option indents become spaces and page breaks become form feeds.
func RenderText(engine *layout.Engine, doc *layout.Document) []byte {
	res := engine.Layout(doc)
	var sb strings.Builder
	for _, in := range res.Instructions {
		switch in.Kind {
		case layout.KindPageBreak:
			sb.WriteString("\f")
		case layout.KindAdvance:
			sb.WriteString("\n")
		case layout.KindPlace:
			sb.WriteString(strings.Repeat(" ", int(in.Indent)))
			sb.WriteString(in.Text)
			sb.WriteString("\n")
		}
	}
	return []byte(sb.String())
}

package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/quizpress/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Lists keep one item
// per line so answer options survive extraction.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	b := newSectionBuilder(tree.Title)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			b.heading(node.Level, extractText(node, src))
		case *ast.List:
			b.paragraph(markdownList(node, src))
		default:
			b.paragraph(extractText(n, src))
		}
	}
	tree.Children = b.nodes()
	return tree, nil
}

// extractText returns the text of a block. Leaf blocks such as code use
// their raw lines; everything else is read from its inline children.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(src))
			if c.HardLineBreak() || c.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(c.Value)
		case *ast.List:
			buf.WriteByte('\n')
			buf.WriteString(markdownList(c, src))
		default:
			if c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}

func markdownList(list *ast.List, src []byte) string {
	var lines []string
	num := list.Start
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		t := extractText(item, src)
		if t == "" {
			continue
		}
		if list.IsOrdered() {
			lines = append(lines, fmt.Sprintf("%d%c %s", num, list.Marker, t))
			num++
		} else {
			lines = append(lines, "- "+t)
		}
	}
	return strings.Join(lines, "\n")
}

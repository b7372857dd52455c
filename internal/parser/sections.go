package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/quizpress/internal/doctree"
)

// sectionBuilder nests paragraphs under the most recent heading. Headings
// close every open section at the same or a deeper level.
type sectionBuilder struct {
	root  *doctree.DocNode
	stack []section
	text  strings.Builder
}

type section struct {
	node  *doctree.DocNode
	level int
}

func newSectionBuilder(title string) *sectionBuilder {
	root := &doctree.DocNode{Title: title}
	return &sectionBuilder{root: root, stack: []section{{node: root}}}
}

func (b *sectionBuilder) heading(level int, title string) {
	b.flush()
	node := &doctree.DocNode{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, section{node: node, level: level})
}

func (b *sectionBuilder) paragraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(text)
}

func (b *sectionBuilder) flush() {
	t := strings.TrimSpace(b.text.String())
	b.text.Reset()
	if t == "" {
		return
	}
	top := b.stack[len(b.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}

// nodes returns the top-level sections. Text seen before the first heading
// becomes a leading untitled node; a document without headings is one node.
func (b *sectionBuilder) nodes() []*doctree.DocNode {
	b.flush()
	if b.root.Text == "" {
		return b.root.Children
	}
	lead := &doctree.DocNode{Text: b.root.Text}
	return append([]*doctree.DocNode{lead}, b.root.Children...)
}

func titleFromFilename(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// spool copies r into a temp file for libraries that need random access.
// The file is rewound; the caller closes and removes it.
func spool(r io.Reader, pattern string) (*os.File, int64, error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, 0, fmt.Errorf("create temp file: %w", err)
	}
	size, err := io.Copy(tmp, r)
	if err == nil {
		_, err = tmp.Seek(0, io.SeekStart)
	}
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, 0, fmt.Errorf("write temp file: %w", err)
	}
	return tmp, size, nil
}

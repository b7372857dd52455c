package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/quizpress/internal/doctree"
)

// TextParser handles plain text files. Blank lines separate paragraphs.
// Form feeds, as written by pdftotext, start a new page; page numbers are
// recorded only when the file has more than one page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	page, start := 1, 1
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tree.Children = append(tree.Children, &doctree.DocNode{Text: current.String(), Page: start})
			current.Reset()
		}
	}

	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		for i, part := range strings.Split(line, "\f") {
			if i > 0 {
				flush()
				page++
			}
			if strings.TrimSpace(part) == "" {
				flush()
				continue
			}
			if current.Len() == 0 {
				start = page
			} else {
				current.WriteString("\n")
			}
			current.WriteString(part)
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if page == 1 {
		for _, n := range tree.Children {
			n.Page = 0
		}
	}
	return tree, nil
}

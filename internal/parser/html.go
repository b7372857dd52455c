package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/quizpress/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Headings h1-h6 open sections; navigation,
// scripts and forms are skipped.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	if title := findTitle(doc); title != "" {
		tree.Title = title
	}

	b := newSectionBuilder(tree.Title)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				b.heading(level, textContent(n))
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "aside", "form":
				return
			case "ul", "ol":
				b.paragraph(htmlList(n))
				return
			case "p", "li", "td", "blockquote", "pre":
				b.paragraph(textContent(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	tree.Children = b.nodes()
	return tree, nil
}

// htmlList puts each item on its own line. An <ol type="A"> or type="a"
// list is written as lettered answer options.
func htmlList(list *html.Node) string {
	var letter rune
	if list.Data == "ol" {
		switch attr(list, "type") {
		case "A":
			letter = 'A'
		case "a":
			letter = 'a'
		}
	}
	var lines []string
	i := 0
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		t := textContent(c)
		if t == "" {
			continue
		}
		switch {
		case letter != 0:
			lines = append(lines, fmt.Sprintf("%c) %s", letter+rune(i), t))
		case list.Data == "ol":
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, t))
		default:
			lines = append(lines, "- "+t)
		}
		i++
	}
	return strings.Join(lines, "\n")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

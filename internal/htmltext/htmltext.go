// Package htmltext extracts readable text from HTML markup.
package htmltext

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is the text content of a page.
type Document struct {
	Title string
	Text  string
}

// skipped elements never contribute text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
}

// block elements end a line.
var block = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Article: true, atom.Blockquote: true, atom.Pre: true,
	atom.Table: true, atom.Ul: true, atom.Ol: true, atom.Dd: true, atom.Dt: true,
}

// Parse reads an HTML document and returns its title and body text.
// Block elements become line breaks and blank lines are dropped.
func Parse(r io.Reader) (Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Document{}, err
	}

	var (
		doc   Document
		buf   strings.Builder
		title func(*html.Node)
		walk  func(*html.Node)
	)
	title = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title && n.FirstChild != nil {
			if doc.Title == "" {
				doc.Title = collapse(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			title(c)
		}
	}
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && block[n.DataAtom] {
			buf.WriteByte('\n')
		}
	}
	title(root)
	walk(root)

	doc.Text = tidy(buf.String())
	return doc, nil
}

// Extract returns the body text of an HTML document.
func Extract(r io.Reader) (string, error) {
	doc, err := Parse(r)
	return doc.Text, err
}

// ExtractString is Extract for in-memory markup. Markup that cannot be
// parsed is returned trimmed.
func ExtractString(s string) string {
	text, err := Extract(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return text
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = collapse(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// collapse folds whitespace runs, including the ideographic space, into
// one ASCII space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

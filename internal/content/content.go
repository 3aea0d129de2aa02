// Package content extracts the text of XHTML fragments referenced by
// media overlay text leaves.
package content

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed content document indexed by element id.
type Document struct {
	Title string

	root *html.Node
	ids  map[string]*html.Node
}

// Parse reads an (X)HTML content document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse content document: %w", err)
	}

	doc := &Document{root: root, ids: make(map[string]*html.Node)}
	if title := findElement(root, "title"); title != nil {
		doc.Title = textContent(title)
	}

	var index func(*html.Node)
	index = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := attr(n, "id"); id != "" {
				if _, dup := doc.ids[id]; !dup {
					doc.ids[id] = n
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			index(c)
		}
	}
	index(root)

	return doc, nil
}

// Fragment returns the collapsed text of the element with the given id.
// An empty id selects the body.
func (d *Document) Fragment(id string) (string, bool) {
	if id == "" {
		body := findElement(d.root, "body")
		if body == nil {
			return textContent(d.root), true
		}
		return textContent(body), true
	}
	n, ok := d.ids[id]
	if !ok {
		return "", false
	}
	return textContent(n), true
}

// IDs reports how many elements carry an id.
func (d *Document) IDs() int { return len(d.ids) }

// FragmentText parses r and returns the text of fragment id.
func FragmentText(r io.Reader, id string) (string, error) {
	doc, err := Parse(r)
	if err != nil {
		return "", err
	}
	text, ok := doc.Fragment(id)
	if !ok {
		return "", fmt.Errorf("fragment %q not found", id)
	}
	return text, nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

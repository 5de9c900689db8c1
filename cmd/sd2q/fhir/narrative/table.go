// Package narrative reads the rendered element table embedded in a
// StructureDefinition's text.div and extracts the hyperlinks of each row.
package narrative

import (
	"fmt"
	"strings"

	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/elementpath"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Link is one anchor of a table row.
type Link struct {
	Text string
	Href string
}

// Links holds the anchors of a table row in document order, keyed by anchor text.
type Links []Link

// Href returns the href of the anchor with the given text.
func (l Links) Href(text string) (string, bool) {
	for _, link := range l {
		if link.Text == text {
			return link.Href, true
		}
	}
	return "", false
}

// Hrefs returns every href in document order.
func (l Links) Hrefs() []string {
	hrefs := make([]string, 0, len(l))
	for _, link := range l {
		hrefs = append(hrefs, link.Href)
	}
	return hrefs
}

// set keeps the position of an existing anchor text and overwrites its href.
func (l Links) set(text, href string) Links {
	for i := range l {
		if l[i].Text == text {
			l[i].Href = href
			return l
		}
	}
	return append(l, Link{Text: text, Href: href})
}

// TableElements maps an element short name (its id without the resource root)
// to the links rendered in that element's row.
type TableElements map[string]Links

// ReadTableElements parses the narrative div. The header row and the trailing
// row of the table are not element rows and are skipped.
func ReadTableElements(div string) (TableElements, error) {
	elements := make(TableElements)
	if strings.TrimSpace(div) == "" {
		return elements, nil
	}

	doc, err := html.Parse(strings.NewReader(div))
	if err != nil {
		return nil, fmt.Errorf("failed to parse narrative: %w", err)
	}

	rows := findAll(doc, atom.Tr)
	if len(rows) < 2 {
		return elements, nil
	}

	previous := ""
	for _, row := range rows[1 : len(rows)-1] {
		anchors := findAll(row, atom.A)
		if len(anchors) == 0 {
			continue
		}

		name := strings.TrimSpace(textOf(anchors[0]))
		if name == "" {
			continue
		}
		// Extension rows only show the slice; qualify them with the element they extend.
		if elementpath.IsExtensionName(name) && previous != "" {
			name = previous + "." + name
		}

		links := make(Links, 0, len(anchors))
		for _, a := range anchors {
			text := strings.TrimSpace(textOf(a))
			href, hasHref := attr(a, "href")
			if text != "" || hasHref {
				links = links.set(text, href)
			}
		}

		if !strings.Contains(name, "extension") && !elementpath.IsResourceName(name) {
			previous = name
		}

		if hasElementLink(links) {
			elements[name] = links
		}
	}

	return elements, nil
}

// hasElementLink reports whether any anchor is something other than a type name.
// Rows that only link to datatypes carry no profile reference.
func hasElementLink(links Links) bool {
	for _, link := range links {
		if !elementpath.IsResourceName(link.Text) {
			return true
		}
	}
	return false
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Package testutil holds helpers shared by HTTP-level tests
package testutil

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

// Document is a parsed HTML page queried with simple CSS selectors
type Document struct {
	root *html.Node
}

// ParseHTML parses body or fails the test
func ParseHTML(t testing.TB, body string) *Document {
	t.Helper()
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parsing HTML: %v", err)
	}
	return &Document{root: root}
}

// compound is one step of a selector: tag, #id and .class parts, all optional
type compound struct {
	tag     string
	id      string
	classes []string
}

func parseCompound(s string) compound {
	var c compound
	for s != "" {
		end := strings.IndexAny(s[1:], ".#") + 1
		if end == 0 {
			end = len(s)
		}
		part := s[:end]
		switch part[0] {
		case '#':
			c.id = part[1:]
		case '.':
			c.classes = append(c.classes, part[1:])
		default:
			c.tag = part
		}
		s = s[end:]
	}
	return c
}

func (c compound) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && n.Data != c.tag {
		return false
	}
	if c.id != "" && Attr(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(Attr(n, "class"))
		for _, want := range c.classes {
			found := false
			for _, h := range have {
				if h == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// Select returns the elements matching a descendant selector such as
// "table.results tbody tr td", in document order
func (d *Document) Select(selector string) []*html.Node {
	return SelectFrom(d.root, selector)
}

// SelectFrom applies a descendant selector below n
func SelectFrom(n *html.Node, selector string) []*html.Node {
	var steps []compound
	for _, part := range strings.Fields(selector) {
		steps = append(steps, parseCompound(part))
	}
	if len(steps) == 0 {
		return nil
	}

	current := []*html.Node{n}
	for _, step := range steps {
		seen := make(map[*html.Node]bool)
		var next []*html.Node
		for _, scope := range current {
			walk(scope, func(el *html.Node) {
				if el != scope && step.matches(el) && !seen[el] {
					seen[el] = true
					next = append(next, el)
				}
			})
		}
		current = next
	}
	return current
}

// walk visits n and its descendants in document order
func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// Attr returns an attribute value, or "" when absent
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Text returns the concatenated text below n, trimmed
func Text(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(el *html.Node) {
		if el.Type == html.TextNode {
			sb.WriteString(el.Data)
		}
	})
	return strings.TrimSpace(sb.String())
}

// Children returns the direct element children of n with the given tag
func Children(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
		}
	}
	return out
}

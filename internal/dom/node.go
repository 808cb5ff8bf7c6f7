package dom

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Node is a handle to an element (or the root) inside a Document.
// The zero Node is invalid.
type Node struct {
	doc *Document
	id  int32
}

func (n Node) slot() *node { return &n.doc.nodes[n.id] }

// Valid reports whether n refers to a node.
func (n Node) Valid() bool { return n.doc != nil }

// Document returns the owning document.
func (n Node) Document() *Document { return n.doc }

// Index is the node's position in document order.
func (n Node) Index() int { return int(n.id) }

// IsRoot reports whether n is the document node.
func (n Node) IsRoot() bool { return n.id == 0 }

// Tag returns the lowercase tag name, or RootTag.
func (n Node) Tag() string { return n.slot().tag }

// Attr returns the named attribute value.
func (n Node) Attr(name string) (string, bool) {
	for _, a := range n.slot().attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attrs returns the attributes in source order.
func (n Node) Attrs() []Attr { return n.slot().attrs }

// Text returns the descendant text with runs of whitespace collapsed to
// one space and the ends trimmed. Text on either side of a block-level
// element boundary is separated by a space. Script, style, noscript and
// template contents are skipped.
func (n Node) Text() string {
	var (
		b     strings.Builder
		nodes = n.doc.nodes
		ends  []int32
	)
	for i := n.id + 1; i < nodes[n.id].end; {
		for len(ends) > 0 && ends[len(ends)-1] <= i {
			ends = ends[:len(ends)-1]
			b.WriteByte(' ')
		}
		s := &nodes[i]
		switch {
		case s.kind == elementNode && hiddenText[s.tag]:
			i = s.end
			continue
		case s.kind == elementNode && !inline[s.tag]:
			b.WriteByte(' ')
			ends = append(ends, s.end)
		case s.kind == textNode:
			b.WriteString(s.text)
		}
		i++
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// OwnText is like Text but only reads the element's direct text
// children.
func (n Node) OwnText() string {
	var b strings.Builder
	for _, c := range n.slot().children {
		if s := &n.doc.nodes[c]; s.kind == textNode {
			b.WriteString(s.text)
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Children returns the element children in order.
func (n Node) Children() []Node {
	var out []Node
	for _, c := range n.slot().children {
		if n.doc.nodes[c].kind == elementNode {
			out = append(out, Node{doc: n.doc, id: c})
		}
	}
	return out
}

// Parent returns the parent node; the root has none.
func (n Node) Parent() (Node, bool) {
	p := n.slot().parent
	if p < 0 {
		return Node{}, false
	}
	return Node{doc: n.doc, id: p}, true
}

// HasAncestor reports whether some proper ancestor element has tag.
func (n Node) HasAncestor(tag string) bool {
	for p := n.slot().parent; p >= 0; p = n.doc.nodes[p].parent {
		if n.doc.nodes[p].tag == tag {
			return true
		}
	}
	return false
}

// Contains reports whether other is a strict descendant of n.
func (n Node) Contains(other Node) bool {
	return n.doc == other.doc && n.id < other.id && other.id < n.slot().end
}

// Descendants calls fn for every element strictly below n in document
// order. Returning false stops the walk.
func (n Node) Descendants(fn func(Node) bool) {
	nodes := n.doc.nodes
	for i := n.id + 1; i < nodes[n.id].end; i++ {
		if nodes[i].kind != elementNode {
			continue
		}
		if !fn(Node{doc: n.doc, id: i}) {
			return
		}
	}
}

// Before reports whether n precedes other in document order. Nodes of
// different documents order by document load order.
func (n Node) Before(other Node) bool {
	if n.doc != other.doc {
		return n.doc.seq < other.doc.seq
	}
	return n.id < other.id
}

// HTMLNode returns the parsed node the handle was built from.
func (n Node) HTMLNode() *html.Node { return n.slot().src }

// OuterHTML renders the node and its subtree.
func (n Node) OuterHTML() string {
	if n.IsRoot() {
		return htmlquery.OutputHTML(n.slot().src, false)
	}
	return htmlquery.OutputHTML(n.slot().src, true)
}

func (n Node) String() string {
	if !n.Valid() {
		return "<invalid>"
	}
	return "<" + n.Tag() + ">"
}

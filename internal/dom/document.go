package dom

import (
	"strings"
	"sync/atomic"

	"golang.org/x/net/html"
)

// RootTag is the tag of every document's root node.
const RootTag = "#document"

type kind uint8

const (
	documentNode kind = iota
	elementNode
	textNode
)

// Text inside these elements never contributes to Node.Text.
var hiddenText = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// inline elements flow with the surrounding text; every other element
// separates its text from its neighbours.
var inline = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "cite": true,
	"code": true, "data": true, "dfn": true, "em": true, "font": true, "i": true,
	"kbd": true, "label": true, "mark": true, "q": true, "s": true, "samp": true,
	"small": true, "span": true, "strong": true, "sub": true, "sup": true,
	"time": true, "u": true, "var": true, "wbr": true,
}

// Attr is one attribute of an element.
type Attr struct {
	Name  string
	Value string
}

// node is an arena slot. Slots are stored in document order and the
// subtree of slot i occupies [i, end).
type node struct {
	kind     kind
	tag      string
	attrs    []Attr
	text     string
	parent   int32
	end      int32
	children []int32
	src      *html.Node
}

var docSeq atomic.Uint64

// Document owns every node of one parsed page. It is immutable after
// construction and safe for concurrent reads.
type Document struct {
	URL   string
	seq   uint64
	nodes []node
}

// FromNode copies an html.Node tree into a new Document. root is
// normally an html.DocumentNode.
func FromNode(url string, root *html.Node) *Document {
	d := &Document{URL: url, seq: docSeq.Add(1)}
	d.add(root, -1)
	return d
}

func (d *Document) add(n *html.Node, parent int32) {
	var slot node
	switch n.Type {
	case html.DocumentNode:
		slot = node{kind: documentNode, tag: RootTag}
	case html.ElementNode:
		slot = node{kind: elementNode, tag: strings.ToLower(n.Data), attrs: attrsOf(n)}
	case html.TextNode:
		slot = node{kind: textNode, text: n.Data}
	default:
		return
	}
	slot.parent = parent
	slot.src = n

	id := int32(len(d.nodes))
	d.nodes = append(d.nodes, slot)
	if parent >= 0 {
		d.nodes[parent].children = append(d.nodes[parent].children, id)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.add(c, id)
	}
	d.nodes[id].end = int32(len(d.nodes))
}

func attrsOf(n *html.Node) []Attr {
	if len(n.Attr) == 0 {
		return nil
	}
	attrs := make([]Attr, 0, len(n.Attr))
	seen := make(map[string]bool, len(n.Attr))
	for _, a := range n.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		name = strings.ToLower(name)
		if seen[name] {
			continue
		}
		seen[name] = true
		attrs = append(attrs, Attr{Name: name, Value: a.Val})
	}
	return attrs
}

// Root returns the document node.
func (d *Document) Root() Node { return Node{doc: d, id: 0} }

// Element returns the top-level element, normally <html>, or the root
// when the document has no elements.
func (d *Document) Element() Node {
	for _, c := range d.nodes[0].children {
		if d.nodes[c].kind == elementNode {
			return Node{doc: d, id: c}
		}
	}
	return d.Root()
}

// Len is the number of element nodes, including the root.
func (d *Document) Len() int {
	n := 0
	for i := range d.nodes {
		if d.nodes[i].kind != textNode {
			n++
		}
	}
	return n
}

package xmlpath

import (
	"strings"

	"github.com/beevik/etree"
)

// NodeKind identifies the kind of a selected node.
type NodeKind int

const (
	// DocumentNode is the virtual parent of the root element, the context of
	// absolute paths.
	DocumentNode NodeKind = iota
	// ElementNode is an element.
	ElementNode
	// AttributeNode is an attribute of Element.
	AttributeNode
	// TextNode is a character data child of Element.
	TextNode
)

// String returns the kind name.
func (k NodeKind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case AttributeNode:
		return "attribute"
	case TextNode:
		return "text"
	}
	return "unknown"
}

// Node is a selected location in a tree. For attributes and text nodes, Element
// is the owning element. For the document node, Element is the root element.
type Node struct {
	Kind    NodeKind
	Element *etree.Element
	// AttrKey is the full (possibly prefixed) attribute key for AttributeNode.
	AttrKey string
	// Text is the character data token for TextNode.
	Text *etree.CharData
}

// ElementOf wraps an element as a Node.
func ElementOf(el *etree.Element) Node {
	return Node{Kind: ElementNode, Element: el}
}

// Name returns the node name: the full tag for elements, the full key for
// attributes, and "" otherwise.
func (n Node) Name() string {
	switch n.Kind {
	case ElementNode:
		return n.Element.FullTag()
	case AttributeNode:
		return n.AttrKey
	}
	return ""
}

// Value returns the XPath string-value of the node.
func (n Node) Value() string {
	switch n.Kind {
	case AttributeNode:
		return n.Element.SelectAttrValue(n.AttrKey, "")
	case TextNode:
		return n.Text.Data
	default:
		var b strings.Builder
		collectText(n.Element, &b)
		return b.String()
	}
}

func collectText(el *etree.Element, b *strings.Builder) {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			collectText(t, b)
		}
	}
}

// SetValue replaces the node value. Elements lose all their text children and get a
// single text node holding v (none when v is empty); element children are kept.
func (n Node) SetValue(v string) {
	switch n.Kind {
	case AttributeNode:
		n.Element.CreateAttr(n.AttrKey, v)
	case TextNode:
		n.Text.Data = v
	default:
		SetText(n.Element, v)
	}
}

// SetText removes every text child of el and inserts v as the first child.
func SetText(el *etree.Element, v string) {
	var texts []etree.Token
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			texts = append(texts, cd)
		}
	}
	for _, tok := range texts {
		el.RemoveChild(tok)
	}
	if v != "" {
		el.InsertChildAt(0, etree.NewText(v))
	}
}

// Detach removes the node from its tree. It reports false for the document node
// and for a root element, which cannot be detached.
func (n Node) Detach() bool {
	switch n.Kind {
	case AttributeNode:
		return n.Element.RemoveAttr(n.AttrKey) != nil
	case TextNode:
		return n.Element.RemoveChild(n.Text) != nil
	case ElementNode:
		parent := n.Element.Parent()
		if parent == nil || parent.Parent() == nil && isDocumentElement(parent) {
			return false
		}
		return parent.RemoveChild(n.Element) != nil
	}
	return false
}

// isDocumentElement reports whether el is the synthetic element etree uses as the
// document container.
func isDocumentElement(el *etree.Element) bool {
	return el.Tag == "" && el.Space == ""
}

// Elements returns the element nodes of nodes, in order.
func Elements(nodes []Node) []*etree.Element {
	var out []*etree.Element
	for _, n := range nodes {
		if n.Kind == ElementNode {
			out = append(out, n.Element)
		}
	}
	return out
}

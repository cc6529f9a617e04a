package xmlpath

import (
	"slices"

	"github.com/antchfx/xpath"
	"github.com/beevik/etree"
)

// navigator implements xpath.NodeNavigator over an etree tree. It visits elements,
// character data and comments; processing instructions and directives are skipped.
type navigator struct {
	top  *etree.Element
	cur  etree.Token // nil on the document node
	attr int         // index into the current element's Attr, -1 when not on an attribute
}

func newNavigator(ctx *etree.Element) *navigator {
	return &navigator{top: topElement(ctx), cur: ctx, attr: -1}
}

// node converts the current position to a Node. Comments have no Node form.
func (n *navigator) node() (Node, bool) {
	switch t := n.cur.(type) {
	case nil:
		return Node{Kind: DocumentNode, Element: n.top}, true
	case *etree.Element:
		if n.attr >= 0 {
			return Node{Kind: AttributeNode, Element: t, AttrKey: t.Attr[n.attr].FullKey()}, true
		}
		return ElementOf(t), true
	case *etree.CharData:
		return Node{Kind: TextNode, Element: t.Parent(), Text: t}, true
	}
	return Node{}, false
}

func (n *navigator) NodeType() xpath.NodeType {
	switch n.cur.(type) {
	case *etree.Element:
		if n.attr >= 0 {
			return xpath.AttributeNode
		}
		return xpath.ElementNode
	case *etree.CharData:
		return xpath.TextNode
	case *etree.Comment:
		return xpath.CommentNode
	}
	return xpath.RootNode
}

func (n *navigator) LocalName() string {
	if el, ok := n.cur.(*etree.Element); ok {
		if n.attr >= 0 {
			return el.Attr[n.attr].Key
		}
		return el.Tag
	}
	return ""
}

func (n *navigator) Prefix() string {
	if el, ok := n.cur.(*etree.Element); ok {
		if n.attr >= 0 {
			return el.Attr[n.attr].Space
		}
		return el.Space
	}
	return ""
}

func (n *navigator) Value() string {
	switch t := n.cur.(type) {
	case nil:
		return Node{Kind: DocumentNode, Element: n.top}.Value()
	case *etree.Element:
		if n.attr >= 0 {
			return t.Attr[n.attr].Value
		}
		return ElementOf(t).Value()
	case *etree.CharData:
		return t.Data
	case *etree.Comment:
		return t.Data
	}
	return ""
}

func (n *navigator) Copy() xpath.NodeNavigator {
	c := *n
	return &c
}

func (n *navigator) MoveToRoot() {
	n.cur, n.attr = nil, -1
}

func (n *navigator) MoveToParent() bool {
	switch {
	case n.attr >= 0:
		n.attr = -1
		return true
	case n.cur == nil:
		return false
	case n.atTop():
		n.cur = nil
		return true
	}
	parent := n.cur.Parent()
	if parent == nil {
		return false
	}
	n.cur = parent
	return true
}

func (n *navigator) MoveToNextAttribute() bool {
	el, ok := n.cur.(*etree.Element)
	if !ok {
		return false
	}
	for i := n.attr + 1; i < len(el.Attr); i++ {
		if !isNamespaceDecl(el.Attr[i]) {
			n.attr = i
			return true
		}
	}
	return false
}

func (n *navigator) MoveToChild() bool {
	if n.attr >= 0 {
		return false
	}
	switch t := n.cur.(type) {
	case nil:
		n.cur = n.top
		return true
	case *etree.Element:
		if child := navigable(t.Child, 0, 1); child != nil {
			n.cur = child
			return true
		}
	}
	return false
}

func (n *navigator) MoveToFirst() bool {
	if !n.hasSiblings() {
		return false
	}
	parent := n.cur.Parent()
	first := navigable(parent.Child, 0, 1)
	if first == nil || first == n.cur {
		return false
	}
	n.cur = first
	return true
}

func (n *navigator) MoveToNext() bool {
	return n.moveSibling(1)
}

func (n *navigator) MoveToPrevious() bool {
	return n.moveSibling(-1)
}

func (n *navigator) moveSibling(step int) bool {
	if !n.hasSiblings() {
		return false
	}
	parent := n.cur.Parent()
	if sib := navigable(parent.Child, indexIn(parent, n.cur)+step, step); sib != nil {
		n.cur = sib
		return true
	}
	return false
}

func (n *navigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*navigator)
	if !ok || o.top != n.top {
		return false
	}
	n.cur, n.attr = o.cur, o.attr
	return true
}

func (n *navigator) atTop() bool {
	el, ok := n.cur.(*etree.Element)
	return ok && el == n.top
}

// hasSiblings reports whether sibling moves are possible from the current
// position. The document element is the only child of the document node.
func (n *navigator) hasSiblings() bool {
	return n.attr < 0 && n.cur != nil && !n.atTop() && n.cur.Parent() != nil
}

// navigable returns the first visitable token of tokens starting at start and
// moving by step, or nil.
func navigable(tokens []etree.Token, start, step int) etree.Token {
	for i := start; i >= 0 && i < len(tokens); i += step {
		switch tokens[i].(type) {
		case *etree.Element, *etree.CharData, *etree.Comment:
			return tokens[i]
		}
	}
	return nil
}

// indexIn returns the position of tok among parent's children.
func indexIn(parent *etree.Element, tok etree.Token) int {
	if i := tok.Index(); i >= 0 && i < len(parent.Child) && parent.Child[i] == tok {
		return i
	}
	return slices.Index(parent.Child, tok)
}

func isNamespaceDecl(a etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

// topElement returns the outermost element above el.
func topElement(el *etree.Element) *etree.Element {
	for {
		parent := el.Parent()
		if parent == nil || isDocumentElement(parent) {
			return el
		}
		el = parent
	}
}

// Package xmlpath selects nodes in etree documents with XPath 1.0 expressions.
//
// Expressions are compiled and evaluated by github.com/antchfx/xpath through a
// navigator that walks etree elements, attributes and character data in place, so
// selected nodes can be changed directly:
//
//	nodes, err := xmlpath.Select(root, "default/gui/xml[@name = 'countries']/@file")
//	if err != nil {
//		return err
//	}
//	for _, n := range nodes {
//		n.SetValue("xml/europeanCountries.xml")
//	}
//
// Absolute paths start at a virtual document node whose only child is the outermost
// element above the context. Namespace declarations are not attributes. Comments
// can be used in predicates but are never returned. Expressions that evaluate to a
// string, number or boolean are rejected by Select.
package xmlpath

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/antchfx/xpath"
	"github.com/beevik/etree"
)

// Path is a compiled selector. It is safe for concurrent use.
type Path struct {
	raw string

	// xpath.Expr keeps evaluation state, so evaluations are serialised.
	mu   sync.Mutex
	expr *xpath.Expr
}

// String returns the original expression.
func (p *Path) String() string {
	return p.raw
}

// Parse compiles a selector.
//
// Examples:
//
//	Parse("default/gui")                       // children of the context element
//	Parse("*//toRemove")                       // any depth below a child
//	Parse("default/gui/xml[@name = 'countries']/@file")
//	Parse("properties/*[1]")
//	Parse("/config/resources")                 // absolute
func Parse(expr string) (*Path, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("xmlpath: empty expression")
	}
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("xmlpath: %q: %w", expr, err)
	}
	return &Path{raw: expr, expr: compiled}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(expr string) *Path {
	p, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Select evaluates the path with ctx as the context element and returns the
// matching nodes in document order, without duplicates.
func (p *Path) Select(ctx *etree.Element) (nodes []Node, err error) {
	if ctx == nil {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() {
		// antchfx/xpath reports some type errors found during evaluation by panicking.
		if r := recover(); r != nil {
			nodes, err = nil, fmt.Errorf("xmlpath: evaluating %q: %v", p.raw, r)
		}
	}()

	iter, ok := p.expr.Evaluate(newNavigator(ctx)).(*xpath.NodeIterator)
	if !ok {
		return nil, fmt.Errorf("xmlpath: %q does not select nodes", p.raw)
	}

	seen := make(map[Node]bool)
	for iter.MoveNext() {
		n, ok := iter.Current().(*navigator).node()
		if !ok || seen[n] {
			continue
		}
		seen[n] = true
		nodes = append(nodes, n)
	}
	if len(nodes) > 1 {
		sortDocumentOrder(nodes)
	}
	return nodes, nil
}

// orderKey locates a node in document order: the preorder index of its token
// and, for attributes, the attribute position plus one.
type orderKey struct {
	token int
	attr  int
}

// sortDocumentOrder sorts nodes of one tree into document order. Unions and
// reverse axes come out of the evaluator in evaluation order.
func sortDocumentOrder(nodes []Node) {
	index := make(map[etree.Token]int)
	counter := 0
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		index[el] = counter
		counter++
		for _, tok := range el.Child {
			switch t := tok.(type) {
			case *etree.Element:
				walk(t)
			case *etree.CharData:
				index[t] = counter
				counter++
			}
		}
	}
	walk(topElement(nodes[0].Element))

	key := func(n Node) orderKey {
		switch n.Kind {
		case DocumentNode:
			return orderKey{token: -1}
		case TextNode:
			return orderKey{token: index[n.Text]}
		case AttributeNode:
			k := orderKey{token: index[n.Element]}
			for i, a := range n.Element.Attr {
				if a.FullKey() == n.AttrKey {
					k.attr = i + 1
					break
				}
			}
			return k
		}
		return orderKey{token: index[n.Element]}
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := key(nodes[i]), key(nodes[j])
		if a.token != b.token {
			return a.token < b.token
		}
		return a.attr < b.attr
	})
}

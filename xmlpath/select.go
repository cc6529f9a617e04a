package xmlpath

import (
	"fmt"
	"sync"

	"github.com/beevik/etree"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of compiled selectors an Evaluator keeps when
// CacheSize is zero.
const DefaultCacheSize = 256

// Evaluator compiles and evaluates selectors, keeping recently used compiled
// paths. The zero value is ready to use and safe for concurrent use.
type Evaluator struct {
	// CacheSize bounds the compiled paths kept; the least recently used path is
	// dropped first. Zero means DefaultCacheSize. It must be set before first use.
	CacheSize int

	once  sync.Once
	cache *lru.Cache[string, *Path]
}

// Default is the shared evaluator used by the package-level helpers.
var Default = &Evaluator{}

func (e *Evaluator) paths() *lru.Cache[string, *Path] {
	e.once.Do(func() {
		size := e.CacheSize
		if size <= 0 {
			size = DefaultCacheSize
		}
		// New only fails for a non-positive size.
		e.cache, _ = lru.New[string, *Path](size)
	})
	return e.cache
}

// Compile returns the compiled path for expr, reusing a cached one when present.
// Expressions that fail to compile are not cached.
func (e *Evaluator) Compile(expr string) (*Path, error) {
	cache := e.paths()
	if p, ok := cache.Get(expr); ok {
		return p, nil
	}
	p, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	cache.Add(expr, p)
	return p, nil
}

// Select returns all nodes matched by expr from ctx.
func (e *Evaluator) Select(ctx *etree.Element, expr string) ([]Node, error) {
	p, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	return p.Select(ctx)
}

// SelectOne returns the single node matched by expr. Zero or several matches
// are an error.
func (e *Evaluator) SelectOne(ctx *etree.Element, expr string) (Node, error) {
	nodes, err := e.Select(ctx, expr)
	if err != nil {
		return Node{}, err
	}
	if len(nodes) != 1 {
		return Node{}, fmt.Errorf("xmlpath: %q matched %d nodes, expected exactly one", expr, len(nodes))
	}
	return nodes[0], nil
}

// SelectString returns the string value of the first node matched by expr, or
// "" when nothing matches.
func (e *Evaluator) SelectString(ctx *etree.Element, expr string) (string, error) {
	nodes, err := e.Select(ctx, expr)
	if err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return "", nil
	}
	return nodes[0].Value(), nil
}

// Select evaluates expr from ctx with the default evaluator.
func Select(ctx *etree.Element, expr string) ([]Node, error) {
	return Default.Select(ctx, expr)
}

// SelectElements returns the elements matched by expr; other node kinds are dropped.
func SelectElements(ctx *etree.Element, expr string) ([]*etree.Element, error) {
	nodes, err := Default.Select(ctx, expr)
	if err != nil {
		return nil, err
	}
	return Elements(nodes), nil
}

// SelectElement returns the single element matched by expr.
func SelectElement(ctx *etree.Element, expr string) (*etree.Element, error) {
	n, err := Default.SelectOne(ctx, expr)
	if err != nil {
		return nil, err
	}
	if n.Kind != ElementNode {
		return nil, fmt.Errorf("xmlpath: %q matched a %s node, expected an element", expr, n.Kind)
	}
	return n.Element, nil
}

// SelectString returns the string value of the first node matched by expr.
func SelectString(ctx *etree.Element, expr string) (string, error) {
	return Default.SelectString(ctx, expr)
}

package beans

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/beevik/etree"
)

// Definition is a bean as read from a bean-definition document.
type Definition struct {
	ID         string
	Names      []string
	Class      string
	Properties map[string]Property
}

// Property is a bean property. Scalar properties carry Value or Ref; collection
// properties carry Values and Refs in document order.
type Property struct {
	Value  string
	Ref    string
	Values []string
	Refs   []string
}

// Registry is an in-memory Container that indexes definitions by id and alias.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	beans map[string]*Definition
	order []*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{beans: make(map[string]*Definition)}
}

// Load implements Container. The top-level beans of doc replace the current
// contents; a name defined twice is an error and leaves the registry unchanged.
func (r *Registry) Load(ctx context.Context, doc *etree.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil || doc.Root() == nil {
		return fmt.Errorf("beans: no definitions to load")
	}

	index := make(map[string]*Definition)
	var order []*Definition
	for _, el := range doc.Root().SelectElements("bean") {
		def := parseDefinition(el)
		for _, name := range def.keys() {
			if _, dup := index[name]; dup {
				return fmt.Errorf("beans: bean %q defined more than once", name)
			}
			index[name] = def
		}
		order = append(order, def)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.beans = index
	r.order = order
	return nil
}

// Bean returns the definition registered under name.
func (r *Registry) Bean(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.beans[name]
	return def, ok
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Names returns all ids and aliases, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.beans))
	for name := range r.beans {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Definitions returns the definitions in document order.
func (r *Registry) Definitions() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

func (d *Definition) keys() []string {
	var keys []string
	if d.ID != "" {
		keys = append(keys, d.ID)
	}
	for _, n := range d.Names {
		if n != d.ID {
			keys = append(keys, n)
		}
	}
	return keys
}

func parseDefinition(el *etree.Element) *Definition {
	def := &Definition{
		ID:         el.SelectAttrValue("id", ""),
		Class:      el.SelectAttrValue("class", ""),
		Properties: make(map[string]Property),
	}
	def.Names = strings.FieldsFunc(el.SelectAttrValue("name", ""), func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})

	for _, p := range el.SelectElements("property") {
		prop := Property{
			Value: p.SelectAttrValue("value", ""),
			Ref:   p.SelectAttrValue("ref", ""),
		}
		if v := p.SelectElement("value"); v != nil && prop.Value == "" {
			prop.Value = strings.TrimSpace(v.Text())
		}
		if ref := p.SelectElement("ref"); ref != nil && prop.Ref == "" {
			prop.Ref = ref.SelectAttrValue("bean", "")
		}
		for _, coll := range p.ChildElements() {
			switch coll.Tag {
			case "list", "set", "array":
				for _, item := range coll.ChildElements() {
					switch item.Tag {
					case "value":
						prop.Values = append(prop.Values, strings.TrimSpace(item.Text()))
					case "ref":
						prop.Refs = append(prop.Refs, item.SelectAttrValue("bean", ""))
					}
				}
			}
		}
		def.Properties[p.SelectAttrValue("name", "")] = prop
	}
	return def
}

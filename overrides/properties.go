package overrides

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"
)

var placeholderRE = regexp.MustCompile(`\$\{([^{}]+)\}`)

// properties holds the values defined in the properties section of an override
// document. Entries with an xpath attribute double as scalar overrides.
type properties struct {
	values  map[string]string
	scalars []scalarProperty
}

type scalarProperty struct {
	name     string
	selector string
	value    string
}

func collectProperties(root *etree.Element) properties {
	p := properties{values: make(map[string]string)}
	for _, block := range root.SelectElements(SectionProperties) {
		for _, prop := range block.ChildElements() {
			if _, dup := p.values[prop.Tag]; dup {
				continue
			}
			value := strings.TrimSpace(prop.Text())
			p.values[prop.Tag] = value
			if sel := prop.SelectAttrValue("xpath", ""); sel != "" {
				p.scalars = append(p.scalars, scalarProperty{name: prop.Tag, selector: sel, value: value})
			}
		}
	}
	return p
}

// expand replaces ${name} placeholders in s. Unknown names are left as they are
// and reported through unknown.
func (p properties) expand(s string, unknown func(name string)) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return placeholderRE.ReplaceAllStringFunc(s, func(m string) string {
		name := strings.TrimSpace(m[2 : len(m)-1])
		if v, ok := p.values[name]; ok {
			return v
		}
		if unknown != nil {
			unknown(name)
		}
		return m
	})
}

// expandTree expands placeholders in the attribute values and text of el and its
// descendants. el must be a copy owned by the caller.
func (p properties) expandTree(el *etree.Element, unknown func(name string)) {
	for i := range el.Attr {
		el.Attr[i].Value = p.expand(el.Attr[i].Value, unknown)
	}
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			t.Data = p.expand(t.Data, unknown)
		case *etree.Element:
			p.expandTree(t, unknown)
		}
	}
}

package overrides

import (
	"fmt"
	"slices"
	"strings"

	"github.com/beevik/etree"

	"github.com/xmloverrides/xmloverrides/xoerrors"
)

const beanSelector = "descendant-or-self::bean"

// ApplyBeans applies the spring section of overrideDoc to a bean-definition
// document. Beans are found by id, or by any of the names in their name attribute.
func (in *Interpreter) ApplyBeans(overrideDoc, target *etree.Element) (*ApplyResult, error) {
	if overrideDoc == nil || target == nil {
		return nil, fmt.Errorf("overrides: override document and target are required")
	}
	if errs := Validate(overrideDoc); len(errs) > 0 {
		return nil, errs[0]
	}

	r := &run{in: in, log: loggerOrNop(in.Logger), props: collectProperties(overrideDoc), result: &ApplyResult{}}
	index := 0
	for _, section := range overrideDoc.SelectElements(SectionSpring) {
		for _, d := range section.ChildElements() {
			if err := r.applyBeanDirective(target, index, d); err != nil {
				return nil, err
			}
			index++
		}
	}
	return r.result, nil
}

func (r *run) applyBeanDirective(target *etree.Element, index int, d *etree.Element) error {
	kind, ok := ParseBeanDirectiveKind(d.Tag)
	if !ok {
		return &xoerrors.DirectiveError{Name: d.FullTag(), File: SectionSpring}
	}

	unknown := r.unknownProperty(SectionSpring, index, d.Tag)
	beanName := r.props.expand(d.SelectAttrValue("bean", ""), unknown)
	propName := r.props.expand(d.SelectAttrValue("property", ""), unknown)

	bean, err := r.findBean(target, beanName, d.Tag)
	if err != nil {
		return err
	}

	prop := findProperty(bean, propName)
	if prop == nil {
		prop = bean.CreateElement("property")
		prop.CreateAttr("name", propName)
	}

	value, hasValue := "", false
	if a := d.SelectAttr("value"); a != nil {
		value, hasValue = r.props.expand(a.Value, unknown), true
	}
	ref := r.props.expand(d.SelectAttrValue("ref", ""), unknown)

	switch kind {
	case BeanSet:
		clearChildren(prop)
		prop.RemoveAttr("value")
		prop.RemoveAttr("ref")
		if hasValue {
			prop.CreateAttr("value", value)
		} else {
			prop.CreateAttr("ref", ref)
		}

	case BeanAdd:
		coll := collectionOf(prop)
		if hasValue {
			coll.CreateElement("value").SetText(value)
		} else {
			coll.CreateElement("ref").CreateAttr("bean", ref)
		}
	}

	sel := beanName + "." + propName
	r.result.DirectivesApplied++
	r.result.Changes = append(r.result.Changes, ChangeRecord{Index: index, Block: SectionSpring, Directive: d.Tag, Selector: sel, MatchCount: 1})
	r.log.Debug("applying bean directive", "directive", d.Tag, "bean", beanName, "property", propName)
	return nil
}

func (r *run) findBean(target *etree.Element, name, directive string) (*etree.Element, error) {
	nodes, err := r.in.selector().Select(target, beanSelector)
	if err != nil {
		return nil, &xoerrors.SelectorError{Selector: beanSelector, File: SectionSpring, Directive: directive, MatchCount: -1, Cause: err}
	}

	var found []*etree.Element
	for _, n := range nodes {
		if beanHasName(n.Element, name) {
			found = append(found, n.Element)
		}
	}
	if len(found) != 1 {
		return nil, &xoerrors.SelectorError{
			Selector:   "bean " + name,
			File:       SectionSpring,
			Directive:  directive,
			MatchCount: len(found),
			Message:    "bean must be defined exactly once",
		}
	}
	return found[0], nil
}

// beanHasName reports whether bean is identified by name through its id or one of
// the comma, semicolon or space separated aliases in its name attribute.
func beanHasName(bean *etree.Element, name string) bool {
	if bean.SelectAttrValue("id", "") == name {
		return true
	}
	aliases := strings.FieldsFunc(bean.SelectAttrValue("name", ""), func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})
	return slices.Contains(aliases, name)
}

func findProperty(bean *etree.Element, name string) *etree.Element {
	for _, p := range bean.SelectElements("property") {
		if p.SelectAttrValue("name", "") == name {
			return p
		}
	}
	return nil
}

// collectionOf returns the list, set or array element of a property, creating a
// list when there is none. A scalar value or ref attribute becomes the first entry.
func collectionOf(prop *etree.Element) *etree.Element {
	for _, c := range prop.ChildElements() {
		switch c.Tag {
		case "list", "set", "array":
			return c
		}
	}
	list := prop.CreateElement("list")
	if a := prop.RemoveAttr("value"); a != nil {
		list.CreateElement("value").SetText(a.Value)
	}
	if a := prop.RemoveAttr("ref"); a != nil {
		list.CreateElement("ref").CreateAttr("bean", a.Value)
	}
	return list
}

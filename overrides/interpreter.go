package overrides

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/xmloverrides/xmloverrides/xmlpath"
	"github.com/xmloverrides/xmloverrides/xoerrors"
)

// Selector evaluates selector expressions against a tree. *xmlpath.Evaluator
// implements it.
type Selector interface {
	Select(ctx *etree.Element, expr string) ([]xmlpath.Node, error)
}

// Interpreter applies the XML directives of an override document to a target tree.
type Interpreter struct {
	// Selector evaluates directive selectors. Nil means xmlpath.Default.
	Selector Selector

	// StrictTargets makes a selector that matches nothing an error instead of a
	// skipped directive.
	StrictTargets bool

	// StrictProperties makes a scalar property whose selector matches nothing an
	// error instead of a skipped property.
	StrictProperties bool

	// Logger receives debug output for each directive. Nil discards it.
	Logger Logger
}

// NewInterpreter creates an Interpreter with default settings.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (in *Interpreter) selector() Selector {
	if in.Selector == nil {
		return xmlpath.Default
	}
	return in.Selector
}

// Apply applies overrideDoc to target in place: scalar properties first, then every
// file block matching resourceName in document order. An empty resourceName
// selects nothing. The override document is not
// modified. A failing directive leaves target partially updated.
func (in *Interpreter) Apply(overrideDoc *etree.Element, resourceName string, target *etree.Element) (*ApplyResult, error) {
	r := &run{in: in, log: loggerOrNop(in.Logger), result: &ApplyResult{Resource: resourceName}}
	if err := r.exec(overrideDoc, resourceName, target); err != nil {
		return nil, err
	}
	return r.result, nil
}

// DryRun reports what Apply would do without touching target. Directives run on a
// copy so later directives see the effects of earlier ones.
func (in *Interpreter) DryRun(overrideDoc *etree.Element, resourceName string, target *etree.Element) (*DryRunResult, error) {
	if target == nil {
		return nil, fmt.Errorf("overrides: target is nil")
	}
	return in.preview(overrideDoc, resourceName, target.Copy())
}

// preview runs overrideDoc against work, a copy the caller owns, and records
// proposed changes.
func (in *Interpreter) preview(overrideDoc *etree.Element, resourceName string, work *etree.Element) (*DryRunResult, error) {
	preview := &DryRunResult{}
	r := &run{in: in, log: loggerOrNop(in.Logger), result: &ApplyResult{Resource: resourceName}, preview: preview}
	if err := r.exec(overrideDoc, resourceName, work); err != nil {
		return nil, err
	}
	preview.WouldApply = r.result.DirectivesApplied
	preview.WouldSkip = r.result.DirectivesSkipped
	preview.Warnings = r.result.Warnings
	return preview, nil
}

// run holds the state of one Apply or DryRun call.
type run struct {
	in      *Interpreter
	log     Logger
	props   properties
	result  *ApplyResult
	preview *DryRunResult
}

func (r *run) exec(overrideDoc *etree.Element, resourceName string, target *etree.Element) error {
	if overrideDoc == nil {
		return fmt.Errorf("overrides: override document is nil")
	}
	if target == nil {
		return fmt.Errorf("overrides: target is nil")
	}
	if errs := Validate(overrideDoc); len(errs) > 0 {
		return errs[0]
	}

	r.props = collectProperties(overrideDoc)
	if resourceName == "" {
		return nil
	}
	if err := r.applyScalarProperties(target); err != nil {
		return err
	}

	for _, block := range overrideDoc.SelectElements(SectionFile) {
		name := block.SelectAttrValue("name", "")
		if !MatchesResource(name, resourceName) {
			continue
		}
		for i, d := range block.ChildElements() {
			if err := r.applyDirective(target, name, i, d); err != nil {
				return err
			}
		}
	}
	return nil
}

// MatchesResource reports whether a block name selects resourceName: equal names,
// a resource path ending in "/"+blockName, or a regular expression matching the
// whole resource name. Block names are patterns, so the dot in "config.xml" also
// matches "configXxml".
func MatchesResource(blockName, resourceName string) bool {
	if blockName == "" || resourceName == "" {
		return false
	}
	if blockName == resourceName || strings.HasSuffix(resourceName, "/"+blockName) {
		return true
	}
	re := blockPattern(blockName)
	return re != nil && re.MatchString(resourceName)
}

// blockPatterns caches compiled block names; nil marks a name that is not a
// valid pattern.
var blockPatterns, _ = lru.New[string, *regexp.Regexp](256)

func blockPattern(blockName string) *regexp.Regexp {
	if re, ok := blockPatterns.Get(blockName); ok {
		return re
	}
	re, _ := regexp.Compile(`^(?:` + blockName + `)$`)
	blockPatterns.Add(blockName, re)
	return re
}

func (r *run) applyScalarProperties(target *etree.Element) error {
	for i, p := range r.props.scalars {
		sel := r.props.expand(p.selector, r.unknownProperty(SectionProperties, i, p.name))
		nodes, err := r.in.selector().Select(target, sel)
		if err != nil {
			return &xoerrors.SelectorError{Selector: sel, File: SectionProperties, Directive: p.name, MatchCount: -1, Cause: err}
		}
		switch {
		case len(nodes) == 0:
			if r.in.StrictProperties {
				return &xoerrors.SelectorError{Selector: sel, File: SectionProperties, Directive: p.name, Message: "property target not found"}
			}
			r.skip(SectionProperties, i, p.name, sel)
			continue
		case len(nodes) > 1:
			return &xoerrors.SelectorError{Selector: sel, File: SectionProperties, Directive: p.name, MatchCount: len(nodes), Message: "property must select a single node"}
		}

		if err := rejectDocument(nodes, sel, SectionProperties, p.name); err != nil {
			return err
		}
		r.record(SectionProperties, i, p.name, sel, nodes, fmt.Sprintf("set value %q", p.value))
		setValue(nodes[0], p.value)
	}
	return nil
}

func (r *run) applyDirective(target *etree.Element, block string, index int, d *etree.Element) error {
	kind, ok := ParseDirectiveKind(d.Tag)
	if !ok {
		return &xoerrors.DirectiveError{Name: d.FullTag(), File: block}
	}

	unknown := r.unknownProperty(block, index, d.Tag)
	sel := r.props.expand(d.SelectAttrValue("xpath", ""), unknown)
	nodes, err := r.in.selector().Select(target, sel)
	if err != nil {
		return &xoerrors.SelectorError{Selector: sel, File: block, Directive: d.Tag, MatchCount: -1, Cause: err}
	}

	if len(nodes) == 0 {
		if kind == AddXML {
			return &xoerrors.SelectorError{Selector: sel, File: block, Directive: d.Tag, Message: "no element to add under"}
		}
		if r.in.StrictTargets {
			return &xoerrors.SelectorError{Selector: sel, File: block, Directive: d.Tag}
		}
		r.skip(block, index, d.Tag, sel)
		return nil
	}

	// Directive content is copied before expansion so the override stays untouched.
	content := d.Copy()
	r.props.expandTree(content, unknown)

	switch kind {
	case RemoveXML:
		r.record(block, index, d.Tag, sel, nodes, "remove")
		for _, n := range nodes {
			if !n.Detach() {
				return &xoerrors.SelectorError{Selector: sel, File: block, Directive: d.Tag, MatchCount: len(nodes), Message: "cannot remove the root element"}
			}
		}

	case AddXML:
		if err := requireElements(nodes, sel, block, d.Tag); err != nil {
			return err
		}
		r.record(block, index, d.Tag, sel, nodes, fmt.Sprintf("append %d node(s)", len(content.Child)))
		for _, n := range nodes {
			appendCopies(n.Element, content)
		}

	case ReplaceXML:
		if err := rejectDocument(nodes, sel, block, d.Tag); err != nil {
			return err
		}
		r.record(block, index, d.Tag, sel, nodes, "replace content")
		for _, n := range nodes {
			if n.Kind != xmlpath.ElementNode {
				setValue(n, directiveText(content))
				continue
			}
			clearChildren(n.Element)
			appendCopies(n.Element, content)
		}

	case ReplaceAtt:
		if err := requireElements(nodes, sel, block, d.Tag); err != nil {
			return err
		}
		name, value := content.SelectAttrValue("attName", ""), content.SelectAttrValue("value", "")
		r.record(block, index, d.Tag, sel, nodes, fmt.Sprintf("set attribute %s=%q", name, value))
		for _, n := range nodes {
			n.Element.CreateAttr(name, value)
		}

	case RemoveAtt:
		if err := requireElements(nodes, sel, block, d.Tag); err != nil {
			return err
		}
		name := content.SelectAttrValue("attName", "")
		r.record(block, index, d.Tag, sel, nodes, "remove attribute "+name)
		for _, n := range nodes {
			n.Element.RemoveAttr(name)
		}

	case ReplaceText:
		if err := rejectDocument(nodes, sel, block, d.Tag); err != nil {
			return err
		}
		text := directiveText(content)
		r.record(block, index, d.Tag, sel, nodes, fmt.Sprintf("set text %q", text))
		for _, n := range nodes {
			if n.Kind != xmlpath.ElementNode {
				n.SetValue(text)
				continue
			}
			replaceText(n.Element, text)
		}
	}
	return nil
}

func (r *run) record(block string, index int, directive, sel string, nodes []xmlpath.Node, desc string) {
	change := ChangeRecord{Index: index, Block: block, Directive: directive, Selector: sel, MatchCount: len(nodes)}
	r.result.Changes = append(r.result.Changes, change)
	r.result.DirectivesApplied++
	r.log.Debug("applying directive", "block", block, "index", index, "directive", directive, "selector", sel, "matches", len(nodes))

	if r.preview != nil {
		pc := ProposedChange{ChangeRecord: change, Description: desc}
		for i, n := range nodes {
			if i == 10 {
				break
			}
			pc.MatchedPaths = append(pc.MatchedPaths, NodePath(n))
		}
		r.preview.Changes = append(r.preview.Changes, pc)
	}
}

func (r *run) skip(block string, index int, directive, sel string) {
	r.result.DirectivesSkipped++
	r.result.AddWarning(&ApplyWarning{
		Category:  WarnNoMatch,
		Block:     block,
		Index:     index,
		Directive: directive,
		Selector:  sel,
		Message:   "selector matched no nodes",
	})
	r.log.Warn("directive matched nothing", "block", block, "index", index, "directive", directive, "selector", sel)
}

func (r *run) unknownProperty(block string, index int, directive string) func(string) {
	return func(name string) {
		r.result.AddWarning(&ApplyWarning{
			Category:  WarnUnknownProperty,
			Block:     block,
			Index:     index,
			Directive: directive,
			Selector:  "${" + name + "}",
			Message:   "property is not defined",
		})
		r.log.Warn("undefined property", "block", block, "property", name)
	}
}

func requireElements(nodes []xmlpath.Node, sel, block, directive string) error {
	for _, n := range nodes {
		if n.Kind != xmlpath.ElementNode {
			return &xoerrors.SelectorError{
				Selector:   sel,
				File:       block,
				Directive:  directive,
				MatchCount: len(nodes),
				Message:    "selector must match elements, got a " + n.Kind.String() + " node",
			}
		}
	}
	return nil
}

// rejectDocument fails when nodes include the document node, which has no value
// of its own to replace.
func rejectDocument(nodes []xmlpath.Node, sel, block, directive string) error {
	for _, n := range nodes {
		if n.Kind == xmlpath.DocumentNode {
			return &xoerrors.SelectorError{
				Selector:   sel,
				File:       block,
				Directive:  directive,
				MatchCount: len(nodes),
				Message:    "cannot replace the document node",
			}
		}
	}
	return nil
}

// appendCopies appends copies of the element and text children of src to dst.
func appendCopies(dst, src *etree.Element) {
	for _, tok := range src.Child {
		switch t := tok.(type) {
		case *etree.Element:
			dst.AddChild(t.Copy())
		case *etree.CharData:
			if t.IsWhitespace() {
				continue
			}
			if t.IsCData() {
				dst.AddChild(etree.NewCData(t.Data))
			} else {
				dst.AddChild(etree.NewText(t.Data))
			}
		}
	}
}

func clearChildren(el *etree.Element) {
	for len(el.Child) > 0 {
		el.RemoveChildAt(len(el.Child) - 1)
	}
}

// replaceText removes every text child of el and appends one holding text.
func replaceText(el *etree.Element, text string) {
	xmlpath.SetText(el, "")
	if text != "" {
		el.AddChild(etree.NewText(text))
	}
}

// setValue overwrites a scalar location: the whole text of an element, or the value
// of an attribute or text node.
func setValue(n xmlpath.Node, v string) {
	if n.Kind == xmlpath.ElementNode {
		replaceText(n.Element, v)
		return
	}
	n.SetValue(v)
}

// directiveText returns the trimmed character data of a directive.
func directiveText(d *etree.Element) string {
	var b strings.Builder
	for _, tok := range d.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			b.WriteString(cd.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// NodePath returns a simple absolute path for n, with positions for repeated
// element names, e.g. /config/resources/resource[2]/@name.
func NodePath(n xmlpath.Node) string {
	var suffix string
	el := n.Element
	switch n.Kind {
	case xmlpath.DocumentNode:
		return "/"
	case xmlpath.AttributeNode:
		suffix = "/@" + n.AttrKey
	case xmlpath.TextNode:
		suffix = "/text()"
	}

	var parts []string
	for el != nil && !(el.Tag == "" && el.Space == "") {
		part := el.FullTag()
		if parent := el.Parent(); parent != nil && !(parent.Tag == "" && parent.Space == "") {
			same := parent.SelectElements(el.FullTag())
			if len(same) > 1 {
				for i, s := range same {
					if s == el {
						part = fmt.Sprintf("%s[%d]", part, i+1)
						break
					}
				}
			}
		}
		parts = append(parts, part)
		el = el.Parent()
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString("/")
		b.WriteString(parts[i])
	}
	b.WriteString(suffix)
	return b.String()
}

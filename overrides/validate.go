package overrides

import (
	"regexp"

	"github.com/beevik/etree"

	"github.com/xmloverrides/xmloverrides/xoerrors"
)

// Validate checks an override document against the directive vocabulary. It returns
// every problem found, in document order.
//
// Checks performed:
//   - top-level sections are known
//   - file and textFile blocks carry a name
//   - directives are known and carry their required attributes
//   - text anchors that are regular expressions compile
func Validate(root *etree.Element) []error {
	if root == nil {
		return []error{&xoerrors.ParseError{Message: "override document is nil"}}
	}

	var errs []error
	for _, section := range root.ChildElements() {
		if !sections[section.Tag] {
			errs = append(errs, &xoerrors.DirectiveError{Name: section.FullTag(), Message: "unknown top-level section"})
			continue
		}
		switch section.Tag {
		case SectionFile:
			errs = append(errs, validateFileBlock(section)...)
		case SectionTextFile:
			errs = append(errs, validateTextBlock(section)...)
		case SectionSpring:
			errs = append(errs, validateSpring(section)...)
		case SectionLogging:
			for _, el := range section.ChildElements() {
				if el.Tag != "level" && el.Tag != "logFile" {
					errs = append(errs, &xoerrors.DirectiveError{Name: el.FullTag(), File: SectionLogging})
				}
			}
		case SectionImport:
			if section.SelectAttrValue("file", "") == "" {
				errs = append(errs, &xoerrors.DirectiveError{Name: SectionImport, Message: "missing file attribute"})
			}
		}
	}
	return errs
}

func validateFileBlock(block *etree.Element) []error {
	name := block.SelectAttrValue("name", "")
	if name == "" {
		return []error{&xoerrors.DirectiveError{Name: SectionFile, Message: "missing name attribute"}}
	}

	var errs []error
	for _, d := range block.ChildElements() {
		kind, ok := ParseDirectiveKind(d.Tag)
		if !ok {
			errs = append(errs, &xoerrors.DirectiveError{Name: d.FullTag(), File: name})
			continue
		}
		if d.SelectAttr("xpath") == nil {
			errs = append(errs, &xoerrors.DirectiveError{Name: d.Tag, File: name, Message: "missing xpath attribute"})
		}
		if (kind == ReplaceAtt || kind == RemoveAtt) && d.SelectAttrValue("attName", "") == "" {
			errs = append(errs, &xoerrors.DirectiveError{Name: d.Tag, File: name, Message: "missing attName attribute"})
		}
	}
	return errs
}

func validateTextBlock(block *etree.Element) []error {
	name := block.SelectAttrValue("name", "")
	if name == "" {
		return []error{&xoerrors.DirectiveError{Name: SectionTextFile, Message: "missing name attribute"}}
	}

	var errs []error
	for _, d := range block.ChildElements() {
		if _, ok := ParseTextDirectiveKind(d.Tag); !ok {
			errs = append(errs, &xoerrors.DirectiveError{Name: d.FullTag(), File: name})
			continue
		}
		pattern, hasPattern := d.SelectAttrValue("linePattern", ""), d.SelectAttr("linePattern") != nil
		if !hasPattern && d.SelectAttr("line") == nil {
			errs = append(errs, &xoerrors.DirectiveError{Name: d.Tag, File: name, Message: "missing linePattern or line attribute"})
			continue
		}
		if hasPattern {
			if _, err := regexp.Compile(pattern); err != nil {
				errs = append(errs, &xoerrors.ParseError{Path: name, Message: "invalid linePattern in <" + d.Tag + ">", Cause: err})
			}
		}
	}
	return errs
}

func validateSpring(section *etree.Element) []error {
	var errs []error
	for _, d := range section.ChildElements() {
		if _, ok := ParseBeanDirectiveKind(d.Tag); !ok {
			errs = append(errs, &xoerrors.DirectiveError{Name: d.FullTag(), File: SectionSpring})
			continue
		}
		if d.SelectAttrValue("bean", "") == "" || d.SelectAttrValue("property", "") == "" {
			errs = append(errs, &xoerrors.DirectiveError{Name: d.Tag, File: SectionSpring, Message: "bean and property attributes are required"})
		}
		if d.SelectAttr("value") == nil && d.SelectAttr("ref") == nil {
			errs = append(errs, &xoerrors.DirectiveError{Name: d.Tag, File: SectionSpring, Message: "one of value or ref is required"})
		}
	}
	return errs
}

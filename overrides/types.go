package overrides

import (
	"fmt"
)

// Top-level section names of an override document.
const (
	SectionProperties = "properties"
	SectionFile       = "file"
	SectionTextFile   = "textFile"
	SectionSpring     = "spring"
	SectionLogging    = "logging"
	SectionImport     = "import"
)

var sections = map[string]bool{
	SectionProperties: true,
	SectionFile:       true,
	SectionTextFile:   true,
	SectionSpring:     true,
	SectionLogging:    true,
	SectionImport:     true,
}

// DirectiveKind identifies an XML directive inside a file block. The names are
// the element names used in override documents and must not change.
type DirectiveKind string

const (
	// RemoveXML detaches every matched element, attribute or text node.
	RemoveXML DirectiveKind = "removeXML"
	// AddXML appends copies of the directive's children to every matched element.
	AddXML DirectiveKind = "addXML"
	// ReplaceXML replaces the content of every matched element.
	ReplaceXML DirectiveKind = "replaceXML"
	// ReplaceAtt sets or adds an attribute on every matched element.
	ReplaceAtt DirectiveKind = "replaceAtt"
	// RemoveAtt deletes an attribute from every matched element.
	RemoveAtt DirectiveKind = "removeAtt"
	// ReplaceText replaces the text of every matched node.
	ReplaceText DirectiveKind = "replaceText"
)

var directiveKinds = map[string]DirectiveKind{
	string(RemoveXML):   RemoveXML,
	string(AddXML):      AddXML,
	string(ReplaceXML):  ReplaceXML,
	string(ReplaceAtt):  ReplaceAtt,
	string(RemoveAtt):   RemoveAtt,
	string(ReplaceText): ReplaceText,
}

// ParseDirectiveKind maps an element name to its directive kind.
func ParseDirectiveKind(name string) (DirectiveKind, bool) {
	k, ok := directiveKinds[name]
	return k, ok
}

// TextDirectiveKind identifies a directive inside a textFile block.
type TextDirectiveKind string

const (
	// TextUpdate performs a regular expression substitution on the anchor line.
	TextUpdate TextDirectiveKind = "update"
	// TextReplaceLine replaces the anchor line with the directive text.
	TextReplaceLine TextDirectiveKind = "replaceLine"
	// TextInsertBefore inserts the directive text before the anchor line.
	TextInsertBefore TextDirectiveKind = "insertBefore"
	// TextInsertAfter inserts the directive text after the anchor line.
	TextInsertAfter TextDirectiveKind = "insertAfter"
	// TextRemoveLine drops the anchor line.
	TextRemoveLine TextDirectiveKind = "removeLine"
)

var textDirectiveKinds = map[string]TextDirectiveKind{
	string(TextUpdate):       TextUpdate,
	string(TextReplaceLine):  TextReplaceLine,
	string(TextInsertBefore): TextInsertBefore,
	string(TextInsertAfter):  TextInsertAfter,
	string(TextRemoveLine):   TextRemoveLine,
}

// ParseTextDirectiveKind maps an element name to its text directive kind.
func ParseTextDirectiveKind(name string) (TextDirectiveKind, bool) {
	k, ok := textDirectiveKinds[name]
	return k, ok
}

// BeanDirectiveKind identifies a directive inside the spring section.
type BeanDirectiveKind string

const (
	// BeanSet sets a bean property to a value or reference.
	BeanSet BeanDirectiveKind = "set"
	// BeanAdd appends a value or reference to a collection property.
	BeanAdd BeanDirectiveKind = "add"
)

// ParseBeanDirectiveKind maps an element name to its bean directive kind.
func ParseBeanDirectiveKind(name string) (BeanDirectiveKind, bool) {
	switch BeanDirectiveKind(name) {
	case BeanSet, BeanAdd:
		return BeanDirectiveKind(name), true
	}
	return "", false
}

// ApplyResult contains the result of applying override documents to a resource.
type ApplyResult struct {
	// Resource is the name the file blocks were matched against.
	Resource string

	// OverrideFiles lists the resolved override documents that were applied, in order.
	OverrideFiles []string

	// DirectivesApplied is the number of directives that matched and ran.
	DirectivesApplied int

	// DirectivesSkipped is the number of directives whose selector matched nothing.
	DirectivesSkipped int

	// Changes records details of each applied directive.
	Changes []ChangeRecord

	// Warnings contains non-fatal issues encountered during application.
	Warnings ApplyWarnings
}

// AddWarning records a warning.
func (r *ApplyResult) AddWarning(w *ApplyWarning) {
	r.Warnings = append(r.Warnings, w)
}

// HasChanges returns true if any directive was applied.
func (r *ApplyResult) HasChanges() bool {
	return r.DirectivesApplied > 0
}

// HasWarnings returns true if any warnings were generated.
func (r *ApplyResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// merge folds other into r.
func (r *ApplyResult) merge(other *ApplyResult) {
	if other == nil {
		return
	}
	r.OverrideFiles = append(r.OverrideFiles, other.OverrideFiles...)
	r.DirectivesApplied += other.DirectivesApplied
	r.DirectivesSkipped += other.DirectivesSkipped
	r.Changes = append(r.Changes, other.Changes...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ChangeRecord describes a single directive applied to a resource.
type ChangeRecord struct {
	// Index is the zero-based position of the directive within its block.
	Index int

	// Block is the name attribute of the block the directive came from, or
	// "properties" for scalar property overrides.
	Block string

	// Directive is the directive element name.
	Directive string

	// Selector is the selector after property expansion.
	Selector string

	// MatchCount is the number of nodes matched by the selector.
	MatchCount int
}

// DryRunResult contains the result of previewing override application.
type DryRunResult struct {
	// WouldApply is the number of directives that would run.
	WouldApply int

	// WouldSkip is the number of directives whose selector would match nothing.
	WouldSkip int

	// Changes lists the proposed changes.
	Changes []ProposedChange

	// Warnings contains non-fatal issues that would occur.
	Warnings ApplyWarnings
}

// HasChanges returns true if any changes would be made.
func (r *DryRunResult) HasChanges() bool {
	return r.WouldApply > 0
}

// ProposedChange describes a change that would be made.
type ProposedChange struct {
	ChangeRecord

	// Description summarises the effect, e.g. `set attribute file="xml/other.xml"`.
	Description string

	// MatchedPaths lists simple paths of the matched nodes (up to 10).
	MatchedPaths []string
}

// WarningCategory identifies the type of override warning.
type WarningCategory string

const (
	// WarnNoMatch indicates a selector matched no nodes.
	WarnNoMatch WarningCategory = "no_match"
	// WarnUnknownProperty indicates a ${name} placeholder with no property defined.
	WarnUnknownProperty WarningCategory = "unknown_property"
	// WarnNoAnchor indicates a text directive whose anchor matched no line.
	WarnNoAnchor WarningCategory = "no_anchor"
)

// ApplyWarning represents a non-fatal issue found while applying overrides.
type ApplyWarning struct {
	// Category identifies the type of warning.
	Category WarningCategory
	// Block is the name of the block the directive belongs to.
	Block string
	// Index is the zero-based directive index within the block, or -1.
	Index int
	// Directive is the directive element name.
	Directive string
	// Selector is the selector, anchor or placeholder concerned.
	Selector string
	// Message describes the warning.
	Message string
}

// String returns a formatted warning message.
func (w *ApplyWarning) String() string {
	if w.Index < 0 {
		return fmt.Sprintf("%s %q: %s", w.Block, w.Selector, w.Message)
	}
	return fmt.Sprintf("%s[%d] %s %q: %s", w.Block, w.Index, w.Directive, w.Selector, w.Message)
}

// ApplyWarnings is a collection of ApplyWarning.
type ApplyWarnings []*ApplyWarning

// Strings returns the warning messages.
func (ws ApplyWarnings) Strings() []string {
	result := make([]string, 0, len(ws))
	for _, w := range ws {
		if w != nil {
			result = append(result, w.String())
		}
	}
	return result
}

// ByCategory filters warnings by category.
func (ws ApplyWarnings) ByCategory(cat WarningCategory) ApplyWarnings {
	var result ApplyWarnings
	for _, w := range ws {
		if w != nil && w.Category == cat {
			result = append(result, w)
		}
	}
	return result
}

// TextResult summarises text directives applied to a line buffer.
type TextResult struct {
	DirectivesApplied int
	DirectivesSkipped int
	Warnings          ApplyWarnings
}

package xoerrors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrResource indicates a resource could not be located or read.
	ErrResource = errors.New("resource error")

	// ErrResourceNotFound indicates a required resource does not exist.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrSelectorAmbiguity indicates a selector matched zero or several nodes where
	// the directive needs a different count.
	ErrSelectorAmbiguity = errors.New("selector ambiguity")

	// ErrInvalidSelector indicates a selector expression could not be parsed.
	ErrInvalidSelector = errors.New("invalid selector")

	// ErrImportCycle indicates a circular chain of override imports.
	ErrImportCycle = errors.New("import cycle")

	// ErrMalformedDocument indicates content that is not a well-formed document.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrUnknownDirective indicates a directive outside the override vocabulary.
	ErrUnknownDirective = errors.New("unknown directive")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// ResourceError represents a failure to locate or read a resource.
type ResourceError struct {
	// Name is the logical resource name as requested
	Name string
	// AppPath is the application root the name was resolved against
	AppPath string
	// NotFound is true when no candidate location exists
	NotFound bool
	// Message provides additional context
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ResourceError) Error() string {
	msg := "resource error"
	if e.isNotFound() {
		msg = "resource not found"
	}
	if e.Name != "" {
		msg += ": " + e.Name
	}
	if e.AppPath != "" {
		msg += " (app path " + e.AppPath + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ResourceError) isNotFound() bool {
	return e.NotFound || errors.Is(e.Cause, fs.ErrNotExist)
}

// Unwrap returns the underlying cause for error chaining.
func (e *ResourceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrResource, and ErrResourceNotFound when the resource is absent.
func (e *ResourceError) Is(target error) bool {
	if target == ErrResource {
		return true
	}
	return target == ErrResourceNotFound && e.isNotFound()
}

// SelectorError represents a selector that cannot be evaluated or that matched the
// wrong number of nodes for its directive.
type SelectorError struct {
	// Selector is the path expression
	Selector string
	// File is the override block (target resource name) the directive belongs to
	File string
	// Directive is the directive name, e.g. "addXML"
	Directive string
	// MatchCount is the number of nodes matched (-1 when the selector did not parse)
	MatchCount int
	// Message describes the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *SelectorError) Error() string {
	var b strings.Builder
	if e.isSyntax() {
		b.WriteString("invalid selector")
	} else {
		b.WriteString("selector ambiguity")
	}
	if e.Selector != "" {
		fmt.Fprintf(&b, " %q", e.Selector)
	}
	if e.Directive != "" {
		b.WriteString(" in " + e.Directive)
	}
	if e.File != "" {
		b.WriteString(" for " + e.File)
	}
	if !e.isSyntax() {
		fmt.Fprintf(&b, " (%d match(es))", e.MatchCount)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}
	return b.String()
}

func (e *SelectorError) isSyntax() bool {
	return e.MatchCount < 0
}

// Unwrap returns the underlying cause for error chaining.
func (e *SelectorError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *SelectorError) Is(target error) bool {
	if e.isSyntax() {
		return target == ErrInvalidSelector
	}
	return target == ErrSelectorAmbiguity
}

// ImportCycleError represents a circular chain of override imports.
type ImportCycleError struct {
	// Chain lists the resources from the first open import to the one revisited
	Chain []string
}

// Error returns a human-readable error message.
func (e *ImportCycleError) Error() string {
	if len(e.Chain) == 0 {
		return "import cycle"
	}
	return "import cycle: " + strings.Join(e.Chain, " -> ")
}

// Is reports whether target matches this error type.
func (e *ImportCycleError) Is(target error) bool {
	return target == ErrImportCycle
}

// ParseError represents content that failed to parse.
type ParseError struct {
	// Path is the file path or source identifier
	Path string
	// Line is the line number where the error occurred (0 if unknown)
	Line int
	// Column is the column number where the error occurred (0 if unknown)
	Column int
	// Message describes the parsing failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			msg += fmt.Sprintf(", column %d", e.Column)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// DirectiveError represents a directive outside the closed override vocabulary, or one
// that lacks a required attribute.
type DirectiveError struct {
	// Name is the element name of the offending directive
	Name string
	// File is the override block (target resource name), empty for top-level nodes
	File string
	// Message describes the problem
	Message string
}

// Error returns a human-readable error message.
func (e *DirectiveError) Error() string {
	msg := "unknown directive"
	if e.Name != "" {
		msg += " <" + e.Name + ">"
	}
	if e.File != "" {
		msg += " in block for " + e.File
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *DirectiveError) Is(target error) bool {
	return target == ErrUnknownDirective
}

// ConfigError represents an invalid configuration option or value.
type ConfigError struct {
	// Option is the name of the configuration option
	Option string
	// Value is the invalid value (may be nil)
	Value any
	// Message describes the problem
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " in " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// Package xoerrors provides structured error types for the xmloverrides library.
//
// Import path: github.com/xmloverrides/xmloverrides/xoerrors
//
// The types let callers tell apart the failure categories of an override run with
// [errors.Is] and [errors.As]. Only "absent is fine" situations are recovered locally by
// the engine (a missing optional override file, a missing optional property target, an
// attribute that is already gone); everything listed here reaches the caller.
//
// # Error Types
//
//   - [ResourceError]: a base or imported resource could not be found or read
//   - [SelectorError]: a selector matched the wrong number of nodes, or does not parse
//   - [ImportCycleError]: an import chain revisits a resource that is still open
//   - [ParseError]: XML or text content that cannot be parsed
//   - [DirectiveError]: a directive name outside the closed vocabulary, or a directive
//     missing a required attribute
//   - [ConfigError]: invalid options or configuration values
//
// # Sentinel Errors
//
//   - [ErrResourceNotFound]: matches [ResourceError] whose cause is a not-exist error
//   - [ErrSelectorAmbiguity]: matches [SelectorError] about match counts
//   - [ErrInvalidSelector]: matches [SelectorError] about syntax
//   - [ErrImportCycle]: matches [ImportCycleError]
//   - [ErrMalformedDocument]: matches [ParseError]
//   - [ErrUnknownDirective]: matches [DirectiveError]
//   - [ErrConfig]: matches [ConfigError]
//
// # Usage
//
//	err := overrides.Default.UpdateWithOverrides("config.xml", nil, appPath, root)
//	var cycle *xoerrors.ImportCycleError
//	switch {
//	case errors.As(err, &cycle):
//	    fmt.Println("import cycle:", strings.Join(cycle.Chain, " -> "))
//	case errors.Is(err, xoerrors.ErrSelectorAmbiguity):
//	    // fix the override file
//	}
//
// A failed directive leaves the target partially mutated; there is no rollback, so the
// caller must discard the target document on any error.
package xoerrors

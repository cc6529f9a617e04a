// Package options checks combinations of mutually exclusive inputs shared by the
// overrides package and the MCP tools.
package options

import "github.com/xmloverrides/xmloverrides/xoerrors"

// ExactlyOne reports a *xoerrors.ConfigError for option unless exactly one of
// sources is set. noneMsg and manyMsg are used as the error message for the
// zero and multiple cases; the multiple case records the count as the value.
func ExactlyOne(option, noneMsg, manyMsg string, sources ...bool) error {
	count := 0
	for _, set := range sources {
		if set {
			count++
		}
	}

	switch {
	case count == 0:
		return &xoerrors.ConfigError{Option: option, Message: noneMsg}
	case count > 1:
		return &xoerrors.ConfigError{Option: option, Value: count, Message: manyMsg}
	}
	return nil
}

package mcpserver

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/spf13/afero"

	"github.com/xmloverrides/xmloverrides/internal/options"
	"github.com/xmloverrides/xmloverrides/overrides"
	"github.com/xmloverrides/xmloverrides/xmldoc"
)

// appFs is the filesystem application directories and resource files are read
// from. Tests swap it for an in-memory one.
var appFs afero.Fs = afero.NewOsFs()

// session is shared by all tool calls so override documents are loaded once per
// server lifetime when caching is enabled.
var session = newSession()

func newSession() *overrides.Overrides {
	o := overrides.NewOverrides(cfg.OverrideFiles)
	o.Fs = appFs
	o.CacheDocuments = cfg.CacheDocuments
	return o
}

// resourceInput represents the two ways a resource can be provided to a tool.
// Exactly one of File or Content must be set.
type resourceInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to the resource file on disk"`
	Content string `json:"content,omitempty" jsonschema:"Inline resource content"`
	Name    string `json:"name,omitempty"    jsonschema:"Resource name matched against override blocks. Defaults to the file's base name; required with content."`
}

// overridesInput selects the override documents and strictness for a call.
type overridesInput struct {
	AppPath          string
	OverrideFiles    []string
	StrictTargets    *bool
	StrictProperties *bool
}

// overrides returns the session instance with the call's strictness applied.
func (in overridesInput) overrides() *overrides.Overrides {
	strictTargets, strictProperties := cfg.StrictTargets, cfg.StrictProperties
	if in.StrictTargets != nil {
		strictTargets = *in.StrictTargets
	}
	if in.StrictProperties != nil {
		strictProperties = *in.StrictProperties
	}
	return session.WithStrictness(strictTargets, strictProperties)
}

// files returns the requested override list, or nil for the session default.
func (in overridesInput) files() []string {
	var out []string
	for _, f := range in.OverrideFiles {
		out = append(out, overrides.SplitFileList(f)...)
	}
	return out
}

// read returns the raw resource bytes and the name used to select override blocks.
func (s resourceInput) read() ([]byte, string, error) {
	const msg = "exactly one of file or content must be provided"
	if err := options.ExactlyOne("resource", msg, msg, s.File != "", s.Content != ""); err != nil {
		return nil, "", err
	}

	if s.Content != "" {
		if int64(len(s.Content)) > cfg.MaxInlineSize {
			return nil, "", fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set XMLOVERRIDES_MAX_INLINE_SIZE to increase",
				len(s.Content), cfg.MaxInlineSize)
		}
		if s.Name == "" {
			return nil, "", fmt.Errorf("name is required with inline content")
		}
		return []byte(s.Content), s.Name, nil
	}

	data, err := afero.ReadFile(appFs, s.File)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read resource: %w", err)
	}
	name := s.Name
	if name == "" {
		name = filepath.Base(s.File)
	}
	return data, name, nil
}

// document parses the resource as XML.
func (s resourceInput) document() (*etree.Document, string, error) {
	data, name, err := s.read()
	if err != nil {
		return nil, "", err
	}
	source := s.File
	if source == "" {
		source = path.Base(name)
	}
	doc, err := xmldoc.Parse(data, source)
	if err != nil {
		return nil, "", err
	}
	return doc, name, nil
}

// lines decodes the resource as text.
func (s resourceInput) lines() ([]string, string, error) {
	data, name, err := s.read()
	if err != nil {
		return nil, "", err
	}
	lines, err := overrides.ReadLines(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode resource: %w", err)
	}
	return lines, name, nil
}

// joinLines renders lines with a trailing newline, as text resources are written.
func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

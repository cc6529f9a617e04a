// Package xmldoc loads, copies, and serialises the XML documents handled by the override
// engine.
//
// Documents are github.com/beevik/etree trees. Whitespace-only text between elements is
// dropped on load, so text() selectors only see authored text and serialisation can
// re-indent freely.
package xmldoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/beevik/etree"
	"github.com/spf13/afero"

	"github.com/xmloverrides/xmloverrides/xoerrors"
)

// DefaultIndent is the number of spaces used by Marshal.
const DefaultIndent = 2

// Parse parses XML bytes into a document. The path is only used in error messages.
func Parse(data []byte, path string) (*etree.Document, error) {
	return ParseReader(bytes.NewReader(data), path)
}

// ParseReader parses XML from r into a document.
func ParseReader(r io.Reader, path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		pe := &xoerrors.ParseError{Path: path, Cause: err}
		var se *xml.SyntaxError
		if errors.As(err, &se) {
			pe.Line = se.Line
			pe.Cause = errors.New(se.Msg)
		}
		return nil, pe
	}
	if doc.Root() == nil {
		return nil, &xoerrors.ParseError{Path: path, Message: "document has no root element"}
	}
	StripBlankText(doc.Root())
	return doc, nil
}

// LoadFile reads and parses an XML file from fsys.
func LoadFile(fsys afero.Fs, path string) (*etree.Document, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, &xoerrors.ResourceError{Name: path, Cause: err}
	}
	return Parse(data, path)
}

// StripBlankText removes whitespace-only text nodes from el and its descendants.
// CDATA sections are kept.
func StripBlankText(el *etree.Element) {
	var blank []etree.Token
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			if t.IsWhitespace() && !t.IsCData() {
				blank = append(blank, t)
			}
		case *etree.Element:
			StripBlankText(t)
		}
	}
	for _, tok := range blank {
		el.RemoveChild(tok)
	}
}

// Clone returns a deep copy of el detached from any parent.
func Clone(el *etree.Element) *etree.Element {
	if el == nil {
		return nil
	}
	return el.Copy()
}

// NewDocument wraps root in a new document with an XML declaration.
func NewDocument(root *etree.Element) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	if root != nil {
		doc.SetRoot(root)
	}
	return doc
}

// Marshal serialises doc with the given indentation. The document itself is not
// modified; indentation is applied to a copy.
func Marshal(doc *etree.Document, indent int) ([]byte, error) {
	if doc == nil || doc.Root() == nil {
		return nil, fmt.Errorf("xmldoc: nothing to marshal")
	}
	c := doc.Copy()
	if indent > 0 {
		c.Indent(indent)
	}
	data, err := c.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("xmldoc: failed to marshal: %w", err)
	}
	return data, nil
}

// MarshalElement serialises a single element as a standalone document.
func MarshalElement(el *etree.Element, indent int) ([]byte, error) {
	return Marshal(NewDocument(Clone(el)), indent)
}

// String returns the compact serialisation of el, for logs and test diagnostics.
func String(el *etree.Element) string {
	if el == nil {
		return ""
	}
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return fmt.Sprintf("<!-- %v -->", err)
	}
	return s
}

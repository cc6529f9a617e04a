// Package testutil provides test utilities and fixtures for unit tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v4"

	"github.com/xmloverrides/xmloverrides/xmldoc"
)

// AppPath is the application root used by NewWebapp.
const AppPath = "/srv/webapp"

// ConfigXML is a small base configuration with the shapes override tests touch:
// nested elements, attributes, repeated siblings and text.
const ConfigXML = `<?xml version="1.0" encoding="UTF-8"?>
<config>
  <default>
    <language>eng</language>
    <gui removeAtt="toBeRemoved">
      <xml name="countries" file="xml/countries.xml"/>
      <xml name="strings" file="xml/strings.xml"/>
      <toRemove/>
    </gui>
  </default>
  <resources>
    <resource><name>main</name><url>jdbc:a</url></resource>
    <resource><name>backup</name><url>jdbc:b</url></resource>
  </resources>
</config>
`

// InitSQL is a small SQL initialisation script.
const InitSQL = `CREATE TABLE Settings
  (
    id int,
    parent int,
    name varchar(64),
    value varchar(256),
    primary key(id)
  );
-- seed data
INSERT INTO Settings VALUES (21,20,'host','127.0.0.1');
INSERT INTO Settings VALUES (23,20,'obsolete','true');
`

// NewWebapp creates an in-memory filesystem holding files under AppPath. Keys are
// paths relative to the application root, e.g. "WEB-INF/overrides-config.xml".
func NewWebapp(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, content := range files {
		path := filepath.Join(AppPath, filepath.FromSlash(name))
		if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return fsys
}

// Overrides wraps sections in an <overrides> root element.
func Overrides(sections ...string) string {
	return "<overrides>\n" + strings.Join(sections, "\n") + "\n</overrides>\n"
}

// ParseXML parses s and returns its root element, failing the test on error.
func ParseXML(t *testing.T, s string) *etree.Element {
	t.Helper()
	doc, err := xmldoc.Parse([]byte(s), "inline.xml")
	if err != nil {
		t.Fatalf("failed to parse XML: %v", err)
	}
	return doc.Root()
}

// WriteTempYAML writes a document to a temporary YAML file and returns its path.
func WriteTempYAML(t *testing.T, doc any) string {
	t.Helper()
	data, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("failed to marshal YAML: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write YAML file: %v", err)
	}
	return path
}

// WriteTempFile writes content to name inside a temporary directory and returns
// the full path.
func WriteTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

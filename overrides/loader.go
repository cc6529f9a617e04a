package overrides

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/spf13/afero"

	"github.com/xmloverrides/xmloverrides/xmldoc"
	"github.com/xmloverrides/xmloverrides/xoerrors"
)

// ResourceLoader loads resources named relative to an application root.
type ResourceLoader interface {
	// LoadXMLResource loads an override document with its imports expanded.
	LoadXMLResource(name string) (*etree.Element, error)
	// ReadResource returns the raw bytes of a resource.
	ReadResource(name string) ([]byte, error)
}

// FileLoader resolves resources inside an application directory on an afero
// filesystem.
type FileLoader struct {
	// Fs is the filesystem to read from. Nil means the OS filesystem.
	Fs afero.Fs
	// AppPath is the application root directory.
	AppPath string
}

// NewFileLoader creates a loader for appPath on fsys.
func NewFileLoader(fsys afero.Fs, appPath string) *FileLoader {
	return &FileLoader{Fs: fsys, AppPath: appPath}
}

var _ ResourceLoader = (*FileLoader)(nil)

func (l *FileLoader) fs() afero.Fs {
	if l.Fs == nil {
		return afero.NewOsFs()
	}
	return l.Fs
}

// Candidates returns the locations Resolve tries for name, in order.
func (l *FileLoader) Candidates(name string) []string {
	var out []string
	rel := filepath.FromSlash(strings.TrimPrefix(name, "/"))
	if l.AppPath != "" {
		out = append(out, filepath.Join(l.AppPath, rel))
		if !strings.HasPrefix(filepath.ToSlash(rel), "WEB-INF/") {
			out = append(out, filepath.Join(l.AppPath, "WEB-INF", rel))
		}
	} else {
		out = append(out, rel)
	}
	if filepath.IsAbs(name) {
		out = append(out, filepath.Clean(name))
	}
	return out
}

// Resolve locates name. The first existing regular file among Candidates wins.
// A resource that exists nowhere is reported with found == false and a nil error.
func (l *FileLoader) Resolve(name string) (path string, found bool, err error) {
	if strings.TrimSpace(name) == "" {
		return "", false, nil
	}
	for _, candidate := range l.Candidates(name) {
		ok, err := isFile(l.fs(), candidate)
		if err != nil {
			return "", false, &xoerrors.ResourceError{Name: name, AppPath: l.AppPath, Cause: err}
		}
		if ok {
			return candidate, true, nil
		}
	}
	return "", false, nil
}

func isFile(fsys afero.Fs, path string) (bool, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// mustResolve is Resolve for resources that have to exist.
func (l *FileLoader) mustResolve(name string) (string, error) {
	path, found, err := l.Resolve(name)
	if err != nil {
		return "", err
	}
	if !found {
		return "", &xoerrors.ResourceError{Name: name, AppPath: l.AppPath, NotFound: true}
	}
	return path, nil
}

// ReadResource implements ResourceLoader.
func (l *FileLoader) ReadResource(name string) ([]byte, error) {
	path, err := l.mustResolve(name)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(l.fs(), path)
	if err != nil {
		return nil, &xoerrors.ResourceError{Name: name, AppPath: l.AppPath, Cause: err}
	}
	return data, nil
}

// LoadXMLResource implements ResourceLoader. Imports are expanded recursively; a
// missing resource is an error.
func (l *FileLoader) LoadXMLResource(name string) (*etree.Element, error) {
	path, err := l.mustResolve(name)
	if err != nil {
		return nil, err
	}
	return l.loadExpanded(path)
}

// LoadDocument reads and parses the XML resource name without import expansion.
func (l *FileLoader) LoadDocument(name string) (*etree.Document, error) {
	path, err := l.mustResolve(name)
	if err != nil {
		return nil, err
	}
	return xmldoc.LoadFile(l.fs(), path)
}

// loadExpanded loads the override document at the resolved path and expands its
// imports.
func (l *FileLoader) loadExpanded(path string) (*etree.Element, error) {
	im := &importer{loader: l, done: make(map[string]bool)}
	root, err := im.load(path)
	if err != nil {
		return nil, fmt.Errorf("overrides: loading %s: %w", path, err)
	}
	return root, nil
}

// SplitFileList splits a comma-separated override file list. Entries are trimmed
// and empty entries are dropped, so ",a.xml,,b.xml" yields [a.xml b.xml].
func SplitFileList(list string) []string {
	var out []string
	for _, entry := range strings.Split(list, ",") {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

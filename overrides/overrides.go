package overrides

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/beevik/etree"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/xmloverrides/xmloverrides/xoerrors"
)

// DefaultOverrideFile is the override document the Default instance looks for.
const DefaultOverrideFile = "/WEB-INF/overrides-config.xml"

// EnvOverrideFiles names the environment variable holding additional,
// comma-separated override files. Its entries are appended to every instance's list.
const EnvOverrideFiles = "XMLOVERRIDES_FILES"

// Default is the process-wide instance configured with DefaultOverrideFile.
var Default = NewOverrides(DefaultOverrideFile)

// Overrides locates override documents for an application and applies them to
// XML resources, text resources and bean definitions.
//
// The exported fields may be changed between calls. An Overrides is safe for
// concurrent use once configured.
type Overrides struct {
	// Fs is the filesystem resources are read from. Nil means the OS filesystem.
	Fs afero.Fs

	// Logger receives diagnostics. Nil discards them.
	Logger Logger

	// StrictTargets makes directives whose selector matches nothing fail.
	StrictTargets bool

	// StrictProperties makes scalar properties whose selector matches nothing fail.
	StrictProperties bool

	// Levels receives the level chosen by DoUpdateLogging. Nil means RootLevel.
	Levels LevelSetter

	// CacheDocuments keeps import-expanded override documents in memory, keyed by
	// application path and resolved file.
	CacheDocuments bool

	// Selector evaluates directive selectors. Nil means xmlpath.Default.
	Selector Selector

	files []string

	mu    sync.Mutex
	cache *documentCache
}

// documentCache may be shared by instances derived with WithStrictness.
type documentCache struct {
	mu   sync.Mutex
	docs map[cacheKey]*etree.Element
}

type cacheKey struct {
	appPath string
	path    string
}

// NewOverrides creates an instance for a comma-separated list of override files.
// Empty entries are ignored.
func NewOverrides(fileList string) *Overrides {
	return &Overrides{files: SplitFileList(fileList)}
}

// Files returns the instance's override files followed by the entries of
// EnvOverrideFiles.
func (o *Overrides) Files() []string {
	return o.effectiveFiles(nil)
}

func (o *Overrides) effectiveFiles(overrideFiles []string) []string {
	files := overrideFiles
	if files == nil {
		files = o.files
	}
	var out []string
	for _, f := range append(slices.Clone(files), SplitFileList(os.Getenv(EnvOverrideFiles))...) {
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

func (o *Overrides) logger() Logger {
	return loggerOrNop(o.Logger)
}

func (o *Overrides) interpreter() *Interpreter {
	return &Interpreter{
		Selector:         o.Selector,
		StrictTargets:    o.StrictTargets,
		StrictProperties: o.StrictProperties,
		Logger:           o.Logger,
	}
}

// Loader returns a FileLoader for appPath on the instance filesystem.
func (o *Overrides) Loader(appPath string) *FileLoader {
	return NewFileLoader(o.Fs, appPath)
}

// overrideDoc is a located and import-expanded override document.
type overrideDoc struct {
	name string
	path string
	root *etree.Element
}

// documents resolves and loads the override files for appPath. Files that do not
// exist are skipped.
func (o *Overrides) documents(overrideFiles []string, appPath string) ([]overrideDoc, error) {
	loader := o.Loader(appPath)
	var docs []overrideDoc
	for _, name := range o.effectiveFiles(overrideFiles) {
		path, found, err := loader.Resolve(name)
		if err != nil {
			return nil, err
		}
		if !found {
			o.logger().Debug("override file not found", "file", name, "appPath", appPath)
			continue
		}
		root, err := o.load(loader, path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, overrideDoc{name: name, path: path, root: root})
	}
	return docs, nil
}

// load returns the expanded document at path, from the cache when enabled. Cached
// documents are shared and must not be modified.
func (o *Overrides) load(loader *FileLoader, path string) (*etree.Element, error) {
	if !o.CacheDocuments {
		return loader.loadExpanded(path)
	}

	c := o.documentCache()
	key := cacheKey{appPath: loader.AppPath, path: path}
	c.mu.Lock()
	defer c.mu.Unlock()
	if root, ok := c.docs[key]; ok {
		return root, nil
	}
	root, err := loader.loadExpanded(path)
	if err != nil {
		return nil, err
	}
	c.docs[key] = root
	return root, nil
}

func (o *Overrides) documentCache() *documentCache {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cache == nil {
		o.cache = &documentCache{docs: make(map[cacheKey]*etree.Element)}
	}
	return o.cache
}

// ClearCache drops all cached override documents, including those seen by
// instances sharing the cache.
func (o *Overrides) ClearCache() {
	c := o.documentCache()
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.docs)
}

// WithStrictness returns a copy of o with the given strictness settings. The copy
// shares o's file list and document cache, so per-call settings can be chosen
// without reloading override documents.
func (o *Overrides) WithStrictness(strictTargets, strictProperties bool) *Overrides {
	return &Overrides{
		Fs:               o.Fs,
		Logger:           o.Logger,
		StrictTargets:    strictTargets,
		StrictProperties: strictProperties,
		Levels:           o.Levels,
		CacheDocuments:   o.CacheDocuments,
		Selector:         o.Selector,
		files:            o.files,
		cache:            o.documentCache(),
	}
}

// UpdateWithOverrides applies the override files found under appPath to target in
// place. A nil overrideFiles uses the instance list. Missing override files are
// not an error; with none found, target is left unchanged.
func (o *Overrides) UpdateWithOverrides(resourceName string, overrideFiles []string, appPath string, target *etree.Element) error {
	_, err := o.Update(resourceName, overrideFiles, appPath, target)
	return err
}

// Update is UpdateWithOverrides returning what was applied.
func (o *Overrides) Update(resourceName string, overrideFiles []string, appPath string, target *etree.Element) (*ApplyResult, error) {
	if target == nil {
		return nil, fmt.Errorf("overrides: target is nil")
	}
	docs, err := o.documents(overrideFiles, appPath)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{Resource: resourceName}
	in := o.interpreter()
	for _, doc := range docs {
		r, err := in.Apply(doc.root, resourceName, target)
		if err != nil {
			return nil, fmt.Errorf("overrides: applying %s to %s: %w", doc.path, resourceName, err)
		}
		r.OverrideFiles = []string{doc.path}
		result.merge(r)
	}
	o.logger().Info("applied overrides", "resource", resourceName, "files", len(docs),
		"applied", result.DirectivesApplied, "skipped", result.DirectivesSkipped)
	return result, nil
}

// DryRun reports what Update would do. target is not modified.
func (o *Overrides) DryRun(resourceName string, overrideFiles []string, appPath string, target *etree.Element) (*DryRunResult, error) {
	if target == nil {
		return nil, fmt.Errorf("overrides: target is nil")
	}
	docs, err := o.documents(overrideFiles, appPath)
	if err != nil {
		return nil, err
	}

	in := o.interpreter()
	work := target.Copy()
	result := &DryRunResult{}
	for _, doc := range docs {
		r, err := in.preview(doc.root, resourceName, work)
		if err != nil {
			return nil, fmt.Errorf("overrides: applying %s to %s: %w", doc.path, resourceName, err)
		}
		result.WouldApply += r.WouldApply
		result.WouldSkip += r.WouldSkip
		result.Changes = append(result.Changes, r.Changes...)
		result.Warnings = append(result.Warnings, r.Warnings...)
	}
	return result, nil
}

// LoadXMLResource loads the override document name from appPath with its imports
// expanded and no directive applied. The returned tree belongs to the caller.
func (o *Overrides) LoadXMLResource(name, appPath string) (*etree.Element, error) {
	loader := o.Loader(appPath)
	path, err := loader.mustResolve(name)
	if err != nil {
		return nil, err
	}
	root, err := o.load(loader, path)
	if err != nil {
		return nil, err
	}
	return root.Copy(), nil
}

// LoadTextFileAndUpdate reads lines from r and applies the textFile blocks for
// resourceName. UTF-8 and UTF-16 input with a byte order mark is decoded; input
// without one is read as UTF-8.
func (o *Overrides) LoadTextFileAndUpdate(resourceName string, overrideFiles []string, appPath string, r io.Reader) ([]string, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return nil, &xoerrors.ResourceError{Name: resourceName, AppPath: appPath, Cause: err}
	}
	out, _, err := o.UpdateText(resourceName, overrideFiles, appPath, lines)
	return out, err
}

// UpdateText applies the textFile blocks for resourceName to lines.
func (o *Overrides) UpdateText(resourceName string, overrideFiles []string, appPath string, lines []string) ([]string, TextResult, error) {
	docs, err := o.documents(overrideFiles, appPath)
	if err != nil {
		return nil, TextResult{}, err
	}

	var total TextResult
	in := o.interpreter()
	for _, doc := range docs {
		var res TextResult
		lines, res, err = in.ApplyTextFile(doc.root, resourceName, lines)
		if err != nil {
			return nil, total, fmt.Errorf("overrides: applying %s to %s: %w", doc.path, resourceName, err)
		}
		total.DirectivesApplied += res.DirectivesApplied
		total.DirectivesSkipped += res.DirectivesSkipped
		total.Warnings = append(total.Warnings, res.Warnings...)
	}
	return lines, total, nil
}

// UpdateBeanDefinitions applies the file blocks for resourceName and then the
// spring directives of every override document to a bean-definition tree. An
// empty resourceName applies the spring directives only.
func (o *Overrides) UpdateBeanDefinitions(resourceName string, overrideFiles []string, appPath string, target *etree.Element) (*ApplyResult, error) {
	if target == nil {
		return nil, fmt.Errorf("overrides: target is nil")
	}
	docs, err := o.documents(overrideFiles, appPath)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{Resource: resourceName}
	in := o.interpreter()
	for _, doc := range docs {
		r, err := in.Apply(doc.root, resourceName, target)
		if err != nil {
			return nil, fmt.Errorf("overrides: applying %s to %s: %w", doc.path, resourceName, err)
		}
		result.merge(r)
		b, err := in.ApplyBeans(doc.root, target)
		if err != nil {
			return nil, fmt.Errorf("overrides: applying spring section of %s: %w", doc.path, err)
		}
		result.merge(b)
		result.OverrideFiles = append(result.OverrideFiles, doc.path)
	}
	return result, nil
}

// UpdateLogging runs DoUpdateLogging for every override document found under
// appPath, in list order.
func (o *Overrides) UpdateLogging(overrideFiles []string, appPath string) error {
	docs, err := o.documents(overrideFiles, appPath)
	if err != nil {
		return err
	}
	loader := o.Loader(appPath)
	for _, doc := range docs {
		if err := o.DoUpdateLogging(doc.root, loader); err != nil {
			return fmt.Errorf("overrides: logging section of %s: %w", doc.path, err)
		}
	}
	return nil
}

// ReadLines decodes r and splits it into lines without their terminators.
func ReadLines(r io.Reader) ([]string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	sc := bufio.NewScanner(transform.NewReader(r, dec))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

package overrides

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/beevik/etree"

	"github.com/xmloverrides/xmloverrides/xmldoc"
	"github.com/xmloverrides/xmloverrides/xoerrors"
)

// importer expands import directives for one load. stack holds the resources
// currently being expanded; done holds the ones already spliced in.
type importer struct {
	loader *FileLoader
	stack  []string
	done   map[string]bool
}

// load parses the override document at path and splices its imports into it.
// It returns nil when path was already expanded during this load.
func (im *importer) load(path string) (*etree.Element, error) {
	if slices.Contains(im.stack, path) {
		chain := append(slices.Clone(im.stack), path)
		return nil, &xoerrors.ImportCycleError{Chain: chain}
	}
	if im.done[path] {
		return nil, nil
	}

	doc, err := xmldoc.LoadFile(im.loader.fs(), path)
	if err != nil {
		return nil, err
	}
	root := doc.Root()

	im.stack = append(im.stack, path)
	defer func() { im.stack = im.stack[:len(im.stack)-1] }()

	var imports []*etree.Element
	for _, child := range root.ChildElements() {
		if child.Tag == SectionImport {
			imports = append(imports, child)
		}
	}
	for _, imp := range imports {
		root.RemoveChild(imp)
	}

	for _, imp := range imports {
		target, err := im.resolveImport(path, imp)
		if err != nil {
			return nil, err
		}
		imported, err := im.load(target)
		if err != nil {
			return nil, err
		}
		if imported != nil {
			mergeOverrides(root, imported)
		}
	}

	im.done[path] = true
	return root, nil
}

// resolveImport finds the file referenced by an import element. Names starting
// with "/" go through the application resolver, others are relative to the
// importing document.
func (im *importer) resolveImport(from string, imp *etree.Element) (string, error) {
	name := strings.TrimSpace(imp.SelectAttrValue("file", ""))
	if name == "" {
		return "", &xoerrors.DirectiveError{Name: SectionImport, Message: "missing file attribute in " + from}
	}
	if strings.HasPrefix(name, "/") {
		return im.loader.mustResolve(name)
	}
	path := filepath.Join(filepath.Dir(from), filepath.FromSlash(name))
	ok, err := isFile(im.loader.fs(), path)
	if err != nil {
		return "", &xoerrors.ResourceError{Name: name, AppPath: im.loader.AppPath, Cause: err}
	}
	if !ok {
		return "", &xoerrors.ResourceError{
			Name:     name,
			AppPath:  im.loader.AppPath,
			NotFound: true,
			Message:  "imported from " + from,
		}
	}
	return path, nil
}

// mergeOverrides moves the sections of src to the end of dst. Properties merge into
// a single block where the first definition of a name wins. Blocks for the same
// file or textFile name merge into one, and spring and logging sections are
// concatenated.
func mergeOverrides(dst, src *etree.Element) {
	for _, section := range src.ChildElements() {
		var existing *etree.Element
		switch section.Tag {
		case SectionProperties, SectionSpring, SectionLogging:
			existing = dst.SelectElement(section.Tag)
		case SectionFile, SectionTextFile:
			existing = findBlock(dst, section.Tag, section.SelectAttrValue("name", ""))
		}

		if existing == nil {
			src.RemoveChild(section)
			dst.AddChild(section)
			continue
		}

		for _, child := range section.ChildElements() {
			if section.Tag == SectionProperties && existing.SelectElement(child.Tag) != nil {
				continue
			}
			section.RemoveChild(child)
			existing.AddChild(child)
		}
	}
}

func findBlock(root *etree.Element, tag, name string) *etree.Element {
	for _, el := range root.SelectElements(tag) {
		if el.SelectAttrValue("name", "") == name {
			return el
		}
	}
	return nil
}

// Package beans reloads bean-definition documents, applies override documents to
// them and hands the result to a container.
//
// A Context pairs the location of the base definitions with the override facade:
//
//	bc := &beans.Context{
//	    AppPath:        "webapp",
//	    ConfigLocation: "/WEB-INF/applicationContext.xml",
//	    Container:      beans.NewRegistry(),
//	}
//	if _, err := bc.Refresh(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Every refresh reads the base definitions again, so repeated refreshes give the
// container the same state.
package beans

import (
	"context"
	"fmt"
	"path"
	"slices"
	"sync"

	"github.com/beevik/etree"
	"github.com/spf13/afero"

	"github.com/xmloverrides/xmloverrides/overrides"
)

// DefaultConfigLocation is used when Context.ConfigLocation is empty.
const DefaultConfigLocation = "/WEB-INF/applicationContext.xml"

// Container receives bean definitions after overrides were applied.
type Container interface {
	// Load replaces the container's definitions with those of doc.
	Load(ctx context.Context, doc *etree.Document) error
}

// Context drives refreshes of a container from bean-definition files.
type Context struct {
	// Overrides applies the override files. Nil means overrides.Default.
	Overrides *overrides.Overrides

	// AppPath is the application root definitions and override files are resolved
	// against.
	AppPath string

	// ConfigLocation is a comma-separated list of bean-definition resources.
	// Empty means DefaultConfigLocation.
	ConfigLocation string

	// Container receives the updated definitions. Required.
	Container Container

	// Fs is the filesystem the definitions are read from. Nil means the OS
	// filesystem.
	Fs afero.Fs

	// Logger receives diagnostics. Nil discards them.
	Logger overrides.Logger

	mu        sync.Mutex
	refreshes int
}

// RefreshResult describes one refresh.
type RefreshResult struct {
	// Document holds the merged, updated definitions handed to the container.
	Document *etree.Document

	// Applied sums the directives applied during the refresh.
	Applied *overrides.ApplyResult

	// Count is the number of successful refreshes of the context, this one included.
	Count int
}

func (c *Context) overrides() *overrides.Overrides {
	if c.Overrides == nil {
		return overrides.Default
	}
	return c.Overrides
}

func (c *Context) locations() []string {
	locs := overrides.SplitFileList(c.ConfigLocation)
	if len(locs) == 0 {
		return []string{DefaultConfigLocation}
	}
	return locs
}

// Refresh loads every configured bean-definition resource fresh and applies the
// file blocks naming it. The definitions are then merged into the first document,
// the spring section of the override files runs once against the merged beans, and
// the result is loaded into the container. The container is not touched when any
// step fails.
func (c *Context) Refresh(ctx context.Context) (*RefreshResult, error) {
	if c.Container == nil {
		return nil, fmt.Errorf("beans: no container configured")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.Logger
	if log == nil {
		log = overrides.NopLogger{}
	}
	o := c.overrides()
	loader := overrides.NewFileLoader(c.Fs, c.AppPath)
	applied := &overrides.ApplyResult{}

	var merged *etree.Document
	for _, loc := range c.locations() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := loader.LoadDocument(loc)
		if err != nil {
			return nil, fmt.Errorf("beans: loading %s: %w", loc, err)
		}
		r, err := o.Update(path.Base(loc), nil, c.AppPath, doc.Root())
		if err != nil {
			return nil, fmt.Errorf("beans: %w", err)
		}
		addResult(applied, r)

		if merged == nil {
			merged = doc
			continue
		}
		for _, el := range doc.Root().ChildElements() {
			merged.Root().AddChild(el)
		}
	}

	// No resource name: only the spring section applies.
	r, err := o.UpdateBeanDefinitions("", nil, c.AppPath, merged.Root())
	if err != nil {
		return nil, fmt.Errorf("beans: %w", err)
	}
	addResult(applied, r)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.Container.Load(ctx, merged); err != nil {
		return nil, fmt.Errorf("beans: container refused definitions: %w", err)
	}
	c.refreshes++
	log.Info("bean definitions refreshed", "locations", len(c.locations()),
		"applied", applied.DirectivesApplied, "refresh", c.refreshes)
	return &RefreshResult{Document: merged, Applied: applied, Count: c.refreshes}, nil
}

func addResult(dst, src *overrides.ApplyResult) {
	dst.DirectivesApplied += src.DirectivesApplied
	dst.DirectivesSkipped += src.DirectivesSkipped
	dst.Changes = append(dst.Changes, src.Changes...)
	dst.Warnings = append(dst.Warnings, src.Warnings...)
	for _, f := range src.OverrideFiles {
		if !slices.Contains(dst.OverrideFiles, f) {
			dst.OverrideFiles = append(dst.OverrideFiles, f)
		}
	}
}

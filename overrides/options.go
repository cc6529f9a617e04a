package overrides

import (
	"fmt"
	"path/filepath"

	"github.com/beevik/etree"
	"github.com/spf13/afero"

	"github.com/xmloverrides/xmloverrides/internal/options"
	"github.com/xmloverrides/xmloverrides/xmldoc"
	"github.com/xmloverrides/xmloverrides/xoerrors"
)

// Option is a function that configures an UpdateWithOptions call.
type Option func(*updateConfig) error

// updateConfig holds configuration for an UpdateWithOptions call.
type updateConfig struct {
	// Base resource (exactly one must be set)
	resourcePath *string
	resourceDoc  *etree.Document

	resourceName  string
	appPath       string
	overrideFiles []string

	strictTargets    bool
	strictProperties bool
	dryRun           bool

	fs     afero.Fs
	logger Logger
}

// UpdateResult is the outcome of UpdateWithOptions.
type UpdateResult struct {
	// Document is the updated copy of the base resource. For a dry run it is an
	// unchanged copy.
	Document *etree.Document

	// Applied describes what was applied. Nil for a dry run.
	Applied *ApplyResult

	// DryRun describes what would be applied. Nil unless WithDryRun was set.
	DryRun *DryRunResult
}

// WithResourcePath reads the base resource from a file. Unless WithResourceName is
// given, the file's base name selects the file blocks.
func WithResourcePath(path string) Option {
	return func(cfg *updateConfig) error {
		if path == "" {
			return &xoerrors.ConfigError{Option: "WithResourcePath", Message: "path cannot be empty"}
		}
		cfg.resourcePath = &path
		return nil
	}
}

// WithResourceDocument uses an already-parsed base resource. The document is copied,
// never modified.
func WithResourceDocument(doc *etree.Document) Option {
	return func(cfg *updateConfig) error {
		if doc == nil || doc.Root() == nil {
			return &xoerrors.ConfigError{Option: "WithResourceDocument", Message: "document has no root element"}
		}
		cfg.resourceDoc = doc
		return nil
	}
}

// WithResourceName sets the name matched against file block names.
func WithResourceName(name string) Option {
	return func(cfg *updateConfig) error {
		cfg.resourceName = name
		return nil
	}
}

// WithAppPath sets the application root override files are resolved against.
func WithAppPath(appPath string) Option {
	return func(cfg *updateConfig) error {
		cfg.appPath = appPath
		return nil
	}
}

// WithOverrideFiles sets the override files to look for, replacing
// DefaultOverrideFile.
func WithOverrideFiles(files ...string) Option {
	return func(cfg *updateConfig) error {
		cfg.overrideFiles = append(cfg.overrideFiles, files...)
		return nil
	}
}

// WithStrictTargets makes directives whose selector matches nothing fail.
func WithStrictTargets(strict bool) Option {
	return func(cfg *updateConfig) error {
		cfg.strictTargets = strict
		return nil
	}
}

// WithStrictProperties makes scalar properties whose selector matches nothing fail.
func WithStrictProperties(strict bool) Option {
	return func(cfg *updateConfig) error {
		cfg.strictProperties = strict
		return nil
	}
}

// WithFs sets the filesystem for the base resource and the override files.
func WithFs(fsys afero.Fs) Option {
	return func(cfg *updateConfig) error {
		if fsys == nil {
			return &xoerrors.ConfigError{Option: "WithFs", Message: "filesystem cannot be nil"}
		}
		cfg.fs = fsys
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(cfg *updateConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithDryRun previews the update instead of applying it.
func WithDryRun(dryRun bool) Option {
	return func(cfg *updateConfig) error {
		cfg.dryRun = dryRun
		return nil
	}
}

// applyOptions applies all options and validates the configuration.
func applyOptions(opts ...Option) (*updateConfig, error) {
	cfg := &updateConfig{fs: afero.NewOsFs()}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := options.ExactlyOne("",
		"must specify a resource (use WithResourcePath or WithResourceDocument)",
		"must specify exactly one resource",
		cfg.resourcePath != nil, cfg.resourceDoc != nil,
	); err != nil {
		return nil, err
	}

	if cfg.resourceName == "" {
		if cfg.resourcePath == nil {
			return nil, &xoerrors.ConfigError{Option: "WithResourceName", Message: "required with WithResourceDocument"}
		}
		cfg.resourceName = filepath.Base(*cfg.resourcePath)
	}
	if cfg.overrideFiles == nil {
		cfg.overrideFiles = []string{DefaultOverrideFile}
	}
	return cfg, nil
}

// UpdateWithOptions loads a base resource and applies override files to a copy of it.
//
// Example:
//
//	result, err := overrides.UpdateWithOptions(
//	    overrides.WithResourcePath("webapp/WEB-INF/config.xml"),
//	    overrides.WithAppPath("webapp"),
//	    overrides.WithStrictTargets(true),
//	)
func UpdateWithOptions(opts ...Option) (*UpdateResult, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("overrides: invalid options: %w", err)
	}

	var doc *etree.Document
	if cfg.resourcePath != nil {
		if doc, err = xmldoc.LoadFile(cfg.fs, *cfg.resourcePath); err != nil {
			return nil, err
		}
	} else {
		doc = cfg.resourceDoc.Copy()
	}

	o := &Overrides{
		Fs:               cfg.fs,
		Logger:           cfg.logger,
		StrictTargets:    cfg.strictTargets,
		StrictProperties: cfg.strictProperties,
		files:            cfg.overrideFiles,
	}

	if cfg.dryRun {
		preview, err := o.DryRun(cfg.resourceName, nil, cfg.appPath, doc.Root())
		if err != nil {
			return nil, err
		}
		return &UpdateResult{Document: doc, DryRun: preview}, nil
	}

	applied, err := o.Update(cfg.resourceName, nil, cfg.appPath, doc.Root())
	if err != nil {
		return nil, err
	}
	return &UpdateResult{Document: doc, Applied: applied}, nil
}

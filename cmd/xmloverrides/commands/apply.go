package commands

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/xmloverrides/xmloverrides"
	"github.com/xmloverrides/xmloverrides/overrides"
	"github.com/xmloverrides/xmloverrides/xmldoc"
)

// ApplyFlags contains flags for the apply command
type ApplyFlags struct {
	common commonFlags
	Name   string
	Output string
	Format string
	Spring bool
	DryRun bool
	Quiet  bool
}

// SetupApplyFlags creates and configures a FlagSet for the apply command.
// Returns the FlagSet and an ApplyFlags struct with bound flag variables.
func SetupApplyFlags() (*flag.FlagSet, *ApplyFlags) {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	flags := &ApplyFlags{}

	flags.common.register(fs)
	fs.StringVar(&flags.Name, "name", "", "resource name matched against file block names (default: base name of the resource file)")
	fs.StringVar(&flags.Output, "o", "", "output file path (default: stdout)")
	fs.StringVar(&flags.Output, "output", "", "output file path (default: stdout)")
	fs.StringVar(&flags.Format, "format", FormatText, "dry-run report format: text, json, or yaml")
	fs.BoolVar(&flags.Spring, "spring", false, "apply the spring section to bean definitions as well")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "preview changes without applying")
	fs.BoolVar(&flags.DryRun, "n", false, "preview changes without applying")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only output the document, no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only output the document, no diagnostic messages")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: xmloverrides apply [flags] <resource.xml>\n\n")
		Writef(fs.Output(), "Apply the override files of an application to an XML resource.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  xmloverrides apply --app /srv/webapp /srv/webapp/WEB-INF/config.xml\n")
		Writef(fs.Output(), "  xmloverrides apply --app . --overrides prod.xml,local.xml -o out.xml config.xml\n")
		Writef(fs.Output(), "  xmloverrides apply --app . --dry-run --format json config.xml\n")
		Writef(fs.Output(), "  cat config.xml | xmloverrides apply --app . --name config.xml -\n")
		Writef(fs.Output(), "\nNotes:\n")
		Writef(fs.Output(), "  - Use '-' as the resource path to read from stdin; --name is then required\n")
		Writef(fs.Output(), "  - Override files are applied in order; XMLOVERRIDES_FILES entries are appended\n")
		Writef(fs.Output(), "  - Output files are written with owner-only permissions and never through symlinks\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    Overrides applied (or previewed) successfully\n")
		Writef(fs.Output(), "  1    A resource, override file or directive failed\n")
	}

	return fs, flags
}

// resourceName returns the name file blocks are matched against.
func resourceName(path, name string) (string, error) {
	if name != "" {
		return name, nil
	}
	if path == StdinFilePath {
		return "", fmt.Errorf("--name is required when reading the resource from stdin")
	}
	return filepath.Base(path), nil
}

// HandleApply executes the apply command
func HandleApply(args []string) error {
	fs, flags := SetupApplyFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("apply requires exactly one resource file")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}
	if flags.DryRun && flags.Spring {
		return fmt.Errorf("--dry-run cannot be combined with --spring")
	}

	cfg, err := flags.common.resolve(fs)
	if err != nil {
		return err
	}

	path := fs.Arg(0)
	name, err := resourceName(path, flags.Name)
	if err != nil {
		return err
	}
	data, err := readInput(path)
	if err != nil {
		return err
	}
	doc, err := xmldoc.Parse(data, path)
	if err != nil {
		return err
	}

	o := cfg.Overrides()
	startTime := time.Now()

	if flags.DryRun {
		dryResult, err := o.DryRun(name, nil, cfg.AppPath, doc.Root())
		if err != nil {
			return fmt.Errorf("dry-run overrides: %w", err)
		}
		return printDryRun(dryResult, flags.Format, name)
	}

	var result *overrides.ApplyResult
	if flags.Spring {
		result, err = o.UpdateBeanDefinitions(name, nil, cfg.AppPath, doc.Root())
	} else {
		result, err = o.Update(name, nil, cfg.AppPath, doc.Root())
	}
	if err != nil {
		return fmt.Errorf("applying overrides: %w", err)
	}
	totalTime := time.Since(startTime)

	out, err := xmldoc.Marshal(doc, xmldoc.DefaultIndent)
	if err != nil {
		return fmt.Errorf("marshaling result document: %w", err)
	}
	if err := writeResult(flags.Output, out); err != nil {
		return err
	}

	if !flags.Quiet {
		Writef(Stderr, "XML Overrides Application\n")
		Writef(Stderr, "=========================\n\n")
		Writef(Stderr, "xmloverrides version: %s\n", xmloverrides.Version())
		Writef(Stderr, "Resource: %s\n", name)
		Writef(Stderr, "Override files: %d\n", len(result.OverrideFiles))
		for _, f := range result.OverrideFiles {
			Writef(Stderr, "  - %s\n", f)
		}
		Writef(Stderr, "Total Time: %v\n\n", totalTime)
		printApplyResult(result)
	}
	return nil
}

func printApplyResult(result *overrides.ApplyResult) {
	Writef(Stderr, "Directives applied: %d\n", result.DirectivesApplied)
	Writef(Stderr, "Directives skipped: %d\n", result.DirectivesSkipped)

	if len(result.Changes) > 0 {
		Writef(Stderr, "\nChanges:\n")
		for _, change := range result.Changes {
			Writef(Stderr, "  %s[%d] %s: %s (%d match(es))\n",
				change.Block, change.Index, change.Directive, change.Selector, change.MatchCount)
		}
	}
	if len(result.Warnings) > 0 {
		Writef(Stderr, "\nWarnings:\n")
		for _, warning := range result.Warnings {
			Writef(Stderr, "  - %s\n", warning)
		}
	}

	Writef(Stderr, "\n")
	if result.DirectivesSkipped == 0 {
		Writef(Stderr, "✓ Overrides applied successfully\n")
	} else {
		Writef(Stderr, "✓ Overrides applied with %d skipped directive(s)\n", result.DirectivesSkipped)
	}
}

// dryRunReport is the structured form of a dry run.
type dryRunReport struct {
	Resource   string         `json:"resource" yaml:"resource"`
	WouldApply int            `json:"wouldApply" yaml:"wouldApply"`
	WouldSkip  int            `json:"wouldSkip" yaml:"wouldSkip"`
	Changes    []dryRunChange `json:"changes,omitempty" yaml:"changes,omitempty"`
	Warnings   []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type dryRunChange struct {
	Block        string   `json:"block" yaml:"block"`
	Index        int      `json:"index" yaml:"index"`
	Directive    string   `json:"directive" yaml:"directive"`
	Selector     string   `json:"selector" yaml:"selector"`
	MatchCount   int      `json:"matchCount" yaml:"matchCount"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	MatchedPaths []string `json:"matchedPaths,omitempty" yaml:"matchedPaths,omitempty"`
}

func printDryRun(dryResult *overrides.DryRunResult, format, name string) error {
	if format != FormatText {
		report := dryRunReport{
			Resource:   name,
			WouldApply: dryResult.WouldApply,
			WouldSkip:  dryResult.WouldSkip,
			Warnings:   dryResult.Warnings.Strings(),
		}
		for _, c := range dryResult.Changes {
			report.Changes = append(report.Changes, dryRunChange{
				Block:        c.Block,
				Index:        c.Index,
				Directive:    c.Directive,
				Selector:     c.Selector,
				MatchCount:   c.MatchCount,
				Description:  c.Description,
				MatchedPaths: c.MatchedPaths,
			})
		}
		return OutputStructured(Stdout, report, format)
	}

	Writef(Stdout, "XML Overrides Dry Run\n")
	Writef(Stdout, "=====================\n\n")
	Writef(Stdout, "Resource: %s\n", name)
	Writef(Stdout, "Would apply: %d directive(s)\n", dryResult.WouldApply)
	Writef(Stdout, "Would skip:  %d directive(s)\n", dryResult.WouldSkip)

	if len(dryResult.Changes) > 0 {
		Writef(Stdout, "\nProposed Changes:\n")
		for _, change := range dryResult.Changes {
			desc := change.Description
			if desc == "" {
				desc = change.Selector
			}
			Writef(Stdout, "  %s[%d] %s: %s (%d match(es))\n",
				change.Block, change.Index, change.Directive, desc, change.MatchCount)
			for _, path := range change.MatchedPaths {
				Writef(Stdout, "       → %s\n", path)
			}
		}
	}
	if len(dryResult.Warnings) > 0 {
		Writef(Stdout, "\nWarnings:\n")
		for _, warning := range dryResult.Warnings {
			Writef(Stdout, "  - %s\n", warning)
		}
	}

	Writef(Stdout, "\n")
	if dryResult.HasChanges() {
		Writef(Stdout, "No changes were made (dry-run mode)\n")
	} else {
		Writef(Stdout, "No changes would be made\n")
	}
	return nil
}

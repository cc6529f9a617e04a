package commands

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/xmloverrides/xmloverrides/overrides"
	"github.com/xmloverrides/xmloverrides/xmldoc"
)

// InspectFlags contains flags for the inspect command
type InspectFlags struct {
	common   commonFlags
	Validate bool
	Format   string
}

// SetupInspectFlags creates and configures a FlagSet for the inspect command.
// Returns the FlagSet and an InspectFlags struct with bound flag variables.
func SetupInspectFlags() (*flag.FlagSet, *InspectFlags) {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	flags := &InspectFlags{}

	flags.common.register(fs)
	fs.BoolVar(&flags.Validate, "validate", false, "only validate the override file, do not print it")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: xmloverrides inspect [flags] [override-file]\n\n")
		Writef(fs.Output(), "Load an override file with its imports merged, validate it and print it.\n")
		Writef(fs.Output(), "Without an argument the first configured override file is inspected.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  xmloverrides inspect --app /srv/webapp\n")
		Writef(fs.Output(), "  xmloverrides inspect --app . --validate WEB-INF/prod-overrides.xml\n")
		Writef(fs.Output(), "  xmloverrides inspect --app . --format json\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    Override file is valid\n")
		Writef(fs.Output(), "  1    Override file is invalid or could not be loaded\n")
	}

	return fs, flags
}

// InspectProperty is a property declared by an override file.
type InspectProperty struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
	XPath string `json:"xpath,omitempty" yaml:"xpath,omitempty"`
}

// InspectBlock is a file, textFile, spring or logging section.
type InspectBlock struct {
	Section    string `json:"section" yaml:"section"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Directives int    `json:"directives" yaml:"directives"`
}

// InspectReport is the structured output of the inspect command.
type InspectReport struct {
	File       string            `json:"file" yaml:"file"`
	Valid      bool              `json:"valid" yaml:"valid"`
	Errors     []string          `json:"errors,omitempty" yaml:"errors,omitempty"`
	Properties []InspectProperty `json:"properties,omitempty" yaml:"properties,omitempty"`
	Blocks     []InspectBlock    `json:"blocks,omitempty" yaml:"blocks,omitempty"`
}

func buildInspectReport(file string, root *etree.Element) *InspectReport {
	report := &InspectReport{File: file}
	for _, err := range overrides.Validate(root) {
		report.Errors = append(report.Errors, err.Error())
	}
	report.Valid = len(report.Errors) == 0

	for _, section := range root.SelectElements(overrides.SectionProperties) {
		for _, p := range section.ChildElements() {
			report.Properties = append(report.Properties, InspectProperty{
				Name:  p.Tag,
				Value: strings.TrimSpace(p.Text()),
				XPath: p.SelectAttrValue("xpath", ""),
			})
		}
	}
	for _, el := range root.ChildElements() {
		switch el.Tag {
		case overrides.SectionFile, overrides.SectionTextFile, overrides.SectionSpring, overrides.SectionLogging:
			report.Blocks = append(report.Blocks, InspectBlock{
				Section:    el.Tag,
				Name:       el.SelectAttrValue("name", ""),
				Directives: len(el.ChildElements()),
			})
		}
	}
	return report
}

// HandleInspect executes the inspect command
func HandleInspect(args []string) error {
	fs, flags := SetupInspectFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() > 1 {
		fs.Usage()
		return fmt.Errorf("inspect accepts at most one override file")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	cfg, err := flags.common.resolve(fs)
	if err != nil {
		return err
	}
	o := cfg.Overrides()

	file := fs.Arg(0)
	if file == "" {
		files := o.Files()
		if len(files) == 0 {
			return fmt.Errorf("no override files configured")
		}
		file = files[0]
	}

	root, err := o.LoadXMLResource(file, cfg.AppPath)
	if err != nil {
		return err
	}
	report := buildInspectReport(file, root)

	switch {
	case flags.Format != FormatText:
		if err := OutputStructured(Stdout, report, flags.Format); err != nil {
			return err
		}
	case flags.Validate:
		if report.Valid {
			Writef(Stdout, "✓ %s is valid (%d block(s), %d propert(ies))\n", file, len(report.Blocks), len(report.Properties))
		}
	default:
		data, err := xmldoc.MarshalElement(root, xmldoc.DefaultIndent)
		if err != nil {
			return fmt.Errorf("marshaling override file: %w", err)
		}
		if _, err := Stdout.Write(data); err != nil {
			return fmt.Errorf("writing result to stdout: %w", err)
		}
	}

	if !report.Valid {
		if flags.Format == FormatText {
			Writef(Stderr, "\nErrors (%d):\n", len(report.Errors))
			for _, e := range report.Errors {
				Writef(Stderr, "  - %s\n", e)
			}
		}
		return fmt.Errorf("%s has %d validation error(s)", file, len(report.Errors))
	}
	return nil
}

package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/xmloverrides/xmloverrides/beans"
	"github.com/xmloverrides/xmloverrides/overrides"
	"github.com/xmloverrides/xmloverrides/xmldoc"
)

// BeansFlags contains flags for the beans command
type BeansFlags struct {
	common    commonFlags
	Locations string
	Format    string
	Document  bool
	Output    string
}

// SetupBeansFlags creates and configures a FlagSet for the beans command.
// Returns the FlagSet and a BeansFlags struct with bound flag variables.
func SetupBeansFlags() (*flag.FlagSet, *BeansFlags) {
	fs := flag.NewFlagSet("beans", flag.ContinueOnError)
	flags := &BeansFlags{}

	flags.common.register(fs)
	fs.StringVar(&flags.Locations, "locations", beans.DefaultConfigLocation, "comma-separated bean-definition resources")
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")
	fs.BoolVar(&flags.Document, "document", false, "print the merged bean-definition document instead of a summary")
	fs.StringVar(&flags.Output, "o", "", "output file path for --document (default: stdout)")
	fs.StringVar(&flags.Output, "output", "", "output file path for --document (default: stdout)")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: xmloverrides beans [flags]\n\n")
		Writef(fs.Output(), "Load bean-definition files, apply their file blocks and the spring section,\n")
		Writef(fs.Output(), "and list the resulting bean definitions.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  xmloverrides beans --app /srv/webapp\n")
		Writef(fs.Output(), "  xmloverrides beans --app . --locations /WEB-INF/a.xml,/WEB-INF/b.xml --format yaml\n")
		Writef(fs.Output(), "  xmloverrides beans --app . --document -o merged.xml\n")
	}

	return fs, flags
}

// BeanSummary describes one bean definition.
type BeanSummary struct {
	ID         string            `json:"id,omitempty" yaml:"id,omitempty"`
	Names      []string          `json:"names,omitempty" yaml:"names,omitempty"`
	Class      string            `json:"class,omitempty" yaml:"class,omitempty"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

func summarizeBean(def *beans.Definition) BeanSummary {
	s := BeanSummary{ID: def.ID, Names: def.Names, Class: def.Class}
	if len(def.Properties) > 0 {
		s.Properties = make(map[string]string, len(def.Properties))
	}
	for name, p := range def.Properties {
		switch {
		case p.Ref != "":
			s.Properties[name] = "ref:" + p.Ref
		case len(p.Values) > 0 || len(p.Refs) > 0:
			items := slices.Clone(p.Values)
			for _, r := range p.Refs {
				items = append(items, "ref:"+r)
			}
			s.Properties[name] = "[" + strings.Join(items, ", ") + "]"
		default:
			s.Properties[name] = p.Value
		}
	}
	return s
}

// HandleBeans executes the beans command
func HandleBeans(args []string) error {
	fs, flags := SetupBeansFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 0 {
		fs.Usage()
		return fmt.Errorf("beans takes no arguments")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	cfg, err := flags.common.resolve(fs)
	if err != nil {
		return err
	}

	registry := beans.NewRegistry()
	bc := &beans.Context{
		Overrides:      cfg.Overrides(),
		AppPath:        cfg.AppPath,
		ConfigLocation: flags.Locations,
		Container:      registry,
		Fs:             Fs,
		Logger:         overrides.NewSlogAdapter(newLogger()),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := bc.Refresh(ctx)
	if err != nil {
		return err
	}

	if flags.Document {
		data, err := xmldoc.Marshal(result.Document, xmldoc.DefaultIndent)
		if err != nil {
			return fmt.Errorf("marshaling bean definitions: %w", err)
		}
		return writeResult(flags.Output, data)
	}

	defs := registry.Definitions()
	summaries := make([]BeanSummary, 0, len(defs))
	for _, def := range defs {
		summaries = append(summaries, summarizeBean(def))
	}
	if flags.Format != FormatText {
		return OutputStructured(Stdout, summaries, flags.Format)
	}

	Writef(Stdout, "Beans: %d (%d directive(s) applied)\n", len(summaries), result.Applied.DirectivesApplied)
	for _, s := range summaries {
		id := s.ID
		if id == "" && len(s.Names) > 0 {
			id = s.Names[0]
		}
		Writef(Stdout, "\n%s (%s)\n", id, s.Class)
		keys := make([]string, 0, len(s.Properties))
		for k := range s.Properties {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			Writef(Stdout, "  %s = %s\n", k, s.Properties[k])
		}
	}
	return nil
}

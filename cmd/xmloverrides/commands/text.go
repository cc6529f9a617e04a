package commands

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/xmloverrides/xmloverrides/overrides"
)

// TextFlags contains flags for the text command
type TextFlags struct {
	common commonFlags
	Name   string
	Output string
	Quiet  bool
}

// SetupTextFlags creates and configures a FlagSet for the text command.
// Returns the FlagSet and a TextFlags struct with bound flag variables.
func SetupTextFlags() (*flag.FlagSet, *TextFlags) {
	fs := flag.NewFlagSet("text", flag.ContinueOnError)
	flags := &TextFlags{}

	flags.common.register(fs)
	fs.StringVar(&flags.Name, "name", "", "resource name matched against textFile block names (default: base name of the file)")
	fs.StringVar(&flags.Output, "o", "", "output file path (default: stdout)")
	fs.StringVar(&flags.Output, "output", "", "output file path (default: stdout)")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only output the text, no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only output the text, no diagnostic messages")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: xmloverrides text [flags] <file>\n\n")
		Writef(fs.Output(), "Apply the textFile blocks of an application's override files to a text file.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  xmloverrides text --app /srv/webapp /srv/webapp/WEB-INF/sql/init.sql\n")
		Writef(fs.Output(), "  xmloverrides text --app . --strict -o patched.sql init.sql\n")
		Writef(fs.Output(), "  cat init.sql | xmloverrides text --app . --name init.sql -\n")
		Writef(fs.Output(), "\nNotes:\n")
		Writef(fs.Output(), "  - Input is decoded as UTF-8 (UTF-16 with a byte order mark is accepted)\n")
		Writef(fs.Output(), "  - Output lines always end with a line feed\n")
	}

	return fs, flags
}

// HandleText executes the text command
func HandleText(args []string) error {
	fs, flags := SetupTextFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("text requires exactly one file")
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
	lines, err := overrides.ReadLines(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	lines, result, err := cfg.Overrides().UpdateText(name, nil, cfg.AppPath, lines)
	if err != nil {
		return fmt.Errorf("applying text overrides: %w", err)
	}

	var out strings.Builder
	for _, line := range lines {
		out.WriteString(line)
		out.WriteByte('\n')
	}
	if err := writeResult(flags.Output, []byte(out.String())); err != nil {
		return err
	}

	if !flags.Quiet {
		Writef(Stderr, "Resource: %s\n", name)
		Writef(Stderr, "Directives applied: %d\n", result.DirectivesApplied)
		Writef(Stderr, "Directives skipped: %d\n", result.DirectivesSkipped)
		for _, warning := range result.Warnings {
			Writef(Stderr, "  - %s\n", warning)
		}
	}
	return nil
}

package commands

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
)

// LoggingFlags contains flags for the logging command
type LoggingFlags struct {
	common commonFlags
	Format string
}

// SetupLoggingFlags creates and configures a FlagSet for the logging command.
// Returns the FlagSet and a LoggingFlags struct with bound flag variables.
func SetupLoggingFlags() (*flag.FlagSet, *LoggingFlags) {
	fs := flag.NewFlagSet("logging", flag.ContinueOnError)
	flags := &LoggingFlags{}

	flags.common.register(fs)
	fs.StringVar(&flags.Format, "format", FormatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: xmloverrides logging [flags]\n\n")
		Writef(fs.Output(), "Resolve the logging level chosen by the logging sections of the override files.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  xmloverrides logging --app /srv/webapp\n")
		Writef(fs.Output(), "  xmloverrides logging --app . --format json\n")
	}

	return fs, flags
}

// levelRecorder captures the level pushed by a logging section.
type levelRecorder struct {
	level slog.Level
	set   bool
}

func (r *levelRecorder) Set(level slog.Level) {
	r.level, r.set = level, true
}

// LoggingReport is the structured output of the logging command.
type LoggingReport struct {
	Configured bool   `json:"configured" yaml:"configured"`
	Level      string `json:"level,omitempty" yaml:"level,omitempty"`
}

// HandleLogging executes the logging command
func HandleLogging(args []string) error {
	fs, flags := SetupLoggingFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 0 {
		fs.Usage()
		return fmt.Errorf("logging takes no arguments")
	}
	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}

	cfg, err := flags.common.resolve(fs)
	if err != nil {
		return err
	}

	rec := &levelRecorder{}
	o := cfg.Overrides()
	o.Levels = rec
	if err := o.UpdateLogging(nil, cfg.AppPath); err != nil {
		return err
	}

	report := LoggingReport{Configured: rec.set}
	if rec.set {
		report.Level = rec.level.String()
	}
	if flags.Format != FormatText {
		return OutputStructured(Stdout, report, flags.Format)
	}
	if !rec.set {
		Writef(Stdout, "No logging level configured\n")
		return nil
	}
	Writef(Stdout, "Root level: %s\n", report.Level)
	return nil
}

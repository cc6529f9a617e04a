package commands

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/xmloverrides/xmloverrides/dbinit"
	"github.com/xmloverrides/xmloverrides/overrides"
)

// Database drivers accepted by --driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// SQLFlags contains flags for the sql command
type SQLFlags struct {
	common commonFlags
	Driver string
	DSN    string
	DryRun bool
	Quiet  bool
}

// SetupSQLFlags creates and configures a FlagSet for the sql command.
// Returns the FlagSet and a SQLFlags struct with bound flag variables.
func SetupSQLFlags() (*flag.FlagSet, *SQLFlags) {
	fs := flag.NewFlagSet("sql", flag.ContinueOnError)
	flags := &SQLFlags{}

	flags.common.register(fs)
	fs.StringVar(&flags.Driver, "driver", DriverSQLite, "database driver: sqlite or pgx")
	fs.StringVar(&flags.DSN, "dsn", "", "data source name, e.g. file:app.db or postgres://user@host/db")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "print the patched statements without running them")
	fs.BoolVar(&flags.DryRun, "n", false, "print the patched statements without running them")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: no diagnostic messages")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: no diagnostic messages")

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: xmloverrides sql [flags] <script>\n\n")
		Writef(fs.Output(), "Apply textFile overrides to a SQL script resource and run it in one transaction.\n")
		Writef(fs.Output(), "The script is resolved against --app like any other resource.\n\n")
		Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		Writef(fs.Output(), "\nExamples:\n")
		Writef(fs.Output(), "  xmloverrides sql --app /srv/webapp --dsn file:app.db /WEB-INF/sql/init.sql\n")
		Writef(fs.Output(), "  xmloverrides sql --app . --driver pgx --dsn postgres://app@db/app init.sql\n")
		Writef(fs.Output(), "  xmloverrides sql --app . --dry-run init.sql\n")
		Writef(fs.Output(), "\nExit Codes:\n")
		Writef(fs.Output(), "  0    Script executed (or printed) successfully\n")
		Writef(fs.Output(), "  1    The script could not be prepared or a statement failed\n")
	}

	return fs, flags
}

// HandleSQL executes the sql command
func HandleSQL(args []string) error {
	fs, flags := SetupSQLFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("sql requires exactly one script")
	}
	switch flags.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("invalid driver '%s'. Valid drivers: %s, %s", flags.Driver, DriverSQLite, DriverPostgres)
	}
	if !flags.DryRun && flags.DSN == "" {
		fs.Usage()
		return fmt.Errorf("--dsn is required unless --dry-run is set")
	}

	cfg, err := flags.common.resolve(fs)
	if err != nil {
		return err
	}

	runner := &dbinit.Runner{
		Overrides: cfg.Overrides(),
		AppPath:   cfg.AppPath,
		Fs:        Fs,
		Logger:    overrides.NewSlogAdapter(newLogger()),
	}
	script := fs.Arg(0)

	if flags.DryRun {
		result, err := runner.Prepare(script)
		if err != nil {
			return err
		}
		for _, stmt := range result.Statements {
			Writef(Stdout, "%s;\n", stmt)
		}
		printScriptSummary(result, flags.Quiet)
		return nil
	}

	db, err := sql.Open(flags.Driver, flags.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()
	runner.DB = db

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx, script)
	if err != nil {
		return err
	}
	printScriptSummary(result, flags.Quiet)
	return nil
}

func printScriptSummary(result *dbinit.Result, quiet bool) {
	if quiet {
		return
	}
	Writef(Stderr, "Script: %s\n", result.Script)
	Writef(Stderr, "Statements: %d\n", len(result.Statements))
	Writef(Stderr, "Directives applied: %d\n", result.Text.DirectivesApplied)
	Writef(Stderr, "Directives skipped: %d\n", result.Text.DirectivesSkipped)
	for _, warning := range result.Text.Warnings {
		Writef(Stderr, "  - %s\n", warning)
	}
}

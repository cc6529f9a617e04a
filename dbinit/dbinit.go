// Package dbinit runs SQL initialisation scripts after applying the textFile
// blocks of the application's override files to them.
//
// A script is a text resource resolved like any other resource of the
// application. Statements end with a semicolon at the end of a line; blank lines
// and lines starting with "--" are skipped:
//
//	db, _ := sql.Open("sqlite", "file:app.db")
//	r := &dbinit.Runner{DB: db, AppPath: "webapp"}
//	result, err := r.Run(ctx, "init.sql")
//
// All statements of a script run in one transaction.
package dbinit

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/xmloverrides/xmloverrides/overrides"
)

// Runner executes override-patched SQL scripts.
type Runner struct {
	// DB is the database the statements run against. Required.
	DB *sql.DB

	// Overrides applies the override files. Nil means overrides.Default.
	Overrides *overrides.Overrides

	// AppPath is the application root scripts and override files are resolved
	// against.
	AppPath string

	// Fs is the filesystem scripts are read from. Nil means the OS filesystem.
	Fs afero.Fs

	// Logger receives one debug entry per statement. Nil discards them.
	Logger overrides.Logger
}

// Result describes a script run.
type Result struct {
	// Script is the resolved path of the script.
	Script string

	// Statements lists the executed statements, in order.
	Statements []string

	// Text summarises the text directives applied to the script.
	Text overrides.TextResult
}

func (r *Runner) overrides() *overrides.Overrides {
	if r.Overrides == nil {
		return overrides.Default
	}
	return r.Overrides
}

// Prepare loads the script resourceName, applies the text overrides for its base
// name and splits it into statements without running anything.
func (r *Runner) Prepare(resourceName string) (*Result, error) {
	loader := overrides.NewFileLoader(r.Fs, r.AppPath)
	script, _, err := loader.Resolve(resourceName)
	if err != nil {
		return nil, err
	}
	data, err := loader.ReadResource(resourceName)
	if err != nil {
		return nil, fmt.Errorf("dbinit: %w", err)
	}
	lines, err := overrides.ReadLines(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("dbinit: reading %s: %w", resourceName, err)
	}

	lines, text, err := r.overrides().UpdateText(path.Base(resourceName), nil, r.AppPath, lines)
	if err != nil {
		return nil, fmt.Errorf("dbinit: %w", err)
	}
	return &Result{Script: script, Statements: SplitStatements(lines), Text: text}, nil
}

// Run prepares the script resourceName and executes its statements in a single
// transaction. Nothing is committed when a statement fails.
func (r *Runner) Run(ctx context.Context, resourceName string) (*Result, error) {
	if r.DB == nil {
		return nil, fmt.Errorf("dbinit: no database configured")
	}
	result, err := r.Prepare(resourceName)
	if err != nil {
		return nil, err
	}

	log := r.Logger
	if log == nil {
		log = overrides.NopLogger{}
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("dbinit: begin transaction: %w", err)
	}
	for i, stmt := range result.Statements {
		log.Debug("executing statement", "script", resourceName, "index", i)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return nil, &StatementError{Script: resourceName, Index: i, Statement: stmt, Cause: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("dbinit: commit: %w", err)
	}
	log.Info("script executed", "script", resourceName, "statements", len(result.Statements))
	return result, nil
}

// SplitStatements groups lines into statements. A statement ends at a line whose
// trimmed text ends with ";"; the semicolon is dropped. Blank lines and "--"
// comment lines are skipped, and trailing text without a semicolon forms a last
// statement.
func SplitStatements(lines []string) []string {
	var (
		stmts []string
		cur   []string
	)
	flush := func() {
		if s := strings.TrimSpace(strings.Join(cur, "\n")); s != "" {
			stmts = append(stmts, s)
		}
		cur = cur[:0]
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		if strings.HasSuffix(trimmed, ";") {
			cur = append(cur, strings.TrimSuffix(strings.TrimRight(line, " \t"), ";"))
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return stmts
}

// StatementError reports a statement the database rejected.
type StatementError struct {
	Script    string
	Index     int
	Statement string
	Cause     error
}

// Error returns a human-readable error message.
func (e *StatementError) Error() string {
	first, _, _ := strings.Cut(e.Statement, "\n")
	return fmt.Sprintf("dbinit: %s statement %d (%s): %v", e.Script, e.Index+1, first, e.Cause)
}

// Unwrap returns the database error.
func (e *StatementError) Unwrap() error {
	return e.Cause
}

// Package commands implements the xmloverrides subcommands.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v4"

	"github.com/xmloverrides/xmloverrides/internal/fileutil"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the conventional file path value indicating stdin input.
const StdinFilePath = "-"

// Process streams and filesystem. Tests swap them out.
var (
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
	Fs     afero.Fs  = afero.NewOsFs()
)

// ValidateOutputFormat checks if the format is valid.
func ValidateOutputFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s, %s", format, FormatText, FormatJSON, FormatYAML)
	}
}

// OutputStructured writes data as JSON or YAML to w.
func OutputStructured(w io.Writer, data any, format string) error {
	var bytes []byte
	var err error

	switch format {
	case FormatJSON:
		bytes, err = json.MarshalIndent(data, "", "  ")
	case FormatYAML:
		bytes, err = yaml.Marshal(data)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}

	_, err = w.Write(bytes)
	if err == nil && format == FormatJSON {
		_, err = fmt.Fprintln(w)
	}
	return err
}

// Writef writes formatted output to w, discarding write errors.
func Writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...) //nolint:gosec // G705 - CLI output to terminal
}

// readInput reads path from Fs, or Stdin when path is StdinFilePath.
func readInput(path string) ([]byte, error) {
	if path == StdinFilePath {
		data, err := io.ReadAll(Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := afero.ReadFile(Fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// writeResult writes data to output, or to Stdout when output is empty.
func writeResult(output string, data []byte) error {
	if output == "" {
		_, err := Stdout.Write(data)
		return err
	}
	written, err := fileutil.WriteOutput(Fs, output, data)
	if err != nil {
		return err
	}
	slog.Debug("output written", "path", written)
	return nil
}

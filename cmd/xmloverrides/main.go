package main

import (
	"fmt"
	"os"

	"github.com/agext/levenshtein"

	"github.com/xmloverrides/xmloverrides"
	"github.com/xmloverrides/xmloverrides/cmd/xmloverrides/commands"
)

// commandNames lists every subcommand, in help order.
var commandNames = []string{"apply", "text", "inspect", "sql", "beans", "logging", "mcp", "version", "help"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var handler func([]string) error
	switch command {
	case "version", "-v", "--version":
		fmt.Printf("xmloverrides v%s\n", xmloverrides.Version())
		fmt.Printf("commit: %s\nbuilt: %s\ngo: %s\n", xmloverrides.Commit(), xmloverrides.BuildTime(), xmloverrides.GoVersion())
		return
	case "help", "-h", "--help":
		printUsage()
		return
	case "apply":
		handler = commands.HandleApply
	case "text":
		handler = commands.HandleText
	case "inspect":
		handler = commands.HandleInspect
	case "sql":
		handler = commands.HandleSQL
	case "beans":
		handler = commands.HandleBeans
	case "logging":
		handler = commands.HandleLogging
	case "mcp":
		handler = commands.HandleMCP
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if suggestion := suggestCommand(command); suggestion != "" {
			fmt.Fprintf(os.Stderr, "Did you mean: %s?\n", suggestion)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}

	if err := handler(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// suggestCommand returns the closest known command within an edit distance of
// two, or "" when nothing is close enough.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, name := range commandNames {
		if d := levenshtein.Distance(input, name, nil); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

func printUsage() {
	usage := `xmloverrides - Apply XML override files to application resources

Usage:
  xmloverrides <command> [options]

Commands:
  apply      Apply override files to an XML resource
  text       Apply textFile blocks to a text resource
  inspect    Load, validate and print an override file
  sql        Apply textFile blocks to a SQL script and run it
  beans      Refresh bean definitions and list the result
  logging    Resolve the logging level chosen by the override files
  mcp        Serve the overrides tools over the Model Context Protocol
  version    Show version information
  help       Show this help message

Common options:
  --config <file>        YAML config file (default .xmloverrides.yaml when present)
  --app <dir>            Application root resources are resolved against
  --overrides <list>     Comma-separated override files
  --strict               Fail when a selector matches nothing
  --strict-properties    Fail when a scalar property selector matches nothing

Examples:
  xmloverrides apply --app /srv/webapp /srv/webapp/WEB-INF/config.xml
  xmloverrides apply --app . --dry-run config.xml
  xmloverrides text --app . -o patched.sql init.sql
  xmloverrides inspect --app . --validate
  xmloverrides sql --app . --dsn file:app.db init.sql

Run 'xmloverrides <command> --help' for more information on a command.
`
	fmt.Print(usage)
}

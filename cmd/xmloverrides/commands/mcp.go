package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xmloverrides/xmloverrides/internal/mcpserver"
	"github.com/xmloverrides/xmloverrides/overrides"
)

// SetupMCPFlags creates a FlagSet for the mcp command.
func SetupMCPFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)

	fs.Usage = func() {
		Writef(fs.Output(), "Usage: xmloverrides mcp\n\n")
		Writef(fs.Output(), "Serve the overrides tools over the Model Context Protocol on stdin/stdout.\n\n")
		Writef(fs.Output(), "Environment:\n")
		Writef(fs.Output(), "  XMLOVERRIDES_OVERRIDE_FILES      comma-separated override files (default %s)\n", overrides.DefaultOverrideFile)
		Writef(fs.Output(), "  XMLOVERRIDES_STRICT_TARGETS      fail when a selector matches nothing (default false)\n")
		Writef(fs.Output(), "  XMLOVERRIDES_STRICT_PROPERTIES   fail when a scalar property selector matches nothing (default false)\n")
		Writef(fs.Output(), "  XMLOVERRIDES_CACHE_ENABLED       cache parsed override files (default true)\n")
		Writef(fs.Output(), "  XMLOVERRIDES_MAX_INLINE_SIZE     maximum inline resource size in bytes (default 10485760)\n")
	}

	return fs
}

// HandleMCP executes the mcp command
func HandleMCP(args []string) error {
	fs := SetupMCPFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return fmt.Errorf("mcp takes no arguments")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcpserver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

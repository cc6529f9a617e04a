// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes xmloverrides capabilities as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xmloverrides/xmloverrides"
)

const serverInstructions = `xmloverrides MCP server: applies override documents to XML configuration files and text resources of an application directory.

Override files are looked up under app_path (and app_path/WEB-INF). Each override file may import others; imports are merged before directives run.

Configuration: defaults are configurable via XMLOVERRIDES_* environment variables set in your MCP client config.

Key settings:
- XMLOVERRIDES_OVERRIDE_FILES (default: /WEB-INF/overrides-config.xml) comma-separated override files used when a call names none
- XMLOVERRIDES_FILES extra override files appended to every list
- XMLOVERRIDES_STRICT_TARGETS (default: false) fail when a directive matches nothing
- XMLOVERRIDES_STRICT_PROPERTIES (default: false) fail when a scalar property matches nothing
- XMLOVERRIDES_CACHE_ENABLED (default: true) keep loaded override documents for the session
- XMLOVERRIDES_MAX_INLINE_SIZE (default: 10MiB) limit for inline resource content

Use overrides_apply with dry_run=true to preview which nodes each directive would touch.`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "xmloverrides", Version: xmloverrides.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "overrides_apply",
		Description: "Apply the override files of an application to an XML resource. The resource name (default: the file's base name) selects the matching <file> blocks. Returns the updated document, the directives applied and skipped, and warnings. Use dry_run=true to preview matched node paths without changing anything. Use output to write the document to a file instead of returning it inline. Set spring=true to also run the <spring> bean directives.",
	}, handleApply)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "overrides_inspect",
		Description: "Load an override file with all its imports merged and return the expanded document, its property definitions, and any validation errors (unknown directives, missing attributes, invalid selectors or line patterns).",
	}, handleInspect)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "overrides_text",
		Description: "Apply the <textFile> blocks of an application's override files to a text resource such as an SQL script. Returns the updated text and counts of applied and skipped line directives.",
	}, handleText)
}

// makeSlice returns nil when n is 0 (preserving omitempty JSON semantics),
// otherwise returns make([]T, 0, n) for pre-allocated appending.
func makeSlice[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, 0, n)
}

// formatCount returns "1 noun" or "n nouns".
func formatCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}

package mcpserver

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/xmloverrides/xmloverrides/overrides"
)

// serverConfig holds all configurable MCP server defaults.
// Loaded once at startup from environment variables via loadConfig().
type serverConfig struct {
	// Directive defaults, overridable per call.
	StrictTargets    bool
	StrictProperties bool

	// OverrideFiles is the comma-separated override list used when a call names none.
	// Entries of XMLOVERRIDES_FILES are appended by the overrides package itself.
	OverrideFiles string

	// CacheDocuments keeps import-expanded override documents between calls.
	CacheDocuments bool

	// MaxInlineSize limits inline resource content in bytes.
	MaxInlineSize int64
}

// cfg is the active server configuration, initialized at package load time.
var cfg = loadConfig()

// loadConfig reads configuration from XMLOVERRIDES_* environment variables.
// Invalid values log a warning and fall back to the hardcoded default.
func loadConfig() *serverConfig {
	return &serverConfig{
		StrictTargets:    envBool("XMLOVERRIDES_STRICT_TARGETS", false),
		StrictProperties: envBool("XMLOVERRIDES_STRICT_PROPERTIES", false),
		OverrideFiles:    envFileList("XMLOVERRIDES_OVERRIDE_FILES", overrides.DefaultOverrideFile),
		CacheDocuments:   envBool("XMLOVERRIDES_CACHE_ENABLED", true),
		MaxInlineSize:    envInt64("XMLOVERRIDES_MAX_INLINE_SIZE", 10*1024*1024),
	}
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return b
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return n
}

// envFileList returns the variable's value when it names at least one file.
func envFileList(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if len(overrides.SplitFileList(v)) == 0 {
		slog.Warn("empty file list env var, using default", "key", key, "value", v, "default", fallback) //nolint:gosec // G706: values are structured log fields, not format strings
		return fallback
	}
	return v
}

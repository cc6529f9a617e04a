package commands

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v4"

	"github.com/xmloverrides/xmloverrides/overrides"
)

// DefaultConfigFile is read when --config is not given and the file exists in
// the working directory.
const DefaultConfigFile = ".xmloverrides.yaml"

// defaultLogLevel keeps the CLI quiet unless something needs attention.
const defaultLogLevel = "warn"

// Config holds settings shared by every subcommand.
type Config struct {
	AppPath          string   `yaml:"app_path"`
	OverrideFiles    []string `yaml:"override_files"`
	StrictTargets    bool     `yaml:"strict_targets"`
	StrictProperties bool     `yaml:"strict_properties"`
	LogLevel         string   `yaml:"log_level"`
}

// LoadConfig reads a YAML config file. An empty path reads DefaultConfigFile
// when present and otherwise returns an empty Config.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := afero.ReadFile(Fs, path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if cfg.LogLevel != "" {
		if _, err := overrides.ParseLevel(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	return &cfg, nil
}

// commonFlags are registered on every subcommand that applies overrides.
type commonFlags struct {
	config           string
	appPath          string
	overrideFiles    string
	strict           bool
	strictProperties bool
	logLevel         string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "path to a YAML config file (default "+DefaultConfigFile+" when present)")
	fs.StringVar(&c.appPath, "app", "", "application root that resources and override files are resolved against")
	fs.StringVar(&c.overrideFiles, "overrides", "", "comma-separated override files (default "+overrides.DefaultOverrideFile+")")
	fs.BoolVar(&c.strict, "strict", false, "fail when a selector matches nothing")
	fs.BoolVar(&c.strictProperties, "strict-properties", false, "fail when a scalar property selector matches nothing")
	fs.StringVar(&c.logLevel, "log-level", "", "log level: trace, debug, info, warn, error or off (default "+defaultLogLevel+")")
}

// resolve loads the config file and lets flags set on the command line win
// over its values.
func (c *commonFlags) resolve(fs *flag.FlagSet) (*Config, error) {
	cfg, err := LoadConfig(c.config)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "app":
			cfg.AppPath = c.appPath
		case "overrides":
			cfg.OverrideFiles = overrides.SplitFileList(c.overrideFiles)
		case "strict":
			cfg.StrictTargets = c.strict
		case "strict-properties":
			cfg.StrictProperties = c.strictProperties
		case "log-level":
			cfg.LogLevel = c.logLevel
		}
	})

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	level, err := overrides.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	overrides.RootLevel.Set(level)
	return cfg, nil
}

// newLogger returns a text logger on Stderr that follows overrides.RootLevel.
func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(Stderr, &slog.HandlerOptions{Level: overrides.RootLevel}))
}

// Overrides builds an Overrides instance for cfg. Files from the config are
// used as the base list, so XMLOVERRIDES_FILES still appends to them.
func (cfg *Config) Overrides() *overrides.Overrides {
	files := overrides.DefaultOverrideFile
	if len(cfg.OverrideFiles) > 0 {
		files = strings.Join(cfg.OverrideFiles, ",")
	}
	o := overrides.NewOverrides(files)
	o.Fs = Fs
	o.Logger = overrides.NewSlogAdapter(newLogger())
	o.StrictTargets = cfg.StrictTargets
	o.StrictProperties = cfg.StrictProperties
	return o
}

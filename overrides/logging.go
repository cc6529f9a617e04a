package overrides

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/beevik/etree"
	"go.yaml.in/yaml/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/xmloverrides/xmloverrides/xoerrors"
)

// Levels beyond the four built into log/slog.
const (
	LevelAll   slog.Level = -16
	LevelTrace slog.Level = -8
	LevelFatal slog.Level = 12
	LevelOff   slog.Level = 16
)

// LevelSetter receives the verbosity chosen by a logging section.
// *slog.LevelVar implements it.
type LevelSetter interface {
	Set(slog.Level)
}

// RootLevel is the process-wide level used by Default and by handlers built on it.
var RootLevel = new(slog.LevelVar)

var upper = cases.Upper(language.Und)

// ParseLevel maps a level name to a slog level. Names are case-insensitive:
// ALL, TRACE, DEBUG, INFO, WARN (or WARNING), ERROR, FATAL and OFF.
func ParseLevel(name string) (slog.Level, error) {
	switch upper.String(strings.TrimSpace(name)) {
	case "ALL":
		return LevelAll, nil
	case "TRACE", "FINEST", "FINER":
		return LevelTrace, nil
	case "DEBUG", "FINE":
		return slog.LevelDebug, nil
	case "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR", "SEVERE":
		return slog.LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	case "OFF":
		return LevelOff, nil
	}
	return 0, &xoerrors.ConfigError{Option: "level", Value: name, Message: "unknown logging level"}
}

// logConfig is the subset of a logging configuration file that carries the root
// level.
type logConfig struct {
	Level string `yaml:"level"`
	Root  struct {
		Level string `yaml:"level"`
	} `yaml:"root"`
}

// DoUpdateLogging reads the logging section of overrideDoc and pushes the level it
// names to o.Levels, or RootLevel when that is nil. A <level> element names the
// level directly; a <logFile> element names a YAML file, loaded through loader,
// whose root.level or level key is used. The last level found wins. Documents
// without a logging section leave the level alone.
func (o *Overrides) DoUpdateLogging(overrideDoc *etree.Element, loader ResourceLoader) error {
	if overrideDoc == nil {
		return nil
	}

	var (
		level slog.Level
		found bool
	)
	for _, section := range overrideDoc.SelectElements(SectionLogging) {
		for _, el := range section.ChildElements() {
			var name string
			switch el.Tag {
			case "level":
				name = strings.TrimSpace(el.Text())
			case "logFile":
				var err error
				if name, err = levelFromFile(strings.TrimSpace(el.Text()), loader); err != nil {
					return err
				}
				if name == "" {
					continue
				}
			default:
				return &xoerrors.DirectiveError{Name: el.FullTag(), File: SectionLogging}
			}

			l, err := ParseLevel(name)
			if err != nil {
				return err
			}
			level, found = l, true
		}
	}
	if !found {
		return nil
	}

	setter := o.Levels
	if setter == nil {
		setter = RootLevel
	}
	setter.Set(level)
	o.logger().Info("logging level updated", "level", level.String())
	return nil
}

func levelFromFile(name string, loader ResourceLoader) (string, error) {
	if loader == nil {
		return "", fmt.Errorf("overrides: logFile %q needs a resource loader", name)
	}
	data, err := loader.ReadResource(name)
	if err != nil {
		return "", err
	}
	var cfg logConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", &xoerrors.ParseError{Path: name, Message: "invalid logging configuration", Cause: err}
	}
	if cfg.Root.Level != "" {
		return cfg.Root.Level, nil
	}
	return cfg.Level, nil
}

package commands

import (
	"flag"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmloverrides/xmloverrides/overrides"
	"github.com/xmloverrides/xmloverrides/xoerrors"
)

const sampleConfig = `app_path: /srv/webapp
override_files:
  - /WEB-INF/base-overrides.xml
  - /WEB-INF/local-overrides.xml
strict_targets: true
log_level: debug
`

func TestLoadConfig(t *testing.T) {
	env := useCLI(t, nil)
	require.NoError(t, afero.WriteFile(env.fs, "/etc/xo.yaml", []byte(sampleConfig), 0o600))
	require.NoError(t, afero.WriteFile(env.fs, "/etc/bad.yaml", []byte("app_path: [1"), 0o600))
	require.NoError(t, afero.WriteFile(env.fs, "/etc/level.yaml", []byte("log_level: loud\n"), 0o600))

	t.Run("explicit", func(t *testing.T) {
		cfg, err := LoadConfig("/etc/xo.yaml")
		require.NoError(t, err)
		assert.Equal(t, "/srv/webapp", cfg.AppPath)
		assert.Equal(t, []string{"/WEB-INF/base-overrides.xml", "/WEB-INF/local-overrides.xml"}, cfg.OverrideFiles)
		assert.True(t, cfg.StrictTargets)
		assert.False(t, cfg.StrictProperties)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("default file absent", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, &Config{}, cfg)
	})

	t.Run("default file present", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(env.fs, DefaultConfigFile, []byte("app_path: /opt/app\n"), 0o600))
		t.Cleanup(func() { _ = env.fs.Remove(DefaultConfigFile) })
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "/opt/app", cfg.AppPath)
	})

	t.Run("explicit missing", func(t *testing.T) {
		_, err := LoadConfig("/etc/missing.yaml")
		assert.ErrorContains(t, err, "reading config file")
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := LoadConfig("/etc/bad.yaml")
		assert.ErrorContains(t, err, "parsing config file /etc/bad.yaml")
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := LoadConfig("/etc/level.yaml")
		assert.ErrorIs(t, err, xoerrors.ErrConfig)
	})
}

func TestCommonFlagsResolve(t *testing.T) {
	env := useCLI(t, nil)
	require.NoError(t, afero.WriteFile(env.fs, "/etc/xo.yaml", []byte(sampleConfig), 0o600))

	parse := func(t *testing.T, args ...string) *Config {
		t.Helper()
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		var c commonFlags
		c.register(fs)
		require.NoError(t, fs.Parse(args))
		cfg, err := c.resolve(fs)
		require.NoError(t, err)
		return cfg
	}

	t.Run("config only", func(t *testing.T) {
		cfg := parse(t, "--config", "/etc/xo.yaml")
		assert.Equal(t, "/srv/webapp", cfg.AppPath)
		assert.True(t, cfg.StrictTargets)
		assert.Equal(t, slog.LevelDebug, overrides.RootLevel.Level())
	})

	t.Run("flags win", func(t *testing.T) {
		cfg := parse(t, "--config", "/etc/xo.yaml", "--app", "/other", "--strict=false",
			"--overrides", "a.xml, b.xml", "--strict-properties", "--log-level", "error")
		assert.Equal(t, "/other", cfg.AppPath)
		assert.False(t, cfg.StrictTargets)
		assert.True(t, cfg.StrictProperties)
		assert.Equal(t, []string{"a.xml", "b.xml"}, cfg.OverrideFiles)
		assert.Equal(t, slog.LevelError, overrides.RootLevel.Level())
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := parse(t)
		assert.Empty(t, cfg.AppPath)
		assert.Equal(t, defaultLogLevel, cfg.LogLevel)
		assert.Equal(t, slog.LevelWarn, overrides.RootLevel.Level())
	})

	t.Run("bad level flag", func(t *testing.T) {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		var c commonFlags
		c.register(fs)
		require.NoError(t, fs.Parse([]string{"--log-level", "chatty"}))
		_, err := c.resolve(fs)
		assert.ErrorIs(t, err, xoerrors.ErrConfig)
	})
}

func TestConfigOverrides(t *testing.T) {
	env := useCLI(t, nil)

	o := (&Config{}).Overrides()
	assert.Equal(t, []string{overrides.DefaultOverrideFile}, o.Files())
	assert.Same(t, env.fs, o.Fs)

	t.Setenv(overrides.EnvOverrideFiles, "/WEB-INF/extra.xml")
	o = (&Config{OverrideFiles: []string{"a.xml", "b.xml"}, StrictTargets: true}).Overrides()
	assert.Equal(t, []string{"a.xml", "b.xml", "/WEB-INF/extra.xml"}, o.Files())
	assert.True(t, o.StrictTargets)
	assert.False(t, o.StrictProperties)
}

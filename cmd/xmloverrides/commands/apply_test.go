package commands

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmloverrides/xmloverrides/internal/testutil"
	"github.com/xmloverrides/xmloverrides/xoerrors"
)

const configPath = testutil.AppPath + "/WEB-INF/config.xml"

func languageWebapp() map[string]string {
	return map[string]string{
		"WEB-INF/config.xml":           testutil.ConfigXML,
		"WEB-INF/overrides-config.xml": testutil.Overrides(languageOverrides),
	}
}

func TestSetupApplyFlags(t *testing.T) {
	fs, flags := SetupApplyFlags()

	require.NoError(t, fs.Parse([]string{"-o", "out.xml", "-n", "-q", "--name", "x.xml", "--spring", "--app", "/a", "config.xml"}))
	assert.Equal(t, "out.xml", flags.Output)
	assert.True(t, flags.DryRun)
	assert.True(t, flags.Quiet)
	assert.True(t, flags.Spring)
	assert.Equal(t, "x.xml", flags.Name)
	assert.Equal(t, "/a", flags.common.appPath)
	assert.Equal(t, FormatText, flags.Format)
	assert.Equal(t, []string{"config.xml"}, fs.Args())
}

func TestHandleApply(t *testing.T) {
	env := useCLI(t, languageWebapp())

	require.NoError(t, HandleApply([]string{"--app", testutil.AppPath, configPath}))

	out := env.stdout.String()
	assert.Contains(t, out, "<language>fre</language>")
	assert.Contains(t, out, `file="xml/europeanCountries.xml"`)
	assert.NotContains(t, out, "toRemove")

	report := env.stderr.String()
	assert.Contains(t, report, "Resource: config.xml")
	assert.Contains(t, report, "Directives applied: 3")
	assert.Contains(t, report, "config.xml[0] replaceText: default/language (1 match(es))")
	assert.Contains(t, report, "✓ Overrides applied successfully")
}

func TestHandleApply_QuietOutputFile(t *testing.T) {
	env := useCLI(t, languageWebapp())

	require.NoError(t, HandleApply([]string{"--app", testutil.AppPath, "-q", "-o", "/out/config.xml", configPath}))
	assert.Empty(t, env.stdout.String())
	assert.Empty(t, env.stderr.String())

	data, err := afero.ReadFile(env.fs, "/out/config.xml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "<language>fre</language>")
}

func TestHandleApply_Stdin(t *testing.T) {
	env := useCLI(t, languageWebapp())
	Stdin = strings.NewReader(testutil.ConfigXML)

	require.NoError(t, HandleApply([]string{"--app", testutil.AppPath, "--name", "config.xml", "-q", StdinFilePath}))
	assert.Contains(t, env.stdout.String(), "<language>fre</language>")
}

func TestHandleApply_OverrideFilesFlag(t *testing.T) {
	files := languageWebapp()
	files["WEB-INF/german.xml"] = testutil.Overrides(`<file name="config.xml"><replaceText xpath="default/language">ger</replaceText></file>`)
	env := useCLI(t, files)

	require.NoError(t, HandleApply([]string{"--app", testutil.AppPath, "-q",
		"--overrides", "/WEB-INF/overrides-config.xml,/WEB-INF/german.xml", configPath}))
	assert.Contains(t, env.stdout.String(), "<language>ger</language>")
}

func TestHandleApply_DryRun(t *testing.T) {
	env := useCLI(t, languageWebapp())

	require.NoError(t, HandleApply([]string{"--app", testutil.AppPath, "--dry-run", configPath}))
	out := env.stdout.String()
	assert.Contains(t, out, "Would apply: 3 directive(s)")
	assert.Contains(t, out, "→ /config/default/gui/toRemove")
	assert.Contains(t, out, "No changes were made (dry-run mode)")

	data, err := afero.ReadFile(env.fs, configPath)
	require.NoError(t, err)
	assert.Equal(t, testutil.ConfigXML, string(data), "dry run leaves the resource alone")
}

func TestHandleApply_DryRunJSON(t *testing.T) {
	env := useCLI(t, languageWebapp())

	require.NoError(t, HandleApply([]string{"--app", testutil.AppPath, "-n", "--format", "json", configPath}))

	var report dryRunReport
	require.NoError(t, json.Unmarshal(env.stdout.Bytes(), &report))
	assert.Equal(t, "config.xml", report.Resource)
	assert.Equal(t, 3, report.WouldApply)
	require.Len(t, report.Changes, 3)
	assert.Equal(t, "removeXML", report.Changes[1].Directive)
	assert.Equal(t, []string{"/config/default/gui/toRemove"}, report.Changes[1].MatchedPaths)
}

func TestHandleApply_Strict(t *testing.T) {
	files := languageWebapp()
	files["WEB-INF/overrides-config.xml"] = testutil.Overrides(`<file name="config.xml"><removeXML xpath="nothing/here"/></file>`)
	env := useCLI(t, files)

	require.NoError(t, HandleApply([]string{"--app", testutil.AppPath, configPath}))
	assert.Contains(t, env.stderr.String(), "Overrides applied with 1 skipped directive(s)")

	err := HandleApply([]string{"--app", testutil.AppPath, "--strict", configPath})
	assert.ErrorIs(t, err, xoerrors.ErrSelectorAmbiguity)
}

func TestHandleApply_StrictProperties(t *testing.T) {
	fs, _ := SetupApplyFlags()
	assert.Equal(t, "fail when a scalar property selector matches nothing", fs.Lookup("strict-properties").Usage)

	files := languageWebapp()
	files["WEB-INF/overrides-config.xml"] = testutil.Overrides(`<properties><x xpath="default/none">1</x></properties>`)
	useCLI(t, files)
	err := HandleApply([]string{"--app", testutil.AppPath, "--strict-properties", configPath})
	assert.ErrorIs(t, err, xoerrors.ErrSelectorAmbiguity)

	files["WEB-INF/overrides-config.xml"] = testutil.Overrides(`<file name="config.xml"><replaceText xpath="default/language">${missing}</replaceText></file>`)
	env := useCLI(t, files)
	require.NoError(t, HandleApply([]string{"--app", testutil.AppPath, "--strict-properties", "--log-level", "error", "-q", configPath}))
	assert.Contains(t, env.stdout.String(), "<language>${missing}</language>")
}

func TestHandleApply_Config(t *testing.T) {
	env := useCLI(t, languageWebapp())
	cfg := "app_path: " + testutil.AppPath + "\nlog_level: error\n"
	require.NoError(t, afero.WriteFile(env.fs, "/etc/xo.yaml", []byte(cfg), 0o600))

	require.NoError(t, HandleApply([]string{"--config", "/etc/xo.yaml", "-q", configPath}))
	assert.Contains(t, env.stdout.String(), "<language>fre</language>")
}

func TestHandleApply_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no resource", args: []string{}, wantErr: "exactly one resource file"},
		{name: "two resources", args: []string{"a.xml", "b.xml"}, wantErr: "exactly one resource file"},
		{name: "bad format", args: []string{"--format", "xml", configPath}, wantErr: "invalid format"},
		{name: "dry-run spring", args: []string{"-n", "--spring", configPath}, wantErr: "cannot be combined"},
		{name: "stdin without name", args: []string{StdinFilePath}, wantErr: "--name is required"},
		{name: "missing resource", args: []string{"/nope.xml"}, wantErr: "reading /nope.xml"},
		{name: "unknown flag", args: []string{"--bogus", configPath}, wantErr: "flag provided but not defined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useCLI(t, languageWebapp())
			err := HandleApply(tt.args)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestHandleApply_MalformedResource(t *testing.T) {
	files := languageWebapp()
	files["WEB-INF/config.xml"] = "<config>"
	useCLI(t, files)

	err := HandleApply([]string{"--app", testutil.AppPath, configPath})
	assert.ErrorIs(t, err, xoerrors.ErrMalformedDocument)
}

func TestHandleApply_Help(t *testing.T) {
	useCLI(t, nil)
	assert.NoError(t, HandleApply([]string{"--help"}))
}

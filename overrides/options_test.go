package overrides

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmloverrides/xmloverrides/internal/testutil"
	"github.com/xmloverrides/xmloverrides/xmldoc"
	"github.com/xmloverrides/xmloverrides/xoerrors"
)

func optionsWebapp(t *testing.T) map[string]string {
	t.Helper()
	return map[string]string{
		"WEB-INF/config.xml": testutil.ConfigXML,
		"WEB-INF/overrides-config.xml": testutil.Overrides(`<file name="config.xml">
  <replaceText xpath="default/language">fre</replaceText>
  <removeXML xpath="default/missing"/>
</file>`),
		"WEB-INF/strict.xml": testutil.Overrides(`<properties><p xpath="default/nothing">1</p></properties>`),
	}
}

func TestUpdateWithOptions(t *testing.T) {
	t.Setenv(EnvOverrideFiles, "")
	fsys := testutil.NewWebapp(t, optionsWebapp(t))
	path := testutil.AppPath + "/WEB-INF/config.xml"

	result, err := UpdateWithOptions(
		WithResourcePath(path),
		WithAppPath(testutil.AppPath),
		WithFs(fsys),
	)
	require.NoError(t, err)
	require.NotNil(t, result.Applied)
	assert.Nil(t, result.DryRun)
	assert.Equal(t, "config.xml", result.Applied.Resource)
	assert.Equal(t, 1, result.Applied.DirectivesApplied)
	assert.Equal(t, 1, result.Applied.DirectivesSkipped)
	assert.Equal(t, "fre", selectString(t, result.Document.Root(), "default/language"))

	// the file on disk is untouched
	doc, err := xmldoc.LoadFile(fsys, path)
	require.NoError(t, err)
	assert.Equal(t, "eng", selectString(t, doc.Root(), "default/language"))
}

func TestUpdateWithOptionsDocument(t *testing.T) {
	t.Setenv(EnvOverrideFiles, "")
	fsys := testutil.NewWebapp(t, optionsWebapp(t))
	base, err := xmldoc.Parse([]byte(testutil.ConfigXML), "config.xml")
	require.NoError(t, err)

	result, err := UpdateWithOptions(
		WithResourceDocument(base),
		WithResourceName("config.xml"),
		WithAppPath(testutil.AppPath),
		WithFs(fsys),
		WithDryRun(true),
	)
	require.NoError(t, err)
	assert.Nil(t, result.Applied)
	require.NotNil(t, result.DryRun)
	assert.Equal(t, 1, result.DryRun.WouldApply)
	assert.Equal(t, "eng", selectString(t, result.Document.Root(), "default/language"))
	assert.Equal(t, "eng", selectString(t, base.Root(), "default/language"))
}

func TestUpdateWithOptionsStrict(t *testing.T) {
	t.Setenv(EnvOverrideFiles, "")
	fsys := testutil.NewWebapp(t, optionsWebapp(t))
	path := testutil.AppPath + "/WEB-INF/config.xml"

	_, err := UpdateWithOptions(WithResourcePath(path), WithAppPath(testutil.AppPath), WithFs(fsys), WithStrictTargets(true))
	assert.ErrorIs(t, err, xoerrors.ErrSelectorAmbiguity)

	_, err = UpdateWithOptions(WithResourcePath(path), WithAppPath(testutil.AppPath), WithFs(fsys),
		WithOverrideFiles("/WEB-INF/strict.xml"), WithStrictProperties(true))
	assert.ErrorIs(t, err, xoerrors.ErrSelectorAmbiguity)

	result, err := UpdateWithOptions(WithResourcePath(path), WithAppPath(testutil.AppPath), WithFs(fsys),
		WithOverrideFiles("/WEB-INF/strict.xml"), WithLogger(NopLogger{}))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied.DirectivesSkipped)
}

func TestApplyOptionsErrors(t *testing.T) {
	doc, err := xmldoc.Parse([]byte(testutil.ConfigXML), "config.xml")
	require.NoError(t, err)

	tests := []struct {
		name string
		opts []Option
	}{
		{name: "no resource"},
		{name: "two resources", opts: []Option{WithResourcePath("a.xml"), WithResourceDocument(doc)}},
		{name: "document without name", opts: []Option{WithResourceDocument(doc)}},
		{name: "empty path", opts: []Option{WithResourcePath("")}},
		{name: "nil document", opts: []Option{WithResourceDocument(nil)}},
		{name: "nil fs", opts: []Option{WithResourcePath("a.xml"), WithFs(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UpdateWithOptions(tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, xoerrors.ErrConfig)
		})
	}
}

func TestApplyOptionsDefaults(t *testing.T) {
	cfg, err := applyOptions(WithResourcePath("webapp/WEB-INF/config.xml"))
	require.NoError(t, err)
	assert.Equal(t, "config.xml", cfg.resourceName)
	assert.Equal(t, []string{DefaultOverrideFile}, cfg.overrideFiles)
	assert.NotNil(t, cfg.fs)

	cfg, err = applyOptions(WithResourcePath("x.xml"), WithResourceName("y.xml"), WithOverrideFiles("a.xml", "b.xml"))
	require.NoError(t, err)
	assert.Equal(t, "y.xml", cfg.resourceName)
	assert.Equal(t, []string{"a.xml", "b.xml"}, cfg.overrideFiles)
}

package overrides

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmloverrides/xmloverrides/internal/testutil"
	"github.com/xmloverrides/xmloverrides/xoerrors"
)

func TestImportMerge(t *testing.T) {
	fsys := testutil.NewWebapp(t, map[string]string{
		"WEB-INF/overrides-config.xml": testutil.Overrides(
			`<properties><a>main</a></properties>`,
			`<import file="parts/shared.xml"/>`,
			`<file name="config.xml"><replaceText xpath="default/language">${a}</replaceText></file>`,
			`<logging><level>INFO</level></logging>`,
		),
		"WEB-INF/parts/shared.xml": testutil.Overrides(
			`<properties><a>shared</a><b>shared</b></properties>`,
			`<file name="config.xml"><replaceAtt xpath="default" attName="b" value="${b}"/></file>`,
			`<textFile name="init.sql"><removeLine line="-- seed data"/></textFile>`,
			`<logging><level>DEBUG</level></logging>`,
		),
	})

	root, err := NewFileLoader(fsys, testutil.AppPath).LoadXMLResource(DefaultOverrideFile)
	require.NoError(t, err)

	assert.Equal(t, []string{"main", "shared"}, values(t, root, "properties/*"))
	assert.Len(t, selectNodes(t, root, "file"), 1)
	assert.Len(t, selectNodes(t, root, "file/*"), 2)
	assert.Equal(t, "replaceText", selectNodes(t, root, "file/*[1]")[0].Name())
	assert.Len(t, selectNodes(t, root, "textFile"), 1)
	assert.Equal(t, []string{"INFO", "DEBUG"}, values(t, root, "logging/level"))
	assert.Empty(t, selectNodes(t, root, "import"))

	config := testutil.ParseXML(t, testutil.ConfigXML)
	_, err = NewInterpreter().Apply(root, "config.xml", config)
	require.NoError(t, err)
	assert.Equal(t, "main", selectString(t, config, "default/language"))
	assert.Equal(t, "shared", selectString(t, config, "default/@b"))
}

func TestImportDiamond(t *testing.T) {
	fsys := testutil.NewWebapp(t, map[string]string{
		"WEB-INF/overrides-config.xml": testutil.Overrides(`<import file="left.xml"/>`, `<import file="right.xml"/>`),
		"WEB-INF/left.xml":             testutil.Overrides(`<import file="base.xml"/>`),
		"WEB-INF/right.xml":            testutil.Overrides(`<import file="/WEB-INF/base.xml"/>`),
		"WEB-INF/base.xml":             testutil.Overrides(`<file name="config.xml"><addXML xpath="default"><once/></addXML></file>`),
	})

	root, err := NewFileLoader(fsys, testutil.AppPath).LoadXMLResource(DefaultOverrideFile)
	require.NoError(t, err)
	assert.Len(t, selectNodes(t, root, "file/addXML"), 1)
}

func TestImportCycle(t *testing.T) {
	fsys := testutil.NewWebapp(t, map[string]string{
		"WEB-INF/overrides-config.xml": testutil.Overrides(`<import file="a.xml"/>`),
		"WEB-INF/a.xml":                testutil.Overrides(`<import file="b.xml"/>`),
		"WEB-INF/b.xml":                testutil.Overrides(`<import file="/WEB-INF/overrides-config.xml"/>`),
	})

	_, err := NewFileLoader(fsys, testutil.AppPath).LoadXMLResource(DefaultOverrideFile)
	require.Error(t, err)
	assert.ErrorIs(t, err, xoerrors.ErrImportCycle)

	var cycle *xoerrors.ImportCycleError
	require.True(t, errors.As(err, &cycle))
	require.Len(t, cycle.Chain, 4)
	assert.Equal(t, cycle.Chain[0], cycle.Chain[3])
}

func TestSelfImport(t *testing.T) {
	fsys := testutil.NewWebapp(t, map[string]string{
		"WEB-INF/overrides-config.xml": testutil.Overrides(`<import file="overrides-config.xml"/>`),
	})
	_, err := NewFileLoader(fsys, testutil.AppPath).LoadXMLResource(DefaultOverrideFile)
	assert.ErrorIs(t, err, xoerrors.ErrImportCycle)
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		target  error
		message string
	}{
		{
			name: "missing relative import",
			files: map[string]string{
				"WEB-INF/overrides-config.xml": testutil.Overrides(`<import file="gone.xml"/>`),
			},
			target:  xoerrors.ErrResourceNotFound,
			message: "imported from",
		},
		{
			name: "missing absolute import",
			files: map[string]string{
				"WEB-INF/overrides-config.xml": testutil.Overrides(`<import file="/WEB-INF/gone.xml"/>`),
			},
			target: xoerrors.ErrResourceNotFound,
		},
		{
			name: "malformed import",
			files: map[string]string{
				"WEB-INF/overrides-config.xml": testutil.Overrides(`<import file="bad.xml"/>`),
				"WEB-INF/bad.xml":              "<overrides><file>",
			},
			target: xoerrors.ErrMalformedDocument,
		},
		{
			name: "import without file",
			files: map[string]string{
				"WEB-INF/overrides-config.xml": testutil.Overrides(`<import/>`),
			},
			target: xoerrors.ErrUnknownDirective,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := testutil.NewWebapp(t, tt.files)
			_, err := NewFileLoader(fsys, testutil.AppPath).LoadXMLResource(DefaultOverrideFile)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

package overrides

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmloverrides/xmloverrides/internal/testutil"
	"github.com/xmloverrides/xmloverrides/xoerrors"
)

func TestCandidates(t *testing.T) {
	tests := []struct {
		name    string
		appPath string
		res     string
		want    []string
	}{
		{
			name:    "web-inf relative",
			appPath: "/srv/app",
			res:     "/WEB-INF/overrides-config.xml",
			want:    []string{"/srv/app/WEB-INF/overrides-config.xml", "/WEB-INF/overrides-config.xml"},
		},
		{
			name:    "bare name",
			appPath: "/srv/app",
			res:     "config.xml",
			want:    []string{"/srv/app/config.xml", "/srv/app/WEB-INF/config.xml"},
		},
		{
			name:    "absolute outside web-inf",
			appPath: "/srv/app",
			res:     "/etc/overrides.xml",
			want:    []string{"/srv/app/etc/overrides.xml", "/srv/app/WEB-INF/etc/overrides.xml", "/etc/overrides.xml"},
		},
		{
			name: "no app path",
			res:  "conf/overrides.xml",
			want: []string{filepath.FromSlash("conf/overrides.xml")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewFileLoader(nil, tt.appPath).Candidates(tt.res)
			want := make([]string, len(tt.want))
			for i, w := range tt.want {
				want[i] = filepath.FromSlash(w)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	fsys := testutil.NewWebapp(t, map[string]string{
		"top.xml":          "<a/>",
		"WEB-INF/deep.xml": "<b/>",
		"WEB-INF/dir/x":    "",
	})
	require.NoError(t, afero.WriteFile(fsys, "/etc/outside.xml", []byte("<c/>"), 0o644))
	l := NewFileLoader(fsys, testutil.AppPath)

	tests := []struct {
		name  string
		want  string
		found bool
	}{
		{name: "top.xml", want: testutil.AppPath + "/top.xml", found: true},
		{name: "deep.xml", want: testutil.AppPath + "/WEB-INF/deep.xml", found: true},
		{name: "/WEB-INF/deep.xml", want: testutil.AppPath + "/WEB-INF/deep.xml", found: true},
		{name: "/etc/outside.xml", want: "/etc/outside.xml", found: true},
		{name: "dir"},
		{name: "missing.xml"},
		{name: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, found, err := l.Resolve(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, filepath.FromSlash(tt.want), path)
			}
		})
	}
}

func TestReadResource(t *testing.T) {
	fsys := testutil.NewWebapp(t, map[string]string{"WEB-INF/data.txt": "hello"})
	l := NewFileLoader(fsys, testutil.AppPath)

	data, err := l.ReadResource("data.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = l.ReadResource("nope.txt")
	assert.ErrorIs(t, err, xoerrors.ErrResourceNotFound)
	assert.ErrorIs(t, err, xoerrors.ErrResource)
}

func TestLoadDocument(t *testing.T) {
	fsys := testutil.NewWebapp(t, map[string]string{
		"WEB-INF/config.xml": testutil.ConfigXML,
		"WEB-INF/broken.xml": "<config>",
	})
	l := NewFileLoader(fsys, testutil.AppPath)

	doc, err := l.LoadDocument("config.xml")
	require.NoError(t, err)
	assert.Equal(t, "config", doc.Root().Tag)

	_, err = l.LoadDocument("broken.xml")
	assert.ErrorIs(t, err, xoerrors.ErrMalformedDocument)

	_, err = l.LoadXMLResource("absent.xml")
	assert.ErrorIs(t, err, xoerrors.ErrResourceNotFound)
}

func TestSplitFileList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{",", nil},
		{"a.xml", []string{"a.xml"}},
		{",a.xml,,b.xml", []string{"a.xml", "b.xml"}},
		{" a.xml , b.xml ", []string{"a.xml", "b.xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitFileList(tt.in))
		})
	}
}

package commands

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmloverrides/xmloverrides/internal/testutil"
	"github.com/xmloverrides/xmloverrides/overrides"
)

func TestHandleLogging(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		args    []string
		want    string
		wantErr string
	}{
		{
			name:  "level element",
			files: map[string]string{"WEB-INF/overrides-config.xml": testutil.Overrides(`<logging><level>error</level></logging>`)},
			want:  "Root level: ERROR\n",
		},
		{
			name: "log file",
			files: map[string]string{
				"WEB-INF/overrides-config.xml": testutil.Overrides(`<logging><logFile>/WEB-INF/logging.yaml</logFile></logging>`),
				"WEB-INF/logging.yaml":         "root:\n  level: debug\n",
			},
			want: "Root level: DEBUG\n",
		},
		{
			name:  "no logging section",
			files: map[string]string{"WEB-INF/overrides-config.xml": testutil.Overrides()},
			want:  "No logging level configured\n",
		},
		{
			name:    "bad level",
			files:   map[string]string{"WEB-INF/overrides-config.xml": testutil.Overrides(`<logging><level>loud</level></logging>`)},
			wantErr: "unknown logging level",
		},
		{
			name:    "extra argument",
			args:    []string{"x"},
			wantErr: "takes no arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := useCLI(t, tt.files)
			args := append([]string{"--app", testutil.AppPath}, tt.args...)
			err := HandleLogging(args)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, env.stdout.String())
		})
	}
}

func TestHandleLogging_LeavesRootLevel(t *testing.T) {
	env := useCLI(t, map[string]string{
		"WEB-INF/overrides-config.xml": testutil.Overrides(`<logging><level>debug</level></logging>`),
	})

	require.NoError(t, HandleLogging([]string{"--app", testutil.AppPath, "--format", "json"}))
	assert.Equal(t, slog.LevelWarn, overrides.RootLevel.Level())

	var report LoggingReport
	require.NoError(t, json.Unmarshal(env.stdout.Bytes(), &report))
	assert.Equal(t, LoggingReport{Configured: true, Level: "DEBUG"}, report)
}

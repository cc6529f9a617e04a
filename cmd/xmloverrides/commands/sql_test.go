package commands

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmloverrides/xmloverrides/internal/testutil"
)

func TestHandleSQL_DryRun(t *testing.T) {
	env := useCLI(t, sqlWebapp())

	require.NoError(t, HandleSQL([]string{"--app", testutil.AppPath, "--dry-run", "/WEB-INF/sql/init.sql"}))

	out := env.stdout.String()
	assert.Contains(t, out, "INSERT INTO Settings VALUES (21,20,'host','db.internal');\n")
	assert.NotContains(t, out, "obsolete")
	assert.NotContains(t, out, "-- seed data")
	assert.Contains(t, env.stderr.String(), "Statements: 2")
}

func TestHandleSQL_SQLite(t *testing.T) {
	env := useCLI(t, sqlWebapp())
	dbPath := filepath.Join(t.TempDir(), "app.db")

	require.NoError(t, HandleSQL([]string{"--app", testutil.AppPath, "--dsn", "file:" + dbPath, "-q", "/WEB-INF/sql/init.sql"}))
	assert.Empty(t, env.stdout.String())

	db, err := sql.Open(DriverSQLite, "file:"+dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var value string
	require.NoError(t, db.QueryRow("SELECT value FROM Settings WHERE name = 'host'").Scan(&value))
	assert.Equal(t, "db.internal", value)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM Settings").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestHandleSQL_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no script", args: nil, wantErr: "exactly one script"},
		{name: "bad driver", args: []string{"--driver", "oracle", "init.sql"}, wantErr: "invalid driver 'oracle'"},
		{name: "no dsn", args: []string{"init.sql"}, wantErr: "--dsn is required"},
		{name: "missing script", args: []string{"--app", testutil.AppPath, "-n", "/WEB-INF/sql/absent.sql"}, wantErr: "absent.sql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useCLI(t, sqlWebapp())
			assert.ErrorContains(t, HandleSQL(tt.args), tt.wantErr)
		})
	}
}

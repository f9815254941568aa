package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chmdznr/syncstat/pkg/models"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncstat.yaml")
	content := `
database: books.db
tables:
  - name: contacts
  - name: payments
    id_column: uuid
    status_column: sync_status
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "books.db", cfg.Database)
	assert.Equal(t, []models.Table{
		{Name: "contacts", IDColumn: "id", StatusColumn: "sync"},
		{Name: "payments", IDColumn: "uuid", StatusColumn: "sync_status"},
	}, cfg.Tables)

	tbl, ok := cfg.Table("payments")
	require.True(t, ok)
	assert.Equal(t, "uuid", tbl.IDColumn)

	_, ok = cfg.Table("missing")
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no tables", "database: a.db\n"},
		{"bad yaml", "tables: [\n"},
		{"injection in table name", "tables:\n  - name: \"contacts; DROP TABLE x\"\n"},
		{"bad column", "tables:\n  - name: contacts\n    status_column: \"1sync\"\n"},
		{"duplicate table", "tables:\n  - name: contacts\n  - name: contacts\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("sync"))
	assert.True(t, ValidIdentifier("_table_2"))
	assert.False(t, ValidIdentifier(""))
	assert.False(t, ValidIdentifier("2table"))
	assert.False(t, ValidIdentifier(`a"b`))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logg, err := NewLogger("info", "json", &buf)
	require.NoError(t, err)

	logg.Debug("hidden")
	logg.WithField("table", "contacts").Info("scanned")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"table":"contacts"`)
	assert.Equal(t, logrus.InfoLevel, logg.GetLevel())

	_, err = NewLogger("loud", "text", &buf)
	assert.Error(t, err)
	_, err = NewLogger("info", "xml", &buf)
	assert.Error(t, err)
}

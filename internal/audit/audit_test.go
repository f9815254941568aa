package audit

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chmdznr/syncstat/internal/config"
	"github.com/chmdznr/syncstat/internal/db"
	"github.com/chmdznr/syncstat/pkg/models"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var tables = []models.Table{
	{Name: "contacts", IDColumn: "id", StatusColumn: "sync"},
	{Name: "payments", IDColumn: "uuid", StatusColumn: "sync_status"},
	{Name: "invoices", IDColumn: "id", StatusColumn: "sync"},
}

func seed(t *testing.T) *db.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.db")

	w, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	stmts := []string{
		`CREATE TABLE contacts (id TEXT PRIMARY KEY, sync INTEGER)`,
		`CREATE TABLE payments (uuid TEXT PRIMARY KEY, sync_status INTEGER)`,
		`CREATE TABLE invoices (id TEXT PRIMARY KEY, sync INTEGER)`,
		`INSERT INTO contacts VALUES ('c1', 0), ('c2', 3), ('foo-c3', 2), (NULL, 2)`,
		`INSERT INTO payments VALUES ('p1', 0), ('p2', 99), ('p3', NULL), ('foo-p4', 5)`,
		`INSERT INTO invoices VALUES ('i1', 7), ('i2', 1)`,
	}
	for _, stmt := range stmts {
		_, err := w.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, w.Close())

	d, err := db.Open(path, config.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestRun(t *testing.T) {
	d := seed(t)
	auditor := NewAuditor(d, tables, &AuditorConfig{NumWorkers: 2}, config.DiscardLogger())

	reports, err := auditor.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 3)

	contacts := reports[0]
	assert.Equal(t, "contacts", contacts.Stats.Table)
	assert.False(t, contacts.OK())
	assert.Equal(t, int64(4), contacts.Stats.Total)
	assert.Equal(t, int64(3), contacts.Stats.NeedsSync())
	assert.Equal(t, int64(0), contacts.Stats.Invalid)
	assert.Equal(t, int64(1), contacts.Stats.LocalOnly)
	assert.Equal(t, []InvalidRecord{
		{ID: "NULL", Raw: "2", Reason: ReasonMissingID},
	}, contacts.Invalid)

	payments := reports[1]
	assert.Equal(t, "payments", payments.Stats.Table)
	assert.False(t, payments.OK())
	assert.Equal(t, int64(4), payments.Stats.Total)
	assert.Equal(t, int64(2), payments.Stats.Invalid)
	assert.Equal(t, int64(1), payments.Stats.Count(models.SyncRetryCreate))
	assert.ElementsMatch(t, []InvalidRecord{
		{ID: "p2", Raw: "99", Reason: ReasonUnknownStatus},
		{ID: "p3", Raw: "NULL", Reason: ReasonUnknownStatus},
	}, payments.Invalid)

	invoices := reports[2]
	assert.Equal(t, "invoices", invoices.Stats.Table)
	assert.True(t, invoices.OK())
	assert.Equal(t, int64(2), invoices.Stats.Errors())
	assert.Equal(t, int64(1), invoices.Stats.Pending(models.OpDelete))
}

func TestRunMatchesGetStats(t *testing.T) {
	d := seed(t)
	reports, err := NewAuditor(d, tables, nil, config.DiscardLogger()).Run(context.Background())
	require.NoError(t, err)

	for i, table := range tables {
		stats, err := d.GetStats(context.Background(), table)
		require.NoError(t, err)
		assert.Equal(t, stats, reports[i].Stats, table.Name)
	}
}

func TestRunWithProgress(t *testing.T) {
	d := seed(t)
	out := &lockedBuffer{}
	auditor := NewAuditor(d, tables, &AuditorConfig{NumWorkers: 3, ShowProgress: true, ProgressOut: out}, config.DiscardLogger())

	_, err := auditor.Run(context.Background())
	require.NoError(t, err)
	for _, table := range tables {
		assert.Contains(t, out.String(), table.Name)
	}
}

func TestRunMissingTable(t *testing.T) {
	d := seed(t)
	withMissing := append([]models.Table{{Name: "ghost", IDColumn: "id", StatusColumn: "sync"}}, tables...)

	_, err := NewAuditor(d, withMissing, nil, config.DiscardLogger()).Run(context.Background())
	assert.ErrorContains(t, err, "ghost")
}

func TestRunCancelled(t *testing.T) {
	d := seed(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAuditor(d, tables, nil, config.DiscardLogger()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewAuditorWorkers(t *testing.T) {
	a := NewAuditor(nil, tables, &AuditorConfig{NumWorkers: 16}, config.DiscardLogger())
	assert.Equal(t, len(tables), a.numWorkers)

	a = NewAuditor(nil, tables, &AuditorConfig{NumWorkers: 0}, config.DiscardLogger())
	assert.Equal(t, 1, a.numWorkers)
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/chmdznr/syncstat/internal/config"
	"github.com/chmdznr/syncstat/pkg/models"
)

// DB is a read-only connection to a database whose tables carry sync status
// codes. It never writes; statuses are owned by the synchronization process.
type DB struct {
	*sql.DB
	log *logrus.Logger
}

// Open opens the SQLite file at path in read-only mode.
func Open(path string, log *logrus.Logger) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	dsn, err := readOnlyDSN(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.WithField("path", path).Debug("opened database read-only")
	return &DB{DB: sqlDB, log: log}, nil
}

// readOnlyDSN builds a SQLite URI for path. The path is made absolute and
// escaped so that '?' or '#' in a file name are not read as URI syntax.
func readOnlyDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Path: filepath.ToSlash(abs)}
	return fmt.Sprintf("file:%s?mode=ro", u.EscapedPath()), nil
}

// RawRecord is a row as stored, before its status code is decoded.
// Both columns are read as nullable text so that corrupt rows can be
// reported verbatim.
type RawRecord struct {
	ID   sql.NullString
	Code sql.NullString
}

// Decode converts the stored code to a SyncStatus.
func (r RawRecord) Decode() (models.SyncStatus, error) {
	if !r.Code.Valid {
		return 0, fmt.Errorf("%w: NULL", models.ErrUnknownSyncStatus)
	}
	code, err := strconv.Atoi(strings.TrimSpace(r.Code.String))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", models.ErrUnknownSyncStatus, r.Code.String)
	}
	return models.FromCode(code)
}

// Display renders the stored code for reports.
func (r RawRecord) Display() string {
	if !r.Code.Valid {
		return "NULL"
	}
	return r.Code.String
}

// DisplayID renders the stored id for reports.
func (r RawRecord) DisplayID() string {
	if !r.ID.Valid {
		return "NULL"
	}
	return r.ID.String
}

// CountRecords returns the number of rows in the table.
func (db *DB) CountRecords(ctx context.Context, table models.Table) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	var n int64
	err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quote(table.Name))).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table.Name, err)
	}
	return n, nil
}

// GetStats returns per-status counts for the table.
func (db *DB) GetStats(ctx context.Context, table models.Table) (*models.Stats, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s, COUNT(*)
		FROM %s
		GROUP BY %s
	`, quote(table.StatusColumn), quote(table.Name), quote(table.StatusColumn)))
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for %s: %w", table.Name, err)
	}
	defer rows.Close()

	stats := models.NewStats(table.Name)
	for rows.Next() {
		var raw RawRecord
		var n int64
		if err := rows.Scan(&raw.Code, &n); err != nil {
			return nil, fmt.Errorf("failed to get stats for %s: %w", table.Name, err)
		}
		status, err := raw.Decode()
		if err != nil {
			db.log.WithFields(logrus.Fields{
				"table": table.Name,
				"code":  raw.Display(),
				"count": n,
			}).Warn("records with unknown sync status")
			stats.AddInvalid(n)
			continue
		}
		stats.Add(status, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get stats for %s: %w", table.Name, err)
	}

	localOnly, err := db.countLocalOnly(ctx, table)
	if err != nil {
		return nil, err
	}
	stats.LocalOnly = localOnly
	return stats, nil
}

func (db *DB) countLocalOnly(ctx context.Context, table models.Table) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM %s WHERE substr(%s, 1, ?) = ?
	`, quote(table.Name), quote(table.IDColumn)),
		len(models.FakeAPIIDPrefix), models.FakeAPIIDPrefix,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count local records in %s: %w", table.Name, err)
	}
	return n, nil
}

// GetRecordsByStatus returns records whose status is one of statuses,
// ordered by id. Rows without an id are skipped with a warning; check
// reports them.
func (db *DB) GetRecordsByStatus(ctx context.Context, table models.Table, statuses ...models.SyncStatus) ([]models.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, nil
	}

	args := make([]interface{}, len(statuses))
	for i, s := range statuses {
		args[i] = s
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s, %s
		FROM %s
		WHERE %s IN (%s)
		ORDER BY %s
	`, quote(table.IDColumn), quote(table.StatusColumn), quote(table.Name),
		quote(table.StatusColumn), placeholders, quote(table.IDColumn)), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table.Name, err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var id sql.NullString
		var rec models.Record
		if err := rows.Scan(&id, &rec.Status); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", table.Name, err)
		}
		if !id.Valid {
			db.log.WithFields(logrus.Fields{
				"table":  table.Name,
				"status": rec.Status.String(),
			}).Warn("skipping record without id")
			continue
		}
		rec.ID = id.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table.Name, err)
	}
	return records, nil
}

// GetPendingRecords returns records waiting for op, including retries.
func (db *DB) GetPendingRecords(ctx context.Context, table models.Table, op models.Operation) ([]models.Record, error) {
	if op == models.OpNone {
		return nil, errors.New("pending records need an operation")
	}
	return db.GetRecordsByStatus(ctx, table, models.StatusesFor(op)...)
}

// GetErrorRecords returns records whose last push failed.
func (db *DB) GetErrorRecords(ctx context.Context, table models.Table) ([]models.Record, error) {
	var statuses []models.SyncStatus
	for _, s := range models.AllSyncStatuses() {
		if s.HasError() {
			statuses = append(statuses, s)
		}
	}
	return db.GetRecordsByStatus(ctx, table, statuses...)
}

// EachRecord streams every row of the table to fn without decoding the
// status, so corrupt codes reach the caller. Iteration stops at the first
// error returned by fn.
func (db *DB) EachRecord(ctx context.Context, table models.Table, fn func(RawRecord) error) error {
	if err := checkTable(table); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT %s, %s FROM %s`,
		quote(table.IDColumn), quote(table.StatusColumn), quote(table.Name)))
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", table.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw RawRecord
		if err := rows.Scan(&raw.ID, &raw.Code); err != nil {
			return fmt.Errorf("failed to scan %s: %w", table.Name, err)
		}
		if err := fn(raw); err != nil {
			return err
		}
	}
	return rows.Err()
}

func checkTable(table models.Table) error {
	for _, ident := range []string{table.Name, table.IDColumn, table.StatusColumn} {
		if !config.ValidIdentifier(ident) {
			return fmt.Errorf("invalid identifier %q", ident)
		}
	}
	return nil
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

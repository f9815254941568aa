package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/sirupsen/logrus"

	"github.com/chmdznr/syncstat/internal/db"
	"github.com/chmdznr/syncstat/pkg/models"
)

// Auditor scans status-labelled tables and reports counts and corrupt codes
type Auditor struct {
	db           *db.DB
	tables       []models.Table
	numWorkers   int
	showProgress bool
	progressOut  io.Writer
	log          *logrus.Logger
}

// AuditorConfig holds configuration for the auditor
type AuditorConfig struct {
	NumWorkers   int
	ShowProgress bool
	ProgressOut  io.Writer // defaults to os.Stderr
}

// DefaultAuditorConfig returns default auditor configuration
func DefaultAuditorConfig() AuditorConfig {
	return AuditorConfig{
		NumWorkers: 4,
	}
}

// Reasons a row is reported as invalid
const (
	ReasonUnknownStatus = "unknown sync status"
	ReasonMissingID     = "missing id"
)

// InvalidRecord is a row that has no id or whose status column holds no
// known code.
type InvalidRecord struct {
	ID     string
	Raw    string
	Reason string
}

// Report is the audit result for one table.
type Report struct {
	Stats   *models.Stats
	Invalid []InvalidRecord
}

// OK reports whether every record carries a known status code.
func (r *Report) OK() bool {
	return len(r.Invalid) == 0
}

// NewAuditor creates a new auditor instance
func NewAuditor(database *db.DB, tables []models.Table, config *AuditorConfig, log *logrus.Logger) *Auditor {
	if config == nil {
		defaultConfig := DefaultAuditorConfig()
		config = &defaultConfig
	}
	numWorkers := config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if numWorkers > len(tables) && len(tables) > 0 {
		numWorkers = len(tables)
	}
	out := config.ProgressOut
	if out == nil {
		out = os.Stderr
	}

	return &Auditor{
		db:           database,
		tables:       tables,
		numWorkers:   numWorkers,
		showProgress: config.ShowProgress,
		progressOut:  out,
		log:          log,
	}
}

// tableProgress tracks progress for a single table
type tableProgress struct {
	bar *pb.ProgressBar
}

func newTableProgress(table string, total int64, out io.Writer) *tableProgress {
	bar := pb.New64(total)
	bar.SetWriter(out)
	bar.SetTemplate(`{{string . "table"}} {{counters . }} {{bar . }} {{percent . }}`)
	bar.Set("table", table)
	return &tableProgress{bar: bar}
}

func (tp *tableProgress) start() {
	if tp != nil {
		tp.bar.Start()
	}
}

func (tp *tableProgress) increment() {
	if tp != nil {
		tp.bar.Increment()
	}
}

func (tp *tableProgress) finish() {
	if tp != nil {
		tp.bar.Finish()
	}
}

// Run audits all tables with a pool of workers. Reports are returned in
// table order. The first failure cancels the remaining work.
func (a *Auditor) Run(ctx context.Context) ([]*Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type workItem struct {
		index int
		table models.Table
	}

	jobs := make(chan workItem)
	reports := make([]*Report, len(a.tables))

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < a.numWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for job := range jobs {
				a.log.WithFields(logrus.Fields{
					"worker": id,
					"table":  job.table.Name,
				}).Debug("auditing table")

				report, err := a.auditTable(ctx, job.table)
				if err != nil {
					fail(err)
					continue
				}
				reports[job.index] = report
			}
		}(i)
	}

send:
	for i, t := range a.tables {
		select {
		case jobs <- workItem{index: i, table: t}:
		case <-ctx.Done():
			break send
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (a *Auditor) auditTable(ctx context.Context, table models.Table) (*Report, error) {
	var progress *tableProgress
	if a.showProgress {
		total, err := a.db.CountRecords(ctx, table)
		if err != nil {
			return nil, err
		}
		progress = newTableProgress(table.Name, total, a.progressOut)
		progress.start()
		defer progress.finish()
	}

	report := &Report{Stats: models.NewStats(table.Name)}
	err := a.db.EachRecord(ctx, table, func(raw db.RawRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		progress.increment()

		if strings.HasPrefix(raw.ID.String, models.FakeAPIIDPrefix) {
			report.Stats.LocalOnly++
		}
		status, err := raw.Decode()
		if err != nil {
			report.Stats.AddInvalid(1)
			report.Invalid = append(report.Invalid, InvalidRecord{
				ID:     raw.DisplayID(),
				Raw:    raw.Display(),
				Reason: ReasonUnknownStatus,
			})
			return nil
		}
		// Counted under its status so totals agree with GetStats.
		report.Stats.Add(status, 1)
		if !raw.ID.Valid {
			report.Invalid = append(report.Invalid, InvalidRecord{
				ID:     raw.DisplayID(),
				Raw:    raw.Display(),
				Reason: ReasonMissingID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("audit %s: %w", table.Name, err)
	}

	if !report.OK() {
		a.log.WithFields(logrus.Fields{
			"table":   table.Name,
			"invalid": len(report.Invalid),
		}).Warn("table holds invalid records")
	}
	return report, nil
}

package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/chmdznr/syncstat/internal/audit"
	"github.com/chmdznr/syncstat/pkg/models"
)

func (r *runner) showCodes(c *cli.Context) error {
	w := c.App.Writer
	fmt.Fprintf(w, "%-4s  %-17s  %-10s  %-9s  %s\n", "CODE", "NAME", "NEEDS_SYNC", "HAS_ERROR", "OPERATION")
	for _, s := range models.AllSyncStatuses() {
		fmt.Fprintf(w, "%-4d  %-17s  %-10t  %-9t  %s\n", s.Code(), s, s.NeedsSync(), s.HasError(), s.Operation())
	}
	return nil
}

func (r *runner) decode(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one code or name is required")
	}
	for _, arg := range c.Args().Slice() {
		s, err := models.ParseSyncStatus(arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%d %s needs_sync=%t has_error=%t retry=%t operation=%s\n",
			s.Code(), s, s.NeedsSync(), s.HasError(), s.IsRetry(), s.Operation())
	}
	return nil
}

// showStatus prints per-table counts for every sync status.
//
// Needs Sync counts first push attempts only; failed attempts waiting for a
// retry are reported under Errors.
func (r *runner) showStatus(c *cli.Context) error {
	database, tables, err := r.target(c)
	if err != nil {
		return err
	}
	defer database.Close()

	w := c.App.Writer
	for i, table := range tables {
		stats, err := database.GetStats(c.Context, table)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Table: %s\n", stats.Table)
		fmt.Fprintf(w, "Total Records: %d\n", stats.Total)
		fmt.Fprintf(w, "Synced: %d\n", stats.Synced())
		fmt.Fprintf(w, "Needs Sync: %d (create %d, update %d, delete %d)\n",
			stats.NeedsSync(),
			stats.Count(models.NeedsSyncCreate),
			stats.Count(models.NeedsSyncUpdate),
			stats.Count(models.NeedsSyncDelete))
		fmt.Fprintf(w, "Errors: %d (retrying %d)\n", stats.Errors(), stats.Retries())
		fmt.Fprintf(w, "Local Only: %d\n", stats.LocalOnly)
		if stats.Invalid > 0 {
			fmt.Fprintf(w, "Invalid: %d\n", stats.Invalid)
		}
		fmt.Fprintf(w, "Progress: %.2f%%\n", stats.Progress())
	}
	return nil
}

func (r *runner) listPending(c *cli.Context) error {
	op, err := models.ParseOperation(c.String("op"))
	if err != nil {
		return err
	}
	if op == models.OpNone {
		return errors.New("--op must be create, update or delete")
	}

	database, tables, err := r.target(c)
	if err != nil {
		return err
	}
	defer database.Close()

	for _, table := range tables {
		records, err := database.GetPendingRecords(c.Context, table, op)
		if err != nil {
			return err
		}
		printRecords(c, table, records)
	}
	return nil
}

func (r *runner) listErrors(c *cli.Context) error {
	database, tables, err := r.target(c)
	if err != nil {
		return err
	}
	defer database.Close()

	for _, table := range tables {
		records, err := database.GetErrorRecords(c.Context, table)
		if err != nil {
			return err
		}
		printRecords(c, table, records)
	}
	return nil
}

func printRecords(c *cli.Context, table models.Table, records []models.Record) {
	for _, rec := range records {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n", table.Name, rec.ID, rec.Status)
	}
}

// check exits with exitInvalidData when any table holds unknown codes or
// rows without an id.
func (r *runner) check(c *cli.Context) error {
	database, tables, err := r.target(c)
	if err != nil {
		return err
	}
	defer database.Close()

	auditor := audit.NewAuditor(database, tables, &audit.AuditorConfig{
		NumWorkers:   c.Int("workers"),
		ShowProgress: c.Bool("progress"),
		ProgressOut:  c.App.ErrWriter,
	}, r.log)

	reports, err := auditor.Run(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	var invalid int
	for _, report := range reports {
		fmt.Fprintf(w, "%s: %d records, %d invalid\n", report.Stats.Table, report.Stats.Total, len(report.Invalid))
		for _, rec := range report.Invalid {
			fmt.Fprintf(w, "  %s: %s (%s)\n", rec.ID, rec.Raw, rec.Reason)
		}
		invalid += len(report.Invalid)
	}
	if invalid > 0 {
		return cli.Exit(fmt.Sprintf("%d invalid records", invalid), exitInvalidData)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/desertthunder/playlistdl/internal/formatter"
	"github.com/desertthunder/playlistdl/internal/models"
	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

func (r *Runner) requireHistory() error {
	if r.history == nil {
		return fmt.Errorf("%w: download history is disabled (database.history)", shared.ErrServiceUnavailable)
	}
	return nil
}

// historyCriteria builds repository criteria from the --batch, --status and --limit flags.
func historyCriteria(cmd *cli.Command) (map[string]any, error) {
	criteria := map[string]any{
		"batch_id": cmd.String("batch"),
		"limit":    int(cmd.Int("limit")),
	}

	if s := cmd.String("status"); s != "" {
		status, err := models.ParseOutcomeStatus(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		criteria["status"] = string(status)
	}
	return criteria, nil
}

// HistoryList renders recorded downloads as a table, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireHistory(); err != nil {
		return err
	}

	criteria, err := historyCriteria(cmd)
	if err != nil {
		return err
	}

	records, err := r.history.List(criteria)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		r.writePlain("No downloads recorded.\n")
		return nil
	}

	table := tablewriter.NewWriter(r.output)
	table.SetHeader([]string{"#", "Title", "Artist", "Status", "File / Error"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, rec := range records {
		detail := rec.ErrorDetail()
		if rec.Status() == models.StatusFetched {
			detail = filepath.Base(rec.OutputPath())
		}
		table.Append([]string{strconv.Itoa(rec.Sequence()), rec.Title(), rec.Contributor(), string(rec.Status()), detail})
	}
	table.Render()
	return nil
}

// HistoryBatches summarizes recent batches.
func (r *Runner) HistoryBatches(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireHistory(); err != nil {
		return err
	}

	batches, err := r.history.Batches(int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		r.writePlain("No downloads recorded.\n")
		return nil
	}

	table := tablewriter.NewWriter(r.output)
	table.SetHeader([]string{"Batch", "Source", "Fetched", "Not found", "Failed", "Started"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, b := range batches {
		table.Append([]string{
			b.BatchID,
			b.SourceURL,
			strconv.Itoa(b.Fetched),
			strconv.Itoa(b.NoMatch),
			strconv.Itoa(b.Failed),
			b.StartedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	table.Render()
	return nil
}

// HistoryExport writes recorded downloads in the requested format to --output or stdout.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireHistory(); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	criteria, err := historyCriteria(cmd)
	if err != nil {
		return err
	}

	records, err := r.history.List(criteria)
	if err != nil {
		return err
	}

	report := &formatter.Report{BatchID: cmd.String("batch"), Records: records}
	if len(records) > 0 && report.BatchID != "" {
		report.Source = records[0].SourceURL()
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(report, format, path); err != nil {
			return err
		}
		r.logger.Info("history exported", "path", path, "records", len(records))
		r.writePlain("Exported %d records to %s\n", len(records), path)
		return nil
	}

	data, err := formatter.Export(report, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// HistoryClear deletes the records of one batch, or all records with --all.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireHistory(); err != nil {
		return err
	}

	batch := cmd.String("batch")
	if batch == "" && !cmd.Bool("all") {
		return fmt.Errorf("%w: either --batch or --all must be provided", shared.ErrMissingArgument)
	}

	n, err := r.history.Clear(batch)
	if err != nil {
		return err
	}
	r.writePlain("Removed %d records\n", n)
	return nil
}

package main

import (
	"context"
	"time"

	"github.com/desertthunder/migtrack/internal/formatter"
	"github.com/desertthunder/migtrack/internal/models"
	"github.com/urfave/cli/v3"
)

// ReportExport stores a report of the current state on the server and renders it locally.
func (r *Runner) ReportExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	res, err := r.api.ExportReport(ctx, cmd.String("label"), cmd.Bool("write-file"))
	if err != nil {
		return err
	}
	r.logger.Info("report exported", "id", res.Entry.ID, "sequence", res.Entry.Sequence)

	if res.FilePath != "" {
		r.writePlain("✓ Server wrote %s\n", res.FilePath)
	}
	r.writePlain("✓ Stored report #%d (%s)\n", res.Entry.Sequence, res.Entry.ID)

	if cmd.String("output") == "" && format == formatter.FormatText {
		return nil
	}
	return r.renderReport(res.Entry.Report, format, cmd.String("output"))
}

// ReportList prints stored reports, newest first.
func (r *Runner) ReportList(ctx context.Context, cmd *cli.Command) error {
	entries, err := r.api.Reports(ctx, cmd.String("label"), cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		type listed struct {
			ID        string    `json:"id"`
			Sequence  int       `json:"sequence"`
			Label     string    `json:"label"`
			CreatedAt time.Time `json:"created_at"`
			Percent   float64   `json:"overall_progress"`
		}
		out := make([]listed, 0, len(entries))
		for _, e := range entries {
			out = append(out, listed{e.ID, e.Sequence, e.Label, e.CreatedAt, e.Report.OverallProgress.Percent})
		}
		return r.writeJSON(out, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No reports stored.\n")
	}
	for _, e := range entries {
		r.writePlain("#%-4d %s  %6.2f%%  %s\n", e.Sequence, e.CreatedAt.Format(time.RFC3339), e.Report.OverallProgress.Percent, orDash(e.Label))
	}
	return nil
}

// ReportShow renders a stored report.
func (r *Runner) ReportShow(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	entry, err := r.api.ShowReport(ctx, cmd.StringArg("ref"))
	if err != nil {
		return err
	}
	return r.renderReport(entry.Report, format, cmd.String("output"))
}

// renderReport writes report to path, or to the runner's output when path is empty.
func (r *Runner) renderReport(report models.Report, format formatter.Format, path string) error {
	if path != "" {
		written, err := formatter.WriteExport(report, path, format)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Report written to %s\n", written)
	}

	data, err := formatter.Render(report, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return err
	}
	return nil
}

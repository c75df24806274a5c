package main

import (
	"context"
	"strings"
	"time"

	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/notify"
	"github.com/urfave/cli/v3"
)

// Status prints overall progress, or one component's record when a name is given.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	if name := strings.TrimSpace(cmd.StringArg("component")); name != "" {
		return r.componentStatus(ctx, cmd, name)
	}

	overall, err := r.api.Status(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(overall, true)
	}

	components, err := r.api.Components(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader("Migration Progress")
	r.writePlain("Overall: %.2f%%\n", overall.Percent)
	r.writePlain("Components: %d total, %d completed, %d in progress, %d pending\n\n",
		overall.TotalComponents, overall.CompletedComponents, overall.InProgressComponents, overall.PendingComponents)

	for _, c := range components {
		r.writePlain("%-24s %-12s %3d%%", c.Name, c.Status, c.Progress)
		if c.OpenIssues > 0 {
			r.writePlain("  ⚠ %d open", c.OpenIssues)
		}
		r.writePlain("\n")
	}
	return nil
}

func (r *Runner) componentStatus(ctx context.Context, cmd *cli.Command, name string) error {
	rec, err := r.api.Component(ctx, name)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(rec, true)
	}

	r.writePlainHeader(rec.Component)
	r.writePlain("Status:   %s\n", rec.Status)
	r.writePlain("Progress: %d%%\n", rec.Progress)
	r.writePlain("Phase:    %s\n", rec.CurrentPhase)
	r.writePlain("Started:  %s\n", rec.StartTime.Format(time.RFC3339))
	if rec.CompletionTime != nil {
		r.writePlain("Finished: %s\n", rec.CompletionTime.Format(time.RFC3339))
	}

	if len(rec.CompletedTasks) > 0 {
		r.writePlainln("Completed tasks:")
		for _, t := range rec.CompletedTasks {
			r.writePlain("  ✓ %s\n", t.Task)
		}
	}
	if len(rec.RemainingTasks) > 0 {
		r.writePlainln("Remaining tasks:")
		for _, t := range rec.RemainingTasks {
			r.writePlain("  - %s\n", t)
		}
	}
	if len(rec.Issues) > 0 {
		r.writePlainln("Issues:")
		for _, is := range rec.Issues {
			mark := "!"
			if is.Resolved {
				mark = "✓"
			}
			r.writePlain("  %s #%d [%s] %s\n", mark, is.Index, is.Severity, is.Description)
		}
	}
	return nil
}

// Logs prints recent tracking events, newest first.
func (r *Runner) Logs(ctx context.Context, cmd *cli.Command) error {
	entries, err := r.api.Logs(ctx, cmd.String("component"), cmd.Int("limit"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No events recorded.\n")
	}
	for _, e := range entries {
		r.writePlain("%5d  %s  %s %s\n", e.Sequence, e.Timestamp.Format(time.RFC3339), eventIcon(e.EventType), notify.Message(e.Notification))
	}
	return nil
}

func eventIcon(t models.EventType) string {
	switch t {
	case models.EventStarted:
		return "🚀"
	case models.EventMilestone:
		return "🎯"
	case models.EventIssue:
		return "⚠"
	case models.EventCompleted:
		return "✅"
	default:
		return "•"
	}
}

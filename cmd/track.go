package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/shared"
	"github.com/desertthunder/migtrack/internal/tasks"
	"github.com/urfave/cli/v3"
)

func requireComponent(cmd *cli.Command) (string, error) {
	name := strings.TrimSpace(cmd.StringArg("component"))
	if name == "" {
		return "", fmt.Errorf("%w: component name is required", shared.ErrMissingArgument)
	}
	return name, nil
}

// TrackStart begins tracking a component.
func (r *Runner) TrackStart(ctx context.Context, cmd *cli.Command) error {
	name, err := requireComponent(cmd)
	if err != nil {
		return err
	}

	rec, err := r.api.Start(ctx, name)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(rec, true)
	}

	r.writePlain("✓ Tracking %s (%d tasks)\n", rec.Component, len(rec.RemainingTasks))
	for _, t := range rec.RemainingTasks {
		r.writePlain("  - %s\n", t)
	}
	return nil
}

// TrackProgress sets a component's percentage and phase.
func (r *Runner) TrackProgress(ctx context.Context, cmd *cli.Command) error {
	name, err := requireComponent(cmd)
	if err != nil {
		return err
	}

	res, err := r.api.SetProgress(ctx, name, cmd.Int("percent"), cmd.String("phase"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(res, true)
	}
	return r.writeProgressResult(res)
}

// TrackTask marks one remaining task as done.
func (r *Runner) TrackTask(ctx context.Context, cmd *cli.Command) error {
	name, err := requireComponent(cmd)
	if err != nil {
		return err
	}

	res, err := r.api.CompleteTask(ctx, name, cmd.String("task"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(res, true)
	}
	return r.writeProgressResult(res)
}

// TrackIssue appends an issue.
func (r *Runner) TrackIssue(ctx context.Context, cmd *cli.Command) error {
	name, err := requireComponent(cmd)
	if err != nil {
		return err
	}

	severity := models.Severity(strings.ToLower(cmd.String("severity")))
	if severity != "" && !severity.Valid() {
		return fmt.Errorf("%w: severity must be low, medium or high", shared.ErrInvalidArgument)
	}

	res, err := r.api.AddIssue(ctx, name, cmd.String("description"), severity)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(res, true)
	}
	return r.writePlain("✓ Issue #%d recorded for %s\n", res.Index, res.Component)
}

// TrackResolve marks an issue resolved.
func (r *Runner) TrackResolve(ctx context.Context, cmd *cli.Command) error {
	name, err := requireComponent(cmd)
	if err != nil {
		return err
	}

	index := cmd.Int("index")
	rec, err := r.api.ResolveIssue(ctx, name, index)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(rec, true)
	}
	return r.writePlain("✓ Issue #%d resolved for %s (%d open)\n", index, rec.Component, rec.OpenIssues())
}

// TrackComplete marks a component as completed.
func (r *Runner) TrackComplete(ctx context.Context, cmd *cli.Command) error {
	name, err := requireComponent(cmd)
	if err != nil {
		return err
	}

	rec, err := r.api.Complete(ctx, name)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(rec, true)
	}

	r.writePlain("✓ %s completed", rec.Component)
	if rec.CompletionTime != nil {
		r.writePlain(" in %s", rec.CompletionTime.Sub(rec.StartTime).Round(time.Second))
	}
	return r.writePlain("\n")
}

// TrackApply replays a plan file through the API.
func (r *Runner) TrackApply(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("plan")
	if path == "" {
		return fmt.Errorf("%w: plan file is required", shared.ErrMissingArgument)
	}

	plan, err := tasks.LoadPlan(path)
	if err != nil {
		return err
	}
	r.logger.Info("applying plan", "path", path, "steps", len(plan.Steps))

	asJSON := cmd.Bool("json")
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if asJSON {
				continue
			}
			switch update.Phase {
			case tasks.ValidatePlan:
				r.writePlain("📋 %s\n\n", update.Message)
			case tasks.ApplySteps:
				r.writePlain("   %s\n", update.Message)
			case tasks.PlanCompleted:
				r.writePlain("\n%s\n", update.Message)
			}
		}
	}()

	engine := tasks.NewBatchEngine(r.api, r.logger)
	result, err := engine.Apply(ctx, plan, progressCh, tasks.ApplyOpts{
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}
	if asJSON {
		return r.writeJSON(applySummary(result), true)
	}

	r.writePlainln("")
	r.writePlainHeader("Plan Applied")
	r.writePlain("Steps: %d applied, %d failed, %d skipped of %d\n", result.Applied, result.Failed, result.Skipped, result.TotalSteps)
	for _, c := range result.Components {
		if !c.Failed() {
			continue
		}
		last := c.Steps[len(c.Steps)-1]
		r.writePlain("  ✗ %s: %v\n", last.Step, last.Error)
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d plan steps failed", result.Failed)
	}
	return nil
}

type componentSummary struct {
	Component  string                 `json:"component"`
	Applied    int                    `json:"applied"`
	Skipped    int                    `json:"skipped"`
	Error      string                 `json:"error,omitempty"`
	Milestones []int                  `json:"milestones,omitempty"`
	Final      *models.TrackingRecord `json:"final,omitempty"`
}

type planSummary struct {
	TotalSteps int                `json:"total_steps"`
	Applied    int                `json:"applied"`
	Failed     int                `json:"failed"`
	Skipped    int                `json:"skipped"`
	Components []componentSummary `json:"components"`
}

func applySummary(r *tasks.ApplyResult) planSummary {
	out := planSummary{TotalSteps: r.TotalSteps, Applied: r.Applied, Failed: r.Failed, Skipped: r.Skipped}
	milestones := r.Milestones()
	for _, c := range r.Components {
		cs := componentSummary{Component: c.Component, Skipped: c.Skipped, Milestones: milestones[c.Component], Final: c.Final}
		for _, s := range c.Steps {
			if s.Error != nil {
				cs.Error = s.Error.Error()
			} else {
				cs.Applied++
			}
		}
		out.Components = append(out.Components, cs)
	}
	return out
}

func (r *Runner) writeProgressResult(res models.ProgressResult) error {
	rec := res.Record
	r.writePlain("✓ %s %d%% (%s)\n", rec.Component, rec.Progress, rec.CurrentPhase)
	r.writePlain("  tasks: %d done, %d remaining\n", len(rec.CompletedTasks), len(rec.RemainingTasks))
	for _, m := range res.Milestones {
		r.writePlain("  🎯 milestone %d%% reached\n", m)
	}
	return nil
}

// Package tasks replays batches of tracking operations against a tracker.
//
// A [Plan] lists steps in order. [BatchEngine.Apply] runs the steps of different components concurrently
// while keeping each component's steps in plan order, and emits progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/shared"
)

// Action names one tracking operation.
type Action string

const (
	ActionStart    Action = "start"
	ActionProgress Action = "progress"
	ActionTask     Action = "task"
	ActionIssue    Action = "issue"
	ActionResolve  Action = "resolve"
	ActionComplete Action = "complete"
)

// Step is one operation of a [Plan].
type Step struct {
	Component   string          `json:"component"`
	Action      Action          `json:"action"`
	Progress    int             `json:"progress,omitempty"`
	Phase       string          `json:"phase,omitempty"`
	Task        string          `json:"task,omitempty"`
	Description string          `json:"description,omitempty"`
	Severity    models.Severity `json:"severity,omitempty"`
	Index       int             `json:"index,omitempty"`
}

func (s Step) String() string {
	switch s.Action {
	case ActionProgress:
		return fmt.Sprintf("%s %s %d%%", s.Component, s.Action, s.Progress)
	case ActionTask:
		return fmt.Sprintf("%s %s %q", s.Component, s.Action, s.Task)
	case ActionIssue:
		return fmt.Sprintf("%s %s %q", s.Component, s.Action, s.Description)
	case ActionResolve:
		return fmt.Sprintf("%s %s #%d", s.Component, s.Action, s.Index)
	default:
		return fmt.Sprintf("%s %s", s.Component, s.Action)
	}
}

// Validate checks that the step names a component and carries the fields its action needs.
func (s Step) Validate() error {
	if strings.TrimSpace(s.Component) == "" {
		return fmt.Errorf("%w: step has no component", shared.ErrInvalidInput)
	}

	switch s.Action {
	case ActionStart, ActionComplete:
	case ActionProgress:
		if s.Progress < 0 || s.Progress > 100 {
			return fmt.Errorf("%w: progress %d out of range", shared.ErrInvalidInput, s.Progress)
		}
	case ActionTask:
		if strings.TrimSpace(s.Task) == "" {
			return fmt.Errorf("%w: task step has no task", shared.ErrInvalidInput)
		}
	case ActionIssue:
		if strings.TrimSpace(s.Description) == "" {
			return fmt.Errorf("%w: issue step has no description", shared.ErrInvalidInput)
		}
	case ActionResolve:
		if s.Index < 0 {
			return fmt.Errorf("%w: negative issue index", shared.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown action %q", shared.ErrInvalidInput, s.Action)
	}
	return nil
}

// Plan is an ordered list of tracking operations.
type Plan struct {
	Steps []Step `json:"steps"`
}

// Validate checks every step, reporting the first bad one by position.
func (p Plan) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: plan has no steps", shared.ErrInvalidInput)
	}
	for i, s := range p.Steps {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

// groups splits the plan by component, keeping plan order inside each group and first-appearance order across groups.
func (p Plan) groups() []componentJob {
	index := map[string]int{}
	var jobs []componentJob
	for _, s := range p.Steps {
		i, ok := index[s.Component]
		if !ok {
			i = len(jobs)
			index[s.Component] = i
			jobs = append(jobs, componentJob{component: s.Component})
		}
		jobs[i].steps = append(jobs[i].steps, s)
	}
	return jobs
}

// DecodePlan parses and validates a JSON plan document.
func DecodePlan(r io.Reader) (*Plan, error) {
	var p Plan
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: malformed plan: %v", shared.ErrInvalidInput, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPlan reads a plan from a JSON file.
func LoadPlan(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan: %w", err)
	}
	defer f.Close()
	return DecodePlan(f)
}

// Client is the set of tracker operations a plan can drive. services.APIService implements it.
type Client interface {
	Start(ctx context.Context, name string) (models.TrackingRecord, error)
	SetProgress(ctx context.Context, name string, percent int, phase string) (models.ProgressResult, error)
	CompleteTask(ctx context.Context, name, task string) (models.ProgressResult, error)
	AddIssue(ctx context.Context, name, description string, severity models.Severity) (models.IssueResult, error)
	ResolveIssue(ctx context.Context, name string, index int) (models.TrackingRecord, error)
	Complete(ctx context.Context, name string) (models.TrackingRecord, error)
}

// StepResult reports the outcome of one applied step.
type StepResult struct {
	Step       Step
	Milestones []int
	Error      error
}

// ComponentResult reports every step run for one component.
//
// Steps after the first failure are not run and count as Skipped.
type ComponentResult struct {
	Component string
	Steps     []StepResult
	Skipped   int
	Final     *models.TrackingRecord
}

// Failed reports whether any step for the component failed.
func (c ComponentResult) Failed() bool {
	for _, s := range c.Steps {
		if s.Error != nil {
			return true
		}
	}
	return false
}

// ApplyResult contains the outcome of [BatchEngine.Apply].
type ApplyResult struct {
	TotalSteps int
	Applied    int
	Failed     int
	Skipped    int
	Components []ComponentResult
}

// Milestones lists every milestone crossed per component, in step order.
func (r *ApplyResult) Milestones() map[string][]int {
	out := map[string][]int{}
	for _, c := range r.Components {
		for _, s := range c.Steps {
			out[c.Component] = append(out[c.Component], s.Milestones...)
		}
	}
	return out
}

type componentJob struct {
	component string
	steps     []Step
}

// BatchEngine applies plans through a [Client].
type BatchEngine struct {
	client Client
	logger *log.Logger
}

// NewBatchEngine creates an engine driving client. A nil logger discards output.
func NewBatchEngine(client Client, logger *log.Logger) *BatchEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &BatchEngine{client: client, logger: logger}
}

// sendProgress sends a progress update without blocking. A nil channel drops it.
func (e *BatchEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// applyStep runs a single step and returns crossed milestones and the resulting record when the action yields one.
func (e *BatchEngine) applyStep(ctx context.Context, s Step) ([]int, *models.TrackingRecord, error) {
	var (
		rec models.TrackingRecord
		err error
	)

	switch s.Action {
	case ActionStart:
		rec, err = e.client.Start(ctx, s.Component)
	case ActionProgress:
		var res models.ProgressResult
		res, err = e.client.SetProgress(ctx, s.Component, s.Progress, s.Phase)
		if err == nil {
			return res.Milestones, &res.Record, nil
		}
	case ActionTask:
		var res models.ProgressResult
		res, err = e.client.CompleteTask(ctx, s.Component, s.Task)
		if err == nil {
			return res.Milestones, &res.Record, nil
		}
	case ActionIssue:
		_, err = e.client.AddIssue(ctx, s.Component, s.Description, s.Severity)
		return nil, nil, err
	case ActionResolve:
		rec, err = e.client.ResolveIssue(ctx, s.Component, s.Index)
	case ActionComplete:
		rec, err = e.client.Complete(ctx, s.Component)
	default:
		return nil, nil, fmt.Errorf("%w: unknown action %q", shared.ErrInvalidInput, s.Action)
	}

	if err != nil {
		return nil, nil, err
	}
	return nil, &rec, nil
}

package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ValidatePlan Phase = iota
	ApplySteps
	PlanCompleted
)

func (p Phase) String() string {
	switch p {
	case ValidatePlan:
		return "validate_plan"
	case ApplySteps:
		return "apply_steps"
	case PlanCompleted:
		return "plan_completed"
	default:
		return ""
	}
}

func validatePlanUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidatePlan,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Validating plan (%d steps)...", total),
	}
}

func stepAppliedUpdate(step, total int, s Step, milestones []int) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, s)
	if len(milestones) > 0 {
		msg = fmt.Sprintf("%s (milestones %v)", msg, milestones)
	}
	return ProgressUpdate{
		Phase:   ApplySteps,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    s,
	}
}

func stepFailedUpdate(step, total int, s Step, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplySteps,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, s, err),
		Data:    s,
	}
}

func planCompletedUpdate(r *ApplyResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PlanCompleted,
		Step:    r.Applied + r.Failed,
		Total:   r.TotalSteps,
		Message: fmt.Sprintf("Plan finished: %d applied, %d failed, %d skipped", r.Applied, r.Failed, r.Skipped),
		Data:    r,
	}
}

package notify

import (
	"fmt"
	"time"

	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/shared"
)

func newNotification(t models.EventType, component string, at time.Time, details map[string]any) models.Notification {
	return models.Notification{
		ID:        shared.GenerateID(),
		EventType: t,
		Component: component,
		Timestamp: at,
		Details:   details,
	}
}

// Started reports that tracking began for component with the given number of derived tasks.
func Started(component string, tasks int, at time.Time) models.Notification {
	return newNotification(models.EventStarted, component, at, map[string]any{"tasks": tasks})
}

// MilestoneReached reports that component's progress crossed milestone.
func MilestoneReached(component string, milestone, progress int, at time.Time) models.Notification {
	return newNotification(models.EventMilestone, component, at, map[string]any{
		"milestone": milestone,
		"progress":  progress,
	})
}

// IssueRaised reports a newly appended issue.
func IssueRaised(component, description string, severity models.Severity, index int, at time.Time) models.Notification {
	return newNotification(models.EventIssue, component, at, map[string]any{
		"description": description,
		"severity":    string(severity),
		"index":       index,
	})
}

// Completed reports that component finished migrating.
func Completed(component string, started, at time.Time) models.Notification {
	return newNotification(models.EventCompleted, component, at, map[string]any{
		"duration_seconds": int64(at.Sub(started).Seconds()),
	})
}

// Message renders a one-line human summary, used by chat webhooks and logs.
func Message(n models.Notification) string {
	switch n.EventType {
	case models.EventStarted:
		return "Started migrating " + n.Component
	case models.EventMilestone:
		return fmt.Sprintf("%s reached %v%% migration progress", n.Component, n.Details["milestone"])
	case models.EventIssue:
		return fmt.Sprintf("Issue in %s (%v): %v", n.Component, n.Details["severity"], n.Details["description"])
	case models.EventCompleted:
		return "Completed migrating " + n.Component
	default:
		return fmt.Sprintf("%s: %s", n.EventType, n.Component)
	}
}

package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/migtrack/internal/models"
)

var _ list.Item = componentItem{}

// componentItem wraps a catalog [models.ComponentSummary] and its live record to implement [list.Item].
type componentItem struct {
	summary models.ComponentSummary
	record  *models.TrackingRecord
}

func (i componentItem) FilterValue() string { return i.summary.Name }
func (i componentItem) Title() string       { return i.summary.Name }
func (i componentItem) Description() string {
	if i.record == nil {
		desc := string(models.StatusNotTracked)
		if i.summary.Priority != "" {
			desc = fmt.Sprintf("%s • %s priority", desc, i.summary.Priority)
		}
		return desc
	}

	desc := fmt.Sprintf("%s • %d%% • %s", i.record.Status, i.record.Progress, i.record.CurrentPhase)
	if open := i.record.OpenIssues(); open > 0 {
		desc = fmt.Sprintf("%s • %d open issues", desc, open)
	}
	return desc
}

// componentItems merges the catalog summaries with the tracked records of snap.
//
// Without summaries the tracked records alone are listed.
func componentItems(summaries []models.ComponentSummary, snap *models.Snapshot) []list.Item {
	if len(summaries) == 0 && snap != nil {
		for _, name := range trackedNames(snap) {
			summaries = append(summaries, models.ComponentSummary{Name: name})
		}
	}

	items := make([]list.Item, 0, len(summaries))
	for _, s := range summaries {
		item := componentItem{summary: s}
		if snap != nil {
			if rec, ok := snap.Components[s.Name]; ok {
				item.record = &rec
			}
		}
		items = append(items, item)
	}
	return items
}

// package formatter renders progress reports to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/shared"
)

// Format names an output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat accepts a format name or a common alias ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return string(f)
	}
}

// Render converts report to the given format.
func Render(report models.Report, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal report: %w", err)
		}
		return append(data, '\n'), nil
	case FormatCSV:
		return ExportToCSV(report)
	case FormatMarkdown:
		return ExportToMarkdown(report)
	case FormatText:
		return ExportToText(report)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// ExportToCSV converts a report to CSV with one row per tracked component.
func ExportToCSV(report models.Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Component", "Status", "Progress", "Phase", "Tasks Done", "Tasks Remaining", "Open Issues", "Started", "Completed"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, name := range componentNames(report) {
		rec := report.DetailedStatus[name]
		completed := ""
		if rec.CompletionTime != nil {
			completed = rec.CompletionTime.Format(time.RFC3339)
		}

		row := []string{
			name,
			string(rec.Status),
			strconv.Itoa(rec.Progress),
			rec.CurrentPhase,
			strconv.Itoa(len(rec.CompletedTasks)),
			strconv.Itoa(len(rec.RemainingTasks)),
			strconv.Itoa(rec.OpenIssues()),
			rec.StartTime.Format(time.RFC3339),
			completed,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a report to a Markdown document with a summary, a component table and open issues.
func ExportToMarkdown(report models.Report) ([]byte, error) {
	var buf bytes.Buffer
	overall := report.OverallProgress

	buf.WriteString("# Migration Progress Report\n\n")
	buf.WriteString(fmt.Sprintf("**Generated**: %s\n\n", report.GeneratedAt.Format(time.RFC3339)))
	buf.WriteString(fmt.Sprintf("**Overall progress**: %.2f%%\n\n", overall.Percent))
	buf.WriteString(fmt.Sprintf("| Total | Completed | In progress | Pending |\n| --- | --- | --- | --- |\n| %d | %d | %d | %d |\n\n",
		overall.TotalComponents, overall.CompletedComponents, overall.InProgressComponents, overall.PendingComponents))

	names := componentNames(report)
	if len(names) == 0 {
		buf.WriteString("No components are being tracked.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("## Components\n\n")
	buf.WriteString("| Component | Status | Progress | Phase | Tasks | Open issues |\n")
	buf.WriteString("| --- | --- | --- | --- | --- | --- |\n")
	for _, name := range names {
		rec := report.DetailedStatus[name]
		done := len(rec.CompletedTasks)
		buf.WriteString(fmt.Sprintf("| %s | %s | %d%% | %s | %d/%d | %d |\n",
			name, rec.Status, rec.Progress, rec.CurrentPhase, done, done+len(rec.RemainingTasks), rec.OpenIssues()))
	}

	var issues []string
	for _, name := range names {
		for _, issue := range report.DetailedStatus[name].Issues {
			if !issue.Resolved {
				issues = append(issues, fmt.Sprintf("- **%s** #%d (%s): %s\n", name, issue.Index, issue.Severity, issue.Description))
			}
		}
	}
	if len(issues) > 0 {
		buf.WriteString("\n## Open Issues\n\n")
		for _, line := range issues {
			buf.WriteString(line)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a report to plain text
func ExportToText(report models.Report) ([]byte, error) {
	var buf bytes.Buffer
	overall := report.OverallProgress

	buf.WriteString(fmt.Sprintf("Migration progress: %.2f%%\n", overall.Percent))
	buf.WriteString(fmt.Sprintf("Components: %d total, %d completed, %d in progress, %d pending\n\n",
		overall.TotalComponents, overall.CompletedComponents, overall.InProgressComponents, overall.PendingComponents))

	for _, name := range componentNames(report) {
		rec := report.DetailedStatus[name]
		buf.WriteString(fmt.Sprintf("%s [%s] %d%% (%s)\n", name, rec.Status, rec.Progress, rec.CurrentPhase))
		for _, task := range rec.RemainingTasks {
			buf.WriteString(fmt.Sprintf("  - %s\n", task))
		}
		for _, issue := range rec.Issues {
			if !issue.Resolved {
				buf.WriteString(fmt.Sprintf("  ! [%s] %s\n", issue.Severity, issue.Description))
			}
		}
	}

	return buf.Bytes(), nil
}

// WriteExport renders report and writes it to path.
//
// Defaults to component_status.{ext} in the working directory. Parent directories are created.
func WriteExport(report models.Report, path string, f Format) (string, error) {
	if path == "" {
		path = "component_status." + f.Ext()
	}

	data, err := Render(report, f)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return path, nil
}

func componentNames(report models.Report) []string {
	return slices.Sorted(maps.Keys(report.DetailedStatus))
}

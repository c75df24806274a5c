package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/shared"
	th "github.com/desertthunder/migtrack/internal/testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{" txt ", FormatText, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestExporters(t *testing.T) {
	report := th.SampleReport()

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(report)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(rows))
		}
		if strings.Join(rows[0], ",") != "Component,Status,Progress,Phase,Tasks Done,Tasks Remaining,Open Issues,Started,Completed" {
			t.Errorf("CSV has wrong headers: %v", rows[0])
		}
		if rows[1][0] != "authentication" || rows[2][0] != "dashboard" {
			t.Errorf("expected rows sorted by component, got %s, %s", rows[1][0], rows[2][0])
		}
		if rows[1][8] == "" {
			t.Error("expected completion time for completed component")
		}
		if rows[2][2] != "50" || rows[2][6] != "1" || rows[2][8] != "" {
			t.Errorf("unexpected dashboard row: %v", rows[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(report)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Migration Progress Report",
			"**Overall progress**: 50.00%",
			"| 3 | 1 | 1 | 1 |",
			"| dashboard | in_progress | 50% | views | 1/2 | 1 |",
			"## Open Issues",
			"Chart widget renders blank",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
		if strings.Contains(output, "Old fixed issue") {
			t.Error("Markdown should not list resolved issues")
		}
	})

	t.Run("ExportToMarkdown Empty", func(t *testing.T) {
		data, err := ExportToMarkdown(models.Report{})
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		if !strings.Contains(string(data), "No components are being tracked.") {
			t.Errorf("expected empty notice, got:\n%s", data)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(report)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"Migration progress: 50.00%",
			"Components: 3 total, 1 completed, 1 in progress, 1 pending",
			"dashboard [in_progress] 50% (views)",
			"  - Migrate view: dashboard.index",
			"  ! [high] Chart widget renders blank",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("text missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("Render JSON", func(t *testing.T) {
		data, err := Render(report, FormatJSON)
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		for _, key := range []string{"generated_at", "overall_progress", "detailed_status"} {
			if _, ok := decoded[key]; !ok {
				t.Errorf("JSON missing %s", key)
			}
		}
	})

	t.Run("Render Unknown Format", func(t *testing.T) {
		if _, err := Render(report, Format("pdf")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	report := th.SampleReport()

	t.Run("WithDefaultPath", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		for _, f := range Formats {
			path, err := WriteExport(report, "", f)
			if err != nil {
				t.Fatalf("WriteExport(%s) failed: %v", f, err)
			}
			if path != "component_status."+f.Ext() {
				t.Errorf("expected default path for %s, got %s", f, path)
			}
			th.AssertFileExists(t, path)
		}
	})

	t.Run("WithNestedPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reports", "weekly", "status.md")

		got, err := WriteExport(report, path, FormatMarkdown)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		th.AssertDirExists(t, filepath.Dir(path))

		if content := th.MustReadFile(t, path); !strings.Contains(content, "# Migration Progress Report") {
			t.Errorf("Markdown file missing title")
		}
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		if _, err := WriteExport(report, filepath.Join(t.TempDir(), "x"), Format("pdf")); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/migtrack/internal/models"
)

// FileReportWriter writes reports as indented JSON to a fixed path.
type FileReportWriter struct {
	path string
}

func NewFileReportWriter(path string) *FileReportWriter {
	return &FileReportWriter{path: path}
}

func (w *FileReportWriter) Path() string { return w.path }

// WriteReport replaces the file at the writer's path with report.
//
// The document is written to a temporary file first and renamed into place.
func (w *FileReportWriter) WriteReport(ctx context.Context, report models.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}

	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}

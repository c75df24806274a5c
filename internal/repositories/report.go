package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/migtrack/internal/models"
	"github.com/desertthunder/migtrack/internal/shared"
)

var _ models.Repository[*models.StoredReport] = (*ReportRepository)(nil)

// ReportRepository implements models.Repository[*models.StoredReport] for exported report snapshots.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new ReportRepository with the given database connection
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, sequence, label, document, created_at, updated_at, deleted_at`

// Create inserts a new [models.StoredReport] with generated ID and sequence
func (r *ReportRepository) Create(report *models.StoredReport) error {
	return r.CreateContext(context.Background(), report)
}

// CreateContext is [ReportRepository.Create] bound to ctx.
func (r *ReportRepository) CreateContext(ctx context.Context, report *models.StoredReport) error {
	sequence, err := NextSequence(ctx, r.db, "reports")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	report.SetID(shared.GenerateID())
	report.SetSequence(sequence)

	if err := report.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	doc, err := report.Document()
	if err != nil {
		return err
	}

	overall := report.Report().OverallProgress
	query := `
		INSERT INTO reports (id, sequence, label, generated_at, overall_progress, total_components, completed_components, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		report.ID(),
		report.Sequence(),
		report.Label(),
		report.Report().GeneratedAt,
		overall.Percent,
		overall.TotalComponents,
		overall.CompletedComponents,
		doc,
		report.CreatedAt(),
		report.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// WriteReport saves an unlabeled report, so the repository can be handed to the tracker as its export target.
func (r *ReportRepository) WriteReport(ctx context.Context, report models.Report) error {
	return r.CreateContext(ctx, models.NewStoredReport(0, "", report))
}

// Get retrieves a report by ID, excluding soft-deleted reports
func (r *ReportRepository) Get(id string) (*models.StoredReport, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// GetBySequence retrieves a report by its "#n" reference.
func (r *ReportRepository) GetBySequence(sequence int) (*models.StoredReport, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE sequence = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, sequence))
}

// Latest returns the most recently generated report.
func (r *ReportRepository) Latest() (*models.StoredReport, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE deleted_at IS NULL ORDER BY sequence DESC LIMIT 1`
	return r.scan(r.db.QueryRow(query))
}

// Update changes the label of an existing report. The document itself is immutable.
func (r *ReportRepository) Update(report *models.StoredReport) error {
	if err := report.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	report.SetUpdatedAt(now)

	result, err := r.db.Exec(`
		UPDATE reports
		SET label = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, report.Label(), now, report.ID())
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	return expectAffected(result, report.ID())
}

// Delete soft-deletes a report by ID
func (r *ReportRepository) Delete(id string) error {
	result, err := r.db.Exec(`
		UPDATE reports
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	return expectAffected(result, id)
}

// List retrieves reports newest first, excluding soft-deleted ones.
//
// Supported criteria: "label" (exact match) and "limit" (int).
func (r *ReportRepository) List(criteria map[string]any) ([]*models.StoredReport, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE deleted_at IS NULL`
	args := []any{}

	if label, ok := criteria["label"].(string); ok && label != "" {
		query += " AND label = ?"
		args = append(args, label)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []*models.StoredReport{}
	for rows.Next() {
		report, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return reports, nil
}

func (r *ReportRepository) scan(row scanner) (*models.StoredReport, error) {
	var (
		id        string
		sequence  int
		label     string
		document  string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &label, &document, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	var doc models.Report
	if err := json.Unmarshal([]byte(document), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", id, err)
	}

	report := models.NewStoredReport(sequence, label, doc)
	report.SetID(id)
	report.SetCreatedAt(createdAt)
	report.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		report.SetDeletedAt(&deletedAt.Time)
	}

	return report, nil
}

func expectAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrReportNotFound, id)
	}
	return nil
}

// Package repository holds the sqlite implementations of the application ports
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/admissions-flow/internal/application/port"
	"github.com/garyjia/admissions-flow/internal/domain/entity"
	"go.uber.org/zap"
)

// HistoryRepository implements port.HistoryRepository on sqlite. Applicant ids
// restart with the process, so reads are scoped to the run that wrote them.
type HistoryRepository struct {
	db     *sql.DB
	runID  string
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, runID string, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		runID:  runID,
		logger: logger,
	}
}

// Create creates a new history record
func (r *HistoryRepository) Create(ctx context.Context, rec *entity.TransitionRecord) error {
	query := `
		INSERT INTO transition_history (
			applicant_id, step, task, previous_status, new_status,
			outcome, detail, run_id, request_id, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if rec.RunID == "" {
		rec.RunID = r.runID
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, query,
		rec.ApplicantID,
		rec.Step,
		rec.Task,
		rec.PreviousStatus,
		rec.NewStatus,
		rec.Outcome,
		rec.Detail,
		rec.RunID,
		rec.RequestID,
		rec.Timestamp.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create history record",
			zap.Int64("applicant_id", rec.ApplicantID),
			zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = id
	return nil
}

// GetByApplicantID retrieves this run's records for an applicant, oldest first
func (r *HistoryRepository) GetByApplicantID(ctx context.Context, applicantID int64) ([]*entity.TransitionRecord, error) {
	query := `
		SELECT id, applicant_id, step, task, previous_status, new_status,
			outcome, detail, run_id, request_id, timestamp
		FROM transition_history
		WHERE run_id = ? AND applicant_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, r.runID, applicantID)
	if err != nil {
		r.logger.Error("Failed to get history by applicant ID", zap.Int64("applicant_id", applicantID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.TransitionRecord, 0)
	for rows.Next() {
		var record entity.TransitionRecord
		err := rows.Scan(
			&record.ID,
			&record.ApplicantID,
			&record.Step,
			&record.Task,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.Outcome,
			&record.Detail,
			&record.RunID,
			&record.RequestID,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)

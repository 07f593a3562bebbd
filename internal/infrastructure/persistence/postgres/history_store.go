// Package postgres stores the transition history in PostgreSQL
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/garyjia/admissions-flow/internal/application/port"
	"github.com/garyjia/admissions-flow/internal/domain/entity"
)

// DefaultTable is the table used when Config.Table is empty
const DefaultTable = "transition_history"

// Config holds the connection settings of the history store
type Config struct {
	DSN             string
	Table           string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// HistoryStore implements port.HistoryRepository on PostgreSQL
type HistoryStore struct {
	db    *sql.DB
	table string
	runID string
}

// NewHistoryStore connects, waits for the server to accept connections and
// creates the schema when missing
func NewHistoryStore(ctx context.Context, cfg Config, runID string) (*HistoryStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s := &HistoryStore{db: db, table: pq.QuoteIdentifier(table), runID: runID}

	if err := s.waitReady(ctx, cfg.ConnectTimeout); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *HistoryStore) waitReady(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := 250 * time.Millisecond
	for {
		err := s.db.PingContext(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("ping postgres: %w", err)
		case <-time.After(backoff):
		}
		if backoff < 4*time.Second {
			backoff *= 2
		}
	}
}

func (s *HistoryStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id BIGSERIAL PRIMARY KEY,
			applicant_id BIGINT NOT NULL,
			step TEXT NOT NULL DEFAULT '',
			task TEXT NOT NULL DEFAULT '',
			previous_status TEXT NOT NULL DEFAULT '',
			new_status TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			run_id UUID NOT NULL,
			request_id TEXT NOT NULL DEFAULT '',
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s (run_id, applicant_id, id);
	`, s.table, pq.QuoteIdentifier("idx_"+unquote(s.table)+"_applicant")))
	if err != nil {
		return fmt.Errorf("create history schema: %w", describe(err))
	}
	return nil
}

// Close closes the connection pool
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Ping checks the connection
func (s *HistoryStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create appends a record and assigns its id
func (s *HistoryStore) Create(ctx context.Context, rec *entity.TransitionRecord) error {
	if rec.RunID == "" {
		rec.RunID = s.runID
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (applicant_id, step, task, previous_status, new_status,
			outcome, detail, run_id, request_id, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, s.table),
		rec.ApplicantID, rec.Step, rec.Task, rec.PreviousStatus, rec.NewStatus,
		rec.Outcome, rec.Detail, rec.RunID, rec.RequestID, rec.Timestamp,
	)
	if err := row.Scan(&rec.ID); err != nil {
		return fmt.Errorf("insert history: %w", describe(err))
	}
	return nil
}

// GetByApplicantID returns this run's records for an applicant, oldest first
func (s *HistoryStore) GetByApplicantID(ctx context.Context, applicantID int64) ([]*entity.TransitionRecord, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, applicant_id, step, task, previous_status, new_status,
		       outcome, detail, run_id, request_id, recorded_at
		FROM %s
		WHERE run_id = $1 AND applicant_id = $2
		ORDER BY id ASC
	`, s.table), s.runID, applicantID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", describe(err))
	}
	defer rows.Close()

	records := make([]*entity.TransitionRecord, 0)
	for rows.Next() {
		var rec entity.TransitionRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.ApplicantID,
			&rec.Step,
			&rec.Task,
			&rec.PreviousStatus,
			&rec.NewStatus,
			&rec.Outcome,
			&rec.Detail,
			&rec.RunID,
			&rec.RequestID,
			&rec.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// describe adds the SQLSTATE of server errors
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%w (sqlstate %s)", err, pqErr.Code)
	}
	return err
}

func unquote(ident string) string {
	if len(ident) >= 2 && ident[0] == '"' && ident[len(ident)-1] == '"' {
		return ident[1 : len(ident)-1]
	}
	return ident
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryStore)(nil)

package memory

import (
	"context"
	"sync"

	"github.com/garyjia/admissions-flow/internal/domain/entity"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64][]entity.TransitionRecord
}

// NewHistoryRepository creates an empty history store
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{records: make(map[int64][]entity.TransitionRecord)}
}

// Create appends a record and assigns its id
func (r *HistoryRepository) Create(ctx context.Context, rec *entity.TransitionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	rec.ID = r.nextID
	r.records[rec.ApplicantID] = append(r.records[rec.ApplicantID], *rec)
	return nil
}

// GetByApplicantID returns the applicant's records in insertion order
func (r *HistoryRepository) GetByApplicantID(ctx context.Context, applicantID int64) ([]*entity.TransitionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.records[applicantID]
	result := make([]*entity.TransitionRecord, len(stored))
	for i := range stored {
		rec := stored[i]
		result[i] = &rec
	}
	return result, nil
}

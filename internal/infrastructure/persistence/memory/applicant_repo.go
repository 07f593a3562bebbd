// Package memory keeps applicant records and their transition history in
// process memory. Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyjia/admissions-flow/internal/domain/entity"
	"github.com/garyjia/admissions-flow/internal/domain/workflow"
)

type record struct {
	mu        sync.Mutex
	applicant *entity.Applicant
}

// ApplicantRepository implements port.ApplicantRepository
type ApplicantRepository struct {
	nextID atomic.Int64
	now    func() time.Time

	mu      sync.RWMutex
	records map[int64]*record
	order   []int64
}

// NewApplicantRepository creates an empty directory. Ids start at 1.
func NewApplicantRepository() *ApplicantRepository {
	return &ApplicantRepository{
		now:     time.Now,
		records: make(map[int64]*record),
	}
}

// Create stores a new applicant under the next id
func (r *ApplicantRepository) Create(ctx context.Context, info entity.PersonalInfo) (*entity.Applicant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := r.nextID.Add(1)
	a := entity.NewApplicant(id, info, r.now().UTC())

	r.mu.Lock()
	r.records[id] = &record{applicant: a}
	r.order = append(r.order, id)
	r.mu.Unlock()

	return a.Clone(), nil
}

// Get returns a copy of the applicant
func (r *ApplicantRepository) Get(ctx context.Context, id int64) (*entity.Applicant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.applicant.Clone(), nil
}

// Update applies fn to a working copy under the record lock and commits it
// only when fn succeeds
func (r *ApplicantRepository) Update(ctx context.Context, id int64, fn func(a *entity.Applicant) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rec, err := r.lookup(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	working := rec.applicant.Clone()
	if err := fn(working); err != nil {
		return err
	}
	rec.applicant = working
	return nil
}

// List returns applicants ordered by id. A non-positive limit returns every
// applicant after offset.
func (r *ApplicantRepository) List(ctx context.Context, limit, offset int) ([]*entity.Applicant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	var ids []int64
	if offset < len(r.order) {
		ids = r.order[offset:]
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	recs := make([]*record, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, r.records[id])
	}
	r.mu.RUnlock()

	result := make([]*entity.Applicant, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		result = append(result, rec.applicant.Clone())
		rec.mu.Unlock()
	}
	return result, nil
}

// Count returns the number of stored applicants
func (r *ApplicantRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *ApplicantRepository) lookup(id int64) (*record, error) {
	r.mu.RLock()
	rec, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: id %d", workflow.ErrNotFound, id)
	}
	return rec, nil
}

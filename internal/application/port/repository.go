package port

import (
	"context"

	"github.com/garyjia/admissions-flow/internal/domain/entity"
)

// ApplicantRepository owns applicant records. Implementations hand out copies
// and never let callers hold a live reference between calls.
type ApplicantRepository interface {
	Create(ctx context.Context, info entity.PersonalInfo) (*entity.Applicant, error)
	Get(ctx context.Context, id int64) (*entity.Applicant, error)

	// Update runs fn against a working copy while holding the record's lock.
	// The copy replaces the stored record only if fn returns nil.
	Update(ctx context.Context, id int64, fn func(a *entity.Applicant) error) error

	List(ctx context.Context, limit, offset int) ([]*entity.Applicant, error)
}

// HistoryRepository defines persistence operations for TransitionRecord
type HistoryRepository interface {
	Create(ctx context.Context, record *entity.TransitionRecord) error
	GetByApplicantID(ctx context.Context, applicantID int64) ([]*entity.TransitionRecord, error)
}

package entity

import (
	"time"

	"github.com/garyjia/admissions-flow/internal/domain/flow"
	"github.com/garyjia/admissions-flow/internal/domain/workflow"
)

// PersonalInfo is captured by the personal details form and never changes
type PersonalInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Applicant tracks one person's way through the admissions pipeline
type Applicant struct {
	ID           int64          `json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	Status       workflow.State `json:"status"`
	PersonalInfo PersonalInfo   `json:"personal_info"`
	Progress     flow.Progress  `json:"-"`

	// Interview step
	InterviewDate *string `json:"interview_date,omitempty"`
	InterviewerID *string `json:"interviewer_id,omitempty"`

	// Sign Contract step
	PassportNumber     *string `json:"passport_number,omitempty"`
	PassportUploadedAt *string `json:"passport_uploaded_at,omitempty"`
	ContractSignedAt   *string `json:"contract_signed_at,omitempty"`
}

// NewApplicant creates an in-progress applicant whose personal details step is done
func NewApplicant(id int64, info PersonalInfo, createdAt time.Time) *Applicant {
	return &Applicant{
		ID:           id,
		CreatedAt:    createdAt,
		Status:       workflow.StateInProgress,
		PersonalInfo: info,
		Progress:     flow.NewProgress(),
	}
}

// Clone returns a deep copy that shares no mutable state with a
func (a *Applicant) Clone() *Applicant {
	c := *a
	c.Progress = a.Progress.Clone()
	c.InterviewDate = cloneString(a.InterviewDate)
	c.InterviewerID = cloneString(a.InterviewerID)
	c.PassportNumber = cloneString(a.PassportNumber)
	c.PassportUploadedAt = cloneString(a.PassportUploadedAt)
	c.ContractSignedAt = cloneString(a.ContractSignedAt)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

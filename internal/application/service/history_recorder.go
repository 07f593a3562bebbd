package service

import (
	"context"
	"fmt"

	"github.com/garyjia/admissions-flow/internal/application/dispatcher"
	"github.com/garyjia/admissions-flow/internal/application/port"
	"github.com/garyjia/admissions-flow/internal/domain/entity"
	"github.com/garyjia/admissions-flow/internal/domain/event"
)

// HistoryHandlerName is the dispatcher registration name of the recorder
const HistoryHandlerName = "transition-history"

var outcomes = map[event.Type]string{
	event.TypeApplicantCreated:  entity.OutcomeCreated,
	event.TypeTaskCompleted:     entity.OutcomeCompleted,
	event.TypeTaskFailed:        entity.OutcomeFailed,
	event.TypeApplicantAccepted: entity.OutcomeAccepted,
	event.TypeApplicantRejected: entity.OutcomeRejected,
}

// HistoryRecorder turns applicant events into transition records. Records are
// appended in dispatch order, which per applicant is commit order.
type HistoryRecorder struct {
	repo   port.HistoryRepository
	runID  string
	logger Logger
}

// NewHistoryRecorder creates a recorder tagging records with runID
func NewHistoryRecorder(repo port.HistoryRepository, runID string, logger Logger) *HistoryRecorder {
	return &HistoryRecorder{repo: repo, runID: runID, logger: logger}
}

// Register subscribes the recorder to every applicant event
func (r *HistoryRecorder) Register(d dispatcher.Dispatcher) {
	d.SubscribeAll(HistoryHandlerName, r.Handle)
}

// Handle stores one event
func (r *HistoryRecorder) Handle(ctx context.Context, evt *event.Event) error {
	outcome, ok := outcomes[evt.Type]
	if !ok {
		return fmt.Errorf("no outcome for event type %s", evt.Type)
	}

	rec := &entity.TransitionRecord{
		ApplicantID:    evt.ApplicantID,
		Step:           evt.Step,
		Task:           evt.Task,
		PreviousStatus: evt.GetPayloadString(event.KeyPreviousStatus),
		NewStatus:      evt.GetPayloadString(event.KeyNewStatus),
		Outcome:        outcome,
		Detail:         evt.GetPayloadString(event.KeyDetail),
		RunID:          r.runID,
		RequestID:      evt.CorrelationID,
		Timestamp:      evt.Timestamp,
	}

	if err := r.repo.Create(ctx, rec); err != nil {
		r.logger.Error("Failed to record transition",
			"applicant_id", evt.ApplicantID,
			"event_type", evt.Type,
			"error", err,
		)
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

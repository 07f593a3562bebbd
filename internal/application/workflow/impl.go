package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/admissions-flow/internal/application/dispatcher"
	"github.com/garyjia/admissions-flow/internal/application/port"
	"github.com/garyjia/admissions-flow/internal/domain/entity"
	"github.com/garyjia/admissions-flow/internal/domain/event"
	"github.com/garyjia/admissions-flow/internal/domain/flow"
	domainwf "github.com/garyjia/admissions-flow/internal/domain/workflow"
)

// engineImpl is the concrete implementation of CompletionEngine
type engineImpl struct {
	applicants port.ApplicantRepository
	validators map[flow.TaskRef]TaskValidator
	rules      Rules
	now        func() time.Time
	dispatcher dispatcher.Dispatcher
	logger     dispatcher.Logger
	publishing *applicantLocks
}

// applicantLocks hands out one mutex per applicant id
type applicantLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// lock blocks until the applicant's mutex is held and returns its release
func (l *applicantLocks) lock(id int64) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// EngineOption configures the completion engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the logger used for publish failures
func WithLogger(l dispatcher.Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = l
	}
}

// WithRules overrides the pass/fail thresholds
func WithRules(r Rules) EngineOption {
	return func(e *engineImpl) {
		e.rules = r
	}
}

// WithClock sets the source of "now" for future-date checks
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new completion engine
func NewEngine(applicants port.ApplicantRepository, opts ...EngineOption) CompletionEngine {
	e := &engineImpl{
		applicants: applicants,
		validators: DefaultValidators(),
		rules:      DefaultRules(),
		now:        time.Now,
		publishing: &applicantLocks{locks: make(map[int64]*sync.Mutex)},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// CompleteStep resolves the applicant, checks ordering and runs the current
// task's validator against a working copy. Nothing is stored unless every
// check passes.
func (e *engineImpl) CompleteStep(ctx context.Context, req CompleteRequest) (*Result, error) {
	var result *Result
	var release func()

	err := e.applicants.Update(ctx, req.ApplicantID, func(a *entity.Applicant) error {
		// Taken under the record lock and held until publish returns, so a
		// later submission cannot emit its events ahead of this one.
		release = e.publishing.lock(a.ID)

		step, ok := flow.ParseStep(req.StepName)
		if !ok {
			return fmt.Errorf("%w: %q", domainwf.ErrUnknownStep, req.StepName)
		}

		pos, ok := flow.CurrentStep(a.Progress)
		if !ok {
			return &domainwf.OutOfOrderError{Requested: step.String()}
		}
		if pos.Step != step {
			return &domainwf.OutOfOrderError{Current: pos.Step.String(), Requested: step.String()}
		}
		if a.Status.IsTerminal() {
			return fmt.Errorf("%w: applicant %d is %s", domainwf.ErrApplicantClosed, a.ID, a.Status)
		}

		task := pos.NextTask()
		validate, ok := e.validators[flow.TaskRef{Step: step, Task: task}]
		if !ok {
			validate = genericTask
		}

		verdict, err := validate(a, req.Payload, TaskContext{Now: e.now(), Rules: e.rules})
		if err != nil {
			return err
		}

		machine, err := BuildApplicantStateMachine(a.Status, a.Progress)
		if err != nil {
			return err
		}
		previous := machine.State()

		if verdict.Passed {
			a.Progress.Set(step, task, true)
			if machine.CanFire(domainwf.TriggerAccept) && flow.AllComplete(a.Progress) {
				if err := machine.Fire(ctx, domainwf.TriggerAccept); err != nil {
					return err
				}
			}
		} else {
			if err := machine.Fire(ctx, domainwf.TriggerReject); err != nil {
				return err
			}
		}
		a.Status = machine.State()

		result = &Result{
			ApplicantID:    a.ID,
			Step:           step,
			Task:           task,
			Passed:         verdict.Passed,
			Detail:         verdict.Detail,
			PreviousStatus: previous,
			NewStatus:      a.Status,
		}
		return nil
	})
	if release != nil {
		defer release()
	}
	if err != nil {
		return nil, err
	}

	e.publish(ctx, result)
	return result, nil
}

// publish emits the events of a committed submission. The submission stands
// even if a subscriber fails.
func (e *engineImpl) publish(ctx context.Context, r *Result) {
	if e.dispatcher == nil {
		return
	}

	taskType := event.TypeTaskCompleted
	if !r.Passed {
		taskType = event.TypeTaskFailed
	}
	events := []*event.Event{e.newEvent(ctx, taskType, r)}

	if r.StatusChanged() {
		switch r.NewStatus {
		case domainwf.StateAccepted:
			events = append(events, e.newEvent(ctx, event.TypeApplicantAccepted, r))
		case domainwf.StateRejected:
			events = append(events, e.newEvent(ctx, event.TypeApplicantRejected, r))
		}
	}

	for _, evt := range events {
		if err := e.dispatcher.Dispatch(ctx, evt); err != nil && e.logger != nil {
			e.logger.Error("Failed to publish event",
				"event_type", evt.Type,
				"applicant_id", r.ApplicantID,
				"error", err,
			)
		}
	}
}

func (e *engineImpl) newEvent(ctx context.Context, t event.Type, r *Result) *event.Event {
	return event.New(ctx, t, r.ApplicantID, map[string]interface{}{
		event.KeyPreviousStatus: r.PreviousStatus.String(),
		event.KeyNewStatus:      r.NewStatus.String(),
		event.KeyDetail:         r.Detail,
	}).ForTask(r.Step.String(), r.Task.String())
}

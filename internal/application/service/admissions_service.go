package service

import (
	"context"
	"fmt"

	"github.com/garyjia/admissions-flow/internal/application/dispatcher"
	"github.com/garyjia/admissions-flow/internal/application/port"
	"github.com/garyjia/admissions-flow/internal/application/workflow"
	"github.com/garyjia/admissions-flow/internal/domain/entity"
	"github.com/garyjia/admissions-flow/internal/domain/event"
	"github.com/garyjia/admissions-flow/internal/domain/flow"
	domainwf "github.com/garyjia/admissions-flow/internal/domain/workflow"
	"github.com/garyjia/admissions-flow/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CurrentStep is the applicant's current step with its pending tasks.
// Complete is set instead once every step is done.
type CurrentStep struct {
	Step     flow.StepName
	Tasks    []flow.TaskName
	Complete bool
}

// AdmissionsService is the boundary of the admissions pipeline
type AdmissionsService interface {
	CreateApplicant(ctx context.Context, info entity.PersonalInfo) (*entity.Applicant, error)
	GetFullFlow(ctx context.Context, id int64) (*flow.Snapshot, error)
	GetCurrentStep(ctx context.Context, id int64) (*CurrentStep, error)
	CompleteStep(ctx context.Context, req workflow.CompleteRequest) (*workflow.Result, error)
	GetStatus(ctx context.Context, id int64) (domainwf.State, error)
	DescribeFlow() []flow.Step
	GetHistory(ctx context.Context, id int64) ([]*entity.TransitionRecord, error)
	ListApplicants(ctx context.Context, limit, offset int) ([]*entity.Applicant, error)
}

type admissionsServiceImpl struct {
	applicants port.ApplicantRepository
	history    port.HistoryRepository
	engine     workflow.CompletionEngine
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// NewAdmissionsService creates a new AdmissionsService. dispatcher may be nil.
func NewAdmissionsService(
	applicants port.ApplicantRepository,
	history port.HistoryRepository,
	engine workflow.CompletionEngine,
	dispatcher dispatcher.Dispatcher,
	logger Logger,
) AdmissionsService {
	return &admissionsServiceImpl{
		applicants: applicants,
		history:    history,
		engine:     engine,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CreateApplicant validates the personal details and registers the applicant
func (s *admissionsServiceImpl) CreateApplicant(ctx context.Context, info entity.PersonalInfo) (*entity.Applicant, error) {
	info = entity.PersonalInfo{
		Email:     utils.SanitizeString(info.Email),
		FirstName: utils.SanitizeString(info.FirstName),
		LastName:  utils.SanitizeString(info.LastName),
	}
	if err := validatePersonalInfo(info); err != nil {
		return nil, err
	}

	a, err := s.applicants.Create(ctx, info)
	if err != nil {
		s.logger.Error("Failed to create applicant", "error", err)
		return nil, fmt.Errorf("create applicant: %w", err)
	}

	s.logger.Info("Applicant created", "applicant_id", a.ID)

	if s.dispatcher != nil {
		evt := event.New(ctx, event.TypeApplicantCreated, a.ID, map[string]interface{}{
			event.KeyNewStatus: a.Status.String(),
		}).ForTask(flow.StepPersonalDetails.String(), flow.TaskForm.String())
		if err := s.dispatcher.Dispatch(ctx, evt); err != nil {
			s.logger.Error("Failed to publish event", "event_type", evt.Type, "applicant_id", a.ID, "error", err)
		}
	}

	return a, nil
}

func validatePersonalInfo(info entity.PersonalInfo) error {
	if info.Email == "" {
		return fmt.Errorf("%w: email", domainwf.ErrMissingField)
	}
	if info.FirstName == "" {
		return fmt.Errorf("%w: first_name", domainwf.ErrMissingField)
	}
	if info.LastName == "" {
		return fmt.Errorf("%w: last_name", domainwf.ErrMissingField)
	}
	if err := utils.ValidateEmail(info.Email); err != nil {
		return fmt.Errorf("%w: %v", domainwf.ErrInvalidFormat, err)
	}
	if err := utils.ValidateName("first_name", info.FirstName); err != nil {
		return fmt.Errorf("%w: %v", domainwf.ErrInvalidFormat, err)
	}
	if err := utils.ValidateName("last_name", info.LastName); err != nil {
		return fmt.Errorf("%w: %v", domainwf.ErrInvalidFormat, err)
	}
	return nil
}

// GetFullFlow returns every task flag of the applicant in pipeline order
func (s *admissionsServiceImpl) GetFullFlow(ctx context.Context, id int64) (*flow.Snapshot, error) {
	a, err := s.applicants.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := flow.TakeSnapshot(a.Progress)
	return &snap, nil
}

// GetCurrentStep returns the first incomplete step and its pending tasks
func (s *admissionsServiceImpl) GetCurrentStep(ctx context.Context, id int64) (*CurrentStep, error) {
	a, err := s.applicants.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	pos, ok := flow.CurrentStep(a.Progress)
	if !ok {
		return &CurrentStep{Complete: true}, nil
	}
	return &CurrentStep{Step: pos.Step, Tasks: pos.Pending}, nil
}

// CompleteStep hands the submission to the completion engine
func (s *admissionsServiceImpl) CompleteStep(ctx context.Context, req workflow.CompleteRequest) (*workflow.Result, error) {
	res, err := s.engine.CompleteStep(ctx, req)
	if err != nil {
		s.logger.Info("Step submission refused",
			"applicant_id", req.ApplicantID,
			"step", req.StepName,
			"kind", domainwf.KindOf(err),
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Step submission applied",
		"applicant_id", res.ApplicantID,
		"step", res.Step,
		"task", res.Task,
		"passed", res.Passed,
		"status", res.NewStatus,
	)
	return res, nil
}

// GetStatus returns the applicant's status
func (s *admissionsServiceImpl) GetStatus(ctx context.Context, id int64) (domainwf.State, error) {
	a, err := s.applicants.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return a.Status, nil
}

// DescribeFlow lists the pipeline steps and their tasks
func (s *admissionsServiceImpl) DescribeFlow() []flow.Step {
	return flow.Steps()
}

// GetHistory returns the applicant's transition records, oldest first
func (s *admissionsServiceImpl) GetHistory(ctx context.Context, id int64) ([]*entity.TransitionRecord, error) {
	if _, err := s.applicants.Get(ctx, id); err != nil {
		return nil, err
	}
	records, err := s.history.GetByApplicantID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load history", "applicant_id", id, "error", err)
		return nil, fmt.Errorf("load history: %w", err)
	}
	return records, nil
}

// ListApplicants returns applicants ordered by id
func (s *admissionsServiceImpl) ListApplicants(ctx context.Context, limit, offset int) ([]*entity.Applicant, error) {
	return s.applicants.List(ctx, limit, offset)
}

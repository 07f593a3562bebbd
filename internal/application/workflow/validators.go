package workflow

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/admissions-flow/internal/domain/entity"
	"github.com/garyjia/admissions-flow/internal/domain/flow"
	domainwf "github.com/garyjia/admissions-flow/internal/domain/workflow"
)

// Payload is the free-form body submitted with a step completion
type Payload map[string]interface{}

// Rules holds the pass/fail thresholds of the pipeline
type Rules struct {
	IQPassScore             float64
	PassedInterviewDecision string
}

// DefaultRules returns the production thresholds
func DefaultRules() Rules {
	return Rules{
		IQPassScore:             75,
		PassedInterviewDecision: "passed_interview",
	}
}

// TaskContext is what a validator may consult besides the applicant
type TaskContext struct {
	Now   time.Time
	Rules Rules
}

// Verdict is the outcome of a task whose input was valid. A failed verdict
// rejects the applicant.
type Verdict struct {
	Passed bool
	Detail string
}

// TaskValidator checks the payload for one task and stores its data on the
// applicant. It must not touch the applicant before every check has passed.
type TaskValidator func(a *entity.Applicant, payload Payload, tc TaskContext) (Verdict, error)

// DefaultValidators returns the validator of every task that carries data.
// Tasks without an entry are completed by genericTask.
func DefaultValidators() map[flow.TaskRef]TaskValidator {
	return map[flow.TaskRef]TaskValidator{
		ref(flow.StepIQTest, flow.TaskIQTest):               validateIQTest,
		ref(flow.StepInterview, flow.TaskScheduleInterview): validateScheduleInterview,
		ref(flow.StepInterview, flow.TaskPerformInterview):  validatePerformInterview,
		ref(flow.StepSignContract, flow.TaskUploadID):       validateUploadID,
		ref(flow.StepSignContract, flow.TaskSignContract):   validateSignContract,
	}
}

func ref(step flow.StepName, task flow.TaskName) flow.TaskRef {
	return flow.TaskRef{Step: step, Task: task}
}

func genericTask(*entity.Applicant, Payload, TaskContext) (Verdict, error) {
	return Verdict{Passed: true}, nil
}

func validateIQTest(_ *entity.Applicant, payload Payload, tc TaskContext) (Verdict, error) {
	score, err := numberField(payload, "score")
	if err != nil {
		return Verdict{}, err
	}
	detail := "score " + strconv.FormatFloat(score, 'f', -1, 64)
	return Verdict{Passed: score >= tc.Rules.IQPassScore, Detail: detail}, nil
}

func validateScheduleInterview(a *entity.Applicant, payload Payload, tc TaskContext) (Verdict, error) {
	raw, err := stringField(payload, "interview_date")
	if err != nil {
		return Verdict{}, err
	}
	when, err := ParseInterviewDate(raw)
	if err != nil {
		return Verdict{}, err
	}
	if !when.After(tc.Now) {
		return Verdict{}, fmt.Errorf("%w: interview_date %s", domainwf.ErrMustBeFuture, raw)
	}

	a.InterviewDate = &raw
	return Verdict{Passed: true, Detail: "scheduled for " + raw}, nil
}

func validatePerformInterview(a *entity.Applicant, payload Payload, tc TaskContext) (Verdict, error) {
	date, err := stringField(payload, "interview_date")
	if err != nil {
		return Verdict{}, err
	}
	interviewer, err := stringField(payload, "interviewer_id")
	if err != nil {
		return Verdict{}, err
	}
	decision, err := stringField(payload, "decision")
	if err != nil {
		return Verdict{}, err
	}
	if a.InterviewDate == nil || *a.InterviewDate != date {
		return Verdict{}, fmt.Errorf("%w: got %s", domainwf.ErrDateMismatch, date)
	}

	a.InterviewerID = &interviewer
	return Verdict{
		Passed: decision == tc.Rules.PassedInterviewDecision,
		Detail: "decision " + decision + " by " + interviewer,
	}, nil
}

func validateUploadID(a *entity.Applicant, payload Payload, _ TaskContext) (Verdict, error) {
	passport, err := stringField(payload, "passport_number")
	if err != nil {
		return Verdict{}, err
	}
	ts, err := stringField(payload, "timestamp")
	if err != nil {
		return Verdict{}, err
	}

	a.PassportNumber = &passport
	a.PassportUploadedAt = &ts
	return Verdict{Passed: true}, nil
}

func validateSignContract(a *entity.Applicant, payload Payload, _ TaskContext) (Verdict, error) {
	ts, err := stringField(payload, "timestamp")
	if err != nil {
		return Verdict{}, err
	}

	a.ContractSignedAt = &ts
	return Verdict{Passed: true}, nil
}

var interviewDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseInterviewDate accepts the date layouts clients send. Values without a
// zone are read as UTC.
func ParseInterviewDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range interviewDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: interview_date %q", domainwf.ErrInvalidFormat, s)
}

// stringField treats absent, null and empty values as missing
func stringField(payload Payload, key string) (string, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", domainwf.ErrMissingField, key)
	}
	switch val := v.(type) {
	case string:
		if val == "" {
			return "", fmt.Errorf("%w: %s", domainwf.ErrMissingField, key)
		}
		return val, nil
	case json.Number:
		return val.String(), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	default:
		return "", fmt.Errorf("%w: %s must be a string", domainwf.ErrInvalidFormat, key)
	}
}

// numberField accepts finite JSON numbers and numeric strings
func numberField(payload Payload, key string) (float64, error) {
	v, ok := payload[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s", domainwf.ErrMissingField, key)
	}

	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", domainwf.ErrInvalidFormat, key)
		}
		f = parsed
	case string:
		if strings.TrimSpace(val) == "" {
			return 0, fmt.Errorf("%w: %s", domainwf.ErrMissingField, key)
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", domainwf.ErrInvalidFormat, key)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %s must be a number", domainwf.ErrInvalidFormat, key)
	}

	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %s must be a finite number", domainwf.ErrInvalidFormat, key)
	}
	return f, nil
}

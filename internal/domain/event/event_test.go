package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"applicant created", TypeApplicantCreated, true},
		{"task completed", TypeTaskCompleted, true},
		{"task failed", TypeTaskFailed, true},
		{"applicant accepted", TypeApplicantAccepted, true},
		{"applicant rejected", TypeApplicantRejected, true},
		{"unknown type", Type("instance.created"), false},
		{"empty string", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	evt := New(context.Background(), TypeTaskCompleted, 42, map[string]interface{}{
		KeyNewStatus: "in_progress",
	}).ForTask("IQ Test", "iq_test")

	if _, err := uuid.Parse(evt.ID); err != nil {
		t.Errorf("Event ID %q is not a uuid: %v", evt.ID, err)
	}
	if evt.ApplicantID != 42 {
		t.Errorf("ApplicantID = %d, want 42", evt.ApplicantID)
	}
	if evt.Step != "IQ Test" || evt.Task != "iq_test" {
		t.Errorf("ForTask() = %s/%s", evt.Step, evt.Task)
	}
	if evt.GetPayloadString(KeyNewStatus) != "in_progress" {
		t.Errorf("payload new_status = %q", evt.GetPayloadString(KeyNewStatus))
	}
	if evt.GetPayloadString("missing") != "" {
		t.Error("missing payload key should return empty string")
	}
	if evt.CorrelationID == "" {
		t.Error("CorrelationID should be generated when ctx has none")
	}
	if time.Since(evt.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestNew_UsesCorrelationIDFromContext(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "req-123")

	evt := New(ctx, TypeApplicantCreated, 1, nil)
	if evt.CorrelationID != "req-123" {
		t.Errorf("CorrelationID = %q, want req-123", evt.CorrelationID)
	}
	if evt.Payload == nil {
		t.Error("Payload should never be nil")
	}
}

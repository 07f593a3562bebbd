package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/admissions-flow/internal/application/dispatcher"
	"github.com/garyjia/admissions-flow/internal/application/service"
	"github.com/garyjia/admissions-flow/internal/application/workflow"
	"github.com/garyjia/admissions-flow/internal/domain/event"
	domainwf "github.com/garyjia/admissions-flow/internal/domain/workflow"
	"github.com/garyjia/admissions-flow/internal/infrastructure/persistence/memory"
)

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

// newTestServer wires the admissions stack on in-memory stores
func newTestServer(health HealthFunc) (*Server, dispatcher.Dispatcher) {
	logger := &mockLogger{}
	applicants := memory.NewApplicantRepository()
	history := memory.NewHistoryRepository()
	d := dispatcher.NewDispatcher()

	service.NewHistoryRecorder(history, "test-run", logger).Register(d)
	engine := workflow.NewEngine(applicants, workflow.WithDispatcher(d), workflow.WithLogger(logger))
	svc := service.NewAdmissionsService(applicants, history, engine, d, logger)

	return NewServer(DefaultServerConfig(), svc, health, logger), d
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createUser(t *testing.T, s *Server) int64 {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/users", map[string]string{
		"email":      "grace@example.com",
		"first_name": "Grace",
		"last_name":  "Hopper",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return int64(decode(t, w)["id"].(float64))
}

func TestCreateApplicant(t *testing.T) {
	s, _ := newTestServer(nil)

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
		wantKind string
	}{
		{"valid", map[string]string{"email": "a@b.co", "first_name": "Ann", "last_name": "Bee"}, http.StatusOK, ""},
		{"missing email", map[string]string{"first_name": "Ann", "last_name": "Bee"}, http.StatusBadRequest, "missing_field"},
		{"bad email", map[string]string{"email": "nope", "first_name": "Ann", "last_name": "Bee"}, http.StatusBadRequest, "invalid_format"},
		{"not an object", []int{1, 2}, http.StatusBadRequest, kindInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/api/users", tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, decode(t, w)["kind"])
			}
		})
	}
}

func TestCreateApplicant_SequentialIDs(t *testing.T) {
	s, _ := newTestServer(nil)

	assert.Equal(t, int64(1), createUser(t, s))
	assert.Equal(t, int64(2), createUser(t, s))
}

func TestGetCurrentStep(t *testing.T) {
	s, _ := newTestServer(nil)
	id := createUser(t, s)

	w := doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/users/%d/step", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "IQ Test", body["step"])
	assert.Equal(t, []interface{}{"iq_test"}, body["tasks"])
}

func TestGetFullFlow(t *testing.T) {
	s, _ := newTestServer(nil)
	id := createUser(t, s)

	w := doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/users/%d/flow", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 1, body["current_step_index"])
	assert.EqualValues(t, 6, body["total_steps"])

	steps := body["flow"].([]interface{})
	require.Len(t, steps, 6)
	first := steps[0].(map[string]interface{})
	assert.Equal(t, "Personal Details Form", first["step"])
	assert.Equal(t, map[string]interface{}{"form": true}, first["tasks"])
}

func TestUserIDErrors(t *testing.T) {
	s, _ := newTestServer(nil)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantKind string
	}{
		{"non numeric id", "/api/users/abc/status", http.StatusBadRequest, kindInvalidRequest},
		{"unknown id", "/api/users/42/status", http.StatusNotFound, "not_found"},
		{"unknown id flow", "/api/users/42/flow", http.StatusNotFound, "not_found"},
		{"unknown id history", "/api/users/42/history", http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantKind, decode(t, w)["kind"])
		})
	}
}

func TestCompleteStep_Errors(t *testing.T) {
	s, _ := newTestServer(nil)
	id := createUser(t, s)

	tests := []struct {
		name        string
		body        interface{}
		wantCode    int
		wantKind    string
		wantCurrent string
	}{
		{
			name:     "malformed user id",
			body:     map[string]interface{}{"user_id": "seven", "step_name": "IQ Test"},
			wantCode: http.StatusBadRequest,
			wantKind: kindInvalidRequest,
		},
		{
			name:     "unknown step",
			body:     map[string]interface{}{"user_id": id, "step_name": "Coffee Chat"},
			wantCode: http.StatusBadRequest,
			wantKind: "unknown_step",
		},
		{
			name:        "out of order",
			body:        map[string]interface{}{"user_id": id, "step_name": "Payment"},
			wantCode:    http.StatusConflict,
			wantKind:    "out_of_order",
			wantCurrent: "IQ Test",
		},
		{
			name:     "missing score",
			body:     map[string]interface{}{"user_id": id, "step_name": "IQ Test", "step_payload": map[string]interface{}{}},
			wantCode: http.StatusBadRequest,
			wantKind: "missing_field",
		},
		{
			name:     "unknown user",
			body:     map[string]interface{}{"user_id": 999, "step_name": "IQ Test"},
			wantCode: http.StatusNotFound,
			wantKind: "not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPut, "/api/steps/complete", tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())

			body := decode(t, w)
			assert.Equal(t, tt.wantKind, body["kind"])
			if tt.wantCurrent != "" {
				assert.Equal(t, tt.wantCurrent, body["current_step"])
			}
		})
	}
}

func TestCompleteStep_StringUserID(t *testing.T) {
	s, _ := newTestServer(nil)
	id := createUser(t, s)

	w := doJSON(t, s, http.MethodPut, "/api/steps/complete", map[string]interface{}{
		"user_id":      fmt.Sprint(id),
		"step_name":    "IQ Test",
		"step_payload": map[string]interface{}{"score": 80},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Step completed.", decode(t, w)["message"])
}

func TestCompleteStep_ClosedApplicant(t *testing.T) {
	s, _ := newTestServer(nil)
	id := createUser(t, s)

	fail := map[string]interface{}{"user_id": id, "step_name": "IQ Test", "step_payload": map[string]interface{}{"score": 10}}
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodPut, "/api/steps/complete", fail).Code)

	w := doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/users/%d/status", id), nil)
	assert.Equal(t, "rejected", decode(t, w)["status"])

	w = doJSON(t, s, http.MethodPut, "/api/steps/complete", fail)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "applicant_closed", decode(t, w)["kind"])
}

func TestListApplicants(t *testing.T) {
	s, _ := newTestServer(nil)
	for i := 0; i < 3; i++ {
		createUser(t, s)
	}

	w := doJSON(t, s, http.MethodGet, "/api/users?limit=2&offset=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	items := body["items"].([]interface{})
	require.Len(t, items, 2)
	assert.EqualValues(t, 2, items[0].(map[string]interface{})["id"])
	assert.Equal(t, "IQ Test", items[0].(map[string]interface{})["current_step"])

	w = doJSON(t, s, http.MethodGet, "/api/users?limit=1000", nil)
	assert.EqualValues(t, maxListLimit, decode(t, w)["limit"])

	w = doJSON(t, s, http.MethodGet, "/api/users?limit=ten", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetHistory(t *testing.T) {
	s, _ := newTestServer(nil)
	id := createUser(t, s)

	doJSON(t, s, http.MethodPut, "/api/steps/complete", map[string]interface{}{
		"user_id": id, "step_name": "IQ Test", "step_payload": map[string]interface{}{"score": 90},
	})

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/users/%d/history", id), nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	items := decode(t, w)["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "created", items[0].(map[string]interface{})["outcome"])
	assert.Equal(t, "completed", items[1].(map[string]interface{})["outcome"])
}

func TestDescribeFlow(t *testing.T) {
	s, _ := newTestServer(nil)

	w := doJSON(t, s, http.MethodGet, "/api/flow", nil)
	require.Equal(t, http.StatusOK, w.Code)

	steps := decode(t, w)["steps"].([]interface{})
	require.Len(t, steps, 6)
	assert.Equal(t, "Join Slack", steps[5].(map[string]interface{})["step"])
}

func TestRequestID(t *testing.T) {
	s, d := newTestServer(nil)

	var mu sync.Mutex
	var seen []string
	d.SubscribeAll("capture", func(ctx context.Context, evt *event.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, evt.CorrelationID)
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/api/users",
		bytes.NewBufferString(`{"email":"a@b.co","first_name":"Ann","last_name":"Bee"}`))
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"req-123"}, seen)

	w = doJSON(t, s, http.MethodGet, "/api/flow", nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name     string
		health   HealthFunc
		wantCode int
		want     string
	}{
		{"no checker", nil, http.StatusOK, "healthy"},
		{"healthy", func() (bool, interface{}) { return true, map[string]string{"history": "ok"} }, http.StatusOK, "healthy"},
		{"unhealthy", func() (bool, interface{}) { return false, map[string]string{"history": "down"} }, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(tt.health)
			w := doJSON(t, s, http.MethodGet, "/health", nil)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.want, decode(t, w)["status"])
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domainwf.ErrNotFound, http.StatusNotFound},
		{&domainwf.OutOfOrderError{Current: "IQ Test", Requested: "Payment"}, http.StatusConflict},
		{fmt.Errorf("%w: score", domainwf.ErrMissingField), http.StatusBadRequest},
		{domainwf.ErrMustBeFuture, http.StatusBadRequest},
		{domainwf.ErrApplicantClosed, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestNoRoute(t *testing.T) {
	s, _ := newTestServer(nil)
	w := doJSON(t, s, http.MethodGet, "/api/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/steps/complete", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

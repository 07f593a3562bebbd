package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/admissions-flow/internal/domain/entity"
)

func TestNewHistoryStore_RequiresDSN(t *testing.T) {
	_, err := NewHistoryStore(context.Background(), Config{}, uuid.NewString())
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	err := describe(&pq.Error{Code: "42P01", Message: "relation does not exist"})
	assert.Contains(t, err.Error(), "sqlstate 42P01")

	plain := errors.New("connection refused")
	assert.Equal(t, plain, describe(plain))
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "transition_history", unquote(pq.QuoteIdentifier("transition_history")))
	assert.Equal(t, "plain", unquote("plain"))
}

// Runs against a real server when ADMISSIONS_TEST_POSTGRES_DSN is set
func TestHistoryStore_RoundTrip(t *testing.T) {
	dsn := os.Getenv("ADMISSIONS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ADMISSIONS_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	runID := uuid.NewString()
	store, err := NewHistoryStore(ctx, Config{DSN: dsn, ConnectTimeout: 5 * time.Second}, runID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rec := &entity.TransitionRecord{ApplicantID: 7, Step: "IQ Test", Task: "iq_test", Outcome: entity.OutcomeCompleted}
	require.NoError(t, store.Create(ctx, rec))
	assert.NotZero(t, rec.ID)

	records, err := store.GetByApplicantID(ctx, 7)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, runID, records[0].RunID)
	assert.Equal(t, entity.OutcomeCompleted, records[0].Outcome)
}

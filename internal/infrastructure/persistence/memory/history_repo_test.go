package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/admissions-flow/internal/domain/entity"
)

func TestHistoryRepository_CreateAndGet(t *testing.T) {
	repo := NewHistoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.TransitionRecord{ApplicantID: 1, Outcome: entity.OutcomeCreated}))
	require.NoError(t, repo.Create(ctx, &entity.TransitionRecord{ApplicantID: 2, Outcome: entity.OutcomeCreated}))
	require.NoError(t, repo.Create(ctx, &entity.TransitionRecord{ApplicantID: 1, Outcome: entity.OutcomeCompleted, Task: "iq_test"}))

	records, err := repo.GetByApplicantID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, entity.OutcomeCreated, records[0].Outcome)
	assert.Equal(t, entity.OutcomeCompleted, records[1].Outcome)
	assert.Less(t, records[0].ID, records[1].ID)

	records[0].Outcome = "tampered"
	again, _ := repo.GetByApplicantID(ctx, 1)
	assert.Equal(t, entity.OutcomeCreated, again[0].Outcome)
}

func TestHistoryRepository_Empty(t *testing.T) {
	records, err := NewHistoryRepository().GetByApplicantID(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, records)
}

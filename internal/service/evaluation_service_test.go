package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentio/admission-api/internal/dto"
	"github.com/talentio/admission-api/internal/models"
	"github.com/talentio/admission-api/internal/repository"
	appErrors "github.com/talentio/admission-api/pkg/errors"
)

func inProgressAt(store *mockProcessStore, processID, stageID string) {
	store.candidates["cp-1"] = models.CandidateProcess{
		ID: "cp-1", CandidateID: 7, ProcessID: processID,
		Status: models.CandidateProcessStatusInProgress, CurrentStageID: &stageID,
	}
}

func TestEvaluateApprovalAdvancesToNextStage(t *testing.T) {
	store := newMockProcessStore()
	processID, stageIDs := threeStageProcess(t, store, true)
	inProgressAt(store, processID, stageIDs[0])
	svc := NewEvaluationService(store, nil, nil, 0, 0, nil, nil)

	cp, err := svc.Evaluate(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{
		Evaluation: models.EvaluationApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CandidateProcessStatusInProgress, cp.Status)
	require.NotNil(t, cp.CurrentStageID)
	assert.Equal(t, stageIDs[1], *cp.CurrentStageID)
	require.Len(t, store.responses, 1)
}

func TestEvaluateEliminatoryRejectionShortCircuits(t *testing.T) {
	store := newMockProcessStore()
	processID, stageIDs := threeStageProcess(t, store, true)
	inProgressAt(store, processID, stageIDs[0])
	svc := NewEvaluationService(store, nil, nil, 0, 0, nil, nil)

	_, err := svc.Evaluate(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{Evaluation: models.EvaluationApproved})
	require.NoError(t, err)

	cp, err := svc.Evaluate(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{Evaluation: models.EvaluationRejected})
	require.NoError(t, err)
	assert.Equal(t, models.CandidateProcessStatusRejected, cp.Status)
	assert.Nil(t, cp.CurrentStageID)

	// No response for the final stage, and no further evaluation possible.
	require.Len(t, store.responses, 2)
	assert.Equal(t, stageIDs[0], store.responses[0].StageID)
	assert.Equal(t, models.EvaluationApproved, store.responses[0].Evaluation)
	assert.Equal(t, stageIDs[1], store.responses[1].StageID)
	assert.Equal(t, models.EvaluationRejected, store.responses[1].Evaluation)

	_, err = svc.Evaluate(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{Evaluation: models.EvaluationApproved})
	requireErrorCode(t, err, appErrors.ErrInvalidState.Code)
}

func TestEvaluateNonEliminatoryRejectionAdvances(t *testing.T) {
	store := newMockProcessStore()
	processID, stageIDs := threeStageProcess(t, store, true)
	inProgressAt(store, processID, stageIDs[0])
	svc := NewEvaluationService(store, nil, nil, 0, 0, nil, nil)

	cp, err := svc.Evaluate(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{Evaluation: models.EvaluationRejected})
	require.NoError(t, err)
	assert.Equal(t, models.CandidateProcessStatusInProgress, cp.Status)
	require.NotNil(t, cp.CurrentStageID)
	assert.Equal(t, stageIDs[1], *cp.CurrentStageID)
}

func TestEvaluateFinalStageApprovalTerminates(t *testing.T) {
	store := newMockProcessStore()
	processID, stageIDs := threeStageProcess(t, store, false)
	inProgressAt(store, processID, stageIDs[2])
	svc := NewEvaluationService(store, nil, nil, 0, 0, nil, nil)

	cp, err := svc.Evaluate(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{Evaluation: models.EvaluationApproved})
	require.NoError(t, err)
	assert.Equal(t, models.CandidateProcessStatusApproved, cp.Status)
	assert.Nil(t, cp.CurrentStageID)
}

func TestEvaluateRequiredQuestionGate(t *testing.T) {
	store := newMockProcessStore()
	processID, stageIDs := threeStageProcess(t, store, false)
	store.questions[stageIDs[0]] = []models.StageQuestion{
		{ID: "q1", StageID: stageIDs[0], Rank: 1, Text: "Why us?", Type: models.QuestionTypeOpenText, Required: true},
		{ID: "q2", StageID: stageIDs[0], Rank: 2, Text: "Notes", Type: models.QuestionTypeOpenText},
	}
	inProgressAt(store, processID, stageIDs[0])
	svc := NewEvaluationService(store, nil, nil, 0, 0, nil, nil)

	_, err := svc.Evaluate(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{
		Evaluation: models.EvaluationApproved,
		Answers:    map[string]string{"q1": "   "},
	})
	requireErrorCode(t, err, appErrors.ErrValidation.Code)

	// All-or-nothing: nothing moved, nothing recorded.
	cp := store.candidates["cp-1"]
	assert.Equal(t, models.CandidateProcessStatusInProgress, cp.Status)
	assert.Equal(t, stageIDs[0], *cp.CurrentStageID)
	assert.Empty(t, store.responses)

	result, err := svc.Evaluate(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{
		Evaluation: models.EvaluationApproved,
		Answers:    map[string]string{"q1": "strong team"},
	})
	require.NoError(t, err)
	assert.Equal(t, stageIDs[1], *result.CurrentStageID)
}

func TestEvaluateRatingBounds(t *testing.T) {
	store := newMockProcessStore()
	processID, stageIDs := threeStageProcess(t, store, false)
	inProgressAt(store, processID, stageIDs[0])
	svc := NewEvaluationService(store, nil, nil, 0, 0, nil, nil)

	eleven := 11
	_, err := svc.Evaluate(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{
		Evaluation: models.EvaluationApproved,
		Rating:     &eleven,
	})
	requireErrorCode(t, err, appErrors.ErrValidation.Code)

	eight := 8
	cp, err := svc.Evaluate(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{
		Evaluation: models.EvaluationApproved,
		Rating:     &eight,
		Feedback:   "solid communication",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CandidateProcessStatusInProgress, cp.Status)
	require.Len(t, store.responses, 1)
	require.NotNil(t, store.responses[0].Rating)
	assert.Equal(t, 8, *store.responses[0].Rating)
	require.NotNil(t, store.responses[0].Feedback)
}

func TestEvaluateNotStartedInvalidState(t *testing.T) {
	store := newMockProcessStore()
	processID, _ := threeStageProcess(t, store, false)
	store.candidates["cp-1"] = models.CandidateProcess{ID: "cp-1", ProcessID: processID, Status: models.CandidateProcessStatusPending}
	svc := NewEvaluationService(store, nil, nil, 0, 0, nil, nil)

	_, err := svc.Evaluate(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{Evaluation: models.EvaluationApproved})
	requireErrorCode(t, err, appErrors.ErrInvalidState.Code)
}

func TestEvaluateConcurrentSubmissionConflicts(t *testing.T) {
	store := newMockProcessStore()
	processID, stageIDs := threeStageProcess(t, store, false)
	inProgressAt(store, processID, stageIDs[0])
	store.recordErr = repository.ErrResponseExists
	svc := NewEvaluationService(store, nil, nil, 0, 0, nil, nil)

	_, err := svc.Evaluate(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{Evaluation: models.EvaluationApproved})
	requireErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestHistoryProjectionStableAndOrdered(t *testing.T) {
	store := newMockProcessStore()
	processID, stageIDs := threeStageProcess(t, store, true)
	inProgressAt(store, processID, stageIDs[0])
	svc := NewEvaluationService(store, nil, nil, 0, 0, nil, nil)

	_, err := svc.Evaluate(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{Evaluation: models.EvaluationApproved})
	require.NoError(t, err)
	_, err = svc.Evaluate(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{Evaluation: models.EvaluationRejected})
	require.NoError(t, err)

	first, err := svc.History(context.Background(), "cp-1")
	require.NoError(t, err)
	second, err := svc.History(context.Background(), "cp-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first, 3)
	assert.Equal(t, "Screening", first[0].Stage.Name)
	assert.Equal(t, models.EvaluationApproved, first[0].Evaluation)
	assert.Equal(t, "Technical", first[1].Stage.Name)
	assert.Equal(t, models.EvaluationRejected, first[1].Evaluation)
	assert.Equal(t, "Final", first[2].Stage.Name)
	assert.Equal(t, models.EvaluationPending, first[2].Evaluation)
	assert.Nil(t, first[2].EvaluatedAt)
}

func TestBuildHistoryIsPure(t *testing.T) {
	now := time.Now().UTC()
	stages := []models.ProcessStage{
		{ID: "s1", Rank: 1, Name: "Screening"},
		{ID: "s2", Rank: 2, Name: "Final"},
	}
	responses := []models.StageResponse{
		{StageID: "s1", Evaluation: models.EvaluationApproved, EvaluatedAt: now},
	}
	entries := BuildHistory(stages, responses)
	require.Len(t, entries, 2)
	assert.Equal(t, models.EvaluationApproved, entries[0].Evaluation)
	require.NotNil(t, entries[0].EvaluatedAt)
	assert.Equal(t, models.EvaluationPending, entries[1].Evaluation)
	assert.Empty(t, responses[0].Rating)
}

package service

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentio/admission-api/internal/dto"
	"github.com/talentio/admission-api/internal/models"
)

func newProgressionFixture() (*ProgressionService, *mockDocProfiles, *mockDocumentStore, *mockProcessStore) {
	payload := "[Dados Pessoais]\nFix phone\n[Idiomas]\nAdd English"
	profiles := &mockDocProfiles{profiles: map[int64]models.CandidateProfile{
		7: {ID: 7, FullName: "Ana", Status: models.ProfileStatusChangesRequested,
			Observations: &payload, PendingSections: pq.StringArray{"personal_data", "languages"}},
	}}
	docs := &mockDocumentStore{
		types: requiredTypes(2),
		docs: map[string]models.CandidateDocument{
			"doc-1": {ID: "doc-1", CandidateID: 7, DocumentTypeID: "a", Status: models.DocumentStatusApproved},
		},
	}
	processes := newMockProcessStore()

	reviews := NewReviewService(&mockReviewProfiles{}, nil, nil, nil, nil)
	documents := NewDocumentService(docs, profiles, nil, nil, nil, nil, nil)
	evaluations := NewEvaluationService(processes, nil, nil, 0, 0, nil, nil)
	facade := NewProgressionService(reviews, documents, evaluations, profiles, docs, processes, nil, 0, nil, nil)
	return facade, profiles, docs, processes
}

func TestOverviewAggregatesAllTracks(t *testing.T) {
	facade, _, _, processes := newProgressionFixture()
	processID, stageIDs := threeStageProcess(t, processes, true)
	current := stageIDs[1]
	processes.candidates["cp-1"] = models.CandidateProcess{
		ID: "cp-1", CandidateID: 7, ProcessID: processID,
		Status: models.CandidateProcessStatusInProgress, CurrentStageID: &current,
	}
	processes.responses = append(processes.responses, models.StageResponse{
		ID: "r-1", CandidateProcessID: "cp-1", StageID: stageIDs[0], Evaluation: models.EvaluationApproved,
	})

	overview, cached, err := facade.Overview(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, cached)

	assert.Equal(t, models.ProfileStatusChangesRequested, overview.Profile.Status)
	require.Len(t, overview.Sections, 2)
	assert.Equal(t, "personal_data", overview.Sections[0].Key)
	assert.Equal(t, "OUTSTANDING", overview.Sections[0].Resolution)
	assert.Equal(t, 0, overview.Progress.Resolved)
	assert.Equal(t, 2, overview.Progress.Total)

	assert.Equal(t, models.DocumentSummary{Required: 2, Approved: 1, NotSent: 1}, overview.Documents.Summary)
	assert.InDelta(t, 0.5, overview.Documents.CompletionRatio, 1e-9)
	assert.Equal(t, models.CohortNone, overview.Documents.Cohort)

	require.NotNil(t, overview.Process)
	assert.Equal(t, "Backend 2026", overview.Process.ProcessName)
	assert.Equal(t, models.CandidateProcessStatusInProgress, overview.Process.Status)
	require.NotNil(t, overview.Process.CurrentStage)
	assert.Equal(t, "Technical", overview.Process.CurrentStage.Name)
	require.Len(t, overview.Process.History, 3)
	assert.Equal(t, models.EvaluationApproved, overview.Process.History[0].Evaluation)
	assert.Equal(t, models.EvaluationPending, overview.Process.History[1].Evaluation)
}

func TestOverviewWithoutProcess(t *testing.T) {
	facade, _, _, _ := newProgressionFixture()

	overview, _, err := facade.Overview(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, overview.Process)
}

func TestOverviewNotFound(t *testing.T) {
	facade, _, _, _ := newProgressionFixture()

	_, _, err := facade.Overview(context.Background(), 99)
	require.Error(t, err)
}

func TestFacadeDelegatesEvaluation(t *testing.T) {
	facade, _, _, processes := newProgressionFixture()
	processID, stageIDs := threeStageProcess(t, processes, false)
	first := stageIDs[0]
	processes.candidates["cp-1"] = models.CandidateProcess{
		ID: "cp-1", CandidateID: 7, ProcessID: processID,
		Status: models.CandidateProcessStatusInProgress, CurrentStageID: &first,
	}

	cp, err := facade.SubmitStageEvaluation(context.Background(), "cp-1", "admin-1", dto.SubmitEvaluationRequest{
		Evaluation: models.EvaluationApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, stageIDs[1], *cp.CurrentStageID)
}

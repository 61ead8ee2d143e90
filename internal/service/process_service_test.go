package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentio/admission-api/internal/dto"
	"github.com/talentio/admission-api/internal/models"
	"github.com/talentio/admission-api/internal/repository"
	appErrors "github.com/talentio/admission-api/pkg/errors"
)

// mockProcessStore backs both the process admin service and the evaluation
// engine tests with in-memory guarded-update semantics.
type mockProcessStore struct {
	processes  map[string]models.SelectionProcess
	stages     map[string][]models.ProcessStage
	questions  map[string][]models.StageQuestion
	candidates map[string]models.CandidateProcess
	responses  []models.StageResponse
	recordErr  error
}

func newMockProcessStore() *mockProcessStore {
	return &mockProcessStore{
		processes:  make(map[string]models.SelectionProcess),
		stages:     make(map[string][]models.ProcessStage),
		questions:  make(map[string][]models.StageQuestion),
		candidates: make(map[string]models.CandidateProcess),
	}
}

func (m *mockProcessStore) FindProcess(ctx context.Context, id string) (*models.SelectionProcess, error) {
	if p, ok := m.processes[id]; ok {
		out := p
		return &out, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProcessStore) ListProcesses(ctx context.Context) ([]models.SelectionProcess, error) {
	var out []models.SelectionProcess
	for _, p := range m.processes {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProcessStore) CreateProcess(ctx context.Context, process *models.SelectionProcess, stages []models.ProcessStage, questions map[string][]models.StageQuestion) error {
	if process.ID == "" {
		process.ID = uuid.NewString()
	}
	if process.Status == "" {
		process.Status = models.ProcessStatusDraft
	}
	m.processes[process.ID] = *process
	for i := range stages {
		stages[i].ProcessID = process.ID
		m.stages[process.ID] = append(m.stages[process.ID], stages[i])
		m.questions[stages[i].ID] = questions[stages[i].ID]
	}
	return nil
}

func (m *mockProcessStore) UpdateProcessStatus(ctx context.Context, id string, from, to models.ProcessStatus) error {
	p, ok := m.processes[id]
	if !ok || p.Status != from {
		return sql.ErrNoRows
	}
	p.Status = to
	m.processes[id] = p
	return nil
}

func (m *mockProcessStore) ListStages(ctx context.Context, processID string) ([]models.ProcessStage, error) {
	stages := append([]models.ProcessStage(nil), m.stages[processID]...)
	sort.Slice(stages, func(i, j int) bool { return stages[i].Rank < stages[j].Rank })
	return stages, nil
}

func (m *mockProcessStore) ListQuestions(ctx context.Context, stageID string) ([]models.StageQuestion, error) {
	return m.questions[stageID], nil
}

func (m *mockProcessStore) FindCandidateProcess(ctx context.Context, id string) (*models.CandidateProcess, error) {
	if cp, ok := m.candidates[id]; ok {
		out := cp
		return &out, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProcessStore) FindCandidateProcessByCandidate(ctx context.Context, candidateID int64) (*models.CandidateProcess, error) {
	for _, cp := range m.candidates {
		if cp.CandidateID == candidateID {
			out := cp
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockProcessStore) CreateCandidateProcess(ctx context.Context, cp *models.CandidateProcess) error {
	for _, existing := range m.candidates {
		if existing.CandidateID == cp.CandidateID && existing.ProcessID == cp.ProcessID {
			return repository.ErrResponseExists
		}
	}
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.Status == "" {
		cp.Status = models.CandidateProcessStatusPending
	}
	m.candidates[cp.ID] = *cp
	return nil
}

func (m *mockProcessStore) UpdateProgress(ctx context.Context, params repository.ProgressParams) error {
	cp, ok := m.candidates[params.ID]
	if !ok || cp.Status != params.ExpectStatus || !stagePtrEqual(cp.CurrentStageID, params.ExpectStageID) {
		return sql.ErrNoRows
	}
	cp.Status = params.Status
	cp.CurrentStageID = params.CurrentStageID
	if params.StartedAt != nil {
		cp.StartedAt = params.StartedAt
	}
	m.candidates[params.ID] = cp
	return nil
}

func (m *mockProcessStore) RecordEvaluation(ctx context.Context, response *models.StageResponse, params repository.ProgressParams) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	for _, existing := range m.responses {
		if existing.CandidateProcessID == response.CandidateProcessID && existing.StageID == response.StageID {
			return repository.ErrResponseExists
		}
	}
	if err := m.UpdateProgress(ctx, params); err != nil {
		return err
	}
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	m.responses = append(m.responses, *response)
	return nil
}

func (m *mockProcessStore) ListResponses(ctx context.Context, candidateProcessID string) ([]models.StageResponse, error) {
	rankByStage := make(map[string]int)
	for _, stages := range m.stages {
		for _, stage := range stages {
			rankByStage[stage.ID] = stage.Rank
		}
	}
	var out []models.StageResponse
	for _, response := range m.responses {
		if response.CandidateProcessID == candidateProcessID {
			out = append(out, response)
		}
	}
	sort.Slice(out, func(i, j int) bool { return rankByStage[out[i].StageID] < rankByStage[out[j].StageID] })
	return out, nil
}

func stagePtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func threeStageProcess(t *testing.T, store *mockProcessStore, secondEliminatory bool) (processID string, stageIDs []string) {
	t.Helper()
	processID = "proc-1"
	store.processes[processID] = models.SelectionProcess{ID: processID, Name: "Backend 2026", Status: models.ProcessStatusActive}
	names := []string{"Screening", "Technical", "Final"}
	for i, name := range names {
		stage := models.ProcessStage{
			ID:          "stage-" + name,
			ProcessID:   processID,
			Rank:        i + 1,
			Name:        name,
			Eliminatory: secondEliminatory && i == 1,
		}
		store.stages[processID] = append(store.stages[processID], stage)
		stageIDs = append(stageIDs, stage.ID)
	}
	return processID, stageIDs
}

func TestCreateProcessValidatesStageRanks(t *testing.T) {
	svc := NewProcessService(newMockProcessStore(), &mockDocProfiles{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateProcessRequest{
		Name: "Backend",
		Stages: []dto.CreateStageRequest{
			{Rank: 1, Name: "Screening"},
			{Rank: 3, Name: "Final"},
		},
	})
	requireErrorCode(t, err, appErrors.ErrValidation.Code)
}

func TestCreateProcessMultipleChoiceNeedsOptions(t *testing.T) {
	svc := NewProcessService(newMockProcessStore(), &mockDocProfiles{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateProcessRequest{
		Name: "Backend",
		Stages: []dto.CreateStageRequest{
			{Rank: 1, Name: "Screening", Questions: []dto.CreateQuestionRequest{
				{Text: "Remote?", Type: models.QuestionTypeMultipleChoice, Options: []string{"yes"}},
			}},
		},
	})
	requireErrorCode(t, err, appErrors.ErrValidation.Code)
}

func TestCreateProcessBuildsOrderedDetail(t *testing.T) {
	store := newMockProcessStore()
	svc := NewProcessService(store, &mockDocProfiles{}, nil, nil, nil)

	detail, err := svc.Create(context.Background(), dto.CreateProcessRequest{
		Name: "Backend",
		Stages: []dto.CreateStageRequest{
			{Rank: 2, Name: "Technical", Eliminatory: true},
			{Rank: 1, Name: "Screening", Questions: []dto.CreateQuestionRequest{
				{Text: "Why us?", Type: models.QuestionTypeOpenText, Required: true},
			}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProcessStatusDraft, detail.Process.Status)
	require.Len(t, detail.Stages, 2)
	assert.Equal(t, "Screening", detail.Stages[0].Stage.Name)
	assert.Equal(t, "Technical", detail.Stages[1].Stage.Name)
	assert.True(t, detail.Stages[1].Stage.Eliminatory)
	require.Len(t, detail.Stages[0].Questions, 1)
	assert.True(t, detail.Stages[0].Questions[0].Required)
}

func TestUpdateStatusFollowsLifecycle(t *testing.T) {
	store := newMockProcessStore()
	store.processes["proc-1"] = models.SelectionProcess{ID: "proc-1", Status: models.ProcessStatusDraft}
	svc := NewProcessService(store, &mockDocProfiles{}, nil, nil, nil)

	process, err := svc.UpdateStatus(context.Background(), "proc-1", dto.UpdateProcessStatusRequest{Status: models.ProcessStatusActive})
	require.NoError(t, err)
	assert.Equal(t, models.ProcessStatusActive, process.Status)

	// Replaying the current status is a no-op.
	_, err = svc.UpdateStatus(context.Background(), "proc-1", dto.UpdateProcessStatusRequest{Status: models.ProcessStatusActive})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), "proc-1", dto.UpdateProcessStatusRequest{Status: models.ProcessStatusDraft})
	requireErrorCode(t, err, appErrors.ErrInvalidState.Code)

	_, err = svc.UpdateStatus(context.Background(), "proc-1", dto.UpdateProcessStatusRequest{Status: models.ProcessStatusCompleted})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), "proc-1", dto.UpdateProcessStatusRequest{Status: models.ProcessStatusActive})
	requireErrorCode(t, err, appErrors.ErrInvalidState.Code)
}

func TestAddCandidateGuards(t *testing.T) {
	store := newMockProcessStore()
	store.processes["proc-1"] = models.SelectionProcess{ID: "proc-1", Status: models.ProcessStatusDraft}
	profiles := &mockDocProfiles{profiles: map[int64]models.CandidateProfile{
		7: {ID: 7, Status: models.ProfileStatusDocumentsComplete},
		8: {ID: 8, Status: models.ProfileStatusChangesRequested},
	}}
	svc := NewProcessService(store, profiles, nil, nil, nil)

	_, err := svc.AddCandidate(context.Background(), "proc-1", dto.AddCandidateRequest{CandidateID: 7})
	requireErrorCode(t, err, appErrors.ErrInvalidState.Code)

	store.processes["proc-1"] = models.SelectionProcess{ID: "proc-1", Status: models.ProcessStatusActive}
	_, err = svc.AddCandidate(context.Background(), "proc-1", dto.AddCandidateRequest{CandidateID: 8})
	requireErrorCode(t, err, appErrors.ErrInvalidState.Code)

	cp, err := svc.AddCandidate(context.Background(), "proc-1", dto.AddCandidateRequest{CandidateID: 7})
	require.NoError(t, err)
	assert.Equal(t, models.CandidateProcessStatusPending, cp.Status)
	assert.Nil(t, cp.CurrentStageID)

	_, err = svc.AddCandidate(context.Background(), "proc-1", dto.AddCandidateRequest{CandidateID: 7})
	requireErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestStartAssignsFirstStage(t *testing.T) {
	store := newMockProcessStore()
	processID, stageIDs := threeStageProcess(t, store, false)
	store.candidates["cp-1"] = models.CandidateProcess{ID: "cp-1", CandidateID: 7, ProcessID: processID, Status: models.CandidateProcessStatusPending}
	svc := NewProcessService(store, &mockDocProfiles{}, nil, nil, nil)

	cp, err := svc.Start(context.Background(), "cp-1")
	require.NoError(t, err)
	assert.Equal(t, models.CandidateProcessStatusInProgress, cp.Status)
	require.NotNil(t, cp.CurrentStageID)
	assert.Equal(t, stageIDs[0], *cp.CurrentStageID)
	require.NotNil(t, cp.StartedAt)

	_, err = svc.Start(context.Background(), "cp-1")
	requireErrorCode(t, err, appErrors.ErrInvalidState.Code)
}

func TestWithdrawTerminalAndReplay(t *testing.T) {
	store := newMockProcessStore()
	processID, stageIDs := threeStageProcess(t, store, false)
	current := stageIDs[1]
	store.candidates["cp-1"] = models.CandidateProcess{
		ID: "cp-1", CandidateID: 7, ProcessID: processID,
		Status: models.CandidateProcessStatusInProgress, CurrentStageID: &current,
	}
	audits := &mockAuditRecorder{}
	svc := NewProcessService(store, &mockDocProfiles{}, audits, nil, nil)

	cp, err := svc.Withdraw(context.Background(), "cp-1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.CandidateProcessStatusWithdrawn, cp.Status)
	assert.Nil(t, cp.CurrentStageID)
	require.Len(t, audits.logs, 1)

	cp, err = svc.Withdraw(context.Background(), "cp-1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.CandidateProcessStatusWithdrawn, cp.Status)
	assert.Len(t, audits.logs, 1)

	store.candidates["cp-2"] = models.CandidateProcess{ID: "cp-2", ProcessID: processID, Status: models.CandidateProcessStatusApproved}
	_, err = svc.Withdraw(context.Background(), "cp-2", "admin-1")
	requireErrorCode(t, err, appErrors.ErrInvalidState.Code)
}

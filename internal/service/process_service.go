package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/talentio/admission-api/internal/dto"
	"github.com/talentio/admission-api/internal/models"
	"github.com/talentio/admission-api/internal/repository"
	appErrors "github.com/talentio/admission-api/pkg/errors"
)

type processStore interface {
	FindProcess(ctx context.Context, id string) (*models.SelectionProcess, error)
	ListProcesses(ctx context.Context) ([]models.SelectionProcess, error)
	CreateProcess(ctx context.Context, process *models.SelectionProcess, stages []models.ProcessStage, questions map[string][]models.StageQuestion) error
	UpdateProcessStatus(ctx context.Context, id string, from, to models.ProcessStatus) error
	ListStages(ctx context.Context, processID string) ([]models.ProcessStage, error)
	ListQuestions(ctx context.Context, stageID string) ([]models.StageQuestion, error)
	FindCandidateProcess(ctx context.Context, id string) (*models.CandidateProcess, error)
	FindCandidateProcessByCandidate(ctx context.Context, candidateID int64) (*models.CandidateProcess, error)
	CreateCandidateProcess(ctx context.Context, cp *models.CandidateProcess) error
	UpdateProgress(ctx context.Context, params repository.ProgressParams) error
}

type processProfileReader interface {
	FindByID(ctx context.Context, id int64) (*models.CandidateProfile, error)
}

// processTransitions is the closed lifecycle graph for selection processes.
var processTransitions = map[models.ProcessStatus][]models.ProcessStatus{
	models.ProcessStatusDraft:  {models.ProcessStatusActive, models.ProcessStatusCancelled},
	models.ProcessStatusActive: {models.ProcessStatusPaused, models.ProcessStatusCompleted, models.ProcessStatusCancelled},
	models.ProcessStatusPaused: {models.ProcessStatusActive, models.ProcessStatusCancelled},
}

// ProcessService manages selection processes and candidate enrollment.
type ProcessService struct {
	processes processStore
	profiles  processProfileReader
	audits    auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProcessService constructs ProcessService.
func NewProcessService(processes processStore, profiles processProfileReader, audits auditRecorder, validate *validator.Validate, logger *zap.Logger) *ProcessService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessService{processes: processes, profiles: profiles, audits: audits, validator: validate, logger: logger}
}

// Create builds a process with ordered stages and questions. Stage ranks must
// be contiguous starting at 1.
func (s *ProcessService) Create(ctx context.Context, req dto.CreateProcessRequest) (*dto.ProcessDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid process payload")
	}

	sorted := make([]dto.CreateStageRequest, len(req.Stages))
	copy(sorted, req.Stages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })
	for i, stage := range sorted {
		if stage.Rank != i+1 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "stage ranks must be contiguous starting at 1")
		}
		for _, question := range stage.Questions {
			switch question.Type {
			case models.QuestionTypeOpenText:
			case models.QuestionTypeMultipleChoice:
				if len(question.Options) < 2 {
					return nil, appErrors.Clone(appErrors.ErrValidation, "multiple choice questions need at least two options")
				}
			default:
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown question type")
			}
		}
	}

	process := &models.SelectionProcess{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ProcessStatusDraft,
	}
	stages := make([]models.ProcessStage, 0, len(sorted))
	questions := make(map[string][]models.StageQuestion, len(sorted))
	for _, stageReq := range sorted {
		stage := models.ProcessStage{
			ID:          uuid.NewString(),
			Rank:        stageReq.Rank,
			Name:        stageReq.Name,
			Description: stageReq.Description,
			Eliminatory: stageReq.Eliminatory,
		}
		stages = append(stages, stage)
		for i, questionReq := range stageReq.Questions {
			questions[stage.ID] = append(questions[stage.ID], models.StageQuestion{
				Rank:     i + 1,
				Text:     questionReq.Text,
				Type:     questionReq.Type,
				Required: questionReq.Required,
				Options:  pq.StringArray(questionReq.Options),
			})
		}
	}

	if err := s.processes.CreateProcess(ctx, process, stages, questions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create process")
	}
	return s.Get(ctx, process.ID)
}

// Get returns a process with its stages and questions.
func (s *ProcessService) Get(ctx context.Context, id string) (*dto.ProcessDetail, error) {
	process, err := s.processes.FindProcess(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "process not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load process")
	}
	stages, err := s.processes.ListStages(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stages")
	}
	detail := &dto.ProcessDetail{Process: *process, Stages: make([]dto.StageDetail, 0, len(stages))}
	for _, stage := range stages {
		stageQuestions, err := s.processes.ListQuestions(ctx, stage.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load questions")
		}
		detail.Stages = append(detail.Stages, dto.StageDetail{Stage: stage, Questions: stageQuestions})
	}
	return detail, nil
}

// List returns all selection processes.
func (s *ProcessService) List(ctx context.Context) ([]models.SelectionProcess, error) {
	processes, err := s.processes.ListProcesses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list processes")
	}
	return processes, nil
}

// UpdateStatus moves the process lifecycle along the closed transition graph.
// Replaying the current status is a no-op.
func (s *ProcessService) UpdateStatus(ctx context.Context, id string, req dto.UpdateProcessStatusRequest) (*models.SelectionProcess, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	process, err := s.processes.FindProcess(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "process not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load process")
	}
	if process.Status == req.Status {
		return process, nil
	}
	allowed := false
	for _, next := range processTransitions[process.Status] {
		if next == req.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "status transition not allowed")
	}
	if err := s.processes.UpdateProcessStatus(ctx, id, process.Status, req.Status); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "process changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update process status")
	}
	process.Status = req.Status
	return process, nil
}

// AddCandidate enrolls an approved candidate into an active process.
func (s *ProcessService) AddCandidate(ctx context.Context, processID string, req dto.AddCandidateRequest) (*models.CandidateProcess, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	process, err := s.processes.FindProcess(ctx, processID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "process not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load process")
	}
	if process.Status != models.ProcessStatusActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "process is not active")
	}
	profile, err := s.profiles.FindByID(ctx, req.CandidateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	if !profile.Status.ReviewClosed() || profile.Status == models.ProfileStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "candidate profile is not approved")
	}

	cp := &models.CandidateProcess{CandidateID: req.CandidateID, ProcessID: processID}
	if err := s.processes.CreateCandidateProcess(ctx, cp); err != nil {
		if errors.Is(err, repository.ErrResponseExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "candidate already enrolled in process")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll candidate")
	}
	return cp, nil
}

// Start moves a pending candidate process to its first stage.
func (s *ProcessService) Start(ctx context.Context, candidateProcessID string) (*models.CandidateProcess, error) {
	cp, err := s.findCandidateProcess(ctx, candidateProcessID)
	if err != nil {
		return nil, err
	}
	if cp.Status != models.CandidateProcessStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "candidate process already started")
	}
	stages, err := s.processes.ListStages(ctx, cp.ProcessID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stages")
	}
	if len(stages) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "process has no stages")
	}

	startedAt := time.Now().UTC()
	firstStageID := stages[0].ID
	params := repository.ProgressParams{
		ID:             cp.ID,
		Status:         models.CandidateProcessStatusInProgress,
		CurrentStageID: &firstStageID,
		StartedAt:      &startedAt,
		ExpectStageID:  nil,
		ExpectStatus:   models.CandidateProcessStatusPending,
	}
	if err := s.processes.UpdateProgress(ctx, params); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "candidate process changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start candidate process")
	}
	cp.Status = models.CandidateProcessStatusInProgress
	cp.CurrentStageID = &firstStageID
	cp.StartedAt = &startedAt
	return cp, nil
}

// Withdraw terminates a candidate process on admin request. Replaying a
// withdraw on an already withdrawn process is a no-op.
func (s *ProcessService) Withdraw(ctx context.Context, candidateProcessID, adminID string) (*models.CandidateProcess, error) {
	cp, err := s.findCandidateProcess(ctx, candidateProcessID)
	if err != nil {
		return nil, err
	}
	if cp.Status == models.CandidateProcessStatusWithdrawn {
		return cp, nil
	}
	if cp.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "candidate process already finished")
	}

	previous := cp.Status
	params := repository.ProgressParams{
		ID:             cp.ID,
		Status:         models.CandidateProcessStatusWithdrawn,
		CurrentStageID: nil,
		ExpectStageID:  cp.CurrentStageID,
		ExpectStatus:   cp.Status,
	}
	if err := s.processes.UpdateProgress(ctx, params); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "candidate process changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw candidate")
	}
	cp.Status = models.CandidateProcessStatusWithdrawn
	cp.CurrentStageID = nil

	writeAudit(ctx, s.audits, s.logger, adminID, models.AuditActionProcessWithdraw, "candidate_process", cp.ID,
		map[string]interface{}{"status": previous},
		map[string]interface{}{"status": models.CandidateProcessStatusWithdrawn})
	return cp, nil
}

func (s *ProcessService) findCandidateProcess(ctx context.Context, id string) (*models.CandidateProcess, error) {
	cp, err := s.processes.FindCandidateProcess(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate process not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate process")
	}
	return cp, nil
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/talentio/admission-api/internal/dto"
	"github.com/talentio/admission-api/internal/models"
	"github.com/talentio/admission-api/internal/repository"
	appErrors "github.com/talentio/admission-api/pkg/errors"
)

type evaluationStore interface {
	FindCandidateProcess(ctx context.Context, id string) (*models.CandidateProcess, error)
	ListStages(ctx context.Context, processID string) ([]models.ProcessStage, error)
	ListQuestions(ctx context.Context, stageID string) ([]models.StageQuestion, error)
	RecordEvaluation(ctx context.Context, response *models.StageResponse, params repository.ProgressParams) error
	ListResponses(ctx context.Context, candidateProcessID string) ([]models.StageResponse, error)
}

// EvaluationService drives the per-candidate stage state machine.
type EvaluationService struct {
	store     evaluationStore
	audits    auditRecorder
	cache     cacheStore
	ratingMin int
	ratingMax int
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEvaluationService constructs EvaluationService. Rating bounds default to
// 1 and 10 when zero.
func NewEvaluationService(store evaluationStore, audits auditRecorder, cache cacheStore, ratingMin, ratingMax int, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if ratingMin == 0 {
		ratingMin = 1
	}
	if ratingMax == 0 {
		ratingMax = 10
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{store: store, audits: audits, cache: cache, ratingMin: ratingMin, ratingMax: ratingMax, validator: validate, logger: logger}
}

// Evaluate records the outcome of the candidate's current stage and moves the
// state machine. The required-question gate runs before any mutation: a
// refused submission leaves both the process and the response collection
// untouched.
func (s *EvaluationService) Evaluate(ctx context.Context, candidateProcessID, evaluatorID string, req dto.SubmitEvaluationRequest) (*models.CandidateProcess, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	if req.Evaluation != models.EvaluationApproved && req.Evaluation != models.EvaluationRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "evaluation must be APPROVED or REJECTED")
	}
	if req.Rating != nil && (*req.Rating < s.ratingMin || *req.Rating > s.ratingMax) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rating out of bounds")
	}

	cp, err := s.store.FindCandidateProcess(ctx, candidateProcessID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate process not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate process")
	}
	if cp.CurrentStageID == nil || cp.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "candidate process has no stage awaiting evaluation")
	}

	stages, err := s.store.ListStages(ctx, cp.ProcessID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stages")
	}
	var current *models.ProcessStage
	var next *models.ProcessStage
	for i := range stages {
		if stages[i].ID == *cp.CurrentStageID {
			current = &stages[i]
			if i+1 < len(stages) {
				next = &stages[i+1]
			}
			break
		}
	}
	if current == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "current stage does not belong to the process")
	}

	questions, err := s.store.ListQuestions(ctx, current.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stage questions")
	}
	for _, question := range questions {
		if !question.Required {
			continue
		}
		if strings.TrimSpace(req.Answers[question.ID]) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "required question unanswered: "+question.Text)
		}
	}

	nextStatus, nextStageID := nextTransition(req.Evaluation, current.Eliminatory, next)

	answers, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode answers")
	}
	response := &models.StageResponse{
		CandidateProcessID: cp.ID,
		StageID:            current.ID,
		Evaluation:         req.Evaluation,
		Answers:            answers,
		Rating:             req.Rating,
	}
	if trimmed := strings.TrimSpace(req.Feedback); trimmed != "" {
		response.Feedback = &trimmed
	}

	params := repository.ProgressParams{
		ID:             cp.ID,
		Status:         nextStatus,
		CurrentStageID: nextStageID,
		ExpectStageID:  cp.CurrentStageID,
		ExpectStatus:   cp.Status,
	}
	if err := s.store.RecordEvaluation(ctx, response, params); err != nil {
		if errors.Is(err, repository.ErrResponseExists) || err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "stage was evaluated concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record evaluation")
	}

	previous := cp.Status
	cp.Status = nextStatus
	cp.CurrentStageID = nextStageID

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, repository.CandidatePattern(cp.CandidateID)); err != nil {
			s.logger.Warn("failed to invalidate candidate cache", zap.Int64("candidate_id", cp.CandidateID), zap.Error(err))
		}
	}
	writeAudit(ctx, s.audits, s.logger, evaluatorID, models.AuditActionStageEvaluate, "candidate_process", cp.ID,
		map[string]interface{}{"status": previous, "stage_id": current.ID},
		map[string]interface{}{"status": nextStatus, "evaluation": req.Evaluation})
	return cp, nil
}

// nextTransition applies the stage outcome rules. Rejection on an eliminatory
// stage short-circuits to terminal rejection. Every other outcome, including
// a non-eliminatory rejection, follows the same advance-or-finish path: a
// rejection there is informational, not a gate.
func nextTransition(evaluation models.Evaluation, eliminatory bool, next *models.ProcessStage) (models.CandidateProcessStatus, *string) {
	if evaluation == models.EvaluationRejected && eliminatory {
		return models.CandidateProcessStatusRejected, nil
	}
	if next != nil {
		nextID := next.ID
		return models.CandidateProcessStatusInProgress, &nextID
	}
	return models.CandidateProcessStatusApproved, nil
}

// History projects the candidate's stages in ascending rank with their
// recorded outcomes. Stages never evaluated carry a PENDING evaluation. The
// projection is pure: same input, same ordered output.
func (s *EvaluationService) History(ctx context.Context, candidateProcessID string) ([]models.StageHistoryEntry, error) {
	cp, err := s.store.FindCandidateProcess(ctx, candidateProcessID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate process not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate process")
	}
	stages, err := s.store.ListStages(ctx, cp.ProcessID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stages")
	}
	responses, err := s.store.ListResponses(ctx, cp.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responses")
	}
	return BuildHistory(stages, responses), nil
}

// BuildHistory annotates each stage with its response, ascending by rank.
func BuildHistory(stages []models.ProcessStage, responses []models.StageResponse) []models.StageHistoryEntry {
	byStage := make(map[string]models.StageResponse, len(responses))
	for _, response := range responses {
		byStage[response.StageID] = response
	}
	entries := make([]models.StageHistoryEntry, 0, len(stages))
	for _, stage := range stages {
		entry := models.StageHistoryEntry{Stage: stage, Evaluation: models.EvaluationPending}
		if response, ok := byStage[stage.ID]; ok {
			entry.Evaluation = response.Evaluation
			entry.Rating = response.Rating
			entry.Feedback = response.Feedback
			evaluatedAt := response.EvaluatedAt
			entry.EvaluatedAt = &evaluatedAt
		}
		entries = append(entries, entry)
	}
	return entries
}

package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/talentio/admission-api/internal/dto"
	"github.com/talentio/admission-api/internal/models"
	"github.com/talentio/admission-api/internal/observation"
	"github.com/talentio/admission-api/internal/repository"
	appErrors "github.com/talentio/admission-api/pkg/errors"
)

type progressionProcessReader interface {
	FindCandidateProcessByCandidate(ctx context.Context, candidateID int64) (*models.CandidateProcess, error)
	FindProcess(ctx context.Context, id string) (*models.SelectionProcess, error)
	ListStages(ctx context.Context, processID string) ([]models.ProcessStage, error)
	ListResponses(ctx context.Context, candidateProcessID string) ([]models.StageResponse, error)
}

// ProgressionService is the single read-and-write path the presentation layer
// touches: it answers "where does this candidate stand" from one consistent
// snapshot and forwards every administrator operation to the owning service.
type ProgressionService struct {
	reviews     *ReviewService
	documents   *DocumentService
	evaluations *EvaluationService
	profiles    documentProfileStore
	docs        admissionDocumentReader
	processes   progressionProcessReader
	cache       cacheStore
	cacheTTL    time.Duration
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewProgressionService constructs the facade. A zero cacheTTL disables
// overview caching; a nil metrics service disables instrumentation.
func NewProgressionService(reviews *ReviewService, documents *DocumentService, evaluations *EvaluationService, profiles documentProfileStore, docs admissionDocumentReader, processes progressionProcessReader, cache cacheStore, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *ProgressionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressionService{
		reviews: reviews, documents: documents, evaluations: evaluations,
		profiles: profiles, docs: docs, processes: processes,
		cache: cache, cacheTTL: cacheTTL, metrics: metrics, logger: logger,
	}
}

const overviewCacheSuffix = "overview"

// Overview aggregates the profile, document, and selection-process tracks.
// Every entity is read once, in that order, before any projection runs; the
// write side invalidates by candidate id, never patches the cached value.
// The boolean reports whether the cached projection was served.
func (s *ProgressionService) Overview(ctx context.Context, candidateID int64) (*dto.CandidateOverview, bool, error) {
	cacheKey := repository.CandidateKey(candidateID, overviewCacheSuffix)
	if s.cache != nil && s.cacheTTL > 0 {
		var cached dto.CandidateOverview
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, true, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	profile, err := s.profiles.FindByID(ctx, candidateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	types, err := s.docs.ListTypes(ctx, true)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list document types")
	}
	docs, err := s.docs.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate documents")
	}

	payload := ""
	if profile.Observations != nil {
		payload = *profile.Observations
	}
	tracker := observation.NewTracker(payload, profile.PendingSections, profile.Status)
	sections := make([]dto.SectionStateView, 0)
	for _, state := range tracker.Sections() {
		sections = append(sections, dto.SectionStateView{
			Key:        string(state.Key),
			Label:      state.Label,
			Note:       state.Note,
			Resolution: string(state.Resolution),
		})
	}
	resolved, total := tracker.Progress()

	summary := Summarize(types, docs)
	overview := &dto.CandidateOverview{
		Profile:  *profile,
		Sections: sections,
		Progress: dto.ReviewProgress{Resolved: resolved, Total: total},
		Documents: dto.DocumentSummaryView{
			Summary:         summary,
			CompletionRatio: summary.CompletionRatio(),
			Cohort:          ClassifyCohort(profile.Status, summary),
		},
	}

	process, err := s.processView(ctx, candidateID)
	if err != nil {
		return nil, false, err
	}
	overview.Process = process

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, cacheKey, overview, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache candidate overview", zap.Int64("candidate_id", candidateID), zap.Error(err))
		}
	}
	return overview, false, nil
}

func (s *ProgressionService) processView(ctx context.Context, candidateID int64) (*dto.ProcessProgressView, error) {
	cp, err := s.processes.FindCandidateProcessByCandidate(ctx, candidateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate process")
	}
	process, err := s.processes.FindProcess(ctx, cp.ProcessID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load process")
	}
	stages, err := s.processes.ListStages(ctx, cp.ProcessID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stages")
	}
	responses, err := s.processes.ListResponses(ctx, cp.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load responses")
	}

	view := &dto.ProcessProgressView{
		CandidateProcessID: cp.ID,
		ProcessName:        process.Name,
		Status:             cp.Status,
		History:            BuildHistory(stages, responses),
	}
	if cp.CurrentStageID != nil {
		for i := range stages {
			if stages[i].ID == *cp.CurrentStageID {
				current := stages[i]
				view.CurrentStage = &current
				break
			}
		}
	}
	return view, nil
}

// Get forwards to the review track.
func (s *ProgressionService) Get(ctx context.Context, candidateID int64) (*models.CandidateProfile, error) {
	return s.reviews.Get(ctx, candidateID)
}

// List forwards to the review track.
func (s *ProgressionService) List(ctx context.Context, filter models.CandidateFilter) ([]models.CandidateProfile, *models.Pagination, error) {
	return s.reviews.List(ctx, filter)
}

// Progress forwards to the review track.
func (s *ProgressionService) Progress(ctx context.Context, candidateID int64) ([]dto.SectionStateView, *dto.ReviewProgress, error) {
	return s.reviews.Progress(ctx, candidateID)
}

// RequestProfileChanges forwards to the review track.
func (s *ProgressionService) RequestProfileChanges(ctx context.Context, candidateID int64, adminID string, req dto.RequestChangesRequest) (*models.CandidateProfile, error) {
	profile, err := s.reviews.RequestChanges(ctx, candidateID, adminID, req)
	if err == nil {
		s.metrics.RecordTransition(TransitionTrackProfile, string(profile.Status))
	}
	return profile, err
}

// CandidateEditsSection resolves one outstanding section on behalf of the
// profile-edit surface.
func (s *ProgressionService) CandidateEditsSection(ctx context.Context, candidateID int64, sectionKey string) (*models.CandidateProfile, error) {
	profile, err := s.reviews.ResolveSection(ctx, candidateID, sectionKey)
	if err == nil {
		s.metrics.RecordTransition(TransitionTrackProfile, string(profile.Status))
	}
	return profile, err
}

// ApproveProfile forwards to the review track.
func (s *ProgressionService) ApproveProfile(ctx context.Context, candidateID int64, adminID string) (*models.CandidateProfile, error) {
	profile, err := s.reviews.Approve(ctx, candidateID, adminID)
	if err == nil {
		s.metrics.RecordTransition(TransitionTrackProfile, string(profile.Status))
	}
	return profile, err
}

// RejectProfile forwards to the review track.
func (s *ProgressionService) RejectProfile(ctx context.Context, candidateID int64, adminID string) (*models.CandidateProfile, error) {
	profile, err := s.reviews.Reject(ctx, candidateID, adminID)
	if err == nil {
		s.metrics.RecordTransition(TransitionTrackProfile, string(profile.Status))
	}
	return profile, err
}

// ReviewDocument forwards to the document track.
func (s *ProgressionService) ReviewDocument(ctx context.Context, documentID, reviewerID string, req dto.ReviewDocumentRequest) (*models.CandidateDocument, error) {
	doc, err := s.documents.Review(ctx, documentID, reviewerID, req)
	if err == nil {
		s.metrics.RecordTransition(TransitionTrackDocument, string(doc.Status))
	}
	return doc, err
}

// SubmitStageEvaluation forwards to the stage engine.
func (s *ProgressionService) SubmitStageEvaluation(ctx context.Context, candidateProcessID, evaluatorID string, req dto.SubmitEvaluationRequest) (*models.CandidateProcess, error) {
	cp, err := s.evaluations.Evaluate(ctx, candidateProcessID, evaluatorID, req)
	if err == nil {
		s.metrics.RecordTransition(TransitionTrackStage, string(cp.Status))
	}
	return cp, err
}

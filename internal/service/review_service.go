package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/talentio/admission-api/internal/dto"
	"github.com/talentio/admission-api/internal/models"
	"github.com/talentio/admission-api/internal/observation"
	"github.com/talentio/admission-api/internal/repository"
	appErrors "github.com/talentio/admission-api/pkg/errors"
)

type profileReviewStore interface {
	FindByID(ctx context.Context, id int64) (*models.CandidateProfile, error)
	List(ctx context.Context, filter models.CandidateFilter) ([]models.CandidateProfile, int, error)
	UpdateReviewState(ctx context.Context, params repository.UpdateReviewStateParams) error
	RemovePendingSection(ctx context.Context, id int64, sectionKey string) (*models.CandidateProfile, error)
}

// ReviewService runs the profile review track: change requests, section
// resolution, and the approve/reject decision.
type ReviewService struct {
	profiles  profileReviewStore
	audits    auditRecorder
	cache     cacheStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReviewService constructs ReviewService.
func NewReviewService(profiles profileReviewStore, audits auditRecorder, cache cacheStore, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{profiles: profiles, audits: audits, cache: cache, validator: validate, logger: logger}
}

// Get returns one candidate profile.
func (s *ReviewService) Get(ctx context.Context, candidateID int64) (*models.CandidateProfile, error) {
	profile, err := s.profiles.FindByID(ctx, candidateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	return profile, nil
}

// List returns candidate profiles with pagination metadata.
func (s *ReviewService) List(ctx context.Context, filter models.CandidateFilter) ([]models.CandidateProfile, *models.Pagination, error) {
	profiles, total, err := s.profiles.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list candidates")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return profiles, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// RequestChanges encodes per-section notes into the review payload and marks
// every named section outstanding. Payload, pending set, and status move in
// one write.
func (s *ReviewService) RequestChanges(ctx context.Context, candidateID int64, adminID string, req dto.RequestChangesRequest) (*models.CandidateProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change request payload")
	}
	sections := make(map[observation.SectionKey]string, len(req.Sections))
	for rawKey, note := range req.Sections {
		key := observation.SectionKey(rawKey)
		if !observation.ValidKey(key) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown section key: "+rawKey)
		}
		if strings.TrimSpace(note) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "section note must not be empty: "+rawKey)
		}
		if !observation.Representable(note) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "section note cannot contain bracket-prefixed lines or leading/trailing blank lines: "+rawKey)
		}
		sections[key] = note
	}

	profile, err := s.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if profile.Status.ReviewClosed() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "profile review is already closed")
	}

	payload := observation.Encode(sections)
	pending := make([]string, 0, len(sections))
	for _, key := range observation.Keys() {
		if _, ok := sections[key]; ok {
			pending = append(pending, string(key))
		}
	}
	sort.Strings(pending)

	params := repository.UpdateReviewStateParams{
		ID:              candidateID,
		Status:          models.ProfileStatusChangesRequested,
		Observations:    &payload,
		PendingSections: pending,
		ReviewedAt:      time.Now().UTC(),
		ExpectStatuses: []models.ProfileStatus{
			models.ProfileStatusPending,
			models.ProfileStatusAwaitingReview,
			models.ProfileStatusChangesRequested,
		},
	}
	if err := s.profiles.UpdateReviewState(ctx, params); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "profile changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to request changes")
	}

	s.invalidateCandidate(ctx, candidateID)
	s.auditReview(ctx, adminID, models.AuditActionProfileRequestChanges, candidateID,
		map[string]interface{}{"status": profile.Status},
		map[string]interface{}{"status": models.ProfileStatusChangesRequested, "pending_sections": pending})
	return s.Get(ctx, candidateID)
}

// ResolveSection records that the candidate addressed one outstanding
// section. When the last one resolves the store promotes the profile to
// AWAITING_REVIEW in the same statement.
func (s *ReviewService) ResolveSection(ctx context.Context, candidateID int64, rawKey string) (*models.CandidateProfile, error) {
	key := observation.SectionKey(rawKey)
	if !observation.ValidKey(key) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown section key: "+rawKey)
	}
	profile, err := s.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if profile.Status != models.ProfileStatusChangesRequested {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "no change request outstanding")
	}
	outstanding := false
	for _, pending := range profile.PendingSections {
		if pending == rawKey {
			outstanding = true
			break
		}
	}
	if !outstanding {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "section is not outstanding")
	}

	updated, err := s.profiles.RemovePendingSection(ctx, candidateID, rawKey)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "profile changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve section")
	}

	s.invalidateCandidate(ctx, candidateID)
	s.auditReview(ctx, "", models.AuditActionProfileSectionResolve, candidateID,
		map[string]interface{}{"pending_sections": profile.PendingSections},
		map[string]interface{}{"pending_sections": updated.PendingSections, "status": updated.Status})
	return updated, nil
}

// Approve closes the review track positively. Replaying an approve on an
// already approved profile is a no-op.
func (s *ReviewService) Approve(ctx context.Context, candidateID int64, adminID string) (*models.CandidateProfile, error) {
	return s.decide(ctx, candidateID, adminID, models.ProfileStatusApproved, models.AuditActionProfileApprove)
}

// Reject closes the review track negatively. Replaying a reject on an
// already rejected profile is a no-op.
func (s *ReviewService) Reject(ctx context.Context, candidateID int64, adminID string) (*models.CandidateProfile, error) {
	return s.decide(ctx, candidateID, adminID, models.ProfileStatusRejected, models.AuditActionProfileReject)
}

func (s *ReviewService) decide(ctx context.Context, candidateID int64, adminID string, decision models.ProfileStatus, action string) (*models.CandidateProfile, error) {
	profile, err := s.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if profile.Status == decision {
		return profile, nil
	}
	if profile.Status.ReviewClosed() {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "profile review is already closed")
	}

	params := repository.UpdateReviewStateParams{
		ID:           candidateID,
		Status:       decision,
		Observations: profile.Observations,
		ReviewedAt:   time.Now().UTC(),
		ExpectStatuses: []models.ProfileStatus{
			models.ProfileStatusPending,
			models.ProfileStatusAwaitingReview,
			models.ProfileStatusChangesRequested,
		},
	}
	if err := s.profiles.UpdateReviewState(ctx, params); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "profile changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}

	s.invalidateCandidate(ctx, candidateID)
	s.auditReview(ctx, adminID, action, candidateID,
		map[string]interface{}{"status": profile.Status},
		map[string]interface{}{"status": decision})
	return s.Get(ctx, candidateID)
}

// Progress renders the review payload with per-section resolution and the
// resolved/total counters.
func (s *ReviewService) Progress(ctx context.Context, candidateID int64) ([]dto.SectionStateView, *dto.ReviewProgress, error) {
	profile, err := s.Get(ctx, candidateID)
	if err != nil {
		return nil, nil, err
	}
	payload := ""
	if profile.Observations != nil {
		payload = *profile.Observations
	}
	tracker := observation.NewTracker(payload, profile.PendingSections, profile.Status)
	states := tracker.Sections()
	views := make([]dto.SectionStateView, 0, len(states))
	for _, state := range states {
		views = append(views, dto.SectionStateView{
			Key:        string(state.Key),
			Label:      state.Label,
			Note:       state.Note,
			Resolution: string(state.Resolution),
		})
	}
	resolved, total := tracker.Progress()
	return views, &dto.ReviewProgress{Resolved: resolved, Total: total}, nil
}

func (s *ReviewService) invalidateCandidate(ctx context.Context, candidateID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, repository.CandidatePattern(candidateID)); err != nil {
		s.logger.Warn("failed to invalidate candidate cache", zap.Int64("candidate_id", candidateID), zap.Error(err))
	}
}

func (s *ReviewService) auditReview(ctx context.Context, adminID, action string, candidateID int64, oldValues, newValues map[string]interface{}) {
	writeAudit(ctx, s.audits, s.logger, adminID, action, "candidate_profile", formatCandidateID(candidateID), oldValues, newValues)
}

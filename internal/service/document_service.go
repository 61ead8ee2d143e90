package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/talentio/admission-api/internal/dto"
	"github.com/talentio/admission-api/internal/models"
	"github.com/talentio/admission-api/internal/repository"
	appErrors "github.com/talentio/admission-api/pkg/errors"
)

type documentStore interface {
	ListTypes(ctx context.Context, activeOnly bool) ([]models.DocumentType, error)
	CountActiveTypes(ctx context.Context) (int, error)
	CreateType(ctx context.Context, docType *models.DocumentType) error
	DeactivateType(ctx context.Context, id string) error
	FindType(ctx context.Context, id string) (*models.DocumentType, error)
	FindDocument(ctx context.Context, id string) (*models.CandidateDocument, error)
	ListByCandidate(ctx context.Context, candidateID int64) ([]models.CandidateDocument, error)
	Upsert(ctx context.Context, doc *models.CandidateDocument) error
	UpdateReview(ctx context.Context, params repository.ReviewParams) error
}

type documentProfileStore interface {
	FindByID(ctx context.Context, id int64) (*models.CandidateProfile, error)
	List(ctx context.Context, filter models.CandidateFilter) ([]models.CandidateProfile, int, error)
	UpdateStatus(ctx context.Context, id int64, to models.ProfileStatus, expect ...models.ProfileStatus) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type downloadSigner interface {
	Generate(documentID, relPath string) (string, time.Time, error)
}

const cohortQueueTTL = time.Minute
const cohortQueuePageSize = 100

// DocumentService aggregates candidate documents and runs the review workflow.
type DocumentService struct {
	docs      documentStore
	profiles  documentProfileStore
	audits    auditRecorder
	cache     cacheStore
	signer    downloadSigner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDocumentService constructs DocumentService. Audit, cache, and signer are
// optional.
func NewDocumentService(docs documentStore, profiles documentProfileStore, audits auditRecorder, cache cacheStore, signer downloadSigner, validate *validator.Validate, logger *zap.Logger) *DocumentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{docs: docs, profiles: profiles, audits: audits, cache: cache, signer: signer, validator: validate, logger: logger}
}

// Summarize buckets a candidate's required document types by current status.
// A required type with no record counts as not sent. The result is a pure
// fold over the per-type statuses.
func Summarize(types []models.DocumentType, docs []models.CandidateDocument) models.DocumentSummary {
	statusByType := make(map[string]models.DocumentStatus, len(docs))
	for _, doc := range docs {
		statusByType[doc.DocumentTypeID] = doc.Status
	}
	var summary models.DocumentSummary
	for _, docType := range types {
		if !docType.Active || !docType.Required {
			continue
		}
		summary.Required++
		switch statusByType[docType.ID] {
		case models.DocumentStatusApproved:
			summary.Approved++
		case models.DocumentStatusPending:
			summary.Pending++
		case models.DocumentStatusRejected:
			summary.Rejected++
		default:
			summary.NotSent++
		}
	}
	return summary
}

// ClassifyCohort places a candidate into at most one admin queue. Candidates
// whose profile review is not approved yet belong to no queue.
func ClassifyCohort(status models.ProfileStatus, summary models.DocumentSummary) models.DocumentCohort {
	if !status.ReviewClosed() || status == models.ProfileStatusRejected {
		return models.CohortNone
	}
	switch {
	case summary.Approved < summary.Required && summary.Pending == 0:
		return models.CohortAwaiting
	case summary.Pending > 0:
		return models.CohortPendingReview
	case summary.Required > 0 && summary.Approved == summary.Required:
		return models.CohortCompleted
	}
	return models.CohortNone
}

// ListTypes returns the active document requirements ordered by rank.
func (s *DocumentService) ListTypes(ctx context.Context) ([]models.DocumentType, error) {
	types, err := s.docs.ListTypes(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list document types")
	}
	return types, nil
}

// CreateType registers a document requirement, bounded by the active-type cap.
func (s *DocumentService) CreateType(ctx context.Context, req dto.CreateDocumentTypeRequest) (*models.DocumentType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document type payload")
	}
	count, err := s.docs.CountActiveTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count document types")
	}
	if count >= models.MaxActiveDocumentTypes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "active document type limit reached")
	}
	docType := &models.DocumentType{
		Name:            req.Name,
		Required:        req.Required,
		AcceptedFormats: req.AcceptedFormats,
		MaxSizeBytes:    req.MaxSizeBytes,
		Rank:            req.Rank,
	}
	if err := s.docs.CreateType(ctx, docType); err != nil {
		if err == sql.ErrNoRows {
			// The store's own cap guard fired between the count and the insert.
			return nil, appErrors.Clone(appErrors.ErrValidation, "active document type limit reached")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create document type")
	}
	return docType, nil
}

// DeactivateType retires a document requirement without touching history.
func (s *DocumentService) DeactivateType(ctx context.Context, id string) error {
	if err := s.docs.DeactivateType(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "document type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate document type")
	}
	return nil
}

// Upload registers a stored file for a (candidate, type) pair. A re-upload
// after rejection replaces the prior record with a fresh pending one; an
// approved document cannot be replaced.
func (s *DocumentService) Upload(ctx context.Context, candidateID int64, req dto.UploadDocumentRequest) (*models.CandidateDocument, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload payload")
	}
	profile, err := s.profiles.FindByID(ctx, candidateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	if !documentPhase(profile.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "candidate profile is not in the document phase")
	}
	docType, err := s.docs.FindType(ctx, req.DocumentTypeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document type")
	}
	if !docType.Active {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "document type is inactive")
	}
	if !formatAccepted(docType.AcceptedFormats, req.FilePath) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file format not accepted for this document type")
	}

	current, err := s.docs.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate documents")
	}
	for _, doc := range current {
		if doc.DocumentTypeID == req.DocumentTypeID && doc.Status == models.DocumentStatusApproved {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "document already approved")
		}
	}

	doc := &models.CandidateDocument{
		CandidateID:    candidateID,
		DocumentTypeID: req.DocumentTypeID,
		FilePath:       req.FilePath,
	}
	if err := s.docs.Upsert(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register document")
	}

	s.syncProfileStatus(ctx, profile.ID, profile.Status)
	s.invalidate(ctx, candidateID)
	return doc, nil
}

// Review records an admin decision on a pending document. Rejections carry an
// observation telling the candidate what to fix.
func (s *DocumentService) Review(ctx context.Context, documentID, reviewerID string, req dto.ReviewDocumentRequest) (*models.CandidateDocument, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if req.Decision != models.DocumentStatusApproved && req.Decision != models.DocumentStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be APPROVED or REJECTED")
	}
	if req.Decision == models.DocumentStatusRejected && strings.TrimSpace(req.Observation) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection requires an observation")
	}
	doc, err := s.docs.FindDocument(ctx, documentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if doc.Status != models.DocumentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "document is not pending review")
	}

	reviewedAt := time.Now().UTC()
	var observation *string
	if trimmed := strings.TrimSpace(req.Observation); trimmed != "" {
		observation = &trimmed
	}
	params := repository.ReviewParams{ID: doc.ID, Status: req.Decision, Observation: observation, ReviewedAt: reviewedAt}
	if err := s.docs.UpdateReview(ctx, params); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "document was reviewed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record review")
	}

	previous := doc.Status
	doc.Status = req.Decision
	doc.Observation = observation
	doc.ReviewedAt = &reviewedAt

	if profile, err := s.profiles.FindByID(ctx, doc.CandidateID); err == nil {
		s.syncProfileStatus(ctx, profile.ID, profile.Status)
	} else {
		s.logger.Warn("failed to load profile after document review", zap.Int64("candidate_id", doc.CandidateID), zap.Error(err))
	}
	s.invalidate(ctx, doc.CandidateID)
	s.audit(ctx, reviewerID, models.AuditActionDocumentReview, "candidate_document", doc.ID,
		map[string]interface{}{"status": previous},
		map[string]interface{}{"status": doc.Status, "observation": req.Observation})
	return doc, nil
}

// Summary computes the aggregate document state for one candidate.
func (s *DocumentService) Summary(ctx context.Context, candidateID int64) (*dto.DocumentSummaryView, error) {
	profile, err := s.profiles.FindByID(ctx, candidateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	summary, err := s.summarizeCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	return &dto.DocumentSummaryView{
		Summary:         summary,
		CompletionRatio: summary.CompletionRatio(),
		Cohort:          ClassifyCohort(profile.Status, summary),
	}, nil
}

// CohortQueue lists the candidates currently in one admin document queue.
// Queue payloads are cached briefly and invalidated on every document write.
func (s *DocumentService) CohortQueue(ctx context.Context, cohort models.DocumentCohort) ([]dto.CohortEntry, error) {
	switch cohort {
	case models.CohortAwaiting, models.CohortPendingReview, models.CohortCompleted:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown cohort")
	}

	cacheKey := repository.CohortKey(string(cohort))
	if s.cache != nil {
		var cached []dto.CohortEntry
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	types, err := s.docs.ListTypes(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list document types")
	}

	entries := []dto.CohortEntry{}
	for _, status := range documentPhaseStatuses {
		status := status
		filter := models.CandidateFilter{Status: &status, Page: 1, PageSize: cohortQueuePageSize}
		for {
			profiles, total, err := s.profiles.List(ctx, filter)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list candidates")
			}
			for _, profile := range profiles {
				docs, err := s.docs.ListByCandidate(ctx, profile.ID)
				if err != nil {
					return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate documents")
				}
				summary := Summarize(types, docs)
				if ClassifyCohort(profile.Status, summary) != cohort {
					continue
				}
				entries = append(entries, dto.CohortEntry{
					CandidateID:     profile.ID,
					FullName:        profile.FullName,
					Summary:         summary,
					CompletionRatio: summary.CompletionRatio(),
				})
			}
			if len(profiles) == 0 || filter.Page*filter.PageSize >= total {
				break
			}
			filter.Page++
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, entries, cohortQueueTTL); err != nil {
			s.logger.Warn("failed to cache cohort queue", zap.String("cohort", string(cohort)), zap.Error(err))
		}
	}
	return entries, nil
}

// DownloadURL issues a short-lived signed URL for a reviewed file.
func (s *DocumentService) DownloadURL(ctx context.Context, documentID string) (string, time.Time, error) {
	if s.signer == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInternal, "document signing is not configured")
	}
	doc, err := s.docs.FindDocument(ctx, documentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	token, expiresAt, err := s.signer.Generate(doc.ID, doc.FilePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	return token, expiresAt, nil
}

func (s *DocumentService) summarizeCandidate(ctx context.Context, candidateID int64) (models.DocumentSummary, error) {
	types, err := s.docs.ListTypes(ctx, true)
	if err != nil {
		return models.DocumentSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list document types")
	}
	docs, err := s.docs.ListByCandidate(ctx, candidateID)
	if err != nil {
		return models.DocumentSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate documents")
	}
	return Summarize(types, docs), nil
}

var documentPhaseStatuses = []models.ProfileStatus{
	models.ProfileStatusApproved,
	models.ProfileStatusDocumentsPending,
	models.ProfileStatusDocumentsComplete,
}

func documentPhase(status models.ProfileStatus) bool {
	for _, s := range documentPhaseStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// syncProfileStatus keeps the profile's document-phase status aligned with the
// aggregate. Losing the guarded update to a concurrent writer is fine; the
// winner computed the same rule.
func (s *DocumentService) syncProfileStatus(ctx context.Context, candidateID int64, current models.ProfileStatus) {
	if !documentPhase(current) {
		return
	}
	summary, err := s.summarizeCandidate(ctx, candidateID)
	if err != nil {
		s.logger.Warn("failed to summarize documents for status sync", zap.Int64("candidate_id", candidateID), zap.Error(err))
		return
	}
	desired := models.ProfileStatusDocumentsPending
	if ClassifyCohort(current, summary) == models.CohortCompleted {
		desired = models.ProfileStatusDocumentsComplete
	}
	if desired == current {
		return
	}
	if err := s.profiles.UpdateStatus(ctx, candidateID, desired, documentPhaseStatuses...); err != nil && err != sql.ErrNoRows {
		s.logger.Warn("failed to sync profile document status", zap.Int64("candidate_id", candidateID), zap.Error(err))
	}
}

func (s *DocumentService) invalidate(ctx context.Context, candidateID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, repository.CandidatePattern(candidateID)); err != nil {
		s.logger.Warn("failed to invalidate candidate cache", zap.Int64("candidate_id", candidateID), zap.Error(err))
	}
	for _, cohort := range []models.DocumentCohort{models.CohortAwaiting, models.CohortPendingReview, models.CohortCompleted} {
		if err := s.cache.DeleteByPattern(ctx, repository.CohortKey(string(cohort))); err != nil {
			s.logger.Warn("failed to invalidate cohort cache", zap.String("cohort", string(cohort)), zap.Error(err))
		}
	}
}

func (s *DocumentService) audit(ctx context.Context, userID, action, resource, resourceID string, oldValues, newValues map[string]interface{}) {
	writeAudit(ctx, s.audits, s.logger, userID, action, resource, resourceID, oldValues, newValues)
}

// writeAudit records an audit trail entry best-effort. Audit failures are
// logged and never fail the operation that produced them.
func writeAudit(ctx context.Context, audits auditRecorder, logger *zap.Logger, userID, action, resource, resourceID string, oldValues, newValues map[string]interface{}) {
	if audits == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := &models.AuditLog{Action: action, Resource: resource}
	if userID != "" {
		log.UserID = &userID
	}
	if resourceID != "" {
		log.ResourceID = &resourceID
	}
	if oldValues != nil {
		if raw, err := json.Marshal(oldValues); err == nil {
			log.OldValues = raw
		}
	}
	if newValues != nil {
		if raw, err := json.Marshal(newValues); err == nil {
			log.NewValues = raw
		}
	}
	if err := audits.CreateAuditLog(ctx, log); err != nil {
		logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

func formatAccepted(formats []string, filePath string) bool {
	if len(formats) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")
	for _, format := range formats {
		if strings.TrimPrefix(strings.ToLower(format), ".") == ext {
			return true
		}
	}
	return false
}

func formatCandidateID(id int64) string {
	return strconv.FormatInt(id, 10)
}

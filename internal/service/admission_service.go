package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talentio/admission-api/internal/dto"
	"github.com/talentio/admission-api/internal/models"
	appErrors "github.com/talentio/admission-api/pkg/errors"
	"github.com/talentio/admission-api/pkg/jobs"
)

// JobTypeERPDispatch tags admission dispatch jobs on the background queue.
const JobTypeERPDispatch = "erp_dispatch"

// ERPClient sends finalized admission records to the external HR system.
// Implementations must treat transport failures as retryable.
type ERPClient interface {
	SendAdmission(ctx context.Context, record models.AdmissionRecord) error
}

type admissionStore interface {
	Create(ctx context.Context, record *models.AdmissionRecord) error
	FindByID(ctx context.Context, id string) (*models.AdmissionRecord, error)
	FindByCandidate(ctx context.Context, candidateID int64) (*models.AdmissionRecord, error)
	ListFinalized(ctx context.Context) ([]models.AdmissionRecord, error)
	MarkFinalized(ctx context.Context, id string) error
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
}

type admissionProcessReader interface {
	FindCandidateProcessByCandidate(ctx context.Context, candidateID int64) (*models.CandidateProcess, error)
}

type admissionDocumentReader interface {
	ListTypes(ctx context.Context, activeOnly bool) ([]models.DocumentType, error)
	ListByCandidate(ctx context.Context, candidateID int64) ([]models.CandidateDocument, error)
}

type dispatcher interface {
	Enqueue(job jobs.Job) error
}

// AdmissionService creates, finalizes, and dispatches admission records.
type AdmissionService struct {
	records   admissionStore
	profiles  documentProfileStore
	processes admissionProcessReader
	documents admissionDocumentReader
	erp       ERPClient
	queue     dispatcher
	audits    auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdmissionService constructs AdmissionService. Queue and ERP client are
// optional; without them Finalize still works and dispatch happens on the
// manual resend path.
func NewAdmissionService(records admissionStore, profiles documentProfileStore, processes admissionProcessReader, documents admissionDocumentReader, erp ERPClient, queue dispatcher, audits auditRecorder, validate *validator.Validate, logger *zap.Logger) *AdmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionService{
		records: records, profiles: profiles, processes: processes, documents: documents,
		erp: erp, queue: queue, audits: audits, validator: validate, logger: logger,
	}
}

// Create opens an admission record once all three tracks have closed: profile
// approved, documents complete, selection process approved.
func (s *AdmissionService) Create(ctx context.Context, candidateID int64, req dto.CreateAdmissionRequest) (*models.AdmissionRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admission payload")
	}
	profile, err := s.profiles.FindByID(ctx, candidateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate")
	}
	if profile.Status != models.ProfileStatusDocumentsComplete {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "candidate documents are not complete")
	}
	types, err := s.documents.ListTypes(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list document types")
	}
	docs, err := s.documents.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate documents")
	}
	if summary := Summarize(types, docs); ClassifyCohort(profile.Status, summary) != models.CohortCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "candidate documents are not complete")
	}
	cp, err := s.processes.FindCandidateProcessByCandidate(ctx, candidateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "candidate is not enrolled in a selection process")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load candidate process")
	}
	if cp.Status != models.CandidateProcessStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "selection process is not approved")
	}
	if existing, err := s.records.FindByCandidate(ctx, candidateID); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "admission record already exists")
	} else if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing admission")
	}

	record := &models.AdmissionRecord{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		ProcessID:   cp.ProcessID,
		Position:    req.Position,
		Department:  req.Department,
		StartDate:   req.StartDate,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admission record")
	}
	if err := s.profiles.UpdateStatus(ctx, candidateID, models.ProfileStatusAdmissionInProgress, models.ProfileStatusDocumentsComplete); err != nil && err != sql.ErrNoRows {
		s.logger.Warn("failed to move profile into admission", zap.Int64("candidate_id", candidateID), zap.Error(err))
	}
	return record, nil
}

// Get returns one admission record.
func (s *AdmissionService) Get(ctx context.Context, id string) (*models.AdmissionRecord, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admission record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admission record")
	}
	return record, nil
}

// Finalize flips the immutable flag once and enqueues ERP dispatch. Replaying
// a finalize on an already finalized record is a no-op.
func (s *AdmissionService) Finalize(ctx context.Context, id, adminID string) (*models.AdmissionRecord, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Finalized {
		return record, nil
	}
	if err := s.records.MarkFinalized(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "admission record changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize admission")
	}
	record.Finalized = true

	if err := s.profiles.UpdateStatus(ctx, record.CandidateID, models.ProfileStatusAdmitted, models.ProfileStatusAdmissionInProgress); err != nil && err != sql.ErrNoRows {
		s.logger.Warn("failed to mark profile admitted", zap.Int64("candidate_id", record.CandidateID), zap.Error(err))
	}
	if s.queue != nil {
		job := jobs.Job{ID: uuid.NewString(), Type: JobTypeERPDispatch, Payload: record.ID}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Error("failed to enqueue erp dispatch", zap.String("admission_id", record.ID), zap.Error(err))
		}
	}
	writeAudit(ctx, s.audits, s.logger, adminID, models.AuditActionAdmissionFinalize, "admission_record", record.ID,
		map[string]interface{}{"finalized": false},
		map[string]interface{}{"finalized": true})
	return record, nil
}

// Dispatch sends one finalized record to the ERP and stamps sent_at. Used by
// the background queue handler and the manual resend endpoint. An unreachable
// ERP surfaces as a collaborator error so the queue retries and the manual
// caller sees a 503.
func (s *AdmissionService) Dispatch(ctx context.Context, recordID string) error {
	if s.erp == nil {
		return appErrors.Clone(appErrors.ErrCollaborator, "erp client is not configured")
	}
	record, err := s.Get(ctx, recordID)
	if err != nil {
		return err
	}
	if !record.Finalized {
		return appErrors.Clone(appErrors.ErrInvalidState, "admission record is not finalized")
	}
	if record.SentAt != nil {
		return nil
	}
	if err := s.erp.SendAdmission(ctx, *record); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCollaborator.Code, appErrors.ErrCollaborator.Status, "erp rejected admission dispatch")
	}
	if err := s.records.MarkSent(ctx, recordID, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stamp dispatch")
	}
	return nil
}

// HandleDispatchJob adapts Dispatch to the queue handler contract.
func (s *AdmissionService) HandleDispatchJob(ctx context.Context, job jobs.Job) error {
	recordID, ok := job.Payload.(string)
	if !ok {
		s.logger.Error("erp dispatch job carries no record id", zap.String("job_id", job.ID))
		return nil
	}
	return s.Dispatch(ctx, recordID)
}

// ListFinalized returns the admitted roster.
func (s *AdmissionService) ListFinalized(ctx context.Context) ([]models.AdmissionRecord, error) {
	records, err := s.records.ListFinalized(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admissions")
	}
	return records, nil
}

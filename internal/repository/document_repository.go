package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/talentio/admission-api/internal/models"
)

// DocumentRepository persists document types and candidate documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentTypeColumns = `id, name, required, accepted_formats, max_size_bytes, rank, active, created_at`
const candidateDocumentColumns = `id, candidate_id, document_type_id, file_path, status, observation, reviewed_at, uploaded_at`

// ListTypes returns document types ordered by rank.
func (r *DocumentRepository) ListTypes(ctx context.Context, activeOnly bool) ([]models.DocumentType, error) {
	query := fmt.Sprintf(`SELECT %s FROM document_types`, documentTypeColumns)
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY rank ASC, created_at ASC`

	var types []models.DocumentType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list document types: %w", err)
	}
	return types, nil
}

// CountActiveTypes counts the active document types.
func (r *DocumentRepository) CountActiveTypes(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM document_types WHERE active = TRUE`); err != nil {
		return 0, fmt.Errorf("count document types: %w", err)
	}
	return count, nil
}

// CreateType inserts a new document type. The active-type cap is enforced in
// the same statement so two concurrent creates cannot both slip under it;
// sql.ErrNoRows reports a full cap.
func (r *DocumentRepository) CreateType(ctx context.Context, docType *models.DocumentType) error {
	if docType.ID == "" {
		docType.ID = uuid.NewString()
	}
	if docType.CreatedAt.IsZero() {
		docType.CreatedAt = time.Now().UTC()
	}
	docType.Active = true
	query := fmt.Sprintf(`INSERT INTO document_types
	(id, name, required, accepted_formats, max_size_bytes, rank, active, created_at)
	SELECT :id, :name, :required, :accepted_formats, :max_size_bytes, :rank, :active, :created_at
	WHERE (SELECT COUNT(*) FROM document_types WHERE active = TRUE) < %d`, models.MaxActiveDocumentTypes)
	result, err := r.db.NamedExecContext(ctx, query, docType)
	if err != nil {
		return fmt.Errorf("create document type: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check create rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeactivateType retires a document type without deleting history.
func (r *DocumentRepository) DeactivateType(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE document_types SET active = FALSE WHERE id = $1 AND active = TRUE`, id)
	if err != nil {
		return fmt.Errorf("deactivate document type: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deactivate rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindType fetches one document type by id.
func (r *DocumentRepository) FindType(ctx context.Context, id string) (*models.DocumentType, error) {
	query := fmt.Sprintf(`SELECT %s FROM document_types WHERE id = $1`, documentTypeColumns)
	var docType models.DocumentType
	if err := r.db.GetContext(ctx, &docType, query, id); err != nil {
		return nil, err
	}
	return &docType, nil
}

// FindDocument fetches one candidate document by id.
func (r *DocumentRepository) FindDocument(ctx context.Context, id string) (*models.CandidateDocument, error) {
	query := fmt.Sprintf(`SELECT %s FROM candidate_documents WHERE id = $1`, candidateDocumentColumns)
	var doc models.CandidateDocument
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByCandidate returns the current document per type for a candidate.
func (r *DocumentRepository) ListByCandidate(ctx context.Context, candidateID int64) ([]models.CandidateDocument, error) {
	query := fmt.Sprintf(`SELECT %s FROM candidate_documents WHERE candidate_id = $1`, candidateDocumentColumns)
	var docs []models.CandidateDocument
	if err := r.db.SelectContext(ctx, &docs, query, candidateID); err != nil {
		return nil, fmt.Errorf("list candidate documents: %w", err)
	}
	return docs, nil
}

// Upsert registers an upload for a (candidate, type) pair. A re-upload after
// rejection replaces the prior record with a fresh pending one.
func (r *DocumentRepository) Upsert(ctx context.Context, doc *models.CandidateDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	doc.Status = models.DocumentStatusPending
	const query = `INSERT INTO candidate_documents
	(id, candidate_id, document_type_id, file_path, status, observation, reviewed_at, uploaded_at)
	VALUES (:id, :candidate_id, :document_type_id, :file_path, :status, NULL, NULL, :uploaded_at)
	ON CONFLICT (candidate_id, document_type_id) DO UPDATE
	SET file_path = EXCLUDED.file_path, status = EXCLUDED.status,
	    observation = NULL, reviewed_at = NULL, uploaded_at = EXCLUDED.uploaded_at`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("upsert candidate document: %w", err)
	}
	return nil
}

// ReviewParams groups the columns written by one document review.
type ReviewParams struct {
	ID          string
	Status      models.DocumentStatus
	Observation *string
	ReviewedAt  time.Time
}

// UpdateReview persists a review decision, guarded against concurrent
// reviewers: only a pending document can be decided.
func (r *DocumentRepository) UpdateReview(ctx context.Context, params ReviewParams) error {
	query := fmt.Sprintf(`UPDATE candidate_documents
	SET status = :status, observation = :observation, reviewed_at = :reviewed_at
	WHERE id = :id AND status = '%s'`, models.DocumentStatusPending)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          params.ID,
		"status":      params.Status,
		"observation": params.Observation,
		"reviewed_at": params.ReviewedAt,
	})
	if err != nil {
		return fmt.Errorf("update document review: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check document review rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

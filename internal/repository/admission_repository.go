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

// AdmissionRepository persists ERP-bound admission records.
type AdmissionRepository struct {
	db *sqlx.DB
}

// NewAdmissionRepository constructs the repository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

const admissionColumns = `id, candidate_id, process_id, position, department, start_date, finalized, sent_at, created_at`

// Create inserts a new admission record.
func (r *AdmissionRepository) Create(ctx context.Context, record *models.AdmissionRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO admission_records
	(id, candidate_id, process_id, position, department, start_date, finalized, sent_at, created_at)
	VALUES (:id, :candidate_id, :process_id, :position, :department, :start_date, :finalized, :sent_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create admission record: %w", err)
	}
	return nil
}

// FindByID fetches one admission record.
func (r *AdmissionRepository) FindByID(ctx context.Context, id string) (*models.AdmissionRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM admission_records WHERE id = $1`, admissionColumns)
	var record models.AdmissionRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByCandidate fetches the admission record for a candidate, if any.
func (r *AdmissionRepository) FindByCandidate(ctx context.Context, candidateID int64) (*models.AdmissionRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM admission_records WHERE candidate_id = $1`, admissionColumns)
	var record models.AdmissionRecord
	if err := r.db.GetContext(ctx, &record, query, candidateID); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListFinalized returns finalized records for roster exports.
func (r *AdmissionRepository) ListFinalized(ctx context.Context) ([]models.AdmissionRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM admission_records WHERE finalized = TRUE ORDER BY created_at ASC`, admissionColumns)
	var records []models.AdmissionRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list finalized admissions: %w", err)
	}
	return records, nil
}

// MarkFinalized flips the finalized flag exactly once. A record already
// finalized yields sql.ErrNoRows so callers can treat the replay as a no-op.
func (r *AdmissionRepository) MarkFinalized(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE admission_records SET finalized = TRUE WHERE id = $1 AND finalized = FALSE`, id)
	if err != nil {
		return fmt.Errorf("finalize admission record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check finalize rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkSent stamps the ERP dispatch time.
func (r *AdmissionRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE admission_records SET sent_at = $2 WHERE id = $1 AND sent_at IS NULL`, id, sentAt); err != nil {
		return fmt.Errorf("mark admission sent: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/talentio/admission-api/internal/models"
)

// ProfileRepository persists candidate profiles and their review state.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, full_name, email, status, observations, pending_sections, reviewed_at, created_at, updated_at`

// FindByID fetches a candidate profile.
func (r *ProfileRepository) FindByID(ctx context.Context, id int64) (*models.CandidateProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM candidate_profiles WHERE id = $1`, profileColumns)
	var profile models.CandidateProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// List returns candidate profiles matching the filter with a total count.
func (r *ProfileRepository) List(ctx context.Context, filter models.CandidateFilter) ([]models.CandidateProfile, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM candidate_profiles"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count candidate profiles: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM candidate_profiles%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		profileColumns, clause, size, offset)

	var profiles []models.CandidateProfile
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list candidate profiles: %w", err)
	}
	return profiles, total, nil
}

// UpdateReviewStateParams groups the columns written by one review transition.
// Payload, pending set, and status move together or not at all.
type UpdateReviewStateParams struct {
	ID              int64
	Status          models.ProfileStatus
	Observations    *string
	PendingSections []string
	ReviewedAt      time.Time
	ExpectStatuses  []models.ProfileStatus
}

// UpdateReviewState writes a review transition in a single statement, guarded
// by the expected current statuses. Zero rows affected means the profile
// moved underneath the caller.
func (r *ProfileRepository) UpdateReviewState(ctx context.Context, params UpdateReviewStateParams) error {
	args := []interface{}{
		params.Status,
		params.Observations,
		pq.Array(params.PendingSections),
		params.ReviewedAt,
		params.ID,
	}
	query := `UPDATE candidate_profiles
	SET status = $1, observations = $2, pending_sections = $3, reviewed_at = $4, updated_at = NOW()
	WHERE id = $5`
	if len(params.ExpectStatuses) > 0 {
		placeholders := make([]string, len(params.ExpectStatuses))
		for i, status := range params.ExpectStatuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ","))
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update review state: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check review state rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus moves only the status column, guarded by the expected current
// statuses. Review payload columns are untouched.
func (r *ProfileRepository) UpdateStatus(ctx context.Context, id int64, to models.ProfileStatus, expect ...models.ProfileStatus) error {
	args := []interface{}{to, id}
	query := `UPDATE candidate_profiles SET status = $1, updated_at = NOW() WHERE id = $2`
	if len(expect) > 0 {
		placeholders := make([]string, len(expect))
		for i, status := range expect {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ","))
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update profile status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check profile status rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RemovePendingSection drops one section key from the pending set and, when
// that empties the set, promotes the profile to AWAITING_REVIEW in the same
// statement. The canonical rule lives here, not in the display layer.
func (r *ProfileRepository) RemovePendingSection(ctx context.Context, id int64, sectionKey string) (*models.CandidateProfile, error) {
	query := fmt.Sprintf(`UPDATE candidate_profiles
	SET pending_sections = array_remove(pending_sections, $2),
	    status = CASE WHEN array_remove(pending_sections, $2) = '{}' THEN '%s' ELSE status END,
	    updated_at = NOW()
	WHERE id = $1 AND status = '%s'
	RETURNING %s`,
		models.ProfileStatusAwaitingReview,
		models.ProfileStatusChangesRequested,
		profileColumns,
	)
	var profile models.CandidateProfile
	if err := r.db.GetContext(ctx, &profile, query, id, sectionKey); err != nil {
		return nil, err
	}
	return &profile, nil
}

package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/talentio/admission-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func profileRows(status models.ProfileStatus, observations string, pending string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "full_name", "email", "status", "observations", "pending_sections", "reviewed_at", "created_at", "updated_at"}).
		AddRow(int64(7), "Maria Souza", "maria@example.com", string(status), observations, pending, nil, time.Now(), time.Now())
}

func TestProfileRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, email, status")).
		WithArgs(int64(7)).
		WillReturnRows(profileRows(models.ProfileStatusChangesRequested, "[Idiomas]\nAdd English", "{languages}"))

	profile, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, int64(7), profile.ID)
	require.Equal(t, models.ProfileStatusChangesRequested, profile.Status)
	require.Equal(t, []string{"languages"}, []string(profile.PendingSections))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryUpdateReviewState(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE candidate_profiles")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	observations := "[Dados Pessoais]\nFix phone"
	err := repo.UpdateReviewState(context.Background(), UpdateReviewStateParams{
		ID:              7,
		Status:          models.ProfileStatusChangesRequested,
		Observations:    &observations,
		PendingSections: []string{"personal_data"},
		ReviewedAt:      time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryUpdateReviewStateConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE candidate_profiles")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateReviewState(context.Background(), UpdateReviewStateParams{
		ID:             7,
		Status:         models.ProfileStatusApproved,
		ReviewedAt:     time.Now().UTC(),
		ExpectStatuses: []models.ProfileStatus{models.ProfileStatusAwaitingReview},
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestProfileRepositoryRemovePendingSection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE candidate_profiles")).
		WithArgs(int64(7), "languages").
		WillReturnRows(profileRows(models.ProfileStatusChangesRequested, "[Dados Pessoais]\nFix phone\n[Idiomas]\nAdd English", "{personal_data}"))

	profile, err := repo.RemovePendingSection(context.Background(), 7, "languages")
	require.NoError(t, err)
	require.Equal(t, []string{"personal_data"}, []string(profile.PendingSections))
	require.Equal(t, models.ProfileStatusChangesRequested, profile.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

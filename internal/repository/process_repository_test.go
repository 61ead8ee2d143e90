package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/talentio/admission-api/internal/models"
)

func TestProcessRepositoryCreateProcessTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProcessRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO selection_processes")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO process_stages")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO process_stages")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	process := &models.SelectionProcess{Name: "Backend 2026"}
	stages := []models.ProcessStage{
		{Rank: 1, Name: "Screening"},
		{Rank: 2, Name: "Technical", Eliminatory: true},
	}
	err := repo.CreateProcess(context.Background(), process, stages, nil)
	require.NoError(t, err)
	require.NotEmpty(t, process.ID)
	require.Equal(t, models.ProcessStatusDraft, process.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRepositoryUpdateProgressGuard(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProcessRepository(db)
	stage := "stage-1"
	next := "stage-2"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE candidate_processes")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	err := repo.UpdateProgress(context.Background(), ProgressParams{
		ID:             "cp-1",
		Status:         models.CandidateProcessStatusInProgress,
		CurrentStageID: &next,
		ExpectStageID:  &stage,
		ExpectStatus:   models.CandidateProcessStatusInProgress,
	})
	require.NoError(t, err)

	// Guard: a concurrent transition already moved the current stage.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE candidate_processes")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.UpdateProgress(context.Background(), ProgressParams{
		ID:             "cp-1",
		Status:         models.CandidateProcessStatusInProgress,
		CurrentStageID: &next,
		ExpectStageID:  &stage,
		ExpectStatus:   models.CandidateProcessStatusInProgress,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRepositoryRecordEvaluationAtomic(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProcessRepository(db)
	stage := "stage-1"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO candidate_stage_responses")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE candidate_processes")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	response := &models.StageResponse{
		CandidateProcessID: "cp-1",
		StageID:            stage,
		Evaluation:         models.EvaluationApproved,
		Answers:            []byte(`{"q1":"yes"}`),
	}
	err := repo.RecordEvaluation(context.Background(), response, ProgressParams{
		ID:            "cp-1",
		Status:        models.CandidateProcessStatusApproved,
		ExpectStageID: &stage,
		ExpectStatus:  models.CandidateProcessStatusInProgress,
	})
	require.NoError(t, err)
	require.NotEmpty(t, response.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRepositoryRecordEvaluationDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProcessRepository(db)
	stage := "stage-1"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO candidate_stage_responses")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	response := &models.StageResponse{
		CandidateProcessID: "cp-1",
		StageID:            stage,
		Evaluation:         models.EvaluationApproved,
		Answers:            []byte(`{}`),
	}
	err := repo.RecordEvaluation(context.Background(), response, ProgressParams{
		ID:            "cp-1",
		Status:        models.CandidateProcessStatusApproved,
		ExpectStageID: &stage,
		ExpectStatus:  models.CandidateProcessStatusInProgress,
	})
	require.ErrorIs(t, err, ErrResponseExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRepositoryListResponsesOrdered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProcessRepository(db)
	rows := sqlmock.NewRows([]string{"id", "candidate_process_id", "stage_id", "evaluation", "answers", "rating", "feedback", "evaluated_at"}).
		AddRow("r-1", "cp-1", "stage-1", "APPROVED", []byte(`{}`), nil, nil, time.Now()).
		AddRow("r-2", "cp-1", "stage-2", "REJECTED", []byte(`{}`), 4, "weak answers", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.id, r.candidate_process_id")).
		WithArgs("cp-1").
		WillReturnRows(rows)

	responses, err := repo.ListResponses(context.Background(), "cp-1")
	require.NoError(t, err)
	require.Len(t, responses, 2)
	require.Equal(t, models.EvaluationApproved, responses[0].Evaluation)
	require.Equal(t, models.EvaluationRejected, responses[1].Evaluation)
	require.NoError(t, mock.ExpectationsWereMet())
}

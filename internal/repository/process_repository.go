package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/talentio/admission-api/internal/models"
)

// ErrResponseExists signals a second evaluation of the same (candidate, stage)
// pair. Responses are append-only; the first write wins.
var ErrResponseExists = errors.New("stage response already recorded")

// ProcessRepository persists selection processes, stages, questions, and
// candidate progress.
type ProcessRepository struct {
	db *sqlx.DB
}

// NewProcessRepository constructs the repository.
func NewProcessRepository(db *sqlx.DB) *ProcessRepository {
	return &ProcessRepository{db: db}
}

const processColumns = `id, name, description, status, created_at, updated_at`
const stageColumns = `id, process_id, rank, name, description, eliminatory, created_at`
const questionColumns = `id, stage_id, rank, text, type, required, options`
const candidateProcessColumns = `id, candidate_id, process_id, status, current_stage_id, started_at, created_at, updated_at`
const responseColumns = `id, candidate_process_id, stage_id, evaluation, answers, rating, feedback, evaluated_at`

// FindProcess fetches one selection process.
func (r *ProcessRepository) FindProcess(ctx context.Context, id string) (*models.SelectionProcess, error) {
	query := fmt.Sprintf(`SELECT %s FROM selection_processes WHERE id = $1`, processColumns)
	var process models.SelectionProcess
	if err := r.db.GetContext(ctx, &process, query, id); err != nil {
		return nil, err
	}
	return &process, nil
}

// ListProcesses returns processes ordered latest first.
func (r *ProcessRepository) ListProcesses(ctx context.Context) ([]models.SelectionProcess, error) {
	query := fmt.Sprintf(`SELECT %s FROM selection_processes ORDER BY created_at DESC`, processColumns)
	var processes []models.SelectionProcess
	if err := r.db.SelectContext(ctx, &processes, query); err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	return processes, nil
}

// CreateProcess inserts a process with its stages and questions atomically.
func (r *ProcessRepository) CreateProcess(ctx context.Context, process *models.SelectionProcess, stages []models.ProcessStage, questions map[string][]models.StageQuestion) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create process: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if process.ID == "" {
		process.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if process.CreatedAt.IsZero() {
		process.CreatedAt = now
	}
	process.UpdatedAt = now
	if process.Status == "" {
		process.Status = models.ProcessStatusDraft
	}
	const processInsert = `INSERT INTO selection_processes (id, name, description, status, created_at, updated_at)
	VALUES (:id, :name, :description, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, processInsert, process); err != nil {
		return fmt.Errorf("create process: %w", err)
	}

	const stageInsert = `INSERT INTO process_stages (id, process_id, rank, name, description, eliminatory, created_at)
	VALUES (:id, :process_id, :rank, :name, :description, :eliminatory, :created_at)`
	const questionInsert = `INSERT INTO stage_questions (id, stage_id, rank, text, type, required, options)
	VALUES (:id, :stage_id, :rank, :text, :type, :required, :options)`

	for i := range stages {
		stage := &stages[i]
		if stage.ID == "" {
			stage.ID = uuid.NewString()
		}
		stage.ProcessID = process.ID
		if stage.CreatedAt.IsZero() {
			stage.CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, stageInsert, stage); err != nil {
			return fmt.Errorf("create stage %d: %w", stage.Rank, err)
		}
		for j := range questions[stage.ID] {
			question := &questions[stage.ID][j]
			if question.ID == "" {
				question.ID = uuid.NewString()
			}
			question.StageID = stage.ID
			if _, err := tx.NamedExecContext(ctx, questionInsert, question); err != nil {
				return fmt.Errorf("create question %d of stage %d: %w", question.Rank, stage.Rank, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create process: %w", err)
	}
	return nil
}

// UpdateProcessStatus moves the process lifecycle, guarded by the expected
// current status.
func (r *ProcessRepository) UpdateProcessStatus(ctx context.Context, id string, from, to models.ProcessStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE selection_processes SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return fmt.Errorf("update process status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check process status rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListStages returns a process's stages ordered by rank.
func (r *ProcessRepository) ListStages(ctx context.Context, processID string) ([]models.ProcessStage, error) {
	query := fmt.Sprintf(`SELECT %s FROM process_stages WHERE process_id = $1 ORDER BY rank ASC`, stageColumns)
	var stages []models.ProcessStage
	if err := r.db.SelectContext(ctx, &stages, query, processID); err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	return stages, nil
}

// ListQuestions returns a stage's questions ordered by rank.
func (r *ProcessRepository) ListQuestions(ctx context.Context, stageID string) ([]models.StageQuestion, error) {
	query := fmt.Sprintf(`SELECT %s FROM stage_questions WHERE stage_id = $1 ORDER BY rank ASC`, questionColumns)
	var questions []models.StageQuestion
	if err := r.db.SelectContext(ctx, &questions, query, stageID); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// FindCandidateProcess fetches one candidate-process join row.
func (r *ProcessRepository) FindCandidateProcess(ctx context.Context, id string) (*models.CandidateProcess, error) {
	query := fmt.Sprintf(`SELECT %s FROM candidate_processes WHERE id = $1`, candidateProcessColumns)
	var cp models.CandidateProcess
	if err := r.db.GetContext(ctx, &cp, query, id); err != nil {
		return nil, err
	}
	return &cp, nil
}

// FindCandidateProcessByCandidate returns the latest process join for a candidate.
func (r *ProcessRepository) FindCandidateProcessByCandidate(ctx context.Context, candidateID int64) (*models.CandidateProcess, error) {
	query := fmt.Sprintf(`SELECT %s FROM candidate_processes WHERE candidate_id = $1 ORDER BY created_at DESC LIMIT 1`, candidateProcessColumns)
	var cp models.CandidateProcess
	if err := r.db.GetContext(ctx, &cp, query, candidateID); err != nil {
		return nil, err
	}
	return &cp, nil
}

// CreateCandidateProcess enrolls a candidate into a process.
func (r *ProcessRepository) CreateCandidateProcess(ctx context.Context, cp *models.CandidateProcess) error {
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	if cp.Status == "" {
		cp.Status = models.CandidateProcessStatusPending
	}
	const query = `INSERT INTO candidate_processes
	(id, candidate_id, process_id, status, current_stage_id, started_at, created_at, updated_at)
	VALUES (:id, :candidate_id, :process_id, :status, :current_stage_id, :started_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cp); err != nil {
		if isUniqueViolation(err) {
			return ErrResponseExists
		}
		return fmt.Errorf("create candidate process: %w", err)
	}
	return nil
}

// ProgressParams groups the state transition written by one evaluation.
type ProgressParams struct {
	ID             string
	Status         models.CandidateProcessStatus
	CurrentStageID *string
	StartedAt      *time.Time
	// ExpectStageID guards against concurrent transitions: the row is only
	// updated when current_stage_id still matches (nil means "must be null").
	ExpectStageID *string
	ExpectStatus  models.CandidateProcessStatus
}

// UpdateProgress moves the candidate process, guarded by the expected current
// stage and status. Zero rows affected means a concurrent writer won.
func (r *ProcessRepository) UpdateProgress(ctx context.Context, params ProgressParams) error {
	return r.updateProgress(ctx, r.db, params)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *ProcessRepository) updateProgress(ctx context.Context, ex execer, params ProgressParams) error {
	query := `UPDATE candidate_processes
	SET status = $1, current_stage_id = $2, started_at = COALESCE($3, started_at), updated_at = NOW()
	WHERE id = $4 AND status = $5 AND current_stage_id IS NOT DISTINCT FROM $6`
	result, err := ex.ExecContext(ctx, query,
		params.Status, params.CurrentStageID, params.StartedAt,
		params.ID, params.ExpectStatus, params.ExpectStageID)
	if err != nil {
		return fmt.Errorf("update candidate process: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check candidate process rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RecordEvaluation appends the stage response and advances the candidate
// process in one transaction. Either both writes land or neither does.
func (r *ProcessRepository) RecordEvaluation(ctx context.Context, response *models.StageResponse, params ProgressParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record evaluation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	if response.EvaluatedAt.IsZero() {
		response.EvaluatedAt = time.Now().UTC()
	}
	const insert = `INSERT INTO candidate_stage_responses
	(id, candidate_process_id, stage_id, evaluation, answers, rating, feedback, evaluated_at)
	VALUES (:id, :candidate_process_id, :stage_id, :evaluation, :answers, :rating, :feedback, :evaluated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, response); err != nil {
		if isUniqueViolation(err) {
			return ErrResponseExists
		}
		return fmt.Errorf("insert stage response: %w", err)
	}

	if err := r.updateProgress(ctx, tx, params); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record evaluation: %w", err)
	}
	return nil
}

// ListResponses returns a candidate's stage responses joined with their
// stages, ordered ascending by stage rank.
func (r *ProcessRepository) ListResponses(ctx context.Context, candidateProcessID string) ([]models.StageResponse, error) {
	const query = `SELECT r.id, r.candidate_process_id, r.stage_id, r.evaluation, r.answers, r.rating, r.feedback, r.evaluated_at
	FROM candidate_stage_responses r
	JOIN process_stages s ON s.id = r.stage_id
	WHERE r.candidate_process_id = $1
	ORDER BY s.rank ASC`
	var responses []models.StageResponse
	if err := r.db.SelectContext(ctx, &responses, query, candidateProcessID); err != nil {
		return nil, fmt.Errorf("list stage responses: %w", err)
	}
	return responses, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// ProcessStatus is the lifecycle of a selection process, independent of any
// single candidate's progress.
type ProcessStatus string

const (
	ProcessStatusDraft     ProcessStatus = "DRAFT"
	ProcessStatusActive    ProcessStatus = "ACTIVE"
	ProcessStatusPaused    ProcessStatus = "PAUSED"
	ProcessStatusCompleted ProcessStatus = "COMPLETED"
	ProcessStatusCancelled ProcessStatus = "CANCELLED"
)

// QuestionType enumerates supported stage question kinds.
type QuestionType string

const (
	QuestionTypeOpenText       QuestionType = "OPEN_TEXT"
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
)

// CandidateProcessStatus tracks one candidate inside one process.
type CandidateProcessStatus string

const (
	CandidateProcessStatusPending    CandidateProcessStatus = "PENDING"
	CandidateProcessStatusInProgress CandidateProcessStatus = "IN_PROGRESS"
	CandidateProcessStatusApproved   CandidateProcessStatus = "APPROVED"
	CandidateProcessStatusRejected   CandidateProcessStatus = "REJECTED"
	CandidateProcessStatusWithdrawn  CandidateProcessStatus = "WITHDRAWN"
)

// Terminal reports whether no further automatic transition occurs.
func (s CandidateProcessStatus) Terminal() bool {
	switch s {
	case CandidateProcessStatusApproved, CandidateProcessStatusRejected, CandidateProcessStatusWithdrawn:
		return true
	}
	return false
}

// Evaluation is the reviewer outcome recorded for a stage.
type Evaluation string

const (
	EvaluationPending  Evaluation = "PENDING"
	EvaluationApproved Evaluation = "APPROVED"
	EvaluationRejected Evaluation = "REJECTED"
)

// SelectionProcess is an ordered collection of stages.
type SelectionProcess struct {
	ID          string        `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Description string        `db:"description" json:"description"`
	Status      ProcessStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// ProcessStage holds one step of a selection process. Rank is unique and
// contiguous starting at 1 within a process.
type ProcessStage struct {
	ID          string    `db:"id" json:"id"`
	ProcessID   string    `db:"process_id" json:"process_id"`
	Rank        int       `db:"rank" json:"rank"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Eliminatory bool      `db:"eliminatory" json:"eliminatory"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StageQuestion belongs to a stage; Options only applies to multiple choice.
type StageQuestion struct {
	ID       string         `db:"id" json:"id"`
	StageID  string         `db:"stage_id" json:"stage_id"`
	Rank     int            `db:"rank" json:"rank"`
	Text     string         `db:"text" json:"text"`
	Type     QuestionType   `db:"type" json:"type"`
	Required bool           `db:"required" json:"required"`
	Options  pq.StringArray `db:"options" json:"options,omitempty"`
}

// CandidateProcess joins a candidate to a selection process.
// CurrentStageID, when non-nil, references the stage awaiting evaluation; it
// is nil when not started or finished.
type CandidateProcess struct {
	ID             string                 `db:"id" json:"id"`
	CandidateID    int64                  `db:"candidate_id" json:"candidate_id"`
	ProcessID      string                 `db:"process_id" json:"process_id"`
	Status         CandidateProcessStatus `db:"status" json:"status"`
	CurrentStageID *string                `db:"current_stage_id" json:"current_stage_id,omitempty"`
	StartedAt      *time.Time             `db:"started_at" json:"started_at,omitempty"`
	CreatedAt      time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time              `db:"updated_at" json:"updated_at"`
}

// StageResponse records one evaluation of one stage for one candidate.
// Responses are append-only and immutable once written.
type StageResponse struct {
	ID                 string     `db:"id" json:"id"`
	CandidateProcessID string     `db:"candidate_process_id" json:"candidate_process_id"`
	StageID            string     `db:"stage_id" json:"stage_id"`
	Evaluation         Evaluation `db:"evaluation" json:"evaluation"`
	Answers            []byte     `db:"answers" json:"answers"`
	Rating             *int       `db:"rating" json:"rating,omitempty"`
	Feedback           *string    `db:"feedback" json:"feedback,omitempty"`
	EvaluatedAt        time.Time  `db:"evaluated_at" json:"evaluated_at"`
}

// StageHistoryEntry is the read-side projection of one stage for display,
// ordered ascending by stage rank.
type StageHistoryEntry struct {
	Stage       ProcessStage `json:"stage"`
	Evaluation  Evaluation   `json:"evaluation"`
	Rating      *int         `json:"rating,omitempty"`
	Feedback    *string      `json:"feedback,omitempty"`
	EvaluatedAt *time.Time   `json:"evaluated_at,omitempty"`
}

package dto

import "github.com/talentio/admission-api/internal/models"

// CreateProcessRequest builds a selection process with its ordered stages.
type CreateProcessRequest struct {
	Name        string               `json:"name" validate:"required"`
	Description string               `json:"description"`
	Stages      []CreateStageRequest `json:"stages" validate:"required,min=1,dive"`
}

// CreateStageRequest is one stage definition; ranks must be contiguous from 1.
type CreateStageRequest struct {
	Rank        int                     `json:"rank" validate:"required,gte=1"`
	Name        string                  `json:"name" validate:"required"`
	Description string                  `json:"description"`
	Eliminatory bool                    `json:"eliminatory"`
	Questions   []CreateQuestionRequest `json:"questions" validate:"dive"`
}

// CreateQuestionRequest is one question of a stage.
type CreateQuestionRequest struct {
	Text     string              `json:"text" validate:"required"`
	Type     models.QuestionType `json:"type" validate:"required"`
	Required bool                `json:"required"`
	Options  []string            `json:"options"`
}

// UpdateProcessStatusRequest moves the process lifecycle.
type UpdateProcessStatusRequest struct {
	Status models.ProcessStatus `json:"status" validate:"required"`
}

// AddCandidateRequest enrolls a candidate into a process.
type AddCandidateRequest struct {
	CandidateID int64 `json:"candidate_id" validate:"required"`
}

// ProcessDetail is a process with its stages and questions.
type ProcessDetail struct {
	Process models.SelectionProcess `json:"process"`
	Stages  []StageDetail           `json:"stages"`
}

// StageDetail pairs a stage with its ordered questions.
type StageDetail struct {
	Stage     models.ProcessStage    `json:"stage"`
	Questions []models.StageQuestion `json:"questions"`
}

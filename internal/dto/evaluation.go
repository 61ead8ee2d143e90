package dto

import "github.com/talentio/admission-api/internal/models"

// SubmitEvaluationRequest records the outcome of the current stage. Answers
// are keyed by question id; every required question needs a non-blank answer.
type SubmitEvaluationRequest struct {
	Evaluation models.Evaluation `json:"evaluation" validate:"required"`
	Answers    map[string]string `json:"answers"`
	Rating     *int              `json:"rating"`
	Feedback   string            `json:"feedback"`
}

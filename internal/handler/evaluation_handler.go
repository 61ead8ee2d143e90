package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentio/admission-api/internal/dto"
	"github.com/talentio/admission-api/internal/models"
	"github.com/talentio/admission-api/internal/service"
	appErrors "github.com/talentio/admission-api/pkg/errors"
	"github.com/talentio/admission-api/pkg/response"
)

type evaluator interface {
	SubmitStageEvaluation(ctx context.Context, candidateProcessID, evaluatorID string, req dto.SubmitEvaluationRequest) (*models.CandidateProcess, error)
}

// EvaluationHandler exposes stage evaluation endpoints. Submissions go
// through the progression facade; history reads stay on the evaluation
// service directly.
type EvaluationHandler struct {
	evaluations *service.EvaluationService
	evaluator   evaluator
}

// NewEvaluationHandler constructs EvaluationHandler.
func NewEvaluationHandler(evaluations *service.EvaluationService, ev evaluator) *EvaluationHandler {
	return &EvaluationHandler{evaluations: evaluations, evaluator: ev}
}

// Evaluate godoc
// @Summary Record the outcome of the candidate's current stage
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param id path string true "Candidate process ID"
// @Param payload body dto.SubmitEvaluationRequest true "Evaluation payload"
// @Success 200 {object} response.Envelope
// @Router /candidate-processes/{id}/evaluate [post]
func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	var req dto.SubmitEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cp, err := h.evaluator.SubmitStageEvaluation(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cp, nil)
}

// History godoc
// @Summary Get the per-stage evaluation history for a candidate process
// @Tags Evaluations
// @Produce json
// @Param id path string true "Candidate process ID"
// @Success 200 {object} response.Envelope
// @Router /candidate-processes/{id}/history [get]
func (h *EvaluationHandler) History(c *gin.Context) {
	history, err := h.evaluations.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

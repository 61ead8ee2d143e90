package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentio/admission-api/internal/dto"
	"github.com/talentio/admission-api/internal/service"
	appErrors "github.com/talentio/admission-api/pkg/errors"
	"github.com/talentio/admission-api/pkg/response"
)

// ProcessHandler exposes selection process endpoints.
type ProcessHandler struct {
	processes *service.ProcessService
}

// NewProcessHandler constructs ProcessHandler.
func NewProcessHandler(processes *service.ProcessService) *ProcessHandler {
	return &ProcessHandler{processes: processes}
}

// Create godoc
// @Summary Create a selection process with its stages
// @Tags Processes
// @Accept json
// @Produce json
// @Param payload body dto.CreateProcessRequest true "Process payload"
// @Success 201 {object} response.Envelope
// @Router /processes [post]
func (h *ProcessHandler) Create(c *gin.Context) {
	var req dto.CreateProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.processes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// List godoc
// @Summary List selection processes
// @Tags Processes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /processes [get]
func (h *ProcessHandler) List(c *gin.Context) {
	processes, err := h.processes.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, processes, nil)
}

// Get godoc
// @Summary Get a selection process with ordered stages and questions
// @Tags Processes
// @Produce json
// @Param id path string true "Process ID"
// @Success 200 {object} response.Envelope
// @Router /processes/{id} [get]
func (h *ProcessHandler) Get(c *gin.Context) {
	detail, err := h.processes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// UpdateStatus godoc
// @Summary Transition a selection process through its lifecycle
// @Tags Processes
// @Accept json
// @Produce json
// @Param id path string true "Process ID"
// @Param payload body dto.UpdateProcessStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Router /processes/{id}/status [patch]
func (h *ProcessHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateProcessStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	process, err := h.processes.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, process, nil)
}

// AddCandidate godoc
// @Summary Enroll an approved candidate in a process
// @Tags Processes
// @Accept json
// @Produce json
// @Param id path string true "Process ID"
// @Param payload body dto.AddCandidateRequest true "Candidate payload"
// @Success 201 {object} response.Envelope
// @Router /processes/{id}/candidates [post]
func (h *ProcessHandler) AddCandidate(c *gin.Context) {
	var req dto.AddCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cp, err := h.processes.AddCandidate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cp)
}

// Start godoc
// @Summary Start a candidate's journey at the first stage
// @Tags Processes
// @Produce json
// @Param id path string true "Candidate process ID"
// @Success 200 {object} response.Envelope
// @Router /candidate-processes/{id}/start [post]
func (h *ProcessHandler) Start(c *gin.Context) {
	cp, err := h.processes.Start(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cp, nil)
}

// Withdraw godoc
// @Summary Withdraw a candidate from a process
// @Tags Processes
// @Produce json
// @Param id path string true "Candidate process ID"
// @Success 200 {object} response.Envelope
// @Router /candidate-processes/{id}/withdraw [post]
func (h *ProcessHandler) Withdraw(c *gin.Context) {
	cp, err := h.processes.Withdraw(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cp, nil)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentio/admission-api/internal/dto"
	"github.com/talentio/admission-api/internal/service"
	appErrors "github.com/talentio/admission-api/pkg/errors"
	"github.com/talentio/admission-api/pkg/response"
)

// AdmissionHandler exposes admission record and roster export endpoints.
type AdmissionHandler struct {
	admissions *service.AdmissionService
	exports    *service.ExportService
}

// NewAdmissionHandler constructs AdmissionHandler.
func NewAdmissionHandler(admissions *service.AdmissionService, exports *service.ExportService) *AdmissionHandler {
	return &AdmissionHandler{admissions: admissions, exports: exports}
}

// Create godoc
// @Summary Open an admission record for a fully approved candidate
// @Tags Admissions
// @Accept json
// @Produce json
// @Param id path int true "Candidate ID"
// @Param payload body dto.CreateAdmissionRequest true "Admission payload"
// @Success 201 {object} response.Envelope
// @Router /candidates/{id}/admission [post]
func (h *AdmissionHandler) Create(c *gin.Context) {
	candidateID, err := candidateIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.admissions.Create(c.Request.Context(), candidateID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Get godoc
// @Summary Get an admission record
// @Tags Admissions
// @Produce json
// @Param id path string true "Admission record ID"
// @Success 200 {object} response.Envelope
// @Router /admissions/{id} [get]
func (h *AdmissionHandler) Get(c *gin.Context) {
	record, err := h.admissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Finalize godoc
// @Summary Finalize an admission and queue the ERP dispatch
// @Tags Admissions
// @Produce json
// @Param id path string true "Admission record ID"
// @Success 200 {object} response.Envelope
// @Router /admissions/{id}/finalize [post]
func (h *AdmissionHandler) Finalize(c *gin.Context) {
	record, err := h.admissions.Finalize(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Resend godoc
// @Summary Resend a finalized admission to the ERP collaborator
// @Tags Admissions
// @Produce json
// @Param id path string true "Admission record ID"
// @Success 204
// @Router /admissions/{id}/resend [post]
func (h *AdmissionHandler) Resend(c *gin.Context) {
	if err := h.admissions.Dispatch(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListFinalized godoc
// @Summary List finalized admission records
// @Tags Admissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admissions [get]
func (h *AdmissionHandler) ListFinalized(c *gin.Context) {
	records, err := h.admissions.ListFinalized(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ExportRoster godoc
// @Summary Export the admitted roster as CSV or PDF
// @Tags Admissions
// @Accept json
// @Produce json
// @Param payload body dto.ExportRosterRequest true "Export format"
// @Success 200 {object} response.Envelope
// @Router /admissions/export [post]
func (h *AdmissionHandler) ExportRoster(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.ExportRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.exports.Roster(c.Request.Context(), req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

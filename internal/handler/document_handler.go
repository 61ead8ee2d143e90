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

type documentReviewer interface {
	ReviewDocument(ctx context.Context, documentID, reviewerID string, req dto.ReviewDocumentRequest) (*models.CandidateDocument, error)
}

// DocumentHandler exposes document type and candidate document endpoints.
// Review decisions go through the progression facade so downstream state
// stays in sync with the candidate's overall track.
type DocumentHandler struct {
	documents *service.DocumentService
	reviewer  documentReviewer
}

// NewDocumentHandler constructs DocumentHandler.
func NewDocumentHandler(documents *service.DocumentService, reviewer documentReviewer) *DocumentHandler {
	return &DocumentHandler{documents: documents, reviewer: reviewer}
}

// ListTypes godoc
// @Summary List active document types
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /document-types [get]
func (h *DocumentHandler) ListTypes(c *gin.Context) {
	types, err := h.documents.ListTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// CreateType godoc
// @Summary Create a document type
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body dto.CreateDocumentTypeRequest true "Document type payload"
// @Success 201 {object} response.Envelope
// @Router /document-types [post]
func (h *DocumentHandler) CreateType(c *gin.Context) {
	var req dto.CreateDocumentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	docType, err := h.documents.CreateType(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, docType)
}

// DeactivateType godoc
// @Summary Deactivate a document type
// @Tags Documents
// @Produce json
// @Param id path string true "Document type ID"
// @Success 204
// @Router /document-types/{id} [delete]
func (h *DocumentHandler) DeactivateType(c *gin.Context) {
	if err := h.documents.DeactivateType(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Upload godoc
// @Summary Register an uploaded document for a candidate
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path int true "Candidate ID"
// @Param payload body dto.UploadDocumentRequest true "Upload payload"
// @Success 201 {object} response.Envelope
// @Router /candidates/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	candidateID, err := candidateIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	doc, err := h.documents.Upload(c.Request.Context(), candidateID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Review godoc
// @Summary Review a candidate document
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.ReviewDocumentRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/review [post]
func (h *DocumentHandler) Review(c *gin.Context) {
	var req dto.ReviewDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	doc, err := h.reviewer.ReviewDocument(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Summary godoc
// @Summary Get the document summary for a candidate
// @Tags Documents
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {object} response.Envelope
// @Router /candidates/{id}/documents/summary [get]
func (h *DocumentHandler) Summary(c *gin.Context) {
	candidateID, err := candidateIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.documents.Summary(c.Request.Context(), candidateID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// CohortQueue godoc
// @Summary List candidates in a document completion cohort
// @Tags Documents
// @Produce json
// @Param cohort path string true "Cohort" Enums(PENDING_REVIEW, AWAITING_SUBMISSION, COMPLETED)
// @Success 200 {object} response.Envelope
// @Router /document-cohorts/{cohort} [get]
func (h *DocumentHandler) CohortQueue(c *gin.Context) {
	entries, err := h.documents.CohortQueue(c.Request.Context(), models.DocumentCohort(c.Param("cohort")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// DownloadURL godoc
// @Summary Generate a time-limited download link for a document
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/download-url [get]
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	url, expiresAt, err := h.documents.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"url": url, "expires_at": expiresAt}, nil)
}

package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/talentio/admission-api/internal/dto"
	"github.com/talentio/admission-api/internal/models"
	appErrors "github.com/talentio/admission-api/pkg/errors"
	"github.com/talentio/admission-api/pkg/response"
)

type reviewService interface {
	Get(ctx context.Context, candidateID int64) (*models.CandidateProfile, error)
	List(ctx context.Context, filter models.CandidateFilter) ([]models.CandidateProfile, *models.Pagination, error)
	RequestProfileChanges(ctx context.Context, candidateID int64, adminID string, req dto.RequestChangesRequest) (*models.CandidateProfile, error)
	CandidateEditsSection(ctx context.Context, candidateID int64, sectionKey string) (*models.CandidateProfile, error)
	ApproveProfile(ctx context.Context, candidateID int64, adminID string) (*models.CandidateProfile, error)
	RejectProfile(ctx context.Context, candidateID int64, adminID string) (*models.CandidateProfile, error)
	Progress(ctx context.Context, candidateID int64) ([]dto.SectionStateView, *dto.ReviewProgress, error)
}

// ReviewHandler exposes candidate profile review endpoints.
type ReviewHandler struct {
	reviews reviewService
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(reviews reviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// List godoc
// @Summary List candidate profiles
// @Tags Reviews
// @Produce json
// @Param status query string false "Filter by profile status"
// @Param search query string false "Search by name or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /candidates [get]
func (h *ReviewHandler) List(c *gin.Context) {
	var filter models.CandidateFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if status := c.Query("status"); status != "" {
		s := models.ProfileStatus(status)
		filter.Status = &s
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	profiles, pagination, err := h.reviews.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profiles, pagination)
}

// Get godoc
// @Summary Get candidate profile
// @Tags Reviews
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {object} response.Envelope
// @Router /candidates/{id} [get]
func (h *ReviewHandler) Get(c *gin.Context) {
	candidateID, err := candidateIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	profile, err := h.reviews.Get(c.Request.Context(), candidateID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// RequestChanges godoc
// @Summary Request profile changes on specific sections
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path int true "Candidate ID"
// @Param payload body dto.RequestChangesRequest true "Section notes"
// @Success 200 {object} response.Envelope
// @Router /candidates/{id}/request-changes [post]
func (h *ReviewHandler) RequestChanges(c *gin.Context) {
	candidateID, err := candidateIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RequestChangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	profile, err := h.reviews.RequestProfileChanges(c.Request.Context(), candidateID, currentUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// ResolveSection godoc
// @Summary Mark a flagged section as edited by the candidate
// @Tags Reviews
// @Produce json
// @Param id path int true "Candidate ID"
// @Param key path string true "Section key"
// @Success 200 {object} response.Envelope
// @Router /candidates/{id}/sections/{key}/resolve [post]
func (h *ReviewHandler) ResolveSection(c *gin.Context) {
	candidateID, err := candidateIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	profile, err := h.reviews.CandidateEditsSection(c.Request.Context(), candidateID, c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Approve godoc
// @Summary Approve a candidate profile
// @Tags Reviews
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {object} response.Envelope
// @Router /candidates/{id}/approve [post]
func (h *ReviewHandler) Approve(c *gin.Context) {
	candidateID, err := candidateIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	profile, err := h.reviews.ApproveProfile(c.Request.Context(), candidateID, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Reject godoc
// @Summary Reject a candidate profile
// @Tags Reviews
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {object} response.Envelope
// @Router /candidates/{id}/reject [post]
func (h *ReviewHandler) Reject(c *gin.Context) {
	candidateID, err := candidateIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	profile, err := h.reviews.RejectProfile(c.Request.Context(), candidateID, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Progress godoc
// @Summary Get section resolution progress for a candidate
// @Tags Reviews
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {object} response.Envelope
// @Router /candidates/{id}/review-progress [get]
func (h *ReviewHandler) Progress(c *gin.Context) {
	candidateID, err := candidateIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	sections, progress, err := h.reviews.Progress(c.Request.Context(), candidateID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"sections": sections, "progress": progress}, nil)
}

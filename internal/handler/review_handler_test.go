package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentio/admission-api/internal/dto"
	"github.com/talentio/admission-api/internal/middleware"
	"github.com/talentio/admission-api/internal/models"
	appErrors "github.com/talentio/admission-api/pkg/errors"
)

type reviewServiceMock struct {
	profile        *models.CandidateProfile
	listResp       []models.CandidateProfile
	err            error
	lastFilter     models.CandidateFilter
	lastAdminID    string
	lastSectionKey string
	lastSections   map[string]string
}

func (m *reviewServiceMock) Get(ctx context.Context, candidateID int64) (*models.CandidateProfile, error) {
	return m.profile, m.err
}

func (m *reviewServiceMock) List(ctx context.Context, filter models.CandidateFilter) ([]models.CandidateProfile, *models.Pagination, error) {
	m.lastFilter = filter
	return m.listResp, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(m.listResp)}, m.err
}

func (m *reviewServiceMock) RequestProfileChanges(ctx context.Context, candidateID int64, adminID string, req dto.RequestChangesRequest) (*models.CandidateProfile, error) {
	m.lastAdminID = adminID
	m.lastSections = req.Sections
	return m.profile, m.err
}

func (m *reviewServiceMock) CandidateEditsSection(ctx context.Context, candidateID int64, key string) (*models.CandidateProfile, error) {
	m.lastSectionKey = key
	return m.profile, m.err
}

func (m *reviewServiceMock) ApproveProfile(ctx context.Context, candidateID int64, adminID string) (*models.CandidateProfile, error) {
	m.lastAdminID = adminID
	return m.profile, m.err
}

func (m *reviewServiceMock) RejectProfile(ctx context.Context, candidateID int64, adminID string) (*models.CandidateProfile, error) {
	m.lastAdminID = adminID
	return m.profile, m.err
}

func (m *reviewServiceMock) Progress(ctx context.Context, candidateID int64) ([]dto.SectionStateView, *dto.ReviewProgress, error) {
	return []dto.SectionStateView{{Key: "languages", Resolution: "OUTSTANDING"}}, &dto.ReviewProgress{Resolved: 0, Total: 1}, m.err
}

func testContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Buffer
	if body != nil {
		reader = bytes.NewBuffer(body)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	return c, w
}

func TestReviewHandlerListParsesFilter(t *testing.T) {
	mockSvc := &reviewServiceMock{listResp: []models.CandidateProfile{{ID: 7, FullName: "Ana"}}}
	handler := NewReviewHandler(mockSvc)

	c, w := testContext(t, http.MethodGet, "/candidates?status=CHANGES_REQUESTED&search=ana&page=2&limit=10", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastFilter.Status)
	assert.Equal(t, models.ProfileStatusChangesRequested, *mockSvc.lastFilter.Status)
	assert.Equal(t, "ana", mockSvc.lastFilter.Search)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 10, mockSvc.lastFilter.PageSize)
}

func TestReviewHandlerGetInvalidID(t *testing.T) {
	handler := NewReviewHandler(&reviewServiceMock{})

	c, w := testContext(t, http.MethodGet, "/candidates/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	handler.Get(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandlerRequestChanges(t *testing.T) {
	mockSvc := &reviewServiceMock{profile: &models.CandidateProfile{ID: 7, Status: models.ProfileStatusChangesRequested}}
	handler := NewReviewHandler(mockSvc)

	body, _ := json.Marshal(dto.RequestChangesRequest{Sections: map[string]string{"languages": "Add English"}})
	c, w := testContext(t, http.MethodPost, "/candidates/7/request-changes", body)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	handler.RequestChanges(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-1", mockSvc.lastAdminID)
	assert.Equal(t, map[string]string{"languages": "Add English"}, mockSvc.lastSections)
}

func TestReviewHandlerRequestChangesInvalidBody(t *testing.T) {
	handler := NewReviewHandler(&reviewServiceMock{})

	c, w := testContext(t, http.MethodPost, "/candidates/7/request-changes", []byte(`{"sections":`))
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	handler.RequestChanges(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandlerResolveSection(t *testing.T) {
	mockSvc := &reviewServiceMock{profile: &models.CandidateProfile{ID: 7}}
	handler := NewReviewHandler(mockSvc)

	c, w := testContext(t, http.MethodPost, "/candidates/7/sections/languages/resolve", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}, {Key: "key", Value: "languages"}}
	handler.ResolveSection(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "languages", mockSvc.lastSectionKey)
}

func TestReviewHandlerApproveServiceError(t *testing.T) {
	mockSvc := &reviewServiceMock{err: appErrors.Clone(appErrors.ErrInvalidState, "review already closed")}
	handler := NewReviewHandler(mockSvc)

	c, w := testContext(t, http.MethodPost, "/candidates/7/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	handler.Approve(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrInvalidState.Code, envelope.Error.Code)
}

func TestReviewHandlerProgress(t *testing.T) {
	handler := NewReviewHandler(&reviewServiceMock{})

	c, w := testContext(t, http.MethodGet, "/candidates/7/review-progress", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	handler.Progress(c)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Sections []dto.SectionStateView `json:"sections"`
			Progress dto.ReviewProgress     `json:"progress"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Sections, 1)
	assert.Equal(t, 1, envelope.Data.Progress.Total)
}

package dto

import "github.com/talentio/admission-api/internal/models"

// CreateDocumentTypeRequest defines a new document requirement.
type CreateDocumentTypeRequest struct {
	Name            string   `json:"name" validate:"required"`
	Required        bool     `json:"required"`
	AcceptedFormats []string `json:"accepted_formats"`
	MaxSizeBytes    int64    `json:"max_size_bytes" validate:"omitempty,gt=0"`
	Rank            int      `json:"rank" validate:"omitempty,gte=0"`
}

// ReviewDocumentRequest records an admin decision on a candidate document.
type ReviewDocumentRequest struct {
	Decision    models.DocumentStatus `json:"decision" validate:"required"`
	Observation string                `json:"observation"`
}

// UploadDocumentRequest registers a stored file for a (candidate, type) pair.
type UploadDocumentRequest struct {
	DocumentTypeID string `json:"document_type_id" validate:"required"`
	FilePath       string `json:"file_path" validate:"required"`
}

// DocumentSummaryView is the aggregate document status for one candidate.
type DocumentSummaryView struct {
	Summary         models.DocumentSummary `json:"summary"`
	CompletionRatio float64                `json:"completion_ratio"`
	Cohort          models.DocumentCohort  `json:"cohort"`
}

// CohortEntry is one candidate row in a cohort queue listing.
type CohortEntry struct {
	CandidateID     int64                  `json:"candidate_id"`
	FullName        string                 `json:"full_name"`
	Summary         models.DocumentSummary `json:"summary"`
	CompletionRatio float64                `json:"completion_ratio"`
}

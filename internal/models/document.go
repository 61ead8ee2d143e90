package models

import (
	"time"

	"github.com/lib/pq"
)

// DocumentStatus captures the review state of a candidate document.
// NOT_SENT is the logical status of a required type with no current record.
type DocumentStatus string

const (
	DocumentStatusNotSent  DocumentStatus = "NOT_SENT"
	DocumentStatusPending  DocumentStatus = "PENDING"
	DocumentStatusApproved DocumentStatus = "APPROVED"
	DocumentStatusRejected DocumentStatus = "REJECTED"
)

// MaxActiveDocumentTypes caps the active document types per organization.
const MaxActiveDocumentTypes = 10

// DocumentType is an admin-defined requirement descriptor.
type DocumentType struct {
	ID              string         `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	Required        bool           `db:"required" json:"required"`
	AcceptedFormats pq.StringArray `db:"accepted_formats" json:"accepted_formats"`
	MaxSizeBytes    int64          `db:"max_size_bytes" json:"max_size_bytes"`
	Rank            int            `db:"rank" json:"rank"`
	Active          bool           `db:"active" json:"active"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

// CandidateDocument is the current record for one (candidate, type) pair.
// A re-upload after rejection replaces this record with a fresh pending one;
// document identity for review purposes is the pair, not the raw upload.
type CandidateDocument struct {
	ID             string         `db:"id" json:"id"`
	CandidateID    int64          `db:"candidate_id" json:"candidate_id"`
	DocumentTypeID string         `db:"document_type_id" json:"document_type_id"`
	FilePath       string         `db:"file_path" json:"file_path"`
	Status         DocumentStatus `db:"status" json:"status"`
	Observation    *string        `db:"observation" json:"observation,omitempty"`
	ReviewedAt     *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	UploadedAt     time.Time      `db:"uploaded_at" json:"uploaded_at"`
}

// DocumentSummary aggregates a candidate's required-document statuses.
type DocumentSummary struct {
	Required int `json:"required"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
	NotSent  int `json:"not_sent"`
}

// CompletionRatio returns approved/required, zero-safe.
func (s DocumentSummary) CompletionRatio() float64 {
	if s.Required == 0 {
		return 0
	}
	return float64(s.Approved) / float64(s.Required)
}

// DocumentCohort identifies the single admin queue a candidate belongs to.
type DocumentCohort string

const (
	// CohortNone means the candidate is not in any document queue yet.
	CohortNone DocumentCohort = ""
	// CohortAwaiting: profile approved but the candidate still has required
	// documents to supply (missing or rejected) and nothing sits with the admin.
	CohortAwaiting DocumentCohort = "AWAITING"
	// CohortPendingReview: at least one required document awaits admin review.
	CohortPendingReview DocumentCohort = "PENDING_REVIEW"
	// CohortCompleted: every required document is approved.
	CohortCompleted DocumentCohort = "COMPLETED"
)

package models

import (
	"time"

	"github.com/lib/pq"
)

// ProfileStatus represents the lifecycle of a candidate profile review.
type ProfileStatus string

// Possible profile statuses. The administrator is the sole writer; candidate
// edits never change the status directly.
const (
	ProfileStatusPending             ProfileStatus = "PENDING"
	ProfileStatusAwaitingReview      ProfileStatus = "AWAITING_REVIEW"
	ProfileStatusChangesRequested    ProfileStatus = "CHANGES_REQUESTED"
	ProfileStatusApproved            ProfileStatus = "APPROVED"
	ProfileStatusRejected            ProfileStatus = "REJECTED"
	ProfileStatusDocumentsPending    ProfileStatus = "DOCUMENTS_PENDING"
	ProfileStatusDocumentsComplete   ProfileStatus = "DOCUMENTS_COMPLETE"
	ProfileStatusAdmissionInProgress ProfileStatus = "ADMISSION_IN_PROGRESS"
	ProfileStatusAdmitted            ProfileStatus = "ADMITTED"
)

// Valid reports whether the status belongs to the closed set.
func (s ProfileStatus) Valid() bool {
	switch s {
	case ProfileStatusPending, ProfileStatusAwaitingReview, ProfileStatusChangesRequested,
		ProfileStatusApproved, ProfileStatusRejected, ProfileStatusDocumentsPending,
		ProfileStatusDocumentsComplete, ProfileStatusAdmissionInProgress, ProfileStatusAdmitted:
		return true
	}
	return false
}

// ReviewClosed reports whether the profile review track reached a decision.
func (s ProfileStatus) ReviewClosed() bool {
	switch s {
	case ProfileStatusApproved, ProfileStatusRejected, ProfileStatusDocumentsPending,
		ProfileStatusDocumentsComplete, ProfileStatusAdmissionInProgress, ProfileStatusAdmitted:
		return true
	}
	return false
}

// CandidateProfile is the profile-review track record for one candidate.
// PendingSections holds canonical section keys still awaiting candidate
// action; it is only meaningful while Status is CHANGES_REQUESTED and is
// cleared atomically when the status leaves that state.
type CandidateProfile struct {
	ID              int64          `db:"id" json:"id"`
	FullName        string         `db:"full_name" json:"full_name"`
	Email           string         `db:"email" json:"email"`
	Status          ProfileStatus  `db:"status" json:"status"`
	Observations    *string        `db:"observations" json:"observations,omitempty"`
	PendingSections pq.StringArray `db:"pending_sections" json:"pending_sections"`
	ReviewedAt      *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// CandidateFilter constrains candidate listing queries.
type CandidateFilter struct {
	Status   *ProfileStatus
	Search   string
	Page     int
	PageSize int
}

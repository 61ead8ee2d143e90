package models

import "time"

// AdmissionRecord holds the ERP-bound fields produced once a candidate has an
// approved profile, complete documents, and an approved selection process.
// Immutable once sent to the external ERP.
type AdmissionRecord struct {
	ID          string     `db:"id" json:"id"`
	CandidateID int64      `db:"candidate_id" json:"candidate_id"`
	ProcessID   string     `db:"process_id" json:"process_id"`
	Position    string     `db:"position" json:"position"`
	Department  string     `db:"department" json:"department"`
	StartDate   *time.Time `db:"start_date" json:"start_date,omitempty"`
	Finalized   bool       `db:"finalized" json:"finalized"`
	SentAt      *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

package dto

import "time"

// CreateAdmissionRequest opens an admission record for a fully approved
// candidate.
type CreateAdmissionRequest struct {
	Position   string     `json:"position" validate:"required"`
	Department string     `json:"department" validate:"required"`
	StartDate  *time.Time `json:"start_date"`
}

// ExportRosterRequest selects the output format for the admitted roster.
type ExportRosterRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

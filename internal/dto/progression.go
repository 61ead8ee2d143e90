package dto

import "github.com/talentio/admission-api/internal/models"

// CandidateOverview is the single aggregate view of where a candidate stands
// across the profile, document, and selection-process tracks. It is always
// computed from one consistent snapshot of the underlying entities.
type CandidateOverview struct {
	Profile   models.CandidateProfile `json:"profile"`
	Sections  []SectionStateView      `json:"sections"`
	Progress  ReviewProgress          `json:"progress"`
	Documents DocumentSummaryView     `json:"documents"`
	Process   *ProcessProgressView    `json:"process,omitempty"`
}

// ProcessProgressView summarises a candidate's selection process state.
type ProcessProgressView struct {
	CandidateProcessID string                        `json:"candidate_process_id"`
	ProcessName        string                        `json:"process_name"`
	Status             models.CandidateProcessStatus `json:"status"`
	CurrentStage       *models.ProcessStage          `json:"current_stage,omitempty"`
	History            []models.StageHistoryEntry    `json:"history"`
}

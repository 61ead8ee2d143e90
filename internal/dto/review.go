package dto

// RequestChangesRequest carries per-section notes for a change request.
// Keys must belong to the canonical section set.
type RequestChangesRequest struct {
	Sections map[string]string `json:"sections" validate:"required,min=1"`
}

// SectionStateView is one section of the review payload with its resolution.
type SectionStateView struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Note       string `json:"note"`
	Resolution string `json:"resolution"`
}

// ReviewProgress reports resolved/total counts over payload sections.
type ReviewProgress struct {
	Resolved int `json:"resolved"`
	Total    int `json:"total"`
}

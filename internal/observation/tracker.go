package observation

import "github.com/talentio/admission-api/internal/models"

// Resolution classifies one section of the review payload.
type Resolution string

const (
	// ResolutionAbsent means the payload carries no block for the section.
	ResolutionAbsent Resolution = "ABSENT"
	// ResolutionResolved means the candidate addressed the section.
	ResolutionResolved Resolution = "RESOLVED"
	// ResolutionOutstanding means the section still awaits candidate action.
	ResolutionOutstanding Resolution = "OUTSTANDING"
)

// SectionState pairs a section with its note and resolution for display.
type SectionState struct {
	Key        SectionKey `json:"key"`
	Label      string     `json:"label"`
	Note       string     `json:"note"`
	Resolution Resolution `json:"resolution"`
}

// Tracker computes per-section resolution from a profile's review payload,
// pending-sections set, and status. It is a pure read-side helper.
type Tracker struct {
	sections map[SectionKey]string
	pending  map[SectionKey]struct{}
	status   models.ProfileStatus
}

// NewTracker decodes the payload once and captures the pending set.
func NewTracker(payload string, pendingSections []string, status models.ProfileStatus) *Tracker {
	pending := make(map[SectionKey]struct{}, len(pendingSections))
	for _, raw := range pendingSections {
		pending[SectionKey(raw)] = struct{}{}
	}
	return &Tracker{
		sections: Decode(payload),
		pending:  pending,
		status:   status,
	}
}

// ResolutionFor reports the state of a single section. Under AWAITING_REVIEW
// every section present in the payload counts as resolved: the candidate has
// addressed the batch as a whole, and the write side clears the pending set
// in the same transition, so any leftover entries are stale.
func (t *Tracker) ResolutionFor(key SectionKey) Resolution {
	if _, ok := t.sections[key]; !ok {
		return ResolutionAbsent
	}
	if t.status == models.ProfileStatusAwaitingReview {
		return ResolutionResolved
	}
	if _, outstanding := t.pending[key]; outstanding {
		return ResolutionOutstanding
	}
	return ResolutionResolved
}

// Progress returns (resolved, total) over the sections present in the
// payload. A payload with zero blocks yields (0, 0); callers must treat that
// as "no section-level feedback exists", not full completion.
func (t *Tracker) Progress() (resolved, total int) {
	for key := range t.sections {
		total++
		if t.ResolutionFor(key) == ResolutionResolved {
			resolved++
		}
	}
	return resolved, total
}

// Sections returns the present sections in canonical order with their notes
// and resolutions. Stable output for repeatable rendering.
func (t *Tracker) Sections() []SectionState {
	states := make([]SectionState, 0, len(t.sections))
	for _, key := range Keys() {
		note, ok := t.sections[key]
		if !ok {
			continue
		}
		states = append(states, SectionState{
			Key:        key,
			Label:      labelByKey[key],
			Note:       note,
			Resolution: t.ResolutionFor(key),
		})
	}
	return states
}

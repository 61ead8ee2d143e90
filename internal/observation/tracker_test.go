package observation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talentio/admission-api/internal/models"
)

const reviewPayload = "[Dados Pessoais]\nFix phone\n[Idiomas]\nAdd English"

func TestTrackerOutstandingAndResolved(t *testing.T) {
	tracker := NewTracker(reviewPayload, []string{"personal_data", "languages"}, models.ProfileStatusChangesRequested)

	assert.Equal(t, ResolutionOutstanding, tracker.ResolutionFor(SectionPersonalData))
	assert.Equal(t, ResolutionOutstanding, tracker.ResolutionFor(SectionLanguages))
	assert.Equal(t, ResolutionAbsent, tracker.ResolutionFor(SectionSkills))

	resolved, total := tracker.Progress()
	assert.Equal(t, 0, resolved)
	assert.Equal(t, 2, total)
}

func TestTrackerPartialResolution(t *testing.T) {
	// Candidate resolved "languages" only; "personal_data" remains pending.
	tracker := NewTracker(reviewPayload, []string{"personal_data"}, models.ProfileStatusChangesRequested)

	assert.Equal(t, ResolutionOutstanding, tracker.ResolutionFor(SectionPersonalData))
	assert.Equal(t, ResolutionResolved, tracker.ResolutionFor(SectionLanguages))

	resolved, total := tracker.Progress()
	assert.Equal(t, 1, resolved)
	assert.Equal(t, 2, total)
}

func TestTrackerAwaitingReviewForcesResolved(t *testing.T) {
	// Stale pending entries must not surface once the batch is back in review.
	tracker := NewTracker(reviewPayload, []string{"personal_data", "languages"}, models.ProfileStatusAwaitingReview)

	assert.Equal(t, ResolutionResolved, tracker.ResolutionFor(SectionPersonalData))
	assert.Equal(t, ResolutionResolved, tracker.ResolutionFor(SectionLanguages))
	assert.Equal(t, ResolutionAbsent, tracker.ResolutionFor(SectionEducation))

	resolved, total := tracker.Progress()
	assert.Equal(t, 2, resolved)
	assert.Equal(t, 2, total)
}

func TestTrackerEmptyPayload(t *testing.T) {
	tracker := NewTracker("", nil, models.ProfileStatusChangesRequested)

	resolved, total := tracker.Progress()
	assert.Equal(t, 0, resolved)
	assert.Equal(t, 0, total)
	assert.Empty(t, tracker.Sections())
}

func TestTrackerSectionsCanonicalOrder(t *testing.T) {
	payload := "[Idiomas]\nAdd English\n[Dados Pessoais]\nFix phone"
	tracker := NewTracker(payload, []string{"languages"}, models.ProfileStatusChangesRequested)

	states := tracker.Sections()
	assert.Len(t, states, 2)
	assert.Equal(t, SectionPersonalData, states[0].Key)
	assert.Equal(t, ResolutionResolved, states[0].Resolution)
	assert.Equal(t, SectionLanguages, states[1].Key)
	assert.Equal(t, ResolutionOutstanding, states[1].Resolution)
}

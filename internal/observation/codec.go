// Package observation implements the labeled multi-section review payload
// shared with the legacy candidate portal, plus the per-section resolution
// tracker built on top of it. No other package may pattern-match the raw
// payload; everything goes through Encode/Decode.
package observation

import "strings"

// SectionKey is the canonical identifier for one editable profile area.
type SectionKey string

// The closed set of canonical section keys.
const (
	SectionPersonalData     SectionKey = "personal_data"
	SectionProfessionalInfo SectionKey = "professional_info"
	SectionEducation        SectionKey = "education"
	SectionExperience       SectionKey = "experience"
	SectionSkills           SectionKey = "skills"
	SectionLanguages        SectionKey = "languages"
)

// sectionOrder fixes the canonical encoding order.
var sectionOrder = []SectionKey{
	SectionPersonalData,
	SectionProfessionalInfo,
	SectionEducation,
	SectionExperience,
	SectionSkills,
	SectionLanguages,
}

// labelByKey maps canonical keys to the wire labels the portal renders.
// The mapping is bidirectional and total over the closed set.
var labelByKey = map[SectionKey]string{
	SectionPersonalData:     "Dados Pessoais",
	SectionProfessionalInfo: "Informações Profissionais",
	SectionEducation:        "Escolaridade",
	SectionExperience:       "Experiências",
	SectionSkills:           "Habilidades",
	SectionLanguages:        "Idiomas",
}

var keyByLabel = func() map[string]SectionKey {
	m := make(map[string]SectionKey, len(labelByKey))
	for key, label := range labelByKey {
		m[label] = key
	}
	return m
}()

// Keys returns the closed canonical key set in encoding order.
func Keys() []SectionKey {
	keys := make([]SectionKey, len(sectionOrder))
	copy(keys, sectionOrder)
	return keys
}

// ValidKey reports whether the key belongs to the closed set.
func ValidKey(key SectionKey) bool {
	_, ok := labelByKey[key]
	return ok
}

// Label returns the wire label for a canonical key.
func Label(key SectionKey) (string, bool) {
	label, ok := labelByKey[key]
	return label, ok
}

// Representable reports whether a note survives an Encode/Decode round trip.
// The block grammar cannot carry a bracket-prefixed line (it would read as a
// header), a leading blank line, or a trailing newline; callers must reject
// such notes before encoding.
func Representable(note string) bool {
	if note == "" {
		return true
	}
	if strings.TrimRight(note, "\n") != note {
		return false
	}
	for i, line := range strings.Split(note, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			return false
		}
		if i == 0 && trimmed == "" {
			return false
		}
	}
	return true
}

// Encode renders the sections into the wire payload. Keys outside the closed
// set are skipped. Sections are always emitted in canonical order so the
// payload is deterministic.
func Encode(sections map[SectionKey]string) string {
	var b strings.Builder
	for _, key := range sectionOrder {
		note, ok := sections[key]
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[")
		b.WriteString(labelByKey[key])
		b.WriteString("]")
		if note != "" {
			b.WriteString("\n")
			b.WriteString(note)
		}
	}
	return b.String()
}

// Decode parses the wire payload into a canonical-key mapping. Blocks may
// appear in any order and notes may be blank. Blocks with unknown labels are
// dropped silently; this is the codec's only silent-drop case.
func Decode(payload string) map[SectionKey]string {
	sections := make(map[SectionKey]string)
	if strings.TrimSpace(payload) == "" {
		return sections
	}

	var current SectionKey
	var known bool
	var note []string

	flush := func() {
		if !known {
			return
		}
		sections[current] = strings.TrimRight(strings.Join(note, "\n"), "\n")
	}

	for _, line := range strings.Split(payload, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			// Any bracket-prefixed line closes the current block.
			flush()
			known = false
			if strings.HasSuffix(trimmed, "]") && len(trimmed) > 2 {
				label := trimmed[1 : len(trimmed)-1]
				current, known = keyByLabel[label]
			}
			note = note[:0]
			continue
		}
		if known {
			if len(note) == 0 && trimmed == "" {
				continue
			}
			note = append(note, line)
		}
	}
	flush()

	return sections
}

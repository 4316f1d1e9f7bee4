package extract

import (
	"regexp"
	"strings"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	wordPattern  = regexp.MustCompile(`^[A-Za-z]+$`)
)

// LeadInfo heuristically pulls contact details out of a free-form visitor
// message. The returned delta contains only fields not already present in
// existing; populated fields are never overwritten (first-write-wins). An
// empty delta is a normal no-op, not an error.
func LeadInfo(message string, existing models.LeadInfo) models.LeadInfo {
	var delta models.LeadInfo

	emailMatch := emailPattern.FindString(message)
	if emailMatch != "" && existing.Email == "" {
		delta.Email = emailMatch
	}

	phoneMatch := phonePattern.FindString(message)
	if phoneMatch != "" && existing.Phone == "" {
		delta.Phone = phoneMatch
	}

	// Name is only attempted when the message carried no email or phone:
	// a short run of alphabetic words is likely the visitor typing their
	// name in response to a prompt.
	if existing.Name == "" && emailMatch == "" && phoneMatch == "" {
		if name := nameCandidate(message); name != "" {
			delta.Name = name
		}
	}

	lower := strings.ToLower(message)
	if existing.PreferredTime == "" {
		if strings.Contains(lower, models.TimePreferenceMorning) {
			delta.PreferredTime = models.TimePreferenceMorning
		} else if strings.Contains(lower, models.TimePreferenceAfternoon) {
			delta.PreferredTime = models.TimePreferenceAfternoon
		}
	}

	return delta
}

// nameCandidate returns the trimmed message when it looks like a bare name:
// 2-4 whitespace-separated alphabetic tokens, each longer than one letter.
func nameCandidate(message string) string {
	trimmed := strings.TrimSpace(message)
	words := strings.Fields(trimmed)
	if len(words) < 2 || len(words) > 4 {
		return ""
	}
	for _, w := range words {
		if len(w) <= 1 || !wordPattern.MatchString(w) {
			return ""
		}
	}
	return trimmed
}

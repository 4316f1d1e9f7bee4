package extract

import (
	"testing"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

func TestLeadInfoEmail(t *testing.T) {
	delta := LeadInfo("you can reach me at jane.doe@example.com thanks", models.LeadInfo{})
	if delta.Email != "jane.doe@example.com" {
		t.Errorf("email = %q", delta.Email)
	}
	if delta.Name != "" {
		t.Errorf("message with email must not be treated as a name, got %q", delta.Name)
	}
}

func TestLeadInfoPhoneVariants(t *testing.T) {
	for _, msg := range []string{
		"call me at (555) 123-4567",
		"555-123-4567 works",
		"my number is 555.123.4567",
		"5551234567",
	} {
		delta := LeadInfo(msg, models.LeadInfo{})
		if delta.Phone == "" {
			t.Errorf("no phone extracted from %q", msg)
		}
	}
}

func TestLeadInfoName(t *testing.T) {
	delta := LeadInfo("Sarah Johnson", models.LeadInfo{})
	if delta.Name != "Sarah Johnson" {
		t.Errorf("name = %q", delta.Name)
	}

	// Too short, too long, or non-alphabetic: not a name.
	for _, msg := range []string{
		"Sarah",
		"my full legal name is Sarah Beth Johnson Smith",
		"Sarah J0hnson",
		"I am 25",
	} {
		if delta := LeadInfo(msg, models.LeadInfo{}); delta.Name != "" {
			t.Errorf("%q should not match as a name, got %q", msg, delta.Name)
		}
	}
}

func TestLeadInfoTimePreference(t *testing.T) {
	delta := LeadInfo("Mornings work better for me", models.LeadInfo{})
	if delta.PreferredTime != models.TimePreferenceMorning {
		t.Errorf("preferred time = %q", delta.PreferredTime)
	}

	delta = LeadInfo("afternoon please", models.LeadInfo{})
	if delta.PreferredTime != models.TimePreferenceAfternoon {
		t.Errorf("preferred time = %q", delta.PreferredTime)
	}
}

func TestLeadInfoIdempotentOnPopulatedFields(t *testing.T) {
	existing := models.LeadInfo{Email: "first@example.com"}
	delta := LeadInfo("actually use second@example.com", existing)
	if delta.Email != "" {
		t.Errorf("populated email must not be re-captured, got %q", delta.Email)
	}

	existing.Merge(delta)
	if existing.Email != "first@example.com" {
		t.Errorf("email changed to %q", existing.Email)
	}
}

func TestLeadInfoEmptyDelta(t *testing.T) {
	delta := LeadInfo("what happens during recovery?", models.LeadInfo{})
	if delta != (models.LeadInfo{}) {
		t.Errorf("expected empty delta, got %+v", delta)
	}
}

func TestProcedure(t *testing.T) {
	cases := map[string]string{
		"I'm interested in rhinoplasty":     "rhinoplasty",
		"something about my nose shape":     "rhinoplasty",
		"tell me about facial rejuvenation": "facial-rejuvenation",
		"what's a mommy makeover?":          "mommy-makeover",
		"breast augmentation options":       "breast-surgery",
		"thinking about lipo":               "liposuction",
		"hello there":                       "",
	}
	for msg, want := range cases {
		if got := Procedure(msg); got != want {
			t.Errorf("Procedure(%q) = %q, want %q", msg, got, want)
		}
	}
}

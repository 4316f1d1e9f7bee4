package flow

import (
	"strings"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

// defaultQuickReplies maps each stage to its base suggestion set.
var defaultQuickReplies = map[models.Stage][]string{
	models.StageWelcome: {
		"I'm exploring my options",
		"Tell me about popular procedures",
		"I have a specific concern",
		"Schedule a consultation",
	},
	models.StageClassify: {
		"Show me what's possible",
		"I need more information",
		"What do you recommend?",
		"Let's discuss my goals",
	},
	models.StageEducation: {
		"Show me examples",
		"What about recovery?",
		"Tell me about costs",
		"Next steps?",
	},
	models.StageGallery: {
		"Impressive results!",
		"Tell me more",
		"I'm interested",
		"Different angles?",
	},
	models.StageQualify: {
		"I'm healthy",
		"No prior surgery",
		"Some medical history",
		"Ready to proceed",
	},
	models.StageBooking: {
		"Yes, book me",
		"Morning works",
		"Afternoon is better",
		"What's next?",
	},
	models.StageCapture: {
		"Here's my info",
		"Contact me",
		"Prefer phone",
		"Prefer email",
	},
	models.StageComplete: {
		"Thank you",
		"What's next?",
		"When will you call?",
		"New question",
	},
}

// procedureQuickReplies carries procedure-specific suggestions shown while
// educating or browsing the gallery.
var procedureQuickReplies = map[string][]string{
	"rhinoplasty":        {"Show nose job results", "Breathing improvements?", "Natural looking?"},
	"facial-rejuvenation": {"Show facelift results", "Non-surgical options?", "How long does it last?"},
	"mommy-makeover":      {"Show full transformations", "Recovery with kids?", "Staged procedures?"},
}

// InitialQuickReplies returns the suggestions shown alongside the greeting.
func InitialQuickReplies() []string {
	return []string{
		"I'm interested in rhinoplasty",
		"Tell me about facial rejuvenation",
		"What's a mommy makeover?",
		"I'd like to schedule a consultation",
	}
}

// QuickReplies generates stage-appropriate suggestions, refined by the
// assistant's last message and any known procedure interest. The result is
// read-only UI guidance and never mutates session state.
func QuickReplies(stage models.Stage, lastBotMessage, procedureType string) []string {
	msg := strings.ToLower(lastBotMessage)

	switch {
	case containsAny(msg, "what brings you", "help you explore"):
		return InitialQuickReplies()
	case containsAny(msg, "tell me more", "specific concerns"):
		return []string{
			"I want to improve my nose shape",
			"I look tired and want to appear refreshed",
			"I'd like to restore my pre-pregnancy body",
			"Can you show me some examples?",
		}
	case containsAny(msg, "photos", "results", "examples"):
		return []string{
			"Show me before and after photos",
			"What about recovery time?",
			"How much does this typically cost?",
			"Am I a good candidate?",
		}
	case containsAny(msg, "candidate", "qualify"):
		return []string{
			"I'm in good health",
			"I haven't had previous surgery",
			"I'm ready to schedule a consultation",
			"Tell me more about the process",
		}
	case containsAny(msg, "schedule", "consultation", "appointment"):
		return []string{
			"Yes, I'd like to schedule",
			"What times are available?",
			"I prefer mornings",
			"Tell me what to expect",
		}
	case strings.Contains(msg, "name") && !strings.Contains(msg, "procedure"):
		return []string{"John Smith", "Sarah Johnson", "Let me type it"}
	case containsAny(msg, "phone", "number"):
		return []string{"(555) 123-4567", "Text me instead", "I'll provide my email"}
	case strings.Contains(msg, "email"):
		return []string{"john@email.com", "sarah@gmail.com", "Use my phone instead"}
	}

	if procedureType != "" && (stage == models.StageEducation || stage == models.StageGallery) {
		if specific, ok := procedureQuickReplies[procedureType]; ok {
			return append(append([]string{}, specific...), "Schedule consultation")
		}
	}

	if picks, ok := defaultQuickReplies[stage]; ok {
		return picks
	}
	return defaultQuickReplies[models.StageWelcome]
}

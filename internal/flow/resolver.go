package flow

import (
	"log/slog"
	"strings"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

// NextStageResolver decides the funnel stage after a completed exchange.
// directive is the validated stage extracted from the model's reply, or nil
// when none fired. userMessage is the visitor's latest message.
type NextStageResolver interface {
	NextStage(current models.Stage, userMessage string, directive *models.Stage) models.Stage
}

// DirectedResolver lets the model drive: a valid directive wins, otherwise
// the stage does not move.
type DirectedResolver struct{}

// NewDirectedResolver creates a resolver that follows model directives.
func NewDirectedResolver() *DirectedResolver {
	return &DirectedResolver{}
}

// NextStage returns the directive's stage when present, else current.
func (r *DirectedResolver) NextStage(current models.Stage, userMessage string, directive *models.Stage) models.Stage {
	if directive != nil {
		slog.Debug("DirectedResolver.NextStage: following directive", "from", current, "to", *directive)
		return *directive
	}
	return current
}

// RuleBasedResolver infers transitions from keywords in the visitor's
// latest message. A valid directive still wins; the keyword table is the
// fallback. The table is total: every stage has an explicit default, so the
// result is always a valid stage.
type RuleBasedResolver struct{}

// NewRuleBasedResolver creates a resolver driven by the keyword table.
func NewRuleBasedResolver() *RuleBasedResolver {
	return &RuleBasedResolver{}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// NextStage applies the keyword rules for the current stage.
func (r *RuleBasedResolver) NextStage(current models.Stage, userMessage string, directive *models.Stage) models.Stage {
	if directive != nil {
		slog.Debug("RuleBasedResolver.NextStage: following directive", "from", current, "to", *directive)
		return *directive
	}

	msg := strings.ToLower(userMessage)
	next := current

	switch current {
	case models.StageWelcome:
		next = models.StageClassify
	case models.StageClassify:
		switch {
		case containsAny(msg, "photo", "picture", "example", "gallery"):
			next = models.StageGallery
		case containsAny(msg, "schedule", "consultation", "appointment"):
			next = models.StageBooking
		default:
			next = models.StageEducation
		}
	case models.StageEducation:
		switch {
		case containsAny(msg, "result", "before", "after", "photo", "picture", "example"):
			next = models.StageGallery
		case containsAny(msg, "schedule", "consultation", "appointment"):
			next = models.StageBooking
		case containsAny(msg, "cost", "price", "qualified", "candidate"):
			next = models.StageQualify
		default:
			next = models.StageEducation
		}
	case models.StageGallery:
		switch {
		case containsAny(msg, "schedule", "consultation", "appointment", "book", "interested"):
			next = models.StageBooking
		case containsAny(msg, "cost", "price", "qualified", "candidate"):
			next = models.StageQualify
		case containsAny(msg, "recovery", "risk", "how does", "tell me more"):
			next = models.StageEducation
		default:
			next = models.StageGallery
		}
	case models.StageQualify:
		next = models.StageBooking
	case models.StageBooking:
		next = models.StageCapture
	case models.StageCapture:
		next = models.StageCapture
	case models.StageComplete:
		switch {
		case containsAny(msg, "photo", "picture", "example", "result"):
			next = models.StageGallery
		case containsAny(msg, "question", "tell me", "what about"):
			next = models.StageEducation
		default:
			next = models.StageComplete
		}
	default:
		// Unknown stages fall back to the funnel entry.
		next = models.StageWelcome
	}

	if next != current {
		slog.Debug("RuleBasedResolver.NextStage: transition", "from", current, "to", next)
	}
	return next
}

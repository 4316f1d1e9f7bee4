// Package models defines the conversation funnel stages for LeadAdvisor.
package models

import "fmt"

// Stage represents a named point in the lead-generation funnel. It controls
// which system prompt, quick replies, and capture behavior are active.
type Stage string

const (
	StageWelcome   Stage = "welcome"
	StageClassify  Stage = "classify"
	StageEducation Stage = "education"
	StageGallery   Stage = "gallery"
	StageQualify   Stage = "qualify"
	StageBooking   Stage = "booking"
	StageCapture   Stage = "capture"
	StageComplete  Stage = "complete"
)

// stageOrder defines the funnel position of each stage. Used only for
// progress display, never for transition decisions.
var stageOrder = map[Stage]int{
	StageWelcome:   0,
	StageClassify:  1,
	StageEducation: 2,
	StageGallery:   3,
	StageQualify:   4,
	StageBooking:   5,
	StageCapture:   6,
	StageComplete:  7,
}

// AllStages lists every stage in funnel order.
func AllStages() []Stage {
	return []Stage{
		StageWelcome, StageClassify, StageEducation, StageGallery,
		StageQualify, StageBooking, StageCapture, StageComplete,
	}
}

// IsValidStage reports whether s names a known funnel stage.
func IsValidStage(s Stage) bool {
	_, ok := stageOrder[s]
	return ok
}

// StageOrder returns the funnel position of s, or -1 for unknown stages.
func StageOrder(s Stage) int {
	if pos, ok := stageOrder[s]; ok {
		return pos
	}
	return -1
}

// ParseStage converts a raw string into a Stage. Unknown names are an
// error, never silently defaulted.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if !IsValidStage(s) {
		return "", fmt.Errorf("unknown conversation stage %q", raw)
	}
	return s, nil
}

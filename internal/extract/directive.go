// Package extract pulls machine-readable content out of free text: control
// directives embedded in model output, citation markers, and contact details
// typed by visitors.
package extract

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

// Recognized directive prefixes. Directive blocks are located by scanning
// for these prefixes and then walking to the balanced closing brace, so
// field values containing braces or quotes do not truncate the match.
const (
	galleryDirectivePrefix = `{"action":`
	stateDirectivePrefix   = `{"next_state":`
)

// DirectiveResult is the outcome of scanning a completed model response.
type DirectiveResult struct {
	// CleanText is the display text with all directive blocks removed and
	// surrounding whitespace trimmed.
	CleanText string
	// Gallery is the first valid gallery directive, or nil.
	Gallery *models.GalleryDirective
	// NextStage is the validated stage from the first state directive, or nil.
	NextStage *models.Stage
}

type span struct{ start, end int }

// Directives scans text for trailing JSON control blocks and splits them
// from the user-visible prose. The two pattern searches are independent and
// order-insensitive. When multiple blocks of the same kind appear, the first
// is honored and all are stripped. Parse failures are swallowed and logged;
// extraction never propagates an error.
func Directives(text string) DirectiveResult {
	res := DirectiveResult{}
	var spans []span

	for _, loc := range findDirectiveBlocks(text, galleryDirectivePrefix) {
		spans = append(spans, loc)
		if res.Gallery != nil {
			continue
		}
		var wrapper struct {
			Action models.GalleryDirective `json:"action"`
		}
		raw := text[loc.start:loc.end]
		if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
			slog.Debug("extract.Directives: malformed gallery directive ignored", "error", err, "block", raw)
			continue
		}
		if !wrapper.Action.ShowGallery {
			slog.Debug("extract.Directives: gallery directive without show_gallery ignored", "block", raw)
			continue
		}
		action := wrapper.Action
		res.Gallery = &action
	}

	for _, loc := range findDirectiveBlocks(text, stateDirectivePrefix) {
		spans = append(spans, loc)
		if res.NextStage != nil {
			continue
		}
		var directive models.StateDirective
		raw := text[loc.start:loc.end]
		if err := json.Unmarshal([]byte(raw), &directive); err != nil {
			slog.Debug("extract.Directives: malformed state directive ignored", "error", err, "block", raw)
			continue
		}
		if !models.IsValidStage(directive.NextState) {
			slog.Debug("extract.Directives: unknown stage in state directive dropped", "stage", directive.NextState)
			continue
		}
		stage := directive.NextState
		res.NextStage = &stage
	}

	res.CleanText = removeSpans(text, spans)
	return res
}

// findDirectiveBlocks locates every balanced JSON object starting with the
// given prefix. Prefixes without a balanced closing brace do not match the
// pattern and are left in place.
func findDirectiveBlocks(text, prefix string) []span {
	var spans []span
	offset := 0
	for {
		idx := strings.Index(text[offset:], prefix)
		if idx < 0 {
			return spans
		}
		start := offset + idx
		end, ok := scanBalancedObject(text, start)
		if !ok {
			offset = start + len(prefix)
			continue
		}
		spans = append(spans, span{start: start, end: end})
		offset = end
	}
}

// scanBalancedObject walks from the opening brace at start to its matching
// closing brace, honoring JSON string literals and escapes. Returns the
// index one past the closing brace.
func scanBalancedObject(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// removeSpans deletes the given byte ranges from text and trims the result.
func removeSpans(text string, spans []span) string {
	if len(spans) == 0 {
		return strings.TrimSpace(text)
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	var b strings.Builder
	prev := 0
	for _, s := range spans {
		if s.start < prev {
			continue
		}
		b.WriteString(text[prev:s.start])
		prev = s.end
	}
	b.WriteString(text[prev:])
	return strings.TrimSpace(b.String())
}

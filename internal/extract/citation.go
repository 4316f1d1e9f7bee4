package extract

import (
	"regexp"
	"strconv"
)

// citationSources is the fixed ordered table of reference sources. Bracket
// markers [1]..[5] in model output map to these names; indices outside the
// table produce no citation.
var citationSources = []string{
	"Dr. Clevens Surgical Guidelines",
	"Rhinoplasty Recovery Guide",
	"Facial Rejuvenation Techniques",
	"Mommy Makeover Best Practices",
	"Patient Safety Protocols",
}

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// Citations scans text for bracketed numeric markers and returns the mapped
// source names, deduplicated, in order of first appearance. The bracket
// markup itself stays visible in the displayed text; citations augment, they
// do not redact.
func Citations(text string) []string {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	if matches == nil {
		return nil
	}

	seen := make(map[string]bool)
	var citations []string
	for _, m := range matches {
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 || idx > len(citationSources) {
			continue
		}
		source := citationSources[idx-1]
		if seen[source] {
			continue
		}
		seen[source] = true
		citations = append(citations, source)
	}
	return citations
}

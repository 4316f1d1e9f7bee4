package extract

import "strings"

// procedureKeywords maps canonical procedure tags to the phrases visitors
// use for them. Order matters: earlier entries win when a message mentions
// several procedures.
var procedureKeywords = []struct {
	procedure string
	keywords  []string
}{
	{"rhinoplasty", []string{"rhinoplasty", "nose"}},
	{"facial-rejuvenation", []string{"facial", "face", "rejuvenation", "facelift"}},
	{"mommy-makeover", []string{"mommy", "makeover", "tummy"}},
	{"breast-surgery", []string{"breast", "augmentation"}},
	{"liposuction", []string{"liposuction", "lipo"}},
}

// Procedure detects which procedure a visitor message is about. Returns the
// canonical procedure tag, or empty when no known procedure is mentioned.
func Procedure(message string) string {
	lower := strings.ToLower(message)
	for _, entry := range procedureKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.procedure
			}
		}
	}
	return ""
}

package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize folds a chunk of page text into a form suitable for
// substring probing: lowercased with all whitespace removed, so layout
// differences between page variants cannot break a phrase match.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = strings.Trim(text, " \n\t")
	return whitespaceRegex.ReplaceAllString(text, "")
}

// ContainsAny reports whether the normalized text contains any of the
// given phrases. Phrases are expected to already be normalized.
func ContainsAny(text string, phrases []string) bool {
	text = Normalize(text)
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// StripTrailingLabel removes a known trailing label from a heading,
// trimming whatever whitespace separated the two.
func StripTrailingLabel(heading, label string) string {
	if !strings.Contains(heading, label) {
		return heading
	}
	return strings.Trim(strings.Replace(heading, label, "", 1), " \n\t")
}

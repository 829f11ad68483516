package service

import (
	"regexp"
	"strings"
)

var (
	contextTailPattern    = regexp.MustCompile(`(?is)context:.*$`)
	boilerplateLeadIn     = regexp.MustCompile(`(?im)^[ \t]*according to our hr materials:[ \t]*`)
	employeeFragment      = regexp.MustCompile(`(?im)[ \t]*employee:[^\n]*`)
	seeDetailsFragment    = regexp.MustCompile(`(?i)see details below\.?`)
	pleaseSeeFragment     = regexp.MustCompile(`(?i)please see[^.\n]*\bbelow\.`)
	repeatedBlankLines    = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)
	leakedMarkerDetectors = []string{"context:", "employee:"}
)

// Sanitize strips leaked prompt scaffolding from an answer. Passes run in a
// fixed order and repeat until the text stops changing, since one removal can
// expose another marker. A pass that changes the text always shortens it, so
// the loop terminates.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	out := strings.TrimSpace(text)
	for {
		next := sanitizePass(out)
		if next == out {
			return out
		}
		out = next
	}
}

func sanitizePass(text string) string {
	text = contextTailPattern.ReplaceAllString(text, "")
	text = boilerplateLeadIn.ReplaceAllString(text, "")
	text = employeeFragment.ReplaceAllString(text, "")
	text = seeDetailsFragment.ReplaceAllString(text, "")
	text = pleaseSeeFragment.ReplaceAllString(text, "")
	text = repeatedBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// IsClean reports whether text is free of leaked markers. Text that fails
// this check must not be shown to a user.
func IsClean(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range leakedMarkerDetectors {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

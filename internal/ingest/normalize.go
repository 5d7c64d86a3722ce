package ingest

import (
	"regexp"
	"strings"
)

var (
	trailingDigitsRE = regexp.MustCompile(`\d+$`)
	displayTagRE     = regexp.MustCompile(`\s*\((finding|person|situation|disorder|procedure)\)\s*$`)
)

// StripSyntheticDigits removes the trailing digits synthetic-data generators
// append to each part of a name ("Kieth891 Mills423" -> "Kieth Mills"). When
// stripping would leave nothing the original value is returned, so no
// information is ever destroyed.
func StripSyntheticDigits(name string) string {
	if name == "" {
		return name
	}
	parts := strings.Fields(name)
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := trailingDigitsRE.ReplaceAllString(part, ""); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return name
	}
	return strings.Join(cleaned, " ")
}

// SplitDisplayTag strips a trailing SNOMED hierarchy tag such as
// "(disorder)" or "(finding)" from display text, returning the cleaned
// display copy and the tag itself. The coded value is untouched by this;
// matching logic always runs on raw codes. When the whole display is the
// tag, the original text is kept.
func SplitDisplayTag(display string) (clean, tag string) {
	m := displayTagRE.FindStringSubmatch(display)
	if m == nil {
		return strings.TrimSpace(display), ""
	}
	clean = strings.TrimSpace(displayTagRE.ReplaceAllString(display, ""))
	if clean == "" {
		return strings.TrimSpace(display), m[1]
	}
	return clean, m[1]
}

package adapter

import (
	"regexp"
	"strings"
)

var (
	workModeRegex  = regexp.MustCompile(`(?i)\b(remote|onsite|hybrid|anywhere)\b`)
	knownCityRegex = regexp.MustCompile(`(?i)\b(san francisco|sf|bay area|new york|nyc|seattle|austin|boston|chicago|los angeles|london|berlin|paris|amsterdam|toronto|canada|usa|united states|united kingdom|uk)\b`)
	cityStateRegex = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*,\s*[A-Z]{2})\b`)
)

// extractLocation guesses a location from free-form posting text. Work mode
// (remote/hybrid/onsite) wins over a city because it is what readers filter on.
func extractLocation(text string) string {
	if m := workModeRegex.FindString(text); m != "" {
		return strings.ToLower(m)
	}
	if m := knownCityRegex.FindString(text); m != "" {
		return m
	}
	if m := cityStateRegex.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

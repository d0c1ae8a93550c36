package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	maxLocationLen  = 50
	locationTrimSet = " \t,;.-|"
)

// locationAliases map common abbreviations onto one display form.
var locationAliases = map[string]string{
	"sf":             "San Francisco",
	"bay area":       "San Francisco",
	"silicon valley": "San Francisco",
	"nyc":            "New York",
	"la":             "Los Angeles",
	"dc":             "Washington DC",
	"washington dc":  "Washington DC",
	"us":             "USA",
	"usa":            "USA",
	"united states":  "USA",
	"uk":             "UK",
	"united kingdom": "UK",
	"wfh":            "Remote",
	"work from home": "Remote",
}

var knownPlaces = map[string]bool{
	"remote": true, "onsite": true, "hybrid": true, "anywhere": true,

	"san francisco": true, "palo alto": true, "mountain view": true,
	"new york": true, "manhattan": true, "brooklyn": true,
	"seattle": true, "austin": true, "boston": true, "chicago": true, "los angeles": true,
	"denver": true, "portland": true, "atlanta": true, "miami": true, "philadelphia": true,
	"dallas": true, "san diego": true, "boulder": true, "raleigh": true, "durham": true,
	"minneapolis": true, "detroit": true, "phoenix": true, "nashville": true,
	"salt lake city": true, "las vegas": true, "orlando": true, "tampa": true,

	"canada": true, "germany": true, "france": true, "spain": true, "italy": true,
	"netherlands": true, "sweden": true, "norway": true, "denmark": true,
	"switzerland": true, "australia": true, "new zealand": true, "japan": true,
	"singapore": true, "india": true, "brazil": true, "mexico": true, "poland": true,
	"portugal": true, "belgium": true, "austria": true, "ireland": true,

	"london": true, "berlin": true, "paris": true, "amsterdam": true, "barcelona": true,
	"madrid": true, "stockholm": true, "oslo": true, "copenhagen": true, "zurich": true,
	"dublin": true, "edinburgh": true, "vienna": true, "lisbon": true, "munich": true,
	"toronto": true, "vancouver": true, "montreal": true,
	"tokyo": true, "hong kong": true, "bangalore": true, "sydney": true, "melbourne": true,
	"seoul": true, "taipei": true,

	"europe": true, "north america": true, "south america": true, "asia": true,
	"east coast": true, "west coast": true, "midwest": true,
}

// notPlaces are words that location extraction sometimes picks up from prose.
var notPlaces = map[string]bool{
	"experience": true, "years": true, "role": true, "position": true, "job": true,
	"opportunity": true, "company": true, "team": true, "work": true, "working": true,
	"looking": true, "seeking": true, "hiring": true, "developer": true, "engineer": true,
	"software": true, "technical": true, "skills": true, "requirements": true,
	"salary": true, "compensation": true, "benefits": true, "equity": true,
	"the": true, "and": true, "or": true, "for": true, "with": true, "from": true,
	"to": true, "at": true, "in": true, "this": true, "that": true, "a": true, "an": true,
}

var (
	digitRegex    = regexp.MustCompile(`\d`)
	parenRegex    = regexp.MustCompile(`\s*\([^)]*\)`)
	locationSplit = regexp.MustCompile(`\s*[,/;]\s*`)
)

// Location canonicalizes a free-form location. Aliases and known places get a
// single display form; other plausible places are kept as written; anything
// that does not look like a place becomes nil (unspecified).
func Location(s string) *string {
	s = strings.Trim(cleanText(parenRegex.ReplaceAllString(s, "")), locationTrimSet)
	if s == "" || len(s) > maxLocationLen {
		return nil
	}

	lower := strings.ToLower(s)
	if alias, ok := locationAliases[lower]; ok {
		return &alias
	}
	if knownPlaces[lower] {
		// Casers carry state, so one per call.
		titled := cases.Title(language.English).String(lower)
		return &titled
	}

	for _, part := range locationSplit.Split(s, -1) {
		if !plausiblePlace(part) {
			return nil
		}
	}
	return &s
}

func plausiblePlace(part string) bool {
	lower := strings.ToLower(strings.TrimSpace(part))
	if len(lower) < 2 {
		return false
	}
	if knownPlaces[lower] {
		return true
	}
	if notPlaces[lower] || digitRegex.MatchString(lower) {
		return false
	}
	if strings.Contains(lower, "@") || strings.Contains(lower, ".com") {
		return false
	}
	return len(strings.Fields(lower)) <= 3
}

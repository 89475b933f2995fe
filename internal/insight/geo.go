package insight

import (
	"sort"
	"strings"
)

// stateCodes maps canonical lowercase US state/territory names to their
// two-letter postal codes. Used only by the map branch of visualization
// selection.
var stateCodes = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT",
	"delaware": "DE", "florida": "FL", "georgia": "GA", "hawaii": "HI",
	"idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME",
	"maryland": "MD", "massachusetts": "MA", "michigan": "MI",
	"minnesota": "MN", "mississippi": "MS", "missouri": "MO",
	"montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM",
	"new york": "NY", "north carolina": "NC", "north dakota": "ND",
	"ohio": "OH", "oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA",
	"rhode island": "RI", "south carolina": "SC", "south dakota": "SD",
	"tennessee": "TN", "texas": "TX", "utah": "UT", "vermont": "VT",
	"virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
	"district of columbia": "DC", "puerto rico": "PR",
}

// validCodes is the reverse index for two-letter inputs.
var validCodes = func() map[string]string {
	m := make(map[string]string, len(stateCodes))
	for _, code := range stateCodes {
		m[code] = code
	}
	return m
}()

// stateNames holds the canonical names in sorted order so the fuzzy scan
// below is deterministic for ambiguous inputs ("carolina" always resolves
// to North Carolina, not whichever map key iterated first).
var stateNames = func() []string {
	names := make([]string, 0, len(stateCodes))
	for name := range stateCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}()

// NormalizeRegion maps a free-form region name or abbreviation to its
// canonical two-letter code. Accepts codes case-insensitively, exact full
// names, and fuzzy bidirectional substring matches ("washington state",
// "n. carolina" will not match; "New York City" contains "new york" and
// will). Returns ok=false when nothing matches; callers treat that as
// "not plottable".
func NormalizeRegion(name string) (string, bool) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", false
	}

	if len(s) == 2 {
		if code, ok := validCodes[strings.ToUpper(s)]; ok {
			return code, true
		}
		return "", false
	}

	lower := strings.ToLower(s)
	if code, ok := stateCodes[lower]; ok {
		return code, true
	}

	// Fuzzy fallback: either string contains the other.
	for _, full := range stateNames {
		if strings.Contains(lower, full) || strings.Contains(full, lower) {
			return stateCodes[full], true
		}
	}
	return "", false
}

package schemas

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// UsStates maps US state full names to their abbreviations.
var UsStates = map[string]string{
	"alabama":        "AL",
	"alaska":         "AK",
	"arizona":        "AZ",
	"arkansas":       "AR",
	"california":     "CA",
	"colorado":       "CO",
	"connecticut":    "CT",
	"delaware":       "DE",
	"florida":        "FL",
	"georgia":        "GA",
	"hawaii":         "HI",
	"idaho":          "ID",
	"illinois":       "IL",
	"indiana":        "IN",
	"iowa":           "IA",
	"kansas":         "KS",
	"kentucky":       "KY",
	"louisiana":      "LA",
	"maine":          "ME",
	"maryland":       "MD",
	"massachusetts":  "MA",
	"michigan":       "MI",
	"minnesota":      "MN",
	"mississippi":    "MS",
	"missouri":       "MO",
	"montana":        "MT",
	"nebraska":       "NE",
	"nevada":         "NV",
	"new hampshire":  "NH",
	"new jersey":     "NJ",
	"new mexico":     "NM",
	"new york":       "NY",
	"north carolina": "NC",
	"north dakota":   "ND",
	"ohio":           "OH",
	"oklahoma":       "OK",
	"oregon":         "OR",
	"pennsylvania":   "PA",
	"rhode island":   "RI",
	"south carolina": "SC",
	"south dakota":   "SD",
	"tennessee":      "TN",
	"texas":          "TX",
	"utah":           "UT",
	"vermont":        "VT",
	"virginia":       "VA",
	"washington":     "WA",
	"west virginia":  "WV",
	"wisconsin":      "WI",
	"wyoming":        "WY",
}

var stateCodes = func() map[string]bool {
	codes := make(map[string]bool, len(UsStates))
	for _, code := range UsStates {
		codes[code] = true
	}
	return codes
}()

// NormalizeUsState converts US state names to their 2-letter abbreviations.
// If the input is already an abbreviation or not recognized, returns as-is.
func NormalizeUsState(s string) string {
	s = strings.TrimSpace(s)

	if code, ok := UsStates[strings.ToLower(s)]; ok {
		return code
	}
	if upper := strings.ToUpper(s); stateCodes[upper] {
		return upper
	}
	return s
}

// UsState is a clean func that accepts a state name or code and returns the code.
func UsState(v any) (any, error) {
	s := NormalizeUsState(cast.ToString(v))
	if !stateCodes[s] {
		return nil, fmt.Errorf("invalid enum: %q is not a US state", s)
	}
	return s, nil
}

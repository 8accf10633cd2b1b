package eamatch

import "strings"

// Canonical position codes. The degraded values D, F and Skater are emitted
// when no signal is strong enough to pick a specific slot.
const (
	PosGoalie       = "G"
	PosLeftDefense  = "LD"
	PosRightDefense = "RD"
	PosLeftWing     = "LW"
	PosRightWing    = "RW"
	PosCenter       = "C"
	PosDefense      = "D"
	PosForward      = "F"
	PosSkater       = "Skater"
)

const (
	CategoryGoalie  = "goalie"
	CategoryDefense = "defense"
	CategoryOffense = "offense"
)

// sortedPositionCodes maps the semantic posSorted values some schema versions
// carry. These are the most trustworthy signal the API exposes.
var sortedPositionCodes = map[string]string{
	"leftDefense":  PosLeftDefense,
	"rightDefense": PosRightDefense,
	"leftWing":     PosLeftWing,
	"rightWing":    PosRightWing,
	"center":       PosCenter,
	"goalie":       PosGoalie,
}

// numericPositionCodes maps the EA numeric position convention. Codes 1 and 2
// are swapped relative to naive left/right ordering; that is the convention
// the API itself uses and must not be "fixed".
var numericPositionCodes = map[string]string{
	"0": PosGoalie,
	"1": PosRightDefense,
	"2": PosLeftDefense,
	"3": PosRightWing,
	"4": PosLeftWing,
	"5": PosCenter,
}

// positionCodes is the generic text-to-code table, keyed by lowercased text.
var positionCodes = map[string]string{
	"goalie":           PosGoalie,
	"g":                PosGoalie,
	"leftdefense":      PosLeftDefense,
	"leftdefensemen":   PosLeftDefense,
	"ld":               PosLeftDefense,
	"rightdefense":     PosRightDefense,
	"rightdefensemen":  PosRightDefense,
	"rd":               PosRightDefense,
	"leftwing":         PosLeftWing,
	"lw":               PosLeftWing,
	"rightwing":        PosRightWing,
	"rw":               PosRightWing,
	"center":           PosCenter,
	"c":                PosCenter,
	"defense":          PosDefense,
	"defensemen":       PosDefense,
	"d":                PosDefense,
	"forward":          PosForward,
	"f":                PosForward,
}

var categoryByPosition = map[string]string{
	PosGoalie:       CategoryGoalie,
	PosLeftDefense:  CategoryDefense,
	PosRightDefense: CategoryDefense,
	PosDefense:      CategoryDefense,
}

// goaliepositionValues are the literal position values the combiner treats as
// "this record is a goalie" when deciding whether to fold goalie stat fields.
var goaliePositionValues = map[string]struct{}{
	"G":      {},
	"Goalie": {},
	"goalie": {},
	"0":      {},
}

// MapPositionText runs a position string through the generic text-to-code
// table. Unknown text is returned unchanged, so callers can detect whether a
// mapping actually occurred by comparing against the input.
func MapPositionText(value string) string {
	if code, ok := positionCodes[strings.ToLower(strings.TrimSpace(value))]; ok {
		return code
	}
	return value
}

// CategoryOf is a pure mapping from position code to coarse category.
// Unknown and degraded skater positions fall into offense.
func CategoryOf(position string) string {
	if category, ok := categoryByPosition[position]; ok {
		return category
	}
	return CategoryOffense
}

// ResolvePosition determines a canonical position code for a raw player
// record. It is a strict priority cascade over the signals the various EA
// schema versions expose, ordered from most to least trustworthy; the first
// matching rule wins.
func ResolvePosition(rec Record) string {
	if code, ok := sortedPositionCodes[rec.Str("posSorted")]; ok {
		return code
	}

	if rec.Has("position") {
		if code, ok := numericPositionCodes[rec.Str("position")]; ok {
			return code
		}
	}

	if raw := rec.Str("skposition"); raw != "" {
		if mapped := MapPositionText(raw); mapped != raw {
			return mapped
		}
	}

	if raw := rec.Str("position"); raw != "" {
		if mapped := MapPositionText(raw); mapped != raw {
			return mapped
		}
	}

	if (rec.Has("glsaves") || rec.Has("saves")) && (rec.Has("glga") || rec.Has("goalsAgainst")) {
		return PosGoalie
	}

	switch rec.Str("category") {
	case CategoryGoalie:
		return PosGoalie
	case CategoryDefense:
		return PosDefense
	case CategoryOffense:
		return PosCenter
	}

	if rec.NumFirst("skfow", "faceoffWins") > 0 || rec.NumFirst("skfol", "faceoffLosses") > 0 {
		return PosCenter
	}

	if rec.NumFirst("skgoals", "goals") > 0 ||
		rec.NumFirst("skassists", "assists") > 0 ||
		rec.NumFirst("skshots", "shots") > 0 {
		return PosForward
	}

	return PosSkater
}

func isGoaliePositionValue(value string) bool {
	_, ok := goaliePositionValues[value]
	return ok
}

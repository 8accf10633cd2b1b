package eamatch

import (
	"sort"
	"strconv"
	"strings"
)

// Record is one loosely typed object from an EA payload. The EA proclubs API
// has shipped several incompatible schemas over the years, so every accessor
// is total: missing or malformed fields read as zero values, never as errors.
type Record map[string]any

// Match is one raw match snapshot as decoded from the EA API.
type Match map[string]any

func AsRecord(value any) Record {
	switch v := value.(type) {
	case Record:
		return v
	case Match:
		return Record(v)
	case map[string]any:
		return Record(v)
	default:
		return nil
	}
}

func (r Record) Has(key string) bool {
	if r == nil {
		return false
	}
	value, ok := r[key]
	return ok && value != nil
}

// Str returns the field as a string. Numeric values are stringified so that
// position codes reported as numbers ("position": 0) still compare as "0".
func (r Record) Str(key string) string {
	if r == nil {
		return ""
	}
	switch v := r[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func (r Record) Num(key string) float64 {
	if r == nil {
		return 0
	}
	return toNumber(r[key])
}

// NumFirst walks the keys in order and returns the value of the first one
// present, defaulting to 0. This is the `a ?? b ?? 0` fallback idiom the EA
// schemas require (e.g. skgoals vs goals).
func (r Record) NumFirst(keys ...string) float64 {
	for _, key := range keys {
		if r.Has(key) {
			return r.Num(key)
		}
	}
	return 0
}

func (r Record) StrFirst(keys ...string) string {
	for _, key := range keys {
		if r.Has(key) {
			if value := r.Str(key); value != "" {
				return value
			}
		}
	}
	return ""
}

func (r Record) Child(key string) Record {
	if r == nil {
		return nil
	}
	return AsRecord(r[key])
}

func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return AsRecord(cloneValue(map[string]any(r)))
}

func toNumber(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return parsed
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = cloneValue(item)
		}
		return out
	case Record:
		return cloneValue(map[string]any(v))
	case Match:
		return cloneValue(map[string]any(v))
	case []any:
		out := make([]any, len(v))
		for idx, item := range v {
			out[idx] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func (m Match) ID() string {
	return Record(m).Str("matchId")
}

func (m Match) Timestamp() float64 {
	return Record(m).Num("timestamp")
}

func (m Match) IsCombined() bool {
	combined, _ := m["isCombined"].(bool)
	return combined
}

func (m Match) Clubs() map[string]Record {
	clubs := Record(m).Child("clubs")
	if clubs == nil {
		return nil
	}
	out := make(map[string]Record, len(clubs))
	for clubID, value := range clubs {
		if club := AsRecord(value); club != nil {
			out[clubID] = club
		}
	}
	return out
}

func (m Match) ClubIDs() []string {
	clubs := m.Clubs()
	out := make([]string, 0, len(clubs))
	for clubID := range clubs {
		out = append(out, clubID)
	}
	sort.Strings(out)
	return out
}

// PlayersByClub merges the two places the EA API is known to nest player
// records: a top-level players[clubId] map and clubs[clubId].players. Both
// must be scanned because different schema versions use different nesting.
func (m Match) PlayersByClub(clubID string) map[string]Record {
	out := make(map[string]Record)
	if byClub := Record(m).Child("players"); byClub != nil {
		for playerID, value := range byClub.Child(clubID) {
			if rec := AsRecord(value); rec != nil {
				out[playerID] = rec
			}
		}
	}
	if clubs := Record(m).Child("clubs"); clubs != nil {
		for playerID, value := range clubs.Child(clubID).Child("players") {
			if rec := AsRecord(value); rec != nil {
				if _, seen := out[playerID]; !seen {
					out[playerID] = rec
				}
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (m Match) Clone() Match {
	if m == nil {
		return nil
	}
	return Match(cloneValue(map[string]any(m)).(map[string]any))
}

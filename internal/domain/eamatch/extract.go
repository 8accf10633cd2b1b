package eamatch

import (
	"crypto/rand"
	"encoding/hex"
)

const (
	TeamSideHome = "home"
	TeamSideAway = "away"

	unknownPersona = "Unknown Player"
)

// NormalizedPlayer is the canonical in-memory representation of one player's
// stats after reconciling the EA schema variants.
type NormalizedPlayer struct {
	PlayerID string
	Persona  string
	Position string
	Category string
	TeamSide string

	Goals         int
	Assists       int
	Shots         int
	Hits          int
	PIM           int
	PlusMinus     int
	Blocks        int
	Takeaways     int
	Giveaways     int
	FaceoffWins   int
	FaceoffLosses int
	Passes        int
	PassAttempts  int
	TOISeconds    int

	Saves        int
	GoalsAgainst int
	ShotsAgainst int
	Shutouts     int

	ShotPct    float64
	PassPct    float64
	FaceoffPct float64
	SavePct    float64
}

// ExtractPlayers walks a raw match payload of unknown shape and returns every
// player record it can find, normalized. The known structural interpretations
// are all tried and their results concatenated; a payload matching more than
// one shape contributes from each. Within one payload no identity merging
// occurs: a player listed twice is emitted twice.
func ExtractPlayers(payload any) []NormalizedPlayer {
	out := make([]NormalizedPlayer, 0, 16)

	root := AsRecord(payload)
	if root != nil {
		if records := collectRecords(root["playerStats"]); len(records) > 0 {
			for _, rec := range records {
				out = append(out, NormalizePlayer(rec))
			}
		}
		if records := collectRecords(root["players"]); len(records) > 0 {
			for _, rec := range records {
				out = append(out, NormalizePlayer(rec))
			}
		}
	}

	if items, ok := payload.([]any); ok {
		for _, rec := range collectRecords(items) {
			out = append(out, NormalizePlayer(rec))
		}
	}

	if root != nil {
		for side, key := range map[string]string{TeamSideHome: "homeTeam", TeamSideAway: "awayTeam"} {
			team := root.Child(key)
			if team == nil {
				continue
			}
			for _, rec := range collectRecords(team["players"]) {
				player := NormalizePlayer(rec)
				player.TeamSide = side
				out = append(out, player)
			}
		}
	}

	return out
}

// collectRecords flattens the container shapes the EA API uses for player
// lists: plain arrays, maps keyed by player ID, and maps keyed by club ID
// whose values are either of the former.
func collectRecords(value any) []Record {
	switch v := value.(type) {
	case []any:
		out := make([]Record, 0, len(v))
		for _, item := range v {
			if rec := AsRecord(item); rec != nil {
				out = append(out, rec)
			}
		}
		return out
	case map[string]any, Record:
		rec := AsRecord(v)
		if looksLikePlayerRecord(rec) {
			return []Record{rec}
		}
		out := make([]Record, 0, len(rec))
		for _, item := range rec {
			out = append(out, collectRecords(item)...)
		}
		return out
	default:
		return nil
	}
}

func looksLikePlayerRecord(rec Record) bool {
	for _, key := range []string{"persona", "playername", "playerName", "skgoals", "skposition", "posSorted", "glsaves"} {
		if rec.Has(key) {
			return true
		}
	}
	return false
}

// NormalizePlayer converts one raw record into a NormalizedPlayer. It never
// fails: missing numeric fields read as 0 and a player with no usable
// position signal is treated as a center.
func NormalizePlayer(rec Record) NormalizedPlayer {
	player := NormalizedPlayer{
		PlayerID: rec.StrFirst("playerId", "playerID", "id"),
		Persona:  rec.StrFirst("persona", "playername", "playerName", "name"),

		Goals:         int(rec.NumFirst("skgoals", "goals")),
		Assists:       int(rec.NumFirst("skassists", "assists")),
		Shots:         int(rec.NumFirst("skshots", "shots")),
		Hits:          int(rec.NumFirst("skhits", "hits")),
		PIM:           int(rec.NumFirst("skpim", "pim")),
		PlusMinus:     int(rec.NumFirst("skplusmin", "plusMinus")),
		Blocks:        int(rec.NumFirst("skbs", "blocks")),
		Takeaways:     int(rec.NumFirst("sktakeaways", "takeaways")),
		Giveaways:     int(rec.NumFirst("skgiveaways", "giveaways")),
		FaceoffWins:   int(rec.NumFirst("skfow", "faceoffWins")),
		FaceoffLosses: int(rec.NumFirst("skfol", "faceoffLosses")),
		Passes:        int(rec.NumFirst("skpasses", "passes")),
		PassAttempts:  int(rec.NumFirst("skpassattempts", "passAttempts")),
		TOISeconds:    int(rec.NumFirst("toiseconds", "timeOnIce")),

		Saves:        int(rec.NumFirst("glsaves", "saves")),
		GoalsAgainst: int(rec.NumFirst("glga", "goalsAgainst")),
		ShotsAgainst: int(rec.NumFirst("glshots", "shotsAgainst")),
		Shutouts:     int(rec.NumFirst("glso", "shutouts")),
	}

	if player.PlayerID == "" {
		player.PlayerID = newSyntheticPlayerID()
	}
	if player.Persona == "" {
		player.Persona = unknownPersona
	}

	player.Position = PosCenter
	for _, raw := range []string{rec.Str("position"), rec.Str("skposition")} {
		if raw == "" {
			continue
		}
		if mapped := MapPositionText(raw); mapped != raw {
			player.Position = mapped
			break
		}
	}

	player.Category = CategoryOf(player.Position)
	if category := rec.Str("category"); category != "" {
		player.Category = category
	}

	player.ShotPct = derivedPct(rec, "skshotpct", float64(player.Goals), float64(player.Shots))
	player.PassPct = derivedPct(rec, "skpasspct", float64(player.Passes), float64(player.PassAttempts))
	player.FaceoffPct = derivedPct(rec, "skfopct", float64(player.FaceoffWins), float64(player.FaceoffWins+player.FaceoffLosses))
	player.SavePct = derivedPct(rec, "glsavepct", float64(player.Saves), float64(player.Saves+player.GoalsAgainst))

	return player
}

// ResolvePlayer normalizes one raw record and then stamps position and
// category from the full resolution cascade. NormalizePlayer alone only
// consults the position text tables, which cannot see numeric position codes
// or stat-shape signals such as a populated save column.
func ResolvePlayer(rec Record) NormalizedPlayer {
	player := NormalizePlayer(rec)
	player.Position = ResolvePosition(rec)
	player.Category = CategoryOf(player.Position)
	return player
}

// derivedPct prefers the rate the source reported and falls back to a guarded
// recompute from the counting stats.
func derivedPct(rec Record, key string, numerator, denominator float64) float64 {
	if rec.Has(key) {
		return rec.Num(key)
	}
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator * 100
}

func newSyntheticPlayerID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "player-unknown"
	}
	return "player-" + hex.EncodeToString(buf)
}

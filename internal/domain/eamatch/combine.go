package eamatch

import (
	"sort"
	"strings"
)

// clubAdditiveFields are the club-level fields re-summed from zero across
// snapshots. The template's own values must never be carried into the sum.
var clubAdditiveFields = []string{
	"goals",
	"goalsAgainst",
	"ppg",
	"ppo",
	"shots",
	"passa",
	"passc",
	"toa",
}

// convenienceStatFields folds differently named raw stat fields into their
// sk-prefixed canonical keys. A record carrying both names for the same stat
// is added twice; that quirk of the source pipeline is kept as observed.
var convenienceStatFields = [][2]string{
	{"goals", "skgoals"},
	{"assists", "skassists"},
	{"shots", "skshots"},
	{"hits", "skhits"},
	{"blocks", "skbs"},
	{"takeaways", "sktakeaways"},
	{"giveaways", "skgiveaways"},
	{"plusMinus", "skplusmin"},
	{"pim", "skpim"},
	{"timeOnIce", "toiseconds"},
}

var goalieStatFields = [][2]string{
	{"saves", "glsaves"},
	{"goalsAgainst", "glga"},
	{"shotsAgainst", "glshots"},
	{"breakawaySaves", "glbrksaves"},
	{"breakawayShots", "glbrkshots"},
	{"penaltySaves", "glpensaves"},
	{"penaltyShots", "glpenshots"},
}

// identitySeedFields are seeded from the first sighting that supplies them and
// never overwritten afterwards. One snapshot momentarily missing position data
// must not erase what an earlier one reported.
var identitySeedFields = []string{"position", "skposition", "posSorted", "category"}

type playerAccum struct {
	clubID   string
	playerID string
	rec      Record
}

// Combine folds N raw snapshots of the same extended game session into one
// synthetic match. An empty input returns nil (nothing to combine); a
// single-element input is returned unchanged. The most recent snapshot is
// deep-copied as the template for metadata; club totals are re-summed from
// zero and player totals are accumulated by (clubId, lowercased persona).
// Inputs are never mutated.
func Combine(matches []Match) Match {
	if len(matches) == 0 {
		return nil
	}
	if len(matches) == 1 {
		return matches[0]
	}

	sorted := append([]Match(nil), matches...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp() > sorted[j].Timestamp()
	})

	combined := sorted[0].Clone()

	ids := make([]string, 0, len(sorted))
	for _, m := range sorted {
		ids = append(ids, m.ID())
	}
	combined["originalTimestamp"] = combined["timestamp"]
	combined["matchId"] = "combined-" + strings.Join(ids, "-")
	combined["isCombined"] = true
	combined["combinedFrom"] = ids
	combined["combinedCount"] = len(sorted)

	combineClubs(combined, sorted)
	combinePlayers(combined, sorted)

	return combined
}

func combineClubs(combined Match, sorted []Match) {
	clubs := Record(combined).Child("clubs")
	if clubs == nil {
		clubs = Record{}
		combined["clubs"] = map[string]any(clubs)
	}

	// A club absent from the template may still appear in an older snapshot;
	// it is seeded from whichever match carries it.
	for _, m := range sorted {
		for clubID, club := range m.Clubs() {
			if !clubs.Has(clubID) {
				clubs[clubID] = cloneValue(map[string]any(club))
			}
		}
	}

	for clubID := range clubs {
		club := clubs.Child(clubID)
		if club == nil {
			continue
		}
		for _, field := range clubAdditiveFields {
			club[field] = float64(0)
		}
		for _, m := range sorted {
			src, ok := m.Clubs()[clubID]
			if !ok {
				continue
			}
			club["goals"] = club.Num("goals") + clubGoals(src)
			for _, field := range clubAdditiveFields[1:] {
				club[field] = club.Num(field) + src.Num(field)
			}
		}
	}
}

// clubGoals reads a snapshot club's goal count from whichever of the two
// known locations the schema version used.
func clubGoals(club Record) float64 {
	if club.Has("goals") {
		return club.Num("goals")
	}
	return club.Child("details").Num("goals")
}

func combinePlayers(combined Match, sorted []Match) {
	accums := make(map[string]*playerAccum)
	order := make([]string, 0, 16)

	for _, m := range sorted {
		for _, clubID := range matchClubIDs(m) {
			for playerID, rec := range m.PlayersByClub(clubID) {
				key := clubID + ":" + strings.ToLower(personaOf(rec))
				accum, ok := accums[key]
				if !ok {
					accum = &playerAccum{
						clubID: clubID,
						rec:    newAccumRecord(personaOf(rec)),
					}
					accums[key] = accum
					order = append(order, key)
				}
				if accum.playerID == "" {
					if playerID != "" {
						accum.playerID = playerID
					} else {
						accum.playerID = rec.StrFirst("playerId", "playerID", "id")
					}
				}
				seedIdentity(accum.rec, rec)
				foldPlayerStats(accum.rec, rec)
			}
		}
	}

	players := make(map[string]any, 2)
	for _, key := range order {
		accum := accums[key]
		finalizeAccum(accum.rec)
		if accum.playerID == "" {
			accum.playerID = newSyntheticPlayerID()
		}

		byClub, ok := players[accum.clubID].(map[string]any)
		if !ok {
			byClub = make(map[string]any)
			players[accum.clubID] = byClub
		}
		byClub[accum.playerID] = map[string]any(accum.rec)
	}
	combined["players"] = players

	// The accumulated roster replaces both nesting variants; stale per-club
	// rosters copied from the template would contradict it.
	if clubs := Record(combined).Child("clubs"); clubs != nil {
		for clubID := range clubs {
			if club := clubs.Child(clubID); club.Has("players") {
				delete(club, "players")
			}
		}
	}
}

func matchClubIDs(m Match) []string {
	set := make(map[string]struct{}, 2)
	for clubID := range m.Clubs() {
		set[clubID] = struct{}{}
	}
	for clubID := range Record(m).Child("players") {
		set[clubID] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for clubID := range set {
		out = append(out, clubID)
	}
	sort.Strings(out)
	return out
}

func personaOf(rec Record) string {
	if persona := rec.StrFirst("persona", "playername", "playerName", "name"); persona != "" {
		return persona
	}
	return unknownPersona
}

func newAccumRecord(persona string) Record {
	return Record{
		"playername":   persona,
		"games_played": float64(1),
		"skshotpct":    float64(0),
		"skpasspct":    float64(0),
		"skfopct":      float64(0),
		"glsavepct":    float64(0),
	}
}

func seedIdentity(accum, rec Record) {
	for _, field := range identitySeedFields {
		if !accum.Has(field) && rec.Has(field) {
			accum[field] = rec[field]
		}
	}
}

func foldPlayerStats(accum, rec Record) {
	for key, value := range rec {
		if isIdentityField(key) {
			continue
		}
		if strings.HasPrefix(key, "sk") || strings.HasPrefix(key, "gl") ||
			key == "pkclearzone" || key == "toiseconds" {
			accum[key] = accum.Num(key) + toNumber(value)
		}
	}

	for _, pair := range convenienceStatFields {
		if rec.Has(pair[0]) {
			accum[pair[1]] = accum.Num(pair[1]) + rec.Num(pair[0])
		}
	}

	if isGoaliePositionValue(rec.Str("position")) {
		for _, pair := range goalieStatFields {
			if rec.Has(pair[0]) {
				accum[pair[1]] = accum.Num(pair[1]) + rec.Num(pair[0])
			}
		}
	}

	// One combined game session counts as a single appearance no matter how
	// many snapshots contributed.
	accum["games_played"] = float64(1)
}

func isIdentityField(key string) bool {
	for _, field := range identitySeedFields {
		if key == field {
			return true
		}
	}
	return false
}

func finalizeAccum(rec Record) {
	if shots := rec.Num("skshots"); shots > 0 {
		rec["skshotpct"] = rec.Num("skgoals") / shots * 100
	}
	if attempts := rec.Num("skpassattempts"); attempts > 0 {
		rec["skpasspct"] = rec.Num("skpasses") / attempts * 100
	}
	if faceoffs := rec.Num("skfow") + rec.Num("skfol"); faceoffs > 0 {
		rec["skfopct"] = rec.Num("skfow") / faceoffs * 100
	}
	if faced := rec.Num("glsaves") + rec.Num("glga"); faced > 0 {
		rec["glsavepct"] = rec.Num("glsaves") / faced * 100
	}

	if pos := rec.Str("position"); pos == "" || pos == PosSkater {
		inferred := ResolvePosition(rec)
		rec["position"] = inferred
		if rec.Str("category") == "" {
			rec["category"] = CategoryOf(inferred)
		}
	}
}

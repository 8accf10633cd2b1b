package playerstats

import "time"

// SeasonStats is one player's accumulated season line within a club. Identity
// is (ClubID, lowercased Persona), matching how the combiner merges players
// across snapshots.
type SeasonStats struct {
	ClubID        string
	PlayerID      string
	Persona       string
	Position      string
	Category      string
	GamesPlayed   int
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
	Saves         int
	GoalsAgainst  int
	ShotsAgainst  int
	Shutouts      int
	UpdatedAt     time.Time
}

func (s SeasonStats) Points() int {
	return s.Goals + s.Assists
}

func (s SeasonStats) ShotPct() float64 {
	if s.Shots <= 0 {
		return 0
	}
	return float64(s.Goals) / float64(s.Shots) * 100
}

func (s SeasonStats) SavePct() float64 {
	faced := s.Saves + s.GoalsAgainst
	if faced <= 0 {
		return 0
	}
	return float64(s.Saves) / float64(faced) * 100
}

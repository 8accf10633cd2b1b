package clubstats

import "time"

// SeasonStats is the accumulated club line for one season, folded from
// combined match sessions.
type SeasonStats struct {
	ClubID                 string
	ClubName               string
	GamesPlayed            int
	Goals                  int
	GoalsAgainst           int
	Shots                  int
	PowerPlayGoals         int
	PowerPlayOpportunities int
	PassAttempts           int
	PassCompletions        int
	TimeOfAttackSeconds    int
	UpdatedAt              time.Time
}

// MatchLine is one club's totals within a single combined match.
type MatchLine struct {
	MatchID                string
	ClubID                 string
	OpponentClubID         string
	Goals                  int
	GoalsAgainst           int
	Shots                  int
	PowerPlayGoals         int
	PowerPlayOpportunities int
	PassAttempts           int
	PassCompletions        int
	TimeOfAttackSeconds    int
	PlayedAt               time.Time
}

func (l MatchLine) Won() bool {
	return l.Goals > l.GoalsAgainst
}

package postgres

import "time"

type clubSeasonStatsTableModel struct {
	ClubID                 string    `db:"club_id"`
	ClubName               string    `db:"club_name"`
	GamesPlayed            int       `db:"games_played"`
	Goals                  int       `db:"goals"`
	GoalsAgainst           int       `db:"goals_against"`
	Shots                  int       `db:"shots"`
	PowerPlayGoals         int       `db:"pp_goals"`
	PowerPlayOpportunities int       `db:"pp_opportunities"`
	PassAttempts           int       `db:"pass_attempts"`
	PassCompletions        int       `db:"pass_completions"`
	TimeOfAttackSeconds    int       `db:"toa_seconds"`
	UpdatedAt              time.Time `db:"updated_at"`
}

type clubMatchLineTableModel struct {
	MatchID                string    `db:"match_id"`
	ClubID                 string    `db:"club_id"`
	OpponentClubID         string    `db:"opponent_club_id"`
	Goals                  int       `db:"goals"`
	GoalsAgainst           int       `db:"goals_against"`
	Shots                  int       `db:"shots"`
	PowerPlayGoals         int       `db:"pp_goals"`
	PowerPlayOpportunities int       `db:"pp_opportunities"`
	PassAttempts           int       `db:"pass_attempts"`
	PassCompletions        int       `db:"pass_completions"`
	TimeOfAttackSeconds    int       `db:"toa_seconds"`
	PlayedAt               time.Time `db:"played_at"`
}

type playerSeasonStatsTableModel struct {
	ClubID        string    `db:"club_id"`
	PlayerID      string    `db:"player_id"`
	Persona       string    `db:"persona"`
	PersonaKey    string    `db:"persona_key"`
	Position      string    `db:"position"`
	Category      string    `db:"category"`
	GamesPlayed   int       `db:"games_played"`
	Goals         int       `db:"goals"`
	Assists       int       `db:"assists"`
	Shots         int       `db:"shots"`
	Hits          int       `db:"hits"`
	PIM           int       `db:"pim"`
	PlusMinus     int       `db:"plus_minus"`
	Blocks        int       `db:"blocks"`
	Takeaways     int       `db:"takeaways"`
	Giveaways     int       `db:"giveaways"`
	FaceoffWins   int       `db:"faceoff_wins"`
	FaceoffLosses int       `db:"faceoff_losses"`
	Passes        int       `db:"passes"`
	PassAttempts  int       `db:"pass_attempts"`
	TOISeconds    int       `db:"toi_seconds"`
	Saves         int       `db:"saves"`
	GoalsAgainst  int       `db:"goals_against"`
	ShotsAgainst  int       `db:"shots_against"`
	Shutouts      int       `db:"shutouts"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type rawDataPayloadInsertModel struct {
	Source      string    `db:"source"`
	EntityType  string    `db:"entity_type"`
	EntityKey   string    `db:"entity_key"`
	ClubID      string    `db:"club_id"`
	MatchID     string    `db:"match_id"`
	Payload     string    `db:"payload"`
	PayloadHash string    `db:"payload_hash"`
	FetchedAt   time.Time `db:"fetched_at"`
}

type rawDataPayloadTableModel struct {
	ID          int64     `db:"id"`
	Source      string    `db:"source"`
	EntityType  string    `db:"entity_type"`
	EntityKey   string    `db:"entity_key"`
	ClubID      string    `db:"club_id"`
	MatchID     string    `db:"match_id"`
	Payload     string    `db:"payload"`
	PayloadHash string    `db:"payload_hash"`
	FetchedAt   time.Time `db:"fetched_at"`
	IngestedAt  time.Time `db:"ingested_at"`
}

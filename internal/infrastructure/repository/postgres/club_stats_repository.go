package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/chelhq/chel-stats/internal/domain/clubstats"
	qb "github.com/chelhq/chel-stats/internal/platform/querybuilder"
)

type ClubStatsRepository struct {
	db *sqlx.DB
}

func NewClubStatsRepository(db *sqlx.DB) *ClubStatsRepository {
	return &ClubStatsRepository{db: db}
}

func (r *ClubStatsRepository) GetSeasonStats(ctx context.Context, clubID string) (clubstats.SeasonStats, bool, error) {
	query, args, err := qb.Select("*").From("club_season_stats").
		Where(qb.Eq("club_id", clubID)).
		ToSQL()
	if err != nil {
		return clubstats.SeasonStats{}, false, fmt.Errorf("build get club season stats query: %w", err)
	}

	var row clubSeasonStatsTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return clubstats.SeasonStats{}, false, nil
		}
		return clubstats.SeasonStats{}, false, fmt.Errorf("get club season stats: %w", err)
	}

	return clubstats.SeasonStats{
		ClubID:                 row.ClubID,
		ClubName:               row.ClubName,
		GamesPlayed:            row.GamesPlayed,
		Goals:                  row.Goals,
		GoalsAgainst:           row.GoalsAgainst,
		Shots:                  row.Shots,
		PowerPlayGoals:         row.PowerPlayGoals,
		PowerPlayOpportunities: row.PowerPlayOpportunities,
		PassAttempts:           row.PassAttempts,
		PassCompletions:        row.PassCompletions,
		TimeOfAttackSeconds:    row.TimeOfAttackSeconds,
		UpdatedAt:              row.UpdatedAt,
	}, true, nil
}

// AccumulateSeasonStats folds one combined match line into the club's season
// row. The upsert adds onto existing totals so re-running a backfill against a
// clean schema is the supported rebuild path.
func (r *ClubStatsRepository) AccumulateSeasonStats(ctx context.Context, line clubstats.MatchLine) error {
	insertModel := clubSeasonStatsTableModel{
		ClubID:                 line.ClubID,
		GamesPlayed:            1,
		Goals:                  line.Goals,
		GoalsAgainst:           line.GoalsAgainst,
		Shots:                  line.Shots,
		PowerPlayGoals:         line.PowerPlayGoals,
		PowerPlayOpportunities: line.PowerPlayOpportunities,
		PassAttempts:           line.PassAttempts,
		PassCompletions:        line.PassCompletions,
		TimeOfAttackSeconds:    line.TimeOfAttackSeconds,
		UpdatedAt:              line.PlayedAt,
	}

	query, args, err := qb.InsertModel("club_season_stats", insertModel, `ON CONFLICT (club_id)
DO UPDATE SET
    games_played = club_season_stats.games_played + EXCLUDED.games_played,
    goals = club_season_stats.goals + EXCLUDED.goals,
    goals_against = club_season_stats.goals_against + EXCLUDED.goals_against,
    shots = club_season_stats.shots + EXCLUDED.shots,
    pp_goals = club_season_stats.pp_goals + EXCLUDED.pp_goals,
    pp_opportunities = club_season_stats.pp_opportunities + EXCLUDED.pp_opportunities,
    pass_attempts = club_season_stats.pass_attempts + EXCLUDED.pass_attempts,
    pass_completions = club_season_stats.pass_completions + EXCLUDED.pass_completions,
    toa_seconds = club_season_stats.toa_seconds + EXCLUDED.toa_seconds,
    updated_at = GREATEST(club_season_stats.updated_at, EXCLUDED.updated_at)`)
	if err != nil {
		return fmt.Errorf("build accumulate club season stats query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("accumulate club season stats: %w", err)
	}

	return nil
}

func (r *ClubStatsRepository) ListMatchLines(ctx context.Context, clubID string, limit int) ([]clubstats.MatchLine, error) {
	builder := qb.Select("*").From("club_match_lines").
		Where(qb.Eq("club_id", clubID)).
		OrderBy("played_at DESC", "match_id")
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list club match lines query: %w", err)
	}

	var rows []clubMatchLineTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list club match lines: %w", err)
	}

	out := make([]clubstats.MatchLine, 0, len(rows))
	for _, row := range rows {
		out = append(out, clubstats.MatchLine{
			MatchID:                row.MatchID,
			ClubID:                 row.ClubID,
			OpponentClubID:         row.OpponentClubID,
			Goals:                  row.Goals,
			GoalsAgainst:           row.GoalsAgainst,
			Shots:                  row.Shots,
			PowerPlayGoals:         row.PowerPlayGoals,
			PowerPlayOpportunities: row.PowerPlayOpportunities,
			PassAttempts:           row.PassAttempts,
			PassCompletions:        row.PassCompletions,
			TimeOfAttackSeconds:    row.TimeOfAttackSeconds,
			PlayedAt:               row.PlayedAt,
		})
	}

	return out, nil
}

func (r *ClubStatsRepository) UpsertMatchLine(ctx context.Context, line clubstats.MatchLine) error {
	insertModel := clubMatchLineTableModel{
		MatchID:                line.MatchID,
		ClubID:                 line.ClubID,
		OpponentClubID:         line.OpponentClubID,
		Goals:                  line.Goals,
		GoalsAgainst:           line.GoalsAgainst,
		Shots:                  line.Shots,
		PowerPlayGoals:         line.PowerPlayGoals,
		PowerPlayOpportunities: line.PowerPlayOpportunities,
		PassAttempts:           line.PassAttempts,
		PassCompletions:        line.PassCompletions,
		TimeOfAttackSeconds:    line.TimeOfAttackSeconds,
		PlayedAt:               line.PlayedAt,
	}

	query, args, err := qb.InsertModel("club_match_lines", insertModel, `ON CONFLICT (club_id, match_id)
DO UPDATE SET
    opponent_club_id = EXCLUDED.opponent_club_id,
    goals = EXCLUDED.goals,
    goals_against = EXCLUDED.goals_against,
    shots = EXCLUDED.shots,
    pp_goals = EXCLUDED.pp_goals,
    pp_opportunities = EXCLUDED.pp_opportunities,
    pass_attempts = EXCLUDED.pass_attempts,
    pass_completions = EXCLUDED.pass_completions,
    toa_seconds = EXCLUDED.toa_seconds,
    played_at = EXCLUDED.played_at`)
	if err != nil {
		return fmt.Errorf("build upsert club match line query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert club match line: %w", err)
	}

	return nil
}

package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/chelhq/chel-stats/internal/domain/playerstats"
	qb "github.com/chelhq/chel-stats/internal/platform/querybuilder"
)

type PlayerStatsRepository struct {
	db *sqlx.DB
}

func NewPlayerStatsRepository(db *sqlx.DB) *PlayerStatsRepository {
	return &PlayerStatsRepository{db: db}
}

// AccumulateSeasonStats adds one combined match's per-player rows onto the
// season totals. Identity is (club_id, persona_key) with the persona
// lowercased, matching the combiner's merge key.
func (r *PlayerStatsRepository) AccumulateSeasonStats(ctx context.Context, stats []playerstats.SeasonStats) error {
	if len(stats) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx accumulate player season stats: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range stats {
		insertModel := playerSeasonStatsTableModel{
			ClubID:        item.ClubID,
			PlayerID:      item.PlayerID,
			Persona:       item.Persona,
			PersonaKey:    strings.ToLower(item.Persona),
			Position:      item.Position,
			Category:      item.Category,
			GamesPlayed:   item.GamesPlayed,
			Goals:         item.Goals,
			Assists:       item.Assists,
			Shots:         item.Shots,
			Hits:          item.Hits,
			PIM:           item.PIM,
			PlusMinus:     item.PlusMinus,
			Blocks:        item.Blocks,
			Takeaways:     item.Takeaways,
			Giveaways:     item.Giveaways,
			FaceoffWins:   item.FaceoffWins,
			FaceoffLosses: item.FaceoffLosses,
			Passes:        item.Passes,
			PassAttempts:  item.PassAttempts,
			TOISeconds:    item.TOISeconds,
			Saves:         item.Saves,
			GoalsAgainst:  item.GoalsAgainst,
			ShotsAgainst:  item.ShotsAgainst,
			Shutouts:      item.Shutouts,
			UpdatedAt:     item.UpdatedAt,
		}

		query, args, err := qb.InsertModel("player_season_stats", insertModel, `ON CONFLICT (club_id, persona_key)
DO UPDATE SET
    player_id = EXCLUDED.player_id,
    persona = EXCLUDED.persona,
    position = EXCLUDED.position,
    category = EXCLUDED.category,
    games_played = player_season_stats.games_played + EXCLUDED.games_played,
    goals = player_season_stats.goals + EXCLUDED.goals,
    assists = player_season_stats.assists + EXCLUDED.assists,
    shots = player_season_stats.shots + EXCLUDED.shots,
    hits = player_season_stats.hits + EXCLUDED.hits,
    pim = player_season_stats.pim + EXCLUDED.pim,
    plus_minus = player_season_stats.plus_minus + EXCLUDED.plus_minus,
    blocks = player_season_stats.blocks + EXCLUDED.blocks,
    takeaways = player_season_stats.takeaways + EXCLUDED.takeaways,
    giveaways = player_season_stats.giveaways + EXCLUDED.giveaways,
    faceoff_wins = player_season_stats.faceoff_wins + EXCLUDED.faceoff_wins,
    faceoff_losses = player_season_stats.faceoff_losses + EXCLUDED.faceoff_losses,
    passes = player_season_stats.passes + EXCLUDED.passes,
    pass_attempts = player_season_stats.pass_attempts + EXCLUDED.pass_attempts,
    toi_seconds = player_season_stats.toi_seconds + EXCLUDED.toi_seconds,
    saves = player_season_stats.saves + EXCLUDED.saves,
    goals_against = player_season_stats.goals_against + EXCLUDED.goals_against,
    shots_against = player_season_stats.shots_against + EXCLUDED.shots_against,
    shutouts = player_season_stats.shutouts + EXCLUDED.shutouts,
    updated_at = GREATEST(player_season_stats.updated_at, EXCLUDED.updated_at)`)
		if err != nil {
			return fmt.Errorf("build accumulate player season stats query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("accumulate player season stats club=%s persona=%s: %w", item.ClubID, item.Persona, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit accumulate player season stats: %w", err)
	}
	return nil
}

func (r *PlayerStatsRepository) ListByClub(ctx context.Context, clubID string) ([]playerstats.SeasonStats, error) {
	query, args, err := qb.Select("*").From("player_season_stats").
		Where(qb.Eq("club_id", clubID)).
		OrderBy("goals + assists DESC", "persona_key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list player season stats query: %w", err)
	}

	var rows []playerSeasonStatsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list player season stats: %w", err)
	}

	out := make([]playerstats.SeasonStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapPlayerSeasonStats(row))
	}
	return out, nil
}

func (r *PlayerStatsRepository) GetByClubAndPersona(ctx context.Context, clubID, persona string) (playerstats.SeasonStats, bool, error) {
	query, args, err := qb.Select("*").From("player_season_stats").
		Where(
			qb.Eq("club_id", clubID),
			qb.Eq("persona_key", strings.ToLower(strings.TrimSpace(persona))),
		).
		ToSQL()
	if err != nil {
		return playerstats.SeasonStats{}, false, fmt.Errorf("build get player season stats query: %w", err)
	}

	var row playerSeasonStatsTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return playerstats.SeasonStats{}, false, nil
		}
		return playerstats.SeasonStats{}, false, fmt.Errorf("get player season stats: %w", err)
	}

	return mapPlayerSeasonStats(row), true, nil
}

func mapPlayerSeasonStats(row playerSeasonStatsTableModel) playerstats.SeasonStats {
	return playerstats.SeasonStats{
		ClubID:        row.ClubID,
		PlayerID:      row.PlayerID,
		Persona:       row.Persona,
		Position:      row.Position,
		Category:      row.Category,
		GamesPlayed:   row.GamesPlayed,
		Goals:         row.Goals,
		Assists:       row.Assists,
		Shots:         row.Shots,
		Hits:          row.Hits,
		PIM:           row.PIM,
		PlusMinus:     row.PlusMinus,
		Blocks:        row.Blocks,
		Takeaways:     row.Takeaways,
		Giveaways:     row.Giveaways,
		FaceoffWins:   row.FaceoffWins,
		FaceoffLosses: row.FaceoffLosses,
		Passes:        row.Passes,
		PassAttempts:  row.PassAttempts,
		TOISeconds:    row.TOISeconds,
		Saves:         row.Saves,
		GoalsAgainst:  row.GoalsAgainst,
		ShotsAgainst:  row.ShotsAgainst,
		Shutouts:      row.Shutouts,
		UpdatedAt:     row.UpdatedAt,
	}
}

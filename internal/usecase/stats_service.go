package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/chelhq/chel-stats/internal/domain/clubstats"
	"github.com/chelhq/chel-stats/internal/domain/eamatch"
	"github.com/chelhq/chel-stats/internal/domain/playerstats"
	"github.com/chelhq/chel-stats/internal/platform/logging"
)

// StatsService folds combined matches into the season aggregates and serves
// the read side of the stats API.
type StatsService struct {
	clubRepo   clubstats.Repository
	playerRepo playerstats.Repository
	logger     *logging.Logger
	now        func() time.Time
}

func NewStatsService(clubRepo clubstats.Repository, playerRepo playerstats.Repository, logger *logging.Logger) *StatsService {
	if logger == nil {
		logger = logging.Default()
	}

	return &StatsService{
		clubRepo:   clubRepo,
		playerRepo: playerRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// ApplyCombinedMatch persists one combined match: a match line plus season
// accumulation per club, and season accumulation per player on each roster.
func (s *StatsService) ApplyCombinedMatch(ctx context.Context, combined eamatch.Match) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.ApplyCombinedMatch")
	defer span.End()

	if combined == nil {
		return fmt.Errorf("%w: combined match is required", ErrInvalidInput)
	}
	if s.clubRepo == nil || s.playerRepo == nil {
		return fmt.Errorf("%w: stats repositories are not configured", ErrDependencyUnavailable)
	}

	clubIDs := combined.ClubIDs()
	if len(clubIDs) == 0 {
		return fmt.Errorf("%w: combined match has no clubs", ErrInvalidInput)
	}

	playedAt := matchPlayedAt(combined, s.now())
	clubs := combined.Clubs()

	for _, clubID := range clubIDs {
		line := clubMatchLine(combined.ID(), clubID, clubIDs, clubs[clubID], playedAt)

		if err := s.clubRepo.UpsertMatchLine(ctx, line); err != nil {
			return fmt.Errorf("upsert match line club=%s match=%s: %w", clubID, line.MatchID, err)
		}
		if err := s.clubRepo.AccumulateSeasonStats(ctx, line); err != nil {
			return fmt.Errorf("accumulate club season stats club=%s: %w", clubID, err)
		}

		rows := playerSeasonRows(clubID, combined.PlayersByClub(clubID), playedAt)
		if len(rows) == 0 {
			s.logger.WarnContext(ctx, "combined match has no player records for club", "club_id", clubID, "match_id", combined.ID())
			continue
		}
		if err := s.playerRepo.AccumulateSeasonStats(ctx, rows); err != nil {
			return fmt.Errorf("accumulate player season stats club=%s: %w", clubID, err)
		}
	}

	return nil
}

func (s *StatsService) GetClubSeasonStats(ctx context.Context, clubID string) (clubstats.SeasonStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.GetClubSeasonStats")
	defer span.End()

	if clubID == "" {
		return clubstats.SeasonStats{}, fmt.Errorf("%w: club id is required", ErrInvalidInput)
	}

	stats, found, err := s.clubRepo.GetSeasonStats(ctx, clubID)
	if err != nil {
		return clubstats.SeasonStats{}, fmt.Errorf("get club season stats: %w", err)
	}
	if !found {
		return clubstats.SeasonStats{}, fmt.Errorf("%w: club=%s", ErrNotFound, clubID)
	}
	return stats, nil
}

func (s *StatsService) ListClubPlayers(ctx context.Context, clubID string) ([]playerstats.SeasonStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.ListClubPlayers")
	defer span.End()

	if clubID == "" {
		return nil, fmt.Errorf("%w: club id is required", ErrInvalidInput)
	}

	rows, err := s.playerRepo.ListByClub(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("list club players: %w", err)
	}
	return rows, nil
}

func clubMatchLine(matchID, clubID string, allClubIDs []string, club eamatch.Record, playedAt time.Time) clubstats.MatchLine {
	opponent := ""
	for _, other := range allClubIDs {
		if other != clubID {
			opponent = other
			break
		}
	}

	goals := club.Num("goals")
	if !club.Has("goals") {
		// Singleton sessions keep the raw snapshot shape where the score
		// can live under details.
		goals = club.Child("details").Num("goals")
	}

	return clubstats.MatchLine{
		MatchID:                matchID,
		ClubID:                 clubID,
		OpponentClubID:         opponent,
		Goals:                  int(goals),
		GoalsAgainst:           int(club.Num("goalsAgainst")),
		Shots:                  int(club.Num("shots")),
		PowerPlayGoals:         int(club.Num("ppg")),
		PowerPlayOpportunities: int(club.Num("ppo")),
		PassAttempts:           int(club.Num("passa")),
		PassCompletions:        int(club.Num("passc")),
		TimeOfAttackSeconds:    int(club.Num("toa")),
		PlayedAt:               playedAt,
	}
}

func playerSeasonRows(clubID string, roster map[string]eamatch.Record, playedAt time.Time) []playerstats.SeasonStats {
	rows := make([]playerstats.SeasonStats, 0, len(roster))
	for playerID, rec := range roster {
		np := eamatch.ResolvePlayer(rec)
		if playerID != "" {
			// The roster key is the combiner's merged player ID and wins
			// over whatever id field survived inside the record.
			np.PlayerID = playerID
		}

		row := playerstats.SeasonStats{
			ClubID:        clubID,
			PlayerID:      np.PlayerID,
			Persona:       np.Persona,
			Position:      np.Position,
			Category:      np.Category,
			GamesPlayed:   1,
			Goals:         np.Goals,
			Assists:       np.Assists,
			Shots:         np.Shots,
			Hits:          np.Hits,
			PIM:           np.PIM,
			PlusMinus:     np.PlusMinus,
			Blocks:        np.Blocks,
			Takeaways:     np.Takeaways,
			Giveaways:     np.Giveaways,
			FaceoffWins:   np.FaceoffWins,
			FaceoffLosses: np.FaceoffLosses,
			Passes:        np.Passes,
			PassAttempts:  np.PassAttempts,
			TOISeconds:    np.TOISeconds,
			Saves:         np.Saves,
			GoalsAgainst:  np.GoalsAgainst,
			ShotsAgainst:  np.ShotsAgainst,
			UpdatedAt:     playedAt,
		}
		if np.Category == eamatch.CategoryGoalie && np.ShotsAgainst > 0 && np.GoalsAgainst == 0 {
			row.Shutouts = 1
		}
		rows = append(rows, row)
	}
	return rows
}

func matchPlayedAt(m eamatch.Match, fallback time.Time) time.Time {
	ts := eamatch.Record(m).NumFirst("originalTimestamp", "timestamp")
	if ts <= 0 {
		return fallback
	}
	return time.Unix(int64(ts), 0).UTC()
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/chelhq/chel-stats/internal/domain/clubstats"
)

type ClubStatsRepository struct {
	mu      sync.RWMutex
	seasons map[string]clubstats.SeasonStats
	lines   map[string][]clubstats.MatchLine
}

func NewClubStatsRepository() *ClubStatsRepository {
	return &ClubStatsRepository{
		seasons: make(map[string]clubstats.SeasonStats),
		lines:   make(map[string][]clubstats.MatchLine),
	}
}

func (r *ClubStatsRepository) GetSeasonStats(_ context.Context, clubID string) (clubstats.SeasonStats, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats, ok := r.seasons[clubID]
	return stats, ok, nil
}

func (r *ClubStatsRepository) AccumulateSeasonStats(_ context.Context, line clubstats.MatchLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := r.seasons[line.ClubID]
	stats.ClubID = line.ClubID
	stats.GamesPlayed++
	stats.Goals += line.Goals
	stats.GoalsAgainst += line.GoalsAgainst
	stats.Shots += line.Shots
	stats.PowerPlayGoals += line.PowerPlayGoals
	stats.PowerPlayOpportunities += line.PowerPlayOpportunities
	stats.PassAttempts += line.PassAttempts
	stats.PassCompletions += line.PassCompletions
	stats.TimeOfAttackSeconds += line.TimeOfAttackSeconds
	if line.PlayedAt.After(stats.UpdatedAt) {
		stats.UpdatedAt = line.PlayedAt
	}
	r.seasons[line.ClubID] = stats

	return nil
}

func (r *ClubStatsRepository) ListMatchLines(_ context.Context, clubID string, limit int) ([]clubstats.MatchLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.lines[clubID]
	out := make([]clubstats.MatchLine, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlayedAt.After(out[j].PlayedAt)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}

	return out, nil
}

func (r *ClubStatsRepository) UpsertMatchLine(_ context.Context, line clubstats.MatchLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := r.lines[line.ClubID]
	for idx := range rows {
		if rows[idx].MatchID == line.MatchID {
			rows[idx] = line
			return nil
		}
	}
	r.lines[line.ClubID] = append(rows, line)

	return nil
}

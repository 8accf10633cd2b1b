package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/chelhq/chel-stats/internal/domain/playerstats"
)

type PlayerStatsRepository struct {
	mu   sync.RWMutex
	rows map[string]map[string]playerstats.SeasonStats
}

func NewPlayerStatsRepository() *PlayerStatsRepository {
	return &PlayerStatsRepository{
		rows: make(map[string]map[string]playerstats.SeasonStats),
	}
}

func (r *PlayerStatsRepository) AccumulateSeasonStats(_ context.Context, stats []playerstats.SeasonStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range stats {
		club := r.rows[item.ClubID]
		if club == nil {
			club = make(map[string]playerstats.SeasonStats)
			r.rows[item.ClubID] = club
		}

		key := strings.ToLower(strings.TrimSpace(item.Persona))
		existing, ok := club[key]
		if !ok {
			club[key] = item
			continue
		}

		existing.PlayerID = item.PlayerID
		existing.Persona = item.Persona
		existing.Position = item.Position
		existing.Category = item.Category
		existing.GamesPlayed += item.GamesPlayed
		existing.Goals += item.Goals
		existing.Assists += item.Assists
		existing.Shots += item.Shots
		existing.Hits += item.Hits
		existing.PIM += item.PIM
		existing.PlusMinus += item.PlusMinus
		existing.Blocks += item.Blocks
		existing.Takeaways += item.Takeaways
		existing.Giveaways += item.Giveaways
		existing.FaceoffWins += item.FaceoffWins
		existing.FaceoffLosses += item.FaceoffLosses
		existing.Passes += item.Passes
		existing.PassAttempts += item.PassAttempts
		existing.TOISeconds += item.TOISeconds
		existing.Saves += item.Saves
		existing.GoalsAgainst += item.GoalsAgainst
		existing.ShotsAgainst += item.ShotsAgainst
		existing.Shutouts += item.Shutouts
		if item.UpdatedAt.After(existing.UpdatedAt) {
			existing.UpdatedAt = item.UpdatedAt
		}
		club[key] = existing
	}

	return nil
}

func (r *PlayerStatsRepository) ListByClub(_ context.Context, clubID string) ([]playerstats.SeasonStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	club := r.rows[clubID]
	out := make([]playerstats.SeasonStats, 0, len(club))
	for _, item := range club {
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points() != out[j].Points() {
			return out[i].Points() > out[j].Points()
		}
		return strings.ToLower(out[i].Persona) < strings.ToLower(out[j].Persona)
	})

	return out, nil
}

func (r *PlayerStatsRepository) GetByClubAndPersona(_ context.Context, clubID, persona string) (playerstats.SeasonStats, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	club := r.rows[clubID]
	item, ok := club[strings.ToLower(strings.TrimSpace(persona))]
	return item, ok, nil
}

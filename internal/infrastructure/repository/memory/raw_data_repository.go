package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/chelhq/chel-stats/internal/domain/rawdata"
)

type RawDataRepository struct {
	mu     sync.RWMutex
	byClub map[string][]rawdata.Payload
}

func NewRawDataRepository() *RawDataRepository {
	return &RawDataRepository{
		byClub: make(map[string][]rawdata.Payload),
	}
}

func (r *RawDataRepository) UpsertMany(_ context.Context, items []rawdata.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		rows := r.byClub[item.ClubID]
		replaced := false
		for idx := range rows {
			if rows[idx].Source == item.Source &&
				rows[idx].EntityType == item.EntityType &&
				rows[idx].MatchID == item.MatchID {
				rows[idx] = item
				replaced = true
				break
			}
		}
		if !replaced {
			rows = append(rows, item)
		}
		r.byClub[item.ClubID] = rows
	}

	return nil
}

func (r *RawDataRepository) ListByClub(_ context.Context, clubID string, limit int) ([]rawdata.Payload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.byClub[clubID]
	out := make([]rawdata.Payload, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FetchedAt.After(out[j].FetchedAt)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}

	return out, nil
}

package playerstats

import "context"

type Repository interface {
	AccumulateSeasonStats(ctx context.Context, stats []SeasonStats) error
	ListByClub(ctx context.Context, clubID string) ([]SeasonStats, error)
	GetByClubAndPersona(ctx context.Context, clubID, persona string) (SeasonStats, bool, error)
}

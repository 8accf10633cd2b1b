package clubstats

import "context"

type Repository interface {
	GetSeasonStats(ctx context.Context, clubID string) (SeasonStats, bool, error)
	AccumulateSeasonStats(ctx context.Context, line MatchLine) error
	ListMatchLines(ctx context.Context, clubID string, limit int) ([]MatchLine, error)
	UpsertMatchLine(ctx context.Context, line MatchLine) error
}

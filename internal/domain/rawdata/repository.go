package rawdata

import "context"

type Repository interface {
	UpsertMany(ctx context.Context, items []Payload) error
	ListByClub(ctx context.Context, clubID string, limit int) ([]Payload, error)
}

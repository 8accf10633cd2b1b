package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/chelhq/chel-stats/internal/domain/rawdata"
	qb "github.com/chelhq/chel-stats/internal/platform/querybuilder"
)

type RawDataRepository struct {
	db *sqlx.DB
}

func NewRawDataRepository(db *sqlx.DB) *RawDataRepository {
	return &RawDataRepository{db: db}
}

func (r *RawDataRepository) UpsertMany(ctx context.Context, items []rawdata.Payload) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert raw payloads: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		insertModel := rawDataPayloadInsertModel{
			Source:      item.Source,
			EntityType:  item.EntityType,
			EntityKey:   item.EntityKey,
			ClubID:      item.ClubID,
			MatchID:     item.MatchID,
			Payload:     item.PayloadJSON,
			PayloadHash: item.PayloadHash,
			FetchedAt:   item.FetchedAt,
		}

		query, args, err := qb.InsertModel("raw_data_payloads", insertModel, `ON CONFLICT (source, entity_type, club_id, match_id)
DO UPDATE SET
    entity_key = EXCLUDED.entity_key,
    payload = EXCLUDED.payload,
    payload_hash = EXCLUDED.payload_hash,
    fetched_at = EXCLUDED.fetched_at,
    ingested_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert raw payload query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert raw payload club=%s match=%s: %w", item.ClubID, item.MatchID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert raw payloads: %w", err)
	}
	return nil
}

func (r *RawDataRepository) ListByClub(ctx context.Context, clubID string, limit int) ([]rawdata.Payload, error) {
	builder := qb.Select("*").From("raw_data_payloads").
		Where(qb.Eq("club_id", clubID)).
		OrderBy("fetched_at DESC", "id")
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list raw payloads query: %w", err)
	}

	var rows []rawDataPayloadTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list raw payloads: %w", err)
	}

	out := make([]rawdata.Payload, 0, len(rows))
	for _, row := range rows {
		out = append(out, rawdata.Payload{
			Source:      row.Source,
			EntityType:  row.EntityType,
			EntityKey:   row.EntityKey,
			ClubID:      row.ClubID,
			MatchID:     row.MatchID,
			PayloadJSON: row.Payload,
			PayloadHash: row.PayloadHash,
			FetchedAt:   row.FetchedAt,
		})
	}
	return out, nil
}

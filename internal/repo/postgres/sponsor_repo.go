package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

type SponsorRepo struct {
	pool *pgxpool.Pool
}

func NewSponsorRepo(pool *pgxpool.Pool) *SponsorRepo {
	return &SponsorRepo{pool: pool}
}

// ListActive returns date-window valid sponsor cards for the tenant in
// descending priority order.
func (r *SponsorRepo) ListActive(ctx context.Context, tenantID string, limit int, at time.Time) ([]model.SponsorCard, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id is required")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	id,
	tenant_id,
	title,
	asset_url,
	click_url,
	priority,
	starts_at,
	ends_at,
	created_at
FROM sponsor_cards
WHERE tenant_id = $1 AND starts_at <= $2 AND ends_at > $2
ORDER BY priority DESC, created_at DESC
LIMIT $3
`, tenantID, at.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list active sponsor cards: %w", err)
	}
	defer rows.Close()

	out := make([]model.SponsorCard, 0)
	for rows.Next() {
		var card model.SponsorCard
		if err := rows.Scan(
			&card.ID,
			&card.TenantID,
			&card.Title,
			&card.AssetURL,
			&card.ClickURL,
			&card.Priority,
			&card.StartsAt,
			&card.EndsAt,
			&card.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sponsor card: %w", err)
		}
		out = append(out, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sponsor cards: %w", err)
	}

	return out, nil
}

// PurgeExpiredBefore drops cards whose window closed before the cutoff.
func (r *SponsorRepo) PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM sponsor_cards
WHERE ends_at < $1
`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired sponsor cards: %w", err)
	}

	return tag.RowsAffected(), nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

type AnnouncementRepo struct {
	pool *pgxpool.Pool
}

func NewAnnouncementRepo(pool *pgxpool.Pool) *AnnouncementRepo {
	return &AnnouncementRepo{pool: pool}
}

func (r *AnnouncementRepo) ListActive(ctx context.Context, tenantID string, at time.Time) ([]model.Announcement, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id is required")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, tenant_id, title, body, starts_at, ends_at, created_at
FROM system_announcements
WHERE tenant_id = $1 AND starts_at <= $2 AND ends_at > $2
ORDER BY starts_at DESC
`, tenantID, at.UTC())
	if err != nil {
		return nil, fmt.Errorf("list active announcements: %w", err)
	}
	defer rows.Close()

	out := make([]model.Announcement, 0)
	for rows.Next() {
		var item model.Announcement
		if err := rows.Scan(
			&item.ID,
			&item.TenantID,
			&item.Title,
			&item.Body,
			&item.StartsAt,
			&item.EndsAt,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate announcements: %w", err)
	}

	return out, nil
}

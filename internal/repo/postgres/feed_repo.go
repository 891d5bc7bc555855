package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

// ErrSortedQueryUnsupported signals that the store cannot serve the sorted,
// keyset-paginated candidate query (typically a deployment missing the
// composite index migration). Callers treat it as a permanent in-session
// degradation, not a retryable failure.
var ErrSortedQueryUnsupported = errors.New("sorted feed query unsupported")

type FeedRepo struct {
	pool *pgxpool.Pool
}

func NewFeedRepo(pool *pgxpool.Pool) *FeedRepo {
	return &FeedRepo{pool: pool}
}

type FeedPageQuery struct {
	TenantID        string
	ViewerID        string
	HasCursor       bool
	CursorActiveAt  time.Time
	CursorProfileID string
	Limit           int
}

type profileRows interface {
	Close()
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// ListActivePage is the primary path: Active same-tenant profiles by recency
// of last_active_at, keyset cursor (last_active_at, id).
func (r *FeedRepo) ListActivePage(ctx context.Context, q FeedPageQuery) ([]model.Profile, error) {
	if q.TenantID == "" || q.ViewerID == "" {
		return nil, fmt.Errorf("invalid feed page query")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}

	var (
		rows profileRows
		err  error
	)
	if q.HasCursor {
		rows, err = r.pool.Query(ctx, `
SELECT `+profileColumns+`
FROM profiles
WHERE tenant_id = $1 AND status = 'active' AND id <> $2
  AND (last_active_at, id) < ($3, $4)
ORDER BY last_active_at DESC, id DESC
LIMIT $5
`, q.TenantID, q.ViewerID, q.CursorActiveAt.UTC(), q.CursorProfileID, q.Limit)
	} else {
		rows, err = r.pool.Query(ctx, `
SELECT `+profileColumns+`
FROM profiles
WHERE tenant_id = $1 AND status = 'active' AND id <> $2
ORDER BY last_active_at DESC, id DESC
LIMIT $3
`, q.TenantID, q.ViewerID, q.Limit)
	}
	if err != nil {
		if isSortedQueryUnsupported(err) {
			return nil, ErrSortedQueryUnsupported
		}
		return nil, fmt.Errorf("list feed page: %w", err)
	}
	defer rows.Close()

	return collectSortedPage(rows)
}

// collectSortedPage maps deferred execution errors too: pgx reports
// server-side failures through rows.Err() during iteration, not from Query,
// so the missing-index signal has to be caught on this path as well.
func collectSortedPage(rows profileRows) ([]model.Profile, error) {
	profiles, err := collectProfiles(rows)
	if err != nil {
		if isSortedQueryUnsupported(err) {
			return nil, ErrSortedQueryUnsupported
		}
		return nil, err
	}
	return profiles, nil
}

// ListActiveUnsorted is the degraded path: no ordering, no cursor, capped at
// the page size.
func (r *FeedRepo) ListActiveUnsorted(ctx context.Context, tenantID, viewerID string, limit int) ([]model.Profile, error) {
	if tenantID == "" || viewerID == "" {
		return nil, fmt.Errorf("invalid feed query")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+profileColumns+`
FROM profiles
WHERE tenant_id = $1 AND status = 'active' AND id <> $2
LIMIT $3
`, tenantID, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list feed unsorted: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows)
}

func collectProfiles(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]model.Profile, error) {
	out := make([]model.Profile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feed profile: %w", err)
		}
		out = append(out, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed profiles: %w", err)
	}

	return out, nil
}

func isSortedQueryUnsupported(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "42703", "42P01", "42704": // undefined column / table / object
		return true
	}
	return false
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

var (
	ErrRequestNotFound = errors.New("photo access request not found")
	ErrNoViewsLeft     = errors.New("no views left")
)

type PhotoRequestRepo struct {
	pool *pgxpool.Pool
}

func NewPhotoRequestRepo(pool *pgxpool.Pool) *PhotoRequestRepo {
	return &PhotoRequestRepo{pool: pool}
}

const photoRequestColumns = `
	id,
	requester_id,
	owner_id,
	photo_id,
	status,
	duration,
	expires_at,
	views_left,
	created_at,
	updated_at
`

func (r *PhotoRequestRepo) Insert(ctx context.Context, req model.PhotoAccessRequest) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if req.ID == "" || req.RequesterID == "" || req.OwnerID == "" || req.PhotoID == "" {
		return fmt.Errorf("invalid photo request payload")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO photo_requests (
	id,
	requester_id,
	owner_id,
	photo_id,
	status,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $6)
`, req.ID, req.RequesterID, req.OwnerID, req.PhotoID, req.Status, req.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert photo request: %w", err)
	}

	return nil
}

func (r *PhotoRequestRepo) Get(ctx context.Context, requestID string) (model.PhotoAccessRequest, error) {
	if requestID == "" {
		return model.PhotoAccessRequest{}, fmt.Errorf("request id is required")
	}
	if r.pool == nil {
		return model.PhotoAccessRequest{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+photoRequestColumns+`
FROM photo_requests
WHERE id = $1
LIMIT 1
`, requestID)

	req, err := scanPhotoRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PhotoAccessRequest{}, ErrRequestNotFound
		}
		return model.PhotoAccessRequest{}, fmt.Errorf("get photo request: %w", err)
	}

	return req, nil
}

// Latest returns the most recent request for the (requester, owner, photo)
// triple. Re-requesting after a rejection creates a new record, so only the
// newest one matters.
func (r *PhotoRequestRepo) Latest(ctx context.Context, requesterID, ownerID, photoID string) (model.PhotoAccessRequest, error) {
	if requesterID == "" || ownerID == "" || photoID == "" {
		return model.PhotoAccessRequest{}, fmt.Errorf("invalid photo request lookup")
	}
	if r.pool == nil {
		return model.PhotoAccessRequest{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+photoRequestColumns+`
FROM photo_requests
WHERE requester_id = $1 AND owner_id = $2 AND photo_id = $3
ORDER BY created_at DESC, id DESC
LIMIT 1
`, requesterID, ownerID, photoID)

	req, err := scanPhotoRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PhotoAccessRequest{}, ErrRequestNotFound
		}
		return model.PhotoAccessRequest{}, fmt.Errorf("latest photo request: %w", err)
	}

	return req, nil
}

// Decide applies the owner's decision. Approvals stamp duration-dependent
// fields; rejections clear them. Only pending requests can be decided.
func (r *PhotoRequestRepo) Decide(ctx context.Context, requestID string, status enums.RequestStatus, duration *enums.AccessDuration, expiresAt *time.Time, viewsLeft *int, at time.Time) error {
	if requestID == "" {
		return fmt.Errorf("request id is required")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE photo_requests
SET status = $2,
	duration = $3,
	expires_at = $4,
	views_left = $5,
	updated_at = $6
WHERE id = $1 AND status = 'pending'
`, requestID, status, duration, expiresAt, viewsLeft, at.UTC())
	if err != nil {
		return fmt.Errorf("decide photo request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}

	return nil
}

// ConsumeView decrements the one-time view counter behind a conditional
// guard, so concurrent renders cannot both succeed.
func (r *PhotoRequestRepo) ConsumeView(ctx context.Context, requestID string, at time.Time) (int, error) {
	if requestID == "" {
		return 0, fmt.Errorf("request id is required")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var left int
	err := r.pool.QueryRow(ctx, `
UPDATE photo_requests
SET views_left = views_left - 1, updated_at = $2
WHERE id = $1 AND status = 'approved' AND views_left > 0
RETURNING views_left
`, requestID, at.UTC()).Scan(&left)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNoViewsLeft
		}
		return 0, fmt.Errorf("consume view: %w", err)
	}

	return left, nil
}

func (r *PhotoRequestRepo) ListIncomingPending(ctx context.Context, ownerID string, limit int) ([]model.PhotoAccessRequest, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+photoRequestColumns+`
FROM photo_requests
WHERE owner_id = $1 AND status = 'pending'
ORDER BY created_at DESC
LIMIT $2
`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list incoming pending requests: %w", err)
	}
	defer rows.Close()

	out := make([]model.PhotoAccessRequest, 0)
	for rows.Next() {
		req, err := scanPhotoRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan photo request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photo requests: %w", err)
	}

	return out, nil
}

func scanPhotoRequest(row rowScanner) (model.PhotoAccessRequest, error) {
	var req model.PhotoAccessRequest
	if err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.OwnerID,
		&req.PhotoID,
		&req.Status,
		&req.Duration,
		&req.ExpiresAt,
		&req.ViewsLeft,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return model.PhotoAccessRequest{}, err
	}

	return req, nil
}

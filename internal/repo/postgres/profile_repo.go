package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

const profileColumns = `
	id,
	tenant_id,
	display_name,
	COALESCE(bio, ''),
	category,
	status,
	blocked,
	liked,
	gallery,
	legacy_photos,
	last_active_at,
	created_at,
	updated_at
`

func (r *ProfileRepo) Get(ctx context.Context, profileID string) (model.Profile, error) {
	if profileID == "" {
		return model.Profile{}, fmt.Errorf("profile id is required")
	}
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+profileColumns+`
FROM profiles
WHERE id = $1
LIMIT 1
`, profileID)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	return profile, nil
}

func (r *ProfileRepo) UpdateLastActive(ctx context.Context, profileID string, at time.Time) error {
	if profileID == "" {
		return fmt.Errorf("profile id is required")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE profiles
SET last_active_at = $2, updated_at = NOW()
WHERE id = $1
`, profileID, at.UTC()); err != nil {
		return fmt.Errorf("update last active: %w", err)
	}

	return nil
}

// ReplaceLegacyGallery stores the migrated structured gallery and clears the
// legacy photo list in one statement.
func (r *ProfileRepo) ReplaceLegacyGallery(ctx context.Context, profileID string, gallery []model.GalleryPhoto) error {
	if profileID == "" {
		return fmt.Errorf("profile id is required")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	payload, err := json.Marshal(gallery)
	if err != nil {
		return fmt.Errorf("marshal gallery: %w", err)
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE profiles
SET gallery = $2, legacy_photos = '{}', updated_at = NOW()
WHERE id = $1
`, profileID, payload); err != nil {
		return fmt.Errorf("replace legacy gallery: %w", err)
	}

	return nil
}

func (r *ProfileRepo) CountIncomingLikes(ctx context.Context, profileID string) (int, error) {
	if profileID == "" {
		return 0, fmt.Errorf("profile id is required")
	}
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM profiles
WHERE $1 = ANY(liked) AND status = 'active'
`, profileID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count incoming likes: %w", err)
	}

	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (model.Profile, error) {
	var (
		profile      model.Profile
		categoryRaw  []byte
		galleryRaw   []byte
		blocked      []string
		liked        []string
		legacyPhotos []string
	)

	if err := row.Scan(
		&profile.ID,
		&profile.TenantID,
		&profile.DisplayName,
		&profile.Bio,
		&categoryRaw,
		&profile.Status,
		&blocked,
		&liked,
		&galleryRaw,
		&legacyPhotos,
		&profile.LastActiveAt,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return model.Profile{}, err
	}

	if len(categoryRaw) > 0 {
		if err := json.Unmarshal(categoryRaw, &profile.Category); err != nil {
			return model.Profile{}, fmt.Errorf("unmarshal category: %w", err)
		}
	}
	if len(galleryRaw) > 0 {
		if err := json.Unmarshal(galleryRaw, &profile.Gallery); err != nil {
			return model.Profile{}, fmt.Errorf("unmarshal gallery: %w", err)
		}
	}
	profile.Blocked = blocked
	profile.Liked = liked
	profile.LegacyPhotos = legacyPhotos

	return profile, nil
}

package announcements

import (
	"context"
	"errors"
	"time"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

var ErrValidation = errors.New("validation error")

type Store interface {
	ListActive(ctx context.Context, tenantID string, at time.Time) ([]model.Announcement, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// ListActive returns announcements currently in their display window for
// the tenant, newest first as ordered by the store.
func (s *Service) ListActive(ctx context.Context, tenantID string) ([]model.Announcement, error) {
	if tenantID == "" {
		return nil, ErrValidation
	}
	return s.store.ListActive(ctx, tenantID, s.now().UTC())
}

package profiles

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/rules"
)

var ErrValidation = errors.New("validation error")

type Store interface {
	Get(ctx context.Context, profileID string) (model.Profile, error)
	ReplaceLegacyGallery(ctx context.Context, profileID string, gallery []model.GalleryPhoto) error
}

type Service struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

func NewService(store Store) *Service {
	return &Service{
		store:  store,
		now:    time.Now,
		logger: zap.NewNop(),
	}
}

func (s *Service) AttachLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Get loads a profile and migrates the legacy flat photo list into the
// structured gallery on first read. The write is best effort: a failed
// persist returns the migrated in-memory view and the next read retries.
func (s *Service) Get(ctx context.Context, profileID string) (model.Profile, error) {
	if profileID == "" {
		return model.Profile{}, ErrValidation
	}

	profile, err := s.store.Get(ctx, profileID)
	if err != nil {
		return model.Profile{}, err
	}

	if len(profile.LegacyPhotos) > 0 && len(profile.Gallery) == 0 {
		profile.Gallery = model.MigrateLegacyPhotos(profile.LegacyPhotos, s.now().UTC())
		profile.LegacyPhotos = nil
		if err := s.store.ReplaceLegacyGallery(ctx, profileID, profile.Gallery); err != nil {
			s.logger.Warn("legacy gallery migration not persisted",
				zap.String("profile_id", profileID), zap.Error(err))
		}
	}

	return profile, nil
}

// IsCompatible evaluates the mutual visibility rules between two stored
// profiles.
func (s *Service) IsCompatible(ctx context.Context, aID, bID string) (bool, error) {
	if aID == "" || bID == "" {
		return false, ErrValidation
	}

	a, err := s.store.Get(ctx, aID)
	if err != nil {
		return false, err
	}
	b, err := s.store.Get(ctx, bID)
	if err != nil {
		return false, err
	}

	return rules.Compatible(a, b), nil
}

package presence

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

var ErrValidation = errors.New("validation error")

type ProfileStore interface {
	UpdateLastActive(ctx context.Context, profileID string, at time.Time) error
}

type Config struct {
	OnlineWindow      time.Duration
	HeartbeatDebounce time.Duration
}

type Service struct {
	store  ProfileStore
	cfg    Config
	now    func() time.Time
	logger *zap.Logger

	mu        sync.Mutex
	lastWrite map[string]time.Time
}

func NewService(store ProfileStore, cfg Config) *Service {
	if cfg.OnlineWindow <= 0 {
		cfg.OnlineWindow = 5 * time.Minute
	}
	if cfg.HeartbeatDebounce <= 0 {
		cfg.HeartbeatDebounce = 5 * time.Minute
	}

	return &Service{
		store:     store,
		cfg:       cfg,
		now:       time.Now,
		logger:    zap.NewNop(),
		lastWrite: make(map[string]time.Time),
	}
}

func (s *Service) AttachLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *Service) IsOnline(profile model.Profile) bool {
	return s.IsOnlineAt(profile, s.now())
}

func (s *Service) IsOnlineAt(profile model.Profile, at time.Time) bool {
	if profile.LastActiveAt.IsZero() {
		return false
	}
	return at.Sub(profile.LastActiveAt) < s.cfg.OnlineWindow
}

// Heartbeat records screen activity. Writes are debounced per profile with an
// in-memory last-write map to avoid write amplification, and store failures
// are logged and swallowed: presence is best-effort.
func (s *Service) Heartbeat(ctx context.Context, profileID string) error {
	if profileID == "" {
		return ErrValidation
	}

	now := s.now().UTC()
	if !s.shouldWrite(profileID, now) {
		return nil
	}

	if s.store == nil {
		return nil
	}
	if err := s.store.UpdateLastActive(ctx, profileID, now); err != nil {
		s.logger.Warn("heartbeat write failed",
			zap.Error(err),
			zap.String("profile_id", profileID),
		)
		s.forgetWrite(profileID)
	}

	return nil
}

func (s *Service) shouldWrite(profileID string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.lastWrite[profileID]
	if ok && now.Sub(last) < s.cfg.HeartbeatDebounce {
		return false
	}
	s.lastWrite[profileID] = now
	return true
}

// forgetWrite lets a failed write be retried on the next heartbeat instead of
// waiting out the debounce window.
func (s *Service) forgetWrite(profileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastWrite, profileID)
}

package tenants

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
	pgrepo "github.com/DaniDitu/LoveLink-sub000/internal/repo/postgres"
)

var ErrValidation = errors.New("validation error")

type Store interface {
	Get(ctx context.Context, tenantID string) (model.Tenant, error)
}

type PolicyCache interface {
	Get(ctx context.Context, tenantID string) (model.TenantChatPolicy, bool, error)
	Set(ctx context.Context, tenantID string, policy model.TenantChatPolicy) error
}

type Config struct {
	DefaultMaxConsecutive int
}

type Service struct {
	store  Store
	cache  PolicyCache
	cfg    Config
	logger *zap.Logger
}

func NewService(store Store, cfg Config) *Service {
	if cfg.DefaultMaxConsecutive <= 0 {
		cfg.DefaultMaxConsecutive = 2
	}

	return &Service{
		store:  store,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
}

func (s *Service) AttachCache(cache PolicyCache) {
	s.cache = cache
}

func (s *Service) AttachLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// ChatPolicy resolves the tenant's throttle policy, serving from cache when
// possible. An unknown tenant gets the default policy: cap applies to
// everyone. Cache failures are non-critical and fall through to the store.
func (s *Service) ChatPolicy(ctx context.Context, tenantID string) (model.TenantChatPolicy, error) {
	if tenantID == "" {
		return model.TenantChatPolicy{}, ErrValidation
	}

	if s.cache != nil {
		policy, hit, err := s.cache.Get(ctx, tenantID)
		if err != nil {
			s.logger.Debug("policy cache read failed", zap.Error(err), zap.String("tenant_id", tenantID))
		} else if hit {
			return policy, nil
		}
	}

	policy := model.TenantChatPolicy{MaxConsecutive: s.cfg.DefaultMaxConsecutive}
	if s.store != nil {
		tenant, err := s.store.Get(ctx, tenantID)
		switch {
		case err == nil:
			policy = tenant.ChatPolicy
			if policy.MaxConsecutive <= 0 {
				policy.MaxConsecutive = s.cfg.DefaultMaxConsecutive
			}
		case errors.Is(err, pgrepo.ErrTenantNotFound):
			// keep defaults
		default:
			return model.TenantChatPolicy{}, err
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, tenantID, policy); err != nil {
			s.logger.Debug("policy cache write failed", zap.Error(err), zap.String("tenant_id", tenantID))
		}
	}

	return policy, nil
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

// PolicyCacheRepo caches per-tenant chat policies so every send does not hit
// the tenants collection.
type PolicyCacheRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewPolicyCacheRepo(client *goredis.Client, ttl time.Duration) *PolicyCacheRepo {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PolicyCacheRepo{client: client, ttl: ttl}
}

func (r *PolicyCacheRepo) Get(ctx context.Context, tenantID string) (model.TenantChatPolicy, bool, error) {
	if r.client == nil {
		return model.TenantChatPolicy{}, false, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, policyKey(tenantID)).Bytes()
	if err == goredis.Nil {
		return model.TenantChatPolicy{}, false, nil
	}
	if err != nil {
		return model.TenantChatPolicy{}, false, fmt.Errorf("get cached policy: %w", err)
	}

	var policy model.TenantChatPolicy
	if err := json.Unmarshal(raw, &policy); err != nil {
		return model.TenantChatPolicy{}, false, fmt.Errorf("unmarshal cached policy: %w", err)
	}

	return policy, true, nil
}

func (r *PolicyCacheRepo) Set(ctx context.Context, tenantID string, policy model.TenantChatPolicy) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	raw, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("marshal policy: %w", err)
	}

	if err := r.client.Set(ctx, policyKey(tenantID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache policy: %w", err)
	}

	return nil
}

func policyKey(tenantID string) string {
	return "tenant:policy:" + tenantID
}

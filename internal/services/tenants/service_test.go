package tenants

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
	pgrepo "github.com/DaniDitu/LoveLink-sub000/internal/repo/postgres"
	redrepo "github.com/DaniDitu/LoveLink-sub000/internal/repo/redis"
)

type tenantStoreStub struct {
	tenant model.Tenant
	err    error
	calls  int
}

func (s *tenantStoreStub) Get(_ context.Context, _ string) (model.Tenant, error) {
	s.calls++
	return s.tenant, s.err
}

func newCache(t *testing.T) *redrepo.PolicyCacheRepo {
	t.Helper()
	mini := miniredis.RunT(t)
	client := redrepo.NewClient(mini.Addr(), "", 0)
	return redrepo.NewPolicyCacheRepo(client, time.Minute)
}

func TestChatPolicyServesFromCacheOnSecondCall(t *testing.T) {
	exempt := enums.CategoryCouple
	store := &tenantStoreStub{tenant: model.Tenant{
		ID: "t1",
		ChatPolicy: model.TenantChatPolicy{
			MaxConsecutive: 4,
			ExemptCategory: &exempt,
		},
	}}

	svc := NewService(store, Config{})
	svc.AttachCache(newCache(t))

	first, err := svc.ChatPolicy(context.Background(), "t1")
	if err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	second, err := svc.ChatPolicy(context.Background(), "t1")
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}

	if store.calls != 1 {
		t.Fatalf("expected a single store hit, got %d", store.calls)
	}
	if first.MaxConsecutive != 4 || second.MaxConsecutive != 4 {
		t.Fatalf("unexpected caps: %d / %d", first.MaxConsecutive, second.MaxConsecutive)
	}
	if second.ExemptCategory == nil || *second.ExemptCategory != enums.CategoryCouple {
		t.Fatalf("exempt category lost in cache round-trip: %+v", second)
	}
}

func TestChatPolicyUnknownTenantGetsDefaults(t *testing.T) {
	store := &tenantStoreStub{err: pgrepo.ErrTenantNotFound}
	svc := NewService(store, Config{DefaultMaxConsecutive: 2})

	policy, err := svc.ChatPolicy(context.Background(), "missing")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if policy.MaxConsecutive != 2 {
		t.Fatalf("unexpected default cap: %d", policy.MaxConsecutive)
	}
	if policy.ExemptCategory != nil {
		t.Fatal("default policy must not have an exemption")
	}
}

func TestChatPolicyZeroCapFallsBackToDefault(t *testing.T) {
	store := &tenantStoreStub{tenant: model.Tenant{ID: "t1"}}
	svc := NewService(store, Config{DefaultMaxConsecutive: 3})

	policy, err := svc.ChatPolicy(context.Background(), "t1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if policy.MaxConsecutive != 3 {
		t.Fatalf("unexpected cap: %d", policy.MaxConsecutive)
	}
}

func TestChatPolicyValidation(t *testing.T) {
	svc := NewService(&tenantStoreStub{}, Config{})
	if _, err := svc.ChatPolicy(context.Background(), ""); err != ErrValidation {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

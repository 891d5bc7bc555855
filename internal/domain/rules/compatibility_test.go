package rules

import (
	"testing"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

func singleProfile(id, tenant string) model.Profile {
	return model.Profile{
		ID:       id,
		TenantID: tenant,
		Category: model.Category{
			Kind:   enums.CategorySingle,
			Single: &model.SingleDetails{Gender: "f"},
		},
		Status: enums.ProfileStatusActive,
	}
}

func TestCompatibleDifferentTenants(t *testing.T) {
	a := singleProfile("a", "t1")
	b := singleProfile("b", "t2")

	if Compatible(a, b) {
		t.Fatal("profiles from different tenants must not be compatible")
	}
}

func TestCompatibleEmptyTenant(t *testing.T) {
	a := singleProfile("a", "")
	b := singleProfile("b", "")

	if Compatible(a, b) {
		t.Fatal("profiles without a tenant must not be compatible")
	}
}

func TestCompatibleSelf(t *testing.T) {
	a := singleProfile("a", "t1")

	if Compatible(a, a) {
		t.Fatal("a profile must not be compatible with itself")
	}
}

func TestCompatibleUndeclaredCategory(t *testing.T) {
	a := singleProfile("a", "t1")
	b := model.Profile{ID: "b", TenantID: "t1"}

	if Compatible(a, b) || Compatible(b, a) {
		t.Fatal("undeclared category must not be compatible")
	}
}

func TestCompatibleCategoryKindWithoutDetails(t *testing.T) {
	a := singleProfile("a", "t1")
	b := model.Profile{
		ID:       "b",
		TenantID: "t1",
		Category: model.Category{Kind: enums.CategoryCouple},
	}

	if Compatible(a, b) {
		t.Fatal("couple kind without details must not count as declared")
	}
}

func TestCompatibleBlockedEitherDirection(t *testing.T) {
	a := singleProfile("a", "t1")
	b := singleProfile("b", "t1")

	a.Blocked = []string{"b"}
	if Compatible(a, b) || Compatible(b, a) {
		t.Fatal("block by a must fail both directions")
	}

	a.Blocked = nil
	b.Blocked = []string{"a"}
	if Compatible(a, b) || Compatible(b, a) {
		t.Fatal("block by b must fail both directions")
	}
}

func TestCompatibleHappyPath(t *testing.T) {
	a := singleProfile("a", "t1")
	b := singleProfile("b", "t1")

	if !Compatible(a, b) {
		t.Fatal("expected profiles to be compatible")
	}
}

func TestAndPredicate(t *testing.T) {
	yes := Predicate(func(_, _ model.Profile) bool { return true })
	no := Predicate(func(_, _ model.Profile) bool { return false })

	if !And(yes, nil, yes)(model.Profile{}, model.Profile{}) {
		t.Fatal("all-true chain should pass")
	}
	if And(yes, no)(model.Profile{}, model.Profile{}) {
		t.Fatal("chain with a failing predicate should fail")
	}
}

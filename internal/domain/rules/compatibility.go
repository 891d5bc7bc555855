package rules

import (
	"strings"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
)

// Compatible reports whether two profiles may see or like each other.
// Rules are checked in order and the first failing one wins:
// declared categories, same non-empty tenant, distinct ids, no block in
// either direction. Taste filtering is not done here; callers layer that
// on as a Predicate.
func Compatible(a, b model.Profile) bool {
	if !a.Category.Declared() || !b.Category.Declared() {
		return false
	}
	if strings.TrimSpace(a.TenantID) == "" || a.TenantID != b.TenantID {
		return false
	}
	if a.ID == b.ID {
		return false
	}
	if a.HasBlocked(b.ID) || b.HasBlocked(a.ID) {
		return false
	}
	return true
}

// Predicate is the swappable taste/preference layer applied on top of
// Compatible by feed and gallery callers.
type Predicate func(viewer, candidate model.Profile) bool

func And(preds ...Predicate) Predicate {
	return func(viewer, candidate model.Profile) bool {
		for _, pred := range preds {
			if pred == nil {
				continue
			}
			if !pred(viewer, candidate) {
				return false
			}
		}
		return true
	}
}

package model

import (
	"time"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
)

type Tenant struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	ChatPolicy TenantChatPolicy `json:"chat_policy"`
	CreatedAt  time.Time        `json:"created_at"`
}

// TenantChatPolicy caps consecutive unanswered messages. ExemptCategory, if
// set, may message without limit. ModeratorCategory, if set, may delete any
// message carrying media.
type TenantChatPolicy struct {
	MaxConsecutive    int                 `json:"max_consecutive"`
	ExemptCategory    *enums.CategoryKind `json:"exempt_category,omitempty"`
	ModeratorCategory *enums.CategoryKind `json:"moderator_category,omitempty"`
}

func (p TenantChatPolicy) Exempt(kind enums.CategoryKind) bool {
	return p.ExemptCategory != nil && *p.ExemptCategory == kind
}

func (p TenantChatPolicy) Moderator(kind enums.CategoryKind) bool {
	return p.ModeratorCategory != nil && *p.ModeratorCategory == kind
}

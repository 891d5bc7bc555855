package model

import (
	"time"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
)

type Profile struct {
	ID           string              `json:"id"`
	TenantID     string              `json:"tenant_id"`
	DisplayName  string              `json:"display_name"`
	Bio          string              `json:"bio"`
	Category     Category            `json:"category"`
	Status       enums.ProfileStatus `json:"status"`
	Blocked      []string            `json:"blocked"`
	Liked        []string            `json:"liked"`
	Gallery      []GalleryPhoto      `json:"gallery"`
	LegacyPhotos []string            `json:"legacy_photos,omitempty"`
	LastActiveAt time.Time           `json:"last_active_at"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// Category is a tagged variant: exactly one of Single or Couple is set,
// matching Kind.
type Category struct {
	Kind   enums.CategoryKind `json:"kind"`
	Single *SingleDetails     `json:"single,omitempty"`
	Couple *CoupleDetails     `json:"couple,omitempty"`
}

type SingleDetails struct {
	Gender string `json:"gender"`
}

type CoupleDetails struct {
	PartnerOne PartnerDetails `json:"partner_one"`
	PartnerTwo PartnerDetails `json:"partner_two"`
}

type PartnerDetails struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

func (c Category) Declared() bool {
	switch c.Kind {
	case enums.CategorySingle:
		return c.Single != nil
	case enums.CategoryCouple:
		return c.Couple != nil
	}
	return false
}

func (p Profile) HasBlocked(profileID string) bool {
	for _, id := range p.Blocked {
		if id == profileID {
			return true
		}
	}
	return false
}

func (p Profile) HasLiked(profileID string) bool {
	for _, id := range p.Liked {
		if id == profileID {
			return true
		}
	}
	return false
}

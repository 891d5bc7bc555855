package model

import (
	"time"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
)

// PhotoAccessRequest is owned by neither side outright: the requester creates
// it, only the owner decides it. Effective accessibility is recomputed at
// read time from these fields plus the clock.
type PhotoAccessRequest struct {
	ID          string                `json:"id"`
	RequesterID string                `json:"requester_id"`
	OwnerID     string                `json:"owner_id"`
	PhotoID     string                `json:"photo_id"`
	Status      enums.RequestStatus   `json:"status"`
	Duration    *enums.AccessDuration `json:"duration,omitempty"`
	ExpiresAt   *time.Time            `json:"expires_at,omitempty"`
	ViewsLeft   *int                  `json:"views_left,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

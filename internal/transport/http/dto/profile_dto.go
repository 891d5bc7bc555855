package dto

import "time"

type ProfileResponse struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Bio         string     `json:"bio,omitempty"`
	Category    string     `json:"category"`
	Online      bool       `json:"online"`
	LastActive  *time.Time `json:"last_active_at,omitempty"`
}

type CompatibilityResponse struct {
	Compatible bool `json:"compatible"`
}

type PresenceResponse struct {
	ProfileID string `json:"profile_id"`
	Online    bool   `json:"online"`
}

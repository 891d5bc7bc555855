package model

import "time"

type SponsorCard struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Title     string    `json:"title"`
	AssetURL  string    `json:"asset_url"`
	ClickURL  string    `json:"click_url"`
	Priority  int       `json:"priority"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (c SponsorCard) ActiveAt(at time.Time) bool {
	return !at.Before(c.StartsAt) && at.Before(c.EndsAt)
}

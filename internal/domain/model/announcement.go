package model

import "time"

type Announcement struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (a Announcement) ActiveAt(at time.Time) bool {
	return !at.Before(a.StartsAt) && at.Before(a.EndsAt)
}

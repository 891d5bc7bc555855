package dto

import "time"

type AnnouncementResponse struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type AnnouncementsResponse struct {
	Announcements []AnnouncementResponse `json:"announcements"`
}

type SignalCountResponse struct {
	Count int `json:"count"`
}

type CreateReportRequest struct {
	TargetID string `json:"target_id"`
	Reason   string `json:"reason"`
}

type ReportResponse struct {
	ID        string    `json:"id"`
	TargetID  string    `json:"target_id"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

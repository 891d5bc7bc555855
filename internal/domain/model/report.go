package model

import "time"

type Report struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	ReporterID string    `json:"reporter_id"`
	TargetID   string    `json:"target_id"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	ReportStatusPending  = "pending"
	ReportStatusResolved = "resolved"
)

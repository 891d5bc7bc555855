package dto

import "time"

type SendMessageRequest struct {
	ReceiverID   string `json:"receiver_id"`
	Text         string `json:"text,omitempty"`
	ImageKey     string `json:"image_key,omitempty"`
	SelfDestruct string `json:"self_destruct,omitempty"`
}

type MessageResponse struct {
	ID           string     `json:"id"`
	SenderID     string     `json:"sender_id"`
	ReceiverID   string     `json:"receiver_id"`
	Text         string     `json:"text,omitempty"`
	ImageKey     string     `json:"image_key,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
	SelfDestruct string     `json:"self_destruct,omitempty"`
	SentAt       time.Time  `json:"sent_at"`
	IsRead       bool       `json:"is_read"`
	ViewedAt     *time.Time `json:"viewed_at,omitempty"`
}

type ThreadResponse struct {
	Messages []MessageResponse `json:"messages"`
}

type CanSendResponse struct {
	Allowed   bool `json:"allowed"`
	RunLength int  `json:"run_length"`
	RunCap    int  `json:"run_cap"`
	Exempt    bool `json:"exempt,omitempty"`
}

type ThreadSummaryEntry struct {
	PartnerID   string `json:"partner_id"`
	UnreadCount int    `json:"unread_count"`
}

type ThreadSummaryResponse struct {
	Threads     []ThreadSummaryEntry `json:"threads"`
	UnreadTotal int                  `json:"unread_total"`
}

type AttachmentStateResponse struct {
	MessageID        string `json:"message_id"`
	State            string `json:"state"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	URL              string `json:"url,omitempty"`
}

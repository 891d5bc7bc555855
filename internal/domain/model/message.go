package model

import (
	"time"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
)

type Message struct {
	ID           string             `json:"id"`
	TenantID     string             `json:"tenant_id"`
	SenderID     string             `json:"sender_id"`
	ReceiverID   string             `json:"receiver_id"`
	Text         string             `json:"text"`
	ImageKey     string             `json:"image_key,omitempty"`
	SelfDestruct enums.SelfDestruct `json:"self_destruct,omitempty"`
	SentAt       time.Time          `json:"sent_at"`
	IsRead       bool               `json:"is_read"`
	IsDeleted    bool               `json:"is_deleted"`
	// ViewedAt is stamped at most once, by the receiver, on first render of
	// the attachment. Immutable afterwards.
	ViewedAt *time.Time `json:"viewed_at,omitempty"`
}

func (m Message) HasImage() bool {
	return m.ImageKey != ""
}

func (m Message) PartnerOf(profileID string) string {
	if m.SenderID == profileID {
		return m.ReceiverID
	}
	return m.SenderID
}

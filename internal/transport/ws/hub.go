package ws

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
	signalssvc "github.com/DaniDitu/LoveLink-sub000/internal/services/signals"
)

// Event is the single frame shape pushed to clients. Type selects which of
// the optional fields are set.
type Event struct {
	Type      string              `json:"type"`
	Message   *model.Message      `json:"message,omitempty"`
	MessageID string              `json:"message_id,omitempty"`
	PartnerID string              `json:"partner_id,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
	Status    string              `json:"status,omitempty"`
	Count     *int                `json:"count,omitempty"`
	Item      *model.Announcement `json:"announcement,omitempty"`
	Timestamp int64               `json:"timestamp,omitempty"`
}

const (
	EventMessageNew     = "message_new"
	EventMessageDeleted = "message_deleted"
	EventUnreadBadge    = "unread_badge"
	EventLikeBadge      = "like_badge"
	EventReportBadge    = "report_badge"
	EventPhotoRequest   = "photo_request"
	EventPhotoDecision  = "photo_decision"
	EventAnnouncement   = "announcement"
)

// conn is the writable side of one client connection. *websocket.Conn
// satisfies it; tests substitute a recorder.
type conn interface {
	WriteJSON(v any) error
	Close() error
}

type client struct {
	conn      conn
	tenantID  string
	moderator bool
	// activeThread is the partner whose conversation is currently on screen.
	// At most one per connection; switching replaces it.
	activeThread string
	writeMu      sync.Mutex
}

// Hub tracks one connection per profile and routes domain events to the
// subscriptions each connection holds. A reconnect replaces the previous
// connection outright.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	logger  *zap.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
		logger:  zap.NewNop(),
	}
}

func (h *Hub) AttachLogger(logger *zap.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

func (h *Hub) Register(profileID, tenantID string, moderator bool, c conn) {
	h.mu.Lock()
	previous := h.clients[profileID]
	h.clients[profileID] = &client{conn: c, tenantID: tenantID, moderator: moderator}
	h.mu.Unlock()

	if previous != nil {
		_ = previous.conn.Close()
	}
	h.logger.Debug("ws connection registered", zap.String("profile_id", profileID))
}

func (h *Hub) Unregister(profileID string, c conn) {
	h.mu.Lock()
	current, ok := h.clients[profileID]
	// Only drop the entry if it still belongs to this connection; a reconnect
	// may already have replaced it.
	if ok && current.conn == c {
		delete(h.clients, profileID)
	}
	h.mu.Unlock()

	_ = c.Close()
}

// SubscribeThread switches the connection's active conversation. An empty
// partner ID clears the subscription.
func (h *Hub) SubscribeThread(profileID, partnerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[profileID]; ok {
		c.activeThread = partnerID
	}
}

func (h *Hub) send(profileID string, event Event) {
	h.mu.RLock()
	c, ok := h.clients[profileID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	c.writeMu.Lock()
	err := c.conn.WriteJSON(event)
	c.writeMu.Unlock()
	if err != nil {
		h.logger.Debug("ws write failed, dropping connection",
			zap.String("profile_id", profileID), zap.Error(err))
		h.Unregister(profileID, c.conn)
	}
}

func (h *Hub) threadActive(profileID, partnerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[profileID]
	return ok && c.activeThread == partnerID
}

// MessageStored fans a stored message out to the receiver: the full message
// when that conversation is on screen, an unread badge nudge otherwise.
func (h *Hub) MessageStored(msg model.Message) {
	if h.threadActive(msg.ReceiverID, msg.SenderID) {
		m := msg
		h.send(msg.ReceiverID, Event{
			Type:      EventMessageNew,
			Message:   &m,
			Timestamp: time.Now().UnixMilli(),
		})
		return
	}
	h.send(msg.ReceiverID, Event{Type: EventUnreadBadge, PartnerID: msg.SenderID})
}

func (h *Hub) MessageDeleted(msg model.Message) {
	for _, partyID := range []string{msg.SenderID, msg.ReceiverID} {
		if h.threadActive(partyID, msg.PartnerOf(partyID)) {
			h.send(partyID, Event{
				Type:      EventMessageDeleted,
				MessageID: msg.ID,
				PartnerID: msg.PartnerOf(partyID),
			})
		}
	}
}

func (h *Hub) PhotoRequestCreated(req model.PhotoAccessRequest) {
	h.send(req.OwnerID, Event{
		Type:      EventPhotoRequest,
		RequestID: req.ID,
		PartnerID: req.RequesterID,
	})
}

func (h *Hub) PhotoRequestDecided(req model.PhotoAccessRequest) {
	h.send(req.RequesterID, Event{
		Type:      EventPhotoDecision,
		RequestID: req.ID,
		Status:    string(req.Status),
	})
}

func (h *Hub) PushLikeCount(profileID string, count int) {
	c := count
	h.send(profileID, Event{Type: EventLikeBadge, Count: &c})
}

func (h *Hub) PushReportCount(profileID string, count int) {
	c := count
	h.send(profileID, Event{Type: EventReportBadge, Count: &c})
}

func (h *Hub) Subscribers() []signalssvc.Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]signalssvc.Subscriber, 0, len(h.clients))
	for profileID, c := range h.clients {
		out = append(out, signalssvc.Subscriber{
			ProfileID: profileID,
			TenantID:  c.tenantID,
			Moderator: c.moderator,
		})
	}
	return out
}

// BroadcastAnnouncement pushes an announcement to every connection in its
// tenant.
func (h *Hub) BroadcastAnnouncement(a model.Announcement) {
	h.mu.RLock()
	targets := make([]string, 0, len(h.clients))
	for profileID, c := range h.clients {
		if c.tenantID == a.TenantID {
			targets = append(targets, profileID)
		}
	}
	h.mu.RUnlock()

	item := a
	for _, profileID := range targets {
		h.send(profileID, Event{Type: EventAnnouncement, Item: &item})
	}
}

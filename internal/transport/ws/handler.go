package ws

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	authsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/auth"
	profilessvc "github.com/DaniDitu/LoveLink-sub000/internal/services/profiles"
	tenantssvc "github.com/DaniDitu/LoveLink-sub000/internal/services/tenants"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// clientCommand is the only inbound frame: subscribe to (or leave) a
// conversation.
type clientCommand struct {
	Type      string `json:"type"`
	PartnerID string `json:"partner_id,omitempty"`
}

type Handler struct {
	hub      *Hub
	jwt      *authsvc.JWTManager
	profiles *profilessvc.Service
	tenants  *tenantssvc.Service
	logger   *zap.Logger
}

func NewHandler(hub *Hub, jwt *authsvc.JWTManager, profiles *profilessvc.Service, tenants *tenantssvc.Service) *Handler {
	return &Handler{
		hub:      hub,
		jwt:      jwt,
		profiles: profiles,
		tenants:  tenants,
		logger:   zap.NewNop(),
	}
}

func (h *Handler) AttachLogger(logger *zap.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// Handle upgrades the connection. Browsers cannot set headers on websocket
// dials, so the token arrives as a query parameter.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		http.Error(w, "token required", http.StatusUnauthorized)
		return
	}

	claims, err := h.jwt.ParseAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	moderator := false
	if h.profiles != nil && h.tenants != nil {
		profile, perr := h.profiles.Get(r.Context(), claims.ProfileID)
		policy, terr := h.tenants.ChatPolicy(r.Context(), claims.TenantID)
		if perr == nil && terr == nil {
			moderator = policy.Moderator(profile.Category.Kind)
		}
	}

	socket, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("ws upgrade failed", zap.Error(err))
		return
	}

	h.hub.Register(claims.ProfileID, claims.TenantID, moderator, socket)
	defer h.hub.Unregister(claims.ProfileID, socket)

	for {
		var cmd clientCommand
		if err := socket.ReadJSON(&cmd); err != nil {
			return
		}
		switch cmd.Type {
		case "subscribe_thread":
			h.hub.SubscribeThread(claims.ProfileID, cmd.PartnerID)
		case "unsubscribe_thread":
			h.hub.SubscribeThread(claims.ProfileID, "")
		}
	}
}

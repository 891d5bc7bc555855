package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	announcementssvc "github.com/DaniDitu/LoveLink-sub000/internal/services/announcements"
	authsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/auth"
	chatsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/chat"
	ephemeralsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/ephemeral"
	feedsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/feed"
	photosvc "github.com/DaniDitu/LoveLink-sub000/internal/services/photoaccess"
	presencesvc "github.com/DaniDitu/LoveLink-sub000/internal/services/presence"
	profilessvc "github.com/DaniDitu/LoveLink-sub000/internal/services/profiles"
	signalssvc "github.com/DaniDitu/LoveLink-sub000/internal/services/signals"
	tenantssvc "github.com/DaniDitu/LoveLink-sub000/internal/services/tenants"
	"github.com/DaniDitu/LoveLink-sub000/internal/transport/http/handlers"
	wstransport "github.com/DaniDitu/LoveLink-sub000/internal/transport/ws"
)

type Dependencies struct {
	JWTManager           *authsvc.JWTManager
	FeedService          *feedsvc.Service
	ChatService          *chatsvc.Service
	EphemeralService     *ephemeralsvc.Service
	PhotoAccessService   *photosvc.Service
	PresenceService      *presencesvc.Service
	ProfileService       *profilessvc.Service
	AnnouncementsService *announcementssvc.Service
	SignalsService       *signalssvc.Service
	TenantsService       *tenantssvc.Service
	Hub                  *wstransport.Hub
	Logger               *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	feedHandler := handlers.NewFeedHandler(deps.FeedService)
	chatHandler := handlers.NewChatHandler(deps.ChatService)
	attachmentHandler := handlers.NewAttachmentHandler(deps.EphemeralService)
	photoHandler := handlers.NewPhotoAccessHandler(deps.PhotoAccessService)
	presenceHandler := handlers.NewPresenceHandler(deps.PresenceService, deps.ProfileService)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService, deps.PresenceService)
	announcementsHandler := handlers.NewAnnouncementsHandler(deps.AnnouncementsService)
	signalsHandler := handlers.NewSignalsHandler(deps.SignalsService, deps.ProfileService, deps.TenantsService)
	wsHandler := wstransport.NewHandler(deps.Hub, deps.JWTManager, deps.ProfileService, deps.TenantsService)
	wsHandler.AttachLogger(deps.Logger)

	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)

	r.Get("/healthz", healthHandler.Handle)
	r.Get("/ws", wsHandler.Handle)

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMW)

		r.Get("/feed", feedHandler.Handle)

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", chatHandler.Send)
			r.Get("/summary", chatHandler.Summary)
			r.Get("/thread/{partnerID}", chatHandler.Thread)
			r.Post("/thread/{partnerID}/read", chatHandler.MarkRead)
			r.Get("/can-send/{partnerID}", chatHandler.CanSend)
			r.Delete("/{messageID}", chatHandler.Delete)
			r.Post("/{messageID}/view", attachmentHandler.MarkViewed)
			r.Get("/{messageID}/attachment", attachmentHandler.Status)
		})

		r.Route("/photo-requests", func(r chi.Router) {
			r.Post("/", photoHandler.Request)
			r.Get("/incoming", photoHandler.Incoming)
			r.Post("/{requestID}/decision", photoHandler.Decide)
		})

		r.Route("/profiles/{profileID}", func(r chi.Router) {
			r.Get("/", profileHandler.Get)
			r.Get("/compatibility", profileHandler.Compatibility)
			r.Get("/presence", presenceHandler.Status)
			r.Get("/gallery", photoHandler.Gallery)
			r.Get("/photos/{photoID}/access", photoHandler.Check)
			r.Post("/photos/{photoID}/view", photoHandler.View)
		})

		r.Post("/presence/heartbeat", presenceHandler.Heartbeat)
		r.Get("/announcements", announcementsHandler.List)
		r.Get("/signals/likes", signalsHandler.Likes)
		r.Get("/signals/reports", signalsHandler.Reports)
		r.Post("/reports", signalsHandler.CreateReport)
	})
}

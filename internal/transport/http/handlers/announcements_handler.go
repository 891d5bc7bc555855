package handlers

import (
	"net/http"

	announcementssvc "github.com/DaniDitu/LoveLink-sub000/internal/services/announcements"
	authsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/auth"
	"github.com/DaniDitu/LoveLink-sub000/internal/transport/http/dto"
	httperrors "github.com/DaniDitu/LoveLink-sub000/internal/transport/http/errors"
)

type AnnouncementsHandler struct {
	service *announcementssvc.Service
}

func NewAnnouncementsHandler(service *announcementssvc.Service) *AnnouncementsHandler {
	return &AnnouncementsHandler{service: service}
}

func (h *AnnouncementsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	active, err := h.service.ListActive(r.Context(), identity.TenantID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load announcements")
		return
	}

	out := make([]dto.AnnouncementResponse, 0, len(active))
	for _, a := range active {
		out = append(out, dto.AnnouncementResponse{
			ID:       a.ID,
			Title:    a.Title,
			Body:     a.Body,
			StartsAt: a.StartsAt,
			EndsAt:   a.EndsAt,
		})
	}
	httperrors.Write(w, http.StatusOK, dto.AnnouncementsResponse{Announcements: out})
}

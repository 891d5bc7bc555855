package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	pgrepo "github.com/DaniDitu/LoveLink-sub000/internal/repo/postgres"
	authsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/auth"
	presencesvc "github.com/DaniDitu/LoveLink-sub000/internal/services/presence"
	profilessvc "github.com/DaniDitu/LoveLink-sub000/internal/services/profiles"
	"github.com/DaniDitu/LoveLink-sub000/internal/transport/http/dto"
	httperrors "github.com/DaniDitu/LoveLink-sub000/internal/transport/http/errors"
)

type PresenceHandler struct {
	presence *presencesvc.Service
	profiles *profilessvc.Service
}

func NewPresenceHandler(presence *presencesvc.Service, profiles *profilessvc.Service) *PresenceHandler {
	return &PresenceHandler{presence: presence, profiles: profiles}
}

// Heartbeat records caller activity. Always 204: debounced and failed writes
// alike are invisible to the client.
func (h *PresenceHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	_ = h.presence.Heartbeat(r.Context(), identity.ProfileID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PresenceHandler) Status(w http.ResponseWriter, r *http.Request) {
	if _, ok := authsvc.IdentityFromContext(r.Context()); !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	targetID := chi.URLParam(r, "profileID")
	profile, err := h.profiles.Get(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			writeNotFound(w, "NOT_FOUND", "profile not found")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load presence")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PresenceResponse{
		ProfileID: targetID,
		Online:    h.presence.IsOnline(profile),
	})
}

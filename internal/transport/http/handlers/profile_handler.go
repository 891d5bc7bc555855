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

type ProfileHandler struct {
	profiles *profilessvc.Service
	presence *presencesvc.Service
}

func NewProfileHandler(profiles *profilessvc.Service, presence *presencesvc.Service) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, presence: presence}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	targetID := chi.URLParam(r, "profileID")
	profile, err := h.profiles.Get(r.Context(), targetID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Profiles load only within the viewer's own community.
	if targetID != identity.ProfileID {
		compatible, err := h.profiles.IsCompatible(r.Context(), identity.ProfileID, targetID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if !compatible {
			writeNotFound(w, "NOT_FOUND", "profile not found")
			return
		}
	}

	resp := dto.ProfileResponse{
		ID:          profile.ID,
		DisplayName: profile.DisplayName,
		Bio:         profile.Bio,
		Category:    string(profile.Category.Kind),
	}
	if h.presence != nil {
		resp.Online = h.presence.IsOnline(profile)
	}
	if !profile.LastActiveAt.IsZero() {
		lastActive := profile.LastActiveAt
		resp.LastActive = &lastActive
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *ProfileHandler) Compatibility(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	compatible, err := h.profiles.IsCompatible(r.Context(), identity.ProfileID, chi.URLParam(r, "profileID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CompatibilityResponse{Compatible: compatible})
}

func (h *ProfileHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profilessvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request")
	case errors.Is(err, pgrepo.ErrProfileNotFound):
		writeNotFound(w, "NOT_FOUND", "profile not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to load profile")
	}
}

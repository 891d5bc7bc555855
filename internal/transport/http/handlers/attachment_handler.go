package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/auth"
	ephemeralsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/ephemeral"
	"github.com/DaniDitu/LoveLink-sub000/internal/transport/http/dto"
	httperrors "github.com/DaniDitu/LoveLink-sub000/internal/transport/http/errors"
)

type AttachmentHandler struct {
	service *ephemeralsvc.Service
}

func NewAttachmentHandler(service *ephemeralsvc.Service) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

// MarkViewed stamps first render of a self-destructing attachment. Repeats
// are no-ops and return the same stamped state.
func (h *AttachmentHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	messageID := chi.URLParam(r, "messageID")
	msg, err := h.service.MarkViewed(r.Context(), identity.ProfileID, messageID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := messageToDTO(msg)
	out.ImageURL = h.service.Describe(r.Context(), msg).URL
	httperrors.Write(w, http.StatusOK, out)
}

func (h *AttachmentHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	messageID := chi.URLParam(r, "messageID")
	att, err := h.service.Status(r.Context(), identity.ProfileID, messageID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AttachmentStateResponse{
		MessageID:        messageID,
		State:            string(att.State),
		RemainingSeconds: att.RemainingSeconds,
		URL:              att.URL,
	})
}

func (h *AttachmentHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ephemeralsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request")
	case errors.Is(err, ephemeralsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "not a party to this attachment")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to process attachment")
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
	authsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/auth"
	photosvc "github.com/DaniDitu/LoveLink-sub000/internal/services/photoaccess"
	"github.com/DaniDitu/LoveLink-sub000/internal/transport/http/dto"
	httperrors "github.com/DaniDitu/LoveLink-sub000/internal/transport/http/errors"
)

type PhotoAccessHandler struct {
	service *photosvc.Service
}

func NewPhotoAccessHandler(service *photosvc.Service) *PhotoAccessHandler {
	return &PhotoAccessHandler{service: service}
}

func (h *PhotoAccessHandler) Request(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.PhotoAccessRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "malformed request body")
		return
	}

	created, err := h.service.Request(r.Context(), identity.ProfileID, req.OwnerID, req.PhotoID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, requestToDTO(created))
}

func (h *PhotoAccessHandler) Decide(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.PhotoAccessDecideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "malformed request body")
		return
	}

	decided, err := h.service.Decide(r.Context(), identity.ProfileID, chi.URLParam(r, "requestID"),
		req.Approve, enums.AccessDuration(req.Duration))
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, requestToDTO(decided))
}

// Check reports the effective decision without consuming a one-time grant.
func (h *PhotoAccessHandler) Check(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	decision, err := h.service.CheckAccess(r.Context(), identity.ProfileID,
		chi.URLParam(r, "profileID"), chi.URLParam(r, "photoID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PhotoAccessCheckResponse{Decision: string(decision)})
}

// View consumes a one-time grant if that is what backs the access and
// returns a short-lived signed URL on success.
func (h *PhotoAccessHandler) View(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	decision, url, err := h.service.CheckAndConsume(r.Context(), identity.ProfileID,
		chi.URLParam(r, "profileID"), chi.URLParam(r, "photoID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PhotoAccessCheckResponse{
		Decision: string(decision),
		URL:      url,
	})
}

func (h *PhotoAccessHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	views, err := h.service.VisibleGallery(r.Context(), identity.ProfileID, chi.URLParam(r, "profileID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	photos := make([]dto.GalleryPhotoResponse, 0, len(views))
	for _, view := range views {
		photos = append(photos, dto.GalleryPhotoResponse{
			ID:         view.Photo.ID,
			Visibility: string(view.Photo.Visibility),
			Decision:   string(view.Decision),
			URL:        view.URL,
		})
	}
	httperrors.Write(w, http.StatusOK, dto.GalleryResponse{Photos: photos})
}

func (h *PhotoAccessHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 50)
	requests, err := h.service.ListIncoming(r.Context(), identity.ProfileID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]dto.PhotoAccessRequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, requestToDTO(req))
	}
	httperrors.Write(w, http.StatusOK, dto.IncomingRequestsResponse{Requests: out})
}

func (h *PhotoAccessHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, photosvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request")
	case errors.Is(err, photosvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", "photo or request not found")
	case errors.Is(err, photosvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "not allowed")
	case errors.Is(err, photosvc.ErrNotCompatible):
		writeForbidden(w, "NOT_COMPATIBLE", "profile is not reachable")
	case errors.Is(err, photosvc.ErrAlreadyOpen):
		writeConflict(w, "ALREADY_OPEN", "an open request already exists")
	case errors.Is(err, photosvc.ErrNotDecidable):
		writeConflict(w, "NOT_DECIDABLE", "request has already been decided")
	default:
		writeInternal(w, "INTERNAL_ERROR", "failed to process photo access")
	}
}

func requestToDTO(req model.PhotoAccessRequest) dto.PhotoAccessRequestResponse {
	out := dto.PhotoAccessRequestResponse{
		ID:          req.ID,
		RequesterID: req.RequesterID,
		OwnerID:     req.OwnerID,
		PhotoID:     req.PhotoID,
		Status:      string(req.Status),
		ExpiresAt:   req.ExpiresAt,
		ViewsLeft:   req.ViewsLeft,
		CreatedAt:   req.CreatedAt,
	}
	if req.Duration != nil {
		out.Duration = string(*req.Duration)
	}
	return out
}

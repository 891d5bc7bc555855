package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/auth"
	profilessvc "github.com/DaniDitu/LoveLink-sub000/internal/services/profiles"
	signalssvc "github.com/DaniDitu/LoveLink-sub000/internal/services/signals"
	tenantssvc "github.com/DaniDitu/LoveLink-sub000/internal/services/tenants"
	"github.com/DaniDitu/LoveLink-sub000/internal/transport/http/dto"
	httperrors "github.com/DaniDitu/LoveLink-sub000/internal/transport/http/errors"
)

type SignalsHandler struct {
	signals  *signalssvc.Service
	profiles *profilessvc.Service
	tenants  *tenantssvc.Service
}

func NewSignalsHandler(signals *signalssvc.Service, profiles *profilessvc.Service, tenants *tenantssvc.Service) *SignalsHandler {
	return &SignalsHandler{signals: signals, profiles: profiles, tenants: tenants}
}

func (h *SignalsHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.CreateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	report, err := h.signals.FileReport(r.Context(), identity.ProfileID, identity.TenantID, req.TargetID, req.Reason)
	if err != nil {
		if errors.Is(err, signalssvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid report")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to file report")
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.ReportResponse{
		ID:        report.ID,
		TargetID:  report.TargetID,
		Reason:    report.Reason,
		Status:    report.Status,
		CreatedAt: report.CreatedAt,
	})
}

func (h *SignalsHandler) Likes(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	count, err := h.signals.IncomingLikeCount(r.Context(), identity.ProfileID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to count likes")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SignalCountResponse{Count: count})
}

// Reports is moderator-only: the caller's category must match the tenant's
// moderator category.
func (h *SignalsHandler) Reports(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	profile, err := h.profiles.Get(r.Context(), identity.ProfileID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load caller profile")
		return
	}
	policy, err := h.tenants.ChatPolicy(r.Context(), identity.TenantID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load tenant policy")
		return
	}
	if !policy.Moderator(profile.Category.Kind) {
		writeForbidden(w, "FORBIDDEN", "moderator access required")
		return
	}

	count, err := h.signals.PendingReportCount(r.Context(), identity.TenantID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to count reports")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SignalCountResponse{Count: count})
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	authsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/auth"
	feedsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/feed"
	"github.com/DaniDitu/LoveLink-sub000/internal/transport/http/dto"
	httperrors "github.com/DaniDitu/LoveLink-sub000/internal/transport/http/errors"
)

type FeedHandler struct {
	service *feedsvc.Service
}

func NewFeedHandler(service *feedsvc.Service) *FeedHandler {
	return &FeedHandler{service: service}
}

func (h *FeedHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "FEED_SERVICE_UNAVAILABLE", "feed service is unavailable")
		return
	}

	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)

	result, err := h.service.FetchPage(r.Context(), identity.ProfileID, cursor, limit)
	if err != nil {
		switch {
		case errors.Is(err, feedsvc.ErrInvalidCursor):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid cursor")
		case errors.Is(err, feedsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid feed request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load feed")
		}
		return
	}

	items := make([]dto.FeedItemResponse, 0, len(result.Items))
	for _, item := range result.Items {
		responseItem := dto.FeedItemResponse{IsSponsor: item.IsSponsor}
		if item.IsSponsor && item.Sponsor != nil {
			responseItem.Sponsor = &dto.FeedSponsorCardResponse{
				ID:       item.Sponsor.ID,
				Title:    item.Sponsor.Title,
				AssetURL: item.Sponsor.AssetURL,
				ClickURL: item.Sponsor.ClickURL,
			}
		} else if item.Profile != nil {
			responseItem.ProfileID = item.Profile.ID
			responseItem.DisplayName = item.Profile.DisplayName
			responseItem.Bio = item.Profile.Bio
			responseItem.Category = string(item.Profile.Category.Kind)
			responseItem.PhotoURL = item.PhotoURL
			responseItem.Online = item.Online
		}
		items = append(items, responseItem)
	}

	httperrors.Write(w, http.StatusOK, dto.FeedResponse{
		Items:      items,
		NextCursor: result.NextCursor,
		HasMore:    result.HasMore,
		Degraded:   result.Degraded,
	})
}

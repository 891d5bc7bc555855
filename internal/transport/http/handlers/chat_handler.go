package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
	"github.com/DaniDitu/LoveLink-sub000/internal/domain/model"
	authsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/auth"
	chatsvc "github.com/DaniDitu/LoveLink-sub000/internal/services/chat"
	"github.com/DaniDitu/LoveLink-sub000/internal/transport/http/dto"
	httperrors "github.com/DaniDitu/LoveLink-sub000/internal/transport/http/errors"
)

type ChatHandler struct {
	service *chatsvc.Service
}

func NewChatHandler(service *chatsvc.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "malformed request body")
		return
	}

	msg, err := h.service.Send(r.Context(), identity.ProfileID, chatsvc.SendInput{
		ReceiverID:   req.ReceiverID,
		Text:         req.Text,
		ImageKey:     req.ImageKey,
		SelfDestruct: enums.SelfDestruct(req.SelfDestruct),
	})
	if err != nil {
		if errors.Is(err, chatsvc.ErrThrottled) {
			verdict, verr := h.service.CanSend(r.Context(), identity.ProfileID, req.ReceiverID)
			payload := httperrors.ThrottleError{
				Code:    "WAITING_FOR_REPLY",
				Message: "wait for a reply before sending more messages",
			}
			if verr == nil {
				payload.RunLength = verdict.RunLength
				payload.RunCap = verdict.Cap
			}
			httperrors.Write(w, http.StatusTooManyRequests, payload)
			return
		}
		switch {
		case errors.Is(err, chatsvc.ErrValidation), errors.Is(err, chatsvc.ErrMessageTooLong):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid message")
		case errors.Is(err, chatsvc.ErrNotCompatible):
			writeForbidden(w, "NOT_COMPATIBLE", "recipient is not reachable")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to send message")
		}
		return
	}

	httperrors.Write(w, http.StatusCreated, messageToDTO(msg))
}

func (h *ChatHandler) Thread(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	partnerID := chi.URLParam(r, "partnerID")
	messages, err := h.service.ListThread(r.Context(), identity.ProfileID, partnerID)
	if err != nil {
		if errors.Is(err, chatsvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid thread request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load thread")
		return
	}

	out := make([]dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		out = append(out, messageToDTO(msg))
	}
	httperrors.Write(w, http.StatusOK, dto.ThreadResponse{Messages: out})
}

func (h *ChatHandler) CanSend(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	verdict, err := h.service.CanSend(r.Context(), identity.ProfileID, chi.URLParam(r, "partnerID"))
	if err != nil {
		switch {
		case errors.Is(err, chatsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid request")
		case errors.Is(err, chatsvc.ErrNotCompatible):
			writeForbidden(w, "NOT_COMPATIBLE", "recipient is not reachable")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to evaluate send permission")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CanSendResponse{
		Allowed:   verdict.Allowed,
		RunLength: verdict.RunLength,
		RunCap:    verdict.Cap,
		Exempt:    verdict.Exempt,
	})
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	err := h.service.Delete(r.Context(), identity.ProfileID, chi.URLParam(r, "messageID"))
	if err != nil {
		switch {
		case errors.Is(err, chatsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid request")
		case errors.Is(err, chatsvc.ErrForbidden):
			writeForbidden(w, "FORBIDDEN", "not allowed to delete this message")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to delete message")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.service.MarkThreadRead(r.Context(), identity.ProfileID, chi.URLParam(r, "partnerID")); err != nil {
		if errors.Is(err, chatsvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to mark thread as read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ChatHandler) Summary(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	summary, err := h.service.Summarize(r.Context(), identity.ProfileID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to summarize conversations")
		return
	}

	threads := make([]dto.ThreadSummaryEntry, 0, len(summary))
	total := 0
	for partnerID, unread := range summary {
		threads = append(threads, dto.ThreadSummaryEntry{PartnerID: partnerID, UnreadCount: unread})
		total += unread
	}
	sort.Slice(threads, func(i, j int) bool { return threads[i].PartnerID < threads[j].PartnerID })

	httperrors.Write(w, http.StatusOK, dto.ThreadSummaryResponse{
		Threads:     threads,
		UnreadTotal: total,
	})
}

func messageToDTO(msg model.Message) dto.MessageResponse {
	out := dto.MessageResponse{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Text:       msg.Text,
		ImageKey:   msg.ImageKey,
		SentAt:     msg.SentAt,
		IsRead:     msg.IsRead,
		ViewedAt:   msg.ViewedAt,
	}
	if msg.SelfDestruct != "" && msg.SelfDestruct != enums.SelfDestructNone {
		out.SelfDestruct = string(msg.SelfDestruct)
	}
	return out
}

package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fabiogreco/duet/internal/auth"
	"github.com/fabiogreco/duet/internal/blob"
	"github.com/fabiogreco/duet/internal/chat"
)

type sendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	users, err := s.store.ListUsersExcept(r.Context(), userID)
	if err != nil {
		log.Printf("httpapi: list users: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	if users == nil {
		users = []chat.User{}
	}
	respondJSON(w, http.StatusOK, users)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	otherID := chi.URLParam(r, "id")
	if strings.TrimSpace(otherID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "missing user id")
		return
	}
	if _, err := s.store.UserByID(r.Context(), otherID); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user_not_found", "no such user")
			return
		}
		log.Printf("httpapi: partner lookup: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	messages, err := s.store.Conversation(r.Context(), userID, otherID)
	if err != nil {
		log.Printf("httpapi: load conversation: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	respondJSON(w, http.StatusOK, messages)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	senderID, _ := auth.UserID(r.Context())
	receiverID := chi.URLParam(r, "id")
	if strings.TrimSpace(receiverID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "missing receiver id")
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "malformed body")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" && req.Image == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message needs text or an image")
		return
	}

	if _, err := s.store.UserByID(r.Context(), receiverID); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user_not_found", "no such user")
			return
		}
		log.Printf("httpapi: receiver lookup: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	var attachmentURL string
	if req.Image != "" {
		contentType, data, err := blob.DecodeDataURL(req.Image)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "image must be base64 encoded")
			return
		}
		attachmentURL, err = s.uploader.Upload(r.Context(), contentType, data)
		if errors.Is(err, blob.ErrNotConfigured) {
			respondError(w, http.StatusBadRequest, "uploads_disabled", "attachment uploads are not configured")
			return
		}
		if err != nil {
			log.Printf("httpapi: attachment upload: %v", err)
			respondError(w, http.StatusInternalServerError, "internal", "internal error")
			return
		}
	}

	msg, err := s.store.InsertMessage(r.Context(), chat.Message{
		SenderID:      senderID,
		ReceiverID:    receiverID,
		Text:          req.Text,
		AttachmentURL: attachmentURL,
	})
	if err != nil {
		log.Printf("httpapi: insert message: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	s.metrics.MessagesCreated.Inc()

	// Push to live participants, then kick off the assistant pipeline. The
	// response below never waits on either.
	s.fanout.Deliver(msg)
	if s.orchestrator != nil {
		s.orchestrator.TriggerAsync(msg)
	}

	respondJSON(w, http.StatusCreated, msg)
}

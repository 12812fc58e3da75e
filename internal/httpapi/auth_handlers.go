package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/fabiogreco/duet/internal/auth"
	"github.com/fabiogreco/duet/internal/chat"
)

type signupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "malformed body")
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case req.FullName == "" || req.Email == "" || req.Password == "":
		respondError(w, http.StatusBadRequest, "invalid_request", "fullName, email and password are required")
		return
	case len(req.Password) < 6:
		respondError(w, http.StatusBadRequest, "invalid_request", "password must be at least 6 characters")
		return
	case !strings.Contains(req.Email, "@"):
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid email address")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("httpapi: hash password: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	user, err := s.store.CreateUser(r.Context(), chat.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if errors.Is(err, chat.ErrDuplicateEmail) {
		respondError(w, http.StatusBadRequest, "email_taken", "email already registered")
		return
	}
	if err != nil {
		log.Printf("httpapi: create user: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	if !s.issueSession(w, user.ID) {
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "malformed body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.store.UserByEmail(r.Context(), req.Email)
	if errors.Is(err, chat.ErrNotFound) || (err == nil && !auth.CheckPassword(user.PasswordHash, req.Password)) {
		respondError(w, http.StatusBadRequest, "invalid_credentials", "invalid credentials")
		return
	}
	if err != nil {
		log.Printf("httpapi: login lookup: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	if !s.issueSession(w, user.ID) {
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	auth.ClearCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	user, err := s.store.UserByID(r.Context(), userID)
	if errors.Is(err, chat.ErrNotFound) {
		respondError(w, http.StatusUnauthorized, "unauthorized", "account no longer exists")
		return
	}
	if err != nil {
		log.Printf("httpapi: check lookup: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) issueSession(w http.ResponseWriter, userID string) bool {
	token, err := s.tokens.Issue(userID)
	if err != nil {
		log.Printf("httpapi: issue token: %v", err)
		respondError(w, http.StatusInternalServerError, "internal", "internal error")
		return false
	}
	s.tokens.SetCookie(w, token, s.secureCookies())
	return true
}

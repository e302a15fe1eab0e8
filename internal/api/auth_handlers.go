package api

import (
	"net/http"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/apperr"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		s.respondError(w, r, apperr.New(apperr.KindInternal, "user store is not configured"))
		return
	}
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	user, err := s.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"user": user, "token": token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		s.respondError(w, r, apperr.New(apperr.KindInternal, "user store is not configured"))
		return
	}
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	user, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"user": user, "token": token})
}

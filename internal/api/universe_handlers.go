package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/apperr"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/auth"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

// requestIdentity pulls the authenticated user and the path universe id.
func requestIdentity(r *http.Request) (userID, universeID uuid.UUID, err error) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		return uuid.Nil, uuid.Nil, apperr.Unauthorized("missing identity")
	}
	raw := chi.URLParam(r, "universeID")
	if raw == "" {
		return userID, uuid.Nil, nil
	}
	universeID, err = uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.Validation("invalid universe id %q", raw)
	}
	return userID, universeID, nil
}

type createRequest struct {
	Name              string                      `json:"name"`
	Seed              string                      `json:"seed"`
	Difficulty        universe.Difficulty         `json:"difficulty"`
	Constants         *universe.Constants         `json:"constants"`
	InitialConditions *universe.InitialConditions `json:"initialConditions"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _, err := requestIdentity(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = universe.DifficultyBeginner
	}
	if !req.Difficulty.Valid() {
		s.respondError(w, r, apperr.Validation("unknown difficulty %q", req.Difficulty))
		return
	}

	u := universe.New(userID, req.Name, req.Seed, req.Difficulty, req.Constants)
	if req.InitialConditions != nil {
		u.InitialConditions = *req.InitialConditions
	}
	if err := s.store.Create(r.Context(), u); err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"universe": u})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	userID, _, err := requestIdentity(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	universes, err := s.store.ListByOwner(r.Context(), userID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	summaries := make([]universe.Summary, 0, len(universes))
	for _, u := range universes {
		summaries = append(summaries, u.Summarize())
	}
	respond(w, http.StatusOK, map[string]any{"universes": summaries})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, universeID, err := requestIdentity(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	u, err := s.runner.GetOwned(r.Context(), universeID, userID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"universe": u})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, universeID, err := requestIdentity(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), universeID, userID); err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"deleted": universeID})
}

type simulateRequest struct {
	Steps int `json:"steps"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	userID, universeID, err := requestIdentity(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	req := simulateRequest{Steps: 1}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	report, err := s.runner.Simulate(r.Context(), universeID, userID, req.Steps)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"report": report})
}

type resolveRequest struct {
	AnomalyID string `json:"anomalyId"`
}

func (s *Server) handleResolveAnomaly(w http.ResponseWriter, r *http.Request) {
	userID, universeID, err := requestIdentity(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.AnomalyID == "" {
		s.respondError(w, r, apperr.Validation("anomalyId is required"))
		return
	}
	anomalyID, err := uuid.Parse(req.AnomalyID)
	if err != nil {
		s.respondError(w, r, apperr.Validation("invalid anomalyId %q", req.AnomalyID))
		return
	}
	res, err := s.runner.ResolveAnomaly(r.Context(), universeID, userID, anomalyID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"resolution": res})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, universeID, err := requestIdentity(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	_, stats, _, _, err := s.runner.Preview(r.Context(), universeID, userID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"stats": stats})
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	userID, universeID, err := requestIdentity(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	u, err := s.runner.GetOwned(r.Context(), universeID, userID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	active := make([]*universe.Anomaly, 0)
	resolved := make([]*universe.Anomaly, 0)
	for _, a := range u.Anomalies {
		if a.Resolved {
			resolved = append(resolved, a)
		} else {
			active = append(active, a)
		}
	}
	respond(w, http.StatusOK, map[string]any{"active": active, "resolved": resolved})
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	userID, universeID, err := requestIdentity(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	_, _, predictions, _, err := s.runner.Preview(r.Context(), universeID, userID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"predictions": predictions})
}

func (s *Server) handleEndConditions(w http.ResponseWriter, r *http.Request) {
	userID, universeID, err := requestIdentity(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	u, _, _, warnings, err := s.runner.Preview(r.Context(), universeID, userID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"status": map[string]any{
			"ended":     u.Ended(),
			"condition": u.EndCondition,
			"reason":    u.EndReason,
			"finalAge":  u.FinalAge,
		},
		"warnings": warnings,
	})
}

type cleanupRequest struct {
	KeepRecentMinutes *float64 `json:"keepRecentMinutes"`
}

func (s *Server) handleCleanupAnomalies(w http.ResponseWriter, r *http.Request) {
	userID, universeID, err := requestIdentity(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req cleanupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	keepRecent := 5 * time.Minute
	if req.KeepRecentMinutes != nil {
		if *req.KeepRecentMinutes < 0 {
			s.respondError(w, r, apperr.Validation("keepRecentMinutes must be >= 0"))
			return
		}
		keepRecent = time.Duration(*req.KeepRecentMinutes * float64(time.Minute))
	}
	res, err := s.runner.CleanupAnomalies(r.Context(), universeID, userID, keepRecent)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"cleanup": res})
}

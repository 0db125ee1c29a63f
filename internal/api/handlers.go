package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/scena/internal/assistant"
	"github.com/kalambet/scena/internal/intent"
	"github.com/kalambet/scena/internal/matching"
	"github.com/kalambet/scena/internal/session"
	"github.com/kalambet/scena/internal/talent"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds the collaborators the HTTP layer exposes.
type Deps struct {
	Assistant *assistant.Assistant
	Catalog   *talent.Catalog
	Engine    *matching.Engine
	Extractor intent.Extractor
	Token     string
}

// NewHandler builds the router. Everything except /health requires the
// bearer token.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/session", handleCreateSession(deps))
		r.Post("/session/{id}/message", handleMessage(deps))
		r.Get("/session/{id}", handleGetSession(deps))
		r.Delete("/session/{id}", handleDeleteSession(deps))
		r.Post("/match", handleMatch(deps))
		r.Get("/talents", handleListTalents(deps))
		r.Post("/talents", handleAddTalent(deps))
		r.Get("/stats", handleStats(deps))
	})

	return r
}

type createSessionRequest struct {
	UserID string `json:"user_id"`
}

func handleCreateSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		// Body is optional; an empty or malformed body creates an anonymous session.
		var req createSessionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		s, err := deps.Assistant.CreateSession(r.Context(), req.UserID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create session: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"session_id": s.ID})
	}
}

type messageRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

func handleMessage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		id := chi.URLParam(r, "id")

		var req messageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		result, err := deps.Assistant.HandleMessage(r.Context(), id, req.UserID, req.Text)
		if errors.Is(err, assistant.ErrEmptyMessage) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text is required")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to handle message: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		s, err := deps.Assistant.GetSession(r.Context(), id)
		if errors.Is(err, session.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get session: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s)
	}
}

func handleDeleteSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := deps.Assistant.DeleteSession(r.Context(), id); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete session: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

type matchRequest struct {
	RoleDescription string               `json:"role_description"`
	Requirements    *intent.Requirements `json:"requirements"`
	Candidates      []talent.Profile     `json:"candidates"`
}

func handleMatch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req matchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		var requirements intent.Requirements
		switch {
		case req.RoleDescription != "":
			requirements = deps.Extractor.Extract(r.Context(), req.RoleDescription)
		case req.Requirements != nil:
			requirements = *req.Requirements
		default:
			httpError(w, http.StatusBadRequest, "invalid_request_error", "one of role_description or requirements is required")
			return
		}

		candidates := req.Candidates
		if candidates == nil {
			var err error
			candidates, err = deps.Catalog.List()
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to load catalog: %v", err)
				return
			}
		}

		report := deps.Engine.MatchTalents(r.Context(), requirements, candidates)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}

func handleListTalents(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles, err := deps.Catalog.List()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list talents: %v", err)
			return
		}
		if profiles == nil {
			profiles = []talent.Profile{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(profiles)
	}
}

func handleAddTalent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var p talent.Profile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if p.Name == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}

		stored, err := deps.Catalog.Add(p)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to store talent: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(stored)
	}
}

func handleStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := deps.Assistant.Stats(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to read stats: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(st)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

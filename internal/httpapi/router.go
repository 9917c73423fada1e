// Package httpapi is the HTTP boundary: it exchanges magic-link tokens
// for sessions and maps registry outcomes to status codes.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ilyasmaxutov/towel-tracker/internal/registry"
	"github.com/ilyasmaxutov/towel-tracker/internal/store"
	"github.com/ilyasmaxutov/towel-tracker/internal/token"
)

type Router struct {
	slots  *registry.Service
	tokens *token.Service
	log    *zap.Logger
}

func NewRouter(slots *registry.Service, tokens *token.Service, log *zap.Logger) http.Handler {
	rt := &Router{slots: slots, tokens: tokens, log: log}
	mux := chi.NewRouter()

	mux.Get("/healthz", rt.handleHealth)
	// GET serves the magic link opened from the chat; POST serves clients.
	mux.Get("/api/login", rt.handleLogin)
	mux.Post("/api/login", rt.handleLogin)

	mux.Group(func(pr chi.Router) {
		pr.Use(rt.sessionAuth)
		pr.Get("/api/slots", rt.handleListSlots)
		pr.Post("/api/slots", rt.handleCreateSlot)
		pr.Post("/api/slots/{id}/refresh", rt.handleRefreshSlot)
		pr.Patch("/api/slots/{id}", rt.handleUpdateSlot)
		pr.Delete("/api/slots/{id}", rt.handleDeleteSlot)
		pr.Post("/api/rooms/refresh", rt.handleRefreshRoom)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps registry error kinds to status codes. Anything outside
// the taxonomy counts as a collaborator failure: logged, not classified.
func (rt *Router) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "validation failed"})
	case errors.Is(err, registry.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		rt.log.Error("upstream failure", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream failure"})
	}
}

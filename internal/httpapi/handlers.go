package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ilyasmaxutov/towel-tracker/internal/registry"
	"github.com/ilyasmaxutov/towel-tracker/internal/token"
)

func (rt *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	SessionToken string `json:"session_token"`
	ExpiresAt    string `json:"expires_at"`
}

// handleLogin exchanges a short-lived magic-link token for a session
// token. The magic token stays exchangeable until its expiry; there is no
// server-side single-use bookkeeping.
func (rt *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Token == "" {
		// also accept ?token= so the magic link itself can be POSTed by a form
		body.Token = req.URL.Query().Get("token")
	}
	if body.Token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "token required"})
		return
	}

	claims, err := rt.tokens.Verify(body.Token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}

	session, err := rt.tokens.Issue(claims.Subject, token.SessionTTL)
	if err != nil {
		rt.writeErr(w, err)
		return
	}

	expires := time.Now().Add(token.SessionTTL)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		SessionToken: session,
		ExpiresAt:    expires.UTC().Format(time.RFC3339),
	})
}

func (rt *Router) handleListSlots(w http.ResponseWriter, req *http.Request) {
	views, err := rt.slots.List(req.Context(), getActorID(req.Context()))
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

type createSlotRequest struct {
	Name          string `json:"name"`
	Room          string `json:"room"`
	ThresholdDays int    `json:"threshold_days"`
}

func (rt *Router) handleCreateSlot(w http.ResponseWriter, req *http.Request) {
	var body createSlotRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	v, err := rt.slots.Create(req.Context(), body.Name, getActorID(req.Context()), body.Room, body.ThresholdDays)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (rt *Router) handleRefreshSlot(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	if err := rt.slots.Refresh(req.Context(), id, getActorID(req.Context())); err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) handleUpdateSlot(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	var patch registry.Patch
	if err := json.NewDecoder(req.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := rt.slots.Update(req.Context(), id, patch, getActorID(req.Context())); err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) handleDeleteSlot(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	if err := rt.slots.Delete(req.Context(), id, getActorID(req.Context())); err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type refreshRoomRequest struct {
	Room string `json:"room"`
}

func (rt *Router) handleRefreshRoom(w http.ResponseWriter, req *http.Request) {
	var body refreshRoomRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Room == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "room required"})
		return
	}
	n, err := rt.slots.RefreshByRoom(req.Context(), getActorID(req.Context()), body.Room)
	if err != nil {
		rt.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

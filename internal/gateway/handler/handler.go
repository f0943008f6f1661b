// Package handler is the gateway's JSON surface. Authentication itself is
// external: requests arrive with the authenticated user already resolved
// into the X-User-ID header by the fronting proxy, and the handlers only
// scope queries by it.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mslanden/searchwizard/internal/gateway/events"
	"github.com/mslanden/searchwizard/internal/gateway/repository/blob"
	"github.com/mslanden/searchwizard/internal/gateway/repository/entity"
	"github.com/mslanden/searchwizard/internal/gendoc"
	"github.com/mslanden/searchwizard/internal/session"
)

type Handler struct {
	projects entity.Projects
	entities entity.Store
	blobs    blob.Store
	gen      *gendoc.Service
	hub      *events.Hub
}

func New(projects entity.Projects, entities entity.Store, blobs blob.Store, gen *gendoc.Service, hub *events.Hub) *Handler {
	return &Handler{
		projects: projects,
		entities: entities,
		blobs:    blobs,
		gen:      gen,
		hub:      hub,
	}
}

func (h *Handler) sessionFrom(r *http.Request) (*session.Session, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		return nil, false
	}
	return &session.Session{
		UserID: userID,
		Email:  strings.TrimSpace(r.Header.Get("X-User-Email")),
	}, true
}

// HandleSession is the session-provider endpoint the client core polls.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFrom(r)
	if !ok {
		http.Error(w, "permission denied: no session", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

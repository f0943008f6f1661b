package server

import (
	"net/http"

	"github.com/mslanden/searchwizard/internal/gateway/handler"
	"github.com/mslanden/searchwizard/internal/gateway/middleware"
)

func NewMux(h *handler.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/session", h.HandleSession)
	mux.HandleFunc("GET /v1/templates", h.HandleListTemplates)

	mux.HandleFunc("POST /v1/projects", h.HandleCreateProject)
	mux.HandleFunc("GET /v1/projects/latest", h.HandleLatestProject)
	mux.HandleFunc("GET /v1/projects/{id}", h.HandleGetProject)

	// Specific outputs POST wins over the generic {kind} create; output
	// persistence also writes the body to blob storage. Same for the
	// literal blobs segment versus the generic collection list.
	mux.HandleFunc("POST /v1/projects/{id}/outputs", h.HandleCreateOutput)
	mux.HandleFunc("GET /v1/projects/{id}/blobs", h.HandleListBlobs)
	mux.HandleFunc("GET /v1/projects/{id}/{kind}", h.HandleListEntities)
	mux.HandleFunc("POST /v1/projects/{id}/{kind}", h.HandleCreateEntity)
	mux.HandleFunc("DELETE /v1/entities/{id}", h.HandleDeleteEntity)

	mux.HandleFunc("GET /v1/content", h.HandleDownloadContent)
	mux.HandleFunc("POST /v1/generate", h.HandleGenerate)
	mux.HandleFunc("GET /v1/projects/{id}/watch", h.HandleWatch)

	return middleware.CORS(mux)
}

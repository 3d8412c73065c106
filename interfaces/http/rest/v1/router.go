// Package v1 mounts the version 1 canvas API.
package v1

import (
	"net/http"

	"canvas-ai/interfaces/http/rest/handlers"

	"github.com/go-chi/chi/v5"
)

// Handlers groups the handlers served under /api/v1
type Handlers struct {
	Graph *handlers.GraphHandler
	Chat  *handlers.ChatHandler
	Edit  *handlers.EditHandler
}

// Mount registers the v1 endpoints on r
func Mount(r chi.Router, h Handlers) {
	r.Use(versionHeaders)

	// Graph endpoints
	r.Route("/graph", func(r chi.Router) {
		r.Get("/", h.Graph.GetGraph)
		r.Delete("/", h.Graph.Clear)
		r.Post("/generate", h.Graph.Generate)
		r.Post("/patch", h.Graph.ApplyPatch)
		r.Post("/undo", h.Graph.Undo)
		r.Get("/export", h.Graph.Export)
		r.Patch("/nodes/{nodeID}", h.Graph.UpdateNode)
	})

	// Chat endpoints
	r.Route("/chat", func(r chi.Router) {
		r.Get("/messages", h.Chat.ListMessages)
		r.Post("/messages", h.Chat.SendMessage)
	})

	// Node title editor
	r.Route("/edit", func(r chi.Router) {
		r.Get("/", h.Edit.GetState)
		r.Post("/begin", h.Edit.Begin)
		r.Put("/draft", h.Edit.UpdateDraft)
		r.Post("/commit", h.Edit.Commit)
		r.Post("/cancel", h.Edit.Cancel)
	})
}

// versionHeaders adds API version headers to responses
func versionHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v1")
		next.ServeHTTP(w, r)
	})
}

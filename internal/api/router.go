package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/starford/photoplay/internal/playservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *playservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Payloads.
	r.Get("/payloads", h.ListPayloads)
	r.Post("/payloads", h.CreatePayload)
	r.Post("/payloads/voice", h.CreateVoicePayload)
	r.Get("/payloads/{id}", h.GetPayload)
	r.Delete("/payloads/{id}", h.DeletePayload)

	// Resolution of a scanned URL on behalf of a client.
	r.Post("/resolve", h.Resolve)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewPlayRouter serves the public endpoint scanned codes open. It carries no
// auth: the payload itself is the capability.
func NewPlayRouter(svc *playservice.Service) chi.Router {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/", h.Play)
	return r
}

// CORS returns the cross-origin policy for the consumer page, which runs on
// a different origin than this service.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Range"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/linkograph/internal/analysis"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *analysis.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(NoCache)
	r.Use(AuthMiddleware(authEnabled, token))

	// Engine operations. The calculate_* paths are the names older clients use.
	r.Post("/entropy", h.Entropy)
	r.Post("/calculate_entropy", h.LegacyEntropy)
	r.Post("/run_test", h.RunTest)
	r.Post("/creativity_score", h.CreativityScore)
	r.Post("/calculate_run_test", h.CreativityScore)
	r.Post("/row_statistics", h.RowStatistics)

	// Stored linkographs.
	r.Route("/linkographs", func(r chi.Router) {
		r.Get("/", h.ListLinkographs)
		r.Post("/", h.CreateLinkograph)
		r.Get("/{id}", h.GetLinkograph)
		r.Delete("/{id}", h.DeleteLinkograph)
		r.Put("/{id}/links", h.UpdateLink)
		r.Get("/{id}/analysis", h.Analysis)
	})

	// Protocol upload.
	r.Post("/protocols", h.UploadProtocol)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

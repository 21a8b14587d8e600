package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/synthgen/internal/api/middleware"
	"github.com/phrazzld/synthgen/internal/auth"
	"github.com/phrazzld/synthgen/internal/store"
)

// RouterDeps holds the dependencies of the inspection API.
type RouterDeps struct {
	Cache  store.CacheStore
	Logger *slog.Logger

	// Tokens enables bearer authentication on every route except
	// /health when non-nil.
	Tokens auth.TokenService
}

// NewRouter builds the chi router for the inspection API.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewTraceMiddleware(deps.Logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	records := NewRecordHandler(deps.Cache, deps.Logger)

	r.Group(func(r chi.Router) {
		if deps.Tokens != nil {
			r.Use(middleware.NewAuthMiddleware(deps.Tokens).Authenticate)
		}
		r.Get("/records/{id}", records.GetRecord)
		r.Head("/records/{id}", records.HeadRecord)
		r.Post("/identify", records.Identify)
	})

	return r
}

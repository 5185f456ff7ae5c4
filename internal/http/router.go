package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/tabungan/internal/http/auth"
	"github.com/MrJamesThe3rd/tabungan/internal/http/feed"
	"github.com/MrJamesThe3rd/tabungan/internal/http/importcsv"
	"github.com/MrJamesThe3rd/tabungan/internal/http/student"
	"github.com/MrJamesThe3rd/tabungan/internal/http/transaction"
)

type Handlers struct {
	Auth         *auth.Handler
	Students     *student.Handler
	Transactions *transaction.Handler
	Import       *importcsv.Handler
	Feed         *feed.Handler
}

func New(verifier auth.Verifier, allowedOrigins []string, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", h.Auth.Routes)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier))

			r.Route("/students", h.Students.Routes)

			r.Route("/transactions", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Transactions.Routes(r)
			})

			r.Route("/import", h.Import.Routes)
			r.Route("/feed", h.Feed.Routes)
		})
	})

	return router
}

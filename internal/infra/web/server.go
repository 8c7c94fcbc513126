package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"activation-code-admin/internal/infra/logging"
	"activation-code-admin/internal/usecase"
)

type Server struct {
	codeUC usecase.CodeUseCase
	authUC usecase.AuthUseCase
	auth   *AuthManager
	log    *zerolog.Logger

	server *http.Server
}

func NewServer(codeUC usecase.CodeUseCase, authUC usecase.AuthUseCase, auth *AuthManager, logger *zerolog.Logger) *Server {
	return &Server{
		codeUC: codeUC,
		authUC: authUC,
		auth:   auth,
		log:    logger,
	}
}

// Routes builds the router for the admin API surface.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/change-password", s.handleChangePassword)
			r.Get("/codes", s.handleListCodes)
			r.Post("/generate-codes", s.handleGenerateCodes)
			r.Get("/stats", s.handleStats)
			r.Delete("/codes/expired", s.handleDeleteExpired)
			r.Delete("/codes/{code}", s.handleDeleteCode)
			r.Post("/codes/batch-delete", s.handleBatchDelete)
		})
	})
	return r
}

func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Routes(),
	}
	s.log.Info().Int("port", port).Msg("admin API listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// requireAuth guards everything except login behind a valid bearer token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := logging.WithAdmin(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

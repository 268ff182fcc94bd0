// Package api provides the JSON HTTP server for Easyplit.
package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/easyplit/easyplit/internal/auth"
	"github.com/easyplit/easyplit/internal/middleware"
	"github.com/easyplit/easyplit/internal/service"
)

// Options controls the optional parts of the router.
type Options struct {
	StaticPath     string
	CORSOrigins    []string
	MetricsEnabled bool
}

// Server is the Easyplit HTTP API server.
type Server struct {
	auth     *service.AuthService
	groups   *service.GroupService
	expenses *service.ExpenseService
	jwt      *auth.JWTManager
	opts     Options
}

// NewServer creates a new API server.
func NewServer(authSvc *service.AuthService, groups *service.GroupService, expenses *service.ExpenseService, jwt *auth.JWTManager, opts Options) *Server {
	return &Server{
		auth:     authSvc,
		groups:   groups,
		expenses: expenses,
		jwt:      jwt,
		opts:     opts,
	}
}

// Handler returns the chi router with all routes mounted, wrapped in CORS.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	if s.opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.jwt, writeServiceError))

			r.Get("/auth/me", s.handleMe)

			r.Route("/group", func(r chi.Router) {
				r.Post("/", s.handleCreateGroup)
				r.Get("/", s.handleListGroups)
				r.Get("/{id}", s.handleGetGroup)
				r.Patch("/{id}", s.handleUpdateGroup)
				r.Delete("/{id}", s.handleDeleteGroup)
				r.Get("/{id}/balances", s.handleGroupBalances)
			})

			r.Route("/expense", func(r chi.Router) {
				r.Post("/", s.handleCreateExpense)
				r.Get("/", s.handleListExpenses)
				r.Get("/{id}", s.handleGetExpense)
				r.Patch("/{id}", s.handleUpdateExpense)
				r.Delete("/{id}", s.handleDeleteExpense)
				r.Get("/{id}/payments", s.handleListPayments)
			})
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not_found", "route not found")
		})
	})

	if static := staticHandler(s.opts.StaticPath); static != nil {
		r.NotFound(static.ServeHTTP)
	}

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		// Tokens travel in the Authorization header, never in cookies.
		AllowCredentials: false,
	}).Handler(r)
}

// staticHandler serves the front-end from dir, falling back to index.html
// for unknown paths. It returns nil if dir does not exist.
func staticHandler(dir string) http.Handler {
	if dir == "" {
		return nil
	}
	staticDir, err := filepath.Abs(dir)
	if err != nil {
		slog.Warn("Failed to resolve static path", "path", dir, "error", err)
		return nil
	}
	if info, err := os.Stat(staticDir); err != nil || !info.IsDir() {
		slog.Info("Static directory not found, front-end disabled", "path", staticDir)
		return nil
	}
	slog.Info("Serving static files", "path", staticDir)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" || strings.HasSuffix(urlPath, "/") {
			urlPath += "index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+urlPath))
		if info, err := os.Stat(filePath); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	})
}

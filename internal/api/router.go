package api

import (
	"encoding/json"
	"html/template"
	"net/http"

	"pokelearn/web/internal/config"
	"pokelearn/web/internal/service"
	"pokelearn/web/internal/state"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
)

// ViewFactory builds the listing view for a newly seen session.
type ViewFactory func() *service.ListingView

type Deps struct {
	Auth           *service.AuthService
	Gate           *service.Gate
	Sessions       state.SessionStore
	NewView        ViewFactory
	Session        config.SessionConfig
	AllowedOrigins []string
}

// Server holds the HTTP server dependencies
type Server struct {
	auth      *service.AuthService
	gate      *service.Gate
	sessions  state.SessionStore
	newView   ViewFactory
	cookie    config.SessionConfig
	origins   []string
	templates *template.Template
	router    chi.Router
}

// New creates a new API server
func New(deps Deps) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		auth:      deps.Auth,
		gate:      deps.Gate,
		sessions:  deps.Sessions,
		newView:   deps.NewView,
		cookie:    deps.Session,
		origins:   deps.AllowedOrigins,
		templates: templates,
		router:    chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/main", http.StatusFound)
	})

	// Auth surfaces
	s.router.Get("/login", s.handleLoginPage)
	s.router.Post("/login", s.handleLogin)
	s.router.Get("/register", s.handleRegisterPage)
	s.router.Post("/register", s.handleRegister)
	s.router.Post("/logout", s.handleLogout)

	// Listing
	s.router.Group(func(r chi.Router) {
		r.Use(s.requireSession(false))
		r.Get("/main", s.handleMainPage)
		r.Get("/main/pokemon/{name}", s.handleDetailPage)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.origins,
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Use(s.requireSession(true))
		r.Get("/search", s.handleSearch)
		r.Get("/pokemon/{name}", s.handleDetail)
		r.Get("/me", s.handleMe)
	})

	// Health check
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dccpipe/internal/logging"
	"dccpipe/internal/metrics"
	"dccpipe/internal/project"
	"dccpipe/internal/workflow"
)

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithToken requires "Authorization: Bearer <token>" on /api routes. An empty
// token disables authentication.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithStatus supplies the payload of /api/status.
func WithStatus(fn func() DaemonStatus) Option {
	return func(s *Server) {
		s.status = fn
	}
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	manager   *workflow.Manager
	workspace *project.Workspace
	logger    *slog.Logger
	metrics   *metrics.Metrics
	token     string
	status    func() DaemonStatus
}

// NewServer builds the HTTP layer over manager.
func NewServer(manager *workflow.Manager, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		manager:   manager,
		workspace: manager.Workspace(),
		logger:    logging.NewComponentLogger(logger, "api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.status == nil {
		s.status = func() DaemonStatus {
			return DaemonStatus{
				Running:    true,
				RootDir:    s.workspace.Root(),
				JobsDBPath: manager.Jobs().Path(),
				Workflow:   manager.Status(),
			}
		}
	}
	return s
}

// Handler returns the chi router serving every route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	if s.metrics != nil {
		r.Use(metrics.RequestMiddleware(s.metrics))
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler(s.refreshGauges))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(bearerAuth(s.token))
		r.Get("/status", s.handleStatus)
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetProject)
				r.Post("/shots", s.handleAddShot)
				r.Get("/renders", s.handleListRenders)
				r.Post("/renders", s.handleStartRender)
				r.Get("/renders/{rsv}", s.handleGetRender)
			})
		})
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.handleListJobs)
			r.Get("/{id}", s.handleGetJob)
		})
	})
	return r
}

func (s *Server) refreshGauges() {
	names, err := s.workspace.List()
	if err != nil {
		s.logger.Debug("project count unavailable", logging.Error(err))
		return
	}
	s.metrics.SetProjects(len(names))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.status())
}

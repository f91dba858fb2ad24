package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/MJE43/bjsim/internal/sim"
	"github.com/MJE43/bjsim/internal/store"
)

// Server handles HTTP requests
type Server struct {
	db           store.DB
	runner       *sim.Runner
	errorHandler *ErrorHandler
	logger       *log.Logger
	upgrader     websocket.Upgrader
	origins      []string
	timeout      time.Duration
	defaults     func(sim.Request) sim.Request
	startTime    time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the default stdout logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAllowedOrigins sets the CORS and websocket origin allow-list.
// An empty list allows every origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithRequestTimeout bounds every non-streaming request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRequestDefaults fills unset simulation fields before validation, for
// example from the config file.
func WithRequestDefaults(fn func(sim.Request) sim.Request) Option {
	return func(s *Server) { s.defaults = fn }
}

// NewServer creates a new API server. db may be nil, in which case the
// run history endpoints report service_unavailable.
func NewServer(db store.DB, opts ...Option) *Server {
	s := &Server{
		db:        db,
		runner:    sim.NewRunner(),
		logger:    log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile),
		timeout:   60 * time.Second,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandler = NewErrorHandler(s.logger)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	s.logger.Printf("server_init database_enabled=%t engine_version=%s", db != nil, EngineVersion)
	return s
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Engine-Version", "X-Error-Type", "X-Error-Category"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		// The stream outlives the request timeout.
		r.Get("/simulations/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.timeout))
			r.Get("/strategies", s.handleListStrategies)
			r.Post("/simulations", s.handleCreateSimulation)
			r.Get("/simulations", s.handleListSimulations)
			r.Get("/simulations/{id}", s.handleGetSimulation)
			r.Delete("/simulations/{id}", s.handleDeleteSimulation)
			r.Post("/rounds/deal", s.handleDeal)
		})
	})

	return r
}

func (s *Server) allowedOrigins() []string {
	if len(s.origins) == 0 {
		return []string{"*"}
	}
	return s.origins
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.origins) == 0 {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// requestLogger writes one key=value line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Printf(
			"request_completed request_id=%s method=%s path=%s status=%d bytes=%d duration_ms=%d remote_ip=%s",
			middleware.GetReqID(r.Context()), r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
			time.Since(start).Milliseconds(), r.RemoteAddr,
		)
	})
}

func (s *Server) applyDefaults(req sim.Request) sim.Request {
	if s.defaults == nil {
		return req
	}
	return s.defaults(req)
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("response_encode_failed err=%v", err)
	}
}

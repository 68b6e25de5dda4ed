package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/hours"
	"storefront/internal/metrics"
	"storefront/internal/seasonal"
)

// StatusProvider exposes the refreshed snapshots and on-demand evaluation.
type StatusProvider interface {
	Hours() (hours.Status, bool)
	Season() (seasonal.State, time.Time, bool)
	HoursAt(t time.Time) hours.Status
	SeasonAt(t time.Time) seasonal.State
	Store() *config.StoreConfig
	Ready() bool
}

// TransitionLister reads recent journal rows.
type TransitionLister interface {
	ListTransitions(ctx context.Context, limit int) ([]database.Transition, error)
}

// CheckFunc is a named readiness probe.
type CheckFunc func(ctx context.Context) error

// HTTPServer serves the read-only storefront API.
type HTTPServer struct {
	server  *http.Server
	status  StatusProvider
	journal TransitionLister
	cache   *cache.SnapshotCache
	limiter *rate.Limiter
	logger  *zerolog.Logger

	checksMu sync.RWMutex
	checks   map[string]CheckFunc
}

// NewHTTPServer wires routes for status and journal. journal and snap may be nil.
func NewHTTPServer(cfg *config.Config, status StatusProvider, journal TransitionLister, snap *cache.SnapshotCache, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	s := &HTTPServer{
		status:  status,
		journal: journal,
		cache:   snap,
		logger:  logger,
		checks:  make(map[string]CheckFunc),
	}
	if cfg.API.RateLimitPerSecond > 0 {
		burst := cfg.API.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.API.RateLimitPerSecond), burst)
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.routes(),
		ReadTimeout:  seconds(cfg.Server.ReadTimeoutSeconds, 10),
		WriteTimeout: seconds(cfg.Server.WriteTimeoutSeconds, 10),
	}
	return s
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}

func (s *HTTPServer) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.routeLabelMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(s.rateLimitMiddleware)
	v1.HandleFunc("/hours", s.handleHours).Methods(http.MethodGet)
	v1.HandleFunc("/hours/at", s.handleHoursAt).Methods(http.MethodGet)
	v1.HandleFunc("/season", s.handleSeason).Methods(http.MethodGet)
	v1.HandleFunc("/season/at", s.handleSeasonAt).Methods(http.MethodGet)
	v1.HandleFunc("/transitions", s.handleTransitions).Methods(http.MethodGet)

	// Subrouters do not inherit the parent's fallback handlers.
	for _, router := range []*mux.Router{r, v1} {
		router.NotFoundHandler = http.HandlerFunc(notFound)
		router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	}

	// Wrapped outside the router so unmatched requests are counted too.
	return s.metricsMiddleware(r)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// Handler returns the root handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// AddReadinessCheck registers a probe consulted by /readyz.
func (s *HTTPServer) AddReadinessCheck(name string, check CheckFunc) {
	s.checksMu.Lock()
	s.checks[name] = check
	s.checksMu.Unlock()
}

// Start serves until Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code  int
	route string
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// routeLabelMiddleware runs only for matched routes and tags the recorder with the route template.
func (s *HTTPServer) routeLabelMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec, ok := w.(*statusRecorder); ok {
			if cur := mux.CurrentRoute(r); cur != nil {
				if tmpl, err := cur.GetPathTemplate(); err == nil {
					rec.route = tmpl
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK, route: "unmatched"}
		start := time.Now()
		next.ServeHTTP(rec, r)

		metrics.IncHTTPRequest(rec.route, strconv.Itoa(rec.code))
		s.logger.Debug().
			Str("method", r.Method).
			Str("route", rec.route).
			Int("code", rec.code).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

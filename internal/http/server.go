package http

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerConfig holds the tunables of the API server.
type ServerConfig struct {
	Addr               string
	RateLimitPerMinute int
	ReportCacheSize    int
	ReportCacheTTL     time.Duration
	CacheCleanup       time.Duration
	Logger             *log.Logger

	// Storage is checked by /readyz when set.
	Storage Pinger
}

// DefaultServerConfig returns sensible defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:               ":8081",
		RateLimitPerMinute: 60,
		ReportCacheSize:    128,
		ReportCacheTTL:     time.Minute,
		CacheCleanup:       10 * time.Minute,
	}
}

type Server struct {
	http.Server
	svc     *services.FinanceService
	logger  *log.Logger
	storage Pinger

	// Report caches keyed by ledger version, so any mutation invalidates them.
	dashboards   *cache.Loader[metrics.Dashboard]
	insights     *cache.Loader[metrics.Insights]
	portfolios   *cache.Loader[metrics.PortfolioSummary]
	goals        *cache.Loader[metrics.GoalsReport]
	cacheManager *cache.Manager

	rateLimiter     *ratelimit.Limiter
	detector        *security.Detector
	traceMiddleware *trace.Middleware

	started      time.Time
	mutations    atomic.Int64
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg ServerConfig, svc *services.FinanceService) *Server {
	defaults := DefaultServerConfig()
	if cfg.ReportCacheSize <= 0 {
		cfg.ReportCacheSize = defaults.ReportCacheSize
	}
	if cfg.CacheCleanup <= 0 {
		cfg.CacheCleanup = defaults.CacheCleanup
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = defaults.RateLimitPerMinute
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentHTTP, Output: os.Stdout})
	}

	s := &Server{
		svc:          svc,
		logger:       cfg.Logger.WithComponent(log.ComponentHTTP),
		storage:      cfg.Storage,
		dashboards:   cache.NewLoader[metrics.Dashboard](cfg.ReportCacheSize, cfg.ReportCacheTTL),
		insights:     cache.NewLoader[metrics.Insights](cfg.ReportCacheSize, cfg.ReportCacheTTL),
		portfolios:   cache.NewLoader[metrics.PortfolioSummary](cfg.ReportCacheSize, cfg.ReportCacheTTL),
		goals:        cache.NewLoader[metrics.GoalsReport](cfg.ReportCacheSize, cfg.ReportCacheTTL),
		cacheManager: cache.NewManager(),
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:     security.NewDetector(),
		started:      time.Now(),
	}
	s.traceMiddleware = trace.NewMiddleware(cfg.Logger, s.detector.ClientIP)

	s.cacheManager.Register(s.dashboards)
	s.cacheManager.Register(s.insights)
	s.cacheManager.Register(s.portfolios)
	s.cacheManager.Register(s.goals)
	s.cacheManager.StartCleanup(cfg.CacheCleanup)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.middleware(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/categories", s.handleCategories)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("PUT /api/budgets", s.handleSetBudget)

	mux.HandleFunc("GET /api/goals", s.handleGoalsReport)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/contributions", s.handleContribute)

	mux.HandleFunc("GET /api/investments", s.handleListInvestments)
	mux.HandleFunc("POST /api/investments", s.handleCreateInvestment)
	mux.HandleFunc("PUT /api/investments/{id}", s.handleUpdateInvestment)
	mux.HandleFunc("DELETE /api/investments/{id}", s.handleDeleteInvestment)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/insights", s.handleInsights)
	mux.HandleFunc("GET /api/portfolio", s.handlePortfolio)

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("DELETE /api/data", s.handleClearAll)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	return mux
}

// middleware wraps h with tracing, logging, security headers, probe
// detection and rate limiting, outermost first.
func (s *Server) middleware(h http.Handler) http.Handler {
	h = s.rateLimiter.Middleware(s.detector.ClientIP, s.onRateLimit)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = log.Middleware(s.logger)(h)
	return s.traceMiddleware.Middleware(h)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many changes, please try again shortly").Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

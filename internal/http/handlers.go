package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/cache"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.storage != nil {
		if err := s.storage.Ping(ctx); err != nil {
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "memory"
	}

	checks["ledger"] = map[string]any{
		"version": s.svc.Version(),
		"status":  "ok",
	}
	checks["rate_limiter"] = s.rateLimiter.GetMetrics()

	NewResponse().
		Status(httpStatus).
		JSON(map[string]any{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    checks,
		}).
		Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	snap := s.svc.Snapshot()
	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
	}
	gauge := func(name, help string, v any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %v\n\n", name, help, name, name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	counter("http_server_errors_total", "Responses with a 5xx status", traceMetrics.ServerErrors)
	gauge("http_response_time_avg_microseconds", "Average response time", traceMetrics.AverageResponseTime)

	counter("ledger_mutations_total", "Successful ledger changes served", s.mutations.Load())
	gauge("ledger_version", "Current ledger version", snap.Version)
	gauge("ledger_transactions", "Stored transactions", len(snap.Transactions))
	gauge("ledger_budgets", "Stored budgets", len(snap.Budgets))
	gauge("ledger_goals", "Stored savings goals", len(snap.Goals))
	gauge("ledger_investments", "Stored investments", len(snap.Investments))

	for name, st := range map[string]cache.Stats{
		"dashboard": s.dashboards.Stats(),
		"insights":  s.insights.Stats(),
		"portfolio": s.portfolios.Stats(),
		"goals":     s.goals.Stats(),
	} {
		fmt.Fprintf(w, "report_cache_hits_total{report=%q} %d\n", name, st.Hits)
		fmt.Fprintf(w, "report_cache_misses_total{report=%q} %d\n", name, st.Misses)
		fmt.Fprintf(w, "report_cache_shared_total{report=%q} %d\n", name, st.Shared)
		fmt.Fprintf(w, "report_cache_entries{report=%q} %d\n", name, st.Size)
		fmt.Fprintf(w, "report_cache_evictions_total{report=%q} %d\n", name, st.Evictions)
	}
	fmt.Fprintln(w)

	counter("rate_limit_hits_total", "Requests refused by the rate limiter", rateLimitMetrics.TotalHits)
	gauge("rate_limit_clients", "Clients tracked by the rate limiter", rateLimitMetrics.ClientCount)
	counter("suspicious_requests_total", "Requests rejected as probes", securityMetrics.SuspiciousRequests)
	counter("invalid_ip_attempts_total", "Unparsable forwarded client addresses", securityMetrics.InvalidIPAttempts)

	gauge("uptime_seconds", "Seconds since the server started", int64(time.Since(s.started).Seconds()))
}

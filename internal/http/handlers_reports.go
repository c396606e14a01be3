package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/exchange"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
)

// reportKey identifies a cached report. Time dependent reports also key on
// the minute, so day boundaries are picked up without a mutation.
func reportKey(version uint64, now time.Time, parts ...string) string {
	key := strconv.FormatUint(version, 10) + "|" + now.UTC().Truncate(time.Minute).Format(time.RFC3339)
	for _, p := range parts {
		key += "|" + p
	}
	return key
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	key := strconv.FormatUint(s.svc.Version(), 10)
	d, err := s.dashboards.Get(key, func() (metrics.Dashboard, error) {
		return metrics.BuildDashboard(s.svc.Snapshot()), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, d)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	now := s.svc.Now()
	key := reportKey(s.svc.Version(), now, string(f.Window), f.Category)
	in, err := s.insights.Get(key, func() (metrics.Insights, error) {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Computing insights",
			log.FieldWindow, f.Window,
			log.FieldCategory, f.Category)
		return metrics.BuildInsights(s.svc.Snapshot(), f, now), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, in)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	key := strconv.FormatUint(s.svc.Version(), 10)
	p, err := s.portfolios.Get(key, func() (metrics.PortfolioSummary, error) {
		return metrics.Portfolio(s.svc.Snapshot().Investments), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleGoalsReport(w http.ResponseWriter, r *http.Request) {
	now := s.svc.Now()
	g, err := s.goals.Get(reportKey(s.svc.Version(), now), func() (metrics.GoalsReport, error) {
		return metrics.BuildGoalsReport(s.svc.Snapshot(), now), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, g)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Stats()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, st)
}

// handleExport downloads the backup document.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.svc.Export(&buf); err != nil {
		s.writeError(w, r, fmt.Errorf("export ledger: %w", err))
		return
	}
	filename := fmt.Sprintf("fintrack-backup-%s.json", s.svc.Now().Format("2006-01-02"))
	NewResponse().
		Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename)).
		Raw("application/json", buf.Bytes()).
		Write(w)
}

type importResponse struct {
	Imported []string `json:"imported"`
	Dropped  int      `json:"dropped"`
}

// handleImport applies an uploaded backup document. A rejected document
// leaves the ledger untouched.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	res, n, err := s.svc.Import(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeMutation(w, http.StatusOK, importResponse{Imported: res.Keys, Dropped: res.Dropped}, n)
}

// handleClearAll erases every collection. The caller must confirm with
// ?confirm=true.
func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		s.writeError(w, r, badRequest("clearing all data requires confirm=true"))
		return
	}
	n := s.svc.ClearAll(r.Context())
	st, err := s.svc.Stats()
	if err != nil {
		st = exchange.Stats{}
	}
	s.writeMutation(w, http.StatusOK, st, n)
}

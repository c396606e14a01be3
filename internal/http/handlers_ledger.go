package http

import (
	"cmp"
	"net/http"
	"slices"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
)

type categoriesResponse struct {
	Expense         []string              `json:"expense"`
	Income          []string              `json:"income"`
	InvestmentTypes []core.InvestmentType `json:"investmentTypes"`
	GoalPeriods     []core.GoalPeriod     `json:"goalPeriods"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, categoriesResponse{
		Expense:         core.ExpenseCategories,
		Income:          core.IncomeCategories,
		InvestmentTypes: core.InvestmentTypes,
		GoalPeriods:     []core.GoalPeriod{core.Period6Months, core.Period1Year, core.Period5Years},
	})
}

// handleListTransactions lists transactions newest first. The optional
// window, category and kind parameters narrow the list.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := s.svc.Snapshot().Transactions

	q := r.URL.Query()
	if q.Get("window") != "" || q.Get("category") != "" {
		f, err := parseFilter(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		txs = f.Apply(txs, s.svc.Now())
	}
	if kind := core.Kind(q.Get("kind")); kind != "" {
		if !kind.Valid() {
			s.writeError(w, r, badRequest("unknown kind %q", kind))
			return
		}
		txs = slices.DeleteFunc(txs, func(t core.Transaction) bool { return t.Kind != kind })
	}

	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	writeJSON(w, orEmpty(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		s.writeError(w, r, err)
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tx, n, err := s.svc.AddTransaction(r.Context(), tx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeMutation(w, http.StatusCreated, tx, n)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.svc.DeleteTransaction(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeMutation(w, http.StatusOK, map[string]int64{"id": id}, n)
}

type budgetsResponse struct {
	Budgets core.Budgets         `json:"budgets"`
	Lines   []metrics.BudgetLine `json:"comparison"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	snap := s.svc.Snapshot()
	writeJSON(w, budgetsResponse{
		Budgets: snap.Budgets,
		Lines:   metrics.CompareBudgets(metrics.CategoryTotals(snap.Expenses()), snap.Budgets),
	})
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		s.writeError(w, r, err)
		return
	}
	category := sanitizeInput(req.Category)
	n, err := s.svc.SetBudget(r.Context(), category, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeMutation(w, http.StatusOK, budgetRequest{Category: category, Amount: req.Amount}, n)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, n, err := s.svc.AddGoal(r.Context(), sanitizeInput(req.Title), req.TargetAmount, req.Period, sanitizeInput(req.Description))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeMutation(w, http.StatusCreated, metrics.Track(g, s.svc.Now()), n)
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req contributionRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, n, err := s.svc.Contribute(r.Context(), id, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeMutation(w, http.StatusOK, metrics.Track(g, s.svc.Now()), n)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.svc.DeleteGoal(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeMutation(w, http.StatusOK, map[string]int64{"id": id}, n)
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, orEmpty(s.svc.Snapshot().Investments))
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var inv core.Investment
	if err := decodeJSON(w, r, &inv, maxBodyBytes); err != nil {
		s.writeError(w, r, err)
		return
	}
	inv.Name = sanitizeInput(inv.Name)
	inv, n, err := s.svc.AddInvestment(r.Context(), inv)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeMutation(w, http.StatusCreated, inv, n)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var inv core.Investment
	if err := decodeJSON(w, r, &inv, maxBodyBytes); err != nil {
		s.writeError(w, r, err)
		return
	}
	inv.Name = sanitizeInput(inv.Name)
	inv, n, err := s.svc.UpdateInvestment(r.Context(), id, inv)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeMutation(w, http.StatusOK, inv, n)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.svc.DeleteInvestment(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeMutation(w, http.StatusOK, map[string]int64{"id": id}, n)
}

// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating request data:
// bounded JSON bodies, path identifiers and report query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
)

const (
	// maxBodyBytes bounds ordinary API payloads.
	maxBodyBytes = 64 << 10
	// maxImportBytes bounds backup uploads.
	maxImportBytes = 16 << 20
)

// ErrBadRequest marks input that could not be read at all.
var ErrBadRequest = errors.New("bad request")

type (
	// transactionRequest carries an explicit kind and a positive amount. When
	// kind is omitted the amount sign decides, as in the export document.
	transactionRequest struct {
		Kind        core.Kind  `json:"kind"`
		Amount      core.Money `json:"amount"`
		Description string     `json:"description"`
		Category    string     `json:"category"`
		Date        string     `json:"date"`
	}

	budgetRequest struct {
		Category string     `json:"category"`
		Amount   core.Money `json:"amount"`
	}

	goalRequest struct {
		Title        string          `json:"title"`
		TargetAmount core.Money      `json:"targetAmount"`
		Period       core.GoalPeriod `json:"period"`
		Description  string          `json:"description"`
	}

	contributionRequest struct {
		Amount core.Money `json:"amount"`
	}
)

// decodeJSON reads at most limit bytes of r's body into dst. Unknown fields
// are ignored. Amount errors keep their core sentinel so they map to 422.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrInvalidNumber) {
			return fmt.Errorf("%w: %w", core.ErrValidation, err)
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// toTransaction converts the request into a ledger transaction.
func (req transactionRequest) toTransaction() (core.Transaction, error) {
	tx := core.Transaction{
		Kind:        req.Kind,
		Amount:      req.Amount,
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
	}
	if tx.Kind == "" {
		if err := tx.FromSigned(req.Amount); err != nil {
			return core.Transaction{}, fmt.Errorf("%w: %w", core.ErrValidation, err)
		}
	}
	d, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", core.ErrValidation, err)
	}
	tx.Date = d
	return tx, nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrBadRequest, raw)
	}
	return id, nil
}

// parseFilter reads the window and category query parameters of the
// insights report.
func parseFilter(r *http.Request) (metrics.Filter, error) {
	q := r.URL.Query()
	w, err := metrics.ParseWindow(q.Get("window"))
	if err != nil {
		return metrics.Filter{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	category := sanitizeInput(q.Get("category"))
	if category == "" {
		category = metrics.AllCategories
	}
	return metrics.Filter{Window: w, Category: category}, nil
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s))
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

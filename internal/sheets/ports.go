package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerWriter mirrors a ledger snapshot somewhere outside the process.
	// Every call rewrites the mirror wholesale.
	LedgerWriter interface {
		ReplaceLedger(ctx context.Context, s core.Snapshot) error
	}
)

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

// openLedger loads the ledger the server would run on. Change events are
// published when AMQP is configured, so the mirror follows CLI edits too.
func openLedger(ctx context.Context) (*services.FinanceService, func(), error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentCLI,
		Output:    os.Stderr,
	})

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}

	opts := []services.Option{services.WithCurrency(cfg.Currency)}
	if res.Publisher != nil {
		opts = append(opts, services.WithPublisher(res.Publisher))
	}
	svc := services.NewFinanceService(store.New(), res.Persistence, opts...)
	if err := svc.Load(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("load ledger: %w", err)
	}
	return svc, closeFn, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printNotification reports the outcome of a change on stderr. A warning
// means the change applied but was not saved.
func printNotification(w io.Writer, n services.Notification) {
	fmt.Fprintf(w, "%s: %s\n", n.Type, n.Message)
}

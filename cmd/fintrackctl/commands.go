package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"fintrack/internal/metrics"
	"fintrack/internal/services"
)

var commands = []subcommands.Command{
	&exportCmd{},
	&importCmd{},
	&insightsCmd{},
	&portfolioCmd{},
	&statsCmd{},
	&clearCmd{},
}

// ledgerRun is the body of a command once the ledger is open.
type ledgerRun func(ctx context.Context, svc *services.FinanceService, f *flag.FlagSet) error

func withLedger(ctx context.Context, f *flag.FlagSet, run ledgerRun) subcommands.ExitStatus {
	svc, closeFn, err := openLedger(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	if err := run(ctx, svc, f); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write a backup document of the whole ledger" }
func (*exportCmd) Usage() string {
	return `fintrackctl export [-o <file>]

  Writes the backup document to stdout or to the given file.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file (default stdout).")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withLedger(ctx, f, func(_ context.Context, svc *services.FinanceService, _ *flag.FlagSet) error {
		if c.output == "" {
			return svc.Export(os.Stdout)
		}
		out, err := os.Create(c.output)
		if err != nil {
			return fmt.Errorf("create %s: %w", c.output, err)
		}
		if err := svc.Export(out); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "restore collections from a backup document" }
func (*importCmd) Usage() string {
	return `fintrackctl import <file|->

  Every collection present in the document replaces the stored one;
  absent collections are kept. A malformed document changes nothing.
`
}

func (*importCmd) SetFlags(*flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "import expects exactly one file argument")
		return subcommands.ExitUsageError
	}
	return withLedger(ctx, f, func(ctx context.Context, svc *services.FinanceService, f *flag.FlagSet) error {
		var in io.Reader = os.Stdin
		if name := f.Arg(0); name != "-" {
			file, err := os.Open(name)
			if err != nil {
				return fmt.Errorf("open %s: %w", name, err)
			}
			defer file.Close()
			in = file
		}
		_, n, err := svc.Import(ctx, in)
		if err != nil {
			return fmt.Errorf("%s: %w", n.Message, err)
		}
		printNotification(os.Stderr, n)
		return nil
	})
}

type insightsCmd struct {
	window   string
	category string
}

func (*insightsCmd) Name() string     { return "insights" }
func (*insightsCmd) Synopsis() string { return "print the spending insights report" }
func (*insightsCmd) Usage() string {
	return `fintrackctl insights [-window <1month|3months|6months|12months>] [-category <name>]
`
}

func (c *insightsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.window, "window", string(metrics.DefaultWindow), "Time range of the report.")
	f.StringVar(&c.category, "category", metrics.AllCategories, "Restrict the report to one category.")
}

func (c *insightsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	window, err := metrics.ParseWindow(c.window)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return withLedger(ctx, f, func(_ context.Context, svc *services.FinanceService, _ *flag.FlagSet) error {
		filter := metrics.Filter{Window: window, Category: c.category}
		return printJSON(os.Stdout, metrics.BuildInsights(svc.Snapshot(), filter, svc.Now()))
	})
}

type portfolioCmd struct{}

func (*portfolioCmd) Name() string           { return "portfolio" }
func (*portfolioCmd) Synopsis() string       { return "print the investment portfolio summary" }
func (*portfolioCmd) Usage() string          { return "fintrackctl portfolio\n" }
func (*portfolioCmd) SetFlags(*flag.FlagSet) {}

func (*portfolioCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withLedger(ctx, f, func(_ context.Context, svc *services.FinanceService, _ *flag.FlagSet) error {
		return printJSON(os.Stdout, metrics.Portfolio(svc.Snapshot().Investments))
	})
}

type statsCmd struct{}

func (*statsCmd) Name() string           { return "stats" }
func (*statsCmd) Synopsis() string       { return "print collection counts and storage size" }
func (*statsCmd) Usage() string          { return "fintrackctl stats\n" }
func (*statsCmd) SetFlags(*flag.FlagSet) {}

func (*statsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withLedger(ctx, f, func(_ context.Context, svc *services.FinanceService, _ *flag.FlagSet) error {
		st, err := svc.Stats()
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, st)
	})
}

type clearCmd struct {
	confirm bool
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "erase every collection" }
func (*clearCmd) Usage() string {
	return `fintrackctl clear -confirm

  Erases transactions, budgets, goals and investments. Export first.
`
}

func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.confirm, "confirm", false, "Required to actually erase the data.")
}

func (c *clearCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.confirm {
		fmt.Fprintln(os.Stderr, "refusing to clear the ledger without -confirm")
		return subcommands.ExitUsageError
	}
	return withLedger(ctx, f, func(ctx context.Context, svc *services.FinanceService, _ *flag.FlagSet) error {
		printNotification(os.Stderr, svc.ClearAll(ctx))
		return nil
	})
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"StockPulse/internal/model"
)

// runCmd executes a single pipeline run and exits.
type runCmd struct {
	symbols string
	timeout time.Duration
	quiet   bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "fetch, validate, load and report once" }
func (*runCmd) Usage() string {
	return `stockpulse run [-symbols IBM,AAPL] [-timeout 10m] [-q]

  Runs the pipeline once over the configured symbols and prints the result.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbols, "symbols", "", "Comma separated symbols, overrides the configured universe")
	f.DurationVar(&c.timeout, "timeout", 0, "Abort fetching after this long (default schedule.run_timeout)")
	f.BoolVar(&c.quiet, "q", false, "Do not print the run summary")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	if c.symbols != "" {
		cfg.Symbols = model.NormalizeSymbols(strings.Split(c.symbols, ","))
	}
	if err := cfg.ValidateSource(); err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	p, err := a.pipeline()
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}

	timeout := c.timeout
	if timeout == 0 {
		timeout = cfg.Schedule.RunTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	run, err := p.Run(ctx)
	if run != nil && !c.quiet {
		printMarkdown(runMarkdown(run))
	}
	if err != nil {
		log.Printf("[ERROR] run failed: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func runMarkdown(run *model.RunReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Run %s: %s\n\n", run.RunID, run.Outcome))
	b.WriteString("| Symbol | Status | Records | Error |\n")
	b.WriteString("|:--|:--|--:|:--|\n")
	for _, s := range run.Symbols {
		b.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n", s.Symbol, s.Status, s.Records, strings.ReplaceAll(s.Error, "|", "/")))
	}
	b.WriteString(fmt.Sprintf("\nInserted **%d**, duplicates **%d**, failed **%d** in %s.\n",
		run.Inserted, run.Duplicates, run.Failed, run.Duration().Round(time.Millisecond)))
	if run.ReportPath != "" {
		b.WriteString(fmt.Sprintf("\nReport: `%s`\n", run.ReportPath))
	}
	if run.ReportError != "" {
		b.WriteString(fmt.Sprintf("\nReport error: %s\n", run.ReportError))
	}
	return b.String()
}

// printMarkdown renders md for the terminal, falling back to plain text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		if out, err := r.Render(md); err == nil {
			fmt.Fprint(os.Stdout, out)
			return
		}
	}
	fmt.Fprint(os.Stdout, md)
}

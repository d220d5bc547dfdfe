package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"StockPulse/internal/model"
)

// FormatRunReport formats a finished run into a Telegram message.
func FormatRunReport(run *model.RunReport) string {
	var b strings.Builder

	icon := "✅"
	switch run.Outcome {
	case model.OutcomePartial, model.OutcomeNoData:
		icon = "⚠️"
	case model.OutcomeFailed:
		icon = "❌"
	}
	b.WriteString(fmt.Sprintf("%s <b>StockPulse run</b> | %s\n\n", icon, run.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Outcome: %s\n", run.Outcome))
	b.WriteString(fmt.Sprintf("Symbols: %d loaded / %d total\n", run.Count(model.SymbolLoaded), len(run.Symbols)))
	b.WriteString(fmt.Sprintf("Rows: %s inserted, %s duplicate, %s failed\n",
		humanize.Comma(int64(run.Inserted)), humanize.Comma(int64(run.Duplicates)), humanize.Comma(int64(run.Failed))))
	if d := run.Duration(); d > 0 {
		b.WriteString(fmt.Sprintf("Duration: %s\n", d.Round(time.Second)))
	}

	var failed []string
	for _, s := range run.Symbols {
		if s.Status == model.SymbolLoaded || s.Status == model.SymbolTransformed {
			continue
		}
		failed = append(failed, fmt.Sprintf("  %s: %s", s.Symbol, s.Status))
	}
	if len(failed) > 0 {
		b.WriteString("\n<b>Not loaded:</b>\n")
		b.WriteString(strings.Join(failed, "\n"))
		b.WriteString("\n")
	}
	if run.Error != "" {
		b.WriteString(fmt.Sprintf("\nError: %s\n", html.EscapeString(run.Error)))
	}
	if run.ReportError != "" {
		b.WriteString(fmt.Sprintf("\nReport error: %s\n", html.EscapeString(run.ReportError)))
	}
	return b.String()
}

// FormatOverview formats the market KPIs of one date.
func FormatOverview(ov model.MarketOverview) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Market overview</b> | %s\n\n", ov.Date))
	b.WriteString(fmt.Sprintf("Total volume: %s\n", humanize.Comma(ov.TotalVolume)))
	b.WriteString(fmt.Sprintf("Top gainer: %s (%+.2f%%)\n", ov.TopGainerSymbol, ov.TopGainerChange))
	b.WriteString(fmt.Sprintf("Top loser: %s (%+.2f%%)\n", ov.TopLoserSymbol, ov.TopLoserChange))
	return b.String()
}

// FormatSummary formats the daily summary with one line per symbol.
func FormatSummary(sum model.DailySummary) string {
	var b strings.Builder
	b.WriteString(FormatOverview(sum.Overview))
	b.WriteString(fmt.Sprintf("Symbols: %d\n\n", sum.Symbols))
	for _, r := range sum.Rows {
		b.WriteString(fmt.Sprintf("<code>%-6s</code> %10.2f %+6.2f%%", r.Symbol, r.Close, r.Change))
		if r.RSI14 != nil {
			b.WriteString(fmt.Sprintf("  RSI %.0f", *r.RSI14))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatHelp lists the supported chat commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("🤖 <b>StockPulse commands</b>\n\n")
	b.WriteString("/run - start a pipeline run now\n")
	b.WriteString("/overview - latest market overview\n")
	b.WriteString("/status - result of the last run\n")
	return b.String()
}

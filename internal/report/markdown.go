package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"StockPulse/internal/model"
)

// RenderMarkdown renders the daily summary document.
func RenderMarkdown(sum model.DailySummary, run *model.RunReport) string {
	var b strings.Builder
	ov := sum.Overview

	b.WriteString(fmt.Sprintf("# Daily Market Summary: %s\n\n", ov.Date))

	b.WriteString("## Overview\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|:--|--:|\n")
	b.WriteString(fmt.Sprintf("| Symbols | %d |\n", sum.Symbols))
	b.WriteString(fmt.Sprintf("| Total volume | %s |\n", humanize.Comma(ov.TotalVolume)))
	if ov.TopGainerSymbol != "" {
		b.WriteString(fmt.Sprintf("| Top gainer | %s (%+.2f%%) |\n", ov.TopGainerSymbol, ov.TopGainerChange))
		b.WriteString(fmt.Sprintf("| Top loser | %s (%+.2f%%) |\n", ov.TopLoserSymbol, ov.TopLoserChange))
	}
	b.WriteString("\n")

	if len(sum.Rows) > 0 {
		b.WriteString("## Symbols\n\n")
		b.WriteString("| Symbol | Close | Change | Volume | SMA 20 | RSI 14 | Range | Position |\n")
		b.WriteString("|:--|--:|--:|--:|--:|--:|--:|--:|\n")
		for _, r := range sum.Rows {
			b.WriteString(fmt.Sprintf("| %s | %.2f | %+.2f%% | %s | %s | %s | %.2f - %.2f | %.0f%% |\n",
				r.Symbol, r.Close, r.Change, humanize.Comma(r.Volume),
				optional(r.SMA20, "%.2f"), optional(r.RSI14, "%.1f"),
				r.WindowLow, r.WindowHigh, r.Position*100))
		}
		b.WriteString("\n")
	}

	if run != nil {
		b.WriteString("## Run\n\n")
		b.WriteString(fmt.Sprintf("- Run ID: `%s`\n", run.RunID))
		b.WriteString(fmt.Sprintf("- Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST")))
		b.WriteString(fmt.Sprintf("- Rows: %s inserted, %s duplicate, %s failed\n",
			humanize.Comma(int64(run.Inserted)), humanize.Comma(int64(run.Duplicates)), humanize.Comma(int64(run.Failed))))
		for _, s := range run.Symbols {
			if s.Status == model.SymbolLoaded {
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: %s\n", s.Symbol, s.Status))
		}
	}
	return b.String()
}

func optional(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}

// Package report writes the daily summary of a run as Markdown and HTML.
package report

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"StockPulse/internal/calculator"
	"StockPulse/internal/model"
	"StockPulse/internal/notifier"
	"StockPulse/internal/store"
)

const pageStyle = `body{font-family:-apple-system,"Segoe UI",Helvetica,Arial,sans-serif;max-width:960px;margin:2em auto;color:#222}
table{border-collapse:collapse;margin:1em 0}th,td{border:1px solid #ccc;padding:4px 10px}th{background:#f4f4f4}
code{background:#f4f4f4;padding:1px 4px}`

// Reporter renders the daily summary for the latest date of a run.
type Reporter struct {
	Dir      string
	Reader   store.Reader               // optional; supplies history for indicators
	Notifier *notifier.TelegramNotifier // optional
	md       goldmark.Markdown
}

// New creates a Reporter writing into dir.
func New(dir string, reader store.Reader, n *notifier.TelegramNotifier) *Reporter {
	return &Reporter{
		Dir:      dir,
		Reader:   reader,
		Notifier: n,
		md:       goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// Report computes the summary of the run's latest date, writes
// daily_summary_<date>.md and .html and returns the HTML path.
// Sending the Telegram summary is best-effort.
func (r *Reporter) Report(ctx context.Context, run *model.RunReport, records []model.StockRecord) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("report: no records")
	}

	histories, err := r.histories(ctx, records)
	if err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	date := latestDate(records)
	sum := calculator.Summarize(date, histories)

	doc := RenderMarkdown(sum, run)
	page, err := r.renderHTML(doc, "Daily Market Summary "+date)
	if err != nil {
		return "", fmt.Errorf("report: render html: %w", err)
	}

	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	base := filepath.Join(r.Dir, "daily_summary_"+date)
	if err := os.WriteFile(base+".md", []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	htmlPath := base + ".html"
	if err := os.WriteFile(htmlPath, page, 0o644); err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	log.Printf("[INFO] report written: %s", htmlPath)

	if r.Notifier.Enabled() {
		if err := r.Notifier.SendWithRetry(ctx, notifier.FormatSummary(sum), 2); err != nil {
			log.Printf("[WARN] send summary: %v", err)
		}
	}
	return htmlPath, nil
}

// histories returns the stored history of every symbol in records, falling
// back to the records themselves when there is no reader.
func (r *Reporter) histories(ctx context.Context, records []model.StockRecord) (map[string][]model.StockRecord, error) {
	out := make(map[string][]model.StockRecord)
	for _, rec := range records {
		out[rec.Symbol] = append(out[rec.Symbol], rec)
	}
	if r.Reader == nil {
		return out, nil
	}
	for symbol := range out {
		h, err := r.Reader.History(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if len(h) > 0 {
			out[symbol] = h
		}
	}
	return out, nil
}

func (r *Reporter) renderHTML(doc, title string) ([]byte, error) {
	md := r.md
	if md == nil {
		md = goldmark.New(goldmark.WithExtensions(extension.Table))
	}
	var body bytes.Buffer
	if err := md.Convert([]byte(doc), &body); err != nil {
		return nil, err
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n<style>\n%s\n</style>\n</head>\n<body>\n",
		html.EscapeString(title), pageStyle)
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

func latestDate(records []model.StockRecord) string {
	latest := ""
	for _, r := range records {
		if r.Date > latest {
			latest = r.Date
		}
	}
	return latest
}

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/doodlesbykumbi/migratest/pkg/checks"
	"github.com/doodlesbykumbi/migratest/pkg/config"
)

// Report is one suite run, ready for rendering.
type Report struct {
	GeneratedAt   time.Time      `json:"generated_at"`
	MigrationsDir string         `json:"migrations_dir"`
	DatabaseURL   string         `json:"database_url"`
	Summary       checks.Summary `json:"summary"`
}

// New builds a report, redacting credentials from the database URL.
func New(summary checks.Summary, migrationsDir, databaseURL string) *Report {
	return &Report{
		GeneratedAt:   time.Now().UTC(),
		MigrationsDir: migrationsDir,
		DatabaseURL:   config.RedactURL(databaseURL),
		Summary:       summary,
	}
}

func statusMark(s checks.Status) string {
	switch s {
	case checks.StatusPassed:
		return "✓"
	case checks.StatusFailed:
		return "✗"
	case checks.StatusSkipped:
		return "-"
	default:
		return "!"
	}
}

// Markdown renders the report as a Markdown document.
func (r *Report) Markdown() []byte {
	var b strings.Builder

	b.WriteString("# Migration Consistency Report\n\n")
	fmt.Fprintf(&b, "- Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Migrations: `%s`\n", r.MigrationsDir)
	if r.DatabaseURL != "" {
		fmt.Fprintf(&b, "- Database: `%s`\n", r.DatabaseURL)
	}
	b.WriteString("\n")

	counts := r.Summary.Counts()
	fmt.Fprintf(&b, "**%d passed**, %d failed, %d skipped, %d errored\n\n",
		counts[checks.StatusPassed], counts[checks.StatusFailed],
		counts[checks.StatusSkipped], counts[checks.StatusErrored])

	b.WriteString("| | Check | Status |\n")
	b.WriteString("|---|---|---|\n")
	for _, result := range r.Summary.Results {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", statusMark(result.Status), result.Check, result.Status)
	}
	b.WriteString("\n")

	for _, result := range r.Summary.Results {
		if result.Detail == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n```\n%s\n```\n\n", result.Check, result.Detail)
	}

	return []byte(b.String())
}

// HTML renders the Markdown report to HTML.
func (r *Report) HTML() ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Migration Consistency Report</title></head><body>\n")
	if err := md.Convert(r.Markdown(), &buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	buf.WriteString("</body></html>\n")
	return buf.Bytes(), nil
}

// JSON renders the report for machine consumption.
func (r *Report) JSON() ([]byte, error) {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return out, nil
}

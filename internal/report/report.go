// Package report renders outcomes for humans.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fedragon/go-vscrub/internal/models"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	bold   = color.New(color.Bold)
)

func paint(o models.Outcome, dryRun bool) *color.Color {
	switch {
	case o.Failed():
		return red
	case o == models.NotFound || dryRun:
		return yellow
	}
	return green
}

// Results writes one line per store followed by the totals.
func Results(w io.Writer, results []models.SanitizeResult) {
	if len(results) == 0 {
		_, _ = yellow.Fprintln(w, "No settings store found")
		return
	}

	var failed int
	for i, r := range results {
		_, _ = fmt.Fprintf(w, "[%d/%d] %-8s ", i+1, len(results), r.Location.App)
		_, _ = paint(r.Outcome, r.DryRun).Fprint(w, describe(r))
		_, _ = fmt.Fprintf(w, "  %s\n", r.Location.Path)

		if r.Outcome.Failed() {
			failed++
		}
	}

	_, _ = bold.Fprintf(w, "%d processed, %d succeeded, %d failed\n", len(results), len(results)-failed, failed)
}

func describe(r models.SanitizeResult) string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("%s: %v", r.Outcome, r.Err)
	case r.DryRun:
		return fmt.Sprintf("dry run, would delete %d rows", r.Matched)
	case r.Outcome == models.Succeeded:
		return fmt.Sprintf("deleted %d rows, backup at %s", r.Deleted, r.BackupPath)
	case r.Outcome == models.Restored:
		return fmt.Sprintf("restored from %s", r.BackupPath)
	}
	return string(r.Outcome)
}

// Stats writes one line per inspected store.
func Stats(w io.Writer, stats []models.StoreStats) {
	if len(stats) == 0 {
		_, _ = yellow.Fprintln(w, "No settings store found")
		return
	}

	for _, s := range stats {
		_, _ = fmt.Fprintf(w, "%-8s %s\n", s.Location.App, s.Location.Path)
		if s.Err != nil {
			_, _ = red.Fprintf(w, "         %v\n", s.Err)
			continue
		}
		_, _ = fmt.Fprintf(w, "         %d bytes, %d rows, ", s.Size, s.Rows)
		if s.Matching > 0 {
			_, _ = yellow.Fprintf(w, "%d matching\n", s.Matching)
		} else {
			_, _ = green.Fprintf(w, "%d matching\n", s.Matching)
		}
	}
}

// History writes journal entries, one per line.
func History(w io.Writer, entries []models.JournalEntry) {
	if len(entries) == 0 {
		_, _ = yellow.Fprintln(w, "Journal is empty")
		return
	}

	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "#%-4d %s %-8s ", e.Seq, e.Time.Local().Format(time.DateTime), e.App)
		line := string(e.Outcome)
		if e.Error != "" {
			line += ": " + e.Error
		} else if e.Outcome == models.Succeeded && !e.DryRun {
			line += fmt.Sprintf(", %d rows deleted", e.Deleted)
		} else if e.DryRun {
			line += " (dry run)"
		}
		_, _ = paint(e.Outcome, e.DryRun).Fprint(w, line)
		_, _ = fmt.Fprintf(w, "  %s\n", e.Path)
	}
}

// Failed reports whether any result should make the run fail.
func Failed(results []models.SanitizeResult) bool {
	for _, r := range results {
		if r.Outcome.Failed() {
			return true
		}
	}
	return false
}

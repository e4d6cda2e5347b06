// Package output provides terminal output utilities for crashkeep.
//
// This package includes:
//   - Table rendering for pending crash records and the harvested archive
//   - A spinner for long-running waits
//   - Human-readable formatting for sizes and ages
//
// Tables use ASCII columns and ANSI colors; colors are dropped when stdout is
// not a terminal or NO_COLOR is set.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/crashkeep/internal/archive"
	"github.com/blackwell-systems/crashkeep/internal/crashstore"
)

// ANSI color codes for crash type display
const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderEntryTable renders the crash records still waiting to be harvested,
// newest first.
func RenderEntryTable(entries []crashstore.Entry) string {
	if len(entries) == 0 {
		return "No pending crash reports.\n"
	}

	sorted := make([]crashstore.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name > sorted[j].Name
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-10s %-22s %-9s %s\n", "Type", "File", "Size", "Written"))
	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")

	for _, e := range sorted {
		// Pad before coloring so escape codes do not shift the columns.
		kind := colorize(typeColor(e.Type), fmt.Sprintf("%-10s", e.Type))
		sb.WriteString(fmt.Sprintf("%s %-22s %-9s %s\n",
			kind,
			truncate(e.Name, 22),
			formatSize(e.Size),
			formatRelativeTime(e.ModTime)))
	}

	return sb.String()
}

// RenderHistoryTable renders archived reports. The caller decides the order.
func RenderHistoryTable(reports []*archive.Report) string {
	if len(reports) == 0 {
		return "No archived crash reports.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-8s %-10s %-15s %-9s %s\n", "ID", "Type", "Harvested", "Size", "Title"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, r := range reports {
		kind := colorize(typeColor(r.Type), fmt.Sprintf("%-10s", r.Type))
		sb.WriteString(fmt.Sprintf("%-8s %s %-15s %-9s %s\n",
			shortID(r.ID),
			kind,
			formatRelativeTime(r.HarvestedAt),
			formatSize(r.SizeBytes),
			truncate(r.Title, 40)))
	}

	return sb.String()
}

// RenderReportSummary renders a one-line count of pending records per type.
func RenderReportSummary(entries []crashstore.Entry) string {
	counts := make(map[crashstore.CrashType]int, len(crashstore.Types))
	var total int64
	for _, e := range entries {
		counts[e.Type]++
		total += e.Size
	}

	parts := make([]string, 0, len(crashstore.Types))
	for _, ct := range crashstore.Types {
		parts = append(parts, colorize(typeColor(ct), fmt.Sprintf("%s: %d", strings.ToUpper(string(ct)), counts[ct])))
	}
	return fmt.Sprintf("%s (%s)\n", strings.Join(parts, " · "), formatSize(total))
}

func typeColor(ct crashstore.CrashType) string {
	switch ct {
	case crashstore.Signal:
		return colorRed
	case crashstore.Exception:
		return colorYellow
	default:
		return colorGray
	}
}

func formatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.Bytes(uint64(bytes))
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// package formatter exports the session event log to CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/shared"
)

// Formats accepted by [Export].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatJSON     = "json"
)

// DefaultBaseName is the file name, without extension, used by [WriteExport] when no path is given.
const DefaultBaseName = "session_events"

// ExportToCSV converts events to CSV format with columns: ID, Kind, Detail, CreatedAt
func ExportToCSV(events []models.SessionEvent) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Kind", "Detail", "CreatedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, ev := range events {
		record := []string{
			ev.ID,
			string(ev.Kind),
			ev.Detail,
			ev.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts events to a Markdown document with a summary and an event table.
func ExportToMarkdown(events []models.SessionEvent, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Session Events"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Events**: %d\n", len(events)))

	if first, last, ok := span(events); ok {
		buf.WriteString(fmt.Sprintf("**Range**: %s to %s\n", first.Format(time.RFC3339), last.Format(time.RFC3339)))
	}

	counts := countKinds(events)
	if len(counts) > 0 {
		parts := make([]string, 0, len(counts))
		for _, kc := range counts {
			parts = append(parts, fmt.Sprintf("%s × %d", kc.kind, kc.n))
		}
		buf.WriteString(fmt.Sprintf("**Breakdown**: %s\n", strings.Join(parts, ", ")))
	}

	buf.WriteString("\n## Events\n\n")
	buf.WriteString("| # | Time | Event | Detail |\n")
	buf.WriteString("|---|------|-------|--------|\n")
	for i, ev := range events {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n",
			i+1, ev.CreatedAt.UTC().Format(time.RFC3339), ev.Kind, escapeCell(ev.Detail)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts events to plain text format
func ExportToText(events []models.SessionEvent) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Events: %d\n\n", len(events)))
	for i, ev := range events {
		line := fmt.Sprintf("%d. %s %s", i+1, ev.CreatedAt.UTC().Format(time.DateTime), ev.Kind)
		if ev.Detail != "" {
			line += " - " + ev.Detail
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// Export renders events in format.
func Export(events []models.SessionEvent, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(events)
	case FormatMarkdown, "md":
		return ExportToMarkdown(events, "")
	case FormatText, "txt":
		return ExportToText(events)
	case FormatJSON:
		if events == nil {
			events = []models.SessionEvent{}
		}
		return json.MarshalIndent(events, "", "  ")
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidInput, format)
	}
}

// Extension returns the file extension for format, including the dot.
func Extension(format string) string {
	switch format {
	case FormatMarkdown, "md":
		return ".md"
	case FormatText, "txt":
		return ".txt"
	default:
		return "." + format
	}
}

// WriteExport renders events in format and writes them to path.
//
// Defaults to session_events.{ext} in the working directory. Returns the path written.
func WriteExport(events []models.SessionEvent, format, path string) (string, error) {
	data, err := Export(events, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = DefaultBaseName + Extension(format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

type kindCount struct {
	kind models.EventKind
	n    int
}

// countKinds tallies events per kind in order of first appearance.
func countKinds(events []models.SessionEvent) []kindCount {
	var counts []kindCount
	index := map[models.EventKind]int{}
	for _, ev := range events {
		i, ok := index[ev.Kind]
		if !ok {
			i = len(counts)
			index[ev.Kind] = i
			counts = append(counts, kindCount{kind: ev.Kind})
		}
		counts[i].n++
	}
	return counts
}

func span(events []models.SessionEvent) (first, last time.Time, ok bool) {
	for _, ev := range events {
		at := ev.CreatedAt.UTC()
		if !ok || at.Before(first) {
			first = at
		}
		if !ok || at.After(last) {
			last = at
		}
		ok = true
	}
	return first, last, ok
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

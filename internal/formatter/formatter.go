// package formatter renders sync pass results and history to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"tunedex/internal/models"
	"tunedex/internal/tasks"
)

const timestampLayout = "2006-01-02 15:04:05"

// SummarizeResult renders a just-finished pass for terminal output.
func SummarizeResult(result *tasks.SyncResult) string {
	var buf bytes.Buffer

	status := "ok"
	if result.Failed() {
		status = "partial"
	}

	buf.WriteString(fmt.Sprintf("%s sync %s in %s\n", result.Kind, status, result.Duration.Round(time.Millisecond)))
	buf.WriteString(fmt.Sprintf("  created   %d\n", result.Created))
	buf.WriteString(fmt.Sprintf("  updated   %d\n", result.Updated))
	buf.WriteString(fmt.Sprintf("  unchanged %d\n", result.Unchanged))

	if result.Flagged > 0 {
		buf.WriteString(fmt.Sprintf("  flagged   %d (malformed notes skipped)\n", result.Flagged))
	}
	if result.WriteErrors > 0 {
		buf.WriteString(fmt.Sprintf("  write errors %d (retried next pass)\n", result.WriteErrors))
	}

	if result.Failed() {
		tiers := make([]string, 0, len(result.CategoryErrors))
		for tier := range result.CategoryErrors {
			tiers = append(tiers, tier)
		}
		sort.Strings(tiers)
		for _, tier := range tiers {
			buf.WriteString(fmt.Sprintf("  skipped %s: %v\n", tier, result.CategoryErrors[tier]))
		}
	}

	return buf.String()
}

// ExportLogToCSV converts pass history to CSV with columns: Sequence, Kind, Started, Finished, Created, Updated, Flagged, Error
func ExportLogToCSV(passes []*models.SyncPass) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "Kind", "Started", "Finished", "Created", "Updated", "Flagged", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, pass := range passes {
		record := []string{
			strconv.Itoa(pass.Sequence()),
			string(pass.Kind()),
			pass.StartedAt().Format(timestampLayout),
			formatFinished(pass),
			strconv.Itoa(pass.CreatedNotes()),
			strconv.Itoa(pass.UpdatedNotes()),
			strconv.Itoa(pass.FlaggedNotes()),
			pass.Error(),
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

// ExportLogToMarkdown converts pass history to a Markdown table
func ExportLogToMarkdown(passes []*models.SyncPass) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Sync Log\n\n")
	buf.WriteString(fmt.Sprintf("**Passes**: %d\n\n", len(passes)))

	buf.WriteString("| # | Kind | Started | Finished | Created | Updated | Flagged | Error |\n")
	buf.WriteString("|---|------|---------|----------|---------|---------|---------|-------|\n")

	for _, pass := range passes {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %d | %d | %d | %s |\n",
			pass.Sequence(),
			pass.Kind(),
			pass.StartedAt().Format(timestampLayout),
			formatFinished(pass),
			pass.CreatedNotes(),
			pass.UpdatedNotes(),
			pass.FlaggedNotes(),
			pass.Error(),
		))
	}

	return buf.Bytes(), nil
}

// ExportLogToText converts pass history to plain text, one pass per line
func ExportLogToText(passes []*models.SyncPass) ([]byte, error) {
	var buf bytes.Buffer

	for _, pass := range passes {
		status := "running"
		if pass.FinishedAt() != nil {
			status = "ok"
			if pass.Error() != "" {
				status = "partial"
			}
		}

		buf.WriteString(fmt.Sprintf("#%d %s %s %s: %d created, %d updated, %d flagged",
			pass.Sequence(),
			pass.Kind(),
			pass.StartedAt().Format(timestampLayout),
			status,
			pass.CreatedNotes(),
			pass.UpdatedNotes(),
			pass.FlaggedNotes(),
		))
		if pass.Error() != "" {
			buf.WriteString(fmt.Sprintf(" (%s)", pass.Error()))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// WriteLogExport exports pass history to the given path in the named format.
//
// Supported formats are "csv", "markdown" and "text".
func WriteLogExport(passes []*models.SyncPass, path, format string) (string, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case "csv":
		data, err = ExportLogToCSV(passes)
	case "markdown", "md":
		data, err = ExportLogToMarkdown(passes)
	case "text", "txt", "":
		data, err = ExportLogToText(passes)
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s export: %w", format, err)
	}

	if path == "" {
		path = defaultExportName(format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func defaultExportName(format string) string {
	stamp := time.Now().Format("20060102")
	switch format {
	case "csv":
		return fmt.Sprintf("sync_log_%s.csv", stamp)
	case "markdown", "md":
		return fmt.Sprintf("sync_log_%s.md", stamp)
	default:
		return fmt.Sprintf("sync_log_%s.txt", stamp)
	}
}

func formatFinished(pass *models.SyncPass) string {
	if pass.FinishedAt() == nil {
		return ""
	}
	return pass.FinishedAt().Format(timestampLayout)
}

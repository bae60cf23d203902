// package formatter renders the artist registry and update cycle reports as CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/naestech/newNoise/internal/models"
	"github.com/naestech/newNoise/internal/tasks"
)

// Format selects an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// ArtistsToCSV renders the registry with columns: ID, Name, URL, Added
func ArtistsToCSV(artists []models.TrackedArtist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Name", "URL", "Added"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, a := range artists {
		record := []string{a.ID, a.Name, a.URL, a.AddedAt.UTC().Format(time.RFC3339)}
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

// ArtistsToMarkdown renders the registry as a numbered list of profile links
func ArtistsToMarkdown(artists []models.TrackedArtist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Tracked artists\n\n")
	buf.WriteString(fmt.Sprintf("**Artists**: %d\n\n", len(artists)))

	for i, a := range artists {
		name := a.Name
		if a.URL != "" {
			name = fmt.Sprintf("[%s](%s)", a.Name, a.URL)
		}
		buf.WriteString(fmt.Sprintf("%d. %s (added %s)\n", i+1, name, a.AddedAt.Format(time.DateOnly)))
	}

	return buf.Bytes(), nil
}

// ArtistsToText renders the registry the way the list command prints it
func ArtistsToText(artists []models.TrackedArtist) ([]byte, error) {
	var buf bytes.Buffer

	if len(artists) == 0 {
		buf.WriteString("No artists are being tracked.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString(fmt.Sprintf("Tracked artists: %d\n\n", len(artists)))
	for i, a := range artists {
		buf.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, a.Name, a.ID))
	}

	return buf.Bytes(), nil
}

// Artists renders the registry in format.
func Artists(artists []models.TrackedArtist, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ArtistsToCSV(artists)
	case FormatMarkdown:
		return ArtistsToMarkdown(artists)
	default:
		return ArtistsToText(artists)
	}
}

// ReportToText summarizes an update cycle
func ReportToText(result *tasks.UpdateResult) ([]byte, error) {
	var buf bytes.Buffer

	if result.DryRun {
		buf.WriteString("Dry run: no playlist was modified\n")
	}
	buf.WriteString(fmt.Sprintf("Cycle %s at %s\n", result.CycleID, result.Now.Format(time.RFC3339)))
	buf.WriteString(fmt.Sprintf("Artists: %d, candidates: %d\n", result.Artists, result.Candidates))
	buf.WriteString(fmt.Sprintf("New Noise: %d added (%d selected)\n", result.CurrentAdded, len(result.Current)))
	buf.WriteString(fmt.Sprintf("Archive: %d added (%d selected)\n", result.ArchiveAdded, len(result.Archive)))
	if result.Removed > 0 {
		buf.WriteString(fmt.Sprintf("Archive cleanup: %d removed\n", result.Removed))
	}

	if reasons := skipReasons(result); len(reasons) > 0 {
		buf.WriteString("Skipped:\n")
		for _, reason := range reasons {
			buf.WriteString(fmt.Sprintf("  %s: %d\n", reason, result.Skipped[reason]))
		}
	}

	for _, w := range result.Warnings {
		buf.WriteString(fmt.Sprintf("Warning: %s\n", w))
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown renders an update cycle with the selected track ids
func ReportToMarkdown(result *tasks.UpdateResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Update cycle %s\n\n", result.CycleID))
	buf.WriteString(fmt.Sprintf("**Run at**: %s\n", result.Now.Format(time.RFC3339)))
	buf.WriteString(fmt.Sprintf("**Artists**: %d\n", result.Artists))
	buf.WriteString(fmt.Sprintf("**Candidates**: %d\n", result.Candidates))
	if result.DryRun {
		buf.WriteString("**Dry run**: yes\n")
	}
	buf.WriteString("\n")

	writeSection := func(title string, ids []string, added int) {
		buf.WriteString(fmt.Sprintf("## %s (%d added)\n\n", title, added))
		if len(ids) == 0 {
			buf.WriteString("_none_\n\n")
			return
		}
		for i, id := range ids {
			buf.WriteString(fmt.Sprintf("%d. `%s`\n", i+1, id))
		}
		buf.WriteString("\n")
	}
	writeSection("This week", result.Current, result.CurrentAdded)
	writeSection("Archive", result.Archive, result.ArchiveAdded)

	if reasons := skipReasons(result); len(reasons) > 0 {
		buf.WriteString("## Skipped\n\n| Reason | Tracks |\n|---|---|\n")
		for _, reason := range reasons {
			buf.WriteString(fmt.Sprintf("| %s | %d |\n", reason, result.Skipped[reason]))
		}
		buf.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		buf.WriteString("## Warnings\n\n")
		for _, w := range result.Warnings {
			buf.WriteString(fmt.Sprintf("- %s\n", w))
		}
	}

	return buf.Bytes(), nil
}

// ReportToCSV lists every selected track with its destination: Playlist, Position, TrackID
func ReportToCSV(result *tasks.UpdateResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Playlist", "Position", "TrackID"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, batch := range []struct {
		name string
		ids  []string
	}{{"current", result.Current}, {"archive", result.Archive}} {
		for i, id := range batch.ids {
			if err := writer.Write([]string{batch.name, fmt.Sprint(i + 1), id}); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// Report renders a cycle report in format.
func Report(result *tasks.UpdateResult, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ReportToCSV(result)
	case FormatMarkdown:
		return ReportToMarkdown(result)
	default:
		return ReportToText(result)
	}
}

// WriteFile writes data to path, creating parent directories. The format is taken from the extension.
func WriteFile(path string, render func(Format) ([]byte, error)) (Format, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return "", err
	}

	data, err := render(format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return format, nil
}

func skipReasons(result *tasks.UpdateResult) []string {
	reasons := make([]string, 0, len(result.Skipped))
	for reason, n := range result.Skipped {
		if n > 0 {
			reasons = append(reasons, reason)
		}
	}
	sort.Strings(reasons)
	return reasons
}

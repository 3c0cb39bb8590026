// package formatter derives display strings for catalog content and exports watchlists to CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/shared"
)

// Format is a watchlist export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts csv, markdown (md) or txt (text).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, s)
	}
}

// Ext returns the file extension for f.
func (f Format) Ext() string {
	if f == FormatMarkdown {
		return ".md"
	}
	return "." + string(f)
}

// WatchlistExport is a resolved watchlist ready to render.
type WatchlistExport struct {
	Owner   string
	Items   []models.Content
	Missing []int // ids that could not be resolved as a movie or a show
}

func (e *WatchlistExport) heading() string {
	if e.Owner == "" {
		return "Watchlist"
	}
	return e.Owner + "'s Watchlist"
}

// ExportToCSV converts a WatchlistExport to CSV format with columns: ID, Kind, Title, Year, Length, Rating
func ExportToCSV(export *WatchlistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Kind", "Title", "Year", "Length", "Rating"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range export.Items {
		record := []string{
			strconv.Itoa(item.ID),
			item.Kind.String(),
			Title(&item),
			Year(&item),
			Length(&item),
			Rating(item.VoteAverage),
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

// ExportToMarkdown converts a WatchlistExport to Markdown, linking posters when images is non-nil
func ExportToMarkdown(export *WatchlistExport, images ImageURLs) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.heading())
	fmt.Fprintf(&buf, "**Titles**: %d\n\n", len(export.Items))

	buf.WriteString("## Titles\n\n")
	for i, item := range export.Items {
		line := fmt.Sprintf("%d. %s", i+1, Label(&item))
		if sub := Length(&item); sub != "" {
			line += " [" + sub + "]"
		}
		if item.VoteAverage > 0 {
			line += " ★ " + Rating(item.VoteAverage)
		}
		buf.WriteString(line + "\n")

		if images != nil && item.PosterPath != "" {
			fmt.Fprintf(&buf, "   ![%s](%s)\n", Title(&item), images.PosterURL(item.PosterPath))
		}
	}

	if len(export.Missing) > 0 {
		buf.WriteString("\n## Unavailable\n\n")
		for _, id := range export.Missing {
			fmt.Fprintf(&buf, "- %d\n", id)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a WatchlistExport to plain text format
func ExportToText(export *WatchlistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", export.heading())
	fmt.Fprintf(&buf, "Titles: %d\n\n", len(export.Items))

	for i, item := range export.Items {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, Label(&item), item.Kind)
	}

	return buf.Bytes(), nil
}

// Render encodes export in the given format.
func Render(export *WatchlistExport, format Format, images ImageURLs) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, images)
	case FormatText:
		return ExportToText(export)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteExport renders export and writes it to path.
//
// Defaults to watchlist{ext} in the working directory. Parent directories are created.
func WriteExport(export *WatchlistExport, format Format, path string, images ImageURLs) (string, error) {
	if path == "" {
		path = "watchlist" + format.Ext()
	}

	data, err := Render(export, format, images)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

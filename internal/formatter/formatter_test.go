package formatter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/shared"
	th "github.com/desertthunder/cinex/internal/testing"
)

type images struct{}

func (images) BackdropURL(p string) string { return "https://img/original" + p }
func (images) PosterURL(p string) string   { return "https://img/w500" + p }
func (images) ProfileURL(p string) string  { return "https://img/w185" + p }

func testExport() *WatchlistExport {
	return &WatchlistExport{
		Owner: "ana",
		Items: []models.Content{
			{
				ID:          550,
				Kind:        models.KindMovie,
				Title:       "Fight Club",
				ReleaseDate: "1999-10-15",
				Runtime:     models.Ptr(139),
				VoteAverage: 8.43,
				PosterPath:  "/fc.jpg",
			},
			{
				ID:              1399,
				Kind:            models.KindTV,
				Name:            "Game of Thrones",
				FirstAirDate:    "2011-04-17",
				NumberOfSeasons: models.Ptr(8),
			},
		},
		Missing: []int{42},
	}
}

func TestDisplay(t *testing.T) {
	t.Run("Title", func(t *testing.T) {
		tests := []struct {
			name    string
			content *models.Content
			want    string
		}{
			{"movie title", &models.Content{Title: "Fight Club", Name: "ignored"}, "Fight Club"},
			{"show name", &models.Content{Name: "Game of Thrones"}, "Game of Thrones"},
			{"neither", &models.Content{}, "Untitled"},
			{"nil", nil, "Untitled"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := Title(tt.content); got != tt.want {
					t.Errorf("expected %q, got %q", tt.want, got)
				}
			})
		}
	})

	t.Run("ReleaseYear", func(t *testing.T) {
		tests := []struct {
			name    string
			content *models.Content
			want    int
		}{
			{"release date", &models.Content{ReleaseDate: "1999-10-15"}, 1999},
			{"first air date", &models.Content{FirstAirDate: "2011-04-17"}, 2011},
			{"release date wins", &models.Content{ReleaseDate: "2001-01-01", FirstAirDate: "2011-04-17"}, 2001},
			{"missing", &models.Content{}, 0},
			{"malformed", &models.Content{ReleaseDate: "soon"}, 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := ReleaseYear(tt.content); got != tt.want {
					t.Errorf("expected %d, got %d", tt.want, got)
				}
			})
		}

		if Year(&models.Content{}) != "" {
			t.Error("expected empty year string for unknown date")
		}
	})

	t.Run("Runtime", func(t *testing.T) {
		tests := map[int]string{139: "2h 19m", 120: "2h 0m", 45: "0h 45m", 0: "0h 0m", -3: ""}
		for in, want := range tests {
			if got := Runtime(in); got != want {
				t.Errorf("Runtime(%d): expected %q, got %q", in, want, got)
			}
		}
	})

	t.Run("SeasonsLabel", func(t *testing.T) {
		if got := SeasonsLabel(1); got != "1 Season" {
			t.Errorf("expected singular, got %q", got)
		}
		if got := SeasonsLabel(8); got != "8 Seasons" {
			t.Errorf("expected plural, got %q", got)
		}
		if got := SeasonsLabel(0); got != "0 Seasons" {
			t.Errorf("expected plural for zero, got %q", got)
		}
	})

	t.Run("Length", func(t *testing.T) {
		export := testExport()
		if got := Length(&export.Items[0]); got != "2h 19m" {
			t.Errorf("expected movie runtime, got %q", got)
		}
		if got := Length(&export.Items[1]); got != "8 Seasons" {
			t.Errorf("expected seasons label, got %q", got)
		}
		if got := Length(&models.Content{}); got != "" {
			t.Errorf("expected empty length, got %q", got)
		}
		if got := Length(&models.Content{Kind: models.KindMovie, Runtime: models.Ptr(0)}); got != "0h 0m" {
			t.Errorf("expected zero runtime to render, got %q", got)
		}
	})

	t.Run("Backdrop", func(t *testing.T) {
		c := &models.Content{BackdropPath: "/bd.jpg"}
		if got := Backdrop(images{}, c); got != "https://img/original/bd.jpg" {
			t.Errorf("unexpected backdrop %q", got)
		}
		if got := Backdrop(images{}, &models.Content{}); got != PlaceholderBackdrop {
			t.Errorf("expected placeholder, got %q", got)
		}
		if got := Backdrop(nil, c); got != PlaceholderBackdrop {
			t.Errorf("expected placeholder without resolver, got %q", got)
		}
	})

	t.Run("Subtitle", func(t *testing.T) {
		export := testExport()
		if got := Subtitle(&export.Items[0]); got != "1999 · 2h 19m · ★ 8.4" {
			t.Errorf("unexpected subtitle %q", got)
		}
		if got := Subtitle(&export.Items[1]); got != "2011 · 8 Seasons" {
			t.Errorf("unexpected subtitle %q", got)
		}
		if got := Rating(0); got != "N/A" {
			t.Errorf("expected N/A, got %q", got)
		}
	})

	t.Run("Genres", func(t *testing.T) {
		c := &models.Content{Genres: []models.Genre{{ID: 18, Name: "Drama"}, {ID: 53, Name: "Thriller"}}}
		if got := Genres(c); got != "Drama · Thriller" {
			t.Errorf("unexpected genres %q", got)
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ParseFormat", func(t *testing.T) {
		for in, want := range map[string]Format{"csv": FormatCSV, "MD": FormatMarkdown, "markdown": FormatMarkdown, "text": FormatText} {
			got, err := ParseFormat(in)
			if err != nil || got != want {
				t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
			}
		}
		if _, err := ParseFormat("pdf"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Kind,Title,Year,Length,Rating") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "550,movie,Fight Club,1999,2h 19m,8.4") {
			t.Errorf("CSV missing movie row, got: %s", output)
		}
		if !strings.Contains(output, "1399,tv,Game of Thrones,2011,8 Seasons,N/A") {
			t.Errorf("CSV missing show row, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without images", func(t *testing.T) {
			data, err := ExportToMarkdown(testExport(), nil)
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			if !strings.Contains(output, "# ana's Watchlist") {
				t.Errorf("Markdown missing heading")
			}
			if !strings.Contains(output, "**Titles**: 2") {
				t.Errorf("Markdown missing count")
			}
			if !strings.Contains(output, "1. Fight Club (1999) [2h 19m] ★ 8.4") {
				t.Errorf("Markdown missing movie, got: %s", output)
			}
			if !strings.Contains(output, "2. Game of Thrones (2011) [8 Seasons]") {
				t.Errorf("Markdown missing show, got: %s", output)
			}
			if !strings.Contains(output, "## Unavailable") || !strings.Contains(output, "- 42") {
				t.Errorf("Markdown missing unresolved ids")
			}
			if strings.Contains(output, "![") {
				t.Errorf("Markdown should not link posters without a resolver")
			}
		})

		t.Run("with images", func(t *testing.T) {
			data, _ := ExportToMarkdown(testExport(), images{})
			if !strings.Contains(string(data), "![Fight Club](https://img/w500/fc.jpg)") {
				t.Errorf("Markdown missing poster, got: %s", data)
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		export := testExport()
		export.Owner = ""

		data, err := ExportToText(export)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Watchlist\n") {
			t.Errorf("Text missing default heading, got: %s", output)
		}
		if !strings.Contains(output, "1. Fight Club (1999) - movie") {
			t.Errorf("Text missing movie")
		}
		if !strings.Contains(output, "2. Game of Thrones (2011) - tv") {
			t.Errorf("Text missing show")
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("CustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exports", "list.csv")

		got, err := WriteExport(testExport(), FormatCSV, path, nil)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}

		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "Fight Club") {
			t.Errorf("export file missing content")
		}
	})

	t.Run("DefaultPath", func(t *testing.T) {
		t.Chdir(t.TempDir())

		got, err := WriteExport(testExport(), FormatMarkdown, "", nil)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != "watchlist.md" {
			t.Errorf("expected watchlist.md, got %s", got)
		}
		th.AssertFileExists(t, got)
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		if _, err := WriteExport(testExport(), Format("pdf"), filepath.Join(t.TempDir(), "x"), nil); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

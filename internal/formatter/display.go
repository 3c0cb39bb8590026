package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cinex/internal/models"
)

// PlaceholderBackdrop is shown when a title has no backdrop image.
const PlaceholderBackdrop = "/placeholder.svg"

// ImageURLs resolves metadata image paths. *services.MetadataService implements it.
type ImageURLs interface {
	BackdropURL(path string) string
	PosterURL(path string) string
	ProfileURL(path string) string
}

// Title returns the movie title, else the show name, else "Untitled".
func Title(c *models.Content) string {
	if c == nil {
		return "Untitled"
	}
	if c.Title != "" {
		return c.Title
	}
	if c.Name != "" {
		return c.Name
	}
	return "Untitled"
}

// ReleaseYear returns the four digit year of release_date (movies) or first_air_date (shows), or 0.
func ReleaseYear(c *models.Content) int {
	if c == nil {
		return 0
	}
	date := c.ReleaseDate
	if date == "" {
		date = c.FirstAirDate
	}
	if date == "" {
		return 0
	}
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return 0
	}
	return t.Year()
}

// Year is [ReleaseYear] as a string; empty when unknown.
func Year(c *models.Content) string {
	if y := ReleaseYear(c); y > 0 {
		return strconv.Itoa(y)
	}
	return ""
}

// Runtime formats minutes as "2h 19m". Negative values yield "".
func Runtime(minutes int) string {
	if minutes < 0 {
		return ""
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// SeasonsLabel returns "1 Season" or "N Seasons".
func SeasonsLabel(n int) string {
	if n == 1 {
		return "1 Season"
	}
	return fmt.Sprintf("%d Seasons", n)
}

// Length is the runtime for movies and the seasons label for shows, whichever is known.
func Length(c *models.Content) string {
	if c == nil {
		return ""
	}
	if c.Runtime != nil && *c.Runtime >= 0 {
		return Runtime(*c.Runtime)
	}
	if c.NumberOfSeasons != nil {
		return SeasonsLabel(*c.NumberOfSeasons)
	}
	return ""
}

// Rating formats a vote average to one decimal place.
func Rating(v float64) string {
	if v <= 0 {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Backdrop returns the full backdrop URL or [PlaceholderBackdrop].
func Backdrop(images ImageURLs, c *models.Content) string {
	if c == nil || c.BackdropPath == "" || images == nil {
		return PlaceholderBackdrop
	}
	return images.BackdropURL(c.BackdropPath)
}

// Genres joins genre names with a separator.
func Genres(c *models.Content) string {
	if c == nil {
		return ""
	}
	return strings.Join(c.GenreNames(), " · ")
}

// Subtitle is the "year · length · rating" line under a title. Unknown parts are skipped.
func Subtitle(c *models.Content) string {
	var parts []string
	if y := Year(c); y != "" {
		parts = append(parts, y)
	}
	if l := Length(c); l != "" {
		parts = append(parts, l)
	}
	if c != nil && c.VoteAverage > 0 {
		parts = append(parts, "★ "+Rating(c.VoteAverage))
	}
	return strings.Join(parts, " · ")
}

// Label is a one line description like "Fight Club (1999)".
func Label(c *models.Content) string {
	if y := Year(c); y != "" {
		return fmt.Sprintf("%s (%s)", Title(c), y)
	}
	return Title(c)
}

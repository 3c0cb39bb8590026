package models

import (
	"fmt"
	"strings"
)

// Kind distinguishes the two catalog content types.
type Kind string

const (
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
)

// ParseKind accepts "movie" or "tv" (and the "show"/"series" aliases).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies", "film":
		return KindMovie, nil
	case "tv", "show", "series":
		return KindTV, nil
	default:
		return "", fmt.Errorf("unknown content kind %q", s)
	}
}

func (k Kind) String() string { return string(k) }

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool { return k == KindMovie || k == KindTV }

// Genre is a metadata API genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CastMember is one billed performer.
type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

// Credits is the credits block appended to a details response.
type Credits struct {
	Cast []CastMember `json:"cast"`
}

// Content is a movie or TV show.
//
// Movies populate Title/ReleaseDate/Runtime, shows populate Name/FirstAirDate/NumberOfSeasons.
type Content struct {
	ID              int      `json:"id"`
	Kind            Kind     `json:"media_type,omitempty"`
	Title           string   `json:"title,omitempty"`
	Name            string   `json:"name,omitempty"`
	Overview        string   `json:"overview"`
	Tagline         string   `json:"tagline,omitempty"`
	BackdropPath    string   `json:"backdrop_path"`
	PosterPath      string   `json:"poster_path"`
	VoteAverage     float64  `json:"vote_average"`
	ReleaseDate     string   `json:"release_date,omitempty"`
	FirstAirDate    string   `json:"first_air_date,omitempty"`
	Runtime         *int     `json:"runtime,omitempty"`
	NumberOfSeasons *int     `json:"number_of_seasons,omitempty"`
	Genres          []Genre  `json:"genres,omitempty"`
	GenreIDs        []int    `json:"genre_ids,omitempty"`
	Credits         *Credits `json:"credits,omitempty"`
}

// TopCast returns at most n cast members in billing order.
func (c *Content) TopCast(n int) []CastMember {
	if c.Credits == nil || n <= 0 {
		return nil
	}
	if len(c.Credits.Cast) <= n {
		return c.Credits.Cast
	}
	return c.Credits.Cast[:n]
}

// GenreNames returns the names of the content's genres.
func (c *Content) GenreNames() []string {
	names := make([]string, 0, len(c.Genres))
	for _, g := range c.Genres {
		names = append(names, g.Name)
	}
	return names
}

// Route returns the detail route for this content.
func (c *Content) Route() Route {
	return DetailRoute(c.Kind, c.ID)
}

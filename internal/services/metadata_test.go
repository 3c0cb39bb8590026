package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/shared"
	tu "github.com/desertthunder/cinex/internal/testing"
)

const movieJSON = `{
	"id": 550,
	"title": "Fight Club",
	"overview": "An insomniac office worker...",
	"backdrop_path": "/back.jpg",
	"poster_path": "/poster.jpg",
	"vote_average": 8.4,
	"release_date": "1999-10-15",
	"runtime": 139,
	"genres": [{"id": 18, "name": "Drama"}],
	"credits": {"cast": [
		{"id": 819, "name": "Edward Norton", "character": "The Narrator", "profile_path": "/norton.jpg", "order": 0},
		{"id": 287, "name": "Brad Pitt", "character": "Tyler Durden", "profile_path": "/pitt.jpg", "order": 1}
	]}
}`

const showJSON = `{
	"id": 1399,
	"name": "Game of Thrones",
	"first_air_date": "2011-04-17",
	"number_of_seasons": 8,
	"backdrop_path": null,
	"credits": {"cast": []}
}`

func newTestMetadata(url string, opts MetadataOptions) *MetadataService {
	opts.BaseURL = url
	opts.Logger = shared.NewLogger(&strings.Builder{})
	return NewMetadataService(opts)
}

func TestMetadataService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		srv := NewMetadataService(MetadataOptions{})
		if srv.baseURL != DefaultMetadataBaseURL {
			t.Errorf("expected default base URL, got %s", srv.baseURL)
		}
		if srv.imageBaseURL != DefaultImageBaseURL {
			t.Errorf("expected default image base URL, got %s", srv.imageBaseURL)
		}
		if srv.httpClient != http.DefaultClient {
			t.Error("expected http.DefaultClient to be used")
		}
	})

	t.Run("GetMovieDetails", func(t *testing.T) {
		t.Run("Appends Credits And Sends API Key", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/movie/550" {
					t.Errorf("expected path /movie/550, got %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("append_to_response"); got != "credits" {
					t.Errorf("expected append_to_response=credits, got %q", got)
				}
				if got := r.URL.Query().Get("api_key"); got != "v3key" {
					t.Errorf("expected api_key query param, got %q", got)
				}
				if r.Header.Get("Authorization") != "" {
					t.Error("expected no Authorization header with a v3 key")
				}
				w.Write([]byte(movieJSON))
			}))
			defer server.Close()

			srv := newTestMetadata(server.URL, MetadataOptions{APIKey: "v3key"})
			content, err := srv.GetMovieDetails(context.Background(), 550)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if content.Kind != models.KindMovie {
				t.Errorf("expected kind movie, got %s", content.Kind)
			}
			if content.Title != "Fight Club" {
				t.Errorf("expected title Fight Club, got %s", content.Title)
			}
			if content.Runtime == nil || *content.Runtime != 139 {
				t.Errorf("expected runtime 139, got %v", content.Runtime)
			}
			if len(content.TopCast(1)) != 1 || content.TopCast(1)[0].Name != "Edward Norton" {
				t.Errorf("unexpected cast %+v", content.Credits)
			}
		})

		t.Run("Read Token Uses Bearer", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer v4token" {
					t.Errorf("expected bearer header, got %q", got)
				}
				if r.URL.Query().Has("api_key") {
					t.Error("api_key should not be sent with a read token")
				}
				if got := r.URL.Query().Get("language"); got != "en-US" {
					t.Errorf("expected language en-US, got %q", got)
				}
				w.Write([]byte(movieJSON))
			}))
			defer server.Close()

			srv := newTestMetadata(server.URL, MetadataOptions{APIKey: "v3key", ReadToken: "v4token", Language: "en-US"})
			if _, err := srv.GetMovieDetails(context.Background(), 550); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
			}))
			defer server.Close()

			srv := newTestMetadata(server.URL, MetadataOptions{APIKey: "k"})
			_, err := srv.GetMovieDetails(context.Background(), 1)
			if !errors.Is(err, shared.ErrContentNotFound) {
				t.Fatalf("expected ErrContentNotFound, got %v", err)
			}
			if !strings.Contains(err.Error(), "could not be found") {
				t.Errorf("expected TMDB status message in error, got %v", err)
			}
		})

		t.Run("Unauthorized", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			srv := newTestMetadata(server.URL, MetadataOptions{APIKey: "bad"})
			_, err := srv.GetMovieDetails(context.Background(), 1)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Invalid ID", func(t *testing.T) {
			srv := newTestMetadata("http://example.com", MetadataOptions{})
			if _, err := srv.GetMovieDetails(context.Background(), 0); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}
			srv := newTestMetadata("http://example.com", MetadataOptions{HTTPClient: client})

			_, err := srv.GetMovieDetails(context.Background(), 550)
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Malformed Body", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(tu.JSONResponse(http.StatusOK, "{not json"), nil)}
			srv := newTestMetadata("http://example.com", MetadataOptions{HTTPClient: client})

			_, err := srv.GetMovieDetails(context.Background(), 550)
			if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
				t.Errorf("expected decode error, got %v", err)
			}
		})
	})

	t.Run("GetTVDetails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/tv/1399" {
				t.Errorf("expected path /tv/1399, got %s", r.URL.Path)
			}
			w.Write([]byte(showJSON))
		}))
		defer server.Close()

		srv := newTestMetadata(server.URL, MetadataOptions{APIKey: "k"})
		content, err := srv.Details(context.Background(), models.KindTV, 1399)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if content.Kind != models.KindTV || content.Name != "Game of Thrones" {
			t.Errorf("unexpected content %+v", content)
		}
		if content.NumberOfSeasons == nil || *content.NumberOfSeasons != 8 {
			t.Errorf("expected 8 seasons, got %v", content.NumberOfSeasons)
		}
		if content.BackdropPath != "" {
			t.Errorf("expected null backdrop to decode as empty, got %q", content.BackdropPath)
		}
	})

	t.Run("Details Invalid Kind", func(t *testing.T) {
		srv := newTestMetadata("http://example.com", MetadataOptions{})
		if _, err := srv.Details(context.Background(), "person", 1); !errors.Is(err, shared.ErrInvalidKind) {
			t.Errorf("expected ErrInvalidKind, got %v", err)
		}
	})

	t.Run("Trending", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/trending/movie/week" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"A"},{"id":2,"title":"B"}]}`))
		}))
		defer server.Close()

		srv := newTestMetadata(server.URL, MetadataOptions{APIKey: "k"})
		results, err := srv.Trending(context.Background(), models.KindMovie)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		for _, c := range results {
			if c.Kind != models.KindMovie {
				t.Errorf("expected kind to be stamped on trending results, got %q", c.Kind)
			}
		}
	})

	t.Run("Search Filters People", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("query"); got != "dune" {
				t.Errorf("expected query dune, got %q", got)
			}
			w.Write([]byte(`{"results":[
				{"id":1,"media_type":"movie","title":"Dune"},
				{"id":2,"media_type":"person","name":"Frank Herbert"},
				{"id":3,"media_type":"tv","name":"Dune: Prophecy"}
			]}`))
		}))
		defer server.Close()

		srv := newTestMetadata(server.URL, MetadataOptions{APIKey: "k"})
		results, err := srv.Search(context.Background(), " dune ")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected person result to be dropped, got %d results", len(results))
		}

		if _, err := srv.Search(context.Background(), "  "); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument for blank query, got %v", err)
		}
	})

	t.Run("Genres", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/genre/tv/list" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"genres":[{"id":18,"name":"Drama"}]}`))
		}))
		defer server.Close()

		srv := newTestMetadata(server.URL, MetadataOptions{APIKey: "k"})
		genres, err := srv.Genres(context.Background(), models.KindTV)
		if err != nil || len(genres) != 1 || genres[0].Name != "Drama" {
			t.Errorf("unexpected genres %v, err %v", genres, err)
		}
	})

	t.Run("Canceled Context Stops At Limiter", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		srv := newTestMetadata("http://example.com", MetadataOptions{RequestsPerSecond: 0.001})
		srv.limiter.Allow()
		if _, err := srv.GetMovieDetails(ctx, 550); err == nil {
			t.Error("expected error for canceled context")
		}
	})
}

func TestImageURLs(t *testing.T) {
	srv := NewMetadataService(MetadataOptions{ImageBaseURL: "https://img.example/t/p/"})

	tc := []struct {
		name string
		got  string
		want string
	}{
		{"backdrop", srv.BackdropURL("/b.jpg"), "https://img.example/t/p/original/b.jpg"},
		{"poster", srv.PosterURL("p.jpg"), "https://img.example/t/p/w500/p.jpg"},
		{"profile", srv.ProfileURL("/c.jpg"), "https://img.example/t/p/w185/c.jpg"},
		{"empty path", srv.BackdropURL(""), ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

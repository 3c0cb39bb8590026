package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/shared"
)

const (
	DefaultMetadataBaseURL = "https://api.themoviedb.org/3"
	DefaultImageBaseURL    = "https://image.tmdb.org/t/p"

	defaultRequestsPerSecond = 40
)

// Image sizes used by the client.
const (
	ImageSizeOriginal = "original"
	ImageSizePoster   = "w500"
	ImageSizeProfile  = "w185"
)

// MetadataOptions configures a [MetadataService]. Zero values fall back to TMDB defaults.
type MetadataOptions struct {
	BaseURL           string
	ImageBaseURL      string
	APIKey            string
	ReadToken         string
	Language          string
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *log.Logger
}

// MetadataService is a read-only TMDB client.
type MetadataService struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	readToken    string
	language     string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *log.Logger
}

// NewMetadataService creates a TMDB client from opts.
func NewMetadataService(opts MetadataOptions) *MetadataService {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultMetadataBaseURL
	}
	if opts.ImageBaseURL == "" {
		opts.ImageBaseURL = DefaultImageBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}

	return &MetadataService{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(opts.ImageBaseURL, "/"),
		apiKey:       opts.APIKey,
		readToken:    opts.ReadToken,
		language:     opts.Language,
		httpClient:   opts.HTTPClient,
		limiter:      rate.NewLimiter(rate.Limit(rps), max(1, int(rps))),
		logger:       shared.WithLogger(opts.Logger, "service", "tmdb"),
	}
}

type tmdbError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

type tmdbPage struct {
	Page         int              `json:"page"`
	TotalPages   int              `json:"total_pages"`
	TotalResults int              `json:"total_results"`
	Results      []models.Content `json:"results"`
}

// doRequest performs a paced GET against the TMDB API and decodes the JSON body into result.
func (m *MetadataService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	if m.language != "" {
		params.Set("language", m.language)
	}
	if m.readToken == "" && m.apiKey != "" {
		params.Set("api_key", m.apiKey)
	}

	apiURL := m.baseURL + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if m.readToken != "" {
		req.Header.Set("Authorization", "Bearer "+m.readToken)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp tmdbError
		msg := http.StatusText(resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.StatusMessage != "" {
			msg = errResp.StatusMessage
		}

		m.logger.Debug("metadata request failed", "endpoint", endpoint, "status", resp.StatusCode)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", shared.ErrContentNotFound, msg)
		}
		return fmt.Errorf("%w: tmdb status %d: %s", shared.ErrAPIRequest, resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (m *MetadataService) details(ctx context.Context, kind models.Kind, id int) (*models.Content, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: content id must be positive, got %d", shared.ErrInvalidArgument, id)
	}

	params := url.Values{"append_to_response": {"credits"}}

	var content models.Content
	if err := m.doRequest(ctx, fmt.Sprintf("/%s/%d", kind, id), params, &content); err != nil {
		return nil, err
	}
	content.Kind = kind
	return &content, nil
}

// GetMovieDetails fetches a movie with credits appended.
func (m *MetadataService) GetMovieDetails(ctx context.Context, id int) (*models.Content, error) {
	return m.details(ctx, models.KindMovie, id)
}

// GetTVDetails fetches a TV show with credits appended.
func (m *MetadataService) GetTVDetails(ctx context.Context, id int) (*models.Content, error) {
	return m.details(ctx, models.KindTV, id)
}

// Details dispatches to [MetadataService.GetMovieDetails] or [MetadataService.GetTVDetails].
func (m *MetadataService) Details(ctx context.Context, kind models.Kind, id int) (*models.Content, error) {
	switch kind {
	case models.KindMovie:
		return m.GetMovieDetails(ctx, id)
	case models.KindTV:
		return m.GetTVDetails(ctx, id)
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidKind, kind)
	}
}

// Trending returns this week's trending titles of the given kind.
func (m *MetadataService) Trending(ctx context.Context, kind models.Kind) ([]models.Content, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidKind, kind)
	}

	var page tmdbPage
	if err := m.doRequest(ctx, fmt.Sprintf("/trending/%s/week", kind), nil, &page); err != nil {
		return nil, err
	}

	for i := range page.Results {
		page.Results[i].Kind = kind
	}
	return page.Results, nil
}

// Search runs a multi search and keeps only movie and TV results.
func (m *MetadataService) Search(ctx context.Context, query string) ([]models.Content, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrMissingArgument)
	}

	var page tmdbPage
	if err := m.doRequest(ctx, "/search/multi", url.Values{"query": {query}}, &page); err != nil {
		return nil, err
	}

	results := make([]models.Content, 0, len(page.Results))
	for _, c := range page.Results {
		if c.Kind.Valid() {
			results = append(results, c)
		}
	}
	return results, nil
}

// Genres lists the genres for a content kind.
func (m *MetadataService) Genres(ctx context.Context, kind models.Kind) ([]models.Genre, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidKind, kind)
	}

	var resp struct {
		Genres []models.Genre `json:"genres"`
	}
	if err := m.doRequest(ctx, fmt.Sprintf("/genre/%s/list", kind), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Genres, nil
}

// ImageURL joins an image base, size and file path. An empty path yields "".
func ImageURL(base, size, path string) string {
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(base, "/") + "/" + size + path
}

// BackdropURL returns the full-resolution backdrop URL for path.
func (m *MetadataService) BackdropURL(path string) string {
	return ImageURL(m.imageBaseURL, ImageSizeOriginal, path)
}

// PosterURL returns the poster URL for path.
func (m *MetadataService) PosterURL(path string) string {
	return ImageURL(m.imageBaseURL, ImageSizePoster, path)
}

// ProfileURL returns the cast portrait URL for path.
func (m *MetadataService) ProfileURL(path string) string {
	return ImageURL(m.imageBaseURL, ImageSizeProfile, path)
}

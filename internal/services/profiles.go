package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/shared"
)

const profilesTable = "profiles"

// postgrestError is the PostgREST error body.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// ProfileService reads and patches rows of the profiles table.
type ProfileService struct {
	restURL    string
	anonKey    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewProfileService creates a client for the REST API under backendURL.
func NewProfileService(backendURL, anonKey string, client *http.Client, logger *log.Logger) *ProfileService {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &ProfileService{
		restURL:    strings.TrimRight(backendURL, "/") + "/rest/v1",
		anonKey:    anonKey,
		httpClient: client,
		logger:     shared.WithLogger(logger, "service", "profiles"),
	}
}

// client returns an HTTP client that authorizes every request with the session's access token.
func (p *ProfileService) client(ctx context.Context, session *models.Session) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token := &oauth2.Token{
		AccessToken: session.AccessToken,
		TokenType:   "Bearer",
		Expiry:      session.ExpiresAt,
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
}

func (p *ProfileService) doRequest(ctx context.Context, session *models.Session, req *http.Request, result any) error {
	if session == nil || session.AccessToken == "" {
		return shared.ErrNotAuthenticated
	}

	req.Header.Set("apikey", p.anonKey)

	resp, err := p.client(ctx, session).Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp postgrestError
		_ = json.NewDecoder(resp.Body).Decode(&errResp)

		// PGRST116: singular response requested but zero rows matched
		if resp.StatusCode == http.StatusNotAcceptable || errResp.Code == "PGRST116" {
			return fmt.Errorf("%w: %s", shared.ErrProfileNotFound, errResp.Details)
		}
		if errResp.Message != "" {
			return fmt.Errorf("%w (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (p *ProfileService) rowURL(userID string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("id", "eq."+userID)
	return p.restURL + "/" + profilesTable + "?" + params.Encode()
}

// GetProfile fetches the profile row for userID.
func (p *ProfileService) GetProfile(ctx context.Context, session *models.Session, userID string) (*models.Profile, error) {
	if !shared.IsValidID(userID) {
		return nil, fmt.Errorf("%w: user id %q", shared.ErrInvalidArgument, userID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.rowURL(userID, url.Values{"select": {"*"}}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.pgrst.object+json")

	var profile models.Profile
	if err := p.doRequest(ctx, session, req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile patches the set fields of update onto the row for userID.
//
// The response body is not read back; callers adopt their own copy of the write.
func (p *ProfileService) UpdateProfile(ctx context.Context, session *models.Session, userID string, update models.ProfileUpdate) error {
	if !shared.IsValidID(userID) {
		return fmt.Errorf("%w: user id %q", shared.ErrInvalidArgument, userID)
	}
	if update.Empty() {
		return nil
	}

	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, p.rowURL(userID, nil), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	if err := p.doRequest(ctx, session, req, nil); err != nil {
		return err
	}

	p.logger.Debug("profile updated", "user", userID)
	return nil
}

// Raw requests against the managed backend, for debugging from the CLI.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/cinex/internal/models"
)

const defaultBackendURL = "http://localhost:54321"

// APIService makes raw HTTP requests to the backend with the anon key and,
// when given, the session's bearer token.
type APIService struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewAPIService creates a raw client for the backend at baseURL.
func NewAPIService(baseURL, anonKey string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultBackendURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (a *APIService) do(ctx context.Context, method, path string, session *models.Session, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if a.anonKey != "" {
		req.Header.Set("apikey", a.anonKey)
	}
	if session != nil && session.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}
	return apiResp, nil
}

// Get performs a GET request to path. session may be nil for anonymous requests.
func (a *APIService) Get(ctx context.Context, path string, session *models.Session) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, session, nil)
}

// Post performs a POST request with a JSON body.
func (a *APIService) Post(ctx context.Context, path string, session *models.Session, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, session, data)
}

// Health checks the auth API's health endpoint.
func (a *APIService) Health(ctx context.Context) error {
	resp, err := a.Get(ctx, "/auth/v1/health", nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("auth health check returned status %d", resp.StatusCode)
	}
	return nil
}

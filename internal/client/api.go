package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tjfontaine/mindspark/internal/core/domain"
)

const maxErrorBody = 64 << 10

// API is a thin HTTP client for the relay endpoints.
type API struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewAPI creates a client for the relay at baseURL. The token is sent as a
// bearer credential.
func NewAPI(baseURL, token string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// Generate starts a generation. On a 2xx response the caller owns the body;
// any other status is returned as a *domain.APIError with the body consumed.
func (a *API) Generate(ctx context.Context, topic string) (*http.Response, error) {
	payload, err := json.Marshal(domain.GenerationRequest{Topic: topic})
	if err != nil {
		return nil, err
	}

	req, err := a.newRequest(ctx, http.MethodPost, "/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

// History returns the caller's most recent entries, newest first.
func (a *API) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	req, err := a.newRequest(ctx, http.MethodGet, "/api/history", nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, decodeError(resp)
	}

	var entries []domain.HistoryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}

func (a *API) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	return req, nil
}

// decodeError turns a non-2xx response into an APIError carrying the
// server-reported message when there is one.
func decodeError(resp *http.Response) *domain.APIError {
	var body struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(raw))
		if body.Message == "" {
			body.Message = http.StatusText(resp.StatusCode)
		}
	}

	errType := domain.ErrorType(body.Type)
	if errType == "" {
		errType = domain.ErrorTypeServer
	}
	return domain.NewAPIError(errType, body.Message).WithStatusCode(resp.StatusCode)
}

// Package genuka implements the outbound client for the Genuka commerce
// platform: the two OAuth token operations (authorization-code exchange and
// refresh-token exchange) plus the bearer-authenticated company profile lookup.
//
// The client is pure request/response: no retries, no local token state. All
// retry policy belongs to the caller.
package genuka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	tokenPath     = "/oauth/token"
	companiesPath = "/api/companies/"

	grantAuthorizationCode = "authorization_code"
	grantRefreshToken      = "refresh_token"
)

// ErrRefreshRevoked signals that the provider rejected the stored refresh
// token as revoked or invalid. It is terminal: the merchant must redo the
// OAuth installation, retrying is pointless.
var ErrRefreshRevoked = errors.New("genuka: refresh token revoked or invalid")

// TokenResponse is the provider's answer to either token grant.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

// ExpiresAt computes the absolute expiry from now.
func (t *TokenResponse) ExpiresAt(now time.Time) time.Time {
	return now.Add(time.Duration(t.ExpiresInMinutes) * time.Minute)
}

// CompanyInfo is the provider-side company profile.
type CompanyInfo struct {
	ID          string         `json:"id"`
	Handle      string         `json:"handle,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	LogoURL     string         `json:"logoUrl,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Contact extracts the contact phone from the profile metadata, if present.
func (c *CompanyInfo) Contact() string {
	if c.Metadata == nil {
		return ""
	}
	if s, ok := c.Metadata["contact"].(string); ok {
		return s
	}
	return ""
}

// APIError is a non-2xx answer from the provider, carrying the upstream
// status and body for diagnostics.
type APIError struct {
	Operation string // "exchange_code" | "refresh_token" | "get_company"
	Status    int
	Body      string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("genuka %s failed: status %d: %s", e.Operation, e.Status, e.Body)
}

// Client is the Genuka API client.
type Client struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURI  string

	http *http.Client
}

// New creates a Genuka client against baseURL.
func New(baseURL, clientID, clientSecret, redirectURI string) *Client {
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

// ExchangeCode exchanges an authorization code for access/refresh tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", grantAuthorizationCode)
	form.Set("code", code)
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("redirect_uri", c.RedirectURI)

	return c.tokenRequest(ctx, "exchange_code", form)
}

// RefreshToken exchanges a provider refresh token for fresh tokens.
// A revoked/invalid refresh token surfaces as ErrRefreshRevoked so callers
// can demand re-authorization instead of retrying.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", grantRefreshToken)
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)

	tr, err := c.tokenRequest(ctx, "refresh_token", form)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && refreshRejected(apiErr) {
			return nil, fmt.Errorf("%w: %s", ErrRefreshRevoked, apiErr.Body)
		}
		return nil, err
	}
	return tr, nil
}

func (c *Client) tokenRequest(ctx context.Context, op string, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genuka %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, &APIError{Operation: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var tr TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("genuka %s: failed to decode token response: %w", op, err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("genuka %s: no access_token in response", op)
	}
	return &tr, nil
}

// refreshRejected detects the provider's revoked/invalid-token answer.
// Genuka reports it as a 400/401 with an error body mentioning the grant.
func refreshRejected(e *APIError) bool {
	if e.Status != http.StatusBadRequest && e.Status != http.StatusUnauthorized {
		return false
	}
	body := strings.ToLower(e.Body)
	return strings.Contains(body, "invalid_grant") ||
		strings.Contains(body, "revoked") ||
		strings.Contains(body, "invalid refresh token")
}

// GetCompany fetches the company profile using a bearer access token.
func (c *Client) GetCompany(ctx context.Context, accessToken, companyID string) (*CompanyInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+companiesPath+url.PathEscape(companyID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genuka get_company request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, &APIError{Operation: "get_company", Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var info CompanyInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("genuka get_company: failed to decode profile: %w", err)
	}
	return &info, nil
}

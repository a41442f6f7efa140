// Package googleauth implements the OAuth authorization-code flow against
// Google's endpoints: consent URL construction, code exchange, refresh, and
// revocation. Tokens are plain values; persistence is the session layer's
// concern.
package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAuthURL   = "https://accounts.google.com/o/oauth2/auth"
	defaultTokenURL  = "https://oauth2.googleapis.com/token"
	defaultRevokeURL = "https://oauth2.googleapis.com/revoke"
)

// Config carries the registered OAuth application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Token is the response from Google's token endpoint. Expiry is derived from
// ExpiresIn at parse time. RefreshToken is only present on the initial
// exchange when access_type=offline was requested.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	Scope        string    `json:"scope"`
	Expiry       time.Time `json:"-"`
}

// Client performs the OAuth calls. The endpoint fields default to Google's
// public URLs and are overridable for tests.
type Client struct {
	AuthURL   string
	TokenURL  string
	RevokeURL string

	cfg        Config
	httpClient *http.Client
}

// NewClient returns a client for the given application credentials.
func NewClient(cfg Config) *Client {
	return &Client{
		AuthURL:    defaultAuthURL,
		TokenURL:   defaultTokenURL,
		RevokeURL:  defaultRevokeURL,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ConsentURL builds the browser redirect target for the consent screen.
// access_type=offline with prompt=consent makes Google return a refresh
// token on every exchange, not just the first authorization.
func (c *Client) ConsentURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURL)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(c.cfg.Scopes, " "))
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	q.Set("state", state)
	return c.AuthURL + "?" + q.Encode()
}

// Exchange trades an authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code string) (*Token, error) {
	form := url.Values{}
	form.Add("client_id", c.cfg.ClientID)
	form.Add("client_secret", c.cfg.ClientSecret)
	form.Add("code", code)
	form.Add("grant_type", "authorization_code")
	form.Add("redirect_uri", c.cfg.RedirectURL)

	return c.requestToken(ctx, form)
}

// Refresh obtains a fresh access token from a stored refresh token. Google
// does not rotate the refresh token on this grant, so the returned Token's
// RefreshToken is usually empty and the caller keeps the stored one.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Add("client_id", c.cfg.ClientID)
	form.Add("client_secret", c.cfg.ClientSecret)
	form.Add("refresh_token", refreshToken)
	form.Add("grant_type", "refresh_token")

	return c.requestToken(ctx, form)
}

func (c *Client) requestToken(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if token.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	return &token, nil
}

// Revoke invalidates an access or refresh token at Google. A 200 means the
// token is gone; Google also returns 400 for tokens that are already invalid,
// which callers may treat as success when tearing down a session.
func (c *Client) Revoke(ctx context.Context, token string) error {
	form := url.Values{}
	form.Add("token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create revoke request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send revoke request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("google revoke request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

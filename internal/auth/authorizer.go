package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Authorizer handles the authorization-code and refresh-token grants for
// Anthropic Claude. It uses manual HTTP requests for both because Anthropic's
// token endpoint expects JSON-encoded bodies and a non-standard 'state' field
// that golang.org/x/oauth2 cannot produce.
type Authorizer struct {
	config *oauth2.Config
	client *http.Client
}

// NewAuthorizer creates a new Anthropic Claude OAuth authorizer.
func NewAuthorizer(endpoint oauth2.Endpoint, redirectURL string) *Authorizer {
	config := &oauth2.Config{
		ClientID:     ClientID,
		ClientSecret: "",
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		Endpoint:     endpoint,
	}

	return &Authorizer{
		config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AuthCodeURL generates the authorization URL for the OAuth2 flow. The PKCE
// challenge is derived from the triple's verifier; the state parameter is
// carried separately for CSRF protection.
func (a *Authorizer) AuthCodeURL(p PKCE, opts ...oauth2.AuthCodeOption) string {
	allOpts := append(opts,
		oauth2.S256ChallengeOption(p.Verifier),
		oauth2.SetAuthURLParam("code", "true"),
	)

	return a.config.AuthCodeURL(p.State, allOpts...)
}

// Exchange completes the OAuth2 flow by swapping an authorization code for
// tokens. The state field is included in the request body (required by
// Anthropic but not standard OAuth2). The call performs no retries; retrying
// with the same inputs is safe and belongs to the caller.
func (a *Authorizer) Exchange(ctx context.Context, code, state, verifier string) (*TokenResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if verifier == "" {
		return nil, errors.New("verifier cannot be empty")
	}

	return a.token(ctx, exchangeRequest{
		Code:         code,
		State:        state,
		GrantType:    "authorization_code",
		ClientID:     ClientID,
		RedirectURI:  a.config.RedirectURL,
		CodeVerifier: verifier,
	})
}

// Refresh obtains a new token pair using a stored refresh token. Error
// handling matches Exchange; no retries are performed.
func (a *Authorizer) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if refreshToken == "" {
		return nil, errors.New("refresh token cannot be empty")
	}

	return a.token(ctx, refreshRequest{
		ClientID:     ClientID,
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
	})
}

// token POSTs a grant request to the token endpoint and decodes the typed
// response.
func (a *Authorizer) token(ctx context.Context, grant any) (*TokenResponse, error) {
	requestBody, err := json.Marshal(grant)
	if err != nil {
		return nil, fmt.Errorf("marshaling token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint.TokenURL, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExchangeError{Status: resp.StatusCode, Body: string(responseBody)}
	}

	var token TokenResponse
	if err := json.Unmarshal(responseBody, &token); err != nil {
		return nil, &ParseError{Err: err}
	}

	return &token, nil
}

// exchangeRequest represents the authorization_code grant body. Includes the
// non-standard State field required by Anthropic's token endpoint.
type exchangeRequest struct {
	Code         string `json:"code"`
	State        string `json:"state"`
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	RedirectURI  string `json:"redirect_uri"`
	CodeVerifier string `json:"code_verifier"`
}

// refreshRequest represents the refresh_token grant body.
type refreshRequest struct {
	ClientID     string `json:"client_id"`
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
}

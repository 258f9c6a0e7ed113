package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const tokenResponseBody = `{
	"access_token": "at-123",
	"refresh_token": "rt-456",
	"expires_in": 28800,
	"token_type": "Bearer",
	"organization": {"uuid": "org-uuid", "name": "Acme"},
	"account": {"uuid": "acct-uuid", "email_address": "dev@example.com"}
}`

// newTokenServer records the last request body and serves the given response.
func newTokenServer(t *testing.T, status int, body string) (*httptest.Server, *map[string]any) {
	t.Helper()

	captured := map[string]any{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		clear(captured)
		require.NoError(t, json.Unmarshal(raw, &captured))

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, &captured
}

func testAuthorizer(serverURL string) *Authorizer {
	return NewAuthorizer(oauth2.Endpoint{
		AuthURL:  "https://example.com/authorize",
		TokenURL: serverURL,
	}, RedirectURL)
}

func TestExchange(t *testing.T) {
	server, captured := newTokenServer(t, http.StatusOK, tokenResponseBody)

	token, err := testAuthorizer(server.URL).Exchange(t.Context(), "the-code", "the-state", "the-verifier")
	require.NoError(t, err)

	require.Equal(t, "at-123", token.AccessToken)
	require.Equal(t, "rt-456", token.RefreshToken)
	require.Equal(t, int64(28800), token.ExpiresIn)
	require.Equal(t, "dev@example.com", token.Account.EmailAddress)
	require.Equal(t, "Acme", token.Organization.Name)

	body := *captured
	require.Equal(t, "authorization_code", body["grant_type"])
	require.Equal(t, "the-code", body["code"])
	require.Equal(t, "the-state", body["state"])
	require.Equal(t, "the-verifier", body["code_verifier"])
	require.Equal(t, ClientID, body["client_id"])
	require.Equal(t, RedirectURL, body["redirect_uri"])
}

func TestExchangeEmptyVerifier(t *testing.T) {
	_, err := testAuthorizer("http://unused").Exchange(t.Context(), "c", "s", "")
	require.Error(t, err)
}

func TestExchangeNon2xx(t *testing.T) {
	server, _ := newTokenServer(t, http.StatusBadRequest, `{"error":"invalid_grant"}`)

	_, err := testAuthorizer(server.URL).Exchange(t.Context(), "c", "s", "v")

	var exchangeErr *ExchangeError
	require.True(t, errors.As(err, &exchangeErr), "got %v", err)
	require.Equal(t, http.StatusBadRequest, exchangeErr.Status)
	require.Contains(t, exchangeErr.Body, "invalid_grant")
}

func TestExchangeBadJSON(t *testing.T) {
	server, _ := newTokenServer(t, http.StatusOK, "not json")

	_, err := testAuthorizer(server.URL).Exchange(t.Context(), "c", "s", "v")

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr), "got %v", err)
}

func TestRefresh(t *testing.T) {
	server, captured := newTokenServer(t, http.StatusOK, tokenResponseBody)

	token, err := testAuthorizer(server.URL).Refresh(t.Context(), "rt-old")
	require.NoError(t, err)
	require.Equal(t, "at-123", token.AccessToken)

	body := *captured
	require.Equal(t, "refresh_token", body["grant_type"])
	require.Equal(t, "rt-old", body["refresh_token"])
	require.Equal(t, ClientID, body["client_id"])
	require.NotContains(t, body, "code")
}

func TestRefreshEmptyToken(t *testing.T) {
	_, err := testAuthorizer("http://unused").Refresh(t.Context(), "")
	require.Error(t, err)
}

func TestAuthCodeURL(t *testing.T) {
	a := NewAuthorizer(Endpoint, RedirectURL)

	p := PKCE{Verifier: "the-verifier", Challenge: ChallengeFrom("the-verifier"), State: "the-state"}
	raw := a.AuthCodeURL(p)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "claude.ai", u.Host)
	require.Equal(t, "/oauth/authorize", u.Path)

	q := u.Query()
	require.Equal(t, ClientID, q.Get("client_id"))
	require.Equal(t, "the-state", q.Get("state"))
	require.Equal(t, "true", q.Get("code"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.Equal(t, p.Challenge, q.Get("code_challenge"))
	require.Equal(t, RedirectURL, q.Get("redirect_uri"))
	require.Contains(t, q.Get("scope"), "user:profile")
}

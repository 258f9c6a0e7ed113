package auth

import (
	"time"

	"golang.org/x/oauth2"
)

// DefaultCallbackTimeout bounds how long an interactive login waits for the
// browser redirect before giving up.
const DefaultCallbackTimeout = 5 * time.Minute

// Anthropic OAuth constants. The client id and scopes match what the Claude
// Code CLI registers with the provider; the callback port is part of that
// registration and cannot be chosen freely.
const (
	ClientID     = "9d1c250a-e61b-44d9-88ed-5944d1962f5e"
	CallbackPort = 54545
	RedirectURL  = "http://localhost:54545/callback"
)

// Endpoint is Anthropic's OAuth2 endpoint pair.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://claude.ai/oauth/authorize",
	TokenURL: "https://console.anthropic.com/v1/oauth/token",
}

var scopes = []string{"user:profile", "user:inference", "user:sessions:claude_code"}

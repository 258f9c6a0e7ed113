package auth

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"time"
)

// Flow drives one complete interactive login: generate PKCE material, open
// the authorize URL in the user's browser, wait for the loopback redirect and
// exchange the code for tokens.
type Flow struct {
	Authorizer *Authorizer
	Receiver   *CallbackReceiver

	// OpenURL opens the authorize URL; defaults to the system browser.
	OpenURL func(url string) error
}

// NewFlow builds the default login flow against Anthropic's endpoints.
// timeout bounds the wait for the browser redirect; zero waits forever.
func NewFlow(timeout time.Duration) *Flow {
	return &Flow{
		Authorizer: NewAuthorizer(Endpoint, RedirectURL),
		Receiver:   NewCallbackReceiver(CallbackPort, timeout),
		OpenURL:    OpenBrowser,
	}
}

// Run executes the flow and returns the provider's token response. Every
// failure is terminal to this one attempt; the flow never retries.
func (f *Flow) Run(ctx context.Context) (*TokenResponse, error) {
	slog.InfoContext(ctx, "starting oauth login flow")

	pkce, err := NewPKCE()
	if err != nil {
		return nil, err
	}

	authURL := f.Authorizer.AuthCodeURL(pkce)

	slog.InfoContext(ctx, "opening browser for authorization")
	if err := f.OpenURL(authURL); err != nil {
		return nil, fmt.Errorf("failed to open browser: %w", err)
	}

	slog.InfoContext(ctx, "waiting for oauth callback")
	code, err := f.Receiver.Await(ctx, pkce.State)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "exchanging authorization code for tokens")
	token, err := f.Authorizer.Exchange(ctx, code, pkce.State, pkce.Verifier)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "successfully obtained access token")
	return token, nil
}

// OpenBrowser opens url in the user's default browser.
func OpenBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default:
		cmd = "xdg-open"
	}
	args = append(args, url)

	return exec.Command(cmd, args...).Start()
}

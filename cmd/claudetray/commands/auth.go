package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/jrdx0/claudetray/internal/app"
	"github.com/jrdx0/claudetray/internal/auth"
	"github.com/jrdx0/claudetray/internal/credentials"
)

// authCommand returns the 'auth' subcommand for managing provider authentication.
func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage provider authentication",
		Commands: []*cli.Command{
			authLoginCommand(),
			authLogoutCommand(),
		},
	}
}

func authLoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Login to Anthropic Claude and save credentials",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "manual",
				Usage: "paste the authorization code instead of using the loopback callback",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "how long to wait for the browser redirect (0 waits forever)",
			},
		},
		Action: authLoginAction,
	}
}

func authLogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Logout from Anthropic Claude and clear credentials",
		Action: authLogoutAction,
	}
}

func authLoginAction(ctx context.Context, cmd *cli.Command) error {
	cfg, shutdown, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer shutdown(context.Background()) //nolint:errcheck

	if cfg.Auth.Storage == app.TokenStorageEnv {
		return fmt.Errorf("cannot login with env storage (read-only). Configure file or keyring storage")
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return fmt.Errorf("failed to create token store: %w", err)
	}

	timeout := cfg.Auth.CallbackTimeout
	if cmd.IsSet("timeout") {
		timeout = cmd.Duration("timeout")
	}

	var token *auth.TokenResponse
	if cmd.Bool("manual") {
		token, err = runManualOAuth(ctx)
	} else {
		token, err = auth.NewFlow(timeout).Run(ctx)
	}
	if err != nil {
		return fmt.Errorf("oauth login failed: %w", err)
	}

	creds := credentials.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if err := store.Save(ctx, creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Login Successful ===")
	if token.Account.EmailAddress != "" {
		fmt.Printf("Account:      %s\n", token.Account.EmailAddress)
	}
	if token.Organization.Name != "" {
		fmt.Printf("Organization: %s\n", token.Organization.Name)
	}
	fmt.Println("Credentials saved to configured storage")

	return nil
}

func authLogoutAction(ctx context.Context, cmd *cli.Command) error {
	cfg, shutdown, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer shutdown(context.Background()) //nolint:errcheck

	if cfg.Auth.Storage == app.TokenStorageEnv {
		return fmt.Errorf("cannot logout with env storage (read-only). Configure file or keyring storage")
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return fmt.Errorf("failed to create token store: %w", err)
	}

	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Logout Successful ===")
	fmt.Println("Credentials cleared from configured storage")

	return nil
}

// runManualOAuth performs the login without a loopback listener, for hosts
// where the browser runs elsewhere. The provider shows the user a value of
// the form "code#state" to paste back.
func runManualOAuth(ctx context.Context) (*auth.TokenResponse, error) {
	pkce, err := auth.NewPKCE()
	if err != nil {
		return nil, err
	}

	authorizer := auth.NewAuthorizer(auth.Endpoint, auth.RedirectURL)
	authURL := authorizer.AuthCodeURL(pkce)

	fmt.Println("=== Anthropic Claude OAuth Login ===")
	fmt.Println()
	fmt.Printf("1. Visit this URL in your browser:\n   %s\n\n", authURL)
	fmt.Println("2. Authorize the application")
	fmt.Println("3. Paste the authorization code")

	input, err := readSecureInput(ctx, "\nEnter authorization code: ")
	if err != nil {
		return nil, err
	}
	if input == "" {
		return nil, fmt.Errorf("authorization code cannot be empty")
	}

	// The paste value carries the state after a '#'; without one the
	// generated state is echoed back unchanged.
	code, state, found := strings.Cut(input, "#")
	if !found {
		state = pkce.State
	}

	token, err := authorizer.Exchange(ctx, code, state, pkce.Verifier)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	return token, nil
}

// readSecureInput reads user input with hidden display and context cancellation support.
// Goroutine+select pattern required because term.ReadPassword has no native context support.
func readSecureInput(ctx context.Context, prompt string) (string, error) {
	fmt.Print(prompt)
	defer fmt.Println()

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		resultCh <- result{value: string(inputBytes), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return strings.TrimSpace(res.value), nil
	}
}

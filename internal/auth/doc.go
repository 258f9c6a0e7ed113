// Package auth implements the OAuth2/PKCE authorization-code flow for
// Anthropic Claude, including the loopback callback receiver and the
// refresh-token grant.
//
// Anthropic's OAuth2 implementation requires custom handling in a few ways:
//   - Token exchange and refresh use JSON-encoded requests (OAuth2 typically
//     uses form-encoding)
//   - Token exchange requires a "state" field in the request body
//   - The authorize URL carries an extra "code=true" query parameter
//
// # Interactive login
//
// Flow ties the pieces together:
//
//	flow := auth.NewFlow(5 * time.Minute)
//	token, err := flow.Run(ctx)
//	// Persist token.AccessToken / token.RefreshToken
//
// # Manual pieces
//
// The individual steps are exported for flows that cannot use the loopback
// receiver (e.g. pasting the code from another machine):
//
//	pkce, _ := auth.NewPKCE()
//	authorizer := auth.NewAuthorizer(auth.Endpoint, auth.RedirectURL)
//	authURL := authorizer.AuthCodeURL(pkce)
//	// After the user authorizes, exchange the code:
//	token, err := authorizer.Exchange(ctx, code, pkce.State, pkce.Verifier)
package auth

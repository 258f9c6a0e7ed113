package auth

// TokenResponse is the provider's answer to both the authorization_code and
// refresh_token grants. Only the token pair is persisted; the identity fields
// are transient and surfaced to the user once at login.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
	Organization Organization `json:"organization"`
	Account      Account      `json:"account"`
}

// Organization identifies the org the authorized account belongs to.
type Organization struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// Account identifies the authorized account.
type Account struct {
	UUID         string `json:"uuid"`
	EmailAddress string `json:"email_address"`
}

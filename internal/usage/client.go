// Package usage fetches usage-period snapshots from Anthropic's oauth usage
// endpoint and classifies the differently shaped success and failure bodies.
package usage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const (
	defaultUsageURL = "https://api.anthropic.com/api/oauth/usage"
	betaHeader      = "oauth-2025-04-20"
	userAgent       = "claude-code/2.0.61"
)

// Client fetches usage snapshots from the provider's usage endpoint.
type Client struct {
	url    string
	client *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the usage endpoint URL.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a usage client against Anthropic's endpoint.
func NewClient(opts ...Option) *Client {
	c := &Client{
		url: defaultUsageURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves the current usage snapshot using bearer authentication.
// The full body is read before any parsing so the ordered fallback below can
// inspect it more than once.
func (c *Client) Fetch(ctx context.Context, accessToken string) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("anthropic-beta", betaHeader)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	return parseBody(body)
}

// parseBody tries the success shape first, then the error envelope. The
// endpoint returns differently shaped JSON for success and failure, and some
// failures do not even match the envelope, hence the raw-body fallback.
func parseBody(body []byte) (*Snapshot, error) {
	var payload snapshotPayload
	if err := json.Unmarshal(body, &payload); err == nil && payload.FiveHour != nil && payload.SevenDay != nil {
		return payload.snapshot(), nil
	}

	var envelope ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Type == "error" {
		return nil, &APIError{Envelope: envelope}
	}

	return nil, &UnexpectedResponseError{Body: string(body)}
}

// snapshotPayload is the wire shape of a successful response. The required
// windows are pointers so their presence can be verified before the body is
// accepted as a snapshot.
type snapshotPayload struct {
	FiveHour          *Period     `json:"five_hour"`
	SevenDay          *Period     `json:"seven_day"`
	SevenDayOAuthApps *Period     `json:"seven_day_oauth_apps"`
	SevenDayOpus      *Period     `json:"seven_day_opus"`
	SevenDaySonnet    *Period     `json:"seven_day_sonnet"`
	ExtraUsage        *ExtraUsage `json:"extra_usage"`
}

func (p snapshotPayload) snapshot() *Snapshot {
	s := &Snapshot{
		FiveHour:          *p.FiveHour,
		SevenDay:          *p.SevenDay,
		SevenDayOAuthApps: p.SevenDayOAuthApps,
		SevenDayOpus:      p.SevenDayOpus,
		SevenDaySonnet:    p.SevenDaySonnet,
	}
	if p.ExtraUsage != nil {
		s.ExtraUsage = *p.ExtraUsage
	}
	return s
}

package usage

import (
	"fmt"
	"strings"
)

// AuthExpiredMarker is the substring the provider embeds in the error message
// when the bearer token is no longer valid.
const AuthExpiredMarker = "OAuth token has expired"

// TransportError indicates the provider was unreachable or the response body
// could not be read. Kept separate from APIError so callers can distinguish
// "provider does not like us" from "provider unreachable".
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("usage request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError carries the provider's structured error envelope.
type APIError struct {
	Envelope ErrorEnvelope
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%s): %s [request_id: %s]",
		e.Envelope.Error.Type, e.Envelope.Error.Message, e.Envelope.RequestID)
}

// AuthExpired reports whether the envelope's message carries the
// expired-token marker.
func (e *APIError) AuthExpired() bool {
	return strings.Contains(e.Envelope.Error.Message, AuthExpiredMarker)
}

// UnexpectedResponseError carries a response body that is neither a usage
// snapshot nor an error envelope.
type UnexpectedResponseError struct {
	Body string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected api response format: %s", e.Body)
}

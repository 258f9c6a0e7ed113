package auth

import (
	"errors"
	"fmt"
)

// ErrStateMismatch is returned when the state echoed back by the provider
// does not match the one issued for this login attempt. The exchange must
// not proceed.
var ErrStateMismatch = errors.New("oauth state mismatch")

// ErrCallbackTimeout is returned when no browser redirect arrives within the
// receiver's accept timeout.
var ErrCallbackTimeout = errors.New("timed out waiting for oauth callback")

// BindError indicates the loopback callback port could not be bound,
// typically because another instance is already waiting for a login.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// MalformedCallbackError indicates the redirect request could not be parsed
// or was missing a required query parameter.
type MalformedCallbackError struct {
	Reason string
}

func (e *MalformedCallbackError) Error() string {
	return fmt.Sprintf("malformed oauth callback: %s", e.Reason)
}

// ExchangeError indicates the token endpoint answered with a non-2xx status.
type ExchangeError struct {
	Status int
	Body   string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed with status %d: %s", e.Status, e.Body)
}

// ParseError indicates the token endpoint body could not be decoded as a
// token response.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse token response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

package auth

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

const (
	// readBufferSize bounds how much of the redirect request is read. The
	// request line plus a browser's headers fit comfortably; anything beyond
	// is irrelevant to extracting the query parameters.
	readBufferSize = 4096

	successResponse = "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n" +
		"<html><body><h1>Login successful</h1><p>You can close this tab and return to the terminal.</p></body></html>"
	failureResponse = "HTTP/1.1 400 Bad Request\r\nContent-Type: text/html\r\n\r\n" +
		"<html><body><h1>Login failed</h1><p>You can close this tab. Check the terminal for details.</p></body></html>"
)

// CallbackReceiver accepts the single OAuth redirect on the loopback
// interface. It is a one-shot receiver, not a server: the listener is torn
// down after the first connection regardless of outcome.
type CallbackReceiver struct {
	addr    string
	timeout time.Duration
}

// NewCallbackReceiver creates a receiver for the given loopback port. A zero
// timeout blocks until the redirect arrives or ctx is cancelled.
func NewCallbackReceiver(port int, timeout time.Duration) *CallbackReceiver {
	return &CallbackReceiver{
		addr:    fmt.Sprintf("127.0.0.1:%d", port),
		timeout: timeout,
	}
}

// Await blocks until the browser redirect arrives, validates its state
// parameter against expectedState and returns the authorization code. On a
// malformed or mismatching request a best-effort 400 response is written
// before the error is returned so the browser tab does not hang.
func (r *CallbackReceiver) Await(ctx context.Context, expectedState string) (string, error) {
	ln, err := net.Listen("tcp4", r.addr)
	if err != nil {
		return "", &BindError{Addr: r.addr, Err: err}
	}
	defer func() { _ = ln.Close() }()

	if r.timeout > 0 {
		if tl, ok := ln.(*net.TCPListener); ok {
			_ = tl.SetDeadline(time.Now().Add(r.timeout))
		}
	}

	// Closing the listener is the only way to unblock Accept on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-done:
		}
	}()

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return "", ErrCallbackTimeout
		}
		return "", fmt.Errorf("failed to accept callback connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	buf := make([]byte, readBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		return "", fmt.Errorf("failed to read callback request: %w", err)
	}

	code, err := parseCallbackRequest(string(buf[:n]), expectedState)
	if err != nil {
		_, _ = conn.Write([]byte(failureResponse))
		return "", err
	}

	if _, err := conn.Write([]byte(successResponse)); err != nil {
		return "", fmt.Errorf("failed to write callback response: %w", err)
	}

	return code, nil
}

// parseCallbackRequest extracts and validates the state and code query
// parameters from the request line of the redirect's HTTP GET.
func parseCallbackRequest(request, expectedState string) (string, error) {
	line, _, _ := strings.Cut(request, "\r\n")
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "GET" {
		return "", &MalformedCallbackError{Reason: "not an HTTP GET request"}
	}

	target, err := url.ParseRequestURI(fields[1])
	if err != nil {
		return "", &MalformedCallbackError{Reason: "invalid request target"}
	}

	query := target.Query()

	state := query.Get("state")
	if state == "" {
		return "", &MalformedCallbackError{Reason: `missing "state" parameter`}
	}
	if state != expectedState {
		return "", ErrStateMismatch
	}

	code := query.Get("code")
	if code == "" {
		return "", &MalformedCallbackError{Reason: `missing "code" parameter`}
	}

	return code, nil
}

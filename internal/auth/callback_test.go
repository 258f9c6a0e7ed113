package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// freePort asks the kernel for an unused loopback port.
func freePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	return ln.Addr().(*net.TCPAddr).Port
}

// sendCallback dials the receiver, writes a raw redirect request and returns
// the receiver's response. Dialing retries until the listener is up.
func sendCallback(t *testing.T, port int, request string) string {
	t.Helper()

	var conn net.Conn
	var err error
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err = net.Dial("tcp4", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			break
		}
		require.True(t, time.Now().Before(deadline), "receiver never started listening")
		time.Sleep(5 * time.Millisecond)
	}
	defer func() { _ = conn.Close() }()

	_, err = conn.Write([]byte(request))
	require.NoError(t, err)

	response, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(response)
}

type awaitResult struct {
	code string
	err  error
}

func startAwait(ctx context.Context, port int, timeout time.Duration, state string) <-chan awaitResult {
	ch := make(chan awaitResult, 1)
	go func() {
		code, err := NewCallbackReceiver(port, timeout).Await(ctx, state)
		ch <- awaitResult{code: code, err: err}
	}()
	return ch
}

func TestAwaitReturnsCode(t *testing.T) {
	port := freePort(t)
	resultCh := startAwait(t.Context(), port, 0, "abc123")

	response := sendCallback(t, port,
		"GET /callback?code=XYZ&state=abc123 HTTP/1.1\r\nHost: localhost\r\n\r\n")

	require.Contains(t, response, "200 OK")
	require.Contains(t, response, "Login successful")

	res := <-resultCh
	require.NoError(t, res.err)
	require.Equal(t, "XYZ", res.code)
}

func TestAwaitStateMismatch(t *testing.T) {
	port := freePort(t)
	resultCh := startAwait(t.Context(), port, 0, "expected-state")

	response := sendCallback(t, port,
		"GET /callback?code=XYZ&state=forged HTTP/1.1\r\n\r\n")

	require.Contains(t, response, "400 Bad Request")

	res := <-resultCh
	require.ErrorIs(t, res.err, ErrStateMismatch)
}

func TestAwaitMalformedRequest(t *testing.T) {
	cases := []struct {
		name    string
		request string
	}{
		{"not a GET", "POST /callback?code=X&state=s HTTP/1.1\r\n\r\n"},
		{"missing state", "GET /callback?code=X HTTP/1.1\r\n\r\n"},
		{"missing code", "GET /callback?state=s HTTP/1.1\r\n\r\n"},
		{"garbage", "not http at all\r\n\r\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			port := freePort(t)
			resultCh := startAwait(t.Context(), port, 0, "s")

			response := sendCallback(t, port, tc.request)
			require.Contains(t, response, "400 Bad Request")

			res := <-resultCh
			var malformed *MalformedCallbackError
			require.True(t, errors.As(res.err, &malformed), "got %v", res.err)
		})
	}
}

func TestAwaitPortAlreadyBound(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	port := ln.Addr().(*net.TCPAddr).Port

	_, err = NewCallbackReceiver(port, 0).Await(t.Context(), "s")
	var bindErr *BindError
	require.True(t, errors.As(err, &bindErr), "got %v", err)
	require.True(t, strings.HasSuffix(bindErr.Addr, fmt.Sprintf(":%d", port)))
}

func TestAwaitTimeout(t *testing.T) {
	port := freePort(t)

	start := time.Now()
	_, err := NewCallbackReceiver(port, 50*time.Millisecond).Await(t.Context(), "s")
	require.ErrorIs(t, err, ErrCallbackTimeout)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestAwaitContextCancel(t *testing.T) {
	port := freePort(t)

	ctx, cancel := context.WithCancel(t.Context())
	resultCh := startAwait(ctx, port, 0, "s")

	cancel()

	res := <-resultCh
	require.ErrorIs(t, res.err, context.Canceled)
}

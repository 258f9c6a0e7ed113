package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrdx0/claudetray/internal/usage"
)

// fakeFetcher returns canned results and records the tokens it was called with.
type fakeFetcher struct {
	mu      sync.Mutex
	tokens  []string
	results []fetchResult
}

type fetchResult struct {
	snapshot *usage.Snapshot
	err      error
}

func (f *fakeFetcher) Fetch(_ context.Context, accessToken string) (*usage.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tokens = append(f.tokens, accessToken)

	res := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return res.snapshot, res.err
}

func (f *fakeFetcher) seenTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tokens...)
}

func expiredErr() error {
	return &usage.APIError{Envelope: usage.ErrorEnvelope{
		Type: "error",
		Error: usage.ErrorDetail{
			Type:    "authentication_error",
			Message: "OAuth token has expired.",
		},
	}}
}

func nextEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestRunEmitsUsageUpdated(t *testing.T) {
	snapshot := &usage.Snapshot{FiveHour: usage.Period{Utilization: 42}}
	fetcher := &fakeFetcher{results: []fetchResult{{snapshot: snapshot}}}

	m := New(fetcher, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go m.Run(ctx, "at-1")

	ev := nextEvent(t, m.Events())
	updated, ok := ev.(UsageUpdated)
	require.True(t, ok, "got %T", ev)
	require.Equal(t, snapshot, updated.Snapshot)

	// the loop keeps going
	_ = nextEvent(t, m.Events())
}

func TestRunAuthExpired(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{err: expiredErr()}}}

	m := New(fetcher, time.Hour)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go m.Run(ctx, "at-1")

	// exactly one RefreshNeeded, then the Error event for the same poll
	ev := nextEvent(t, m.Events())
	require.IsType(t, RefreshNeeded{}, ev)

	ev = nextEvent(t, m.Events())
	errEv, ok := ev.(Error)
	require.True(t, ok, "got %T", ev)
	require.Contains(t, errEv.Message, "authentication_error")
}

func TestRunTransportErrorDoesNotRequestRefresh(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{
		{err: &usage.TransportError{Err: errors.New("connection refused")}},
	}}

	m := New(fetcher, time.Hour)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go m.Run(ctx, "at-1")

	ev := nextEvent(t, m.Events())
	errEv, ok := ev.(Error)
	require.True(t, ok, "got %T, want Error with no preceding RefreshNeeded", ev)
	require.Contains(t, errEv.Message, "connection refused")
}

func TestRunPicksUpReplacementToken(t *testing.T) {
	snapshot := &usage.Snapshot{}
	fetcher := &fakeFetcher{results: []fetchResult{{snapshot: snapshot}}}

	m := New(fetcher, time.Hour)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go m.Run(ctx, "at-old")

	_ = nextEvent(t, m.Events())

	// delivered during the inter-poll wait, cuts it short
	m.SetToken("at-new")

	_ = nextEvent(t, m.Events())

	tokens := fetcher.seenTokens()
	require.GreaterOrEqual(t, len(tokens), 2)
	require.Equal(t, "at-old", tokens[0])
	require.Equal(t, "at-new", tokens[1])
}

func TestSetTokenReplacesUnconsumed(t *testing.T) {
	m := New(&fakeFetcher{results: []fetchResult{{snapshot: &usage.Snapshot{}}}}, time.Hour)

	// no running loop consuming; the second call must not block
	m.SetToken("first")
	m.SetToken("second")

	require.Equal(t, "second", <-m.tokens)
}

func TestRunStopsOnCancel(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{snapshot: &usage.Snapshot{}}}}

	m := New(fetcher, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan struct{})
	go func() {
		m.Run(ctx, "at-1")
		close(done)
	}()

	_ = nextEvent(t, m.Events())
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}
}

func TestNotifyInjectsEvent(t *testing.T) {
	m := New(&fakeFetcher{results: []fetchResult{{snapshot: &usage.Snapshot{}}}}, time.Hour)

	m.Notify(t.Context(), RefreshCompleted{})

	ev := nextEvent(t, m.Events())
	require.IsType(t, RefreshCompleted{}, ev)
}

// Package monitor drives periodic usage polling against the provider and
// reports results to its owner over an event channel.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jrdx0/claudetray/internal/usage"
)

// DefaultInterval is the fixed delay between polls. There is no backoff: the
// same interval applies whether the previous poll succeeded or failed.
const DefaultInterval = 5 * time.Minute

// Fetcher retrieves one usage snapshot for an access token.
type Fetcher interface {
	Fetch(ctx context.Context, accessToken string) (*usage.Snapshot, error)
}

// Monitor is the usage polling loop. Within one iteration fetch, emit and
// wait run strictly sequentially and iterations never overlap. Failures are
// absorbed and reported as events; only context cancellation stops the loop.
type Monitor struct {
	fetcher  Fetcher
	interval time.Duration
	events   chan Event
	tokens   chan string
}

// New creates a monitor polling via fetcher. A non-positive interval falls
// back to DefaultInterval.
func New(fetcher Fetcher, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		fetcher:  fetcher,
		interval: interval,
		events:   make(chan Event, 16),
		tokens:   make(chan string, 1),
	}
}

// Events returns the stream consumed by the owner of the loop.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// SetToken replaces the access token used by subsequent polls without
// restarting the loop. An unconsumed earlier replacement is discarded.
func (m *Monitor) SetToken(token string) {
	for {
		select {
		case m.tokens <- token:
			return
		default:
			select {
			case <-m.tokens:
			default:
			}
		}
	}
}

// Notify injects a session-level event into the stream the loop emits on.
func (m *Monitor) Notify(ctx context.Context, ev Event) {
	m.emit(ctx, ev)
}

// Run polls until ctx is cancelled. accessToken seeds the loop; replacements
// arrive via SetToken. A replacement delivered during the inter-poll wait
// cuts the wait short so the fresh token is exercised immediately.
func (m *Monitor) Run(ctx context.Context, accessToken string) {
	slog.InfoContext(ctx, "usage monitoring started", "interval", m.interval)

	token := accessToken
	for {
		m.poll(ctx, token)

		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "usage monitoring stopped")
			return
		case fresh := <-m.tokens:
			token = fresh
		case <-time.After(m.interval):
		}
	}
}

// poll performs one fetch-and-emit iteration. An expired-token API error is
// promoted to a RefreshNeeded event; every failure also produces an Error
// event with the human-readable message.
func (m *Monitor) poll(ctx context.Context, token string) {
	slog.DebugContext(ctx, "fetching usage data")

	snapshot, err := m.fetcher.Fetch(ctx, token)
	if err != nil {
		if ctx.Err() != nil {
			return
		}

		var apiErr *usage.APIError
		if errors.As(err, &apiErr) && apiErr.AuthExpired() {
			m.emit(ctx, RefreshNeeded{})
		}

		slog.ErrorContext(ctx, "failed to fetch usage data", "error", err)
		m.emit(ctx, Error{Message: err.Error()})
		return
	}

	slog.InfoContext(ctx, "usage data received",
		"five_hour_pct", snapshot.FiveHour.Utilization,
		"seven_day_pct", snapshot.SevenDay.Utilization,
	)
	m.emit(ctx, UsageUpdated{Snapshot: snapshot})
}

func (m *Monitor) emit(ctx context.Context, ev Event) {
	select {
	case m.events <- ev:
	case <-ctx.Done():
	}
}

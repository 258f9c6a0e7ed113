package monitor

import (
	"github.com/jrdx0/claudetray/internal/credentials"
	"github.com/jrdx0/claudetray/internal/usage"
)

// Event is a message from the watcher to its consumer. Usage updates, refresh
// requests and errors originate in the polling loop; login and refresh
// completions are injected by the session owner via Notify so the consumer
// sees a single ordered stream.
type Event interface {
	event()
}

// UsageUpdated carries a fresh usage snapshot.
type UsageUpdated struct {
	Snapshot *usage.Snapshot
}

// RefreshNeeded signals that the access token has expired and the owner
// should run the refresh sequence, then inject the new token via SetToken.
type RefreshNeeded struct{}

// LoginCompleted carries the credential pair produced by a login flow.
type LoginCompleted struct {
	Credentials credentials.Credentials
}

// RefreshCompleted carries the credential pair produced by a token refresh.
type RefreshCompleted struct {
	Credentials credentials.Credentials
}

// Error carries a human-readable failure message. Errors never terminate the
// polling loop.
type Error struct {
	Message string
}

func (UsageUpdated) event()     {}
func (RefreshNeeded) event()    {}
func (LoginCompleted) event()   {}
func (RefreshCompleted) event() {}
func (Error) event()            {}

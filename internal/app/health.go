package app

import (
	"sync/atomic"

	"github.com/jrdx0/claudetray/internal/statusapi"
)

// Health tracks readiness for the status server probes. The application is
// ready once the first usage snapshot has been fetched. All methods are
// thread-safe.
type Health struct {
	ready atomic.Bool
}

var _ statusapi.ReadinessChecker = (*Health)(nil)

// NewHealth creates a Health instance initialized as not ready.
func NewHealth() *Health {
	return &Health{}
}

// SetReady updates the readiness state.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns the current readiness state.
func (h *Health) IsReady() bool {
	return h.ready.Load()
}

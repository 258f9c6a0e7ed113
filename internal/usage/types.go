package usage

// Period is one rolling rate-limit window.
type Period struct {
	// Utilization is a 0-100 percentage.
	Utilization float64 `json:"utilization"`
	// ResetsAt is the RFC 3339 timestamp at which the window rolls over.
	// Absent on some windows.
	ResetsAt *string `json:"resets_at,omitempty"`
}

// ExtraUsage describes the pay-as-you-go overflow bucket attached to a
// snapshot. Everything but the enabled flag may be absent.
type ExtraUsage struct {
	IsEnabled    bool     `json:"is_enabled"`
	MonthlyLimit *uint64  `json:"monthly_limit,omitempty"`
	UsedCredits  *uint64  `json:"used_credits,omitempty"`
	Utilization  *float64 `json:"utilization,omitempty"`
}

// Snapshot is the full payload of the usage endpoint. The five-hour and
// seven-day windows are always present; the per-model and oauth-app windows
// may be absent and their absence never fails parsing. A snapshot is consumed
// immediately by the caller; no history is retained.
type Snapshot struct {
	FiveHour          Period     `json:"five_hour"`
	SevenDay          Period     `json:"seven_day"`
	SevenDayOAuthApps *Period    `json:"seven_day_oauth_apps,omitempty"`
	SevenDayOpus      *Period    `json:"seven_day_opus,omitempty"`
	SevenDaySonnet    *Period    `json:"seven_day_sonnet,omitempty"`
	ExtraUsage        ExtraUsage `json:"extra_usage"`
}

// ErrorEnvelope is the structured error payload the provider API returns.
// The Type discriminator is always "error".
type ErrorEnvelope struct {
	Type      string      `json:"type"`
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id"`
}

// ErrorDetail is the nested error object inside an envelope.
type ErrorDetail struct {
	Type    string       `json:"type"`
	Message string       `json:"message"`
	Details ErrorContext `json:"details"`
}

// ErrorContext carries provider-side error metadata.
type ErrorContext struct {
	Visibility string `json:"error_visibility"`
}

package publishers

import (
	"encoding/json"
	"strconv"
	"time"
)

// Event describes one exchange performed by the transport client.
type Event struct {
	ExchangeID string    `json:"exchange_id"`
	Method     string    `json:"method"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorCode  *int      `json:"error_code,omitempty"`
	APIVersion string    `json:"api_version,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Message attribute names shared by every sink that supports attributes.
const (
	AttrExchangeID = "exchange_id"
	AttrMethod     = "method"
	AttrStatus     = "status"
	AttrFailed     = "failed"
	AttrAPIVersion = "api_version"
)

// NewEvent constructs an Event for the given exchange.
func NewEvent(exchangeID, method, url string) Event {
	return Event{
		ExchangeID: exchangeID,
		Method:     method,
		URL:        url,
		OccurredAt: time.Now().UTC(),
	}
}

// Failed reports whether the exchange ended in a transport-level error.
func (e Event) Failed() bool { return e.Error != "" }

// Matches reports whether a sink configured with n wants this event.
func (e Event) Matches(n Notify) bool {
	switch n {
	case NotifyFailures:
		return e.Failed()
	case NotifyErrors:
		return e.Failed() || e.StatusCode >= 400
	default:
		return true
	}
}

// Encode renders the event as the JSON message body.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Attributes returns the routing metadata attached to queue and topic messages.
func (e Event) Attributes() map[string]string {
	attrs := map[string]string{
		AttrExchangeID: e.ExchangeID,
		AttrMethod:     e.Method,
		AttrFailed:     strconv.FormatBool(e.Failed()),
	}
	if e.StatusCode > 0 {
		attrs[AttrStatus] = strconv.Itoa(e.StatusCode)
	}
	if e.APIVersion != "" {
		attrs[AttrAPIVersion] = e.APIVersion
	}
	return attrs
}

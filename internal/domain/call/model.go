package call

import (
	"time"

	"github.com/rpggio/calldesk/internal/domain/contact"
)

// Signal is what one probe says about the line.
type Signal string

const (
	SignalUnavailable Signal = "unavailable"
	SignalInactive    Signal = "inactive"
	SignalActive      Signal = "active"
)

// ActiveCall is one entry reported by the call-list probe.
type ActiveCall struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// Reading is the outcome of one probe query.
type Reading struct {
	Signal Signal `json:"signal"`
	Level  int    `json:"level,omitempty"`
	Calls  int    `json:"calls,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Decision is the reconciled view of both probes.
type Decision struct {
	Active   bool
	Conflict bool
}

// Status is returned by Reconcile.
type Status struct {
	InProgress     bool             `json:"call_in_progress"`
	Conflict       bool             `json:"conflict"`
	StateProbe     Reading          `json:"state_probe"`
	ListProbe      Reading          `json:"list_probe"`
	Tracking       bool             `json:"tracking"`
	ContactID      string           `json:"contact_id,omitempty"`
	StartedAt      *time.Time       `json:"started_at,omitempty"`
	HangUpDetected bool             `json:"hang_up_detected"`
	Duration       string           `json:"duration,omitempty"`
	Contact        *contact.Contact `json:"contact,omitempty"`
}

// StartRequest dials a contact or a raw number. PhoneNumber overrides the
// contact's stored number.
type StartRequest struct {
	ContactID   string `json:"contact_id"`
	PhoneNumber string `json:"phone_number"`
}

// StartResult describes a dialed call.
type StartResult struct {
	CallTime    time.Time        `json:"call_time"`
	PhoneNumber string           `json:"phone_number"`
	ContactID   string           `json:"contact_id,omitempty"`
	Contact     *contact.Contact `json:"contact,omitempty"`
}

// EndRequest ends a call with a client-side view of its timing.
type EndRequest struct {
	ContactID       string   `json:"contact_id"`
	CallStartTime   string   `json:"call_start_time"`
	DurationSeconds *float64 `json:"duration_seconds"`
}

// HangUpRequest hangs up the current call.
type HangUpRequest struct {
	ContactID string `json:"contact_id"`
}

// EndResult is returned by EndCall and HangUp. A device failure is reported
// here while the contact bookkeeping still happens.
type EndResult struct {
	ContactID       string           `json:"contact_id,omitempty"`
	Duration        string           `json:"duration,omitempty"`
	Seconds         int              `json:"seconds"`
	CommandSent     bool             `json:"command_sent"`
	CommandError    string           `json:"command_error,omitempty"`
	AlreadyRecorded bool             `json:"already_recorded,omitempty"`
	Contact         *contact.Contact `json:"contact,omitempty"`

	CommandErr error `json:"-"`
}

func (r *EndResult) setCommandErr(err error) {
	r.CommandErr = err
	r.CommandSent = err == nil
	if err != nil {
		r.CommandError = err.Error()
	}
}

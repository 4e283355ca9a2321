package mcp

import "github.com/rpggio/calldesk/internal/domain/call"

const defaultListLimit = 50

// ListContactsParams are the list_contacts arguments.
type ListContactsParams struct {
	Query  string `json:"query,omitempty"`
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

type GetContactParams struct {
	ID string `json:"id"`
}

type StartCallParams struct {
	ContactID   string `json:"contact_id,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type HangUpParams struct {
	ContactID string `json:"contact_id,omitempty"`
}

// CallStatusParams selects between probing the device and reading the
// tracked session only.
type CallStatusParams struct {
	Cached bool `json:"cached,omitempty"`
}

type EndCallParams struct {
	ContactID       string   `json:"contact_id"`
	CallStartTime   string   `json:"call_start_time,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
}

// DeviceStatusParams are the device_status arguments.
type DeviceStatusParams struct {
	SkipBattery bool `json:"skip_battery,omitempty"`
}

// ContactList wraps listing rows; tool results must be JSON objects.
type ContactList struct {
	Contacts []ContactSummary `json:"contacts"`
	Count    int              `json:"count"`
}

// DeviceReport is the device_status result.
type DeviceReport struct {
	Status       string                `json:"status"`
	Ready        bool                  `json:"ready"`
	Devices      []call.AttachedDevice `json:"devices"`
	BatteryLevel *int                  `json:"battery_level,omitempty"`
	BatteryError string                `json:"battery_error,omitempty"`
}

// ContactSummary is the compact listing row.
type ContactSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	Email        string `json:"email,omitempty"`
	Status       string `json:"status,omitempty"`
	InCall       bool   `json:"in_call"`
	LastCallDate string `json:"last_call_date,omitempty"`
	LastDuration string `json:"last_duration,omitempty"`
}

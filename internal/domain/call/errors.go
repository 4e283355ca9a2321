package call

import "errors"

var (
	// ErrDeviceNotFound indicates the device control channel is missing.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrDeviceTimeout indicates a device command did not finish in time.
	ErrDeviceTimeout = errors.New("device command timed out")
	// ErrDeviceCommandFailed indicates the device rejected a command.
	ErrDeviceCommandFailed = errors.New("device command failed")
	// ErrProbeUnavailable indicates a probe could not be read. Reconcile
	// degrades instead of returning it.
	ErrProbeUnavailable = errors.New("probe unavailable")
	// ErrNoPhoneNumber indicates there is nothing to dial.
	ErrNoPhoneNumber = errors.New("no phone number to dial")
	// ErrMissingContact indicates a contact id is required.
	ErrMissingContact = errors.New("contact id required")
)

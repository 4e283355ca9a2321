package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/calldesk/internal/domain/call"
	"github.com/rpggio/calldesk/internal/domain/contact"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, contact.ErrContactNotFound):
		return &APIError{Code: "CONTACT_NOT_FOUND", Message: "contact not found", RecoveryHint: "Use list_contacts to find the id"}
	case errors.Is(err, contact.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, call.ErrNoPhoneNumber):
		return &APIError{Code: "NO_PHONE_NUMBER", Message: "nothing to dial", RecoveryHint: "Pass phone_number or pick a contact with a number"}
	case errors.Is(err, call.ErrMissingContact):
		return &APIError{Code: "INVALID_INPUT", Message: "contact_id is required"}
	case errors.Is(err, call.ErrDeviceNotFound):
		return &APIError{Code: "DEVICE_NOT_FOUND", Message: "no phone connected", RecoveryHint: "Plug in the phone and authorize adb"}
	case errors.Is(err, call.ErrDeviceTimeout):
		return &APIError{Code: "DEVICE_TIMEOUT", Message: "phone did not answer in time", RecoveryHint: "Retry; check the adb connection"}
	case errors.Is(err, call.ErrDeviceCommandFailed):
		return &APIError{Code: "DEVICE_COMMAND_FAILED", Message: err.Error()}
	default:
		return nil
	}
}

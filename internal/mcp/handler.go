package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpggio/calldesk/internal/domain/call"
	"github.com/rpggio/calldesk/internal/domain/contact"
)

// ContactService defines contact operations needed by MCP.
type ContactService interface {
	Search(ctx context.Context, opts contact.SearchOptions) ([]contact.Contact, error)
	Get(ctx context.Context, id string) (*contact.Contact, error)
}

// CallService defines call operations needed by MCP.
type CallService interface {
	StartCall(ctx context.Context, req call.StartRequest) (*call.StartResult, error)
	Reconcile(ctx context.Context) (*call.Status, error)
	Status() *call.Status
	EndCall(ctx context.Context, req call.EndRequest) (*call.EndResult, error)
	HangUp(ctx context.Context, req call.HangUpRequest) (*call.EndResult, error)
}

// DeviceService reports phone health.
type DeviceService interface {
	Status(ctx context.Context) (*call.DeviceStatus, error)
	Battery(ctx context.Context) (*call.BatteryStatus, error)
}

// Handler dispatches MCP commands.
type Handler struct {
	contacts ContactService
	calls    CallService
	device   DeviceService
}

// NewHandler creates a new MCP handler. device may be nil, in which case
// device_status reports no device.
func NewHandler(contacts ContactService, calls CallService, device DeviceService) *Handler {
	return &Handler{contacts: contacts, calls: calls, device: device}
}

// Handle dispatches MCP requests to domain services.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "list_contacts":
		var req ListContactsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		limit := req.Limit
		if limit <= 0 {
			limit = defaultListLimit
		}
		contacts, err := h.contacts.Search(ctx, contact.SearchOptions{
			Query:  req.Query,
			Status: req.Status,
			Limit:  limit,
			Offset: req.Offset,
		})
		if err != nil {
			return nil, mapError(err)
		}
		resp := ContactList{Contacts: make([]ContactSummary, 0, len(contacts))}
		for _, c := range contacts {
			resp.Contacts = append(resp.Contacts, summarize(c))
		}
		resp.Count = len(resp.Contacts)
		return resp, nil
	case "get_contact":
		var req GetContactParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.ID == "" {
			return nil, &APIError{Code: "INVALID_INPUT", Message: "id is required"}
		}
		c, err := h.contacts.Get(ctx, req.ID)
		if err != nil {
			return nil, mapError(err)
		}
		return c, nil
	case "start_call":
		var req StartCallParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		res, err := h.calls.StartCall(ctx, call.StartRequest{
			ContactID:   req.ContactID,
			PhoneNumber: req.PhoneNumber,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return res, nil
	case "hang_up":
		var req HangUpParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		res, err := h.calls.HangUp(ctx, call.HangUpRequest{ContactID: req.ContactID})
		if err != nil {
			return nil, mapError(err)
		}
		return res, nil
	case "call_status":
		var req CallStatusParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.Cached {
			return h.calls.Status(), nil
		}
		status, err := h.calls.Reconcile(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return status, nil
	case "end_call":
		var req EndCallParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		res, err := h.calls.EndCall(ctx, call.EndRequest{
			ContactID:       req.ContactID,
			CallStartTime:   req.CallStartTime,
			DurationSeconds: req.DurationSeconds,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return res, nil
	case "device_status":
		var req DeviceStatusParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.deviceStatus(ctx, req)
	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

// deviceStatus lists attached devices and, when one is ready, its battery
// level. A battery read failure is reported in the result.
func (h *Handler) deviceStatus(ctx context.Context, req DeviceStatusParams) (*DeviceReport, error) {
	if h.device == nil {
		return nil, mapError(call.ErrDeviceNotFound)
	}
	status, err := h.device.Status(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	report := &DeviceReport{Status: status.Status, Devices: status.Devices, Ready: status.Ready()}
	if req.SkipBattery || !report.Ready {
		return report, nil
	}
	battery, err := h.device.Battery(ctx)
	if err != nil {
		report.BatteryError = err.Error()
		return report, nil
	}
	report.BatteryLevel = &battery.Level
	return report, nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return &APIError{Code: "INVALID_INPUT", Message: fmt.Sprintf("invalid arguments: %v", err)}
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

func summarize(c contact.Contact) ContactSummary {
	return ContactSummary{
		ID:           c.ID,
		Name:         c.FirstName + " " + c.LastName,
		PhoneNumber:  stringValue(c.PhoneNumber),
		Email:        stringValue(c.Email),
		Status:       c.Status,
		InCall:       c.InCall,
		LastCallDate: stringValue(c.CallDate),
		LastDuration: stringValue(c.CallDuration),
	}
}

func stringValue(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}

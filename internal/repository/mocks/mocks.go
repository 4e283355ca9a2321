package mocks

import (
	"context"

	"github.com/rpggio/calldesk/internal/domain/call"
	"github.com/rpggio/calldesk/internal/domain/contact"
	"github.com/stretchr/testify/mock"
)

// ContactRepository is a mock for contact.Repository.
type ContactRepository struct {
	mock.Mock
}

func (m *ContactRepository) List(ctx context.Context) ([]contact.Contact, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]contact.Contact); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContactRepository) Get(ctx context.Context, id string) (*contact.Contact, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*contact.Contact); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContactRepository) FindByEmail(ctx context.Context, email string) (*contact.Contact, error) {
	args := m.Called(ctx, email)
	if c, ok := args.Get(0).(*contact.Contact); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContactRepository) FindByName(ctx context.Context, firstName, lastName string) (*contact.Contact, error) {
	args := m.Called(ctx, firstName, lastName)
	if c, ok := args.Get(0).(*contact.Contact); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContactRepository) Create(ctx context.Context, c *contact.Contact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ContactRepository) Update(ctx context.Context, c *contact.Contact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ContactRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ContactRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *ContactRepository) ReplaceAll(ctx context.Context, contacts []contact.Contact) error {
	args := m.Called(ctx, contacts)
	return args.Error(0)
}

// Device is a mock for call.Device.
type Device struct {
	mock.Mock
}

func (m *Device) Dial(ctx context.Context, number string) error {
	args := m.Called(ctx, number)
	return args.Error(0)
}

func (m *Device) EndCall(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// CallStateProbe is a mock for call.CallStateProbe.
type CallStateProbe struct {
	mock.Mock
}

func (m *CallStateProbe) CallState(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// CallListProbe is a mock for call.CallListProbe.
type CallListProbe struct {
	mock.Mock
}

func (m *CallListProbe) ActiveCalls(ctx context.Context) ([]call.ActiveCall, error) {
	args := m.Called(ctx)
	if calls, ok := args.Get(0).([]call.ActiveCall); ok {
		return calls, args.Error(1)
	}
	return nil, args.Error(1)
}

// ContactBook is a mock for call.ContactBook.
type ContactBook struct {
	mock.Mock
}

func (m *ContactBook) Get(ctx context.Context, id string) (*contact.Contact, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*contact.Contact); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ContactBook) Update(ctx context.Context, id string, patch contact.Patch) (*contact.Contact, error) {
	args := m.Called(ctx, id, patch)
	if c, ok := args.Get(0).(*contact.Contact); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// DeviceInspector is a mock for call.DeviceInspector.
type DeviceInspector struct {
	mock.Mock
}

func (m *DeviceInspector) Devices(ctx context.Context) ([]call.AttachedDevice, error) {
	args := m.Called(ctx)
	if devices, ok := args.Get(0).([]call.AttachedDevice); ok {
		return devices, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DeviceInspector) Battery(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

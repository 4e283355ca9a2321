package call

import (
	"context"
	"time"
)

// DeviceReady is the adb state of an attached, authorized device.
const DeviceReady = "device"

// Device status values.
const (
	DeviceStatusOK       = "success"
	DeviceStatusNoDevice = "no_device_detected"
)

// AttachedDevice is one row of the device list.
type AttachedDevice struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// DeviceInspector reports what is attached to the control channel.
type DeviceInspector interface {
	Devices(ctx context.Context) ([]AttachedDevice, error)
	Battery(ctx context.Context) (int, error)
}

// DeviceStatus summarizes the attached devices.
type DeviceStatus struct {
	Status  string           `json:"status"`
	Devices []AttachedDevice `json:"devices"`
}

// Ready reports whether at least one device accepts commands.
func (s *DeviceStatus) Ready() bool {
	for _, d := range s.Devices {
		if d.Status == DeviceReady {
			return true
		}
	}
	return false
}

// BatteryStatus is the phone's charge level in percent.
type BatteryStatus struct {
	Status string `json:"status"`
	Level  int    `json:"level"`
}

// Inspector queries device health with a bounded wait.
type Inspector struct {
	source  DeviceInspector
	timeout time.Duration
}

// NewInspector creates an inspector. A non-positive timeout means 3s.
func NewInspector(source DeviceInspector, timeout time.Duration) *Inspector {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Inspector{source: source, timeout: timeout}
}

// Status lists attached devices.
func (i *Inspector) Status(ctx context.Context) (*DeviceStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	devices, err := i.source.Devices(ctx)
	if err != nil {
		return nil, err
	}
	status := &DeviceStatus{Status: DeviceStatusOK, Devices: devices}
	if len(devices) == 0 {
		status.Status = DeviceStatusNoDevice
		status.Devices = []AttachedDevice{}
	}
	return status, nil
}

// Battery reads the charge level.
func (i *Inspector) Battery(ctx context.Context) (*BatteryStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	level, err := i.source.Battery(ctx)
	if err != nil {
		return nil, err
	}
	return &BatteryStatus{Status: DeviceStatusOK, Level: level}, nil
}

// Package adb drives an Android phone over the adb command-line tool. It
// implements the call-control device, both call probes and the device
// inspector.
package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/rpggio/calldesk/internal/domain/call"
	"github.com/rpggio/calldesk/internal/phonenum"
	"go.uber.org/zap"
)

// Runner executes adb with the given arguments and returns combined output.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner runs a real adb binary.
type ExecRunner struct {
	Path string
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	path := r.Path
	if path == "" {
		path = "adb"
	}
	cmd := exec.CommandContext(ctx, path, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Client talks to one device.
type Client struct {
	runner Runner
	serial string
	logger *zap.Logger
}

// New creates a client. serial selects a device when several are attached.
func New(runner Runner, serial string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{runner: runner, serial: serial, logger: logger}
}

// Dial places a call to number.
func (c *Client) Dial(ctx context.Context, number string) error {
	digits := phonenum.Digits(number)
	if strings.TrimPrefix(digits, "+") == "" {
		return fmt.Errorf("%w: invalid number %q", call.ErrDeviceCommandFailed, number)
	}
	out, err := c.shell(ctx, "am", "start", "-a", "android.intent.action.CALL", "-d", "tel:"+digits)
	if err != nil {
		return err
	}
	// am reports failures on a zero exit status.
	if bytes.Contains(out, []byte("Error:")) {
		return fmt.Errorf("%w: %s", call.ErrDeviceCommandFailed, strings.TrimSpace(string(out)))
	}
	c.logger.Debug("dial sent", zap.String("number", digits))
	return nil
}

// EndCall sends the end-call key event.
func (c *Client) EndCall(ctx context.Context) error {
	_, err := c.shell(ctx, "input", "keyevent", "KEYCODE_ENDCALL")
	if err == nil {
		c.logger.Debug("end-call sent")
	}
	return err
}

var callStateRe = regexp.MustCompile(`mCallState=(\d+)`)

// CallState returns the highest mCallState reported by the telephony
// registry, one entry per subscription.
func (c *Client) CallState(ctx context.Context) (int, error) {
	out, err := c.shell(ctx, "dumpsys", "telephony.registry")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", call.ErrProbeUnavailable, err)
	}
	return parseCallState(out)
}

func parseCallState(out []byte) (int, error) {
	matches := callStateRe.FindAllSubmatch(out, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: no mCallState in telephony registry", call.ErrProbeUnavailable)
	}
	level := 0
	for _, m := range matches {
		v, err := strconv.Atoi(string(m[1]))
		if err != nil {
			continue
		}
		if v > level {
			level = v
		}
	}
	return level, nil
}

var (
	callLineRe  = regexp.MustCompile(`\bCall\s+(?:id=)?(TC@\d+)`)
	callStateKw = regexp.MustCompile(`(?i)\bstate[=:]\s*(ACTIVE|DIALING|RINGING|CONNECTING|ON_HOLD|PULLING|NEW|SELECT_PHONE_ACCOUNT|AUDIO_PROCESSING|SIMULATED_RINGING)\b`)
)

// ActiveCalls lists live calls from the telecom service dump.
func (c *Client) ActiveCalls(ctx context.Context) ([]call.ActiveCall, error) {
	out, err := c.shell(ctx, "dumpsys", "telecom")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", call.ErrProbeUnavailable, err)
	}
	return parseActiveCalls(out), nil
}

// parseActiveCalls keeps calls whose state is live. The dump repeats a call
// across sections, so calls are deduplicated by id.
func parseActiveCalls(out []byte) []call.ActiveCall {
	calls := make([]call.ActiveCall, 0)
	seen := make(map[string]bool)
	for _, line := range strings.Split(string(out), "\n") {
		idMatch := callLineRe.FindStringSubmatch(line)
		if idMatch == nil {
			continue
		}
		stateMatch := callStateKw.FindStringSubmatch(line)
		if stateMatch == nil {
			continue
		}
		id := idMatch[1]
		if seen[id] {
			continue
		}
		seen[id] = true
		calls = append(calls, call.ActiveCall{ID: id, State: strings.ToUpper(stateMatch[1])})
	}
	return calls
}

// Devices lists attached devices and their adb state. The device serial is
// ignored so every attached phone shows up.
func (c *Client) Devices(ctx context.Context) ([]call.AttachedDevice, error) {
	out, err := c.runner.Run(ctx, "devices")
	if err != nil {
		return nil, classify(ctx, out, err)
	}
	return parseDevices(out), nil
}

// parseDevices reads "serial<TAB>state" rows, skipping the header and
// daemon notices.
func parseDevices(out []byte) []call.AttachedDevice {
	devices := make([]call.AttachedDevice, 0)
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, "list of devices attached") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != 2 {
			continue
		}
		id := strings.TrimSpace(parts[0])
		if id == "" {
			continue
		}
		devices = append(devices, call.AttachedDevice{ID: id, Status: strings.TrimSpace(parts[1])})
	}
	return devices
}

var batteryLevelRe = regexp.MustCompile(`(?m)^\s*level:\s*(\d+)\s*$`)

// Battery returns the charge level in percent.
func (c *Client) Battery(ctx context.Context) (int, error) {
	out, err := c.shell(ctx, "dumpsys", "battery")
	if err != nil {
		return 0, err
	}
	return parseBattery(out)
}

func parseBattery(out []byte) (int, error) {
	m := batteryLevelRe.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("%w: no battery level in dumpsys output", call.ErrDeviceCommandFailed)
	}
	level, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, fmt.Errorf("%w: battery level %q: %w", call.ErrDeviceCommandFailed, m[1], err)
	}
	return level, nil
}

func (c *Client) shell(ctx context.Context, args ...string) ([]byte, error) {
	full := make([]string, 0, len(args)+3)
	if c.serial != "" {
		full = append(full, "-s", c.serial)
	}
	full = append(full, "shell")
	full = append(full, args...)

	out, err := c.runner.Run(ctx, full...)
	if err != nil {
		return out, classify(ctx, out, err)
	}
	if isMissingDevice(out) {
		return out, fmt.Errorf("%w: %s", call.ErrDeviceNotFound, strings.TrimSpace(string(out)))
	}
	return out, nil
}

func classify(ctx context.Context, out []byte, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", call.ErrDeviceTimeout, err)
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("%w: adb binary not found: %w", call.ErrDeviceNotFound, err)
	case isMissingDevice(out):
		return fmt.Errorf("%w: %s", call.ErrDeviceNotFound, strings.TrimSpace(string(out)))
	}
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		msg = err.Error()
	}
	return fmt.Errorf("%w: %s", call.ErrDeviceCommandFailed, msg)
}

func isMissingDevice(out []byte) bool {
	s := string(out)
	return strings.Contains(s, "no devices/emulators found") ||
		strings.Contains(s, "device offline") ||
		strings.Contains(s, "device unauthorized") ||
		(strings.Contains(s, "device '") && strings.Contains(s, "' not found"))
}

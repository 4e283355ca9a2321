package call

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/calldesk/internal/domain/contact"
	"github.com/rpggio/calldesk/internal/phonenum"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options tunes the tracker.
type Options struct {
	ProbeTimeout   time.Duration
	CommandTimeout time.Duration
	VerifyHangUp   bool
	HangUpBackoff  time.Duration
	Location       *time.Location
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 3 * time.Second
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = 10 * time.Second
	}
	if o.HangUpBackoff < 0 {
		o.HangUpBackoff = 0
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Tracker decides whether a call is in progress and records call outcomes
// on contacts.
type Tracker struct {
	session    *Session
	device     Device
	stateProbe CallStateProbe
	listProbe  CallListProbe
	contacts   ContactBook
	opts       Options
	logger     *zap.Logger
}

// NewTracker creates a tracker. Either probe may be nil, in which case it
// always reads as unavailable.
func NewTracker(
	session *Session,
	device Device,
	stateProbe CallStateProbe,
	listProbe CallListProbe,
	contacts ContactBook,
	opts Options,
	logger *zap.Logger,
) *Tracker {
	if session == nil {
		session = NewSession()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		session:    session,
		device:     device,
		stateProbe: stateProbe,
		listProbe:  listProbe,
		contacts:   contacts,
		opts:       opts.withDefaults(),
		logger:     logger,
	}
}

// Session exposes the tracked session.
func (t *Tracker) Session() *Session {
	return t.session
}

// StartCall dials and, when a contact is given, starts tracking it. A failed
// dial changes nothing.
func (t *Tracker) StartCall(ctx context.Context, req StartRequest) (*StartResult, error) {
	var target *contact.Contact
	number := strings.TrimSpace(req.PhoneNumber)
	if req.ContactID != "" {
		c, err := t.contacts.Get(ctx, req.ContactID)
		if err != nil {
			return nil, fmt.Errorf("loading contact: %w", err)
		}
		target = c
		if number == "" && c.PhoneNumber != nil {
			number = *c.PhoneNumber
		}
	}
	if number == "" {
		return nil, ErrNoPhoneNumber
	}

	dialed := phonenum.Digits(phonenum.Normalize(number))
	if err := t.command(ctx, func(ctx context.Context) error { return t.device.Dial(ctx, dialed) }); err != nil {
		t.logger.Warn("dial failed", zap.String("contact_id", req.ContactID), zap.Error(err))
		return nil, fmt.Errorf("dialing: %w", err)
	}

	startedAt := t.opts.Now().UTC()
	result := &StartResult{CallTime: startedAt, PhoneNumber: dialed}
	if target == nil {
		t.logger.Info("call started", zap.String("phone_number", dialed))
		return result, nil
	}

	// The contact is written before tracking begins so a failed write leaves
	// the session untouched.
	updated, err := t.contacts.Update(ctx, target.ID, contact.Patch{
		InCall:        contact.Set(true),
		CallStartTime: contact.Set(FormatISO(startedAt)),
		CallDuration:  contact.Clear[string](),
		CallDate:      contact.Clear[string](),
		CallTime:      contact.Clear[string](),
	})
	if err != nil {
		t.logger.Warn("call start not recorded", zap.String("contact_id", target.ID), zap.Error(err))
		return nil, fmt.Errorf("recording call start: %w", err)
	}

	_, previous := t.session.Begin(target.ID, startedAt)
	if previous.Tracking() && previous.ContactID != target.ID {
		t.logger.Warn("replacing tracked call", zap.String("previous_contact_id", previous.ContactID))
	}
	t.logger.Info("call started", zap.String("contact_id", target.ID), zap.String("phone_number", dialed))

	result.ContactID = target.ID
	result.Contact = updated
	return result, nil
}

// Reconcile reads both probes and, if a tracked call turned out to be over,
// records it as a manual hang-up.
func (t *Tracker) Reconcile(ctx context.Context) (*Status, error) {
	before := t.session.Snapshot()
	state, list := t.probe(ctx)
	decision := Resolve(state.Signal, list.Signal)

	status := &Status{
		InProgress: decision.Active,
		Conflict:   decision.Conflict,
		StateProbe: state,
		ListProbe:  list,
	}
	if decision.Conflict {
		t.logger.Warn("probes disagree, trusting call state", zap.Int("listed_calls", list.Calls))
	}

	if decision.Active || !before.Tracking() {
		status.fillSession(t.session.Snapshot())
		return status, nil
	}

	cleared, ok := t.session.ClearIf(before.Epoch)
	if !ok {
		status.fillSession(t.session.Snapshot())
		return status, nil
	}

	endedAt := t.opts.Now()
	duration := FormatDuration(Elapsed(cleared.StartedAt, endedAt))
	status.HangUpDetected = true
	status.ContactID = cleared.ContactID
	status.Duration = duration
	t.logger.Info("manual hang-up detected", zap.String("contact_id", cleared.ContactID), zap.String("duration", duration))

	updated, err := t.recordEnd(ctx, cleared.ContactID, duration, endedAt)
	if errors.Is(err, contact.ErrContactNotFound) {
		t.logger.Warn("tracked contact no longer exists", zap.String("contact_id", cleared.ContactID))
		return status, nil
	}
	if err != nil {
		return status, fmt.Errorf("recording manual hang-up: %w", err)
	}
	status.Contact = updated
	return status, nil
}

// Status reports the tracked session without probing the device.
func (t *Tracker) Status() *Status {
	status := &Status{}
	status.fillSession(t.session.Snapshot())
	return status
}

// EndCall sends the end-call signal and records the duration the client
// measured. Only the duration is written; the in-call flag is left as is.
func (t *Tracker) EndCall(ctx context.Context, req EndRequest) (*EndResult, error) {
	if req.ContactID == "" {
		return nil, ErrMissingContact
	}
	endedAt := t.opts.Now()

	result := &EndResult{ContactID: req.ContactID}
	result.setCommandErr(t.command(ctx, t.device.EndCall))
	if result.CommandErr != nil {
		t.logger.Warn("end-call command failed", zap.String("contact_id", req.ContactID), zap.Error(result.CommandErr))
	}

	seconds, ok := SecondsFromClient(req.DurationSeconds)
	if !ok {
		if start, err := ParseISO(req.CallStartTime); err == nil {
			seconds = Elapsed(start, endedAt)
		}
	}
	result.Seconds = seconds
	result.Duration = FormatDuration(seconds)

	updated, err := t.contacts.Update(ctx, req.ContactID, contact.Patch{
		CallDuration: contact.Set(result.Duration),
	})
	if err != nil {
		return nil, fmt.Errorf("recording call duration: %w", err)
	}
	result.Contact = updated
	return result, nil
}

// HangUp ends the current call from the operator side. The tracked contact
// takes precedence over req.ContactID.
func (t *Tracker) HangUp(ctx context.Context, req HangUpRequest) (*EndResult, error) {
	endedAt := t.opts.Now()
	snap := t.session.Snapshot()

	effectiveID := req.ContactID
	if snap.Tracking() {
		effectiveID = snap.ContactID
	}

	result := &EndResult{ContactID: effectiveID}
	cmdErr := t.command(ctx, t.device.EndCall)
	if errors.Is(cmdErr, ErrDeviceTimeout) {
		t.logger.Warn("hang-up timed out, retrying", zap.Error(cmdErr))
		cmdErr = t.command(ctx, t.device.EndCall)
	}
	if cmdErr == nil && t.opts.VerifyHangUp {
		cmdErr = t.verifyHangUp(ctx)
	}
	result.setCommandErr(cmdErr)
	if cmdErr != nil {
		t.logger.Warn("hang-up command failed", zap.String("contact_id", effectiveID), zap.Error(cmdErr))
	}

	if effectiveID == "" {
		return result, nil
	}

	var start time.Time
	if snap.Tracking() {
		if _, ok := t.session.ClearIf(snap.Epoch); !ok && !t.session.Snapshot().Tracking() {
			// Reconcile saw the line drop first and already recorded the call.
			result.AlreadyRecorded = true
			return result, nil
		}
		start = snap.StartedAt
	} else {
		start = t.storedStart(ctx, effectiveID)
	}

	result.Duration = contact.DurationNotApplicable
	if !start.IsZero() {
		result.Seconds = Elapsed(start, endedAt)
		result.Duration = FormatDuration(result.Seconds)
	}

	updated, err := t.recordEnd(ctx, effectiveID, result.Duration, endedAt)
	if err != nil {
		return nil, fmt.Errorf("recording hang-up: %w", err)
	}
	result.Contact = updated
	t.logger.Info("call hung up", zap.String("contact_id", effectiveID), zap.String("duration", result.Duration))
	return result, nil
}

// storedStart falls back to the start time persisted on a contact that is
// still flagged in call, e.g. after a restart dropped the session.
func (t *Tracker) storedStart(ctx context.Context, contactID string) time.Time {
	c, err := t.contacts.Get(ctx, contactID)
	if err != nil || !c.InCall || c.CallStartTime == nil {
		return time.Time{}
	}
	start, err := ParseISO(*c.CallStartTime)
	if err != nil {
		return time.Time{}
	}
	return start
}

func (t *Tracker) verifyHangUp(ctx context.Context) error {
	if t.stateProbe == nil {
		return nil
	}
	if t.readState(ctx).Signal != SignalActive {
		return nil
	}

	t.logger.Debug("line still active after hang-up, retrying", zap.Duration("backoff", t.opts.HangUpBackoff))
	timer := time.NewTimer(t.opts.HangUpBackoff)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil
	}
	return t.command(ctx, t.device.EndCall)
}

func (t *Tracker) recordEnd(ctx context.Context, contactID, duration string, endedAt time.Time) (*contact.Contact, error) {
	date, clock := LocalTimeOf(endedAt, t.opts.Location)
	return t.contacts.Update(ctx, contactID, contact.Patch{
		InCall:       contact.Set(false),
		CallDuration: contact.Set(duration),
		CallDate:     contact.Set(date),
		CallTime:     contact.Set(clock),
	})
}

// command runs a device command with its own deadline. Cancelling ctx does
// not abort a command that was already issued.
func (t *Tracker) command(ctx context.Context, fn func(context.Context) error) error {
	cmdCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.opts.CommandTimeout)
	defer cancel()

	err := fn(cmdCtx)
	if err != nil && errors.Is(cmdCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrDeviceTimeout) {
		return fmt.Errorf("%w: %w", ErrDeviceTimeout, err)
	}
	return err
}

func (t *Tracker) probe(ctx context.Context) (state, list Reading) {
	var g errgroup.Group
	g.Go(func() error {
		state = t.readState(ctx)
		return nil
	})
	g.Go(func() error {
		list = t.readList(ctx)
		return nil
	})
	_ = g.Wait()
	return state, list
}

func (t *Tracker) readState(ctx context.Context) Reading {
	if t.stateProbe == nil {
		return Reading{Signal: SignalUnavailable}
	}
	ctx, cancel := context.WithTimeout(ctx, t.opts.ProbeTimeout)
	defer cancel()

	level, err := t.stateProbe.CallState(ctx)
	if err != nil {
		t.logger.Debug("call-state probe unavailable", zap.Error(err))
		return Reading{Signal: SignalUnavailable, Error: err.Error()}
	}
	if level > 0 {
		return Reading{Signal: SignalActive, Level: level}
	}
	return Reading{Signal: SignalInactive, Level: level}
}

func (t *Tracker) readList(ctx context.Context) Reading {
	if t.listProbe == nil {
		return Reading{Signal: SignalUnavailable}
	}
	ctx, cancel := context.WithTimeout(ctx, t.opts.ProbeTimeout)
	defer cancel()

	calls, err := t.listProbe.ActiveCalls(ctx)
	if err != nil {
		t.logger.Debug("call-list probe unavailable", zap.Error(err))
		return Reading{Signal: SignalUnavailable, Error: err.Error()}
	}
	if len(calls) > 0 {
		return Reading{Signal: SignalActive, Calls: len(calls)}
	}
	return Reading{Signal: SignalInactive}
}

func (s *Status) fillSession(snap Snapshot) {
	s.Tracking = snap.Tracking()
	if !s.Tracking {
		return
	}
	s.ContactID = snap.ContactID
	started := snap.StartedAt
	s.StartedAt = &started
}

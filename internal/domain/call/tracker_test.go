package call_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/calldesk/internal/domain/call"
	"github.com/rpggio/calldesk/internal/domain/contact"
	"github.com/rpggio/calldesk/internal/repository/mocks"
	"github.com/rpggio/calldesk/internal/sqlite"
	"github.com/rpggio/calldesk/internal/sqlite/sqlitetest"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	tracker  *call.Tracker
	contacts *contact.Service
	device   *mocks.Device
	state    *mocks.CallStateProbe
	list     *mocks.CallListProbe
	clock    *fakeClock
}

func newFixture(t *testing.T, opts call.Options) *fixture {
	t.Helper()
	db := sqlitetest.NewDB(t)
	f := &fixture{
		contacts: contact.NewService(sqlite.NewContactRepository(db), nil),
		device:   &mocks.Device{},
		state:    &mocks.CallStateProbe{},
		list:     &mocks.CallListProbe{},
		clock:    &fakeClock{now: t0},
	}
	paris, err := call.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	opts.Location = paris
	opts.Now = f.clock.Now
	f.tracker = call.NewTracker(call.NewSession(), f.device, f.state, f.list, f.contacts, opts, nil)
	return f
}

func (f *fixture) addContact(t *testing.T, phone string) *contact.Contact {
	t.Helper()
	c, err := f.contacts.Create(context.Background(), contact.CreateRequest{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		PhoneNumber: &phone,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) startCall(t *testing.T, contactID string) {
	t.Helper()
	f.device.On("Dial", mock.Anything, "+33612345678").Return(nil).Once()
	_, err := f.tracker.StartCall(context.Background(), call.StartRequest{ContactID: contactID})
	require.NoError(t, err)
}

func (f *fixture) probes(level int, stateErr error, calls []call.ActiveCall, listErr error) {
	f.state.On("CallState", mock.Anything).Return(level, stateErr)
	f.list.On("ActiveCalls", mock.Anything).Return(calls, listErr)
}

func TestTracker_StartCall(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c := f.addContact(t, "06 12 34 56 78")

	_, err := f.contacts.Update(ctx, c.ID, contact.Patch{
		CallDuration: contact.Set("03:00"),
		CallDate:     contact.Set("01/01/2025"),
	})
	require.NoError(t, err)

	f.device.On("Dial", mock.Anything, "+33612345678").Return(nil).Once()
	res, err := f.tracker.StartCall(ctx, call.StartRequest{ContactID: c.ID})
	require.NoError(t, err)
	require.Equal(t, t0, res.CallTime)
	require.Equal(t, c.ID, res.ContactID)

	snap := f.tracker.Session().Snapshot()
	require.Equal(t, c.ID, snap.ContactID)
	require.Equal(t, t0, snap.StartedAt)

	got, err := f.contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, got.InCall)
	require.Equal(t, "2025-03-10T09:00:00.000Z", *got.CallStartTime)
	require.Nil(t, got.CallDuration)
	require.Nil(t, got.CallDate)
	require.Nil(t, got.CallTime)
	f.device.AssertExpectations(t)
}

func TestTracker_StartCall_DialFailureChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c := f.addContact(t, "0612345678")

	f.device.On("Dial", mock.Anything, "+33612345678").Return(call.ErrDeviceCommandFailed)
	_, err := f.tracker.StartCall(ctx, call.StartRequest{ContactID: c.ID})
	require.ErrorIs(t, err, call.ErrDeviceCommandFailed)

	require.False(t, f.tracker.Session().Snapshot().Tracking())
	got, err := f.contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	require.False(t, got.InCall)
	require.Nil(t, got.CallStartTime)
}

func TestTracker_StartCall_NoNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c, err := f.contacts.Create(ctx, contact.CreateRequest{FirstName: "No", LastName: "Phone"})
	require.NoError(t, err)

	_, err = f.tracker.StartCall(ctx, call.StartRequest{ContactID: c.ID})
	require.ErrorIs(t, err, call.ErrNoPhoneNumber)
	f.device.AssertNotCalled(t, "Dial", mock.Anything, mock.Anything)
}

func TestTracker_StartCall_UnknownContact(t *testing.T) {
	f := newFixture(t, call.Options{})
	_, err := f.tracker.StartCall(context.Background(), call.StartRequest{ContactID: "missing"})
	require.ErrorIs(t, err, contact.ErrContactNotFound)
}

func TestTracker_StartCall_RawNumberIsNotTracked(t *testing.T) {
	f := newFixture(t, call.Options{})
	f.device.On("Dial", mock.Anything, "+442079460958").Return(nil)

	res, err := f.tracker.StartCall(context.Background(), call.StartRequest{PhoneNumber: "+44 20 7946 0958"})
	require.NoError(t, err)
	require.Empty(t, res.ContactID)
	require.False(t, f.tracker.Session().Snapshot().Tracking())
}

func TestTracker_Reconcile_ActiveKeepsTracking(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c := f.addContact(t, "0612345678")
	f.startCall(t, c.ID)

	f.probes(2, nil, []call.ActiveCall{{ID: "TC@1", State: "ACTIVE"}}, nil)
	f.clock.Advance(30 * time.Second)

	status, err := f.tracker.Reconcile(ctx)
	require.NoError(t, err)
	require.True(t, status.InProgress)
	require.False(t, status.HangUpDetected)
	require.True(t, status.Tracking)
	require.Equal(t, c.ID, status.ContactID)

	got, err := f.contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, got.InCall)
}

func TestTracker_Reconcile_ManualHangUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c := f.addContact(t, "0612345678")
	f.startCall(t, c.ID)

	f.probes(0, nil, []call.ActiveCall{}, nil)
	f.clock.Advance(65 * time.Second)

	status, err := f.tracker.Reconcile(ctx)
	require.NoError(t, err)
	require.False(t, status.InProgress)
	require.True(t, status.HangUpDetected)
	require.Equal(t, "01:05", status.Duration)
	require.False(t, f.tracker.Session().Snapshot().Tracking())

	got, err := f.contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	require.False(t, got.InCall)
	require.Equal(t, "01:05", *got.CallDuration)
	require.Equal(t, "10/03/2025", *got.CallDate)
	require.Equal(t, "10:01:05", *got.CallTime)

	// A second pass finds nothing to record.
	status, err = f.tracker.Reconcile(ctx)
	require.NoError(t, err)
	require.False(t, status.HangUpDetected)
	require.False(t, status.Tracking)
}

func TestTracker_Reconcile_Conflict(t *testing.T) {
	f := newFixture(t, call.Options{})
	f.probes(0, nil, []call.ActiveCall{{ID: "TC@3", State: "ACTIVE"}}, nil)

	status, err := f.tracker.Reconcile(context.Background())
	require.NoError(t, err)
	require.False(t, status.InProgress)
	require.True(t, status.Conflict)
	require.Equal(t, call.SignalInactive, status.StateProbe.Signal)
	require.Equal(t, call.SignalActive, status.ListProbe.Signal)
}

func TestTracker_Reconcile_DegradesOnProbeFailure(t *testing.T) {
	f := newFixture(t, call.Options{})
	f.probes(0, errors.New("dumpsys failed"), []call.ActiveCall{{ID: "TC@1", State: "DIALING"}}, nil)

	status, err := f.tracker.Reconcile(context.Background())
	require.NoError(t, err)
	require.True(t, status.InProgress)
	require.Equal(t, call.SignalUnavailable, status.StateProbe.Signal)
	require.NotEmpty(t, status.StateProbe.Error)
}

func TestTracker_Reconcile_BothUnavailableEndsTrackedCall(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c := f.addContact(t, "0612345678")
	f.startCall(t, c.ID)

	f.probes(0, call.ErrDeviceNotFound, nil, call.ErrDeviceNotFound)
	f.clock.Advance(10 * time.Second)

	status, err := f.tracker.Reconcile(ctx)
	require.NoError(t, err)
	require.False(t, status.InProgress)
	require.True(t, status.HangUpDetected)
	require.Equal(t, "00:10", status.Duration)
}

func TestTracker_Reconcile_ProbeTimeoutIsUnavailable(t *testing.T) {
	f := newFixture(t, call.Options{ProbeTimeout: 20 * time.Millisecond})
	f.state.On("CallState", mock.Anything).Return(0, context.DeadlineExceeded).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	})
	f.list.On("ActiveCalls", mock.Anything).Return([]call.ActiveCall{{ID: "TC@1", State: "ACTIVE"}}, nil)

	status, err := f.tracker.Reconcile(context.Background())
	require.NoError(t, err)
	require.Equal(t, call.SignalUnavailable, status.StateProbe.Signal)
	require.True(t, status.InProgress)
}

func TestTracker_EndCall(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c := f.addContact(t, "0612345678")
	f.startCall(t, c.ID)
	f.device.On("EndCall", mock.Anything).Return(nil)

	measured := 42.0
	res, err := f.tracker.EndCall(ctx, call.EndRequest{ContactID: c.ID, DurationSeconds: &measured})
	require.NoError(t, err)
	require.True(t, res.CommandSent)
	require.Equal(t, "00:42", res.Duration)

	got, err := f.contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "00:42", *got.CallDuration)
	// EndCall only writes the duration.
	require.True(t, got.InCall)
	require.Nil(t, got.CallDate)
}

func TestTracker_EndCall_DurationFallbacks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c := f.addContact(t, "0612345678")
	f.device.On("EndCall", mock.Anything).Return(nil)

	negative := -3.0
	res, err := f.tracker.EndCall(ctx, call.EndRequest{
		ContactID:       c.ID,
		CallStartTime:   call.FormatISO(t0.Add(-90 * time.Second)),
		DurationSeconds: &negative,
	})
	require.NoError(t, err)
	require.Equal(t, "01:30", res.Duration)

	res, err = f.tracker.EndCall(ctx, call.EndRequest{ContactID: c.ID, CallStartTime: call.FormatISO(t0.Add(time.Hour))})
	require.NoError(t, err)
	require.Equal(t, "00:00", res.Duration)

	f.clock.Advance(65 * time.Second)
	res, err = f.tracker.EndCall(ctx, call.EndRequest{ContactID: c.ID, CallStartTime: "2025-03-10T09:00:00"})
	require.NoError(t, err)
	require.Equal(t, "01:05", res.Duration, "a zone-less start time is UTC")

	res, err = f.tracker.EndCall(ctx, call.EndRequest{ContactID: c.ID, CallStartTime: "2025-03-10 09:00:00.250"})
	require.NoError(t, err)
	require.Equal(t, "01:04", res.Duration)

	res, err = f.tracker.EndCall(ctx, call.EndRequest{ContactID: c.ID, CallStartTime: "not a time"})
	require.NoError(t, err)
	require.Equal(t, "00:00", res.Duration)

	_, err = f.tracker.EndCall(ctx, call.EndRequest{})
	require.ErrorIs(t, err, call.ErrMissingContact)
}

func TestTracker_EndCall_DeviceFailureStillRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c := f.addContact(t, "0612345678")
	f.device.On("EndCall", mock.Anything).Return(call.ErrDeviceNotFound)

	measured := 5.0
	res, err := f.tracker.EndCall(ctx, call.EndRequest{ContactID: c.ID, DurationSeconds: &measured})
	require.NoError(t, err)
	require.False(t, res.CommandSent)
	require.ErrorIs(t, res.CommandErr, call.ErrDeviceNotFound)

	got, err := f.contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "00:05", *got.CallDuration)
}

func TestTracker_HangUp_Tracked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c := f.addContact(t, "0612345678")
	f.startCall(t, c.ID)
	f.device.On("EndCall", mock.Anything).Return(nil).Once()
	f.clock.Advance(3725 * time.Second)

	res, err := f.tracker.HangUp(ctx, call.HangUpRequest{ContactID: "someone-else"})
	require.NoError(t, err)
	require.Equal(t, c.ID, res.ContactID)
	require.Equal(t, "01:02:05", res.Duration)
	require.False(t, f.tracker.Session().Snapshot().Tracking())

	got, err := f.contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	require.False(t, got.InCall)
	require.Equal(t, "01:02:05", *got.CallDuration)
	require.Equal(t, "10/03/2025", *got.CallDate)
	require.Equal(t, "11:02:05", *got.CallTime)
	f.device.AssertExpectations(t)
}

func TestTracker_HangUp_UntrackedIsNotApplicable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c := f.addContact(t, "0612345678")
	f.device.On("EndCall", mock.Anything).Return(nil)

	res, err := f.tracker.HangUp(ctx, call.HangUpRequest{ContactID: c.ID})
	require.NoError(t, err)
	require.Equal(t, contact.DurationNotApplicable, res.Duration)

	got, err := f.contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, contact.DurationNotApplicable, *got.CallDuration)
	require.False(t, got.InCall)
}

func TestTracker_HangUp_UsesStoredStartAfterRestart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c := f.addContact(t, "0612345678")
	_, err := f.contacts.Update(ctx, c.ID, contact.Patch{
		InCall:        contact.Set(true),
		CallStartTime: contact.Set(call.FormatISO(t0.Add(-2 * time.Minute))),
	})
	require.NoError(t, err)
	f.device.On("EndCall", mock.Anything).Return(nil)

	res, err := f.tracker.HangUp(ctx, call.HangUpRequest{ContactID: c.ID})
	require.NoError(t, err)
	require.Equal(t, "02:00", res.Duration)
}

func TestTracker_HangUp_NothingToRecord(t *testing.T) {
	f := newFixture(t, call.Options{})
	f.device.On("EndCall", mock.Anything).Return(nil)

	res, err := f.tracker.HangUp(context.Background(), call.HangUpRequest{})
	require.NoError(t, err)
	require.True(t, res.CommandSent)
	require.Empty(t, res.ContactID)
	require.Nil(t, res.Contact)
}

func TestTracker_HangUp_RetriesOnceOnTimeout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c := f.addContact(t, "0612345678")
	f.startCall(t, c.ID)

	f.device.On("EndCall", mock.Anything).Return(call.ErrDeviceTimeout).Once()
	f.device.On("EndCall", mock.Anything).Return(nil).Once()

	res, err := f.tracker.HangUp(ctx, call.HangUpRequest{})
	require.NoError(t, err)
	require.True(t, res.CommandSent)
	f.device.AssertNumberOfCalls(t, "EndCall", 2)
}

func TestTracker_HangUp_DeviceFailureStillRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c := f.addContact(t, "0612345678")
	f.startCall(t, c.ID)
	f.device.On("EndCall", mock.Anything).Return(call.ErrDeviceCommandFailed)
	f.clock.Advance(5 * time.Second)

	res, err := f.tracker.HangUp(ctx, call.HangUpRequest{})
	require.NoError(t, err)
	require.ErrorIs(t, res.CommandErr, call.ErrDeviceCommandFailed)
	require.Equal(t, "00:05", res.Duration)
	f.device.AssertNumberOfCalls(t, "EndCall", 1)

	got, err := f.contacts.Get(ctx, c.ID)
	require.NoError(t, err)
	require.False(t, got.InCall)
}

func TestTracker_HangUp_VerifiesLineDropped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{VerifyHangUp: true, HangUpBackoff: time.Millisecond})
	c := f.addContact(t, "0612345678")
	f.startCall(t, c.ID)

	f.device.On("EndCall", mock.Anything).Return(nil)
	f.state.On("CallState", mock.Anything).Return(2, nil).Once()

	res, err := f.tracker.HangUp(ctx, call.HangUpRequest{})
	require.NoError(t, err)
	require.True(t, res.CommandSent)
	f.device.AssertNumberOfCalls(t, "EndCall", 2)
	f.state.AssertNumberOfCalls(t, "CallState", 1)
}

func TestTracker_HangUpAfterReconcileDoesNotRecordTwice(t *testing.T) {
	ctx := context.Background()
	contacts := &mocks.ContactBook{}
	device := &mocks.Device{}
	state := &mocks.CallStateProbe{}
	list := &mocks.CallListProbe{}
	clock := &fakeClock{now: t0}

	session := call.NewSession()
	tracker := call.NewTracker(session, device, state, list, contacts, call.Options{Now: clock.Now}, nil)

	snap, _ := session.Begin("c1", t0)
	device.On("EndCall", mock.Anything).Return(nil).Run(func(mock.Arguments) {
		// The line drops and reconcile records it while the command runs.
		session.ClearIf(snap.Epoch)
	})

	res, err := tracker.HangUp(ctx, call.HangUpRequest{})
	require.NoError(t, err)
	require.True(t, res.AlreadyRecorded)
	contacts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestTracker_Reconcile_StorageFailureStillClearsSession(t *testing.T) {
	book := &mocks.ContactBook{}
	device := &mocks.Device{}
	state := &mocks.CallStateProbe{}
	list := &mocks.CallListProbe{}
	clock := &fakeClock{now: t0}
	tracker := call.NewTracker(call.NewSession(), device, state, list, book, call.Options{Now: clock.Now}, nil)

	phone := "+33 6 12 34 56 78"
	book.On("Get", mock.Anything, "c1").Return(&contact.Contact{ID: "c1", PhoneNumber: &phone}, nil)
	book.On("Update", mock.Anything, "c1", mock.MatchedBy(func(p contact.Patch) bool {
		return p.InCall.IsSet() && p.InCall.Value
	})).Return(&contact.Contact{ID: "c1", InCall: true}, nil).Once()
	device.On("Dial", mock.Anything, "+33612345678").Return(nil)
	_, err := tracker.StartCall(context.Background(), call.StartRequest{ContactID: "c1"})
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	state.On("CallState", mock.Anything).Return(0, nil)
	list.On("ActiveCalls", mock.Anything).Return([]call.ActiveCall{}, nil)
	book.On("Update", mock.Anything, "c1", mock.Anything).Return(nil, contact.ErrStorageWrite).Once()

	status, err := tracker.Reconcile(context.Background())
	require.ErrorIs(t, err, contact.ErrStorageWrite)
	require.True(t, status.HangUpDetected)
	require.Equal(t, "00:30", status.Duration)
	require.False(t, tracker.Session().Snapshot().Tracking())
	book.AssertExpectations(t)
}

func TestTracker_StartCall_ContactWriteFailureDoesNotTrack(t *testing.T) {
	book := &mocks.ContactBook{}
	device := &mocks.Device{}
	tracker := call.NewTracker(call.NewSession(), device, nil, nil, book, call.Options{Now: (&fakeClock{now: t0}).Now}, nil)

	phone := "+33 6 12 34 56 78"
	book.On("Get", mock.Anything, "c1").Return(&contact.Contact{ID: "c1", PhoneNumber: &phone}, nil)
	book.On("Update", mock.Anything, "c1", mock.Anything).Return(nil, errors.New("disk full"))
	device.On("Dial", mock.Anything, "+33612345678").Return(nil)

	res, err := tracker.StartCall(context.Background(), call.StartRequest{ContactID: "c1"})
	require.Error(t, err)
	require.Nil(t, res)
	require.False(t, tracker.Session().Snapshot().Tracking())
	require.False(t, tracker.Status().Tracking)
}

func TestTracker_Reconcile_DeletedContact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, call.Options{})
	c := f.addContact(t, "0612345678")
	f.startCall(t, c.ID)
	require.NoError(t, f.contacts.Delete(ctx, c.ID))

	f.clock.Advance(42 * time.Second)
	f.probes(0, nil, []call.ActiveCall{}, nil)

	status, err := f.tracker.Reconcile(ctx)
	require.NoError(t, err)
	require.True(t, status.HangUpDetected)
	require.Equal(t, c.ID, status.ContactID)
	require.Equal(t, "00:42", status.Duration)
	require.Nil(t, status.Contact)
	require.False(t, f.tracker.Session().Snapshot().Tracking())
}

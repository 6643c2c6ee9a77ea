package booking_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selatan-haulage/driver-leave/backend/internal/booking"
	"github.com/selatan-haulage/driver-leave/backend/internal/domain"
)

// fakeBackend is a scriptable in-memory leave service. Counters track how
// many network-shaped calls the session made.
type fakeBackend struct {
	mu sync.Mutex

	roster   *booking.RosterInfo
	counts   map[booking.DateKey]int
	max      int
	weekend  []int
	applyErr error

	capacityCalls  int
	applyCalls     int
	forceCalls     int
	snapshotCalls  []booking.MonthKey
	capacityHook   func(from, to booking.DateKey) // runs before the read resolves
	snapshotBroken bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		roster: &booking.RosterInfo{
			Drivers: []domain.Driver{
				{DriverID: "DRV-1", DisplayName: "Azlan bin Hamid", Category: domain.CategoryTrailer, Active: true},
				{DriverID: "DRV-2", DisplayName: "Farid bin Osman", Category: domain.Category12W, Active: true},
				{DriverID: "DRV-GONE", DisplayName: "Rosli bin Yusof", Category: domain.CategoryLowbed, Active: false},
			},
			WeekendDays: []int{6, 0},
			MaxPerDay:   3,
		},
		counts:  map[booking.DateKey]int{},
		max:     3,
		weekend: []int{6, 0},
	}
}

func (f *fakeBackend) Drivers(ctx context.Context) (*booking.RosterInfo, error) {
	return f.roster, nil
}

func (f *fakeBackend) Capacity(ctx context.Context, from, to booking.DateKey) (*booking.CapacitySnapshot, error) {
	f.mu.Lock()
	f.capacityCalls++
	hook := f.capacityHook
	counts := make(map[booking.DateKey]int, len(f.counts))
	for k, v := range f.counts {
		counts[k] = v
	}
	max := f.max
	f.mu.Unlock()

	if hook != nil {
		hook(from, to)
	}
	return &booking.CapacitySnapshot{From: from, To: to, Counts: counts, Max: max}, nil
}

func (f *fakeBackend) Apply(ctx context.Context, app booking.LeaveApplication) (*booking.ApplyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyCalls++
	if f.applyErr != nil {
		return nil, f.applyErr
	}

	days := booking.ExpandRange(app.StartDate, app.EndDate)
	var full []booking.ApplyError
	for _, d := range days {
		if f.counts[d] >= f.max {
			full = append(full, booking.ApplyError{Reason: booking.ReasonFull, Date: d})
		}
	}
	if len(full) > 0 {
		return &booking.ApplyResult{OK: false, Errors: full, Message: "selected days are full"}, nil
	}
	for _, d := range days {
		f.counts[d]++
	}
	return &booking.ApplyResult{
		OK:           true,
		AppliedDates: days,
		Notification: testNotification(app.DriverID),
	}, nil
}

func (f *fakeBackend) ApplyForce3(ctx context.Context, driverID string, start booking.DateKey) (*booking.ApplyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forceCalls++

	days := booking.WorkingDays(start, 3, f.weekend)
	for _, d := range days {
		f.counts[d]++
	}
	return &booking.ApplyResult{
		OK:           true,
		AppliedDates: days,
		Notification: testNotification(driverID),
	}, nil
}

func (f *fakeBackend) CalendarSnapshot(ctx context.Context, month booking.MonthKey) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshotCalls = append(f.snapshotCalls, month)
	if f.snapshotBroken {
		return nil, errors.New("renderer down")
	}
	return []byte(fmt.Sprintf("<svg>%s</svg>", month)), nil
}

func testNotification(driverID string) *domain.NotificationSpec {
	return &domain.NotificationSpec{
		Message:  "Permohonan cuti / leave request",
		Buttons:  []domain.NotificationButton{{Body: "Terima / Acknowledge", ID: "ack-1"}},
		Metadata: map[string]string{"driver_id": driverID},
	}
}

type sentImage struct {
	caption  string
	mime     string
	filename string
}

type fakeBridge struct {
	mu            sync.Mutex
	images        []sentImage
	notifications []*domain.NotificationSpec
}

func (b *fakeBridge) SendImage(ctx context.Context, caption string, image []byte, mime, filename string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.images = append(b.images, sentImage{caption: caption, mime: mime, filename: filename})
	return nil
}

func (b *fakeBridge) SendNotification(ctx context.Context, spec *domain.NotificationSpec) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifications = append(b.notifications, spec)
	return nil
}

func newTestSession(t *testing.T) (*booking.Session, *fakeBackend, *fakeBridge) {
	t.Helper()
	backend := newFakeBackend()
	bridge := &fakeBridge{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := booking.NewSession(backend, bridge, logger)
	require.NoError(t, sess.LoadRoster(context.Background()))
	return sess, backend, bridge
}

// =============================================================================
// RANGE SELECTION AND CAPACITY VIEW
// =============================================================================

func TestSession_SelectRange_RendersView(t *testing.T) {
	sess, backend, _ := newTestSession(t)
	backend.counts["2024-06-02"] = 2

	require.NoError(t, sess.SelectRange(context.Background(), "2024-06-01", "2024-06-03"))

	slots, hasFull, err := sess.CapacityView()
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.False(t, hasFull)
	assert.Equal(t, booking.StatusNearFull, slots[1].Status)
	assert.Equal(t, 1, backend.capacityCalls)
}

func TestSession_SelectRange_StartOnlyDoesNotFetch(t *testing.T) {
	sess, backend, _ := newTestSession(t)

	require.NoError(t, sess.SelectRange(context.Background(), "2024-06-01", ""))

	slots, _, err := sess.CapacityView()
	assert.NoError(t, err)
	assert.Empty(t, slots)
	assert.Zero(t, backend.capacityCalls)
}

func TestSession_SelectRange_EmptyStartClears(t *testing.T) {
	sess, _, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.SelectRange(ctx, "2024-06-01", "2024-06-03"))
	require.NoError(t, sess.SelectRange(ctx, "", ""))

	slots, hasFull, err := sess.CapacityView()
	assert.NoError(t, err)
	assert.Empty(t, slots)
	assert.False(t, hasFull)
}

func TestSession_SelectRange_SwapsDescending(t *testing.T) {
	sess, _, _ := newTestSession(t)

	require.NoError(t, sess.SelectRange(context.Background(), "2024-06-03", "2024-06-01"))

	slots, _, err := sess.CapacityView()
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, booking.DateKey("2024-06-01"), slots[0].Date)
	assert.Equal(t, booking.DateKey("2024-06-03"), slots[2].Date)
}

func TestSession_RefreshCapacity_StaleResultDiscarded(t *testing.T) {
	sess, backend, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.SelectRange(ctx, "2024-06-01", "2024-06-02"))

	// the first re-read stalls until a newer one has fully resolved, so its
	// counts arrive last and must be thrown away
	started := make(chan struct{})
	release := make(chan struct{})
	backend.mu.Lock()
	backend.counts["2024-06-01"] = 3
	backend.capacityHook = func(from, to booking.DateKey) {
		backend.mu.Lock()
		backend.capacityHook = nil
		backend.mu.Unlock()
		close(started)
		<-release
	}
	backend.mu.Unlock()

	firstDone := make(chan error, 1)
	go func() { firstDone <- sess.RefreshCapacity(ctx) }()
	<-started

	backend.mu.Lock()
	backend.counts["2024-06-01"] = 0
	backend.mu.Unlock()
	require.NoError(t, sess.RefreshCapacity(ctx))

	close(release)
	require.NoError(t, <-firstDone)

	slots, hasFull, err := sess.CapacityView()
	require.NoError(t, err)
	assert.False(t, hasFull, "stale full-day read must not overwrite the newer empty one")
	assert.Equal(t, 0, slots[0].Count)
}

func TestSession_SelectRange_ClearDiscardsInFlightFetch(t *testing.T) {
	sess, backend, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.SelectRange(ctx, "2024-06-01", "2024-06-02"))

	started := make(chan struct{})
	release := make(chan struct{})
	backend.mu.Lock()
	backend.capacityHook = func(from, to booking.DateKey) {
		backend.mu.Lock()
		backend.capacityHook = nil
		backend.mu.Unlock()
		close(started)
		<-release
	}
	backend.mu.Unlock()

	refreshDone := make(chan error, 1)
	go func() { refreshDone <- sess.RefreshCapacity(ctx) }()
	<-started

	// clearing the selection while the read is in flight must discard its
	// result, not let it repopulate the emptied view
	require.NoError(t, sess.SelectRange(ctx, "", ""))

	close(release)
	require.NoError(t, <-refreshDone)

	slots, hasFull, err := sess.CapacityView()
	assert.NoError(t, err)
	assert.Empty(t, slots)
	assert.False(t, hasFull)
}

func TestSession_SelectRange_StartOnlyDiscardsInFlightFetch(t *testing.T) {
	sess, backend, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.SelectRange(ctx, "2024-06-01", "2024-06-02"))

	started := make(chan struct{})
	release := make(chan struct{})
	backend.mu.Lock()
	backend.capacityHook = func(from, to booking.DateKey) {
		backend.mu.Lock()
		backend.capacityHook = nil
		backend.mu.Unlock()
		close(started)
		<-release
	}
	backend.mu.Unlock()

	refreshDone := make(chan error, 1)
	go func() { refreshDone <- sess.RefreshCapacity(ctx) }()
	<-started

	require.NoError(t, sess.SelectRange(ctx, "2024-06-20", ""))

	close(release)
	require.NoError(t, <-refreshDone)

	slots, _, err := sess.CapacityView()
	assert.NoError(t, err)
	assert.Empty(t, slots, "a start-only selection renders nothing")
}

// =============================================================================
// SUBMISSION STATE MACHINE
// =============================================================================

func TestSession_Submit_HappyPath(t *testing.T) {
	sess, backend, bridge := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.SelectRange(ctx, "2024-06-03", "2024-06-05"))
	outcome, err := sess.Submit(ctx, "DRV-1")

	require.NoError(t, err)
	assert.Equal(t, booking.StateCommitted, outcome.State)
	assert.Equal(t, []booking.DateKey{"2024-06-03", "2024-06-04", "2024-06-05"}, outcome.AppliedDates)
	assert.Equal(t, booking.StateCommitted, sess.State())
	assert.Nil(t, sess.Pending())

	assert.Equal(t, 1, backend.applyCalls)
	require.Len(t, bridge.notifications, 1)
	assert.NotEmpty(t, bridge.notifications[0].Buttons)
}

func TestSession_Submit_ValidationNeverReachesNetwork(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		start   booking.DateKey
		end     booking.DateKey
		wantErr error
	}{
		{"no driver", "", "2024-06-03", "2024-06-05", booking.ErrDriverRequired},
		{"unknown driver", "DRV-404", "2024-06-03", "2024-06-05", booking.ErrUnknownDriver},
		{"inactive driver", "DRV-GONE", "2024-06-03", "2024-06-05", booking.ErrUnknownDriver},
		{"no range", "DRV-1", "", "", booking.ErrRangeRequired},
		{"start only", "DRV-1", "2024-06-03", "", booking.ErrRangeRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, backend, bridge := newTestSession(t)
			ctx := context.Background()
			require.NoError(t, sess.SelectRange(ctx, tt.start, tt.end))

			_, err := sess.Submit(ctx, tt.driver)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, booking.StateFailed, sess.State())
			assert.Zero(t, backend.applyCalls)
			assert.Empty(t, bridge.notifications)
		})
	}
}

func TestSession_Submit_WithoutRosterFails(t *testing.T) {
	backend := newFakeBackend()
	bridge := &fakeBridge{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := booking.NewSession(backend, bridge, logger)
	ctx := context.Background()

	require.NoError(t, sess.SelectRange(ctx, "2024-06-03", "2024-06-05"))
	_, err := sess.Submit(ctx, "DRV-1")

	assert.ErrorIs(t, err, booking.ErrRosterNotLoaded)
	assert.Equal(t, booking.StateFailed, sess.State())
	assert.Zero(t, backend.applyCalls)
}

func TestSession_Submit_QuotaConflictParksForce(t *testing.T) {
	sess, backend, bridge := newTestSession(t)
	ctx := context.Background()
	backend.counts["2024-06-11"] = 3

	require.NoError(t, sess.SelectRange(ctx, "2024-06-10", "2024-06-12"))
	outcome, err := sess.Submit(ctx, "DRV-1")

	require.NoError(t, err)
	assert.Equal(t, booking.StatePendingForceConfirm, outcome.State)
	assert.Equal(t, booking.StatePendingForceConfirm, sess.State())

	pending := sess.Pending()
	require.NotNil(t, pending)
	assert.Equal(t, booking.DateKey("2024-06-10"), pending.StartDate, "the slot anchors at the start date, full day or not")
	assert.Equal(t, "DRV-1", pending.DriverID)

	assert.Empty(t, bridge.notifications, "nothing dispatched until the override commits")
}

func TestSession_Submit_HardFailureIsTerminal(t *testing.T) {
	sess, backend, _ := newTestSession(t)
	ctx := context.Background()
	backend.applyErr = errors.New("connection refused")

	require.NoError(t, sess.SelectRange(ctx, "2024-06-10", "2024-06-10"))
	_, err := sess.Submit(ctx, "DRV-1")

	assert.Error(t, err)
	assert.Equal(t, booking.StateFailed, sess.State())
	assert.Nil(t, sess.Pending(), "a hard failure never opens the force path")
}

func TestSession_Submit_NewAttemptAbandonsPendingForce(t *testing.T) {
	sess, backend, _ := newTestSession(t)
	ctx := context.Background()
	backend.counts["2024-06-10"] = 3

	require.NoError(t, sess.SelectRange(ctx, "2024-06-10", "2024-06-10"))
	_, err := sess.Submit(ctx, "DRV-1")
	require.NoError(t, err)
	require.NotNil(t, sess.Pending())

	require.NoError(t, sess.SelectRange(ctx, "2024-06-20", "2024-06-21"))
	assert.Nil(t, sess.Pending())

	outcome, err := sess.Submit(ctx, "DRV-1")
	require.NoError(t, err)
	assert.Equal(t, booking.StateCommitted, outcome.State)
}

// =============================================================================
// FORCE OVERRIDE PATH
// =============================================================================

func TestSession_ConfirmForce_CommitsFixedWindow(t *testing.T) {
	sess, backend, bridge := newTestSession(t)
	ctx := context.Background()
	// 2024-06-10 is a Monday and already at quota
	backend.counts["2024-06-10"] = 3

	require.NoError(t, sess.SelectRange(ctx, "2024-06-10", "2024-06-10"))
	outcome, err := sess.Submit(ctx, "DRV-1")
	require.NoError(t, err)
	require.Equal(t, booking.StatePendingForceConfirm, outcome.State)

	forced, err := sess.ConfirmForce(ctx)

	require.NoError(t, err)
	assert.Equal(t, booking.StateCommitted, forced.State)
	assert.Equal(t, []booking.DateKey{"2024-06-10", "2024-06-11", "2024-06-12"}, forced.AppliedDates)
	assert.Equal(t, booking.StateCommitted, sess.State())
	assert.Nil(t, sess.Pending(), "the slot is consumed by confirmation")
	assert.Equal(t, 1, backend.forceCalls)
	assert.Len(t, bridge.notifications, 1)
	assert.Equal(t, 4, backend.counts["2024-06-10"], "forcing exceeds the quota")
}

func TestSession_ConfirmForce_WithoutPendingFails(t *testing.T) {
	sess, backend, _ := newTestSession(t)

	_, err := sess.ConfirmForce(context.Background())

	assert.ErrorIs(t, err, booking.ErrNoPendingForce)
	assert.Zero(t, backend.forceCalls)
}

func TestSession_ConfirmForce_AfterCommitFails(t *testing.T) {
	sess, backend, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.SelectRange(ctx, "2024-06-10", "2024-06-10"))
	_, err := sess.Submit(ctx, "DRV-1")
	require.NoError(t, err)

	_, err = sess.ConfirmForce(ctx)
	assert.ErrorIs(t, err, booking.ErrNoPendingForce)
	assert.Zero(t, backend.forceCalls)
}

func TestSession_CancelForce_ClearsSlotWithoutNetwork(t *testing.T) {
	sess, backend, _ := newTestSession(t)
	ctx := context.Background()
	backend.counts["2024-06-10"] = 3

	require.NoError(t, sess.SelectRange(ctx, "2024-06-10", "2024-06-10"))
	_, err := sess.Submit(ctx, "DRV-1")
	require.NoError(t, err)

	calls := backend.forceCalls
	sess.CancelForce()

	assert.Nil(t, sess.Pending())
	assert.Equal(t, booking.StateIdle, sess.State())
	assert.Equal(t, calls, backend.forceCalls)
}

// =============================================================================
// POST-COMMIT DISPATCH
// =============================================================================

func TestSession_Dispatch_OneSnapshotPerMonth(t *testing.T) {
	sess, backend, bridge := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.SelectRange(ctx, "2024-06-29", "2024-07-02"))
	outcome, err := sess.Submit(ctx, "DRV-1")
	require.NoError(t, err)
	require.Equal(t, booking.StateCommitted, outcome.State)

	assert.Equal(t, []booking.MonthKey{"2024-06", "2024-07"}, backend.snapshotCalls)
	require.Len(t, bridge.images, 2)
	assert.Equal(t, "leave-2024-06.svg", bridge.images[0].filename)
	assert.Equal(t, "leave-2024-07.svg", bridge.images[1].filename)
	assert.Equal(t, "image/svg+xml", bridge.images[0].mime)
	assert.Contains(t, bridge.images[0].caption, "Azlan bin Hamid")
	assert.Contains(t, bridge.images[0].caption, "2024-06-29")
}

func TestSession_Dispatch_SnapshotFailureDoesNotBlockNotification(t *testing.T) {
	sess, backend, bridge := newTestSession(t)
	ctx := context.Background()
	backend.snapshotBroken = true

	require.NoError(t, sess.SelectRange(ctx, "2024-06-03", "2024-06-04"))
	outcome, err := sess.Submit(ctx, "DRV-1")

	require.NoError(t, err, "snapshot failures never fail the booking")
	assert.Equal(t, booking.StateCommitted, outcome.State)
	assert.Empty(t, bridge.images)
	assert.Len(t, bridge.notifications, 1)
}

func TestDispatcher_DropsButtonlessNotification(t *testing.T) {
	backend := newFakeBackend()
	bridge := &fakeBridge{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := booking.NewDispatcher(backend, bridge, nil, logger)

	d.Run(context.Background(), nil, nil, &domain.NotificationSpec{Message: "no buttons"})

	assert.Empty(t, bridge.notifications)
}

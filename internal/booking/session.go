package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/selatan-haulage/driver-leave/backend/internal/domain"
)

type State string

const (
	StateIdle                State = "idle"
	StateSubmitting          State = "submitting"
	StateCommitted           State = "committed"
	StateConflict            State = "conflict"
	StatePendingForceConfirm State = "pending_force_confirm"
	StateForceSubmitting     State = "force_submitting"
	StateFailed              State = "failed"
)

// Validation failures caught before any network call.
var (
	ErrDriverRequired  = errors.New("no driver selected")
	ErrRosterNotLoaded = errors.New("roster has not been loaded")
	ErrUnknownDriver   = errors.New("driver is not in the active roster")
	ErrRangeRequired   = errors.New("start and end dates are required")
	ErrSubmitInFlight  = errors.New("a submission is already in flight")
	ErrNoPendingForce  = errors.New("no force request pending")
)

// SelectedRange is the picker's output. The range is empty while either
// bound is unset; the picker coerces end to start for a single-day choice.
type SelectedRange struct {
	Start DateKey
	End   DateKey
}

func (r SelectedRange) Complete() bool {
	return r.Start != "" && r.End != ""
}

// PendingForce is the single piece of state that survives a quota conflict
// until the driver confirms or cancels. The end date of the original range
// is deliberately not kept: the override path re-derives a fixed window of
// working days from StartDate on the server.
type PendingForce struct {
	StartDate    DateKey
	DriverID     string
	Notification *domain.NotificationSpec
}

// SubmitOutcome reports where one booking attempt ended up.
type SubmitOutcome struct {
	State        State
	AppliedDates []DateKey
	Message      string
}

// Session owns the lifecycle of booking attempts for one driver client:
// the selected range, the rendered capacity view, the single pending-force
// slot, and the submission state machine. All mutable state lives here,
// never in package globals, and is guarded by one mutex.
type Session struct {
	mu         sync.Mutex
	backend    Backend
	dispatcher *Dispatcher
	logger     *slog.Logger

	state    State
	roster   *RosterInfo
	selected SelectedRange
	days     []DateKey

	slots       []DaySlot
	hasFullDay  bool
	capacityErr error
	fetchSeq    uint64 // generation of the newest capacity fetch; older results are discarded

	pending     *PendingForce
	lastApplied []DateKey
}

func NewSession(backend Backend, bridge Bridge, logger *slog.Logger) *Session {
	s := &Session{
		backend: backend,
		logger:  logger,
		state:   StateIdle,
	}
	s.dispatcher = NewDispatcher(backend, bridge, s.RefreshCapacity, logger)
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Roster() *RosterInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster
}

// CapacityView returns the classified days of the most recent completed
// fetch, whether any of them is full, and the fetch error if the last
// attempt failed.
func (s *Session) CapacityView() ([]DaySlot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots, s.hasFullDay, s.capacityErr
}

// LoadRoster fetches drivers plus calendar settings. Safe to call again at
// any time; the submission flow only needs it once up front.
func (s *Session) LoadRoster(ctx context.Context) error {
	roster, err := s.backend.Drivers(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.roster = roster
	s.mu.Unlock()
	return nil
}

// SelectRange is the picker integration point. An empty start clears the
// selection; an empty end means only the start was chosen, which renders
// nothing and must not trigger a capacity fetch. A fresh selection always
// starts a new attempt: any pending force offer is abandoned.
func (s *Session) SelectRange(ctx context.Context, start, end DateKey) error {
	s.mu.Lock()
	s.pending = nil
	if s.state != StateSubmitting && s.state != StateForceSubmitting {
		s.state = StateIdle
	}

	if start == "" {
		s.selected = SelectedRange{}
		s.clearViewLocked()
		s.mu.Unlock()
		return nil
	}
	if end == "" {
		// only the start bound chosen so far
		s.selected = SelectedRange{Start: start}
		s.clearViewLocked()
		s.mu.Unlock()
		return nil
	}
	if end.Before(start) {
		start, end = end, start
	}
	s.selected = SelectedRange{Start: start, End: end}
	s.days = ExpandRange(start, end)
	s.mu.Unlock()

	return s.RefreshCapacity(ctx)
}

// clearViewLocked empties the rendered view and advances the fetch
// generation so any capacity read still in flight is discarded on arrival.
func (s *Session) clearViewLocked() {
	s.days = nil
	s.slots = nil
	s.hasFullDay = false
	s.capacityErr = nil
	s.fetchSeq++
}

// RefreshCapacity re-reads occupancy for the selected range and rebuilds the
// view. Invocations are numbered: if a newer refresh starts before this one
// resolves, this one's result is discarded no matter the arrival order.
func (s *Session) RefreshCapacity(ctx context.Context) error {
	s.mu.Lock()
	if len(s.days) == 0 {
		s.slots = nil
		s.hasFullDay = false
		s.capacityErr = nil
		s.mu.Unlock()
		return nil
	}
	days := make([]DateKey, len(s.days))
	copy(days, s.days)
	s.fetchSeq++
	seq := s.fetchSeq
	from, to := days[0], days[len(days)-1]
	s.mu.Unlock()

	snap, err := s.backend.Capacity(ctx, from, to)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.fetchSeq {
		// superseded while in flight
		return nil
	}
	if err != nil {
		s.slots = nil
		s.hasFullDay = false
		s.capacityErr = err
		return err
	}
	s.slots, s.hasFullDay = BuildView(days, snap)
	s.capacityErr = nil
	return nil
}

// Submit runs one booking attempt for the selected range. Validation
// failures never reach the network. A quota conflict (reason "full") parks
// the attempt in the pending-force slot and waits for ConfirmForce or
// CancelForce; every other rejection is terminal for this attempt.
func (s *Session) Submit(ctx context.Context, driverID string) (*SubmitOutcome, error) {
	s.mu.Lock()
	if s.state == StateSubmitting || s.state == StateForceSubmitting {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	// the slot never stacks: a new attempt abandons any outstanding offer
	s.pending = nil

	if err := s.validateLocked(driverID); err != nil {
		s.state = StateFailed
		s.mu.Unlock()
		return nil, err
	}
	app := LeaveApplication{
		DriverID:  driverID,
		StartDate: s.selected.Start,
		EndDate:   s.selected.End,
	}
	s.state = StateSubmitting
	s.mu.Unlock()

	res, err := s.backend.Apply(ctx, app)

	s.mu.Lock()
	if err != nil {
		s.state = StateFailed
		s.mu.Unlock()
		return nil, err
	}
	if res.OK {
		s.state = StateCommitted
		s.lastApplied = res.AppliedDates
		driver := s.driverLocked(driverID)
		s.mu.Unlock()
		s.dispatcher.Run(ctx, driver, res.AppliedDates, res.Notification)
		return &SubmitOutcome{State: StateCommitted, AppliedDates: res.AppliedDates}, nil
	}
	if res.QuotaConflict() {
		s.state = StateConflict
		s.pending = &PendingForce{
			StartDate:    app.StartDate,
			DriverID:     driverID,
			Notification: res.Notification,
		}
		s.state = StatePendingForceConfirm
		s.mu.Unlock()
		return &SubmitOutcome{State: StatePendingForceConfirm, Message: res.Message}, nil
	}
	s.state = StateFailed
	s.mu.Unlock()
	if res.Message == "" {
		return nil, errors.New("failed to submit leave")
	}
	return nil, fmt.Errorf("failed to submit leave: %s", res.Message)
}

// ConfirmForce commits the offered override window. Valid only while a
// conflict is pending; a missing or incomplete slot fails without touching
// the network. Success or failure, the slot is cleared; a failed force
// means starting over from a fresh Submit.
func (s *Session) ConfirmForce(ctx context.Context) (*SubmitOutcome, error) {
	s.mu.Lock()
	if s.state != StatePendingForceConfirm || s.pending == nil {
		s.mu.Unlock()
		return nil, ErrNoPendingForce
	}
	if s.pending.StartDate == "" || s.pending.DriverID == "" {
		// guards against confirmation without a valid prior conflict
		s.pending = nil
		s.state = StateFailed
		s.mu.Unlock()
		return nil, ErrNoPendingForce
	}
	anchor := s.pending.StartDate
	driverID := s.pending.DriverID
	carried := s.pending.Notification
	s.state = StateForceSubmitting
	s.mu.Unlock()

	res, err := s.backend.ApplyForce3(ctx, driverID, anchor)

	s.mu.Lock()
	s.pending = nil
	if err != nil {
		s.state = StateFailed
		s.mu.Unlock()
		return nil, err
	}
	if !res.OK {
		s.state = StateFailed
		s.mu.Unlock()
		if res.Message == "" {
			return nil, errors.New("force request failed")
		}
		return nil, fmt.Errorf("force request failed: %s", res.Message)
	}
	s.state = StateCommitted
	s.lastApplied = res.AppliedDates
	note := res.Notification
	if note == nil {
		note = carried
	}
	driver := s.driverLocked(driverID)
	s.mu.Unlock()
	s.dispatcher.Run(ctx, driver, res.AppliedDates, note)
	return &SubmitOutcome{State: StateCommitted, AppliedDates: res.AppliedDates}, nil
}

// CancelForce abandons the pending override without a network call.
func (s *Session) CancelForce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePendingForceConfirm {
		return
	}
	s.pending = nil
	s.state = StateIdle
}

// Pending exposes the force slot for rendering the confirmation prompt.
func (s *Session) Pending() *PendingForce {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *Session) validateLocked(driverID string) error {
	if driverID == "" {
		return ErrDriverRequired
	}
	if s.roster == nil {
		return ErrRosterNotLoaded
	}
	found := false
	for _, d := range s.roster.Drivers {
		if d.DriverID == driverID && d.Active {
			found = true
			break
		}
	}
	if !found {
		return ErrUnknownDriver
	}
	if !s.selected.Complete() {
		return ErrRangeRequired
	}
	return nil
}

func (s *Session) driverLocked(driverID string) *domain.Driver {
	if s.roster == nil {
		return nil
	}
	for i := range s.roster.Drivers {
		if s.roster.Drivers[i].DriverID == driverID {
			return &s.roster.Drivers[i]
		}
	}
	return nil
}

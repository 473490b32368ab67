package dispatcher

import (
	"context"
	"sync"
	"time"

	"drtdispatch/geo"
	"drtdispatch/logging"
	"drtdispatch/model"

	"github.com/google/uuid"
)

// vehicleState names the three states of the vehicle-side machine.
type vehicleState int

const (
	vehicleWaiting vehicleState = iota
	vehicleSelectDest
	vehicleMovingToDestination
)

func (s vehicleState) String() string {
	switch s {
	case vehicleSelectDest:
		return "select_dest"
	case vehicleMovingToDestination:
		return "moving_to_destination"
	default:
		return "waiting"
	}
}

// moveOutcome reports whether a simulated move ran to completion or was
// cut short by an external abort.
type moveOutcome struct {
	arrived bool
}

// VehicleActor is the per-vehicle side of the dispatcher<->vehicle
// protocol: one goroutine owns indexCurrent, pos, and the in-progress
// move, and only ever mutates them from within Run.
type VehicleActor struct {
	ID string

	inbox   chan Message
	replies chan<- Message

	mu           sync.RWMutex
	itinerary    *model.Itinerary
	indexCurrent int
	pos          geo.Coords
	state        vehicleState
	rerouting    bool

	speedFactor float64 // real minutes per simulated minute; a small value keeps tests fast

	abort     chan struct{}
	abortOnce sync.Once

	log *logging.Logger
}

// NewVehicleActor seeds an actor at the start of its itinerary.
func NewVehicleActor(it *model.Itinerary, replies chan<- Message, speedFactor float64, log *logging.Logger) *VehicleActor {
	return &VehicleActor{
		ID:          it.VehicleID,
		inbox:       make(chan Message, 8),
		replies:     replies,
		itinerary:   it,
		pos:         it.Stops[0].Coords,
		speedFactor: speedFactor,
		state:       vehicleWaiting,
		log:         log.With("vehicle_id", it.VehicleID),
	}
}

// Inbox is the channel the fleet manager sends this vehicle's messages on.
func (a *VehicleActor) Inbox() chan<- Message { return a.inbox }

// VehicleSnapshot is a read-only view of an actor's state, safe to read
// concurrently with Run — the one exception to "no shared mutable
// state" the monitoring HTTP surface needs.
type VehicleSnapshot struct {
	VehicleID    string
	IndexCurrent int
	Pos          geo.Coords
	State        string
	Rerouting    bool
}

// Snapshot returns the actor's current state under a read lock.
func (a *VehicleActor) Snapshot() VehicleSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return VehicleSnapshot{
		VehicleID:    a.ID,
		IndexCurrent: a.indexCurrent,
		Pos:          a.pos,
		State:        a.state.String(),
		Rerouting:    a.rerouting,
	}
}

// Run drives the WAITING -> SELECT_DEST -> MOVING_TO_DESTINATION ->
// WAITING loop until ctx is cancelled.
func (a *VehicleActor) Run(ctx context.Context) {
	var moving bool
	var done chan moveOutcome
	var target int

	for {
		a.mu.RLock()
		canDepart := !moving && a.indexCurrent+1 < len(a.itinerary.Stops)
		a.mu.RUnlock()

		if canDepart {
			a.mu.Lock()
			a.state = vehicleSelectDest
			target = a.indexCurrent + 1
			fromID, toID := a.itinerary.Stops[a.indexCurrent].ID, a.itinerary.Stops[target].ID
			durMin, derr := a.itinerary.Duration(fromID, toID)
			a.state = vehicleMovingToDestination
			a.rerouting = false
			a.abort = make(chan struct{})
			a.abortOnce = sync.Once{}
			abort := a.abort
			a.mu.Unlock()

			done = make(chan moveOutcome, 1)
			moving = true
			if derr != nil {
				a.log.Warnw("move duration lookup failed", "from", fromID, "to", toID, "err", derr.Error())
				done <- moveOutcome{arrived: false}
			} else {
				travel := time.Duration(durMin * a.speedFactor * float64(time.Minute))
				go simulateMove(ctx, travel, abort, done)
			}
		}

		select {
		case <-ctx.Done():
			return

		case msg := <-a.inbox:
			a.handle(msg, moving)

		case outcome := <-done:
			moving = false
			a.mu.Lock()
			if outcome.arrived {
				a.indexCurrent = target
				a.pos = a.itinerary.Stops[target].Coords
			}
			a.state = vehicleWaiting
			a.mu.Unlock()
		}
	}
}

func (a *VehicleActor) handle(msg Message, moving bool) {
	switch m := msg.(type) {
	case PositionRequest:
		snap := a.Snapshot()
		a.replies <- PositionReply{
			ID: m.ID, VehicleID: a.ID, Coords: snap.Pos,
			AtIndex: snap.IndexCurrent, Moving: moving,
		}

	case ItineraryPush:
		a.mu.Lock()
		changed := a.nextStopChangedLocked(m.Itinerary)
		a.itinerary = m.Itinerary
		if changed {
			a.rerouting = true
		}
		a.mu.Unlock()
		if changed && moving {
			a.abortOnce.Do(func() { close(a.abort) })
		}
	}
}

// nextStopChangedLocked implements the rerouting rule: compare the
// previously scheduled stop at indexCurrent+1 to the new itinerary's
// stop at the same position. Caller must hold a.mu.
func (a *VehicleActor) nextStopChangedLocked(next *model.Itinerary) bool {
	i := a.indexCurrent + 1
	if i >= len(a.itinerary.Stops) || i >= len(next.Stops) {
		return true
	}
	return a.itinerary.Stops[i].ID != next.Stops[i].ID
}

// simulateMove sleeps for the leg's driving duration unless abort fires
// first. Sending on done happens exactly once either way: this is the
// one-shot idempotent move-cancellation mechanism — setting
// arrived_to_stop both on true arrival and on external abort wakes
// whichever goroutine is waiting on the move.
func simulateMove(ctx context.Context, travel time.Duration, abort <-chan struct{}, done chan<- moveOutcome) {
	select {
	case <-ctx.Done():
	case <-abort:
		done <- moveOutcome{arrived: false}
	case <-time.After(travel):
		done <- moveOutcome{arrived: true}
	}
}

// newCorrelationID mints a message correlation ID for request/reply pairs.
func newCorrelationID() string { return uuid.New().String() }

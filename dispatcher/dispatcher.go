package dispatcher

import (
	"context"
	"time"

	"drtdispatch/config"
	"drtdispatch/geo"
	"drtdispatch/logging"
	"drtdispatch/model"
	"drtdispatch/scheduler"
)

// fleetState names the three states of the fleet-manager machine.
type fleetState int

const (
	fleetWaiting fleetState = iota
	fleetRequestPositions
	fleetUpdate
)

// FleetManager is the single-agent dispatcher: it owns the scheduler,
// polls a request source, gathers vehicle positions, and broadcasts
// itinerary updates. One goroutine (Run) drives the whole machine; the
// scheduler's authoritative itineraries are mutated only from within its
// UPDATE state, per the shared-resource policy.
type FleetManager struct {
	scheduler *scheduler.Scheduler
	cfg       config.DispatcherConfig
	log       *logging.Logger

	vehicles map[string]*VehicleActor
	replies  chan Message

	requests <-chan *model.Request

	state fleetState
	start time.Time

	// OnCycle, if set, is called after every UPDATE with the itineraries
	// that changed in it, keyed by vehicle ID.
	OnCycle func(modified map[string]*model.Itinerary)

	// OnDecision, if set, is called once per request disposition decided
	// in the cycle just finished; wired to the audit log and metrics.
	OnDecision func(d scheduler.Decision, cycleSeconds float64)
}

// New builds a fleet manager over an already-populated scheduler (every
// vehicle must already be registered) and a channel of incoming
// requests.
func New(sched *scheduler.Scheduler, vehicles map[string]*VehicleActor, requests <-chan *model.Request, cfg config.DispatcherConfig, log *logging.Logger) *FleetManager {
	fm := &FleetManager{
		scheduler: sched,
		cfg:       cfg,
		log:       log,
		vehicles:  vehicles,
		replies:   make(chan Message, len(vehicles)*2+8),
		requests:  requests,
		state:     fleetWaiting,
		start:     time.Now(),
	}
	// Point every actor's replies at fm.replies, the channel
	// runRequestPositions reads.
	for _, v := range vehicles {
		v.replies = fm.replies
	}
	return fm
}

// Run drives WAITING -> REQUEST_POSITIONS -> UPDATE -> WAITING until ctx
// is cancelled.
func (fm *FleetManager) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch fm.state {
		case fleetWaiting:
			if !fm.runWaiting(ctx) {
				return ctx.Err()
			}
		case fleetRequestPositions:
			positions := fm.runRequestPositions(ctx)
			fm.scheduler.UpdatePositions(positions)
			fm.state = fleetUpdate
		case fleetUpdate:
			fm.runUpdate()
			fm.state = fleetWaiting
		}
	}
}

// runWaiting polls the request source until at least one request
// arrives, or the poll period elapses (in which case it loops). Returns
// false only if ctx was cancelled while waiting.
func (fm *FleetManager) runWaiting(ctx context.Context) bool {
	timer := time.NewTimer(fm.cfg.WaitingPollPeriod)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true // nothing arrived this period; loop and poll again
	case req, ok := <-fm.requests:
		if !ok {
			return true
		}
		fm.scheduler.AddRequest(req)
	}

	// At least one request arrived: drain whatever else is immediately
	// ready without blocking, then move on to REQUEST_POSITIONS.
	for draining := true; draining; {
		select {
		case req := <-fm.requests:
			fm.scheduler.AddRequest(req)
		default:
			draining = false
		}
	}
	fm.state = fleetRequestPositions
	return true
}

// runRequestPositions sends one PositionRequest to every vehicle and
// collects replies up to PositionReplyTimeout; a vehicle that fails to
// reply in time is logged as a position-reply timeout and simply excluded
// from this cycle's position snapshot, rather than blocking the others.
func (fm *FleetManager) runRequestPositions(ctx context.Context) map[string]geo.Coords {
	pending := len(fm.vehicles)
	for _, v := range fm.vehicles {
		v.Inbox() <- PositionRequest{ID: newCorrelationID()}
	}

	positions := make(map[string]geo.Coords, pending)
	deadline := time.After(fm.cfg.PositionReplyTimeout)

	for pending > 0 {
		select {
		case <-ctx.Done():
			return positions
		case msg := <-fm.replies:
			if reply, ok := msg.(PositionReply); ok {
				positions[reply.VehicleID] = reply.Coords
				pending--
			}
		case <-deadline:
			fm.log.Warnw("position reply timeout", "missing", pending)
			return positions
		}
	}
	return positions
}

// runUpdate runs the insertion search over every newly-pending request
// against the snapshot gathered in REQUEST_POSITIONS, then pushes
// changed itineraries to their vehicles.
func (fm *FleetManager) runUpdate() {
	cycleStart := time.Now()
	issueTime := time.Since(fm.start).Minutes()

	modified, err := fm.scheduler.RunCycle(issueTime)
	if err != nil {
		fm.log.Errorw("scheduling cycle failed", "err", err.Error())
		return
	}
	cycleSeconds := time.Since(cycleStart).Seconds()

	for vehicleID, it := range modified {
		v, ok := fm.vehicles[vehicleID]
		if !ok {
			continue
		}
		v.Inbox() <- ItineraryPush{ID: newCorrelationID(), Itinerary: it}
	}

	if fm.OnDecision != nil {
		for _, d := range fm.scheduler.CycleDecisions() {
			fm.OnDecision(d, cycleSeconds)
		}
	}
	if fm.OnCycle != nil {
		fm.OnCycle(modified)
	}
}

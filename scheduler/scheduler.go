// Package scheduler holds the authoritative per-vehicle itineraries and
// the pending/scheduled/rejected request sets, and runs the insertion
// search that places each request on the cheapest feasible vehicle.
package scheduler

import (
	"fmt"
	"sort"

	"drtdispatch/config"
	"drtdispatch/geo"
	"drtdispatch/logging"
	"drtdispatch/model"
	"drtdispatch/routing"
)

// Decision is one request's disposition in a single RunCycle call, fed
// to the audit log and the monitoring SSE stream.
type Decision struct {
	RequestID string
	VehicleID string
	Accepted  bool
	CostDelta float64
}

// Insertion is a candidate placement produced by the search: the
// itinerary it would leave behind is carried whole, rather than just its
// indices, since a mid-trip search may have spliced a synthetic
// current-position stop ahead of index_Spu — re-deriving indices against
// the un-spliced authoritative itinerary at commit time would misalign
// by one position. Committing therefore means adopting Itinerary as the
// new authoritative plan for VehicleID, not re-running insert_stop.
type Insertion struct {
	VehicleID string
	IndexSpu  int
	IndexSsd  int
	CostDelta float64
	Itinerary *model.Itinerary
}

// Scheduler owns the authoritative itineraries and request sets.
type Scheduler struct {
	oracle *routing.Oracle
	cfg    config.SchedulerConfig
	log    *logging.Logger

	itineraries map[string]*model.Itinerary

	pending   []*model.Request
	scheduled []*model.Request
	rejected  []*model.Request

	transportPositions  map[string]geo.Coords
	modifiedItineraries map[string]*model.Itinerary
	cycleDecisions      []Decision

	// MonotoneAborts counts itinerary searches abandoned on a code=0
	// feasibility failure, exposed for the S4 scenario's observability
	// requirement.
	MonotoneAborts int
}

// New builds an empty scheduler.
func New(oracle *routing.Oracle, cfg config.SchedulerConfig, log *logging.Logger) *Scheduler {
	return &Scheduler{
		oracle:              oracle,
		cfg:                 cfg,
		log:                 log,
		itineraries:         map[string]*model.Itinerary{},
		transportPositions:  map[string]geo.Coords{},
		modifiedItineraries: map[string]*model.Itinerary{},
	}
}

// RegisterVehicle seeds a fresh two-stop itinerary for v.
func (s *Scheduler) RegisterVehicle(v *model.Vehicle) error {
	it, err := model.NewItinerary(v, s.oracle.DistanceKM, s.oracle.DurationMin)
	if err != nil {
		return fmt.Errorf("register vehicle %s: %w", v.ID, err)
	}
	s.itineraries[v.ID] = it
	return nil
}

// AddRequest enqueues a request for the next search cycle.
func (s *Scheduler) AddRequest(req *model.Request) {
	s.pending = append(s.pending, req)
}

// UpdatePositions replaces the live vehicle-position snapshot used to
// splice synthetic current-position stops during the search.
func (s *Scheduler) UpdatePositions(positions map[string]geo.Coords) {
	s.transportPositions = positions
}

// Itinerary returns the authoritative itinerary for a vehicle.
func (s *Scheduler) Itinerary(vehicleID string) (*model.Itinerary, bool) {
	it, ok := s.itineraries[vehicleID]
	return it, ok
}

// Pending, Scheduled, Rejected expose the current request sets.
func (s *Scheduler) Pending() []*model.Request   { return s.pending }
func (s *Scheduler) Scheduled() []*model.Request { return s.scheduled }
func (s *Scheduler) Rejected() []*model.Request  { return s.rejected }

// ModifiedItineraries returns the vehicle_id -> itinerary map populated
// since the last ClearModified call.
func (s *Scheduler) ModifiedItineraries() map[string]*model.Itinerary {
	return s.modifiedItineraries
}

// CycleDecisions returns every commit/reject decision made since the
// last ClearModified call, in the order they were made.
func (s *Scheduler) CycleDecisions() []Decision {
	return s.cycleDecisions
}

// ClearModified resets modified_itineraries and cycle_decisions at the
// start of a search cycle, and purges synthetic current-position stops
// left over from the previous cycle.
func (s *Scheduler) ClearModified() {
	s.modifiedItineraries = map[string]*model.Itinerary{}
	s.cycleDecisions = nil
	s.oracle.Stops().PurgeCurrentPositions()
}

// sortedVehicleIDs gives deterministic iteration order over itineraries,
// needed for reproducible search results and stable tie-breaking.
func (s *Scheduler) sortedVehicleIDs() []string {
	ids := make([]string, 0, len(s.itineraries))
	for id := range s.itineraries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Scheduler) commit(req *model.Request, ins *Insertion) {
	s.itineraries[ins.VehicleID] = ins.Itinerary
	s.modifiedItineraries[ins.VehicleID] = ins.Itinerary

	req.Status = model.Scheduled
	req.VehicleID = ins.VehicleID
	req.IndexSpu = ins.IndexSpu
	req.IndexSsd = ins.IndexSsd
	s.scheduled = append(s.scheduled, req)
	s.cycleDecisions = append(s.cycleDecisions, Decision{
		RequestID: req.PassengerID, VehicleID: ins.VehicleID, Accepted: true, CostDelta: ins.CostDelta,
	})
}

func (s *Scheduler) reject(req *model.Request) {
	req.Status = model.Rejected
	s.rejected = append(s.rejected, req)
	s.cycleDecisions = append(s.cycleDecisions, Decision{RequestID: req.PassengerID, Accepted: false})
}

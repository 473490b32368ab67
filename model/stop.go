// Package model holds the dispatch core's domain types: Stop, Request,
// Vehicle and Itinerary, plus the temporal-propagation and feasibility
// logic that operates on them.
package model

import (
	"drtdispatch/geo"
)

// noNeighbour is the sentinel used in place of a null sprev/snext
// pointer: stops never hold pointers to other stops, only indices into
// their owning Itinerary.Stops slice.
const noNeighbour = -1

// Stop is a point in space with a service time-window. Its
// itinerary-dependent fields (Prev, Next, Npass, Npres, LegTime, EAT,
// LDT, Slack, ArrivalTime, DepartureTime) are only meaningful while the
// stop is embedded in an Itinerary's Stops slice.
type Stop struct {
	ID          string
	Coords      geo.Coords
	StartTime   float64 // minutes since fleet-wide zero
	EndTime     float64
	ServiceTime float64
	PassengerID string // empty for the shift start/end stops

	// Prev/Next are indices into the owning Itinerary.Stops slice, or
	// noNeighbour. Never pointers: an Itinerary clone copies the indices
	// as they are and never aliases Stop values across copies.
	Prev, Next int

	Npass int // passengers aboard on departure from this stop
	Npres int // seats reserved on departure from this stop

	LegTime float64 // driving minutes to Next

	EAT, EATf float64
	LDT, LDTf float64
	Slack     float64

	ArrivalTime, DepartureTime float64
}

// Latest is end_time - service_time, the deadline for beginning service.
func (s *Stop) Latest() float64 {
	return s.EndTime - s.ServiceTime
}

// durationFn resolves duration_min(a, b) from the routing oracle; kept
// as a function value rather than an interface so Stop stays free of an
// oracle dependency cycle (the oracle operates on stop IDs, not *Stop).
type durationFn func(aID, bID string) (float64, error)

// Clone returns a value copy of the stop. Itinerary.Clone calls this for
// every element of its Stops slice; Prev/Next are copied as-is since
// they are position-relative indices, not pointers, and remain valid in
// the clone.
func (s *Stop) Clone() *Stop {
	c := *s
	return &c
}

// refresh applies the five propagation steps in the mandated order:
// leg_time -> EAT -> LDT -> slack -> arrival_departure. stops is the
// owning itinerary's sequence, which Prev/Next index into; duration resolves
// oracle durations by stop ID.
func refresh(stops []*Stop, i int, duration durationFn) error {
	s := stops[i]
	if err := setLegTime(stops, i, duration); err != nil {
		return err
	}
	setEAT(stops, i)
	setLDT(stops, i)
	setSlack(s)
	setArrivalDeparture(stops, i)
	return nil
}

func setLegTime(stops []*Stop, i int, duration durationFn) error {
	s := stops[i]
	if s.Next == noNeighbour {
		s.LegTime = 0
		return nil
	}
	d, err := duration(s.ID, stops[s.Next].ID)
	if err != nil {
		return err
	}
	s.LegTime = d
	return nil
}

func setEAT(stops []*Stop, i int) {
	s := stops[i]
	if s.Prev == noNeighbour {
		s.EAT = s.StartTime
		s.EATf = s.StartTime
		return
	}
	p := stops[s.Prev]
	s.EAT = max(p.StartTime, p.EAT) + p.ServiceTime + p.LegTime
	s.EATf = max(s.StartTime, s.EAT)
}

func setLDT(stops []*Stop, i int) {
	s := stops[i]
	if s.Next == noNeighbour {
		s.LDT = s.EndTime
		s.LDTf = s.EndTime
		return
	}
	n := stops[s.Next]
	s.LDT = min(n.EndTime, n.LDT) - n.ServiceTime - s.LegTime
	s.LDTf = min(s.EndTime, s.LDT)
}

func setSlack(s *Stop) {
	s.Slack = s.LDT - s.EAT - s.ServiceTime
}

func setArrivalDeparture(stops []*Stop, i int) {
	s := stops[i]
	if s.Prev == noNeighbour {
		s.ArrivalTime = s.StartTime
	} else {
		p := stops[s.Prev]
		s.ArrivalTime = max(s.StartTime+p.LegTime, s.EATf)
	}
	if s.Next == noNeighbour {
		s.DepartureTime = posInf
		return
	}
	n := stops[s.Next]
	s.DepartureTime = max(n.StartTime, n.EATf-s.LegTime)
}

const posInf = 1e18

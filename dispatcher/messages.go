// Package dispatcher runs the fleet-manager and per-vehicle state
// machines as goroutines connected by typed channels: the fleet manager
// polls for new requests, gathers vehicle positions, runs the scheduler,
// and pushes updated itineraries; each vehicle actor tracks its own
// position and reroutes in place when a pushed itinerary changes its
// immediately-next stop.
package dispatcher

import (
	"drtdispatch/geo"
	"drtdispatch/model"
)

// Message is the tagged union of dispatcher<->vehicle agent messages.
// Only the three types below satisfy it; a type switch, never a
// map/JSON-shape sniff, decides how a received Message is handled.
type Message interface {
	isMessage()
}

// PositionRequest is a dispatcher->vehicle position poll (performative
// REQUEST, body {"position": []}).
type PositionRequest struct {
	ID string
}

func (PositionRequest) isMessage() {}

// PositionReply is a vehicle->dispatcher reply (performative REQUEST,
// body {"current_pos": [lon,lat]}).
type PositionReply struct {
	ID        string
	VehicleID string
	Coords    geo.Coords
	AtIndex   int
	Moving    bool
}

func (PositionReply) isMessage() {}

// ItineraryPush is a dispatcher->vehicle plan push (performative INFORM,
// body {"new_itinerary": [stop...]}).
type ItineraryPush struct {
	ID        string
	Itinerary *model.Itinerary
}

func (ItineraryPush) isMessage() {}

package model

import "drtdispatch/geo"

// Vehicle is the static shift configuration a fleet member is loaded
// with: its capacity and the start/end stop and time window its
// itinerary is seeded from. Runtime position tracking lives on the
// Itinerary and in the dispatcher's vehicle actor, not here.
type Vehicle struct {
	ID        string
	Capacity  int
	SpeedKmph float64

	StartStopID string
	StartCoords geo.Coords
	EndStopID   string
	EndCoords   geo.Coords

	StartTime float64
	EndTime   float64
}

package model

import (
	"testing"

	"drtdispatch/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedGrid builds a distance/duration pair over a small set of named
// points: 1 km between any two distinct points, 2 minutes driving time,
// matching the trivial-accept scenario.
func fixedGrid() (DistanceFn, durationFn) {
	distance := func(a, b string) (float64, error) {
		if a == b {
			return 0, nil
		}
		return 1, nil
	}
	duration := func(a, b string) (float64, error) {
		if a == b {
			return 0, nil
		}
		return 2, nil
	}
	return distance, duration
}

func testVehicle() *Vehicle {
	return &Vehicle{
		ID:          "v1",
		Capacity:    4,
		SpeedKmph:   30,
		StartStopID: "v1-start",
		StartCoords: geo.Coords{Lat: 0, Lon: 0},
		EndStopID:   "v1-end",
		EndCoords:   geo.Coords{Lat: 0, Lon: 0},
		StartTime:   0,
		EndTime:     240,
	}
}

// S1 — trivial accept: one vehicle, one request that fits cleanly.
func TestItinerary_S1_TrivialAccept(t *testing.T) {
	distance, duration := fixedGrid()
	it, err := NewItinerary(testVehicle(), distance, duration)
	require.NoError(t, err)
	baseCost := it.Cost()

	req := NewRequest("c1", 1, 5,
		"A", geo.Coords{Lat: 0, Lon: 0}, 10, 30,
		"B", geo.Coords{Lat: 0, Lon: 1}, 12, 40,
		1.0, 15.0)

	ok, code, err := it.PickupFeasibility(req, 1)
	require.NoError(t, err)
	require.True(t, ok, "pickup feasible, code=%d", code)

	tentative := it.Clone()
	require.NoError(t, tentative.InsertStop(req.Spu.Clone(), 1, 0))
	okD, codeD, err := tentative.DropoffFeasibility(req, 2, 1)
	require.NoError(t, err)
	require.True(t, okD, "dropoff feasible, code=%d", codeD)

	require.NoError(t, it.InsertRequest(req.Spu, req.Ssd, 1, 2, req.Npass))

	assert.Equal(t, 1, req.Spu.Npass)
	assert.Equal(t, 0, req.Ssd.Npass)
	assert.Equal(t, 0, it.Stops[len(it.Stops)-1].Npass)
	assert.InDelta(t, 2.0, it.Cost()-baseCost, 1e-9)
}

// S2 — window rejection: the drop-off's forward-EAT test must reject a
// window too tight for the leg duration plus service time.
func TestItinerary_S2_WindowRejection(t *testing.T) {
	distance, duration := fixedGrid()
	it, err := NewItinerary(testVehicle(), distance, duration)
	require.NoError(t, err)

	req := NewRequest("c3", 1, 5,
		"A", geo.Coords{Lat: 0, Lon: 0}, 10, 30,
		"B", geo.Coords{Lat: 0, Lon: 1}, 11, 12,
		1.0, 15.0)

	ok, _, err := it.PickupFeasibility(req, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, it.InsertStop(req.Spu, 1, 0))

	ok, code, err := it.DropoffFeasibility(req, 2, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, CodeLocal, code)
}

// S3 — capacity rejection along the carrying segment.
func TestItinerary_S3_CapacityRejection(t *testing.T) {
	distance, duration := fixedGrid()
	v := testVehicle()
	v.Capacity = 2
	it, err := NewItinerary(v, distance, duration)
	require.NoError(t, err)

	seated := NewRequest("seated", 2, 0,
		"A", geo.Coords{Lat: 0, Lon: 0}, 0, 30,
		"B", geo.Coords{Lat: 0, Lon: 1}, 1, 60,
		1.0, 60.0)
	require.NoError(t, it.InsertRequest(seated.Spu, seated.Ssd, 1, 2, seated.Npass))

	overlapping := NewRequest("overlap", 2, 0,
		"A", geo.Coords{Lat: 0, Lon: 0}, 0, 30,
		"C", geo.Coords{Lat: 0, Lon: 2}, 1, 90,
		1.0, 60.0)

	okPickup, _, err := it.PickupFeasibility(overlapping, 1)
	require.NoError(t, err)
	require.True(t, okPickup)
	require.NoError(t, it.InsertStop(overlapping.Spu, 1, 0))

	okDrop, codeDrop, err := it.DropoffFeasibility(overlapping, 3, 1)
	require.NoError(t, err)
	assert.False(t, okDrop)
	assert.Equal(t, CodeLocal, codeDrop)
}

// Property 6: insert followed by remove restores the previous stop_list,
// temporal attributes, load and cost.
func TestItinerary_InsertRemove_RoundTrip(t *testing.T) {
	distance, duration := fixedGrid()
	it, err := NewItinerary(testVehicle(), distance, duration)
	require.NoError(t, err)

	before := it.Clone()

	s := &Stop{ID: "A", Coords: geo.Coords{Lat: 0, Lon: 0}, StartTime: 10, EndTime: 30}
	require.NoError(t, it.InsertStop(s, 1, 1))
	removed, err := it.RemoveStop(1)
	require.NoError(t, err)
	assert.Equal(t, "A", removed.ID)

	require.Len(t, it.Stops, len(before.Stops))
	for i := range it.Stops {
		assert.Equal(t, before.Stops[i].ID, it.Stops[i].ID)
		assert.InDelta(t, before.Stops[i].EAT, it.Stops[i].EAT, 1e-9)
		assert.InDelta(t, before.Stops[i].LDT, it.Stops[i].LDT, 1e-9)
		assert.Equal(t, before.Stops[i].Npass, it.Stops[i].Npass)
	}
	assert.InDelta(t, before.Cost(), it.Cost(), 1e-9)
}

// Property 10: get_vehicle_position_at_time returns (last, at_stop) for
// t >= end_time.
func TestItinerary_PositionAtTime_AfterEnd(t *testing.T) {
	distance, duration := fixedGrid()
	it, err := NewItinerary(testVehicle(), distance, duration)
	require.NoError(t, err)

	idx, status := it.PositionAtTime(1000)
	assert.Equal(t, len(it.Stops)-1, idx)
	assert.Equal(t, AtStop, status)
}

// S4 — monotone pruning: once a downstream stop's EAT exceeds the new
// pickup's latest, the remaining positions in that itinerary are never
// evaluated.
func TestItinerary_S4_MonotonePruning(t *testing.T) {
	distance, duration := fixedGrid()
	it, err := NewItinerary(testVehicle(), distance, duration)
	require.NoError(t, err)

	far := NewRequest("far", 1, 0,
		"X", geo.Coords{Lat: 0, Lon: 5}, 200, 205,
		"Y", geo.Coords{Lat: 0, Lon: 6}, 201, 206,
		1.0, 60.0)
	require.NoError(t, it.InsertRequest(far.Spu, far.Ssd, 1, 2, far.Npass))

	tight := NewRequest("tight", 1, 0,
		"A", geo.Coords{Lat: 0, Lon: 0}, 10, 12,
		"B", geo.Coords{Lat: 0, Lon: 1}, 12, 14,
		1.0, 15.0)

	_, code, err := it.PickupFeasibility(tight, 3)
	require.NoError(t, err)
	assert.Equal(t, CodeMonotone, code)
}

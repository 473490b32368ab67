package scheduler

import (
	"testing"

	"drtdispatch/config"
	"drtdispatch/geo"
	"drtdispatch/logging"
	"drtdispatch/model"
	"drtdispatch/routing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestOracle builds an Oracle over a tiny hand-built routes corpus: 1
// km / 2 min between any two of the named points, mirroring the S1
// scenario's fixed grid. No redis, no upstream fetch — a pure
// corpus-replay oracle, exactly the shape the oracle's tests exercise.
func newTestOracle(t *testing.T, points map[string]geo.Coords) *routing.Oracle {
	t.Helper()
	stops := routing.NewRegistry(points)
	corpus := map[string]routing.Entry{}
	for idA, a := range points {
		for idB, b := range points {
			if idA == idB {
				continue
			}
			corpus[geo.PairKey(a, b)] = routing.Entry{DistanceM: 1000, DurationS: 120}
		}
	}
	log := logging.New(logrus.ErrorLevel)
	return routing.New(stops, corpus, nil, nil, log)
}

func newTestVehicle(id string, capacity int) *model.Vehicle {
	return &model.Vehicle{
		ID: id, Capacity: capacity, SpeedKmph: 30,
		StartStopID: id + "-start", StartCoords: geo.Coords{Lat: 0, Lon: 0},
		EndStopID: id + "-end", EndCoords: geo.Coords{Lat: 0, Lon: 0},
		StartTime: 0, EndTime: 240,
	}
}

func newTestScheduler(t *testing.T, capacity int) (*Scheduler, *model.Vehicle) {
	t.Helper()
	v := newTestVehicle("v1", capacity)
	points := map[string]geo.Coords{
		v.StartStopID: v.StartCoords,
		v.EndStopID:   v.EndCoords,
		"A":           {Lat: 0, Lon: 1},
		"B":           {Lat: 0, Lon: 2},
		"C":           {Lat: 0, Lon: 3},
	}
	oracle := newTestOracle(t, points)
	cfg := config.SchedulerConfig{ServiceMinutesPerPassenger: 1.0, MaxWaitMinutes: 15.0, OrderingPolicy: OrderingIssuance, MinCostIterationCap: 5}
	log := logging.New(logrus.ErrorLevel)
	s := New(oracle, cfg, log)
	require.NoError(t, s.RegisterVehicle(v))
	return s, v
}

// S1 — trivial accept.
func TestScheduler_S1_TrivialAccept(t *testing.T) {
	s, _ := newTestScheduler(t, 4)
	req := model.NewRequest("c1", 1, 5,
		"A", geo.Coords{Lat: 0, Lon: 1}, 10, 30,
		"B", geo.Coords{Lat: 0, Lon: 2}, 12, 40,
		1.0, 15.0)
	s.AddRequest(req)

	modified, err := s.RunCycle(5)
	require.NoError(t, err)

	assert.Equal(t, model.Scheduled, req.Status)
	assert.Contains(t, modified, "v1")
	assert.Len(t, s.Rejected(), 0)
}

// S2 — window rejection on the forward-EAT drop-off test.
func TestScheduler_S2_WindowRejection(t *testing.T) {
	s, _ := newTestScheduler(t, 4)
	req := model.NewRequest("c3", 1, 5,
		"A", geo.Coords{Lat: 0, Lon: 1}, 10, 30,
		"B", geo.Coords{Lat: 0, Lon: 2}, 11, 12,
		1.0, 15.0)
	s.AddRequest(req)

	_, err := s.RunCycle(5)
	require.NoError(t, err)

	assert.Equal(t, model.Rejected, req.Status)
}

// S3 — capacity rejection: a second 2-passenger request whose carrying
// segment overlaps an already-seated 2-passenger trip on a
// capacity-2 vehicle.
func TestScheduler_S3_CapacityRejection(t *testing.T) {
	s, _ := newTestScheduler(t, 2)

	seated := model.NewRequest("seated", 2, 0,
		"A", geo.Coords{Lat: 0, Lon: 1}, 0, 60,
		"B", geo.Coords{Lat: 0, Lon: 2}, 1, 90,
		1.0, 60.0)
	s.AddRequest(seated)
	_, err := s.RunCycle(0)
	require.NoError(t, err)
	require.Equal(t, model.Scheduled, seated.Status)

	overlap := model.NewRequest("overlap", 2, 1,
		"A", geo.Coords{Lat: 0, Lon: 1}, 0, 60,
		"C", geo.Coords{Lat: 0, Lon: 3}, 1, 120,
		1.0, 60.0)
	s.AddRequest(overlap)
	_, err = s.RunCycle(1)
	require.NoError(t, err)

	assert.Equal(t, model.Rejected, overlap.Status)
}

// S6 — issuance-order determinism: two mutually exclusive requests, the
// earlier-issued one wins under the default policy.
func TestScheduler_S6_IssuanceOrderDeterminism(t *testing.T) {
	s, _ := newTestScheduler(t, 1)

	rb := model.NewRequest("r_b", 1, 6,
		"A", geo.Coords{Lat: 0, Lon: 1}, 10, 30,
		"B", geo.Coords{Lat: 0, Lon: 2}, 12, 60,
		1.0, 15.0)
	ra := model.NewRequest("r_a", 1, 5,
		"A", geo.Coords{Lat: 0, Lon: 1}, 10, 30,
		"C", geo.Coords{Lat: 0, Lon: 3}, 12, 60,
		1.0, 15.0)
	// Added out of issuance order; RunCycle must still sort by IssueTime.
	s.AddRequest(rb)
	s.AddRequest(ra)

	_, err := s.RunCycle(6)
	require.NoError(t, err)

	assert.Equal(t, model.Scheduled, ra.Status)
	assert.Equal(t, model.Rejected, rb.Status)
}

func TestScheduler_EmptyFleet_NoCandidates(t *testing.T) {
	oracle := newTestOracle(t, map[string]geo.Coords{"A": {Lat: 0, Lon: 1}, "B": {Lat: 0, Lon: 2}})
	cfg := config.SchedulerConfig{ServiceMinutesPerPassenger: 1.0, MaxWaitMinutes: 15.0, OrderingPolicy: OrderingIssuance, MinCostIterationCap: 5}
	s := New(oracle, cfg, logging.New(logrus.ErrorLevel))

	req := model.NewRequest("c1", 1, 0, "A", geo.Coords{Lat: 0, Lon: 1}, 0, 30, "B", geo.Coords{Lat: 0, Lon: 2}, 1, 60, 1.0, 15.0)
	best, feasible, err := s.search(req, 0)
	require.NoError(t, err)
	assert.Nil(t, best)
	assert.Empty(t, feasible)
}

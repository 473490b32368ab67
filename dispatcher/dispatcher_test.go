package dispatcher

import (
	"context"
	"testing"
	"time"

	"drtdispatch/config"
	"drtdispatch/geo"
	"drtdispatch/logging"
	"drtdispatch/model"
	"drtdispatch/routing"
	"drtdispatch/scheduler"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedOracle(t *testing.T, points map[string]geo.Coords) *routing.Oracle {
	t.Helper()
	stops := routing.NewRegistry(points)
	corpus := map[string]routing.Entry{}
	for idA, a := range points {
		for idB, b := range points {
			if idA == idB {
				continue
			}
			corpus[geo.PairKey(a, b)] = routing.Entry{DistanceM: 1000, DurationS: 60}
		}
	}
	return routing.New(stops, corpus, nil, nil, logging.New(logrus.ErrorLevel))
}

// TestFleetManager_S1_AcceptAndBroadcast drives one full WAITING ->
// REQUEST_POSITIONS -> UPDATE cycle and asserts that the vehicle actor
// has left WAITING (or advanced past its first stop) and that the
// request ends up scheduled.
func TestFleetManager_S1_AcceptAndBroadcast(t *testing.T) {
	v := &model.Vehicle{
		ID: "v1", Capacity: 4, SpeedKmph: 30,
		StartStopID: "v1-start", StartCoords: geo.Coords{Lat: 0, Lon: 0},
		EndStopID: "v1-end", EndCoords: geo.Coords{Lat: 0, Lon: 0},
		StartTime: 0, EndTime: 240,
	}
	points := map[string]geo.Coords{
		v.StartStopID: v.StartCoords, v.EndStopID: v.EndCoords,
		"A": {Lat: 0, Lon: 1}, "B": {Lat: 0, Lon: 2},
	}
	oracle := fixedOracle(t, points)

	cfg := config.SchedulerConfig{ServiceMinutesPerPassenger: 1.0, MaxWaitMinutes: 15.0, OrderingPolicy: scheduler.OrderingIssuance, MinCostIterationCap: 5}
	log := logging.New(logrus.ErrorLevel)
	sched := scheduler.New(oracle, cfg, log)
	require.NoError(t, sched.RegisterVehicle(v))

	it, _ := sched.Itinerary("v1")
	replies := make(chan Message, 8)
	actor := NewVehicleActor(it, replies, 0.0005, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go actor.Run(ctx)

	req := model.NewRequest("c1", 1, 0,
		"A", geo.Coords{Lat: 0, Lon: 1}, 10, 30,
		"B", geo.Coords{Lat: 0, Lon: 2}, 12, 40,
		1.0, 15.0)
	requests := make(chan *model.Request, 1)
	requests <- req

	dcfg := config.DispatcherConfig{WaitingPollPeriod: 10 * time.Millisecond, PositionReplyTimeout: 50 * time.Millisecond}
	fm := New(sched, map[string]*VehicleActor{"v1": actor}, requests, dcfg, log)

	runCtx, runCancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer runCancel()
	go fm.Run(runCtx)

	require.Eventually(t, func() bool {
		return actor.Snapshot().State != "waiting" || actor.Snapshot().IndexCurrent > 0
	}, 250*time.Millisecond, 5*time.Millisecond, "vehicle never departed towards the new itinerary")

	assert.Equal(t, model.Scheduled, req.Status)
}

// TestFleetManager_EmptyRequests_NoSchedulingCycle exercises WAITING
// looping forever on an empty request source: no request ever lands in
// scheduled or rejected.
func TestFleetManager_EmptyRequests_NoSchedulingCycle(t *testing.T) {
	v := &model.Vehicle{
		ID: "v1", Capacity: 4, SpeedKmph: 30,
		StartStopID: "v1-start", StartCoords: geo.Coords{Lat: 0, Lon: 0},
		EndStopID: "v1-end", EndCoords: geo.Coords{Lat: 0, Lon: 0},
		StartTime: 0, EndTime: 240,
	}
	points := map[string]geo.Coords{v.StartStopID: v.StartCoords, v.EndStopID: v.EndCoords}
	oracle := fixedOracle(t, points)
	cfg := config.SchedulerConfig{ServiceMinutesPerPassenger: 1.0, MaxWaitMinutes: 15.0, OrderingPolicy: scheduler.OrderingIssuance, MinCostIterationCap: 5}
	log := logging.New(logrus.ErrorLevel)
	sched := scheduler.New(oracle, cfg, log)
	require.NoError(t, sched.RegisterVehicle(v))

	it, _ := sched.Itinerary("v1")
	actor := NewVehicleActor(it, make(chan Message, 8), 0, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go actor.Run(ctx)

	requests := make(chan *model.Request)
	dcfg := config.DispatcherConfig{WaitingPollPeriod: 5 * time.Millisecond, PositionReplyTimeout: 20 * time.Millisecond}
	fm := New(sched, map[string]*VehicleActor{"v1": actor}, requests, dcfg, log)

	runCtx, runCancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer runCancel()
	go fm.Run(runCtx)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sched.Scheduled())
	assert.Empty(t, sched.Rejected())
}

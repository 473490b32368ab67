package corpus

import (
	"encoding/json"
	"fmt"
	"io"

	"drtdispatch/geo"
	"drtdispatch/model"
	"drtdispatch/routing"
)

// rawTransport mirrors one entry of config.transports.
type rawTransport struct {
	Name        string     `json:"name"`
	Position    [2]float64 `json:"position"`
	Destination [2]float64 `json:"destination"`
	Capacity    int        `json:"capacity"`
	Speed       float64    `json:"speed"`
	StartTime   float64    `json:"start_time"`
	EndTime     float64    `json:"end_time"`
}

// rawCustomer mirrors one entry of config.customers.
type rawCustomer struct {
	Name                string     `json:"name"`
	Position            [2]float64 `json:"position"`
	Destination         [2]float64 `json:"destination"`
	Npass               int        `json:"npass"`
	IssueTime           float64    `json:"issue_time"`
	OriginTimeIni       float64    `json:"origin_time_ini"`
	OriginTimeEnd       float64    `json:"origin_time_end"`
	DestinationTimeIni  float64    `json:"destination_time_ini"`
	DestinationTimeEnd  float64    `json:"destination_time_end"`
}

// ProblemConfig mirrors the scenario's configuration input.
type ProblemConfig struct {
	Transports []rawTransport `json:"transports"`
	Customers  []rawCustomer  `json:"customers"`
}

// LoadProblemConfig decodes the problem configuration JSON.
func LoadProblemConfig(r io.Reader) (ProblemConfig, error) {
	var cfg ProblemConfig
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return ProblemConfig{}, fmt.Errorf("decode problem config: %w", err)
	}
	return cfg, nil
}

// MaterializeVehicles builds one model.Vehicle per transport and
// registers its start/end stop coordinates into the stops registry,
// minting the "<name>-start"/"<name>-end" synthetic IDs.
func MaterializeVehicles(cfg ProblemConfig, stops *routing.Registry) []*model.Vehicle {
	out := make([]*model.Vehicle, 0, len(cfg.Transports))
	for _, t := range cfg.Transports {
		startID := t.Name + "-start"
		endID := t.Name + "-end"
		startCoords := geo.FromGeoJSON(t.Position)
		endCoords := geo.FromGeoJSON(t.Destination)
		stops.Register(startID, startCoords)
		stops.Register(endID, endCoords)
		out = append(out, &model.Vehicle{
			ID:          t.Name,
			Capacity:    t.Capacity,
			SpeedKmph:   t.Speed,
			StartStopID: startID,
			StartCoords: startCoords,
			EndStopID:   endID,
			EndCoords:   endCoords,
			StartTime:   t.StartTime,
			EndTime:     t.EndTime,
		})
	}
	return out
}

// MaterializeRequests builds one model.Request per customer and
// registers its origin/destination coordinates into the stops registry
// under the synthetic "<name>-origin-<issue_time>" / "<name>-destination-<issue_time>"
// IDs consistently, so every request's Spu/Ssd resolves in the
// stops corpus as soon as the request is materialized.
func MaterializeRequests(cfg ProblemConfig, stops *routing.Registry, servicePerPassenger, maxWaitMinutes float64) []*model.Request {
	out := make([]*model.Request, 0, len(cfg.Customers))
	for _, c := range cfg.Customers {
		spuID := fmt.Sprintf("%s-origin-%v", c.Name, c.IssueTime)
		ssdID := fmt.Sprintf("%s-destination-%v", c.Name, c.IssueTime)
		spuCoords := geo.FromGeoJSON(c.Position)
		ssdCoords := geo.FromGeoJSON(c.Destination)
		stops.Register(spuID, spuCoords)
		stops.Register(ssdID, ssdCoords)

		req := model.NewRequest(c.Name, c.Npass, c.IssueTime,
			spuID, spuCoords, c.OriginTimeIni, c.OriginTimeEnd,
			ssdID, ssdCoords, c.DestinationTimeIni, c.DestinationTimeEnd,
			servicePerPassenger, maxWaitMinutes)
		out = append(out, req)
	}
	return out
}

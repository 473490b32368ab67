// Package corpus loads the three input-file contracts: the stops
// corpus, the routes corpus, and the problem configuration (transports
// + customers). None of this is core dispatch logic; it is the glue
// that turns on-disk JSON into the types model/routing expect.
package corpus

import (
	"encoding/json"
	"fmt"
	"io"

	"drtdispatch/geo"
)

// rawStopFeature mirrors one feature of the stops corpus's
// FeatureCollection: {id, geometry.coordinates: [lon, lat], properties?}.
type rawStopFeature struct {
	ID       string          `json:"id"`
	Geometry rawGeometry     `json:"geometry"`
	Props    json.RawMessage `json:"properties,omitempty"`
}

type rawGeometry struct {
	Coordinates [2]float64 `json:"coordinates"`
}

type rawFeatureCollection struct {
	Type     string           `json:"type"`
	Features []rawStopFeature `json:"features"`
}

// LoadStops parses a stops-corpus FeatureCollection and returns a
// stop_id -> Coords map, converting the on-disk [lon, lat] convention to
// Coords at this single boundary.
func LoadStops(r io.Reader) (map[string]geo.Coords, error) {
	var fc rawFeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode stops corpus: %w", err)
	}
	out := make(map[string]geo.Coords, len(fc.Features))
	for _, f := range fc.Features {
		if f.ID == "" {
			return nil, fmt.Errorf("stops corpus: feature with empty id")
		}
		out[f.ID] = geo.FromGeoJSON(f.Geometry.Coordinates)
	}
	return out, nil
}

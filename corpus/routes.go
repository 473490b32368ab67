package corpus

import (
	"encoding/json"
	"fmt"
	"io"

	"drtdispatch/geo"
	"drtdispatch/routing"
)

// rawRouteEntry mirrors one routes-corpus value:
// {path: [[lat,lon], ...], distance_m, duration_s}. The corpus stores
// path points as [lat, lon], the opposite convention from the stops
// corpus's [lon, lat] geometry — both are converted to Coords at this
// boundary and never compared as raw pairs again.
type rawRouteEntry struct {
	Path       [][2]float64 `json:"path"`
	DistanceM  float64      `json:"distance_m"`
	DurationS  float64      `json:"duration_s"`
}

// LoadRoutes parses a routes-corpus JSON object keyed by
// "(lat,lon):(lat,lon)" into a map ready for routing.New. Same-point
// keys may be legitimately absent; the oracle returns zero for those
// without consulting this map.
func LoadRoutes(r io.Reader) (map[string]routing.Entry, error) {
	var raw map[string]rawRouteEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode routes corpus: %w", err)
	}
	out := make(map[string]routing.Entry, len(raw))
	for key, e := range raw {
		path := make([]geo.Coords, len(e.Path))
		for i, p := range e.Path {
			path[i] = geo.Coords{Lat: p[0], Lon: p[1]}
		}
		out[key] = routing.Entry{Path: path, DistanceM: e.DistanceM, DurationS: e.DurationS}
	}
	return out, nil
}

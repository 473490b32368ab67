package routing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"drtdispatch/geo"
)

// OSRMClient fetches a route from an OSRM-compatible HTTP service, the
// outbound contract:
// GET /route/v1/car/{lon1},{lat1};{lon2},{lat2}?geometries=geojson&overview=full
//
// No HTTP client library in the retrieved pack fits a single outbound
// GET better than net/http; this is a deliberate stdlib choice (see
// DESIGN.md).
type OSRMClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewOSRMClient builds a client with the given request timeout.
func NewOSRMClient(baseURL string, timeout time.Duration) *OSRMClient {
	return &OSRMClient{BaseURL: baseURL, HTTP: &http.Client{Timeout: timeout}}
}

type osrmResponse struct {
	Routes []struct {
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Fetch implements Fetcher.
func (c *OSRMClient) Fetch(a, b geo.Coords) (Entry, error) {
	url := fmt.Sprintf("%s/route/v1/car/%g,%g;%g,%g?geometries=geojson&overview=full",
		c.BaseURL, a.Lon, a.Lat, b.Lon, b.Lat)
	resp, err := c.HTTP.Get(url)
	if err != nil {
		return Entry{}, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Entry{}, fmt.Errorf("osrm request: status %d", resp.StatusCode)
	}
	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Entry{}, fmt.Errorf("osrm decode: %w", err)
	}
	if len(body.Routes) == 0 {
		return Entry{}, fmt.Errorf("osrm response: no routes")
	}
	r := body.Routes[0]
	path := make([]geo.Coords, len(r.Geometry.Coordinates))
	for i, p := range r.Geometry.Coordinates {
		path[i] = geo.FromGeoJSON(p)
	}
	return Entry{Path: path, DistanceM: r.Distance, DurationS: r.Duration}, nil
}

// Package geo holds the single place in this module that knows about the
// on-disk [lon, lat] convention. Other packages convert [lon, lat] pairs
// through it and work in Coords{Lat, Lon} past the I/O boundary; the
// routes corpus's [lat, lon] pairs are read and written by corpus.LoadRoutes
// and the recompute-distances command.
package geo

import (
	"math"
	"strconv"
)

// Coords is the in-memory coordinate representation used everywhere past
// the I/O boundary: lat, then lon.
type Coords struct {
	Lat float64
	Lon float64
}

// FromGeoJSON converts a [lon, lat] pair, as it appears in the stops
// corpus and the OSRM-style routing response, into Coords. This is the
// only function in the module allowed to interpret a raw [2]float64 as
// [lon, lat].
func FromGeoJSON(pair [2]float64) Coords {
	return Coords{Lat: pair[1], Lon: pair[0]}
}

// ToGeoJSON converts Coords back to the on-disk/wire [lon, lat] pair.
func ToGeoJSON(c Coords) [2]float64 {
	return [2]float64{c.Lon, c.Lat}
}

// earthRadiusKM is the mean Earth radius used for the geodesic fallback.
const earthRadiusKM = 6371.0088

// GeodesicKM returns the great-circle distance between two coordinates in
// kilometres, the straight-line alternative to an oracle's driven
// distance_km.
func GeodesicKM(a, b Coords) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	la1 := a.Lat * math.Pi / 180
	la2 := b.Lat * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKM * c
}

// PairKey formats two coordinates the way the routes corpus keys its
// entries: "(lat,lon):(lat,lon)".
func PairKey(a, b Coords) string {
	return "(" + ftoa(a.Lat) + "," + ftoa(a.Lon) + "):(" + ftoa(b.Lat) + "," + ftoa(b.Lon) + ")"
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

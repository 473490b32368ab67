// Package demandgen synthesizes customer requests for load-testing and
// simulation runs, the same way a BRT simulator synthesizes passenger
// arrivals: Poisson-sampled batch sizes, a hub/periphery gradient that
// concentrates demand toward a favored zone during a peak direction, and
// deterministic seeding via a caller-supplied *rand.Rand.
package demandgen

import (
	"fmt"
	"math"
	"math/rand"

	"drtdispatch/geo"
	"drtdispatch/model"
)

// Zone is a candidate request origin/destination: a named point, with Hub
// set for a transit hub; zoneWeight derives the selection weight from
// that flag and the Config.
type Zone struct {
	ID     string
	Coords geo.Coords
	Hub    bool
}

// Config shapes the synthetic demand pattern.
type Config struct {
	// HubBias skews direction choice toward or away from hub zones; 1.0
	// is unbiased, >1.0 favors hub-bound trips.
	HubBias float64
	// SpatialGradient in [0,1] concentrates origins near hub zones during
	// the favored direction; 0 disables the gradient (uniform origins).
	SpatialGradient float64
	// Npass is the passenger count assigned to every generated request.
	Npass int
	// ServiceMinutesPerPassenger and MaxWaitMinutes are carried straight
	// into model.NewRequest's window parameters.
	ServiceMinutesPerPassenger float64
	MaxWaitMinutes             float64
}

// poisson samples a Poisson-distributed count with the given mean, using
// Knuth's algorithm for small means and a normal approximation above 30
// (the same threshold and fallback as a stepwise passenger-arrival
// simulator).
func poisson(rng *rand.Rand, mean float64) int {
	if mean <= 0 {
		return 0
	}
	if mean > 30 {
		val := int(math.Round(rng.NormFloat64()*math.Sqrt(mean) + mean))
		if val < 0 {
			return 0
		}
		return val
	}
	l := math.Exp(-mean)
	k := 0
	p := 1.0
	for p > l {
		k++
		p *= rng.Float64()
	}
	return k - 1
}

// zoneWeight returns a zone's origin-selection weight: hub zones are
// boosted by SpatialGradient when toHub is true (the favored direction is
// "toward a hub"), and suppressed by HubBias otherwise.
func zoneWeight(z Zone, cfg Config, toHub bool) float64 {
	if cfg.SpatialGradient <= 0 {
		return 1.0
	}
	if toHub && z.Hub {
		return 1.0 + cfg.SpatialGradient
	}
	if !toHub && !z.Hub {
		return cfg.HubBias
	}
	return 1.0
}

func pickWeighted(rng *rand.Rand, zones []Zone, cfg Config, toHub bool, exclude string) Zone {
	weights := make([]float64, len(zones))
	sum := 0.0
	for i, z := range zones {
		w := zoneWeight(z, cfg, toHub)
		if z.ID == exclude {
			w = 0
		}
		weights[i] = w
		sum += w
	}
	if sum <= 0 {
		for _, z := range zones {
			if z.ID != exclude {
				return z
			}
		}
		return zones[0]
	}
	r := rng.Float64() * sum
	cum := 0.0
	for i, w := range weights {
		cum += w
		if r <= cum {
			return zones[i]
		}
	}
	return zones[len(zones)-1]
}

// GenerateBatch produces up to count synthetic requests at simulated time
// now, split between hub-bound and hub-averse trips according to
// cfg.HubBias. namePrefix disambiguates batches generated in the same
// run (e.g. "batch3-").
func GenerateBatch(rng *rand.Rand, zones []Zone, count int, now float64, namePrefix string, cfg Config) []*model.Request {
	if len(zones) < 2 || count <= 0 {
		return nil
	}
	pHub := cfg.HubBias / (cfg.HubBias + 1.0)

	out := make([]*model.Request, 0, count)
	for i := 0; i < count; i++ {
		toHub := rng.Float64() < pHub
		origin := pickWeighted(rng, zones, cfg, !toHub, "")
		dest := pickWeighted(rng, zones, cfg, toHub, origin.ID)

		name := fmt.Sprintf("%sp%d", namePrefix, i)
		spuID := fmt.Sprintf("%s-origin-%v", name, now)
		ssdID := fmt.Sprintf("%s-destination-%v", name, now)

		req := model.NewRequest(name, cfg.Npass, now,
			spuID, origin.Coords, now, now+cfg.MaxWaitMinutes,
			ssdID, dest.Coords, now, now+cfg.MaxWaitMinutes*4,
			cfg.ServiceMinutesPerPassenger, cfg.MaxWaitMinutes)
		out = append(out, req)
	}
	return out
}

// PoissonCount exposes the sampler for callers driving their own batch
// loop (e.g. one sample per simulated tick feeding GenerateBatch).
func PoissonCount(rng *rand.Rand, mean float64) int { return poisson(rng, mean) }

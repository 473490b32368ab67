// Package routing implements the routing-oracle contract: deterministic,
// cached driving distance/duration between two stop identifiers, backed
// by a pre-loaded routes corpus and an optional OSRM-style upstream
// fetch.
package routing

import (
	"fmt"
	"sync"

	"drtdispatch/errs"
	"drtdispatch/geo"
	"drtdispatch/logging"

	"github.com/redis/go-redis/v9"
)

// Entry is one routes-corpus record.
type Entry struct {
	Path      []geo.Coords
	DistanceM float64
	DurationS float64
}

// Fetcher performs the outbound OSRM-style HTTP call when the corpus has
// no entry for a pair. Implemented by *OSRMClient; nil disables upstream
// fetch entirely (a pure corpus-replay oracle, as used in tests).
type Fetcher interface {
	Fetch(a, b geo.Coords) (Entry, error)
}

// Oracle answers route/distance/duration queries for stop ID pairs,
// caching every result in-process (L1) and, if configured, in a shared
// redis instance (L2).
type Oracle struct {
	stops  *Registry
	corpus map[string]Entry

	l1 sync.Map // pairKey -> Entry

	redis *redis.Client
	fetch Fetcher

	log *logging.Logger
}

// New builds an Oracle over the given stop registry and pre-loaded
// routes corpus. redisClient and fetcher are both optional (nil
// disables that tier).
func New(stops *Registry, corpus map[string]Entry, redisClient *redis.Client, fetcher Fetcher, log *logging.Logger) *Oracle {
	if corpus == nil {
		corpus = map[string]Entry{}
	}
	return &Oracle{stops: stops, corpus: corpus, redis: redisClient, fetch: fetcher, log: log}
}

func (o *Oracle) resolve(aID, bID string) (geo.Coords, geo.Coords, string, error) {
	a, ok := o.stops.Coords(aID)
	if !ok {
		return geo.Coords{}, geo.Coords{}, "", fmt.Errorf("%w: %s", errs.ErrMissingStop, aID)
	}
	b, ok := o.stops.Coords(bID)
	if !ok {
		return geo.Coords{}, geo.Coords{}, "", fmt.Errorf("%w: %s", errs.ErrMissingStop, bID)
	}
	return a, b, geo.PairKey(a, b), nil
}

func (o *Oracle) route(aID, bID string) (Entry, error) {
	if aID == bID {
		return Entry{}, nil
	}
	a, b, key, err := o.resolve(aID, bID)
	if err != nil {
		return Entry{}, err
	}

	if v, ok := o.l1.Load(key); ok {
		return v.(Entry), nil
	}

	if o.redis != nil {
		if e, ok := o.loadFromRedis(key); ok {
			o.l1.Store(key, e)
			return e, nil
		}
	}

	if e, ok := o.corpus[key]; ok {
		o.l1.Store(key, e)
		o.storeToRedis(key, e)
		return e, nil
	}

	if o.fetch != nil {
		e, err := o.fetch.Fetch(a, b)
		if err == nil {
			o.l1.Store(key, e)
			o.storeToRedis(key, e)
			return e, nil
		}
		if o.log != nil {
			o.log.Warnw("upstream route fetch failed", "pair", key, "err", err.Error())
		}
	}

	return Entry{}, fmt.Errorf("%w: %s", errs.ErrMissingRoute, key)
}

// DistanceKM implements model.DistanceFn.
func (o *Oracle) DistanceKM(aID, bID string) (float64, error) {
	e, err := o.route(aID, bID)
	if err != nil {
		return 0, err
	}
	return e.DistanceM / 1000, nil
}

// DurationMin resolves duration_min(a, b); the signature model.Stop's
// durationFn (an unexported type) is defined against.
func (o *Oracle) DurationMin(aID, bID string) (float64, error) {
	e, err := o.route(aID, bID)
	if err != nil {
		return 0, err
	}
	return e.DurationS / 60, nil
}

// GeodesicKM is the straight-line alternative; it needs no cache, no
// corpus entry, and cannot fail with MissingRoute (only MissingStop).
func (o *Oracle) GeodesicKM(aID, bID string) (float64, error) {
	a, ok := o.stops.Coords(aID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", errs.ErrMissingStop, aID)
	}
	b, ok := o.stops.Coords(bID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", errs.ErrMissingStop, bID)
	}
	return geo.GeodesicKM(a, b), nil
}

// Stops exposes the underlying registry so the dispatcher can register
// synthetic current-position and customer stops.
func (o *Oracle) Stops() *Registry { return o.stops }

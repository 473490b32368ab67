// Package errs defines the sentinel error taxonomy shared across the
// dispatch core. Callers compare with errors.Is; wrapping is done with
// fmt.Errorf("...: %w", err) at each layer that adds context.
package errs

import "errors"

var (
	// ErrMissingStop: a coordinate has no matching corpus stop. Fatal for
	// the whole instance.
	ErrMissingStop = errors.New("missing stop")

	// ErrMissingRoute: the oracle has no entry for a required pair and no
	// fallback fetch. Fatal for the search step.
	ErrMissingRoute = errors.New("missing route")

	// ErrInfeasibleInsertion is a domain outcome, not a failure: it
	// surfaces through (ok, code) feasibility returns, never through this
	// sentinel in the hot path. Kept for callers that need to report the
	// outcome as an error (e.g. a synchronous one-shot scheduling API).
	ErrInfeasibleInsertion = errors.New("infeasible insertion")

	// ErrNoPositionReply: a vehicle failed to respond within the poll
	// window. Logged; the search cycle retries.
	ErrNoPositionReply = errors.New("no position reply")

	// ErrInconsistentItinerary: a commit would violate capacity,
	// ordering, or temporal monotonicity. Fatal; must not be patched
	// silently.
	ErrInconsistentItinerary = errors.New("inconsistent itinerary")
)

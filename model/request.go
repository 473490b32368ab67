package model

import "drtdispatch/geo"

// RequestStatus is the lifecycle state of a Request.
type RequestStatus int

const (
	Pending RequestStatus = iota
	Scheduled
	Rejected
)

func (s RequestStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Scheduled:
		return "scheduled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Request is a customer trip: a pickup stop Spu and a drop-off stop Ssd,
// each carrying a time window, waiting to be placed on some vehicle's
// itinerary.
type Request struct {
	PassengerID string
	Npass       int
	IssueTime   float64

	Spu *Stop
	Ssd *Stop

	Status       RequestStatus
	VehicleID    string // set once Scheduled
	IndexSpu     int    // position of Spu in the assigned itinerary
	IndexSsd     int
}

// ServiceTime returns SERVICE_MINUTES_PER_PASSENGER * npass, applied to
// both Spu and Ssd when the request is materialised (see
// NewRequest / config.SchedulerConfig.ServiceMinutesPerPassenger).
func ServiceTime(npass int, perPassenger float64) float64 {
	return perPassenger * float64(npass)
}

// NewRequest builds a detached Request from raw window bounds, applying
// the per-passenger service time to both Spu and Ssd and tightening
// origin_time_end by the system max-wait policy.
func NewRequest(passengerID string, npass int, issueTime float64,
	spuID string, spuCoords geo.Coords,
	originTimeIni, originTimeEnd float64,
	ssdID string, ssdCoords geo.Coords,
	destTimeIni, destTimeEnd float64,
	servicePerPassenger, maxWaitMinutes float64) *Request {

	serviceTime := ServiceTime(npass, servicePerPassenger)
	tightOriginEnd := originTimeEnd
	if originTimeIni+maxWaitMinutes < tightOriginEnd {
		tightOriginEnd = originTimeIni + maxWaitMinutes
	}

	spu := &Stop{
		ID:          spuID,
		Coords:      spuCoords,
		StartTime:   originTimeIni,
		EndTime:     tightOriginEnd,
		ServiceTime: serviceTime,
		PassengerID: passengerID,
		Prev:        noNeighbour,
		Next:        noNeighbour,
	}
	ssd := &Stop{
		ID:          ssdID,
		Coords:      ssdCoords,
		StartTime:   destTimeIni,
		EndTime:     destTimeEnd,
		ServiceTime: serviceTime,
		PassengerID: passengerID,
		Prev:        noNeighbour,
		Next:        noNeighbour,
	}

	return &Request{
		PassengerID: passengerID,
		Npass:       npass,
		IssueTime:   issueTime,
		Spu:         spu,
		Ssd:         ssd,
		Status:      Pending,
		IndexSpu:    -1,
		IndexSsd:    -1,
	}
}

package model

import "fmt"

// Feasibility result codes: CodeMonotone means later positions in this
// itinerary are guaranteed to fail too (abort the itinerary); CodeLocal
// means only this position failed (try the next one).
const (
	CodeMonotone = 0
	CodeLocal    = 1
)

// DistanceFn resolves distance_km(a, b) from the routing oracle.
type DistanceFn func(aID, bID string) (float64, error)

// Itinerary is the ordered stop sequence bound to one vehicle, plus its
// propagated temporal state and driven-kilometre cost. It always begins
// with the vehicle's shift-start stop and ends with its shift-end stop.
type Itinerary struct {
	VehicleID string
	Capacity  int
	Stops     []*Stop

	StartTime float64
	EndTime   float64

	TraveledKm float64

	Duration durationFn
	Distance DistanceFn
}

// NewItinerary seeds an itinerary from a vehicle's shift configuration
// with just its start and end stop.
func NewItinerary(v *Vehicle, distance DistanceFn, duration durationFn) (*Itinerary, error) {
	start := &Stop{
		ID: v.StartStopID, Coords: v.StartCoords,
		StartTime: v.StartTime, EndTime: posInf,
		Prev: noNeighbour, Next: 1,
	}
	end := &Stop{
		ID: v.EndStopID, Coords: v.EndCoords,
		StartTime: v.StartTime, EndTime: v.EndTime,
		Prev: 0, Next: noNeighbour,
	}
	it := &Itinerary{
		VehicleID: v.ID,
		Capacity:  v.Capacity,
		Stops:     []*Stop{start, end},
		StartTime: v.StartTime,
		EndTime:   v.EndTime,
		Duration:  duration,
		Distance:  distance,
	}
	if err := refresh(it.Stops, 0, duration); err != nil {
		return nil, err
	}
	if err := refresh(it.Stops, 1, duration); err != nil {
		return nil, err
	}
	// The start stop's LDT derives from the end stop's, which the refresh
	// just above sets; refresh the start stop again so it sees it.
	if err := refresh(it.Stops, 0, duration); err != nil {
		return nil, err
	}
	if err := it.recomputeCost(); err != nil {
		return nil, err
	}
	return it, nil
}

// Clone deep-copies the stop sequence (duplicating every *Stop) and
// returns an itinerary the search can mutate freely. Prev/Next indices
// need no re-linking: they are positions within the sequence, already
// valid in the copy.
func (it *Itinerary) Clone() *Itinerary {
	stops := make([]*Stop, len(it.Stops))
	for i, s := range it.Stops {
		stops[i] = s.Clone()
	}
	c := *it
	c.Stops = stops
	return &c
}

// Cost is the itinerary's objective: total driven kilometres.
func (it *Itinerary) Cost() float64 {
	return it.TraveledKm
}

func (it *Itinerary) relink() {
	n := len(it.Stops)
	for i, s := range it.Stops {
		if i == 0 {
			s.Prev = noNeighbour
		} else {
			s.Prev = i - 1
		}
		if i == n-1 {
			s.Next = noNeighbour
		} else {
			s.Next = i + 1
		}
	}
}

func (it *Itinerary) recomputeCost() error {
	total := 0.0
	for i := 0; i < len(it.Stops)-1; i++ {
		d, err := it.Distance(it.Stops[i].ID, it.Stops[i+1].ID)
		if err != nil {
			return err
		}
		total += d
	}
	it.TraveledKm = total
	return nil
}

// InsertStop places s at position i of Stops (0 < i < len(Stops)),
// rewires neighbours, propagates EAT forward and LDT backward, and
// updates load and cost.
func (it *Itinerary) InsertStop(s *Stop, i int, npass int) error {
	n := len(it.Stops)
	if i <= 0 || i >= n {
		return fmt.Errorf("insert index %d out of range [1,%d)", i, n)
	}
	stops := make([]*Stop, 0, n+1)
	stops = append(stops, it.Stops[:i]...)
	stops = append(stops, s)
	stops = append(stops, it.Stops[i:]...)
	it.Stops = stops
	it.relink()

	r, t := i-1, i+1

	if err := setLegTime(it.Stops, r, it.Duration); err != nil {
		return err
	}
	if err := setLegTime(it.Stops, i, it.Duration); err != nil {
		return err
	}
	setEAT(it.Stops, i)
	setLDT(it.Stops, i)
	setSlack(it.Stops[i])

	for j := i + 1; j < len(it.Stops); j++ {
		if err := refresh(it.Stops, j, it.Duration); err != nil {
			return err
		}
	}
	for j := i - 1; j >= 0; j-- {
		if err := refresh(it.Stops, j, it.Duration); err != nil {
			return err
		}
	}
	setArrivalDeparture(it.Stops, r)
	setArrivalDeparture(it.Stops, i)
	setArrivalDeparture(it.Stops, t)
	setSlack(it.Stops[r])
	setSlack(it.Stops[t])

	s.Npass = it.Stops[r].Npass + npass
	s.Npres = it.Stops[r].Npres + npass

	return it.recomputeCost()
}

// InsertRequest places a request's Spu then Ssd, patching the load of
// every stop the passenger actually rides: Spu and Ssd are each inserted
// with npass=0 (copying, not adding, the predecessor's load — "tentative"
// insertion, matching the feasibility tests' own inline +request.npass
// accounting), then every stop in [indexSpu, indexSsd) — Spu included,
// Ssd excluded — has npass/npres bumped by npass, and finally Ssd's own
// load is brought back down by npass since the passenger alights there.
// indexSsd is the position in the itinerary as it stands after Spu has
// already been inserted (the caller's search already computed it that
// way).
func (it *Itinerary) InsertRequest(spu, ssd *Stop, indexSpu, indexSsd, npass int) error {
	if err := it.InsertStop(spu, indexSpu, 0); err != nil {
		return err
	}
	for k := indexSpu; k < indexSsd; k++ {
		it.Stops[k].Npass += npass
		it.Stops[k].Npres += npass
	}
	if err := it.InsertStop(ssd, indexSsd, 0); err != nil {
		return err
	}
	ssd.Npass -= npass
	ssd.Npres -= npass
	return nil
}

// RemoveStop removes the stop at position i, re-wires its neighbours,
// propagates EAT forward and LDT backward, and recomputes cost.
func (it *Itinerary) RemoveStop(i int) (*Stop, error) {
	n := len(it.Stops)
	if i <= 0 || i >= n-1 {
		return nil, fmt.Errorf("remove index %d out of range [1,%d)", i, n-1)
	}
	removed := it.Stops[i]
	stops := make([]*Stop, 0, n-1)
	stops = append(stops, it.Stops[:i]...)
	stops = append(stops, it.Stops[i+1:]...)
	it.Stops = stops
	it.relink()

	r := i - 1
	if err := setLegTime(it.Stops, r, it.Duration); err != nil {
		return nil, err
	}
	for j := i; j < len(it.Stops); j++ {
		if err := refresh(it.Stops, j, it.Duration); err != nil {
			return nil, err
		}
	}
	for j := i - 1; j >= 0; j-- {
		if err := refresh(it.Stops, j, it.Duration); err != nil {
			return nil, err
		}
	}
	if err := it.recomputeCost(); err != nil {
		return nil, err
	}
	removed.Prev, removed.Next = noNeighbour, noNeighbour
	return removed, nil
}

// PickupFeasibility tests whether req.Spu can be inserted at position i
// (between Stops[i-1] and Stops[i]).
func (it *Itinerary) PickupFeasibility(req *Request, i int) (ok bool, code int, err error) {
	r, t := it.Stops[i-1], it.Stops[i]
	spu := req.Spu

	if r.EAT > spu.Latest() {
		return false, CodeMonotone, nil
	}
	if req.Npass > it.Capacity-r.Npass {
		return false, CodeLocal, nil
	}
	dRSpu, err := it.Duration(r.ID, spu.ID)
	if err != nil {
		return false, CodeLocal, err
	}
	spuEAT := max(r.StartTime, r.EAT) + r.ServiceTime + dRSpu
	if spuEAT > spu.Latest() {
		return false, CodeLocal, nil
	}
	dSpuT, err := it.Duration(spu.ID, t.ID)
	if err != nil {
		return false, CodeLocal, err
	}
	spuLDT := min(t.EndTime, t.LDT) - t.ServiceTime - dSpuT
	if spuLDT < max(spu.StartTime, spuEAT)+spu.ServiceTime {
		return false, CodeLocal, nil
	}
	return true, CodeLocal, nil
}

// DropoffFeasibility tests whether req.Ssd can be inserted at position j
// (between Stops[j-1] and Stops[j]), given a tentative Spu already
// committed at indexSpu.
func (it *Itinerary) DropoffFeasibility(req *Request, j int, indexSpu int) (ok bool, code int, err error) {
	r, t := it.Stops[j-1], it.Stops[j]
	ssd := req.Ssd

	if r.EAT > ssd.Latest() {
		return false, CodeMonotone, nil
	}
	for k := indexSpu; k < j; k++ {
		if it.Stops[k].Npass+req.Npass > it.Capacity {
			return false, CodeLocal, nil
		}
	}
	dRSsd, err := it.Duration(r.ID, ssd.ID)
	if err != nil {
		return false, CodeLocal, err
	}
	ssdEAT := max(r.StartTime, r.EAT) + r.ServiceTime + dRSsd
	if ssdEAT > ssd.Latest() {
		return false, CodeLocal, nil
	}
	dSsdT, err := it.Duration(ssd.ID, t.ID)
	if err != nil {
		return false, CodeLocal, err
	}
	ssdLDT := min(t.EndTime, t.LDT) - t.ServiceTime - dSsdT
	if ssdLDT < max(ssd.StartTime, ssdEAT)+ssd.ServiceTime {
		return false, CodeLocal, nil
	}
	return true, CodeLocal, nil
}

// VehicleStatus is the result of PositionAtTime.
type VehicleStatus int

const (
	AtStop VehicleStatus = iota
	TravellingToStop
)

func (s VehicleStatus) String() string {
	if s == AtStop {
		return "at_stop"
	}
	return "travelling_to_stop"
}

// PositionAtTime returns the stop index the vehicle is at or travelling
// towards at time t, and its status.
func (it *Itinerary) PositionAtTime(t float64) (int, VehicleStatus) {
	n := len(it.Stops)
	if t >= it.EndTime {
		return n - 1, AtStop
	}
	for i, s := range it.Stops {
		if s.ArrivalTime <= t && t <= s.DepartureTime {
			return i, AtStop
		}
		if i+1 < n && it.Stops[i+1].ArrivalTime > t {
			return i, TravellingToStop
		}
	}
	return n - 1, AtStop
}

// CustomerWait is Spu.arrival_time - Spu.start_time.
func (it *Itinerary) CustomerWait(indexSpu int) float64 {
	s := it.Stops[indexSpu]
	return s.ArrivalTime - s.StartTime
}

// CustomerOnboard is the time between boarding and alighting.
func (it *Itinerary) CustomerOnboard(indexSpu, indexSsd int) float64 {
	spu, ssd := it.Stops[indexSpu], it.Stops[indexSsd]
	return (ssd.ArrivalTime + ssd.ServiceTime) - (spu.ArrivalTime + spu.ServiceTime)
}

// TripKms sums leg distances over the carrying segment [indexSpu, indexSsd].
func (it *Itinerary) TripKms(indexSpu, indexSsd int) (float64, error) {
	total := 0.0
	for k := indexSpu; k < indexSsd; k++ {
		d, err := it.Distance(it.Stops[k].ID, it.Stops[k+1].ID)
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

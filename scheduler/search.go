package scheduler

import (
	"math"

	"drtdispatch/model"
)

// search runs the per-request insertion search across
// every itinerary and returns the globally cheapest feasible placement
// (nil if none exists) plus every feasible insertion found.
func (s *Scheduler) search(req *model.Request, issueTime float64) (best *Insertion, feasible []*Insertion, err error) {
	// Pre-fetch Spu->Ssd so a MissingRoute surfaces before the per-vehicle
	// search begins, matching the oracle's route(a,b) contract.
	if _, derr := s.oracle.DistanceKM(req.Spu.ID, req.Ssd.ID); derr != nil {
		return nil, nil, derr
	}

	minDelta := math.Inf(1)

	for _, vehicleID := range s.sortedVehicleIDs() {
		authoritative := s.itineraries[vehicleID]
		candidate := authoritative.Clone()

		indexCurrent, status := candidate.PositionAtTime(issueTime)
		if status == model.TravellingToStop {
			if pos, ok := s.transportPositions[vehicleID]; ok {
				curID := vehicleID + "-current-0"
				s.oracle.Stops().Register(curID, pos)
				cur := &model.Stop{ID: curID, Coords: pos, StartTime: issueTime, EndTime: candidate.EndTime}
				if ierr := candidate.InsertStop(cur, indexCurrent+1, 0); ierr != nil {
					return nil, nil, ierr
				}
				indexCurrent++
			}
		}

		baseCost := candidate.Cost()

		for indexSpu := indexCurrent + 1; indexSpu < len(candidate.Stops); indexSpu++ {
			ok, code, ferr := candidate.PickupFeasibility(req, indexSpu)
			if ferr != nil {
				return nil, nil, ferr
			}
			if !ok {
				if code == model.CodeMonotone {
					s.MonotoneAborts++
					break
				}
				continue
			}

			// Tentative Spu: npass=0 (copies the predecessor's load rather
			// than adding to it), matching DropoffFeasibility's own inline
			// "+request.npass" capacity accounting below.
			withSpu := candidate.Clone()
			if ierr := withSpu.InsertStop(req.Spu.Clone(), indexSpu, 0); ierr != nil {
				return nil, nil, ierr
			}
			deltaSpu := withSpu.Cost() - baseCost
			if deltaSpu >= minDelta {
				continue
			}

			for indexSsd := indexSpu + 1; indexSsd < len(withSpu.Stops); indexSsd++ {
				okD, codeD, ferrD := withSpu.DropoffFeasibility(req, indexSsd, indexSpu)
				if ferrD != nil {
					return nil, nil, ferrD
				}
				if !okD {
					if codeD == model.CodeMonotone {
						break
					}
					continue
				}

				withBoth := candidate.Clone()
				if ierr := withBoth.InsertRequest(req.Spu.Clone(), req.Ssd.Clone(), indexSpu, indexSsd, req.Npass); ierr != nil {
					return nil, nil, ierr
				}
				deltaBoth := withBoth.Cost() - baseCost

				ins := &Insertion{
					VehicleID: vehicleID,
					IndexSpu:  indexSpu,
					IndexSsd:  indexSsd,
					CostDelta: deltaBoth,
					Itinerary: withBoth,
				}
				feasible = append(feasible, ins)

				if deltaBoth < minDelta {
					minDelta = deltaBoth
					best = ins
				}
			}
		}
	}

	return best, feasible, nil
}

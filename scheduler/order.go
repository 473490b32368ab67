package scheduler

import (
	"sort"

	"drtdispatch/model"
)

// OrderingIssuance and OrderingMinCost name the two supported policies;
// exactly one runs per problem instance, selected by
// config.SchedulerConfig.OrderingPolicy.
const (
	OrderingIssuance = "issuance"
	OrderingMinCost  = "min_cost"
)

// RunCycle drains the pending set using the configured ordering policy
// and returns the vehicles whose itinerary changed this cycle.
func (s *Scheduler) RunCycle(issueTime float64) (map[string]*model.Itinerary, error) {
	s.ClearModified()
	switch s.cfg.OrderingPolicy {
	case OrderingMinCost:
		if err := s.runMinCost(issueTime); err != nil {
			return nil, err
		}
	default:
		if err := s.runIssuanceOrder(issueTime); err != nil {
			return nil, err
		}
	}
	return s.modifiedItineraries, nil
}

// runIssuanceOrder drains pending_requests FIFO by issue_time: each
// request is either committed or moved to rejected_requests, in order.
func (s *Scheduler) runIssuanceOrder(issueTime float64) error {
	batch := s.pending
	s.pending = nil

	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].IssueTime < batch[j].IssueTime
	})

	for _, req := range batch {
		best, _, err := s.search(req, issueTime)
		if err != nil {
			return err
		}
		if best == nil {
			s.reject(req)
			continue
		}
		s.commit(req, best)
	}
	return nil
}

// runMinCost repeatedly searches every still-pending request and commits
// the globally cheapest insertion, until pending is empty or the
// iteration budget (MinCostIterationCap * |initial pending|) is spent.
// Any request with no feasible insertion in a round where at least one
// other request was committed stays pending for the next round; once a
// round commits nothing, every remaining request is unschedulable and is
// rejected.
func (s *Scheduler) runMinCost(issueTime float64) error {
	batch := s.pending
	s.pending = nil

	budget := s.cfg.MinCostIterationCap * len(batch)
	iterations := 0

	for len(batch) > 0 && iterations < budget {
		var bestReq *model.Request
		var bestIns *Insertion

		for _, req := range batch {
			ins, _, err := s.search(req, issueTime)
			if err != nil {
				return err
			}
			if ins == nil {
				continue
			}
			if bestIns == nil || ins.CostDelta < bestIns.CostDelta {
				bestIns = ins
				bestReq = req
			}
		}

		iterations++

		if bestIns == nil {
			for _, req := range batch {
				s.reject(req)
			}
			return nil
		}

		s.commit(bestReq, bestIns)
		batch = removeRequest(batch, bestReq)
	}

	for _, req := range batch {
		s.reject(req)
	}
	return nil
}

func removeRequest(batch []*model.Request, target *model.Request) []*model.Request {
	out := make([]*model.Request, 0, len(batch)-1)
	for _, r := range batch {
		if r != target {
			out = append(out, r)
		}
	}
	return out
}

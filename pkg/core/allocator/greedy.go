package allocator

import "github.com/jakechorley/seatplanner/pkg/core/model"

const reasonNoFreeSeats = "no free seats remain"

// greedy seats employees one at a time in priority order, each at the best
// scoring feasible free seat
func (r *run) greedy() {
	for _, employee := range RankEmployees(r.snap.Employees) {
		if _, seated := r.layout.SeatOf(employee.ID); seated {
			continue
		}

		free := r.layout.FreeSeats()
		if len(free) == 0 {
			r.markUnallocated(employee.ID, reasonNoFreeSeats, nil)
			continue
		}

		best, blocking, found := r.bestSeat(employee, free)
		if !found {
			violations := dedupeViolations(blocking)
			r.markUnallocated(employee.ID, SummarizeViolations(violations), violations)
			continue
		}

		r.layout.Place(employee.ID, best.ID)
	}
}

// bestSeat returns the highest scoring feasible seat that leaves every
// already seated employee feasible. Ties go to the first seat in roster
// order. When nothing qualifies the blocking violations are returned instead.
func (r *run) bestSeat(employee *model.Employee, seats []*model.Seat) (*model.Seat, []Violation, bool) {
	var best *model.Seat
	var bestScore float64
	var blocking []Violation

	for _, seat := range seats {
		candidate, ok := r.snap.Candidate(seat.ID)
		if !ok {
			continue
		}

		moves := []move{{employeeID: employee.ID, seatID: seat.ID}}
		view := r.layout.With(moves...)
		eval := r.evaluator.Evaluate(view, employee, candidate)
		if !eval.Feasible {
			blocking = append(blocking, eval.Mandatory()...)
			continue
		}
		if broken := r.brokenNeighbours(view, moves); len(broken) > 0 {
			blocking = append(blocking, broken...)
			continue
		}

		score := r.scorer.Score(view, employee, candidate, eval)
		if best == nil || score > bestScore {
			best = seat
			bestScore = score
		}
	}

	if best == nil {
		return nil, blocking, false
	}
	return best, nil, true
}

package allocator

import (
	"fmt"
	"slices"

	"github.com/jakechorley/seatplanner/pkg/core/model"
)

// optimize improves the greedy layout with local search. Each iteration
// tries pairwise swaps then insertions of unallocated employees. It stops at
// the first iteration that changes nothing, or after MaxIterations.
//
// The total score never decreases: every accepted move is checked against a
// full recomputation.
func (r *run) optimize() {
	total := r.totalScore(r.layout)
	r.history = append(r.history, total)

	for r.iterations < r.cfg.MaxIterations {
		r.iterations++

		swapped := r.swapPass(&total)
		inserted := r.insertionPass(&total)

		r.history = append(r.history, total)

		if !swapped && !inserted {
			break
		}
	}
}

// swapPass tries every pair of movable employees in seat order and commits
// each improving swap as soon as it is found
func (r *run) swapPass(total *float64) bool {
	improved := false
	movable := r.layout.Movable()

	for i := 0; i < len(movable); i++ {
		for j := i + 1; j < len(movable); j++ {
			newTotal, ok := r.trySwap(movable[i], movable[j], *total)
			if !ok {
				continue
			}
			*total = newTotal
			improved = true
		}
	}

	return improved
}

func (r *run) trySwap(a, b string, total float64) (float64, bool) {
	seatA, okA := r.layout.SeatOf(a)
	seatB, okB := r.layout.SeatOf(b)
	if !okA || !okB || seatA == seatB {
		return 0, false
	}

	oldA, _, _ := r.scoreAt(r.layout, a)
	oldB, _, _ := r.scoreAt(r.layout, b)

	moves := []move{{employeeID: a, seatID: seatB}, {employeeID: b, seatID: seatA}}
	view := r.layout.With(moves...)

	newA, evalA, _ := r.scoreAt(view, a)
	if !evalA.Feasible {
		return 0, false
	}
	newB, evalB, _ := r.scoreAt(view, b)
	if !evalB.Feasible {
		return 0, false
	}
	if newA+newB <= oldA+oldB {
		return 0, false
	}

	return r.commitIfBetter(view, moves, total)
}

// insertionPass tries to seat each unallocated employee, first directly in a
// free seat, then by relocating an occupant to a free seat
func (r *run) insertionPass(total *float64) bool {
	improved := false
	pending := make([]string, 0, len(r.unallocated))
	for _, u := range r.unallocated {
		pending = append(pending, u.EmployeeID)
	}

	for _, employeeID := range pending {
		employee, ok := r.snap.Employee(employeeID)
		if !ok {
			continue
		}
		if newTotal, ok := r.tryDirectPlacement(employee, *total); ok {
			*total = newTotal
			r.clearUnallocated(employeeID)
			improved = true
			continue
		}
		if newTotal, ok := r.tryRelocation(employee, *total); ok {
			*total = newTotal
			r.clearUnallocated(employeeID)
			improved = true
		}
	}

	return improved
}

func (r *run) tryDirectPlacement(employee *model.Employee, total float64) (float64, bool) {
	seat, _, found := r.bestSeat(employee, r.layout.FreeSeats())
	if !found {
		return 0, false
	}
	moves := []move{{employeeID: employee.ID, seatID: seat.ID}}
	return r.commitIfBetter(r.layout.With(moves...), moves, total)
}

// tryRelocation moves an occupant v from seat s to a free seat f so the
// unallocated employee u can take s
func (r *run) tryRelocation(u *model.Employee, total float64) (float64, bool) {
	free := r.layout.FreeSeats()
	if len(free) == 0 {
		return 0, false
	}

	for _, v := range r.layout.Movable() {
		s, _ := r.layout.SeatOf(v)
		oldV, _, _ := r.scoreAt(r.layout, v)

		for _, f := range free {
			moves := []move{{employeeID: u.ID, seatID: s}, {employeeID: v, seatID: f.ID}}
			view := r.layout.With(moves...)

			newU, evalU, _ := r.scoreAt(view, u.ID)
			if !evalU.Feasible {
				continue
			}
			newV, evalV, _ := r.scoreAt(view, v)
			if !evalV.Feasible {
				continue
			}
			if newU+newV-oldV <= 0 {
				continue
			}

			if newTotal, ok := r.commitIfBetter(view, moves, total); ok {
				return newTotal, true
			}
		}
	}

	return 0, false
}

// commitIfBetter applies moves when no neighbour becomes infeasible and
// the recomputed total rises. A move that leaves the total unchanged is not
// an improvement, so it cannot keep the search running.
func (r *run) commitIfBetter(view Occupancy, moves []move, total float64) (float64, bool) {
	if len(r.brokenNeighbours(view, moves)) > 0 {
		return 0, false
	}

	newTotal := r.totalScore(view)
	if newTotal <= total {
		return 0, false
	}

	r.layout.apply(moves...)
	return newTotal, true
}

// brokenNeighbours returns the mandatory violations that moves introduce for
// seated employees other than the movers. Only employees that were feasible
// before the moves count; existing problems are left to validation.
func (r *run) brokenNeighbours(view Occupancy, moves []move) []Violation {
	movers := make(map[string]bool, len(moves))
	var resources []string
	touch := func(resourceID string) {
		if resourceID == "" || slices.Contains(resources, resourceID) {
			return
		}
		resources = append(resources, resourceID)
	}
	for _, m := range moves {
		movers[m.employeeID] = true
		if old, ok := r.layout.SeatOf(m.employeeID); ok {
			if seat, ok := r.snap.Seat(old); ok {
				touch(seat.ResourceID)
			}
		}
		if seat, ok := r.snap.Seat(m.seatID); ok {
			touch(seat.ResourceID)
		}
	}
	for _, resourceID := range slices.Clone(resources) {
		for _, adjacent := range r.snap.AdjacentResources(resourceID) {
			touch(adjacent)
		}
	}

	var affected []string
	add := func(id string) {
		if !movers[id] && !slices.Contains(affected, id) {
			affected = append(affected, id)
		}
	}
	for _, resourceID := range resources {
		for _, id := range r.layout.OccupantsOf(resourceID) {
			add(id)
		}
	}
	for _, m := range moves {
		for _, id := range r.snap.ReferencedBy(m.employeeID) {
			add(id)
		}
	}

	var broken []Violation
	for _, id := range affected {
		before, ok := r.evaluator.EvaluateAt(r.layout, id)
		if !ok || !before.Feasible {
			continue
		}
		after, ok := r.evaluator.EvaluateAt(view, id)
		if !ok || after.Feasible {
			continue
		}
		for _, v := range after.Mandatory() {
			broken = append(broken, Violation{
				Type:        v.Type,
				Severity:    model.SeverityMust,
				Description: fmt.Sprintf("would break %s: %s", id, v.Description),
				Related:     []string{id},
			})
		}
	}
	return broken
}

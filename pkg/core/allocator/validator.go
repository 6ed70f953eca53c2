package allocator

import (
	"fmt"

	"github.com/jakechorley/seatplanner/pkg/core/model"
)

// validate settles the layout and builds the batch result. From here on the
// layout is judged as final. Allocations that still break a mandatory
// constraint are revoked; the engine never commits one. Revoking can free
// seats that an earlier placement was blocking, so insertion runs again
// until it stops placing anyone.
func (r *run) validate() (*BatchResult, error) {
	r.evaluator = r.evaluator.Final()
	r.settle()
	for round := 0; round < r.cfg.MaxIterations; round++ {
		total := r.totalScore(r.layout)
		if !r.insertionPass(&total) {
			break
		}
		r.settle()
	}

	if err := r.checkUniqueness(); err != nil {
		return nil, err
	}

	result := &BatchResult{
		Unallocated:  r.unallocated,
		Iterations:   r.iterations,
		ScoreHistory: r.history,
	}

	from, to := r.cfg.PeriodStart, r.cfg.PeriodEnd
	for _, a := range r.layout.Allocations() {
		score, eval, _ := r.scoreAt(r.layout, a.EmployeeID)
		a.Score = score
		a.From, a.To = from, to
		result.Allocated = append(result.Allocated, a)

		for _, v := range dedupeViolations(eval.Soft()) {
			result.ConstraintViolations = append(result.ConstraintViolations, AuditEntry{
				EmployeeID: a.EmployeeID,
				SeatID:     a.SeatID,
				Violation:  v,
			})
		}
	}

	result.TotalScore = r.totalScore(r.layout)
	return result, nil
}

// settle revokes non-fixed placements that are infeasible in the final
// layout, or that push a resource past its capacity, until nothing changes
func (r *run) settle() {
	for {
		changed := false

		for _, employeeID := range r.layout.Movable() {
			eval, ok := r.evaluator.EvaluateAt(r.layout, employeeID)
			if !ok || eval.Feasible {
				continue
			}
			violations := dedupeViolations(eval.Mandatory())
			r.layout.Remove(employeeID)
			r.markUnallocated(employeeID, SummarizeViolations(violations), violations)
			changed = true
		}

		for _, resource := range r.snap.Resources {
			employeeID, v, over := r.overCapacity(resource)
			if !over {
				continue
			}
			r.layout.Remove(employeeID)
			r.markUnallocated(employeeID, SummarizeViolations([]Violation{v}), []Violation{v})
			changed = true
		}

		if !changed {
			return
		}
	}
}

// overCapacity checks peak concurrent occupancy of a resource per day and
// hour. When the peak exceeds capacity it returns the last movable occupant
// in seat order.
func (r *run) overCapacity(resource *model.Resource) (string, Violation, bool) {
	occupants := r.layout.OccupantsOf(resource.ID)
	capacity := r.snap.Capacity(resource.ID)
	if len(occupants) <= capacity {
		return "", Violation{}, false
	}

	day, hour, peak := r.peakOccupancy(occupants)
	if peak <= capacity {
		return "", Violation{}, false
	}

	for i := len(occupants) - 1; i >= 0; i-- {
		id := occupants[i]
		if r.layout.IsFixed(id) || !r.snap.calendars[id].works(day, hour) {
			continue
		}
		return id, Violation{
			Type:        ViolationSchedule,
			Severity:    model.SeverityMust,
			Description: fmt.Sprintf("resource %s holds %d people at %s %02d:00, capacity is %d", resource.ID, peak, day, hour, capacity),
		}, true
	}
	return "", Violation{}, false
}

// peakOccupancy returns the busiest (day, hour) slot across the run window
func (r *run) peakOccupancy(employeeIDs []string) (string, int, int) {
	start, end := r.snap.Period()
	var peakDay string
	peakHour, peak := 0, 0

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := d.Format(dayLayout)
		for hour := 0; hour < 24; hour++ {
			count := 0
			for _, id := range employeeIDs {
				if cal := r.snap.calendars[id]; cal != nil && cal.works(day, hour) {
					count++
				}
			}
			if count > peak {
				peakDay, peakHour, peak = day, hour, count
			}
		}
	}
	return peakDay, peakHour, peak
}

// checkUniqueness guards the layout invariants: one seat per employee and
// one employee per seat
func (r *run) checkUniqueness() error {
	held := make(map[string]string, len(r.layout.seatOf))
	for employeeID, seatID := range r.layout.seatOf {
		if other, dup := held[seatID]; dup {
			return fmt.Errorf("seat %s is held by both %s and %s", seatID, other, employeeID)
		}
		held[seatID] = employeeID
		if occupant := r.layout.occupantOf[seatID]; occupant != employeeID {
			return fmt.Errorf("employee %s is recorded at seat %s held by %q", employeeID, seatID, occupant)
		}
	}
	if len(r.layout.occupantOf) != len(r.layout.seatOf) {
		return fmt.Errorf("layout holds %d seats for %d employees", len(r.layout.occupantOf), len(r.layout.seatOf))
	}
	return nil
}

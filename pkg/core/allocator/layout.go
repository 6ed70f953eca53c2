package allocator

import "github.com/jakechorley/seatplanner/pkg/core/model"

// Occupancy is a read-only view of who sits where.
// Layout implements it, and so do hypothetical views built with Layout.With.
type Occupancy interface {
	// SeatOf returns the seat held by an employee
	SeatOf(employeeID string) (string, bool)

	// OccupantOf returns the employee holding a seat
	OccupantOf(seatID string) (string, bool)

	// OccupantsOf returns the employees seated at a resource, in seat order
	OccupantsOf(resourceID string) []string
}

// move relocates an employee. An empty seatID unseats them.
type move struct {
	employeeID string
	seatID     string
}

// Layout is the mutable seat assignment for a run. Employee and seat
// records live in the Snapshot; the layout only holds id references, so
// hypothetical moves never touch the records themselves.
type Layout struct {
	snap       *Snapshot
	seatOf     map[string]string
	occupantOf map[string]string
	fixed      map[string]bool
}

// NewLayout seeds a layout with the snapshot's holding allocations. Those
// placements are fixed: the optimizer never moves them.
func NewLayout(snap *Snapshot) *Layout {
	l := &Layout{
		snap:       snap,
		seatOf:     make(map[string]string),
		occupantOf: make(map[string]string),
		fixed:      make(map[string]bool),
	}
	for _, a := range snap.Holding {
		l.Place(a.EmployeeID, a.SeatID)
		l.fixed[a.EmployeeID] = true
	}
	return l
}

func (l *Layout) SeatOf(employeeID string) (string, bool) {
	seatID, ok := l.seatOf[employeeID]
	return seatID, ok
}

func (l *Layout) OccupantOf(seatID string) (string, bool) {
	employeeID, ok := l.occupantOf[seatID]
	return employeeID, ok
}

func (l *Layout) OccupantsOf(resourceID string) []string {
	return occupantsOf(l, l.snap, resourceID)
}

// IsFixed returns true for placements loaded from existing allocations
func (l *Layout) IsFixed(employeeID string) bool {
	return l.fixed[employeeID]
}

// Place seats an employee, releasing any seat they held before
func (l *Layout) Place(employeeID, seatID string) {
	l.Remove(employeeID)
	if previous, ok := l.occupantOf[seatID]; ok {
		delete(l.seatOf, previous)
	}
	l.seatOf[employeeID] = seatID
	l.occupantOf[seatID] = employeeID
}

// Remove unseats an employee
func (l *Layout) Remove(employeeID string) {
	if seatID, ok := l.seatOf[employeeID]; ok {
		delete(l.occupantOf, seatID)
		delete(l.seatOf, employeeID)
	}
}

// Placed returns seated employees in seat roster order
func (l *Layout) Placed() []string {
	placed := make([]string, 0, len(l.seatOf))
	for _, seat := range l.snap.Seats {
		if employeeID, ok := l.occupantOf[seat.ID]; ok {
			placed = append(placed, employeeID)
		}
	}
	return placed
}

// Movable returns seated employees that the optimizer may relocate
func (l *Layout) Movable() []string {
	var movable []string
	for _, employeeID := range l.Placed() {
		if !l.fixed[employeeID] {
			movable = append(movable, employeeID)
		}
	}
	return movable
}

// FreeSeats returns unoccupied seats in roster order
func (l *Layout) FreeSeats() []*model.Seat {
	var free []*model.Seat
	for _, seat := range l.snap.Seats {
		if _, taken := l.occupantOf[seat.ID]; !taken {
			free = append(free, seat)
		}
	}
	return free
}

// With returns a hypothetical view with the moves applied. The layout is untouched.
func (l *Layout) With(moves ...move) Occupancy {
	v := &overlay{
		base:       l,
		seatOf:     make(map[string]string, len(moves)),
		occupantOf: make(map[string]string, 2*len(moves)),
	}
	movers := make(map[string]bool, len(moves))
	// vacate first so a swap does not clobber the seat it moves into
	for _, m := range moves {
		movers[m.employeeID] = true
		if old, ok := l.seatOf[m.employeeID]; ok {
			v.occupantOf[old] = ""
		}
	}
	for _, m := range moves {
		v.seatOf[m.employeeID] = m.seatID
		if m.seatID == "" {
			continue
		}
		// an occupant who is not moving is displaced, as Place does
		if previous, ok := l.occupantOf[m.seatID]; ok && !movers[previous] {
			v.seatOf[previous] = ""
		}
		v.occupantOf[m.seatID] = m.employeeID
	}
	return v
}

// apply commits moves with the same semantics as With
func (l *Layout) apply(moves ...move) {
	for _, m := range moves {
		l.Remove(m.employeeID)
	}
	for _, m := range moves {
		if m.seatID != "" {
			l.Place(m.employeeID, m.seatID)
		}
	}
}

// Allocations returns the current non-fixed placements in seat order
func (l *Layout) Allocations() []model.Allocation {
	var out []model.Allocation
	for _, employeeID := range l.Movable() {
		seatID := l.seatOf[employeeID]
		seat, _ := l.snap.Seat(seatID)
		out = append(out, model.Allocation{
			EmployeeID: employeeID,
			ResourceID: seat.ResourceID,
			SeatID:     seatID,
			Status:     model.StatusPending,
		})
	}
	return out
}

// overlay is a layout with a handful of moves applied on top.
// An empty string in either map means "vacated".
type overlay struct {
	base       *Layout
	seatOf     map[string]string
	occupantOf map[string]string
}

func (v *overlay) SeatOf(employeeID string) (string, bool) {
	if seatID, ok := v.seatOf[employeeID]; ok {
		return seatID, seatID != ""
	}
	return v.base.SeatOf(employeeID)
}

func (v *overlay) OccupantOf(seatID string) (string, bool) {
	if employeeID, ok := v.occupantOf[seatID]; ok {
		return employeeID, employeeID != ""
	}
	return v.base.OccupantOf(seatID)
}

func (v *overlay) OccupantsOf(resourceID string) []string {
	return occupantsOf(v, v.base.snap, resourceID)
}

func occupantsOf(occ Occupancy, snap *Snapshot, resourceID string) []string {
	var out []string
	for _, seat := range snap.SeatsOf(resourceID) {
		if employeeID, ok := occ.OccupantOf(seat.ID); ok {
			out = append(out, employeeID)
		}
	}
	return out
}

package allocator

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/multierr"

	"github.com/jakechorley/seatplanner/pkg/core/model"
)

const (
	dayLayout = "2006-01-02"

	// referenceWindowDays is used when a run has no explicit period. Four
	// weeks covers fortnightly patterns.
	referenceWindowDays = 28

	maxWindowDays = 366
)

// referenceStart is a Monday so weekly rules expand predictably
var referenceStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// SnapshotInput is the raw roster loaded by a storage collaborator
type SnapshotInput struct {
	Employees   []model.Employee
	Resources   []model.Resource
	Seats       []model.Seat
	Allocations []model.Allocation

	AdjacencyThreshold float64
	PeriodStart        time.Time
	PeriodEnd          time.Time
}

// Snapshot is the immutable, indexed view of the roster for one run.
// Nothing in the engine mutates it.
type Snapshot struct {
	Employees []*model.Employee
	Resources []*model.Resource
	Seats     []*model.Seat

	// Holding lists the pre-existing allocations that occupy a seat during the run
	Holding []model.Allocation

	employees       map[string]*model.Employee
	resources       map[string]*model.Resource
	seats           map[string]*model.Seat
	seatsByResource map[string][]*model.Seat
	adjacent        map[string][]string
	calendars       map[string]*workCalendar
	referencedBy    map[string][]string

	windowStart time.Time
	windowEnd   time.Time
}

// NewSnapshot indexes the roster and checks its referential integrity.
// All dangling references are reported together; each is an *InputDataError.
func NewSnapshot(input SnapshotInput) (*Snapshot, error) {
	input.Employees = slices.Clone(input.Employees)
	input.Resources = slices.Clone(input.Resources)
	input.Seats = slices.Clone(input.Seats)

	s := &Snapshot{
		employees:       make(map[string]*model.Employee, len(input.Employees)),
		resources:       make(map[string]*model.Resource, len(input.Resources)),
		seats:           make(map[string]*model.Seat, len(input.Seats)),
		seatsByResource: make(map[string][]*model.Seat),
		adjacent:        make(map[string][]string),
		calendars:       make(map[string]*workCalendar, len(input.Employees)),
		referencedBy:    make(map[string][]string),
	}

	var errs error

	for i := range input.Employees {
		e := &input.Employees[i]
		if _, dup := s.employees[e.ID]; dup {
			errs = multierr.Append(errs, &InputDataError{Kind: "employee", ID: e.ID, Referrer: "duplicate employee id"})
			continue
		}
		s.employees[e.ID] = e
		s.Employees = append(s.Employees, e)
	}

	for i := range input.Resources {
		r := &input.Resources[i]
		if _, dup := s.resources[r.ID]; dup {
			errs = multierr.Append(errs, &InputDataError{Kind: "resource", ID: r.ID, Referrer: "duplicate resource id"})
			continue
		}
		s.resources[r.ID] = r
		s.Resources = append(s.Resources, r)
	}

	for i := range input.Seats {
		seat := &input.Seats[i]
		if _, dup := s.seats[seat.ID]; dup {
			errs = multierr.Append(errs, &InputDataError{Kind: "seat", ID: seat.ID, Referrer: "duplicate seat id"})
			continue
		}
		if _, ok := s.resources[seat.ResourceID]; !ok {
			errs = multierr.Append(errs, &InputDataError{Kind: "resource", ID: seat.ResourceID, Referrer: "seat " + seat.ID})
			continue
		}
		if seat.OccupantID != "" {
			if _, ok := s.employees[seat.OccupantID]; !ok {
				errs = multierr.Append(errs, &InputDataError{Kind: "employee", ID: seat.OccupantID, Referrer: "occupant of seat " + seat.ID})
			}
		}
		s.seats[seat.ID] = seat
		s.Seats = append(s.Seats, seat)
		s.seatsByResource[seat.ResourceID] = append(s.seatsByResource[seat.ResourceID], seat)
	}

	for _, e := range s.Employees {
		errs = multierr.Append(errs, s.checkEmployeeReferences(e))
	}

	s.windowStart, s.windowEnd = calendarWindow(input.PeriodStart, input.PeriodEnd)
	for _, e := range s.Employees {
		cal, err := newWorkCalendar(e.Schedule, s.windowStart, s.windowEnd)
		if err != nil {
			errs = multierr.Append(errs, &InputDataError{Kind: "schedule", ID: e.Schedule.WorkDays, Referrer: fmt.Sprintf("employee %s (%v)", e.ID, err)})
			cal = fullCalendar(s.windowStart, s.windowEnd)
		}
		s.calendars[e.ID] = cal
	}

	errs = multierr.Append(errs, s.collectHolding(input.Allocations, input.PeriodStart, input.PeriodEnd))

	if errs != nil {
		return nil, errs
	}

	s.buildAdjacency(input.AdjacencyThreshold)

	return s, nil
}

func (s *Snapshot) checkEmployeeReferences(e *model.Employee) error {
	var errs error
	referrer := "employee " + e.ID

	requireEmployee := func(id, what string) {
		if _, ok := s.employees[id]; !ok {
			errs = multierr.Append(errs, &InputDataError{Kind: "employee", ID: id, Referrer: referrer + " " + what})
			return
		}
		s.referencedBy[id] = append(s.referencedBy[id], e.ID)
	}

	for _, id := range e.PreferredColleagues {
		requireEmployee(id, "preferred colleagues")
	}

	for _, c := range e.Constraints {
		switch p := c.Params.(type) {
		case model.FixedSeat:
			if p.SeatID != "" {
				if _, ok := s.seats[p.SeatID]; !ok {
					errs = multierr.Append(errs, &InputDataError{Kind: "seat", ID: p.SeatID, Referrer: referrer + " fixed_seat constraint"})
				}
			}
			if p.ResourceID != "" {
				if _, ok := s.resources[p.ResourceID]; !ok {
					errs = multierr.Append(errs, &InputDataError{Kind: "resource", ID: p.ResourceID, Referrer: referrer + " fixed_seat constraint"})
				}
			}
		case model.TeamProximity:
			for _, id := range p.ColleagueIDs {
				requireEmployee(id, "team_proximity constraint")
			}
		case model.GenericCustom:
			for _, id := range p.AvoidEmployeeIDs {
				requireEmployee(id, "custom constraint")
			}
		case nil:
			errs = multierr.Append(errs, &InputDataError{Kind: "constraint", ID: "", Referrer: referrer + " (empty constraint)"})
		}
	}

	return errs
}

// collectHolding keeps the pre-existing allocations that occupy a seat during
// the period and synthesises holdings for seats that only carry an occupant
func (s *Snapshot) collectHolding(allocations []model.Allocation, from, to time.Time) error {
	var errs error
	seatHeld := make(map[string]string)
	employeeHeld := make(map[string]string)

	hold := func(a model.Allocation) {
		if other, taken := seatHeld[a.SeatID]; taken && other != a.EmployeeID {
			errs = multierr.Append(errs, &InputDataError{Kind: "seat", ID: a.SeatID, Referrer: fmt.Sprintf("holding allocations of %s and %s", other, a.EmployeeID)})
			return
		}
		if other, taken := employeeHeld[a.EmployeeID]; taken && other != a.SeatID {
			errs = multierr.Append(errs, &InputDataError{Kind: "employee", ID: a.EmployeeID, Referrer: fmt.Sprintf("holding allocations on seats %s and %s", other, a.SeatID)})
			return
		}
		if _, dup := seatHeld[a.SeatID]; dup {
			return
		}
		seatHeld[a.SeatID] = a.EmployeeID
		employeeHeld[a.EmployeeID] = a.SeatID
		s.Holding = append(s.Holding, a)
	}

	for _, a := range allocations {
		if !a.Status.IsHolding() || !a.Overlaps(from, to) {
			continue
		}
		ref := "allocation " + a.ID
		if _, ok := s.employees[a.EmployeeID]; !ok {
			errs = multierr.Append(errs, &InputDataError{Kind: "employee", ID: a.EmployeeID, Referrer: ref})
			continue
		}
		seat, ok := s.seats[a.SeatID]
		if !ok {
			errs = multierr.Append(errs, &InputDataError{Kind: "seat", ID: a.SeatID, Referrer: ref})
			continue
		}
		if a.ResourceID == "" {
			a.ResourceID = seat.ResourceID
		}
		if a.ResourceID != seat.ResourceID {
			errs = multierr.Append(errs, &InputDataError{Kind: "resource", ID: a.ResourceID, Referrer: ref + " (seat " + seat.ID + " belongs to " + seat.ResourceID + ")"})
			continue
		}
		hold(a)
	}

	for _, seat := range s.Seats {
		if seat.OccupantID == "" {
			continue
		}
		if _, ok := s.employees[seat.OccupantID]; !ok {
			continue
		}
		hold(model.Allocation{
			EmployeeID: seat.OccupantID,
			ResourceID: seat.ResourceID,
			SeatID:     seat.ID,
			Status:     model.StatusActive,
		})
	}

	return errs
}

func (s *Snapshot) buildAdjacency(threshold float64) {
	if threshold <= 0 {
		threshold = DefaultAdjacencyThreshold
	}
	for _, a := range s.Resources {
		for _, b := range s.Resources {
			if a.ID == b.ID || a.RoomID != b.RoomID {
				continue
			}
			if math.Hypot(a.X-b.X, a.Y-b.Y) <= threshold {
				s.adjacent[a.ID] = append(s.adjacent[a.ID], b.ID)
			}
		}
	}
}

// Employee looks up an employee by id
func (s *Snapshot) Employee(id string) (*model.Employee, bool) {
	e, ok := s.employees[id]
	return e, ok
}

// Resource looks up a resource by id
func (s *Snapshot) Resource(id string) (*model.Resource, bool) {
	r, ok := s.resources[id]
	return r, ok
}

// Seat looks up a seat by id
func (s *Snapshot) Seat(id string) (*model.Seat, bool) {
	seat, ok := s.seats[id]
	return seat, ok
}

// SeatsOf returns the seats of a resource in roster order
func (s *Snapshot) SeatsOf(resourceID string) []*model.Seat {
	return s.seatsByResource[resourceID]
}

// Candidate builds the candidate for a seat id
func (s *Snapshot) Candidate(seatID string) (Candidate, bool) {
	seat, ok := s.seats[seatID]
	if !ok {
		return Candidate{}, false
	}
	return Candidate{Seat: seat, Resource: s.resources[seat.ResourceID]}, true
}

// AdjacentResources returns resources in the same room within the adjacency threshold
func (s *Snapshot) AdjacentResources(resourceID string) []string {
	return s.adjacent[resourceID]
}

// Capacity returns the concurrent headcount a resource supports. A
// non-positive capacity falls back to the number of seats.
func (s *Snapshot) Capacity(resourceID string) int {
	r, ok := s.resources[resourceID]
	if ok && r.Capacity > 0 {
		return r.Capacity
	}
	return len(s.seatsByResource[resourceID])
}

// SchedulesOverlap reports whether two employees are ever in the office at the same time
func (s *Snapshot) SchedulesOverlap(a, b string) bool {
	ca, cb := s.calendars[a], s.calendars[b]
	if ca == nil || cb == nil {
		return true
	}
	return ca.overlaps(cb)
}

// ReferencedBy returns employees whose constraints or preferences name id
func (s *Snapshot) ReferencedBy(id string) []string {
	return s.referencedBy[id]
}

// Period returns the window used to expand schedules
func (s *Snapshot) Period() (time.Time, time.Time) {
	return s.windowStart, s.windowEnd
}

// workCalendar is the set of days an employee works inside the run window
// plus their daily hours
type workCalendar struct {
	days      map[string]bool
	startHour int
	endHour   int
}

func calendarWindow(from, to time.Time) (time.Time, time.Time) {
	if from.IsZero() {
		return referenceStart, referenceStart.AddDate(0, 0, referenceWindowDays-1)
	}
	start := truncateDay(from)
	end := truncateDay(to)
	if to.IsZero() || end.Before(start) {
		end = start.AddDate(0, 0, referenceWindowDays-1)
	}
	if limit := start.AddDate(0, 0, maxWindowDays-1); end.After(limit) {
		end = limit
	}
	return start, end
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func fullCalendar(start, end time.Time) *workCalendar {
	cal := &workCalendar{days: make(map[string]bool), startHour: 0, endHour: 24}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		cal.days[d.Format(dayLayout)] = true
	}
	return cal
}

func newWorkCalendar(schedule model.Schedule, start, end time.Time) (*workCalendar, error) {
	startHour, endHour := schedule.Hours()
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return nil, fmt.Errorf("invalid working hours %d-%d", schedule.StartHour, schedule.EndHour)
	}

	rule := strings.TrimSpace(schedule.WorkDays)
	if rule == "" {
		cal := fullCalendar(start, end)
		cal.startHour, cal.endHour = startHour, endHour
		return cal, nil
	}
	rule = strings.TrimPrefix(rule, "RRULE:")

	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, err
	}
	if opt.Dtstart.IsZero() {
		opt.Dtstart = start
	}
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}

	cal := &workCalendar{days: make(map[string]bool), startHour: startHour, endHour: endHour}
	for _, occurrence := range r.Between(start, end.Add(24*time.Hour-time.Second), true) {
		cal.days[occurrence.UTC().Format(dayLayout)] = true
	}
	return cal, nil
}

func (c *workCalendar) overlaps(other *workCalendar) bool {
	if c.startHour >= other.endHour || other.startHour >= c.endHour {
		return false
	}
	small, large := c.days, other.days
	if len(large) < len(small) {
		small, large = large, small
	}
	for day := range small {
		if large[day] {
			return true
		}
	}
	return false
}

// works reports whether the calendar covers the given day and hour
func (c *workCalendar) works(day string, hour int) bool {
	return c.days[day] && hour >= c.startHour && hour < c.endHour
}

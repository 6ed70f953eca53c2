package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/seatplanner/pkg/core/model"
	"github.com/jakechorley/seatplanner/pkg/db"
)

// GetEmployees retrieves all employees in import order
func (t *pgTx) GetEmployees(ctx context.Context) ([]model.Employee, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, name, gender, religious_level, health_accommodation, team,
			preferred_colleagues, noise_preference, location_preference,
			work_days, start_hour, end_hour, constraints
		FROM employee
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		var e model.Employee
		var gender, noise string
		var religious int
		var constraints []byte
		if err := rows.Scan(&e.ID, &e.Name, &gender, &religious, &e.HealthAccommodation, &e.Team,
			&e.PreferredColleagues, &noise, &e.LocationPreference,
			&e.Schedule.WorkDays, &e.Schedule.StartHour, &e.Schedule.EndHour, &constraints); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		e.Gender = model.Gender(gender)
		e.ReligiousLevel = model.ReligiousLevel(religious)
		e.NoisePreference = model.NoiseLevel(noise)
		if e.Constraints, err = db.DecodeConstraints(constraints); err != nil {
			return nil, fmt.Errorf("employee %s: %w", e.ID, err)
		}
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}

	return employees, nil
}

// GetResources retrieves all resources in import order
func (t *pgTx) GetResources(ctx context.Context) ([]model.Resource, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, room_id, name, capacity, gender_restriction, religious_only,
			noise_level, location, features, x, y
		FROM resource
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	var resources []model.Resource
	for rows.Next() {
		var r model.Resource
		var gender, noise string
		if err := rows.Scan(&r.ID, &r.RoomID, &r.Name, &r.Capacity, &gender, &r.ReligiousOnly,
			&noise, &r.Location, &r.Features, &r.X, &r.Y); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		r.GenderRestriction = model.Gender(gender)
		r.NoiseLevel = model.NoiseLevel(noise)
		resources = append(resources, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resources: %w", err)
	}

	return resources, nil
}

// GetSeats retrieves all seats in import order
func (t *pgTx) GetSeats(ctx context.Context) ([]model.Seat, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, resource_id, label, x, y, accessible, occupant_id
		FROM seat
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query seats: %w", err)
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seats: %w", err)
	}

	return seats, nil
}

func scanSeat(row pgx.Row) (model.Seat, error) {
	var s model.Seat
	var occupantID *string
	if err := row.Scan(&s.ID, &s.ResourceID, &s.Label, &s.X, &s.Y, &s.Accessible, &occupantID); err != nil {
		return model.Seat{}, fmt.Errorf("failed to scan seat: %w", err)
	}
	if occupantID != nil {
		s.OccupantID = *occupantID
	}
	return s, nil
}

// UpsertEmployees inserts or updates employees by id
func (t *pgTx) UpsertEmployees(ctx context.Context, employees []model.Employee) error {
	batch := &pgx.Batch{}
	for _, e := range employees {
		constraints, err := db.EncodeConstraints(e.Constraints)
		if err != nil {
			return fmt.Errorf("employee %s: %w", e.ID, err)
		}
		colleagues := e.PreferredColleagues
		if colleagues == nil {
			colleagues = []string{}
		}
		batch.Queue(`
			INSERT INTO employee (id, name, gender, religious_level, health_accommodation, team,
				preferred_colleagues, noise_preference, location_preference,
				work_days, start_hour, end_hour, constraints)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				gender = EXCLUDED.gender,
				religious_level = EXCLUDED.religious_level,
				health_accommodation = EXCLUDED.health_accommodation,
				team = EXCLUDED.team,
				preferred_colleagues = EXCLUDED.preferred_colleagues,
				noise_preference = EXCLUDED.noise_preference,
				location_preference = EXCLUDED.location_preference,
				work_days = EXCLUDED.work_days,
				start_hour = EXCLUDED.start_hour,
				end_hour = EXCLUDED.end_hour,
				constraints = EXCLUDED.constraints
		`, e.ID, e.Name, string(e.Gender), int(e.ReligiousLevel), e.HealthAccommodation, e.Team,
			colleagues, string(e.NoisePreference), e.LocationPreference,
			e.Schedule.WorkDays, e.Schedule.StartHour, e.Schedule.EndHour, constraints)
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert employees: %w", err)
	}
	return nil
}

// UpsertResources inserts or updates resources by id
func (t *pgTx) UpsertResources(ctx context.Context, resources []model.Resource) error {
	batch := &pgx.Batch{}
	for _, r := range resources {
		features := r.Features
		if features == nil {
			features = []string{}
		}
		batch.Queue(`
			INSERT INTO resource (id, room_id, name, capacity, gender_restriction, religious_only,
				noise_level, location, features, x, y)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				room_id = EXCLUDED.room_id,
				name = EXCLUDED.name,
				capacity = EXCLUDED.capacity,
				gender_restriction = EXCLUDED.gender_restriction,
				religious_only = EXCLUDED.religious_only,
				noise_level = EXCLUDED.noise_level,
				location = EXCLUDED.location,
				features = EXCLUDED.features,
				x = EXCLUDED.x,
				y = EXCLUDED.y
		`, r.ID, r.RoomID, r.Name, r.Capacity, string(r.GenderRestriction), r.ReligiousOnly,
			string(r.NoiseLevel), r.Location, features, r.X, r.Y)
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert resources: %w", err)
	}
	return nil
}

// UpsertSeats inserts or updates seats by id. The occupant of an existing
// seat is left alone; it follows the allocations.
func (t *pgTx) UpsertSeats(ctx context.Context, seats []model.Seat) error {
	batch := &pgx.Batch{}
	for _, s := range seats {
		var occupantID *string
		if s.OccupantID != "" {
			occupantID = &s.OccupantID
		}
		batch.Queue(`
			INSERT INTO seat (id, resource_id, label, x, y, accessible, occupant_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				resource_id = EXCLUDED.resource_id,
				label = EXCLUDED.label,
				x = EXCLUDED.x,
				y = EXCLUDED.y,
				accessible = EXCLUDED.accessible
		`, s.ID, s.ResourceID, s.Label, s.X, s.Y, s.Accessible, occupantID)
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert seats: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/seatplanner/pkg/core/model"
	"github.com/jakechorley/seatplanner/pkg/db"
)

const allocationColumns = `id, employee_id, resource_id, seat_id, score, status, period_start, period_end, created_at`

// GetAllocations retrieves all allocation records, oldest first
func (t *pgTx) GetAllocations(ctx context.Context) ([]model.Allocation, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+allocationColumns+` FROM allocation ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	var allocations []model.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocations: %w", err)
	}

	return allocations, nil
}

// GetAllocation retrieves one allocation by id
func (t *pgTx) GetAllocation(ctx context.Context, id string) (model.Allocation, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+allocationColumns+` FROM allocation WHERE id = $1`, id)
	a, err := scanAllocation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Allocation{}, db.NotFound("allocation", id)
	}
	return a, err
}

func scanAllocation(row pgx.Row) (model.Allocation, error) {
	var a model.Allocation
	var status string
	var from, to *time.Time
	if err := row.Scan(&a.ID, &a.EmployeeID, &a.ResourceID, &a.SeatID, &a.Score, &status, &from, &to, &a.CreatedAt); err != nil {
		return model.Allocation{}, fmt.Errorf("failed to scan allocation: %w", err)
	}
	a.Status = model.AllocationStatus(status)
	if from != nil {
		a.From = *from
	}
	if to != nil {
		a.To = *to
	}
	return a, nil
}

// LockSeat reads a seat with SELECT ... FOR UPDATE
func (t *pgTx) LockSeat(ctx context.Context, seatID string) (model.Seat, error) {
	row := t.tx.QueryRow(ctx, `
		SELECT id, resource_id, label, x, y, accessible, occupant_id
		FROM seat
		WHERE id = $1
		FOR UPDATE
	`, seatID)
	seat, err := scanSeat(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Seat{}, db.NotFound("seat", seatID)
	}
	return seat, err
}

// InsertAllocations inserts allocations and marks seats of holding ones as
// occupied. A seat that is already occupied fails with a conflict.
func (t *pgTx) InsertAllocations(ctx context.Context, allocations []model.Allocation) error {
	for _, a := range allocations {
		var from, to *time.Time
		if !a.From.IsZero() {
			from = &a.From
		}
		if !a.To.IsZero() {
			to = &a.To
		}
		createdAt := a.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		_, err := t.tx.Exec(ctx, `
			INSERT INTO allocation (id, employee_id, resource_id, seat_id, score, status, period_start, period_end, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, a.ID, a.EmployeeID, a.ResourceID, a.SeatID, a.Score, string(a.Status), from, to, createdAt)
		if err != nil {
			return fmt.Errorf("failed to insert allocation: %w", err)
		}

		if !a.Status.IsHolding() {
			continue
		}
		tag, err := t.tx.Exec(ctx, `
			UPDATE seat SET occupant_id = $2
			WHERE id = $1 AND (occupant_id IS NULL OR occupant_id = $2)
		`, a.SeatID, a.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to occupy seat: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return &db.ConcurrentMutationError{Entity: "seat", ID: a.SeatID, Detail: "already occupied"}
		}
	}
	return nil
}

// UpdateAllocationStatus changes the status only if it still equals from
func (t *pgTx) UpdateAllocationStatus(ctx context.Context, id string, from, to model.AllocationStatus) error {
	var employeeID, seatID string
	err := t.tx.QueryRow(ctx, `
		UPDATE allocation SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING employee_id, seat_id
	`, id, string(from), string(to)).Scan(&employeeID, &seatID)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := t.GetAllocation(ctx, id); getErr != nil {
			return getErr
		}
		return &db.ConcurrentMutationError{Entity: "allocation", ID: id, Detail: "status is no longer " + string(from)}
	}
	if err != nil {
		return fmt.Errorf("failed to update allocation status: %w", err)
	}

	if from.IsHolding() && !to.IsHolding() {
		_, err := t.tx.Exec(ctx, `
			UPDATE seat SET occupant_id = NULL WHERE id = $1 AND occupant_id = $2
		`, seatID, employeeID)
		if err != nil {
			return fmt.Errorf("failed to free seat: %w", err)
		}
	}
	return nil
}

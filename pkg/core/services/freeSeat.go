package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/seatplanner/pkg/core/model"
	"github.com/jakechorley/seatplanner/pkg/db"
)

// FreeSeat ends the holding allocation on a seat. An active allocation is
// completed, a pending one is cancelled. expectEmployee, when not empty,
// must match the current occupant.
func FreeSeat(ctx context.Context, store db.Store, logger *zap.Logger, seatID, expectEmployee string) (*model.Allocation, error) {
	logger.Debug("Freeing seat", zap.String("seat_id", seatID), zap.String("expect_employee", expectEmployee))

	var freed model.Allocation
	err := store.InTx(ctx, db.LockShared, func(tx db.Tx) error {
		seat, err := tx.LockSeat(ctx, seatID)
		if err != nil {
			return err
		}
		if seat.OccupantID == "" {
			return fmt.Errorf("seat %s: %w", seatID, ErrSeatNotOccupied)
		}
		if expectEmployee != "" && expectEmployee != seat.OccupantID {
			return &db.ConcurrentMutationError{
				Entity: "seat",
				ID:     seatID,
				Detail: fmt.Sprintf("expected occupant %q, found %q", expectEmployee, seat.OccupantID),
			}
		}

		allocations, err := tx.GetAllocations(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch allocations: %w", err)
		}

		for _, a := range allocations {
			if a.SeatID != seatID || a.EmployeeID != seat.OccupantID || !a.Status.IsHolding() {
				continue
			}
			next := model.StatusCompleted
			if a.Status == model.StatusPending {
				next = model.StatusCancelled
			}
			if err := tx.UpdateAllocationStatus(ctx, a.ID, a.Status, next); err != nil {
				return err
			}
			a.Status = next
			freed = a
			return nil
		}
		return fmt.Errorf("no holding allocation found for seat %s", seatID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Seat freed",
		zap.String("seat_id", seatID),
		zap.String("employee_id", freed.EmployeeID),
		zap.String("allocation_id", freed.ID),
		zap.String("status", string(freed.Status)))
	return &freed, nil
}

// TransitionAllocation moves an allocation along its lifecycle:
// pending -> active -> completed, or pending/active -> cancelled
func TransitionAllocation(ctx context.Context, store db.Store, logger *zap.Logger, allocationID string, next model.AllocationStatus) (*model.Allocation, error) {
	if !next.IsValid() {
		return nil, fmt.Errorf("unknown allocation status %q", next)
	}

	var updated model.Allocation
	err := store.InTx(ctx, db.LockShared, func(tx db.Tx) error {
		a, err := tx.GetAllocation(ctx, allocationID)
		if err != nil {
			return err
		}
		from := a.Status
		if err := a.Transition(next); err != nil {
			return err
		}
		if err := tx.UpdateAllocationStatus(ctx, a.ID, from, next); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Allocation status changed",
		zap.String("allocation_id", allocationID),
		zap.String("status", string(updated.Status)))
	return &updated, nil
}

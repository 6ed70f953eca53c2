package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/seatplanner/pkg/core/allocator"
	"github.com/jakechorley/seatplanner/pkg/core/model"
	"github.com/jakechorley/seatplanner/pkg/db"
)

// ErrSeatNotOccupied is returned when freeing a seat nobody holds
var ErrSeatNotOccupied = errors.New("seat is not occupied")

// AssignRequest is a manual single seat assignment
type AssignRequest struct {
	EmployeeID string
	SeatID     string

	// ExpectOccupant, when set, is the occupant the caller last saw in the
	// seat ("" for free). A different occupant at commit time is a conflict.
	ExpectOccupant *string

	// Override commits despite must violations. The override is logged.
	Override bool

	// Hold stores the allocation as pending instead of active
	Hold bool
}

// AssignResult describes a committed manual assignment
type AssignResult struct {
	Allocation model.Allocation
	Validation *allocator.PairValidation
	// Overridden is set when must violations were bypassed
	Overridden bool
	// Released is the employee's previous allocation, cancelled by the move
	Released *model.Allocation
}

// AssignSeat places one employee on one seat in a shared transaction. The
// seat row is locked and its occupant re-checked before writing; if the
// employee already holds another seat that allocation is cancelled.
func AssignSeat(ctx context.Context, store db.Store, engine *allocator.Engine, logger *zap.Logger, req AssignRequest) (*AssignResult, error) {
	logger.Debug("Assigning seat",
		zap.String("employee_id", req.EmployeeID),
		zap.String("seat_id", req.SeatID),
		zap.Bool("override", req.Override))

	var result *AssignResult
	err := store.InTx(ctx, db.LockShared, func(tx db.Tx) error {
		seat, err := tx.LockSeat(ctx, req.SeatID)
		if err != nil {
			return err
		}
		if req.ExpectOccupant != nil && *req.ExpectOccupant != seat.OccupantID {
			return &db.ConcurrentMutationError{
				Entity: "seat",
				ID:     seat.ID,
				Detail: fmt.Sprintf("expected occupant %q, found %q", *req.ExpectOccupant, seat.OccupantID),
			}
		}
		if seat.OccupantID == req.EmployeeID {
			return fmt.Errorf("employee %s already holds seat %s", req.EmployeeID, seat.ID)
		}
		if seat.OccupantID != "" {
			return &db.ConcurrentMutationError{Entity: "seat", ID: seat.ID, Detail: "held by " + seat.OccupantID}
		}

		input, err := loadInput(ctx, tx)
		if err != nil {
			return err
		}
		snap, err := engine.Snapshot(input)
		if err != nil {
			return err
		}

		validation, err := engine.ValidatePairIn(snap, req.EmployeeID, req.SeatID)
		if err != nil {
			return err
		}

		overridden := false
		if !validation.Valid {
			if !req.Override {
				return &allocator.ValidationError{
					EmployeeID: req.EmployeeID,
					SeatID:     req.SeatID,
					Violations: validation.Violations,
				}
			}
			overridden = true
			logger.Warn("Must violations overridden by manual assignment",
				zap.String("employee_id", req.EmployeeID),
				zap.String("seat_id", req.SeatID),
				zap.String("violations", allocator.SummarizeViolations(validation.Violations)))
		}

		var released *model.Allocation
		for _, a := range input.Allocations {
			if a.EmployeeID != req.EmployeeID || !a.Status.IsHolding() {
				continue
			}
			if err := tx.UpdateAllocationStatus(ctx, a.ID, a.Status, model.StatusCancelled); err != nil {
				return fmt.Errorf("failed to release previous seat: %w", err)
			}
			a.Status = model.StatusCancelled
			released = &a
		}

		status := model.StatusActive
		if req.Hold {
			status = model.StatusPending
		}
		from, to := engine.Config().PeriodStart, engine.Config().PeriodEnd
		allocation := model.Allocation{
			ID:         uuid.New().String(),
			EmployeeID: req.EmployeeID,
			ResourceID: seat.ResourceID,
			SeatID:     seat.ID,
			Score:      validation.Score,
			Status:     status,
			From:       from,
			To:         to,
			CreatedAt:  time.Now().UTC(),
		}
		if err := tx.InsertAllocations(ctx, []model.Allocation{allocation}); err != nil {
			return fmt.Errorf("failed to insert allocation: %w", err)
		}

		result = &AssignResult{
			Allocation: allocation,
			Validation: validation,
			Overridden: overridden,
			Released:   released,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Seat assigned",
		zap.String("allocation_id", result.Allocation.ID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("seat_id", req.SeatID),
		zap.Float64("score", result.Validation.Score),
		zap.Bool("overridden", result.Overridden))
	return result, nil
}

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

// BatchOptions controls how a batch run is committed
type BatchOptions struct {
	// DryRun computes the result without writing anything
	DryRun bool
	// HoldAsPending commits allocations as pending instead of active
	HoldAsPending bool
}

// BatchOutcome is the engine result plus the snapshot input it ran on
type BatchOutcome struct {
	Result *allocator.BatchResult
	Input  allocator.SnapshotInput
	// Committed is false for dry runs
	Committed bool
}

// RunBatch loads the roster, runs the engine and stores the new allocations,
// all inside one exclusive transaction. Invalid roster data aborts the run
// and leaves the store untouched.
func RunBatch(ctx context.Context, store db.Store, engine *allocator.Engine, logger *zap.Logger, opts BatchOptions) (*BatchOutcome, error) {
	logger.Debug("Starting batch run", zap.Bool("dry_run", opts.DryRun), zap.Bool("hold", opts.HoldAsPending))

	outcome := &BatchOutcome{}
	err := store.InTx(ctx, db.LockExclusive, func(tx db.Tx) error {
		input, err := loadInput(ctx, tx)
		if err != nil {
			return err
		}
		outcome.Input = input

		logger.Debug("Loaded roster",
			zap.Int("employees", len(input.Employees)),
			zap.Int("seats", len(input.Seats)),
			zap.Int("allocations", len(input.Allocations)))

		result, err := engine.Run(input)
		if err != nil {
			var inputErr *allocator.InputDataError
			if errors.As(err, &inputErr) {
				logger.Error("Roster integrity check failed", zap.Error(err))
			}
			return fmt.Errorf("allocation run failed: %w", err)
		}

		status := model.StatusActive
		if opts.HoldAsPending {
			status = model.StatusPending
		}
		now := time.Now().UTC()
		for i := range result.Allocated {
			a := &result.Allocated[i]
			if a.ID == "" {
				a.ID = uuid.New().String()
			}
			a.Status = status
			a.CreatedAt = now
		}
		outcome.Result = result

		if opts.DryRun {
			return nil
		}

		if err := tx.InsertAllocations(ctx, result.Allocated); err != nil {
			return fmt.Errorf("failed to insert allocations: %w", err)
		}
		outcome.Committed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := outcome.Result
	for _, u := range result.Unallocated {
		logger.Warn("Employee not seated", zap.String("employee_id", u.EmployeeID), zap.String("reason", u.Reason))
	}
	logger.Info("Batch run finished",
		zap.Int("allocated", len(result.Allocated)),
		zap.Int("unallocated", len(result.Unallocated)),
		zap.Int("soft_violations", len(result.ConstraintViolations)),
		zap.Float64("total_score", result.TotalScore),
		zap.Int("iterations", result.Iterations),
		zap.Bool("committed", outcome.Committed))

	return outcome, nil
}

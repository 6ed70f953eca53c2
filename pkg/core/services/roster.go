package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/seatplanner/pkg/core/allocator"
	"github.com/jakechorley/seatplanner/pkg/db"
	"github.com/jakechorley/seatplanner/pkg/roster"
)

// ImportRoster upserts a roster into the store. It takes the exclusive lock
// so it never interleaves with a batch run.
func ImportRoster(ctx context.Context, store db.Store, logger *zap.Logger, r *roster.Roster) error {
	logger.Debug("Importing roster",
		zap.Int("employees", len(r.Employees)),
		zap.Int("resources", len(r.Resources)),
		zap.Int("seats", len(r.Seats)))

	err := store.InTx(ctx, db.LockExclusive, func(tx db.Tx) error {
		if err := tx.UpsertEmployees(ctx, r.Employees); err != nil {
			return fmt.Errorf("failed to upsert employees: %w", err)
		}
		if err := tx.UpsertResources(ctx, r.Resources); err != nil {
			return fmt.Errorf("failed to upsert resources: %w", err)
		}
		if err := tx.UpsertSeats(ctx, r.Seats); err != nil {
			return fmt.Errorf("failed to upsert seats: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Roster imported",
		zap.Int("employees", len(r.Employees)),
		zap.Int("resources", len(r.Resources)),
		zap.Int("seats", len(r.Seats)))
	return nil
}

// loadInput reads everything a snapshot needs inside tx
func loadInput(ctx context.Context, tx db.Tx) (allocator.SnapshotInput, error) {
	var input allocator.SnapshotInput
	var err error

	if input.Employees, err = tx.GetEmployees(ctx); err != nil {
		return input, fmt.Errorf("failed to fetch employees: %w", err)
	}
	if input.Resources, err = tx.GetResources(ctx); err != nil {
		return input, fmt.Errorf("failed to fetch resources: %w", err)
	}
	if input.Seats, err = tx.GetSeats(ctx); err != nil {
		return input, fmt.Errorf("failed to fetch seats: %w", err)
	}
	if input.Allocations, err = tx.GetAllocations(ctx); err != nil {
		return input, fmt.Errorf("failed to fetch allocations: %w", err)
	}
	return input, nil
}

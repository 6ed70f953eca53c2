package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/seatplanner/pkg/core/allocator"
	"github.com/jakechorley/seatplanner/pkg/db"
)

// ValidatePair checks a proposed (employee, seat) pair against the stored
// roster and holdings without writing anything
func ValidatePair(ctx context.Context, store db.Store, engine *allocator.Engine, logger *zap.Logger, employeeID, seatID string) (*allocator.PairValidation, error) {
	var validation *allocator.PairValidation
	err := store.InTx(ctx, db.LockShared, func(tx db.Tx) error {
		input, err := loadInput(ctx, tx)
		if err != nil {
			return err
		}
		validation, err = engine.ValidatePair(input, employeeID, seatID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Pair validated",
		zap.String("employee_id", employeeID),
		zap.String("seat_id", seatID),
		zap.Bool("valid", validation.Valid),
		zap.Float64("score", validation.Score))
	return validation, nil
}

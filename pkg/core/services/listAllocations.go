package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/seatplanner/pkg/core/model"
	"github.com/jakechorley/seatplanner/pkg/db"
)

// SeatingRow is one allocation with the names needed to display it
type SeatingRow struct {
	Allocation   model.Allocation
	EmployeeName string
	Room         string
	SeatLabel    string
}

// ListAllocations returns stored allocations, oldest first. With holdingOnly
// set, completed and cancelled allocations are skipped.
func ListAllocations(ctx context.Context, store db.Store, logger *zap.Logger, holdingOnly bool) ([]SeatingRow, error) {
	var rows []SeatingRow
	err := store.InTx(ctx, db.LockShared, func(tx db.Tx) error {
		input, err := loadInput(ctx, tx)
		if err != nil {
			return err
		}

		names := make(map[string]string, len(input.Employees))
		for _, e := range input.Employees {
			names[e.ID] = e.Name
		}
		rooms := make(map[string]string, len(input.Resources))
		for _, r := range input.Resources {
			rooms[r.ID] = r.RoomID
		}
		labels := make(map[string]string, len(input.Seats))
		for _, s := range input.Seats {
			labels[s.ID] = s.Label
		}

		for _, a := range input.Allocations {
			if holdingOnly && !a.Status.IsHolding() {
				continue
			}
			label := labels[a.SeatID]
			if label == "" {
				label = a.SeatID
			}
			rows = append(rows, SeatingRow{
				Allocation:   a,
				EmployeeName: names[a.EmployeeID],
				Room:         rooms[a.ResourceID],
				SeatLabel:    label,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Allocations listed", zap.Int("count", len(rows)), zap.Bool("holding_only", holdingOnly))
	return rows, nil
}

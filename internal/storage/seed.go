package storage

import (
	"context"
	"errors"

	"github.com/Ananth-NQI/smartservice-backend/internal/models"
)

// SeedDemoData creates a demo service advisor and a small workshop crew
// when they are missing. It is safe to run on every start.
func SeedDemoData(ctx context.Context, s Store) error {
	return s.Atomic(ctx, func(tx Store) error {
		_, err := tx.GetActiveEmployee(ctx, "EMP001", "9000000001")
		if errors.Is(err, ErrNotFound) {
			err = tx.CreateEmployee(ctx, &models.Employee{
				EmployeeID: "EMP001",
				Name:       "Demo Advisor",
				Mobile:     "9000000001",
				Role:       "Service Advisor",
				IsActive:   true,
			})
		}
		if err != nil && !errors.Is(err, ErrDuplicate) {
			return err
		}

		workers, err := tx.ListWorkers(ctx)
		if err != nil || len(workers) > 0 {
			return err
		}
		for _, w := range []models.Worker{
			{Name: "Ramesh", Specialization: "Engine", IsAvailable: true},
			{Name: "Suresh", Specialization: "Electrical", IsAvailable: true},
			{Name: "Mahesh", Specialization: "Body & Paint", IsAvailable: true},
		} {
			if err := tx.CreateWorker(ctx, &w); err != nil {
				return err
			}
		}
		return nil
	})
}

package ports

import (
	"context"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

// ReadingRepository persists meter readings. The store enforces at most one
// reading per (meter, date); a second insert fails with
// domain.ErrDuplicateReading.
type ReadingRepository interface {
	Insert(ctx context.Context, r *domain.MeterReading) (*domain.MeterReading, error)
	FindByID(ctx context.Context, id int64) (*domain.MeterReading, error)
	ListByMeter(ctx context.Context, serialNo string) ([]*domain.MeterReading, error)
	List(ctx context.Context) ([]*domain.MeterReading, error)
	Update(ctx context.Context, r *domain.MeterReading) error
	Delete(ctx context.Context, id int64) error
}

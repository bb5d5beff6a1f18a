package ports

import (
	"context"
	"time"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

// ReadingInput is the DTO passed from the transport layer to the ingestion
// pipeline. Readings arrive as telemetry from head-end systems and are
// processed asynchronously.
type ReadingInput struct {
	MeterSerialNo  string
	ReadingDate    time.Time
	EnergyConsumed float64
	Current        float64
	Voltage        float64
}

// ReadingService manages meter readings: synchronous CRUD for operators and
// the asynchronous Ingest path used by the dispatcher workers.
type ReadingService interface {
	// Ingest validates, deduplicates, and persists one telemetry reading.
	Ingest(ctx context.Context, in ReadingInput) error

	Create(ctx context.Context, p domain.Principal, in ReadingInput) (*domain.MeterReading, error)
	Get(ctx context.Context, id int64) (*domain.MeterReading, error)
	List(ctx context.Context, meterSerialNo string) ([]*domain.MeterReading, error)
	Update(ctx context.Context, id int64, in ReadingInput) (*domain.MeterReading, error)
	Delete(ctx context.Context, id int64) error
}

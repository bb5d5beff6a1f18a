package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartmeter/billing-system/internal/api/metrics"
	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

// DedupChecker abstracts the idempotency store (Redis) for the ingestion path.
type DedupChecker interface {
	IsDuplicate(ctx context.Context, serialNo string, date string) (bool, error)
	Mark(ctx context.Context, serialNo string, date string) error
}

// ReadingService handles meter readings: operator CRUD plus the asynchronous
// telemetry ingestion path run by the dispatcher workers.
type ReadingService struct {
	readings ports.ReadingRepository
	meters   ports.MeterRepository
	dedup    DedupChecker
	log      zerolog.Logger
}

func NewReadingService(
	readings ports.ReadingRepository,
	meters ports.MeterRepository,
	dedup DedupChecker,
	log zerolog.Logger,
) *ReadingService {
	return &ReadingService{readings: readings, meters: meters, dedup: dedup, log: log}
}

const readingDateLayout = "2006-01-02"

// readingDay normalizes a reading timestamp to its UTC calendar day. One
// reading per meter per day: the stored date must carry no time-of-day
// component, or the store's (meter, date) uniqueness would treat two
// transmissions of the same day as distinct rows.
func readingDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Ingest validates, deduplicates, and persists one telemetry reading.
// Duplicates are skipped silently; a reading for an unknown meter is an error.
func (s *ReadingService) Ingest(ctx context.Context, in ports.ReadingInput) error {
	date := in.ReadingDate.UTC().Format(readingDateLayout)

	isDup, err := s.dedup.IsDuplicate(ctx, in.MeterSerialNo, date)
	if err != nil {
		s.log.Warn().Err(err).Str("meter", in.MeterSerialNo).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.ReadingsDedupTotal.WithLabelValues("hit").Inc()
		s.log.Debug().Str("meter", in.MeterSerialNo).Str("date", date).Msg("duplicate reading skipped")
		return nil
	}
	metrics.ReadingsDedupTotal.WithLabelValues("miss").Inc()

	if _, err := s.meters.FindBySerial(ctx, in.MeterSerialNo); err != nil {
		metrics.ReadingsErrorsTotal.WithLabelValues("unknown_meter").Inc()
		return fmt.Errorf("ingest reading: %w", err)
	}

	// Mark before writing so a crashed retry does not double-insert.
	if markErr := s.dedup.Mark(ctx, in.MeterSerialNo, date); markErr != nil {
		s.log.Warn().Err(markErr).Str("meter", in.MeterSerialNo).Msg("failed to set dedup key")
	}

	if _, err := s.readings.Insert(ctx, s.toReading(in)); err != nil {
		if errors.Is(err, domain.ErrDuplicateReading) {
			metrics.ReadingsDedupTotal.WithLabelValues("hit").Inc()
			s.log.Debug().Str("meter", in.MeterSerialNo).Str("date", date).Msg("reading already stored")
			return nil
		}
		metrics.ReadingsErrorsTotal.WithLabelValues("insert_failed").Inc()
		return fmt.Errorf("ingest reading: %w", err)
	}

	metrics.ReadingsIngestedTotal.Inc()
	s.log.Info().Str("meter", in.MeterSerialNo).Str("date", date).Float64("kwh", in.EnergyConsumed).Msg("reading ingested")
	return nil
}

// Create is the synchronous operator-side insert. Unlike Ingest, a duplicate
// (meter, date) is surfaced to the caller instead of being skipped.
func (s *ReadingService) Create(ctx context.Context, p domain.Principal, in ports.ReadingInput) (*domain.MeterReading, error) {
	if p.Kind != domain.KindOperator {
		return nil, domain.ErrForbidden
	}
	if _, err := s.meters.FindBySerial(ctx, in.MeterSerialNo); err != nil {
		return nil, err
	}
	return s.readings.Insert(ctx, s.toReading(in))
}

func (s *ReadingService) Get(ctx context.Context, id int64) (*domain.MeterReading, error) {
	return s.readings.FindByID(ctx, id)
}

// List returns readings, optionally limited to one meter.
func (s *ReadingService) List(ctx context.Context, meterSerialNo string) ([]*domain.MeterReading, error) {
	if meterSerialNo != "" {
		return s.readings.ListByMeter(ctx, meterSerialNo)
	}
	return s.readings.List(ctx)
}

func (s *ReadingService) Update(ctx context.Context, id int64, in ports.ReadingInput) (*domain.MeterReading, error) {
	r, err := s.readings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.ReadingDate = readingDay(in.ReadingDate)
	r.EnergyConsumed = in.EnergyConsumed
	r.Current = in.Current
	r.Voltage = in.Voltage

	if err := s.readings.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReadingService) Delete(ctx context.Context, id int64) error {
	return s.readings.Delete(ctx, id)
}

func (s *ReadingService) toReading(in ports.ReadingInput) *domain.MeterReading {
	return &domain.MeterReading{
		ReadingDate:    readingDay(in.ReadingDate),
		EnergyConsumed: in.EnergyConsumed,
		MeterSerialNo:  in.MeterSerialNo,
		Current:        in.Current,
		Voltage:        in.Voltage,
	}
}

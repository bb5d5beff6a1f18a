package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

// MeterService manages metering devices. Operator-only; role policy is
// enforced at the route level.
type MeterService struct {
	meters    ports.MeterRepository
	consumers ports.ConsumerRepository
	log       zerolog.Logger
}

func NewMeterService(meters ports.MeterRepository, consumers ports.ConsumerRepository, log zerolog.Logger) *MeterService {
	return &MeterService{meters: meters, consumers: consumers, log: log}
}

func (s *MeterService) List(ctx context.Context) ([]*domain.Meter, error) {
	return s.meters.List(ctx)
}

func (s *MeterService) Get(ctx context.Context, serialNo string) (*domain.Meter, error) {
	return s.meters.FindBySerial(ctx, serialNo)
}

// Create registers a meter. The owning consumer must exist and not be
// soft-deleted.
func (s *MeterService) Create(ctx context.Context, in ports.MeterInput) (*domain.Meter, error) {
	if in.SerialNo == "" {
		return nil, fmt.Errorf("%w: serial number is required", domain.ErrValidation)
	}
	if _, err := s.consumers.FindByID(ctx, in.ConsumerID); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = domain.MeterActive
	}
	installTs := in.InstallTsUtc
	if installTs.IsZero() {
		installTs = time.Now().UTC()
	}

	m := &domain.Meter{
		SerialNo:     in.SerialNo,
		IPAddress:    in.IPAddress,
		ICCID:        in.ICCID,
		IMSI:         in.IMSI,
		Manufacturer: in.Manufacturer,
		Firmware:     in.Firmware,
		Category:     in.Category,
		InstallTsUtc: installTs,
		Status:       status,
		ConsumerID:   in.ConsumerID,
	}

	if err := s.meters.Create(ctx, m); err != nil {
		return nil, err
	}

	s.log.Info().Str("serial_no", m.SerialNo).Int64("consumer_id", m.ConsumerID).Msg("meter registered")
	return m, nil
}

func (s *MeterService) Update(ctx context.Context, serialNo string, in ports.MeterInput) (*domain.Meter, error) {
	m, err := s.meters.FindBySerial(ctx, serialNo)
	if err != nil {
		return nil, err
	}
	if in.ConsumerID != m.ConsumerID {
		if _, err := s.consumers.FindByID(ctx, in.ConsumerID); err != nil {
			return nil, err
		}
	}

	m.IPAddress = in.IPAddress
	m.ICCID = in.ICCID
	m.IMSI = in.IMSI
	m.Manufacturer = in.Manufacturer
	m.Firmware = in.Firmware
	m.Category = in.Category
	m.Status = in.Status
	m.ConsumerID = in.ConsumerID
	if !in.InstallTsUtc.IsZero() {
		m.InstallTsUtc = in.InstallTsUtc
	}

	if err := s.meters.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MeterService) Delete(ctx context.Context, serialNo string) error {
	return s.meters.Delete(ctx, serialNo)
}

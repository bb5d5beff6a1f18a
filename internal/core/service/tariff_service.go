package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

// TariffService manages rate plans, TOD rules, and consumption slabs. Reads
// are reference data open to both principal kinds; writes are operator-only,
// enforced at the route level.
type TariffService struct {
	repo ports.TariffRepository
	log  zerolog.Logger
}

func NewTariffService(repo ports.TariffRepository, log zerolog.Logger) *TariffService {
	return &TariffService{repo: repo, log: log}
}

func (s *TariffService) List(ctx context.Context) ([]*domain.Tariff, error) {
	return s.repo.List(ctx)
}

func (s *TariffService) Get(ctx context.Context, id int64) (*domain.Tariff, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *TariffService) Create(ctx context.Context, in ports.TariffInput) (*domain.Tariff, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if !in.EffectiveTo.IsZero() && in.EffectiveTo.Before(in.EffectiveFrom) {
		return nil, fmt.Errorf("%w: effective_to precedes effective_from", domain.ErrValidation)
	}

	t, err := s.repo.Create(ctx, &domain.Tariff{
		Name:          in.Name,
		EffectiveFrom: in.EffectiveFrom,
		EffectiveTo:   in.EffectiveTo,
		BaseRate:      in.BaseRate,
		TaxRate:       in.TaxRate,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("tariff_id", t.ID).Str("name", t.Name).Msg("tariff created")
	return t, nil
}

func (s *TariffService) Update(ctx context.Context, id int64, in ports.TariffInput) (*domain.Tariff, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	t.Name = in.Name
	t.EffectiveFrom = in.EffectiveFrom
	t.EffectiveTo = in.EffectiveTo
	t.BaseRate = in.BaseRate
	t.TaxRate = in.TaxRate

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TariffService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// --- TOD rules ---

func (s *TariffService) ListTodRules(ctx context.Context, tariffID int64) ([]*domain.TodRule, error) {
	return s.repo.ListTodRules(ctx, tariffID)
}

func (s *TariffService) GetTodRule(ctx context.Context, id int64) (*domain.TodRule, error) {
	return s.repo.FindTodRule(ctx, id)
}

func (s *TariffService) CreateTodRule(ctx context.Context, in ports.TodRuleInput) (*domain.TodRule, error) {
	if err := validateTimeOfDay(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, in.TariffID); err != nil {
		return nil, err
	}

	return s.repo.CreateTodRule(ctx, &domain.TodRule{
		TariffID:   in.TariffID,
		Name:       in.Name,
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		RatePerKwh: in.RatePerKwh,
	})
}

func (s *TariffService) UpdateTodRule(ctx context.Context, id int64, in ports.TodRuleInput) (*domain.TodRule, error) {
	if err := validateTimeOfDay(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}

	r, err := s.repo.FindTodRule(ctx, id)
	if err != nil {
		return nil, err
	}

	r.Name = in.Name
	r.StartTime = in.StartTime
	r.EndTime = in.EndTime
	r.RatePerKwh = in.RatePerKwh

	if err := s.repo.UpdateTodRule(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *TariffService) DeleteTodRule(ctx context.Context, id int64) error {
	return s.repo.SoftDeleteTodRule(ctx, id)
}

// --- Slabs ---

func (s *TariffService) ListSlabs(ctx context.Context, tariffID int64) ([]*domain.TariffSlab, error) {
	return s.repo.ListSlabs(ctx, tariffID)
}

func (s *TariffService) GetSlab(ctx context.Context, id int64) (*domain.TariffSlab, error) {
	return s.repo.FindSlab(ctx, id)
}

func (s *TariffService) CreateSlab(ctx context.Context, in ports.SlabInput) (*domain.TariffSlab, error) {
	if in.ToKwh <= in.FromKwh {
		return nil, fmt.Errorf("%w: to_kwh must exceed from_kwh", domain.ErrValidation)
	}
	if _, err := s.repo.FindByID(ctx, in.TariffID); err != nil {
		return nil, err
	}

	return s.repo.CreateSlab(ctx, &domain.TariffSlab{
		TariffID:   in.TariffID,
		FromKwh:    in.FromKwh,
		ToKwh:      in.ToKwh,
		RatePerKwh: in.RatePerKwh,
	})
}

func (s *TariffService) UpdateSlab(ctx context.Context, id int64, in ports.SlabInput) (*domain.TariffSlab, error) {
	if in.ToKwh <= in.FromKwh {
		return nil, fmt.Errorf("%w: to_kwh must exceed from_kwh", domain.ErrValidation)
	}

	sl, err := s.repo.FindSlab(ctx, id)
	if err != nil {
		return nil, err
	}

	sl.FromKwh = in.FromKwh
	sl.ToKwh = in.ToKwh
	sl.RatePerKwh = in.RatePerKwh

	if err := s.repo.UpdateSlab(ctx, sl); err != nil {
		return nil, err
	}
	return sl, nil
}

func (s *TariffService) DeleteSlab(ctx context.Context, id int64) error {
	return s.repo.SoftDeleteSlab(ctx, id)
}

const todLayout = "15:04:05"

func validateTimeOfDay(start, end string) error {
	if _, err := time.Parse(todLayout, start); err != nil {
		return fmt.Errorf("%w: start_time must be HH:MM:SS", domain.ErrValidation)
	}
	if _, err := time.Parse(todLayout, end); err != nil {
		return fmt.Errorf("%w: end_time must be HH:MM:SS", domain.ErrValidation)
	}
	return nil
}

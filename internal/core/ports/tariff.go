package ports

import (
	"context"
	"time"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

// TariffRepository persists tariffs and their TOD rules and slabs.
// Soft-deleted rules and slabs are invisible to every read.
type TariffRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Tariff, error)
	List(ctx context.Context) ([]*domain.Tariff, error)
	Create(ctx context.Context, t *domain.Tariff) (*domain.Tariff, error)
	Update(ctx context.Context, t *domain.Tariff) error
	Delete(ctx context.Context, id int64) error

	FindTodRule(ctx context.Context, id int64) (*domain.TodRule, error)
	ListTodRules(ctx context.Context, tariffID int64) ([]*domain.TodRule, error)
	CreateTodRule(ctx context.Context, r *domain.TodRule) (*domain.TodRule, error)
	UpdateTodRule(ctx context.Context, r *domain.TodRule) error
	SoftDeleteTodRule(ctx context.Context, id int64) error

	FindSlab(ctx context.Context, id int64) (*domain.TariffSlab, error)
	ListSlabs(ctx context.Context, tariffID int64) ([]*domain.TariffSlab, error)
	CreateSlab(ctx context.Context, s *domain.TariffSlab) (*domain.TariffSlab, error)
	UpdateSlab(ctx context.Context, s *domain.TariffSlab) error
	SoftDeleteSlab(ctx context.Context, id int64) error
}

// TariffInput carries tariff create/update data.
type TariffInput struct {
	Name          string
	EffectiveFrom time.Time
	EffectiveTo   time.Time
	BaseRate      float64
	TaxRate       float64
}

// TodRuleInput carries TOD rule create/update data.
type TodRuleInput struct {
	TariffID   int64
	Name       string
	StartTime  string
	EndTime    string
	RatePerKwh float64
}

// SlabInput carries tariff slab create/update data.
type SlabInput struct {
	TariffID   int64
	FromKwh    float64
	ToKwh      float64
	RatePerKwh float64
}

// TariffService manages rate plans. Reads are reference data available to
// both principal kinds; writes are operator-only.
type TariffService interface {
	List(ctx context.Context) ([]*domain.Tariff, error)
	Get(ctx context.Context, id int64) (*domain.Tariff, error)
	Create(ctx context.Context, in TariffInput) (*domain.Tariff, error)
	Update(ctx context.Context, id int64, in TariffInput) (*domain.Tariff, error)
	Delete(ctx context.Context, id int64) error

	ListTodRules(ctx context.Context, tariffID int64) ([]*domain.TodRule, error)
	GetTodRule(ctx context.Context, id int64) (*domain.TodRule, error)
	CreateTodRule(ctx context.Context, in TodRuleInput) (*domain.TodRule, error)
	UpdateTodRule(ctx context.Context, id int64, in TodRuleInput) (*domain.TodRule, error)
	DeleteTodRule(ctx context.Context, id int64) error

	ListSlabs(ctx context.Context, tariffID int64) ([]*domain.TariffSlab, error)
	GetSlab(ctx context.Context, id int64) (*domain.TariffSlab, error)
	CreateSlab(ctx context.Context, in SlabInput) (*domain.TariffSlab, error)
	UpdateSlab(ctx context.Context, id int64, in SlabInput) (*domain.TariffSlab, error)
	DeleteSlab(ctx context.Context, id int64) error
}

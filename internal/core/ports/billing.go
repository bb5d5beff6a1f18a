package ports

import (
	"context"
	"time"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

// BillingRepository persists bills and arrears.
type BillingRepository interface {
	FindBill(ctx context.Context, id int64) (*domain.Billing, error)
	ListBills(ctx context.Context, consumerID int64) ([]*domain.Billing, error)
	CreateBill(ctx context.Context, b *domain.Billing) (*domain.Billing, error)
	// UpdateBill is revision-matched; see ConsumerRepository.Update.
	UpdateBill(ctx context.Context, b *domain.Billing) error
	DeleteBill(ctx context.Context, id int64) error

	FindArrear(ctx context.Context, id int64) (*domain.Arrear, error)
	ListArrears(ctx context.Context, consumerID int64) ([]*domain.Arrear, error)
	CreateArrear(ctx context.Context, a *domain.Arrear) (*domain.Arrear, error)
	UpdateArrear(ctx context.Context, a *domain.Arrear) error
	DeleteArrear(ctx context.Context, id int64) error
}

// BillInput carries bill create/update data. TotalAmount is derived as
// BaseAmount + TaxAmount when the bill is stored.
type BillInput struct {
	ConsumerID         int64
	MeterSerialNo      string
	PeriodStart        time.Time
	PeriodEnd          time.Time
	TotalUnitsConsumed float64
	BaseAmount         float64
	TaxAmount          float64
	DueDate            time.Time
	PaymentStatus      string
}

// ArrearInput carries arrear create/update data.
type ArrearInput struct {
	ConsumerID int64
	BillID     int64
	ArrearType string
	PaidStatus string
	Amount     float64
}

// BillingService implements operator-only bill and arrear management.
type BillingService interface {
	ListBills(ctx context.Context, consumerID int64) ([]*domain.Billing, error)
	GetBill(ctx context.Context, id int64) (*domain.Billing, error)
	CreateBill(ctx context.Context, in BillInput) (*domain.Billing, error)
	UpdateBill(ctx context.Context, id int64, in BillInput) (*domain.Billing, error)
	DeleteBill(ctx context.Context, id int64) error

	ListArrears(ctx context.Context, consumerID int64) ([]*domain.Arrear, error)
	GetArrear(ctx context.Context, id int64) (*domain.Arrear, error)
	CreateArrear(ctx context.Context, in ArrearInput) (*domain.Arrear, error)
	UpdateArrear(ctx context.Context, id int64, in ArrearInput) (*domain.Arrear, error)
	DeleteArrear(ctx context.Context, id int64) error
}

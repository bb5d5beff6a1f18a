package ports

import (
	"context"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

// AddressRepository persists consumer supply addresses.
type AddressRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Address, error)
	ListByConsumer(ctx context.Context, consumerID int64) ([]*domain.Address, error)
	List(ctx context.Context) ([]*domain.Address, error)
	Create(ctx context.Context, a *domain.Address) (*domain.Address, error)
	Update(ctx context.Context, a *domain.Address) error
	Delete(ctx context.Context, id int64) error
}

// AddressInput carries address create/update data.
type AddressInput struct {
	HouseNumber string
	Locality    string
	City        string
	State       string
	Pincode     string
	ConsumerID  int64
}

// AddressService implements operator-only address management.
type AddressService interface {
	List(ctx context.Context, consumerID int64) ([]*domain.Address, error)
	Get(ctx context.Context, id int64) (*domain.Address, error)
	Create(ctx context.Context, in AddressInput) (*domain.Address, error)
	Update(ctx context.Context, id int64, in AddressInput) (*domain.Address, error)
	Delete(ctx context.Context, id int64) error
}

package ports

import (
	"context"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

// CreateConsumerInput carries the operator-initiated consumer creation data.
// Consumers never self-register.
type CreateConsumerInput struct {
	Name      string
	Email     string
	Password  string
	Phone     string
	OrgUnitID int64
	TariffID  int64
	Status    string
}

// UpdateConsumerInput is the operator-side full update.
type UpdateConsumerInput struct {
	Name      string
	Email     string
	Phone     string
	OrgUnitID int64
	TariffID  int64
	Status    string
}

// UpdateProfileInput is the restricted field subset a consumer may change on
// their own record.
type UpdateProfileInput struct {
	Name  string
	Email string
	Phone string
}

// ConsumerService implements consumer record operations. Every method takes
// the calling principal explicitly; row-level ownership is decided here, not
// in transport middleware.
type ConsumerService interface {
	List(ctx context.Context, p domain.Principal) ([]*domain.Consumer, error)
	Get(ctx context.Context, p domain.Principal, id int64) (*domain.Consumer, error)
	Create(ctx context.Context, p domain.Principal, in CreateConsumerInput) (*domain.Consumer, error)
	Update(ctx context.Context, p domain.Principal, id int64, in UpdateConsumerInput) (*domain.Consumer, error)
	UpdateProfile(ctx context.Context, p domain.Principal, in UpdateProfileInput) (*domain.Consumer, error)
	Delete(ctx context.Context, p domain.Principal, id int64) error
	SetPhoto(ctx context.Context, p domain.Principal, id int64, photoURL string) error
}

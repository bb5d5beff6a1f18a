package ports

import (
	"context"
	"time"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

// MeterRepository persists meters keyed by serial number.
type MeterRepository interface {
	FindBySerial(ctx context.Context, serialNo string) (*domain.Meter, error)
	List(ctx context.Context) ([]*domain.Meter, error)
	// Create fails with domain.ErrDuplicateIdentity when the serial number is
	// already registered.
	Create(ctx context.Context, m *domain.Meter) error
	// Update is revision-matched; see ConsumerRepository.Update.
	Update(ctx context.Context, m *domain.Meter) error
	Delete(ctx context.Context, serialNo string) error
}

// MeterInput carries meter create/update data.
type MeterInput struct {
	SerialNo     string
	IPAddress    string
	ICCID        string
	IMSI         string
	Manufacturer string
	Firmware     string
	Category     string
	InstallTsUtc time.Time
	Status       string
	ConsumerID   int64
}

// MeterService implements operator-only meter management.
type MeterService interface {
	List(ctx context.Context) ([]*domain.Meter, error)
	Get(ctx context.Context, serialNo string) (*domain.Meter, error)
	Create(ctx context.Context, in MeterInput) (*domain.Meter, error)
	Update(ctx context.Context, serialNo string, in MeterInput) (*domain.Meter, error)
	Delete(ctx context.Context, serialNo string) error
}

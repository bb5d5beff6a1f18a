package ports

import (
	"context"
	"time"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

// OperatorRepository persists internal staff credentials and profiles.
// FindByUsername only matches active operators.
type OperatorRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Operator, error)
	FindByID(ctx context.Context, id int64) (*domain.Operator, error)
	// Create inserts a new operator. Returns domain.ErrDuplicateIdentity when
	// the username is already taken (exact match as stored).
	Create(ctx context.Context, op *domain.Operator) (*domain.Operator, error)
	UpdatePassword(ctx context.Context, id int64, newHash string) error
	StampLastLogin(ctx context.Context, id int64, at time.Time) error
}

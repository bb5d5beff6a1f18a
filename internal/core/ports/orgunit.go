package ports

import (
	"context"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

// OrgUnitRepository persists the organizational hierarchy.
type OrgUnitRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.OrgUnit, error)
	List(ctx context.Context) ([]*domain.OrgUnit, error)
	Create(ctx context.Context, u *domain.OrgUnit) (*domain.OrgUnit, error)
	Update(ctx context.Context, u *domain.OrgUnit) error
	// Delete fails with domain.ErrOrgUnitInUse while children or consumers
	// still reference the unit.
	Delete(ctx context.Context, id int64) error
}

// OrgUnitInput carries org unit create/update data.
type OrgUnitInput struct {
	Type     string
	Name     string
	ParentID int64
}

// OrgUnitService implements operator-only hierarchy management.
type OrgUnitService interface {
	List(ctx context.Context) ([]*domain.OrgUnit, error)
	Get(ctx context.Context, id int64) (*domain.OrgUnit, error)
	Create(ctx context.Context, in OrgUnitInput) (*domain.OrgUnit, error)
	Update(ctx context.Context, id int64, in OrgUnitInput) (*domain.OrgUnit, error)
	Delete(ctx context.Context, id int64) error
}

package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

// OrgUnitService manages the company/division/subdivision hierarchy.
type OrgUnitService struct {
	repo ports.OrgUnitRepository
	log  zerolog.Logger
}

func NewOrgUnitService(repo ports.OrgUnitRepository, log zerolog.Logger) *OrgUnitService {
	return &OrgUnitService{repo: repo, log: log}
}

func (s *OrgUnitService) List(ctx context.Context) ([]*domain.OrgUnit, error) {
	return s.repo.List(ctx)
}

func (s *OrgUnitService) Get(ctx context.Context, id int64) (*domain.OrgUnit, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *OrgUnitService) Create(ctx context.Context, in ports.OrgUnitInput) (*domain.OrgUnit, error) {
	if err := validateOrgUnit(in); err != nil {
		return nil, err
	}
	if in.ParentID != 0 {
		if _, err := s.repo.FindByID(ctx, in.ParentID); err != nil {
			return nil, err
		}
	}

	u, err := s.repo.Create(ctx, &domain.OrgUnit{Type: in.Type, Name: in.Name, ParentID: in.ParentID})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("org_unit_id", u.ID).Str("type", u.Type).Msg("org unit created")
	return u, nil
}

func (s *OrgUnitService) Update(ctx context.Context, id int64, in ports.OrgUnitInput) (*domain.OrgUnit, error) {
	if err := validateOrgUnit(in); err != nil {
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Type = in.Type
	u.Name = in.Name
	u.ParentID = in.ParentID

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *OrgUnitService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func validateOrgUnit(in ports.OrgUnitInput) error {
	switch in.Type {
	case domain.OrgCompany, domain.OrgDivision, domain.OrgSubDivision:
	default:
		return fmt.Errorf("%w: unknown org unit type %q", domain.ErrValidation, in.Type)
	}
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	return nil
}

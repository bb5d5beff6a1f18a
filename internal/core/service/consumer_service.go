package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

// ConsumerService manages consumer records. Role policy is enforced at the
// route level; this service owns the row-level ownership decisions and takes
// the calling principal explicitly on every method.
type ConsumerService struct {
	repo ports.ConsumerRepository
	log  zerolog.Logger
}

func NewConsumerService(repo ports.ConsumerRepository, log zerolog.Logger) *ConsumerService {
	return &ConsumerService{repo: repo, log: log}
}

// List returns all non-deleted consumers. Operator-only.
func (s *ConsumerService) List(ctx context.Context, p domain.Principal) ([]*domain.Consumer, error) {
	if p.Kind != domain.KindOperator {
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx)
}

// Get returns one consumer. Operators may fetch any record; a consumer only
// their own.
func (s *ConsumerService) Get(ctx context.Context, p domain.Principal, id int64) (*domain.Consumer, error) {
	if err := p.CanAccessConsumer(id); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Create registers a new consumer account with its initial password. Only
// operators create consumers; they never self-register.
func (s *ConsumerService) Create(ctx context.Context, p domain.Principal, in ports.CreateConsumerInput) (*domain.Consumer, error) {
	if p.Kind != domain.KindOperator {
		return nil, domain.ErrForbidden
	}
	if in.Name == "" || in.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrValidation)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = domain.ConsumerActive
	}

	c := &domain.Consumer{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		OrgUnitID:    in.OrgUnitID,
		TariffID:     in.TariffID,
		Status:       status,
		CreatedAt:    time.Now().UTC(),
		CreatedBy:    p.Name,
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("consumer_id", created.ID).Str("created_by", p.Name).Msg("consumer created")
	return created, nil
}

// Update is the operator-side full update. The stored revision must match, so
// a concurrent change surfaces as ErrConcurrentModification instead of being
// silently clobbered.
func (s *ConsumerService) Update(ctx context.Context, p domain.Principal, id int64, in ports.UpdateConsumerInput) (*domain.Consumer, error) {
	if p.Kind != domain.KindOperator {
		return nil, domain.ErrForbidden
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c.Name = in.Name
	c.Email = in.Email
	c.Phone = in.Phone
	c.OrgUnitID = in.OrgUnitID
	c.TariffID = in.TariffID
	c.Status = in.Status
	c.UpdatedAt = &now
	c.UpdatedBy = p.Name

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateProfile is the consumer self-service update, restricted to name,
// phone, and email. The target row is always the caller's own.
func (s *ConsumerService) UpdateProfile(ctx context.Context, p domain.Principal, in ports.UpdateProfileInput) (*domain.Consumer, error) {
	if p.Kind != domain.KindConsumer {
		return nil, domain.ErrForbidden
	}

	c, err := s.repo.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c.Name = in.Name
	c.Email = in.Email
	c.Phone = in.Phone
	c.UpdatedAt = &now
	c.UpdatedBy = "consumer-self"

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete soft-deletes a consumer and flips its status to Inactive. The row is
// never physically removed.
func (s *ConsumerService) Delete(ctx context.Context, p domain.Principal, id int64) error {
	if p.Kind != domain.KindOperator {
		return domain.ErrForbidden
	}
	if err := s.repo.SoftDelete(ctx, id, p.Name); err != nil {
		return err
	}
	s.log.Info().Int64("consumer_id", id).Str("deleted_by", p.Name).Msg("consumer soft-deleted")
	return nil
}

// SetPhoto records an uploaded photo URL on the consumer. Operators may set
// any consumer's photo; a consumer only their own.
func (s *ConsumerService) SetPhoto(ctx context.Context, p domain.Principal, id int64, photoURL string) error {
	if err := p.CanAccessConsumer(id); err != nil {
		return err
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	c.PhotoURL = photoURL
	c.UpdatedAt = &now
	c.UpdatedBy = p.Name

	return s.repo.Update(ctx, c)
}

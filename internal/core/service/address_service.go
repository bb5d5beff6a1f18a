package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

// AddressService manages consumer supply addresses.
type AddressService struct {
	repo      ports.AddressRepository
	consumers ports.ConsumerRepository
	log       zerolog.Logger
}

func NewAddressService(repo ports.AddressRepository, consumers ports.ConsumerRepository, log zerolog.Logger) *AddressService {
	return &AddressService{repo: repo, consumers: consumers, log: log}
}

// List returns addresses, optionally limited to one consumer.
func (s *AddressService) List(ctx context.Context, consumerID int64) ([]*domain.Address, error) {
	if consumerID != 0 {
		return s.repo.ListByConsumer(ctx, consumerID)
	}
	return s.repo.List(ctx)
}

func (s *AddressService) Get(ctx context.Context, id int64) (*domain.Address, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *AddressService) Create(ctx context.Context, in ports.AddressInput) (*domain.Address, error) {
	if in.Pincode == "" || in.City == "" {
		return nil, fmt.Errorf("%w: city and pincode are required", domain.ErrValidation)
	}
	if _, err := s.consumers.FindByID(ctx, in.ConsumerID); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, &domain.Address{
		HouseNumber: in.HouseNumber,
		Locality:    in.Locality,
		City:        in.City,
		State:       in.State,
		Pincode:     in.Pincode,
		ConsumerID:  in.ConsumerID,
		CreatedAt:   time.Now().UTC(),
	})
}

func (s *AddressService) Update(ctx context.Context, id int64, in ports.AddressInput) (*domain.Address, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.HouseNumber = in.HouseNumber
	a.Locality = in.Locality
	a.City = in.City
	a.State = in.State
	a.Pincode = in.Pincode

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AddressService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

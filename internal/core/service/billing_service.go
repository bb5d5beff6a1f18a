package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartmeter/billing-system/internal/api/metrics"
	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

// BillingService manages stored bills and arrears. Bills are recorded, not
// computed: total amount is fixed as base + tax at write time.
type BillingService struct {
	repo      ports.BillingRepository
	consumers ports.ConsumerRepository
	meters    ports.MeterRepository
	log       zerolog.Logger
}

func NewBillingService(
	repo ports.BillingRepository,
	consumers ports.ConsumerRepository,
	meters ports.MeterRepository,
	log zerolog.Logger,
) *BillingService {
	return &BillingService{repo: repo, consumers: consumers, meters: meters, log: log}
}

func (s *BillingService) ListBills(ctx context.Context, consumerID int64) ([]*domain.Billing, error) {
	return s.repo.ListBills(ctx, consumerID)
}

func (s *BillingService) GetBill(ctx context.Context, id int64) (*domain.Billing, error) {
	return s.repo.FindBill(ctx, id)
}

func (s *BillingService) CreateBill(ctx context.Context, in ports.BillInput) (*domain.Billing, error) {
	if in.PeriodEnd.Before(in.PeriodStart) {
		return nil, fmt.Errorf("%w: period_end precedes period_start", domain.ErrValidation)
	}
	if _, err := s.consumers.FindByID(ctx, in.ConsumerID); err != nil {
		return nil, err
	}
	if _, err := s.meters.FindBySerial(ctx, in.MeterSerialNo); err != nil {
		return nil, err
	}

	status := in.PaymentStatus
	if status == "" {
		status = domain.PaymentUnpaid
	}

	b := &domain.Billing{
		ConsumerID:         in.ConsumerID,
		MeterSerialNo:      in.MeterSerialNo,
		PeriodStart:        in.PeriodStart,
		PeriodEnd:          in.PeriodEnd,
		TotalUnitsConsumed: in.TotalUnitsConsumed,
		BaseAmount:         in.BaseAmount,
		TaxAmount:          in.TaxAmount,
		TotalAmount:        in.BaseAmount + in.TaxAmount,
		GeneratedAt:        time.Now().UTC(),
		DueDate:            in.DueDate,
		PaymentStatus:      status,
	}
	s.applyPaidDate(b)

	created, err := s.repo.CreateBill(ctx, b)
	if err != nil {
		return nil, err
	}

	metrics.BillsRecordedTotal.WithLabelValues(created.PaymentStatus).Inc()
	s.log.Info().Int64("bill_id", created.ID).Int64("consumer_id", created.ConsumerID).Msg("bill recorded")
	return created, nil
}

func (s *BillingService) UpdateBill(ctx context.Context, id int64, in ports.BillInput) (*domain.Billing, error) {
	b, err := s.repo.FindBill(ctx, id)
	if err != nil {
		return nil, err
	}

	b.PeriodStart = in.PeriodStart
	b.PeriodEnd = in.PeriodEnd
	b.TotalUnitsConsumed = in.TotalUnitsConsumed
	b.BaseAmount = in.BaseAmount
	b.TaxAmount = in.TaxAmount
	b.TotalAmount = in.BaseAmount + in.TaxAmount
	b.DueDate = in.DueDate
	b.PaymentStatus = in.PaymentStatus
	s.applyPaidDate(b)

	if err := s.repo.UpdateBill(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BillingService) DeleteBill(ctx context.Context, id int64) error {
	return s.repo.DeleteBill(ctx, id)
}

// applyPaidDate stamps the paid date the first time a bill transitions to
// Paid and clears it when it leaves that state.
func (s *BillingService) applyPaidDate(b *domain.Billing) {
	if b.PaymentStatus == domain.PaymentPaid {
		if b.PaidDate == nil {
			now := time.Now().UTC()
			b.PaidDate = &now
		}
		return
	}
	b.PaidDate = nil
}

// --- Arrears ---

func (s *BillingService) ListArrears(ctx context.Context, consumerID int64) ([]*domain.Arrear, error) {
	return s.repo.ListArrears(ctx, consumerID)
}

func (s *BillingService) GetArrear(ctx context.Context, id int64) (*domain.Arrear, error) {
	return s.repo.FindArrear(ctx, id)
}

func (s *BillingService) CreateArrear(ctx context.Context, in ports.ArrearInput) (*domain.Arrear, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if _, err := s.repo.FindBill(ctx, in.BillID); err != nil {
		return nil, err
	}
	if _, err := s.consumers.FindByID(ctx, in.ConsumerID); err != nil {
		return nil, err
	}

	status := in.PaidStatus
	if status == "" {
		status = domain.ArrearPending
	}

	return s.repo.CreateArrear(ctx, &domain.Arrear{
		ConsumerID: in.ConsumerID,
		BillID:     in.BillID,
		ArrearType: in.ArrearType,
		PaidStatus: status,
		Amount:     in.Amount,
		CreatedAt:  time.Now().UTC(),
	})
}

func (s *BillingService) UpdateArrear(ctx context.Context, id int64, in ports.ArrearInput) (*domain.Arrear, error) {
	a, err := s.repo.FindArrear(ctx, id)
	if err != nil {
		return nil, err
	}

	a.ArrearType = in.ArrearType
	a.PaidStatus = in.PaidStatus
	a.Amount = in.Amount

	if err := s.repo.UpdateArrear(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *BillingService) DeleteArrear(ctx context.Context, id int64) error {
	return s.repo.DeleteArrear(ctx, id)
}

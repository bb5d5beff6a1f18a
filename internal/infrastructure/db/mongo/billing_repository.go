package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

const (
	billsCollection   = "bills"
	arrearsCollection = "arrears"
)

// BillingRepository stores bills and arrears. Bill updates are
// revision-matched.
type BillingRepository struct {
	bills   *mongo.Collection
	arrears *mongo.Collection
}

func NewBillingRepository(db *mongo.Database) *BillingRepository {
	return &BillingRepository{
		bills:   db.Collection(billsCollection),
		arrears: db.Collection(arrearsCollection),
	}
}

type billDoc struct {
	ID                 int64      `bson:"_id"`
	ConsumerID         int64      `bson:"consumer_id"`
	MeterSerialNo      string     `bson:"meter_serial_no"`
	PeriodStart        time.Time  `bson:"period_start"`
	PeriodEnd          time.Time  `bson:"period_end"`
	TotalUnitsConsumed float64    `bson:"total_units_consumed"`
	BaseAmount         float64    `bson:"base_amount"`
	TaxAmount          float64    `bson:"tax_amount"`
	TotalAmount        float64    `bson:"total_amount"`
	GeneratedAt        time.Time  `bson:"generated_at"`
	DueDate            time.Time  `bson:"due_date"`
	PaidDate           *time.Time `bson:"paid_date,omitempty"`
	PaymentStatus      string     `bson:"payment_status"`
	DisconnectionDate  *time.Time `bson:"disconnection_date,omitempty"`
	Revision           int64      `bson:"revision"`
}

func (d billDoc) toDomain() *domain.Billing {
	return &domain.Billing{
		ID:                 d.ID,
		ConsumerID:         d.ConsumerID,
		MeterSerialNo:      d.MeterSerialNo,
		PeriodStart:        d.PeriodStart,
		PeriodEnd:          d.PeriodEnd,
		TotalUnitsConsumed: d.TotalUnitsConsumed,
		BaseAmount:         d.BaseAmount,
		TaxAmount:          d.TaxAmount,
		TotalAmount:        d.TotalAmount,
		GeneratedAt:        d.GeneratedAt,
		DueDate:            d.DueDate,
		PaidDate:           d.PaidDate,
		PaymentStatus:      d.PaymentStatus,
		DisconnectionDate:  d.DisconnectionDate,
		Revision:           d.Revision,
	}
}

func fromBill(b *domain.Billing) billDoc {
	return billDoc{
		ID:                 b.ID,
		ConsumerID:         b.ConsumerID,
		MeterSerialNo:      b.MeterSerialNo,
		PeriodStart:        b.PeriodStart,
		PeriodEnd:          b.PeriodEnd,
		TotalUnitsConsumed: b.TotalUnitsConsumed,
		BaseAmount:         b.BaseAmount,
		TaxAmount:          b.TaxAmount,
		TotalAmount:        b.TotalAmount,
		GeneratedAt:        b.GeneratedAt,
		DueDate:            b.DueDate,
		PaidDate:           b.PaidDate,
		PaymentStatus:      b.PaymentStatus,
		DisconnectionDate:  b.DisconnectionDate,
		Revision:           b.Revision,
	}
}

type arrearDoc struct {
	ID         int64     `bson:"_id"`
	ConsumerID int64     `bson:"consumer_id"`
	BillID     int64     `bson:"bill_id"`
	ArrearType string    `bson:"arrear_type"`
	PaidStatus string    `bson:"paid_status"`
	Amount     float64   `bson:"amount"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (d arrearDoc) toDomain() *domain.Arrear {
	return &domain.Arrear{
		ID:         d.ID,
		ConsumerID: d.ConsumerID,
		BillID:     d.BillID,
		ArrearType: d.ArrearType,
		PaidStatus: d.PaidStatus,
		Amount:     d.Amount,
		CreatedAt:  d.CreatedAt,
	}
}

func (r *BillingRepository) FindBill(ctx context.Context, id int64) (*domain.Billing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d billDoc
	err := r.bills.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBillNotFound
		}
		return nil, fmt.Errorf("find bill: %w", err)
	}
	return d.toDomain(), nil
}

func (r *BillingRepository) ListBills(ctx context.Context, consumerID int64) ([]*domain.Billing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if consumerID > 0 {
		filter["consumer_id"] = consumerID
	}

	cur, err := r.bills.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "period_start", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Billing
	for cur.Next(ctx) {
		var d billDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode bill: %w", err)
		}
		out = append(out, d.toDomain())
	}
	return out, cur.Err()
}

func (r *BillingRepository) CreateBill(ctx context.Context, b *domain.Billing) (*domain.Billing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.bills.Database(), billsCollection)
	if err != nil {
		return nil, err
	}

	doc := fromBill(b)
	doc.ID = id
	doc.Revision = 1

	if _, err := r.bills.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert bill: %w", err)
	}
	return doc.toDomain(), nil
}

// UpdateBill is revision-matched; a stale caller gets
// domain.ErrConcurrentModification.
func (r *BillingRepository) UpdateBill(ctx context.Context, b *domain.Billing) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.bills.UpdateOne(ctx,
		bson.M{"_id": b.ID, "revision": b.Revision},
		bson.M{
			"$set": bson.M{
				"consumer_id":          b.ConsumerID,
				"meter_serial_no":      b.MeterSerialNo,
				"period_start":         b.PeriodStart,
				"period_end":           b.PeriodEnd,
				"total_units_consumed": b.TotalUnitsConsumed,
				"base_amount":          b.BaseAmount,
				"tax_amount":           b.TaxAmount,
				"total_amount":         b.TotalAmount,
				"due_date":             b.DueDate,
				"paid_date":            b.PaidDate,
				"payment_status":       b.PaymentStatus,
				"disconnection_date":   b.DisconnectionDate,
			},
			"$inc": bson.M{"revision": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindBill(ctx, b.ID); err != nil {
			return err
		}
		return domain.ErrConcurrentModification
	}
	return nil
}

func (r *BillingRepository) DeleteBill(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.bills.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrBillNotFound
	}
	return nil
}

func (r *BillingRepository) FindArrear(ctx context.Context, id int64) (*domain.Arrear, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d arrearDoc
	err := r.arrears.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrArrearNotFound
		}
		return nil, fmt.Errorf("find arrear: %w", err)
	}
	return d.toDomain(), nil
}

func (r *BillingRepository) ListArrears(ctx context.Context, consumerID int64) ([]*domain.Arrear, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if consumerID > 0 {
		filter["consumer_id"] = consumerID
	}

	cur, err := r.arrears.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list arrears: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Arrear
	for cur.Next(ctx) {
		var d arrearDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode arrear: %w", err)
		}
		out = append(out, d.toDomain())
	}
	return out, cur.Err()
}

func (r *BillingRepository) CreateArrear(ctx context.Context, a *domain.Arrear) (*domain.Arrear, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.arrears.Database(), arrearsCollection)
	if err != nil {
		return nil, err
	}

	doc := arrearDoc{
		ID:         id,
		ConsumerID: a.ConsumerID,
		BillID:     a.BillID,
		ArrearType: a.ArrearType,
		PaidStatus: a.PaidStatus,
		Amount:     a.Amount,
		CreatedAt:  a.CreatedAt,
	}
	if _, err := r.arrears.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert arrear: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *BillingRepository) UpdateArrear(ctx context.Context, a *domain.Arrear) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.arrears.UpdateOne(ctx,
		bson.M{"_id": a.ID},
		bson.M{"$set": bson.M{
			"consumer_id": a.ConsumerID,
			"bill_id":     a.BillID,
			"arrear_type": a.ArrearType,
			"paid_status": a.PaidStatus,
			"amount":      a.Amount,
		}},
	)
	if err != nil {
		return fmt.Errorf("update arrear: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrArrearNotFound
	}
	return nil
}

func (r *BillingRepository) DeleteArrear(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.arrears.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete arrear: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrArrearNotFound
	}
	return nil
}

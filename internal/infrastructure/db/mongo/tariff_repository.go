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
	tariffsCollection  = "tariffs"
	todRulesCollection = "tod_rules"
	slabsCollection    = "tariff_slabs"
)

// TariffRepository stores rate plans along with their TOD rules and slabs.
// Rules and slabs are soft-deleted; reads filter them out by construction.
type TariffRepository struct {
	tariffs *mongo.Collection
	rules   *mongo.Collection
	slabs   *mongo.Collection
}

func NewTariffRepository(db *mongo.Database) *TariffRepository {
	return &TariffRepository{
		tariffs: db.Collection(tariffsCollection),
		rules:   db.Collection(todRulesCollection),
		slabs:   db.Collection(slabsCollection),
	}
}

type tariffDoc struct {
	ID            int64     `bson:"_id"`
	Name          string    `bson:"name"`
	EffectiveFrom time.Time `bson:"effective_from"`
	EffectiveTo   time.Time `bson:"effective_to,omitempty"`
	BaseRate      float64   `bson:"base_rate"`
	TaxRate       float64   `bson:"tax_rate"`
}

func (d tariffDoc) toDomain() *domain.Tariff {
	return &domain.Tariff{
		ID:            d.ID,
		Name:          d.Name,
		EffectiveFrom: d.EffectiveFrom,
		EffectiveTo:   d.EffectiveTo,
		BaseRate:      d.BaseRate,
		TaxRate:       d.TaxRate,
	}
}

type todRuleDoc struct {
	ID         int64   `bson:"_id"`
	TariffID   int64   `bson:"tariff_id"`
	Name       string  `bson:"name"`
	StartTime  string  `bson:"start_time"`
	EndTime    string  `bson:"end_time"`
	RatePerKwh float64 `bson:"rate_per_kwh"`
	Deleted    bool    `bson:"deleted"`
}

func (d todRuleDoc) toDomain() *domain.TodRule {
	return &domain.TodRule{
		ID:         d.ID,
		TariffID:   d.TariffID,
		Name:       d.Name,
		StartTime:  d.StartTime,
		EndTime:    d.EndTime,
		RatePerKwh: d.RatePerKwh,
		Deleted:    d.Deleted,
	}
}

type slabDoc struct {
	ID         int64   `bson:"_id"`
	TariffID   int64   `bson:"tariff_id"`
	FromKwh    float64 `bson:"from_kwh"`
	ToKwh      float64 `bson:"to_kwh"`
	RatePerKwh float64 `bson:"rate_per_kwh"`
	Deleted    bool    `bson:"deleted"`
}

func (d slabDoc) toDomain() *domain.TariffSlab {
	return &domain.TariffSlab{
		ID:         d.ID,
		TariffID:   d.TariffID,
		FromKwh:    d.FromKwh,
		ToKwh:      d.ToKwh,
		RatePerKwh: d.RatePerKwh,
		Deleted:    d.Deleted,
	}
}

func (r *TariffRepository) FindByID(ctx context.Context, id int64) (*domain.Tariff, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d tariffDoc
	err := r.tariffs.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTariffNotFound
		}
		return nil, fmt.Errorf("find tariff: %w", err)
	}
	return d.toDomain(), nil
}

func (r *TariffRepository) List(ctx context.Context) ([]*domain.Tariff, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.tariffs.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list tariffs: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Tariff
	for cur.Next(ctx) {
		var d tariffDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode tariff: %w", err)
		}
		out = append(out, d.toDomain())
	}
	return out, cur.Err()
}

func (r *TariffRepository) Create(ctx context.Context, t *domain.Tariff) (*domain.Tariff, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.tariffs.Database(), tariffsCollection)
	if err != nil {
		return nil, err
	}

	doc := tariffDoc{
		ID:            id,
		Name:          t.Name,
		EffectiveFrom: t.EffectiveFrom,
		EffectiveTo:   t.EffectiveTo,
		BaseRate:      t.BaseRate,
		TaxRate:       t.TaxRate,
	}
	if _, err := r.tariffs.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert tariff: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TariffRepository) Update(ctx context.Context, t *domain.Tariff) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.tariffs.UpdateOne(ctx,
		bson.M{"_id": t.ID},
		bson.M{"$set": bson.M{
			"name":           t.Name,
			"effective_from": t.EffectiveFrom,
			"effective_to":   t.EffectiveTo,
			"base_rate":      t.BaseRate,
			"tax_rate":       t.TaxRate,
		}},
	)
	if err != nil {
		return fmt.Errorf("update tariff: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTariffNotFound
	}
	return nil
}

func (r *TariffRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.tariffs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete tariff: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTariffNotFound
	}
	return nil
}

func (r *TariffRepository) FindTodRule(ctx context.Context, id int64) (*domain.TodRule, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d todRuleDoc
	err := r.rules.FindOne(ctx, bson.M{"_id": id, "deleted": false}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTodRuleNotFound
		}
		return nil, fmt.Errorf("find tod rule: %w", err)
	}
	return d.toDomain(), nil
}

func (r *TariffRepository) ListTodRules(ctx context.Context, tariffID int64) ([]*domain.TodRule, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"deleted": false}
	if tariffID > 0 {
		filter["tariff_id"] = tariffID
	}

	cur, err := r.rules.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list tod rules: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.TodRule
	for cur.Next(ctx) {
		var d todRuleDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode tod rule: %w", err)
		}
		out = append(out, d.toDomain())
	}
	return out, cur.Err()
}

func (r *TariffRepository) CreateTodRule(ctx context.Context, rule *domain.TodRule) (*domain.TodRule, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.rules.Database(), todRulesCollection)
	if err != nil {
		return nil, err
	}

	doc := todRuleDoc{
		ID:         id,
		TariffID:   rule.TariffID,
		Name:       rule.Name,
		StartTime:  rule.StartTime,
		EndTime:    rule.EndTime,
		RatePerKwh: rule.RatePerKwh,
	}
	if _, err := r.rules.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert tod rule: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TariffRepository) UpdateTodRule(ctx context.Context, rule *domain.TodRule) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.rules.UpdateOne(ctx,
		bson.M{"_id": rule.ID, "deleted": false},
		bson.M{"$set": bson.M{
			"tariff_id":    rule.TariffID,
			"name":         rule.Name,
			"start_time":   rule.StartTime,
			"end_time":     rule.EndTime,
			"rate_per_kwh": rule.RatePerKwh,
		}},
	)
	if err != nil {
		return fmt.Errorf("update tod rule: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTodRuleNotFound
	}
	return nil
}

func (r *TariffRepository) SoftDeleteTodRule(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.rules.UpdateOne(ctx,
		bson.M{"_id": id, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true}},
	)
	if err != nil {
		return fmt.Errorf("soft delete tod rule: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTodRuleNotFound
	}
	return nil
}

func (r *TariffRepository) FindSlab(ctx context.Context, id int64) (*domain.TariffSlab, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d slabDoc
	err := r.slabs.FindOne(ctx, bson.M{"_id": id, "deleted": false}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSlabNotFound
		}
		return nil, fmt.Errorf("find slab: %w", err)
	}
	return d.toDomain(), nil
}

func (r *TariffRepository) ListSlabs(ctx context.Context, tariffID int64) ([]*domain.TariffSlab, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"deleted": false}
	if tariffID > 0 {
		filter["tariff_id"] = tariffID
	}

	cur, err := r.slabs.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "from_kwh", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list slabs: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.TariffSlab
	for cur.Next(ctx) {
		var d slabDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode slab: %w", err)
		}
		out = append(out, d.toDomain())
	}
	return out, cur.Err()
}

func (r *TariffRepository) CreateSlab(ctx context.Context, s *domain.TariffSlab) (*domain.TariffSlab, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.slabs.Database(), slabsCollection)
	if err != nil {
		return nil, err
	}

	doc := slabDoc{
		ID:         id,
		TariffID:   s.TariffID,
		FromKwh:    s.FromKwh,
		ToKwh:      s.ToKwh,
		RatePerKwh: s.RatePerKwh,
	}
	if _, err := r.slabs.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert slab: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TariffRepository) UpdateSlab(ctx context.Context, s *domain.TariffSlab) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.slabs.UpdateOne(ctx,
		bson.M{"_id": s.ID, "deleted": false},
		bson.M{"$set": bson.M{
			"tariff_id":    s.TariffID,
			"from_kwh":     s.FromKwh,
			"to_kwh":       s.ToKwh,
			"rate_per_kwh": s.RatePerKwh,
		}},
	)
	if err != nil {
		return fmt.Errorf("update slab: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSlabNotFound
	}
	return nil
}

func (r *TariffRepository) SoftDeleteSlab(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.slabs.UpdateOne(ctx,
		bson.M{"_id": id, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true}},
	)
	if err != nil {
		return fmt.Errorf("soft delete slab: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSlabNotFound
	}
	return nil
}

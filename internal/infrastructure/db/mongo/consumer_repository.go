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

const consumersCollection = "consumers"

// ConsumerRepository stores end-customer accounts. Soft delete is a flag;
// every read filter includes deleted=false so removed consumers are invisible
// by construction. A partial unique index on email (deleted=false only) lets
// a deleted consumer's email be reused.
type ConsumerRepository struct {
	col *mongo.Collection
}

func NewConsumerRepository(db *mongo.Database) *ConsumerRepository {
	return &ConsumerRepository{col: db.Collection(consumersCollection)}
}

type consumerDoc struct {
	ID           int64      `bson:"_id"`
	Name         string     `bson:"name"`
	Email        string     `bson:"email"`
	PasswordHash string     `bson:"password_hash"`
	Phone        string     `bson:"phone,omitempty"`
	OrgUnitID    int64      `bson:"org_unit_id,omitempty"`
	TariffID     int64      `bson:"tariff_id,omitempty"`
	Status       string     `bson:"status"`
	PhotoURL     string     `bson:"photo_url,omitempty"`
	Deleted      bool       `bson:"deleted"`
	CreatedAt    time.Time  `bson:"created_at"`
	CreatedBy    string     `bson:"created_by"`
	UpdatedAt    *time.Time `bson:"updated_at,omitempty"`
	UpdatedBy    string     `bson:"updated_by,omitempty"`
	Revision     int64      `bson:"revision"`
}

func (d consumerDoc) toDomain() *domain.Consumer {
	return &domain.Consumer{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Phone:        d.Phone,
		OrgUnitID:    d.OrgUnitID,
		TariffID:     d.TariffID,
		Status:       d.Status,
		PhotoURL:     d.PhotoURL,
		Deleted:      d.Deleted,
		CreatedAt:    d.CreatedAt,
		CreatedBy:    d.CreatedBy,
		UpdatedAt:    d.UpdatedAt,
		UpdatedBy:    d.UpdatedBy,
		Revision:     d.Revision,
	}
}

func fromConsumer(c *domain.Consumer) consumerDoc {
	return consumerDoc{
		ID:           c.ID,
		Name:         c.Name,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Phone:        c.Phone,
		OrgUnitID:    c.OrgUnitID,
		TariffID:     c.TariffID,
		Status:       c.Status,
		PhotoURL:     c.PhotoURL,
		Deleted:      c.Deleted,
		CreatedAt:    c.CreatedAt,
		CreatedBy:    c.CreatedBy,
		UpdatedAt:    c.UpdatedAt,
		UpdatedBy:    c.UpdatedBy,
		Revision:     c.Revision,
	}
}

// FindByEmail only matches active, non-deleted consumers. Used exclusively
// by the login path.
func (r *ConsumerRepository) FindByEmail(ctx context.Context, email string) (*domain.Consumer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d consumerDoc
	err := r.col.FindOne(ctx, bson.M{
		"email":   email,
		"deleted": false,
		"status":  domain.ConsumerActive,
	}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrConsumerNotFound
		}
		return nil, fmt.Errorf("find consumer: %w", err)
	}
	return d.toDomain(), nil
}

func (r *ConsumerRepository) FindByID(ctx context.Context, id int64) (*domain.Consumer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d consumerDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id, "deleted": false}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrConsumerNotFound
		}
		return nil, fmt.Errorf("find consumer: %w", err)
	}
	return d.toDomain(), nil
}

func (r *ConsumerRepository) List(ctx context.Context) ([]*domain.Consumer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"deleted": false},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list consumers: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Consumer
	for cur.Next(ctx) {
		var d consumerDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode consumer: %w", err)
		}
		out = append(out, d.toDomain())
	}
	return out, cur.Err()
}

func (r *ConsumerRepository) Create(ctx context.Context, c *domain.Consumer) (*domain.Consumer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.col.Database(), consumersCollection)
	if err != nil {
		return nil, err
	}

	doc := fromConsumer(c)
	doc.ID = id
	doc.Revision = 1

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("insert consumer: %w", err)
	}
	return doc.toDomain(), nil
}

// Update replaces the mutable fields of a consumer. The filter matches on the
// caller's revision; a concurrent writer bumps the stored revision first and
// the losing update matches nothing.
func (r *ConsumerRepository) Update(ctx context.Context, c *domain.Consumer) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": c.ID, "deleted": false, "revision": c.Revision},
		bson.M{
			"$set": bson.M{
				"name":        c.Name,
				"email":       c.Email,
				"phone":       c.Phone,
				"org_unit_id": c.OrgUnitID,
				"tariff_id":   c.TariffID,
				"status":      c.Status,
				"photo_url":   c.PhotoURL,
				"updated_at":  c.UpdatedAt,
				"updated_by":  c.UpdatedBy,
			},
			"$inc": bson.M{"revision": 1},
		},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateIdentity
		}
		return fmt.Errorf("update consumer: %w", err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing row from a stale revision.
		if _, err := r.FindByID(ctx, c.ID); err != nil {
			return err
		}
		return domain.ErrConcurrentModification
	}
	return nil
}

func (r *ConsumerRepository) SoftDelete(ctx context.Context, id int64, by string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "deleted": false},
		bson.M{
			"$set": bson.M{
				"deleted":    true,
				"status":     domain.ConsumerInactive,
				"updated_at": now,
				"updated_by": by,
			},
			"$inc": bson.M{"revision": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("soft delete consumer: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrConsumerNotFound
	}
	return nil
}

func (r *ConsumerRepository) UpdatePassword(ctx context.Context, id int64, newHash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "deleted": false},
		bson.M{"$set": bson.M{"password_hash": newHash}},
	)
	if err != nil {
		return fmt.Errorf("update consumer password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrConsumerNotFound
	}
	return nil
}

// EnsureIndexes creates the partial unique email index. Uniqueness only
// applies to live rows, so the email of a soft-deleted consumer can be
// registered again.
func (r *ConsumerRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"deleted": false}),
	})
	return err
}

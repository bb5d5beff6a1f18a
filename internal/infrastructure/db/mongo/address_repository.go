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

const addressesCollection = "addresses"

// AddressRepository stores consumer supply addresses.
type AddressRepository struct {
	col *mongo.Collection
}

func NewAddressRepository(db *mongo.Database) *AddressRepository {
	return &AddressRepository{col: db.Collection(addressesCollection)}
}

type addressDoc struct {
	ID          int64     `bson:"_id"`
	HouseNumber string    `bson:"house_number"`
	Locality    string    `bson:"locality"`
	City        string    `bson:"city"`
	State       string    `bson:"state"`
	Pincode     string    `bson:"pincode"`
	ConsumerID  int64     `bson:"consumer_id"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d addressDoc) toDomain() *domain.Address {
	return &domain.Address{
		ID:          d.ID,
		HouseNumber: d.HouseNumber,
		Locality:    d.Locality,
		City:        d.City,
		State:       d.State,
		Pincode:     d.Pincode,
		ConsumerID:  d.ConsumerID,
		CreatedAt:   d.CreatedAt,
	}
}

func (r *AddressRepository) FindByID(ctx context.Context, id int64) (*domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d addressDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAddressNotFound
		}
		return nil, fmt.Errorf("find address: %w", err)
	}
	return d.toDomain(), nil
}

func (r *AddressRepository) ListByConsumer(ctx context.Context, consumerID int64) ([]*domain.Address, error) {
	return r.list(ctx, bson.M{"consumer_id": consumerID})
}

func (r *AddressRepository) List(ctx context.Context) ([]*domain.Address, error) {
	return r.list(ctx, bson.M{})
}

func (r *AddressRepository) list(ctx context.Context, filter bson.M) ([]*domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Address
	for cur.Next(ctx) {
		var d addressDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode address: %w", err)
		}
		out = append(out, d.toDomain())
	}
	return out, cur.Err()
}

func (r *AddressRepository) Create(ctx context.Context, a *domain.Address) (*domain.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.col.Database(), addressesCollection)
	if err != nil {
		return nil, err
	}

	doc := addressDoc{
		ID:          id,
		HouseNumber: a.HouseNumber,
		Locality:    a.Locality,
		City:        a.City,
		State:       a.State,
		Pincode:     a.Pincode,
		ConsumerID:  a.ConsumerID,
		CreatedAt:   a.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert address: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AddressRepository) Update(ctx context.Context, a *domain.Address) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": a.ID},
		bson.M{"$set": bson.M{
			"house_number": a.HouseNumber,
			"locality":     a.Locality,
			"city":         a.City,
			"state":        a.State,
			"pincode":      a.Pincode,
			"consumer_id":  a.ConsumerID,
		}},
	)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

func (r *AddressRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

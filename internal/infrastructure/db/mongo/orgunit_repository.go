package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

const orgUnitsCollection = "org_units"

// OrgUnitRepository stores the organizational hierarchy. Delete is guarded
// against dangling references from child units and consumers.
type OrgUnitRepository struct {
	col       *mongo.Collection
	consumers *mongo.Collection
}

func NewOrgUnitRepository(db *mongo.Database) *OrgUnitRepository {
	return &OrgUnitRepository{
		col:       db.Collection(orgUnitsCollection),
		consumers: db.Collection(consumersCollection),
	}
}

type orgUnitDoc struct {
	ID       int64  `bson:"_id"`
	Type     string `bson:"type"`
	Name     string `bson:"name"`
	ParentID int64  `bson:"parent_id,omitempty"`
}

func (d orgUnitDoc) toDomain() *domain.OrgUnit {
	return &domain.OrgUnit{
		ID:       d.ID,
		Type:     d.Type,
		Name:     d.Name,
		ParentID: d.ParentID,
	}
}

func (r *OrgUnitRepository) FindByID(ctx context.Context, id int64) (*domain.OrgUnit, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d orgUnitDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrgUnitNotFound
		}
		return nil, fmt.Errorf("find org unit: %w", err)
	}
	return d.toDomain(), nil
}

func (r *OrgUnitRepository) List(ctx context.Context) ([]*domain.OrgUnit, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list org units: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.OrgUnit
	for cur.Next(ctx) {
		var d orgUnitDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode org unit: %w", err)
		}
		out = append(out, d.toDomain())
	}
	return out, cur.Err()
}

func (r *OrgUnitRepository) Create(ctx context.Context, u *domain.OrgUnit) (*domain.OrgUnit, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.col.Database(), orgUnitsCollection)
	if err != nil {
		return nil, err
	}

	doc := orgUnitDoc{ID: id, Type: u.Type, Name: u.Name, ParentID: u.ParentID}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert org unit: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *OrgUnitRepository) Update(ctx context.Context, u *domain.OrgUnit) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{
			"type":      u.Type,
			"name":      u.Name,
			"parent_id": u.ParentID,
		}},
	)
	if err != nil {
		return fmt.Errorf("update org unit: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrOrgUnitNotFound
	}
	return nil
}

// Delete removes a unit only when nothing references it: no child units and
// no live consumers assigned to it.
func (r *OrgUnitRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	children, err := r.col.CountDocuments(ctx, bson.M{"parent_id": id})
	if err != nil {
		return fmt.Errorf("count child units: %w", err)
	}
	if children > 0 {
		return domain.ErrOrgUnitInUse
	}

	assigned, err := r.consumers.CountDocuments(ctx, bson.M{"org_unit_id": id, "deleted": false})
	if err != nil {
		return fmt.Errorf("count assigned consumers: %w", err)
	}
	if assigned > 0 {
		return domain.ErrOrgUnitInUse
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete org unit: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrOrgUnitNotFound
	}
	return nil
}

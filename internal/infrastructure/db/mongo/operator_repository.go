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

const operatorsCollection = "operators"

// OperatorRepository stores internal staff accounts. A unique index on
// username backs the duplicate-identity guarantee.
type OperatorRepository struct {
	col *mongo.Collection
}

func NewOperatorRepository(db *mongo.Database) *OperatorRepository {
	return &OperatorRepository{col: db.Collection(operatorsCollection)}
}

type operatorDoc struct {
	ID           int64      `bson:"_id"`
	Username     string     `bson:"username"`
	DisplayName  string     `bson:"display_name"`
	PasswordHash string     `bson:"password_hash"`
	Email        string     `bson:"email,omitempty"`
	Phone        string     `bson:"phone,omitempty"`
	IsActive     bool       `bson:"is_active"`
	LastLoginUtc *time.Time `bson:"last_login_utc,omitempty"`
	CreatedAt    time.Time  `bson:"created_at"`
}

func (d operatorDoc) toDomain() *domain.Operator {
	return &domain.Operator{
		ID:           d.ID,
		Username:     d.Username,
		DisplayName:  d.DisplayName,
		PasswordHash: d.PasswordHash,
		Email:        d.Email,
		Phone:        d.Phone,
		IsActive:     d.IsActive,
		LastLoginUtc: d.LastLoginUtc,
		CreatedAt:    d.CreatedAt,
	}
}

// FindByUsername only matches active operators; deactivated accounts cannot
// log in.
func (r *OperatorRepository) FindByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d operatorDoc
	err := r.col.FindOne(ctx, bson.M{"username": username, "is_active": true}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOperatorNotFound
		}
		return nil, fmt.Errorf("find operator: %w", err)
	}
	return d.toDomain(), nil
}

func (r *OperatorRepository) FindByID(ctx context.Context, id int64) (*domain.Operator, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d operatorDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOperatorNotFound
		}
		return nil, fmt.Errorf("find operator: %w", err)
	}
	return d.toDomain(), nil
}

func (r *OperatorRepository) Create(ctx context.Context, op *domain.Operator) (*domain.Operator, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.col.Database(), operatorsCollection)
	if err != nil {
		return nil, err
	}

	doc := operatorDoc{
		ID:           id,
		Username:     op.Username,
		DisplayName:  op.DisplayName,
		PasswordHash: op.PasswordHash,
		Email:        op.Email,
		Phone:        op.Phone,
		IsActive:     op.IsActive,
		CreatedAt:    op.CreatedAt,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("insert operator: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *OperatorRepository) UpdatePassword(ctx context.Context, id int64, newHash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password_hash": newHash}},
	)
	if err != nil {
		return fmt.Errorf("update operator password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrOperatorNotFound
	}
	return nil
}

func (r *OperatorRepository) StampLastLogin(ctx context.Context, id int64, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"last_login_utc": at}},
	)
	if err != nil {
		return fmt.Errorf("stamp last login: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique username index.
func (r *OperatorRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

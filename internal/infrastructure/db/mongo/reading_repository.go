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

const readingsCollection = "meter_readings"

// ReadingRepository stores daily meter readings. A compound unique index on
// (meter_serial_no, reading_date) enforces at most one reading per meter per
// day at the store.
type ReadingRepository struct {
	col *mongo.Collection
}

func NewReadingRepository(db *mongo.Database) *ReadingRepository {
	return &ReadingRepository{col: db.Collection(readingsCollection)}
}

type readingDoc struct {
	ID             int64     `bson:"_id"`
	ReadingDate    time.Time `bson:"reading_date"`
	EnergyConsumed float64   `bson:"energy_consumed"`
	MeterSerialNo  string    `bson:"meter_serial_no"`
	Current        float64   `bson:"current,omitempty"`
	Voltage        float64   `bson:"voltage,omitempty"`
}

func (d readingDoc) toDomain() *domain.MeterReading {
	return &domain.MeterReading{
		ID:             d.ID,
		ReadingDate:    d.ReadingDate,
		EnergyConsumed: d.EnergyConsumed,
		MeterSerialNo:  d.MeterSerialNo,
		Current:        d.Current,
		Voltage:        d.Voltage,
	}
}

func (r *ReadingRepository) Insert(ctx context.Context, reading *domain.MeterReading) (*domain.MeterReading, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.col.Database(), readingsCollection)
	if err != nil {
		return nil, err
	}

	doc := readingDoc{
		ID:             id,
		ReadingDate:    reading.ReadingDate,
		EnergyConsumed: reading.EnergyConsumed,
		MeterSerialNo:  reading.MeterSerialNo,
		Current:        reading.Current,
		Voltage:        reading.Voltage,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateReading
		}
		return nil, fmt.Errorf("insert reading: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ReadingRepository) FindByID(ctx context.Context, id int64) (*domain.MeterReading, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d readingDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReadingNotFound
		}
		return nil, fmt.Errorf("find reading: %w", err)
	}
	return d.toDomain(), nil
}

func (r *ReadingRepository) ListByMeter(ctx context.Context, serialNo string) ([]*domain.MeterReading, error) {
	return r.list(ctx, bson.M{"meter_serial_no": serialNo})
}

func (r *ReadingRepository) List(ctx context.Context) ([]*domain.MeterReading, error) {
	return r.list(ctx, bson.M{})
}

func (r *ReadingRepository) list(ctx context.Context, filter bson.M) ([]*domain.MeterReading, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "reading_date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.MeterReading
	for cur.Next(ctx) {
		var d readingDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode reading: %w", err)
		}
		out = append(out, d.toDomain())
	}
	return out, cur.Err()
}

func (r *ReadingRepository) Update(ctx context.Context, reading *domain.MeterReading) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": reading.ID},
		bson.M{"$set": bson.M{
			"reading_date":    reading.ReadingDate,
			"energy_consumed": reading.EnergyConsumed,
			"meter_serial_no": reading.MeterSerialNo,
			"current":         reading.Current,
			"voltage":         reading.Voltage,
		}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateReading
		}
		return fmt.Errorf("update reading: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrReadingNotFound
	}
	return nil
}

func (r *ReadingRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete reading: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrReadingNotFound
	}
	return nil
}

// EnsureIndexes creates the compound unique (meter, date) index. Stored
// dates are UTC-midnight calendar days, so the index enforces one reading
// per meter per day.
func (r *ReadingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "meter_serial_no", Value: 1},
			{Key: "reading_date", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	return err
}

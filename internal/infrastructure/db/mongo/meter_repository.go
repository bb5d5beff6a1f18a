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

const metersCollection = "meters"

// MeterRepository stores metering devices keyed by serial number. The serial
// number is the document id.
type MeterRepository struct {
	col *mongo.Collection
}

func NewMeterRepository(db *mongo.Database) *MeterRepository {
	return &MeterRepository{col: db.Collection(metersCollection)}
}

type meterDoc struct {
	SerialNo     string    `bson:"_id"`
	IPAddress    string    `bson:"ip_address"`
	ICCID        string    `bson:"iccid"`
	IMSI         string    `bson:"imsi"`
	Manufacturer string    `bson:"manufacturer"`
	Firmware     string    `bson:"firmware,omitempty"`
	Category     string    `bson:"category"`
	InstallTsUtc time.Time `bson:"install_ts_utc"`
	Status       string    `bson:"status"`
	ConsumerID   int64     `bson:"consumer_id,omitempty"`
	Revision     int64     `bson:"revision"`
}

func (d meterDoc) toDomain() *domain.Meter {
	return &domain.Meter{
		SerialNo:     d.SerialNo,
		IPAddress:    d.IPAddress,
		ICCID:        d.ICCID,
		IMSI:         d.IMSI,
		Manufacturer: d.Manufacturer,
		Firmware:     d.Firmware,
		Category:     d.Category,
		InstallTsUtc: d.InstallTsUtc,
		Status:       d.Status,
		ConsumerID:   d.ConsumerID,
		Revision:     d.Revision,
	}
}

func fromMeter(m *domain.Meter) meterDoc {
	return meterDoc{
		SerialNo:     m.SerialNo,
		IPAddress:    m.IPAddress,
		ICCID:        m.ICCID,
		IMSI:         m.IMSI,
		Manufacturer: m.Manufacturer,
		Firmware:     m.Firmware,
		Category:     m.Category,
		InstallTsUtc: m.InstallTsUtc,
		Status:       m.Status,
		ConsumerID:   m.ConsumerID,
		Revision:     m.Revision,
	}
}

func (r *MeterRepository) FindBySerial(ctx context.Context, serialNo string) (*domain.Meter, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d meterDoc
	err := r.col.FindOne(ctx, bson.M{"_id": serialNo}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMeterNotFound
		}
		return nil, fmt.Errorf("find meter: %w", err)
	}
	return d.toDomain(), nil
}

func (r *MeterRepository) List(ctx context.Context) ([]*domain.Meter, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list meters: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Meter
	for cur.Next(ctx) {
		var d meterDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode meter: %w", err)
		}
		out = append(out, d.toDomain())
	}
	return out, cur.Err()
}

func (r *MeterRepository) Create(ctx context.Context, m *domain.Meter) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := fromMeter(m)
	doc.Revision = 1
	m.Revision = 1

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateIdentity
		}
		return fmt.Errorf("insert meter: %w", err)
	}
	return nil
}

// Update is revision-matched; a stale caller gets
// domain.ErrConcurrentModification.
func (r *MeterRepository) Update(ctx context.Context, m *domain.Meter) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": m.SerialNo, "revision": m.Revision},
		bson.M{
			"$set": bson.M{
				"ip_address":     m.IPAddress,
				"iccid":          m.ICCID,
				"imsi":           m.IMSI,
				"manufacturer":   m.Manufacturer,
				"firmware":       m.Firmware,
				"category":       m.Category,
				"install_ts_utc": m.InstallTsUtc,
				"status":         m.Status,
				"consumer_id":    m.ConsumerID,
			},
			"$inc": bson.M{"revision": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("update meter: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindBySerial(ctx, m.SerialNo); err != nil {
			return err
		}
		return domain.ErrConcurrentModification
	}
	return nil
}

func (r *MeterRepository) Delete(ctx context.Context, serialNo string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": serialNo})
	if err != nil {
		return fmt.Errorf("delete meter: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrMeterNotFound
	}
	return nil
}

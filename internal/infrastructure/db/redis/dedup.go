package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 48 * time.Hour

// ReadingDedup provides idempotency checks for the reading ingestion pipeline.
// Key format: dedup:<meter_serial_no>:<reading_date>, where the date is the
// calendar day the reading belongs to. The TTL outlives the daily reporting
// window so a retransmitted reading is caught even a day late.
type ReadingDedup struct {
	client *redis.Client
}

// NewReadingDedup creates a ReadingDedup wrapping the given Redis client.
func NewReadingDedup(client *redis.Client) *ReadingDedup {
	return &ReadingDedup{client: client}
}

// IsDuplicate reports whether a reading for this meter and day has already
// been processed.
func (d *ReadingDedup) IsDuplicate(ctx context.Context, serialNo, date string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(serialNo, date)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that a reading for this meter and day has been processed.
func (d *ReadingDedup) Mark(ctx context.Context, serialNo, date string) error {
	return d.client.Set(ctx, d.key(serialNo, date), "1", dedupTTL).Err()
}

func (d *ReadingDedup) key(serialNo, date string) string {
	return fmt.Sprintf("dedup:%s:%s", serialNo, date)
}

package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/smartmeter/billing-system/internal/api/metrics"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes telemetry readings to a fixed set of workers using
// consistent hashing on the meter serial number, so readings from one meter
// are always processed in arrival order.
type Dispatcher struct {
	workers []chan ports.ReadingInput
	service ports.ReadingService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.ReadingService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.ReadingInput, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ReadingInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a reading to the worker responsible for its meter.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(in ports.ReadingInput) {
	idx := d.shardIndex(in.MeterSerialNo)
	d.workers[idx] <- in
	metrics.ReadingQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// EnqueueBatch enqueues multiple readings preserving per-meter ordering.
func (d *Dispatcher) EnqueueBatch(ins []ports.ReadingInput) {
	for _, in := range ins {
		d.Enqueue(in)
	}
}

// shardIndex maps a meter serial number deterministically to a worker index.
func (d *Dispatcher) shardIndex(serialNo string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(serialNo))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ReadingInput) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-ch:
			if !ok {
				return
			}
			metrics.ReadingQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
			if err := d.service.Ingest(ctx, in); err != nil {
				d.log.Error().Err(err).
					Str("meter_serial_no", in.MeterSerialNo).
					Int("worker_id", id).
					Msg("reading processing failed")
			}
		}
	}
}

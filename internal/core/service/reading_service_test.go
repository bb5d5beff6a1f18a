package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

type stubMeterRepo struct {
	bySerial map[string]*domain.Meter
}

func newStubMeterRepo(serials ...string) *stubMeterRepo {
	r := &stubMeterRepo{bySerial: make(map[string]*domain.Meter)}
	for _, s := range serials {
		r.bySerial[s] = &domain.Meter{SerialNo: s, Status: domain.MeterActive, Revision: 1}
	}
	return r
}

func (r *stubMeterRepo) FindBySerial(_ context.Context, serialNo string) (*domain.Meter, error) {
	m, ok := r.bySerial[serialNo]
	if !ok {
		return nil, domain.ErrMeterNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *stubMeterRepo) List(_ context.Context) ([]*domain.Meter, error) {
	var out []*domain.Meter
	for _, m := range r.bySerial {
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubMeterRepo) Create(_ context.Context, m *domain.Meter) error {
	if _, exists := r.bySerial[m.SerialNo]; exists {
		return domain.ErrDuplicateIdentity
	}
	clone := *m
	clone.Revision = 1
	r.bySerial[m.SerialNo] = &clone
	return nil
}

func (r *stubMeterRepo) Update(_ context.Context, m *domain.Meter) error {
	existing, ok := r.bySerial[m.SerialNo]
	if !ok {
		return domain.ErrMeterNotFound
	}
	if existing.Revision != m.Revision {
		return domain.ErrConcurrentModification
	}
	clone := *m
	clone.Revision = existing.Revision + 1
	r.bySerial[m.SerialNo] = &clone
	return nil
}

func (r *stubMeterRepo) Delete(_ context.Context, serialNo string) error {
	if _, ok := r.bySerial[serialNo]; !ok {
		return domain.ErrMeterNotFound
	}
	delete(r.bySerial, serialNo)
	return nil
}

type stubReadingRepo struct {
	byID   map[int64]*domain.MeterReading
	byKey  map[string]int64
	nextID int64
}

func newStubReadingRepo() *stubReadingRepo {
	return &stubReadingRepo{
		byID:  make(map[int64]*domain.MeterReading),
		byKey: make(map[string]int64),
	}
}

// readingKey mirrors the store's compound unique index: uniqueness is on the
// exact stored timestamp, so any day-truncation must happen before Insert.
func readingKey(serialNo string, date time.Time) string {
	return serialNo + "|" + date.UTC().Format(time.RFC3339Nano)
}

func (r *stubReadingRepo) Insert(_ context.Context, reading *domain.MeterReading) (*domain.MeterReading, error) {
	key := readingKey(reading.MeterSerialNo, reading.ReadingDate)
	if _, exists := r.byKey[key]; exists {
		return nil, domain.ErrDuplicateReading
	}
	r.nextID++
	clone := *reading
	clone.ID = r.nextID
	r.byID[clone.ID] = &clone
	r.byKey[key] = clone.ID
	out := clone
	return &out, nil
}

func (r *stubReadingRepo) FindByID(_ context.Context, id int64) (*domain.MeterReading, error) {
	reading, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrReadingNotFound
	}
	clone := *reading
	return &clone, nil
}

func (r *stubReadingRepo) ListByMeter(_ context.Context, serialNo string) ([]*domain.MeterReading, error) {
	var out []*domain.MeterReading
	for _, reading := range r.byID {
		if reading.MeterSerialNo == serialNo {
			clone := *reading
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubReadingRepo) List(_ context.Context) ([]*domain.MeterReading, error) {
	var out []*domain.MeterReading
	for _, reading := range r.byID {
		clone := *reading
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubReadingRepo) Update(_ context.Context, reading *domain.MeterReading) error {
	if _, ok := r.byID[reading.ID]; !ok {
		return domain.ErrReadingNotFound
	}
	clone := *reading
	r.byID[reading.ID] = &clone
	return nil
}

func (r *stubReadingRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrReadingNotFound
	}
	delete(r.byID, id)
	return nil
}

type stubDedup struct {
	keys  map[string]bool
	fail  bool
	marks int
}

func newStubDedup() *stubDedup {
	return &stubDedup{keys: make(map[string]bool)}
}

func (d *stubDedup) IsDuplicate(_ context.Context, serialNo, date string) (bool, error) {
	if d.fail {
		return false, errors.New("redis down")
	}
	return d.keys[serialNo+":"+date], nil
}

func (d *stubDedup) Mark(_ context.Context, serialNo, date string) error {
	if d.fail {
		return errors.New("redis down")
	}
	d.keys[serialNo+":"+date] = true
	d.marks++
	return nil
}

func testReadingInput(serial string, day time.Time) ports.ReadingInput {
	return ports.ReadingInput{
		MeterSerialNo:  serial,
		ReadingDate:    day,
		EnergyConsumed: 12.5,
		Current:        4.1,
		Voltage:        229.8,
	}
}

func TestReadingService_Ingest_Success(t *testing.T) {
	readings := newStubReadingRepo()
	dedup := newStubDedup()
	svc := NewReadingService(readings, newStubMeterRepo("MTR-001"), dedup, zerolog.Nop())

	day := time.Date(2026, 5, 10, 8, 30, 0, 0, time.UTC)
	if err := svc.Ingest(context.Background(), testReadingInput("MTR-001", day)); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if len(readings.byID) != 1 {
		t.Fatalf("expected 1 stored reading, got %d", len(readings.byID))
	}
	if dedup.marks != 1 {
		t.Fatalf("expected dedup key to be set once, got %d", dedup.marks)
	}
}

func TestReadingService_Ingest_DuplicateSkipped(t *testing.T) {
	readings := newStubReadingRepo()
	dedup := newStubDedup()
	svc := NewReadingService(readings, newStubMeterRepo("MTR-001"), dedup, zerolog.Nop())

	day := time.Date(2026, 5, 10, 8, 30, 0, 0, time.UTC)
	if err := svc.Ingest(context.Background(), testReadingInput("MTR-001", day)); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}

	// Same meter, later hour of the same day: still one reading per day.
	retransmit := testReadingInput("MTR-001", day.Add(6*time.Hour))
	if err := svc.Ingest(context.Background(), retransmit); err != nil {
		t.Fatalf("duplicate ingest must be skipped silently, got %v", err)
	}
	if len(readings.byID) != 1 {
		t.Fatalf("expected duplicate to be dropped, stored %d readings", len(readings.byID))
	}

	// Next day is a fresh reading.
	if err := svc.Ingest(context.Background(), testReadingInput("MTR-001", day.AddDate(0, 0, 1))); err != nil {
		t.Fatalf("next-day ingest failed: %v", err)
	}
	if len(readings.byID) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(readings.byID))
	}
}

func TestReadingService_Ingest_UnknownMeter(t *testing.T) {
	readings := newStubReadingRepo()
	svc := NewReadingService(readings, newStubMeterRepo("MTR-001"), newStubDedup(), zerolog.Nop())

	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	err := svc.Ingest(context.Background(), testReadingInput("MTR-999", day))
	if !errors.Is(err, domain.ErrMeterNotFound) {
		t.Fatalf("expected ErrMeterNotFound, got %v", err)
	}
	if len(readings.byID) != 0 {
		t.Fatalf("reading for unknown meter must not be stored")
	}
}

func TestReadingService_Ingest_DedupOutage(t *testing.T) {
	readings := newStubReadingRepo()
	dedup := newStubDedup()
	dedup.fail = true
	svc := NewReadingService(readings, newStubMeterRepo("MTR-001"), dedup, zerolog.Nop())

	// A dedup store outage degrades to store-level duplicate detection
	// instead of dropping telemetry.
	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	if err := svc.Ingest(context.Background(), testReadingInput("MTR-001", day)); err != nil {
		t.Fatalf("ingest during dedup outage failed: %v", err)
	}
	if err := svc.Ingest(context.Background(), testReadingInput("MTR-001", day)); err != nil {
		t.Fatalf("store-level duplicate must be tolerated, got %v", err)
	}
	if len(readings.byID) != 1 {
		t.Fatalf("expected 1 stored reading, got %d", len(readings.byID))
	}

	// A same-day retransmit at a different hour must also collapse onto the
	// stored row: the persisted date is the calendar day, not the timestamp.
	retransmit := testReadingInput("MTR-001", day.Add(6*time.Hour))
	if err := svc.Ingest(context.Background(), retransmit); err != nil {
		t.Fatalf("same-day retransmit during outage must be tolerated, got %v", err)
	}
	if len(readings.byID) != 1 {
		t.Fatalf("one reading per meter per day violated: %d rows stored", len(readings.byID))
	}
}

func TestReadingService_StoresCalendarDay(t *testing.T) {
	readings := newStubReadingRepo()
	svc := NewReadingService(readings, newStubMeterRepo("MTR-001"), newStubDedup(), zerolog.Nop())

	stamp := time.Date(2026, 5, 10, 14, 30, 12, 0, time.UTC)
	created, err := svc.Create(context.Background(), operatorPrincipal, testReadingInput("MTR-001", stamp))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	want := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	if !created.ReadingDate.Equal(want) {
		t.Fatalf("expected reading date %v, got %v", want, created.ReadingDate)
	}

	// And the synchronous path surfaces the conflict for a same-day insert
	// at another hour.
	_, err = svc.Create(context.Background(), operatorPrincipal, testReadingInput("MTR-001", stamp.Add(-6*time.Hour)))
	if !errors.Is(err, domain.ErrDuplicateReading) {
		t.Fatalf("expected ErrDuplicateReading, got %v", err)
	}
}

func TestReadingService_Create_OperatorOnly(t *testing.T) {
	readings := newStubReadingRepo()
	svc := NewReadingService(readings, newStubMeterRepo("MTR-001"), newStubDedup(), zerolog.Nop())

	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	in := testReadingInput("MTR-001", day)

	if _, err := svc.Create(context.Background(), consumerPrincipal(3), in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for consumer caller, got %v", err)
	}

	created, err := svc.Create(context.Background(), operatorPrincipal, in)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	// Unlike Ingest, the synchronous path surfaces the duplicate.
	if _, err := svc.Create(context.Background(), operatorPrincipal, in); !errors.Is(err, domain.ErrDuplicateReading) {
		t.Fatalf("expected ErrDuplicateReading, got %v", err)
	}
}

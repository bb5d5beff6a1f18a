package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

type stubDispatcher struct {
	enqueued []ports.ReadingInput
}

func (d *stubDispatcher) Enqueue(in ports.ReadingInput) {
	d.enqueued = append(d.enqueued, in)
}

func (d *stubDispatcher) EnqueueBatch(ins []ports.ReadingInput) {
	d.enqueued = append(d.enqueued, ins...)
}

type stubReadingService struct {
	listFn func(ctx context.Context, meterSerialNo string) ([]*domain.MeterReading, error)
}

func (s *stubReadingService) Ingest(_ context.Context, _ ports.ReadingInput) error { return nil }

func (s *stubReadingService) Create(_ context.Context, _ domain.Principal, _ ports.ReadingInput) (*domain.MeterReading, error) {
	return nil, errors.New("not implemented")
}

func (s *stubReadingService) Get(_ context.Context, _ int64) (*domain.MeterReading, error) {
	return nil, domain.ErrReadingNotFound
}

func (s *stubReadingService) List(ctx context.Context, meterSerialNo string) ([]*domain.MeterReading, error) {
	return s.listFn(ctx, meterSerialNo)
}

func (s *stubReadingService) Update(_ context.Context, _ int64, _ ports.ReadingInput) (*domain.MeterReading, error) {
	return nil, errors.New("not implemented")
}

func (s *stubReadingService) Delete(_ context.Context, _ int64) error { return nil }

func newReadingContext(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReadingHandler_Ingest_Accepted(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	dispatcher := &stubDispatcher{}
	h := NewReadingHandler(&stubReadingService{}, dispatcher)

	body := `{"meter_serial_no":"MTR-001","reading_date":"2026-03-01T10:00:00Z","energy_consumed":12.5,"current":5.1,"voltage":229.8}`
	c, rec := newReadingContext(e, http.MethodPost, "/api/readings/ingest", body)

	if err := h.Ingest(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(dispatcher.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued reading, got %d", len(dispatcher.enqueued))
	}
	got := dispatcher.enqueued[0]
	if got.MeterSerialNo != "MTR-001" || got.EnergyConsumed != 12.5 {
		t.Fatalf("unexpected enqueued input: %+v", got)
	}
}

func TestReadingHandler_Ingest_RejectsNonPositiveConsumption(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	dispatcher := &stubDispatcher{}
	h := NewReadingHandler(&stubReadingService{}, dispatcher)

	body := `{"meter_serial_no":"MTR-001","reading_date":"2026-03-01T10:00:00Z","energy_consumed":-4}`
	c, _ := newReadingContext(e, http.MethodPost, "/api/readings/ingest", body)

	err := h.Ingest(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
	if len(dispatcher.enqueued) != 0 {
		t.Fatalf("invalid reading must not be enqueued")
	}
}

func TestReadingHandler_IngestBatch_Accepted(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	dispatcher := &stubDispatcher{}
	h := NewReadingHandler(&stubReadingService{}, dispatcher)

	body := `[
		{"meter_serial_no":"MTR-001","reading_date":"2026-03-01T10:00:00Z","energy_consumed":12.5},
		{"meter_serial_no":"MTR-002","reading_date":"2026-03-01T10:00:00Z","energy_consumed":3.2}
	]`
	c, rec := newReadingContext(e, http.MethodPost, "/api/readings/ingest/batch", body)

	if err := h.IngestBatch(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["count"] != float64(2) {
		t.Fatalf("expected count 2, got %v", resp["count"])
	}
	if len(dispatcher.enqueued) != 2 {
		t.Fatalf("expected 2 enqueued readings, got %d", len(dispatcher.enqueued))
	}
}

func TestReadingHandler_IngestBatch_EmptyRejected(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	dispatcher := &stubDispatcher{}
	h := NewReadingHandler(&stubReadingService{}, dispatcher)

	c, _ := newReadingContext(e, http.MethodPost, "/api/readings/ingest/batch", `[]`)

	err := h.IngestBatch(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestReadingHandler_IngestBatch_RejectsWholeBatchOnBadElement(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	dispatcher := &stubDispatcher{}
	h := NewReadingHandler(&stubReadingService{}, dispatcher)

	body := `[
		{"meter_serial_no":"MTR-001","reading_date":"2026-03-01T10:00:00Z","energy_consumed":12.5},
		{"meter_serial_no":"","reading_date":"2026-03-01T10:00:00Z","energy_consumed":3.2}
	]`
	c, _ := newReadingContext(e, http.MethodPost, "/api/readings/ingest/batch", body)

	err := h.IngestBatch(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
	if len(dispatcher.enqueued) != 0 {
		t.Fatalf("partial batch must not be enqueued")
	}
}

func TestReadingHandler_List_FiltersByMeter(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	var gotSerial string
	svc := &stubReadingService{
		listFn: func(_ context.Context, meterSerialNo string) ([]*domain.MeterReading, error) {
			gotSerial = meterSerialNo
			return []*domain.MeterReading{
				{ID: 1, MeterSerialNo: meterSerialNo, ReadingDate: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), EnergyConsumed: 12.5},
			}, nil
		},
	}
	h := NewReadingHandler(svc, &stubDispatcher{})

	c, rec := newReadingContext(e, http.MethodGet, "/api/readings?meter=MTR-001", "")

	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotSerial != "MTR-001" {
		t.Fatalf("expected meter filter passed through, got %q", gotSerial)
	}
}

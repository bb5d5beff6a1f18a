package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smartmeter/billing-system/internal/core/ports"
)

// ReadingDispatcher is the interface the handler uses to enqueue telemetry
// readings for asynchronous processing.
type ReadingDispatcher interface {
	Enqueue(in ports.ReadingInput)
	EnqueueBatch(ins []ports.ReadingInput)
}

// ReadingHandler handles meter reading CRUD and telemetry ingestion.
type ReadingHandler struct {
	service    ports.ReadingService
	dispatcher ReadingDispatcher
}

func NewReadingHandler(service ports.ReadingService, dispatcher ReadingDispatcher) *ReadingHandler {
	return &ReadingHandler{service: service, dispatcher: dispatcher}
}

type readingRequest struct {
	MeterSerialNo  string    `json:"meter_serial_no" validate:"required"`
	ReadingDate    time.Time `json:"reading_date"    validate:"required"`
	EnergyConsumed float64   `json:"energy_consumed" validate:"required,gt=0"`
	Current        float64   `json:"current"`
	Voltage        float64   `json:"voltage"`
}

func (r readingRequest) toInput() ports.ReadingInput {
	return ports.ReadingInput{
		MeterSerialNo:  r.MeterSerialNo,
		ReadingDate:    r.ReadingDate,
		EnergyConsumed: r.EnergyConsumed,
		Current:        r.Current,
		Voltage:        r.Voltage,
	}
}

type acceptedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// Ingest handles POST /api/readings/ingest — enqueues one telemetry reading,
// returns 202.
//
// @Summary      Ingest a meter reading
// @Tags         readings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      readingRequest  true  "Meter reading"
// @Success      202   {object}  acceptedResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/readings/ingest [post]
func (h *ReadingHandler) Ingest(c echo.Context) error {
	var req readingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	h.dispatcher.Enqueue(req.toInput())
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "reading accepted"})
}

// IngestBatch handles POST /api/readings/ingest/batch — enqueues a batch,
// returns 202.
//
// @Summary      Ingest a batch of meter readings
// @Tags         readings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      []readingRequest  true  "Array of meter readings"
// @Success      202   {object}  acceptedResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/readings/ingest/batch [post]
func (h *ReadingHandler) IngestBatch(c echo.Context) error {
	var reqs []readingRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(reqs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "batch cannot be empty")
	}

	inputs := make([]ports.ReadingInput, 0, len(reqs))
	for i, req := range reqs {
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity,
				fmt.Sprintf("reading[%d]: %s", i, err.Error()))
		}
		inputs = append(inputs, req.toInput())
	}

	h.dispatcher.EnqueueBatch(inputs)
	return c.JSON(http.StatusAccepted, acceptedResponse{
		Message: "readings accepted",
		Count:   len(inputs),
	})
}

// List handles GET /api/readings?meter=SERIAL.
//
// @Summary      List meter readings
// @Tags         readings
// @Produce      json
// @Security     BearerAuth
// @Param        meter  query    string  false  "Filter by meter serial number"
// @Success      200    {array}  domain.MeterReading
// @Router       /api/readings [get]
func (h *ReadingHandler) List(c echo.Context) error {
	readings, err := h.service.List(c.Request().Context(), c.QueryParam("meter"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, readings)
}

// Get handles GET /api/readings/:id.
//
// @Summary      Get a meter reading
// @Tags         readings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Reading id"
// @Success      200  {object}  domain.MeterReading
// @Failure      404  {object}  errorResponse
// @Router       /api/readings/{id} [get]
func (h *ReadingHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	reading, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reading)
}

// Create handles POST /api/readings — the synchronous operator-side insert.
//
// @Summary      Record a meter reading
// @Tags         readings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      readingRequest  true  "Meter reading"
// @Success      201   {object}  domain.MeterReading
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/readings [post]
func (h *ReadingHandler) Create(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req readingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	reading, err := h.service.Create(c.Request().Context(), p, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, reading)
}

// Update handles PUT /api/readings/:id.
//
// @Summary      Update a meter reading
// @Tags         readings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true  "Reading id"
// @Param        body  body      readingRequest  true  "Meter reading"
// @Success      200   {object}  domain.MeterReading
// @Failure      404   {object}  errorResponse
// @Router       /api/readings/{id} [put]
func (h *ReadingHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req readingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	reading, err := h.service.Update(c.Request().Context(), id, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reading)
}

// Delete handles DELETE /api/readings/:id.
//
// @Summary      Delete a meter reading
// @Tags         readings
// @Security     BearerAuth
// @Param        id  path  int  true  "Reading id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/readings/{id} [delete]
func (h *ReadingHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

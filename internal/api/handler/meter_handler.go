package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smartmeter/billing-system/internal/core/ports"
)

// MeterHandler handles meter management. Operator-only.
type MeterHandler struct {
	service ports.MeterService
}

func NewMeterHandler(service ports.MeterService) *MeterHandler {
	return &MeterHandler{service: service}
}

type meterRequest struct {
	SerialNo     string    `json:"serial_no"      validate:"required"`
	IPAddress    string    `json:"ip_address"     validate:"required,ip"`
	ICCID        string    `json:"iccid"          validate:"required"`
	IMSI         string    `json:"imsi"           validate:"required"`
	Manufacturer string    `json:"manufacturer"   validate:"required"`
	Firmware     string    `json:"firmware"`
	Category     string    `json:"category"       validate:"required"`
	InstallTsUtc time.Time `json:"install_ts_utc"`
	Status       string    `json:"status"         validate:"omitempty,oneof=Active Inactive"`
	ConsumerID   int64     `json:"consumer_id"    validate:"required,gt=0"`
}

func (r meterRequest) toInput() ports.MeterInput {
	return ports.MeterInput{
		SerialNo:     r.SerialNo,
		IPAddress:    r.IPAddress,
		ICCID:        r.ICCID,
		IMSI:         r.IMSI,
		Manufacturer: r.Manufacturer,
		Firmware:     r.Firmware,
		Category:     r.Category,
		InstallTsUtc: r.InstallTsUtc,
		Status:       r.Status,
		ConsumerID:   r.ConsumerID,
	}
}

// List handles GET /api/meters.
//
// @Summary      List meters
// @Tags         meters
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Meter
// @Router       /api/meters [get]
func (h *MeterHandler) List(c echo.Context) error {
	meters, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meters)
}

// Get handles GET /api/meters/:serial_no.
//
// @Summary      Get a meter by serial number
// @Tags         meters
// @Produce      json
// @Security     BearerAuth
// @Param        serial_no  path      string  true  "Meter serial number"
// @Success      200        {object}  domain.Meter
// @Failure      404        {object}  errorResponse
// @Router       /api/meters/{serial_no} [get]
func (h *MeterHandler) Get(c echo.Context) error {
	meter, err := h.service.Get(c.Request().Context(), c.Param("serial_no"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meter)
}

// Create handles POST /api/meters.
//
// @Summary      Register a meter
// @Tags         meters
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      meterRequest  true  "Meter details"
// @Success      201   {object}  domain.Meter
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/meters [post]
func (h *MeterHandler) Create(c echo.Context) error {
	var req meterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	meter, err := h.service.Create(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, meter)
}

// Update handles PUT /api/meters/:serial_no.
//
// @Summary      Update a meter
// @Tags         meters
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        serial_no  path      string        true  "Meter serial number"
// @Param        body       body      meterRequest  true  "Meter details"
// @Success      200        {object}  domain.Meter
// @Failure      404        {object}  errorResponse
// @Failure      409        {object}  errorResponse
// @Router       /api/meters/{serial_no} [put]
func (h *MeterHandler) Update(c echo.Context) error {
	var req meterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	meter, err := h.service.Update(c.Request().Context(), c.Param("serial_no"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meter)
}

// Delete handles DELETE /api/meters/:serial_no.
//
// @Summary      Delete a meter
// @Tags         meters
// @Security     BearerAuth
// @Param        serial_no  path  string  true  "Meter serial number"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/meters/{serial_no} [delete]
func (h *MeterHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("serial_no")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smartmeter/billing-system/internal/core/ports"
)

// BillingHandler handles bills and arrears. All routes are operator-only.
type BillingHandler struct {
	service ports.BillingService
}

func NewBillingHandler(service ports.BillingService) *BillingHandler {
	return &BillingHandler{service: service}
}

type billRequest struct {
	ConsumerID         int64     `json:"consumer_id"          validate:"required,gt=0"`
	MeterSerialNo      string    `json:"meter_serial_no"      validate:"required"`
	PeriodStart        time.Time `json:"period_start"         validate:"required"`
	PeriodEnd          time.Time `json:"period_end"           validate:"required"`
	TotalUnitsConsumed float64   `json:"total_units_consumed" validate:"gte=0"`
	BaseAmount         float64   `json:"base_amount"          validate:"gte=0"`
	TaxAmount          float64   `json:"tax_amount"           validate:"gte=0"`
	DueDate            time.Time `json:"due_date"             validate:"required"`
	PaymentStatus      string    `json:"payment_status"       validate:"required,oneof=Unpaid Paid Overdue"`
}

func (r billRequest) toInput() ports.BillInput {
	return ports.BillInput{
		ConsumerID:         r.ConsumerID,
		MeterSerialNo:      r.MeterSerialNo,
		PeriodStart:        r.PeriodStart,
		PeriodEnd:          r.PeriodEnd,
		TotalUnitsConsumed: r.TotalUnitsConsumed,
		BaseAmount:         r.BaseAmount,
		TaxAmount:          r.TaxAmount,
		DueDate:            r.DueDate,
		PaymentStatus:      r.PaymentStatus,
	}
}

type arrearRequest struct {
	ConsumerID int64   `json:"consumer_id" validate:"required,gt=0"`
	BillID     int64   `json:"bill_id"     validate:"required,gt=0"`
	ArrearType string  `json:"arrear_type" validate:"required"`
	PaidStatus string  `json:"paid_status" validate:"required,oneof=Pending Paid"`
	Amount     float64 `json:"amount"      validate:"required,gt=0"`
}

func (r arrearRequest) toInput() ports.ArrearInput {
	return ports.ArrearInput{
		ConsumerID: r.ConsumerID,
		BillID:     r.BillID,
		ArrearType: r.ArrearType,
		PaidStatus: r.PaidStatus,
		Amount:     r.Amount,
	}
}

// ListBills handles GET /api/bills?consumer=ID.
//
// @Summary      List bills
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Param        consumer  query    int  false  "Filter by consumer id"
// @Success      200       {array}  domain.Billing
// @Router       /api/bills [get]
func (h *BillingHandler) ListBills(c echo.Context) error {
	consumerID, err := queryID(c, "consumer")
	if err != nil {
		return err
	}

	bills, err := h.service.ListBills(c.Request().Context(), consumerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bills)
}

// GetBill handles GET /api/bills/:id.
//
// @Summary      Get a bill
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Bill id"
// @Success      200  {object}  domain.Billing
// @Failure      404  {object}  errorResponse
// @Router       /api/bills/{id} [get]
func (h *BillingHandler) GetBill(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	bill, err := h.service.GetBill(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bill)
}

// CreateBill handles POST /api/bills.
//
// @Summary      Create a bill
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      billRequest  true  "Bill"
// @Success      201   {object}  domain.Billing
// @Failure      422   {object}  errorResponse
// @Router       /api/bills [post]
func (h *BillingHandler) CreateBill(c echo.Context) error {
	var req billRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	bill, err := h.service.CreateBill(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, bill)
}

// UpdateBill handles PUT /api/bills/:id.
//
// @Summary      Update a bill
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int          true  "Bill id"
// @Param        body  body      billRequest  true  "Bill"
// @Success      200   {object}  domain.Billing
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/bills/{id} [put]
func (h *BillingHandler) UpdateBill(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req billRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	bill, err := h.service.UpdateBill(c.Request().Context(), id, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bill)
}

// DeleteBill handles DELETE /api/bills/:id.
//
// @Summary      Delete a bill
// @Tags         billing
// @Security     BearerAuth
// @Param        id  path  int  true  "Bill id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/bills/{id} [delete]
func (h *BillingHandler) DeleteBill(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteBill(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListArrears handles GET /api/arrears?consumer=ID.
//
// @Summary      List arrears
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Param        consumer  query    int  false  "Filter by consumer id"
// @Success      200       {array}  domain.Arrear
// @Router       /api/arrears [get]
func (h *BillingHandler) ListArrears(c echo.Context) error {
	consumerID, err := queryID(c, "consumer")
	if err != nil {
		return err
	}

	arrears, err := h.service.ListArrears(c.Request().Context(), consumerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, arrears)
}

// GetArrear handles GET /api/arrears/:id.
//
// @Summary      Get an arrear
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Arrear id"
// @Success      200  {object}  domain.Arrear
// @Failure      404  {object}  errorResponse
// @Router       /api/arrears/{id} [get]
func (h *BillingHandler) GetArrear(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	arrear, err := h.service.GetArrear(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, arrear)
}

// CreateArrear handles POST /api/arrears.
//
// @Summary      Create an arrear
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      arrearRequest  true  "Arrear"
// @Success      201   {object}  domain.Arrear
// @Failure      422   {object}  errorResponse
// @Router       /api/arrears [post]
func (h *BillingHandler) CreateArrear(c echo.Context) error {
	var req arrearRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	arrear, err := h.service.CreateArrear(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, arrear)
}

// UpdateArrear handles PUT /api/arrears/:id.
//
// @Summary      Update an arrear
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int            true  "Arrear id"
// @Param        body  body      arrearRequest  true  "Arrear"
// @Success      200   {object}  domain.Arrear
// @Failure      404   {object}  errorResponse
// @Router       /api/arrears/{id} [put]
func (h *BillingHandler) UpdateArrear(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req arrearRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	arrear, err := h.service.UpdateArrear(c.Request().Context(), id, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, arrear)
}

// DeleteArrear handles DELETE /api/arrears/:id.
//
// @Summary      Delete an arrear
// @Tags         billing
// @Security     BearerAuth
// @Param        id  path  int  true  "Arrear id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/arrears/{id} [delete]
func (h *BillingHandler) DeleteArrear(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteArrear(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

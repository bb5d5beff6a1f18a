package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smartmeter/billing-system/internal/core/ports"
)

// TariffHandler handles tariff plans and their TOD rules and slabs.
type TariffHandler struct {
	service ports.TariffService
}

func NewTariffHandler(service ports.TariffService) *TariffHandler {
	return &TariffHandler{service: service}
}

type tariffRequest struct {
	Name          string    `json:"name"           validate:"required"`
	EffectiveFrom time.Time `json:"effective_from" validate:"required"`
	EffectiveTo   time.Time `json:"effective_to"   validate:"required"`
	BaseRate      float64   `json:"base_rate"      validate:"required,gt=0"`
	TaxRate       float64   `json:"tax_rate"       validate:"gte=0"`
}

func (r tariffRequest) toInput() ports.TariffInput {
	return ports.TariffInput{
		Name:          r.Name,
		EffectiveFrom: r.EffectiveFrom,
		EffectiveTo:   r.EffectiveTo,
		BaseRate:      r.BaseRate,
		TaxRate:       r.TaxRate,
	}
}

type todRuleRequest struct {
	TariffID   int64   `json:"tariff_id"    validate:"required,gt=0"`
	Name       string  `json:"name"         validate:"required"`
	StartTime  string  `json:"start_time"   validate:"required"`
	EndTime    string  `json:"end_time"     validate:"required"`
	RatePerKwh float64 `json:"rate_per_kwh" validate:"required,gt=0"`
}

func (r todRuleRequest) toInput() ports.TodRuleInput {
	return ports.TodRuleInput{
		TariffID:   r.TariffID,
		Name:       r.Name,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		RatePerKwh: r.RatePerKwh,
	}
}

type slabRequest struct {
	TariffID   int64   `json:"tariff_id"    validate:"required,gt=0"`
	FromKwh    float64 `json:"from_kwh"     validate:"gte=0"`
	ToKwh      float64 `json:"to_kwh"       validate:"required,gt=0"`
	RatePerKwh float64 `json:"rate_per_kwh" validate:"required,gt=0"`
}

func (r slabRequest) toInput() ports.SlabInput {
	return ports.SlabInput{
		TariffID:   r.TariffID,
		FromKwh:    r.FromKwh,
		ToKwh:      r.ToKwh,
		RatePerKwh: r.RatePerKwh,
	}
}

// List handles GET /api/tariffs.
//
// @Summary      List tariffs
// @Tags         tariffs
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Tariff
// @Router       /api/tariffs [get]
func (h *TariffHandler) List(c echo.Context) error {
	tariffs, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tariffs)
}

// Get handles GET /api/tariffs/:id.
//
// @Summary      Get a tariff
// @Tags         tariffs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Tariff id"
// @Success      200  {object}  domain.Tariff
// @Failure      404  {object}  errorResponse
// @Router       /api/tariffs/{id} [get]
func (h *TariffHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	tariff, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tariff)
}

// Create handles POST /api/tariffs.
//
// @Summary      Create a tariff
// @Tags         tariffs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      tariffRequest  true  "Tariff"
// @Success      201   {object}  domain.Tariff
// @Failure      422   {object}  errorResponse
// @Router       /api/tariffs [post]
func (h *TariffHandler) Create(c echo.Context) error {
	var req tariffRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	tariff, err := h.service.Create(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tariff)
}

// Update handles PUT /api/tariffs/:id.
//
// @Summary      Update a tariff
// @Tags         tariffs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int            true  "Tariff id"
// @Param        body  body      tariffRequest  true  "Tariff"
// @Success      200   {object}  domain.Tariff
// @Failure      404   {object}  errorResponse
// @Router       /api/tariffs/{id} [put]
func (h *TariffHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req tariffRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	tariff, err := h.service.Update(c.Request().Context(), id, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tariff)
}

// Delete handles DELETE /api/tariffs/:id.
//
// @Summary      Delete a tariff
// @Tags         tariffs
// @Security     BearerAuth
// @Param        id  path  int  true  "Tariff id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/tariffs/{id} [delete]
func (h *TariffHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListTodRules handles GET /api/tod-rules?tariff=ID.
//
// @Summary      List TOD rules
// @Tags         tariffs
// @Produce      json
// @Security     BearerAuth
// @Param        tariff  query    int  false  "Filter by tariff id"
// @Success      200     {array}  domain.TodRule
// @Router       /api/tod-rules [get]
func (h *TariffHandler) ListTodRules(c echo.Context) error {
	tariffID, err := queryID(c, "tariff")
	if err != nil {
		return err
	}

	rules, err := h.service.ListTodRules(c.Request().Context(), tariffID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rules)
}

// GetTodRule handles GET /api/tod-rules/:id.
//
// @Summary      Get a TOD rule
// @Tags         tariffs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "TOD rule id"
// @Success      200  {object}  domain.TodRule
// @Failure      404  {object}  errorResponse
// @Router       /api/tod-rules/{id} [get]
func (h *TariffHandler) GetTodRule(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	rule, err := h.service.GetTodRule(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rule)
}

// CreateTodRule handles POST /api/tod-rules.
//
// @Summary      Create a TOD rule
// @Tags         tariffs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      todRuleRequest  true  "TOD rule"
// @Success      201   {object}  domain.TodRule
// @Failure      422   {object}  errorResponse
// @Router       /api/tod-rules [post]
func (h *TariffHandler) CreateTodRule(c echo.Context) error {
	var req todRuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	rule, err := h.service.CreateTodRule(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rule)
}

// UpdateTodRule handles PUT /api/tod-rules/:id.
//
// @Summary      Update a TOD rule
// @Tags         tariffs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true  "TOD rule id"
// @Param        body  body      todRuleRequest  true  "TOD rule"
// @Success      200   {object}  domain.TodRule
// @Failure      404   {object}  errorResponse
// @Router       /api/tod-rules/{id} [put]
func (h *TariffHandler) UpdateTodRule(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req todRuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	rule, err := h.service.UpdateTodRule(c.Request().Context(), id, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rule)
}

// DeleteTodRule handles DELETE /api/tod-rules/:id.
//
// @Summary      Delete a TOD rule
// @Tags         tariffs
// @Security     BearerAuth
// @Param        id  path  int  true  "TOD rule id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/tod-rules/{id} [delete]
func (h *TariffHandler) DeleteTodRule(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteTodRule(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListSlabs handles GET /api/slabs?tariff=ID.
//
// @Summary      List tariff slabs
// @Tags         tariffs
// @Produce      json
// @Security     BearerAuth
// @Param        tariff  query    int  false  "Filter by tariff id"
// @Success      200     {array}  domain.TariffSlab
// @Router       /api/slabs [get]
func (h *TariffHandler) ListSlabs(c echo.Context) error {
	tariffID, err := queryID(c, "tariff")
	if err != nil {
		return err
	}

	slabs, err := h.service.ListSlabs(c.Request().Context(), tariffID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, slabs)
}

// GetSlab handles GET /api/slabs/:id.
//
// @Summary      Get a tariff slab
// @Tags         tariffs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Slab id"
// @Success      200  {object}  domain.TariffSlab
// @Failure      404  {object}  errorResponse
// @Router       /api/slabs/{id} [get]
func (h *TariffHandler) GetSlab(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	slab, err := h.service.GetSlab(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, slab)
}

// CreateSlab handles POST /api/slabs.
//
// @Summary      Create a tariff slab
// @Tags         tariffs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      slabRequest  true  "Tariff slab"
// @Success      201   {object}  domain.TariffSlab
// @Failure      422   {object}  errorResponse
// @Router       /api/slabs [post]
func (h *TariffHandler) CreateSlab(c echo.Context) error {
	var req slabRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	slab, err := h.service.CreateSlab(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, slab)
}

// UpdateSlab handles PUT /api/slabs/:id.
//
// @Summary      Update a tariff slab
// @Tags         tariffs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int          true  "Slab id"
// @Param        body  body      slabRequest  true  "Tariff slab"
// @Success      200   {object}  domain.TariffSlab
// @Failure      404   {object}  errorResponse
// @Router       /api/slabs/{id} [put]
func (h *TariffHandler) UpdateSlab(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req slabRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	slab, err := h.service.UpdateSlab(c.Request().Context(), id, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, slab)
}

// DeleteSlab handles DELETE /api/slabs/:id.
//
// @Summary      Delete a tariff slab
// @Tags         tariffs
// @Security     BearerAuth
// @Param        id  path  int  true  "Slab id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/slabs/{id} [delete]
func (h *TariffHandler) DeleteSlab(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteSlab(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// queryID parses an optional numeric query parameter; absent means 0 (no
// filter).
func queryID(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+" parameter")
	}
	return id, nil
}

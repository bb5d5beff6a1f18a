package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartmeter/billing-system/internal/core/ports"
)

// AddressHandler handles consumer supply addresses. Operator-only.
type AddressHandler struct {
	service ports.AddressService
}

func NewAddressHandler(service ports.AddressService) *AddressHandler {
	return &AddressHandler{service: service}
}

type addressRequest struct {
	HouseNumber string `json:"house_number" validate:"required"`
	Locality    string `json:"locality"     validate:"required"`
	City        string `json:"city"         validate:"required"`
	State       string `json:"state"        validate:"required"`
	Pincode     string `json:"pincode"      validate:"required,numeric,len=6"`
	ConsumerID  int64  `json:"consumer_id"  validate:"required,gt=0"`
}

func (r addressRequest) toInput() ports.AddressInput {
	return ports.AddressInput{
		HouseNumber: r.HouseNumber,
		Locality:    r.Locality,
		City:        r.City,
		State:       r.State,
		Pincode:     r.Pincode,
		ConsumerID:  r.ConsumerID,
	}
}

// List handles GET /api/addresses?consumer=ID.
//
// @Summary      List addresses
// @Tags         addresses
// @Produce      json
// @Security     BearerAuth
// @Param        consumer  query    int  false  "Filter by consumer id"
// @Success      200       {array}  domain.Address
// @Router       /api/addresses [get]
func (h *AddressHandler) List(c echo.Context) error {
	consumerID, err := queryID(c, "consumer")
	if err != nil {
		return err
	}

	addresses, err := h.service.List(c.Request().Context(), consumerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, addresses)
}

// Get handles GET /api/addresses/:id.
//
// @Summary      Get an address
// @Tags         addresses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Address id"
// @Success      200  {object}  domain.Address
// @Failure      404  {object}  errorResponse
// @Router       /api/addresses/{id} [get]
func (h *AddressHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	address, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, address)
}

// Create handles POST /api/addresses.
//
// @Summary      Create an address
// @Tags         addresses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addressRequest  true  "Address"
// @Success      201   {object}  domain.Address
// @Failure      422   {object}  errorResponse
// @Router       /api/addresses [post]
func (h *AddressHandler) Create(c echo.Context) error {
	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	address, err := h.service.Create(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, address)
}

// Update handles PUT /api/addresses/:id.
//
// @Summary      Update an address
// @Tags         addresses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true  "Address id"
// @Param        body  body      addressRequest  true  "Address"
// @Success      200   {object}  domain.Address
// @Failure      404   {object}  errorResponse
// @Router       /api/addresses/{id} [put]
func (h *AddressHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	address, err := h.service.Update(c.Request().Context(), id, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, address)
}

// Delete handles DELETE /api/addresses/:id.
//
// @Summary      Delete an address
// @Tags         addresses
// @Security     BearerAuth
// @Param        id  path  int  true  "Address id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/addresses/{id} [delete]
func (h *AddressHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

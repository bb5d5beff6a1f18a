package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartmeter/billing-system/internal/core/ports"
)

// OrgUnitHandler handles organizational hierarchy operations. Operator-only.
type OrgUnitHandler struct {
	service ports.OrgUnitService
}

func NewOrgUnitHandler(service ports.OrgUnitService) *OrgUnitHandler {
	return &OrgUnitHandler{service: service}
}

type orgUnitRequest struct {
	Type     string `json:"type"      validate:"required,oneof=Company Division SubDivision"`
	Name     string `json:"name"      validate:"required"`
	ParentID int64  `json:"parent_id" validate:"omitempty,gt=0"`
}

// List handles GET /api/orgunits.
//
// @Summary      List org units
// @Tags         orgunits
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.OrgUnit
// @Router       /api/orgunits [get]
func (h *OrgUnitHandler) List(c echo.Context) error {
	units, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, units)
}

// Get handles GET /api/orgunits/:id.
//
// @Summary      Get an org unit
// @Tags         orgunits
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Org unit id"
// @Success      200  {object}  domain.OrgUnit
// @Failure      404  {object}  errorResponse
// @Router       /api/orgunits/{id} [get]
func (h *OrgUnitHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	unit, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, unit)
}

// Create handles POST /api/orgunits.
//
// @Summary      Create an org unit
// @Tags         orgunits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      orgUnitRequest  true  "Org unit details"
// @Success      201   {object}  domain.OrgUnit
// @Failure      422   {object}  errorResponse
// @Router       /api/orgunits [post]
func (h *OrgUnitHandler) Create(c echo.Context) error {
	var req orgUnitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	unit, err := h.service.Create(c.Request().Context(), ports.OrgUnitInput{
		Type:     req.Type,
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, unit)
}

// Update handles PUT /api/orgunits/:id.
//
// @Summary      Update an org unit
// @Tags         orgunits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true  "Org unit id"
// @Param        body  body      orgUnitRequest  true  "Org unit details"
// @Success      200   {object}  domain.OrgUnit
// @Failure      404   {object}  errorResponse
// @Router       /api/orgunits/{id} [put]
func (h *OrgUnitHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req orgUnitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	unit, err := h.service.Update(c.Request().Context(), id, ports.OrgUnitInput{
		Type:     req.Type,
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, unit)
}

// Delete handles DELETE /api/orgunits/:id. Fails with 409 while children or
// consumers still reference the unit.
//
// @Summary      Delete an org unit
// @Tags         orgunits
// @Security     BearerAuth
// @Param        id  path  int  true  "Org unit id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /api/orgunits/{id} [delete]
func (h *OrgUnitHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

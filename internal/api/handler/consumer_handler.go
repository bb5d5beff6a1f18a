package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smartmeter/billing-system/internal/core/ports"
)

// ConsumerHandler handles consumer record operations for both principal
// kinds: operator-side CRUD and consumer self-service profile routes.
type ConsumerHandler struct {
	service   ports.ConsumerService
	uploadDir string
	baseURL   string
}

func NewConsumerHandler(service ports.ConsumerService, uploadDir, baseURL string) *ConsumerHandler {
	return &ConsumerHandler{service: service, uploadDir: uploadDir, baseURL: baseURL}
}

type createConsumerRequest struct {
	Name      string `json:"name"        validate:"required"`
	Email     string `json:"email"       validate:"required,email"`
	Password  string `json:"password"    validate:"required,min=6"`
	Phone     string `json:"phone"`
	OrgUnitID int64  `json:"org_unit_id" validate:"required,gt=0"`
	TariffID  int64  `json:"tariff_id"   validate:"required,gt=0"`
	Status    string `json:"status"      validate:"omitempty,oneof=Active Inactive"`
}

type updateConsumerRequest struct {
	Name      string `json:"name"        validate:"required"`
	Email     string `json:"email"       validate:"required,email"`
	Phone     string `json:"phone"`
	OrgUnitID int64  `json:"org_unit_id" validate:"required,gt=0"`
	TariffID  int64  `json:"tariff_id"   validate:"required,gt=0"`
	Status    string `json:"status"      validate:"required,oneof=Active Inactive"`
}

type updateProfileRequest struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone"`
}

type photoResponse struct {
	PhotoURL string `json:"photo_url"`
}

// List handles GET /api/consumers. Operator-only.
//
// @Summary      List all consumers
// @Tags         consumers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Consumer
// @Failure      403  {object}  errorResponse
// @Router       /api/consumers [get]
func (h *ConsumerHandler) List(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	consumers, err := h.service.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, consumers)
}

// Get handles GET /api/consumers/:id. Operators may fetch any record; a
// consumer only their own.
//
// @Summary      Get a consumer by id
// @Tags         consumers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Consumer id"
// @Success      200  {object}  domain.Consumer
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/consumers/{id} [get]
func (h *ConsumerHandler) Get(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	consumer, err := h.service.Get(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, consumer)
}

// Profile handles GET /api/consumers/profile — a consumer reading their own
// record.
//
// @Summary      Get own consumer profile
// @Tags         consumers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Consumer
// @Failure      404  {object}  errorResponse
// @Router       /api/consumers/profile [get]
func (h *ConsumerHandler) Profile(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	consumer, err := h.service.Get(c.Request().Context(), p, p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, consumer)
}

// Create handles POST /api/consumers. Operator-only; consumers never
// self-register.
//
// @Summary      Create a consumer account
// @Tags         consumers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createConsumerRequest  true  "Consumer details"
// @Success      201   {object}  domain.Consumer
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/consumers [post]
func (h *ConsumerHandler) Create(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createConsumerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	consumer, err := h.service.Create(c.Request().Context(), p, ports.CreateConsumerInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		OrgUnitID: req.OrgUnitID,
		TariffID:  req.TariffID,
		Status:    req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, consumer)
}

// Update handles PUT /api/consumers/:id. Operator-only full update.
//
// @Summary      Update a consumer
// @Tags         consumers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                    true  "Consumer id"
// @Param        body  body      updateConsumerRequest  true  "Consumer details"
// @Success      200   {object}  domain.Consumer
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/consumers/{id} [put]
func (h *ConsumerHandler) Update(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateConsumerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	consumer, err := h.service.Update(c.Request().Context(), p, id, ports.UpdateConsumerInput{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		OrgUnitID: req.OrgUnitID,
		TariffID:  req.TariffID,
		Status:    req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, consumer)
}

// UpdateProfile handles PUT /api/consumers/profile — the restricted
// self-service update (name, phone, email only).
//
// @Summary      Update own consumer profile
// @Tags         consumers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Profile fields"
// @Success      200   {object}  domain.Consumer
// @Failure      409   {object}  errorResponse
// @Router       /api/consumers/profile [put]
func (h *ConsumerHandler) UpdateProfile(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	consumer, err := h.service.UpdateProfile(c.Request().Context(), p, ports.UpdateProfileInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, consumer)
}

// Delete handles DELETE /api/consumers/:id. Soft delete: the row is flagged,
// never removed.
//
// @Summary      Soft-delete a consumer
// @Tags         consumers
// @Security     BearerAuth
// @Param        id  path  int  true  "Consumer id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/consumers/{id} [delete]
func (h *ConsumerHandler) Delete(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), p, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadPhoto handles POST /api/consumers/:id/photo — multipart image upload.
// The file lands under the uploads dir with a uuid name and the public URL is
// stored on the consumer.
//
// @Summary      Upload a consumer photo
// @Tags         consumers
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      int   true  "Consumer id"
// @Param        photo  formData  file  true  "Image file"
// @Success      200    {object}  photoResponse
// @Failure      400    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /api/consumers/{id}/photo [post]
func (h *ConsumerHandler) UploadPhoto(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	// Decide ownership before anything lands in the publicly served
	// uploads dir.
	if err := p.CanAccessConsumer(id); err != nil {
		return err
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "photo file is required")
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return echo.NewHTTPError(http.StatusBadRequest, "only image files are allowed")
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dir := filepath.Join(h.uploadDir, "consumers")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%d_%s%s", id, uuid.NewString(), ext)

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write upload: %w", err)
	}

	photoURL := h.baseURL + "/uploads/consumers/" + name
	if err := h.service.SetPhoto(c.Request().Context(), p, id, photoURL); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, photoResponse{PhotoURL: photoURL})
}

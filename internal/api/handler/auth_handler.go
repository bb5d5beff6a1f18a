package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smartmeter/billing-system/internal/api/metrics"
	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

// AuthHandler handles login, registration, and password changes for both
// principal kinds.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username    string `json:"username"     validate:"required"`
	Password    string `json:"password"     validate:"required,min=6"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"        validate:"omitempty,email"`
	Phone       string `json:"phone"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type consumerLoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type loginResponse struct {
	Token     string           `json:"token"`
	UserType  string           `json:"user_type"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      *domain.Operator `json:"user,omitempty"`
	Consumer  *domain.Consumer `json:"consumer,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates a new operator account.
//
// @Summary      Register a new operator
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Operator registration details"
// @Success      201   {object}  domain.Operator
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	op, err := h.authService.Register(c.Request().Context(), ports.RegisterOperatorInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Phone:       req.Phone,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, op)
}

// Login authenticates an operator and returns a token with the "User" role.
//
// @Summary      Operator login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Operator credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("operator", "failure").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("operator", "success").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Token:     result.Token,
		UserType:  domain.RoleUser,
		ExpiresAt: result.ExpiresAt,
		User:      result.Operator,
	})
}

// ConsumerLogin authenticates a consumer and returns a token with the
// "Consumer" role.
//
// @Summary      Consumer login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      consumerLoginRequest  true  "Consumer credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/auth/consumer/login [post]
func (h *AuthHandler) ConsumerLogin(c echo.Context) error {
	var req consumerLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.authService.ConsumerLogin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("consumer", "failure").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("consumer", "success").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Token:     result.Token,
		UserType:  domain.RoleConsumer,
		ExpiresAt: result.ExpiresAt,
		Consumer:  result.Consumer,
	})
}

// ChangePassword replaces the calling operator's password. The target account
// is taken from the token subject, never from the request body.
//
// @Summary      Change own password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Password change details"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.authService.ChangePassword(c.Request().Context(), p, ports.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	}); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "password changed successfully"})
}

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

	"github.com/smartmeter/billing-system/internal/api/middleware"
	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

type stubAuthService struct {
	registerFn       func(ctx context.Context, in ports.RegisterOperatorInput) (*domain.Operator, error)
	loginFn          func(ctx context.Context, username, password string) (*ports.OperatorLoginResult, error)
	consumerLoginFn  func(ctx context.Context, email, password string) (*ports.ConsumerLoginResult, error)
	changePasswordFn func(ctx context.Context, p domain.Principal, in ports.ChangePasswordInput) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterOperatorInput) (*domain.Operator, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*ports.OperatorLoginResult, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) ConsumerLogin(ctx context.Context, email, password string) (*ports.ConsumerLoginResult, error) {
	return s.consumerLoginFn(ctx, email, password)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, p domain.Principal, in ports.ChangePasswordInput) error {
	return s.changePasswordFn(ctx, p, in)
}

func newAuthContext(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterOperatorInput) (*domain.Operator, error) {
			if in.Username != "alice" || in.Password != "s3cret!" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Operator{ID: 1, Username: in.Username, DisplayName: "alice", IsActive: true}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newAuthContext(e, "/api/auth/register", `{"username":"alice","password":"s3cret!"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != "alice" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, leaked := resp["PasswordHash"]; leaked {
		t.Fatalf("password hash leaked in response")
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	stub := &stubAuthService{
		registerFn: func(_ context.Context, _ ports.RegisterOperatorInput) (*domain.Operator, error) {
			return nil, domain.ErrDuplicateIdentity
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newAuthContext(e, "/api/auth/register", `{"username":"bob","password":"s3cret!"}`)
	if err := h.Register(c); !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity passed through, got %v", err)
	}
}

func TestAuthHandler_Register_ValidationRejectedBeforeService(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	stub := &stubAuthService{
		registerFn: func(_ context.Context, _ ports.RegisterOperatorInput) (*domain.Operator, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newAuthContext(e, "/api/auth/register", `{"username":"bob","password":"abc"}`)
	err := h.Register(c)

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	expiry := time.Now().Add(time.Hour).UTC()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, username, password string) (*ports.OperatorLoginResult, error) {
			if username != "alice" || password != "s3cret!" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return &ports.OperatorLoginResult{
				Token:     "token123",
				ExpiresAt: expiry,
				Operator:  &domain.Operator{ID: 1, Username: "alice"},
			}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newAuthContext(e, "/api/auth/login", `{"username":"alice","password":"s3cret!"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
	if resp["user_type"] != domain.RoleUser {
		t.Fatalf("expected user_type %q, got %v", domain.RoleUser, resp["user_type"])
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	stub := &stubAuthService{
		loginFn: func(_ context.Context, _, _ string) (*ports.OperatorLoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newAuthContext(e, "/api/auth/login", `{"username":"alice","password":"bad"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials passed through, got %v", err)
	}
}

func TestAuthHandler_ConsumerLogin_Success(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	stub := &stubAuthService{
		consumerLoginFn: func(_ context.Context, email, password string) (*ports.ConsumerLoginResult, error) {
			if email != "eve@example.com" {
				t.Fatalf("unexpected email: %s", email)
			}
			return &ports.ConsumerLoginResult{
				Token:    "token456",
				Consumer: &domain.Consumer{ID: 7, Name: "Eve", Email: email},
			}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newAuthContext(e, "/api/auth/consumer/login", `{"email":"eve@example.com","password":"p4ssword"}`)
	if err := h.ConsumerLogin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["user_type"] != domain.RoleConsumer {
		t.Fatalf("expected user_type %q, got %v", domain.RoleConsumer, resp["user_type"])
	}
	consumer, ok := resp["consumer"].(map[string]any)
	if !ok || consumer["email"] != "eve@example.com" {
		t.Fatalf("unexpected consumer payload: %+v", resp)
	}
}

func TestAuthHandler_ChangePassword_UsesTokenIdentity(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	var got domain.Principal
	stub := &stubAuthService{
		changePasswordFn: func(_ context.Context, p domain.Principal, in ports.ChangePasswordInput) error {
			got = p
			if in.NewPassword != "newpass1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newAuthContext(e, "/api/auth/change-password",
		`{"current_password":"oldpass1","new_password":"newpass1","confirm_password":"newpass1"}`)
	c.Set(middleware.PrincipalKey, domain.Principal{ID: 42, Kind: domain.KindOperator, Role: domain.RoleUser})

	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.ID != 42 {
		t.Fatalf("expected principal from context, got %+v", got)
	}
}

func TestAuthHandler_ChangePassword_MissingPrincipal(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	stub := &stubAuthService{
		changePasswordFn: func(_ context.Context, _ domain.Principal, _ ports.ChangePasswordInput) error {
			t.Fatalf("service must not be called")
			return nil
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newAuthContext(e, "/api/auth/change-password",
		`{"current_password":"a","new_password":"b","confirm_password":"b"}`)

	err := h.ChangePassword(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

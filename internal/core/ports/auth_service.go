package ports

import (
	"context"
	"time"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

// RegisterOperatorInput carries operator self-registration data.
type RegisterOperatorInput struct {
	Username    string
	Password    string
	DisplayName string
	Email       string
	Phone       string
}

// OperatorLoginResult is returned on successful operator login.
type OperatorLoginResult struct {
	Token     string
	ExpiresAt time.Time
	Operator  *domain.Operator
}

// ConsumerLoginResult is returned on successful consumer login.
type ConsumerLoginResult struct {
	Token     string
	ExpiresAt time.Time
	Consumer  *domain.Consumer
}

// ChangePasswordInput carries a password change request for the principal
// identified by the token, never by a caller-supplied id.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// AuthService implements login, registration, and password changes for both
// principal kinds.
type AuthService interface {
	Register(ctx context.Context, in RegisterOperatorInput) (*domain.Operator, error)
	Login(ctx context.Context, username, password string) (*OperatorLoginResult, error)
	ConsumerLogin(ctx context.Context, email, password string) (*ConsumerLoginResult, error)
	ChangePassword(ctx context.Context, p domain.Principal, in ChangePasswordInput) error
}

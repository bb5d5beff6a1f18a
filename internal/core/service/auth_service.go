package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

const minPasswordLength = 6

// AuthService implements registration, login, and password changes for both
// principal kinds. Password verification is the only expensive step; every
// later request is authorized by claim inspection alone.
type AuthService struct {
	operators ports.OperatorRepository
	consumers ports.ConsumerRepository
	tokens    *TokenIssuer
	log       zerolog.Logger
}

func NewAuthService(
	operators ports.OperatorRepository,
	consumers ports.ConsumerRepository,
	tokens *TokenIssuer,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{operators: operators, consumers: consumers, tokens: tokens, log: log}
}

// Register creates a new operator account. Registration is self-serve; there
// is no approval step.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterOperatorInput) (*domain.Operator, error) {
	if in.Username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	displayName := in.DisplayName
	if displayName == "" {
		displayName = in.Username
	}

	op := &domain.Operator{
		Username:     in.Username,
		DisplayName:  displayName,
		PasswordHash: hash,
		Email:        in.Email,
		Phone:        in.Phone,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.operators.Create(ctx, op)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", created.Username).Int64("operator_id", created.ID).Msg("operator registered")
	return created, nil
}

// Login authenticates an operator and issues a token with the "User" role.
// An unknown username and a wrong password are indistinguishable to the
// caller. The last-login stamp is only written after verification succeeds.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.OperatorLoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	op, err := s.operators.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrOperatorNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, op.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.operators.StampLastLogin(ctx, op.ID, now); err != nil {
		return nil, fmt.Errorf("stamp last login: %w", err)
	}
	op.LastLoginUtc = &now

	token, expiresAt, err := s.tokens.Issue(domain.Principal{
		ID:   op.ID,
		Kind: domain.KindOperator,
		Name: op.Username,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", op.Username).Msg("operator login")
	return &ports.OperatorLoginResult{Token: token, ExpiresAt: expiresAt, Operator: op}, nil
}

// ConsumerLogin authenticates a consumer by email and issues a token with the
// "Consumer" role. Soft-deleted and inactive consumers cannot log in; the
// repository filters them before the password is ever checked.
func (s *AuthService) ConsumerLogin(ctx context.Context, email, password string) (*ports.ConsumerLoginResult, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	c, err := s.consumers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrConsumerNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, c.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(domain.Principal{
		ID:   c.ID,
		Kind: domain.KindConsumer,
		Name: c.Name,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("consumer_id", c.ID).Msg("consumer login")
	return &ports.ConsumerLoginResult{Token: token, ExpiresAt: expiresAt, Consumer: c}, nil
}

// ChangePassword replaces the calling principal's password. The target id
// comes from the token, never from the request. The stored hash is untouched
// unless every check passes.
func (s *AuthService) ChangePassword(ctx context.Context, p domain.Principal, in ports.ChangePasswordInput) error {
	if in.NewPassword != in.ConfirmPassword {
		return fmt.Errorf("%w: new password and confirmation do not match", domain.ErrValidation)
	}
	if len(in.NewPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	currentHash, err := s.currentHash(ctx, p)
	if err != nil {
		return err
	}
	if !VerifyPassword(in.CurrentPassword, currentHash) {
		return domain.ErrInvalidCredentials
	}

	newHash, err := HashPassword(in.NewPassword)
	if err != nil {
		return err
	}

	switch p.Kind {
	case domain.KindOperator:
		err = s.operators.UpdatePassword(ctx, p.ID, newHash)
	case domain.KindConsumer:
		err = s.consumers.UpdatePassword(ctx, p.ID, newHash)
	default:
		err = domain.ErrForbidden
	}
	if err != nil {
		return err
	}

	s.log.Info().Int64("principal_id", p.ID).Str("kind", string(p.Kind)).Msg("password changed")
	return nil
}

func (s *AuthService) currentHash(ctx context.Context, p domain.Principal) (string, error) {
	switch p.Kind {
	case domain.KindOperator:
		op, err := s.operators.FindByID(ctx, p.ID)
		if err != nil {
			return "", err
		}
		return op.PasswordHash, nil
	case domain.KindConsumer:
		c, err := s.consumers.FindByID(ctx, p.ID)
		if err != nil {
			return "", err
		}
		return c.PasswordHash, nil
	}
	return "", domain.ErrForbidden
}

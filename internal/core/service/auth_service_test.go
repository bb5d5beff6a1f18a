package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartmeter/billing-system/internal/core/domain"
	"github.com/smartmeter/billing-system/internal/core/ports"
)

type stubOperatorRepo struct {
	byID     map[int64]*domain.Operator
	nextID   int64
	lastSeen map[int64]time.Time
}

func newStubOperatorRepo() *stubOperatorRepo {
	return &stubOperatorRepo{
		byID:     make(map[int64]*domain.Operator),
		lastSeen: make(map[int64]time.Time),
	}
}

func cloneOperator(op *domain.Operator) *domain.Operator {
	if op == nil {
		return nil
	}
	clone := *op
	return &clone
}

func (r *stubOperatorRepo) FindByUsername(_ context.Context, username string) (*domain.Operator, error) {
	for _, op := range r.byID {
		if op.Username == username && op.IsActive {
			return cloneOperator(op), nil
		}
	}
	return nil, domain.ErrOperatorNotFound
}

func (r *stubOperatorRepo) FindByID(_ context.Context, id int64) (*domain.Operator, error) {
	op, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrOperatorNotFound
	}
	return cloneOperator(op), nil
}

func (r *stubOperatorRepo) Create(_ context.Context, op *domain.Operator) (*domain.Operator, error) {
	for _, existing := range r.byID {
		if existing.Username == op.Username {
			return nil, domain.ErrDuplicateIdentity
		}
	}
	r.nextID++
	clone := cloneOperator(op)
	clone.ID = r.nextID
	r.byID[clone.ID] = cloneOperator(clone)
	return clone, nil
}

func (r *stubOperatorRepo) UpdatePassword(_ context.Context, id int64, newHash string) error {
	op, ok := r.byID[id]
	if !ok {
		return domain.ErrOperatorNotFound
	}
	op.PasswordHash = newHash
	return nil
}

func (r *stubOperatorRepo) StampLastLogin(_ context.Context, id int64, at time.Time) error {
	r.lastSeen[id] = at
	return nil
}

type stubConsumerRepo struct {
	byID   map[int64]*domain.Consumer
	nextID int64
}

func newStubConsumerRepo() *stubConsumerRepo {
	return &stubConsumerRepo{byID: make(map[int64]*domain.Consumer)}
}

func cloneConsumer(c *domain.Consumer) *domain.Consumer {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

func (r *stubConsumerRepo) FindByEmail(_ context.Context, email string) (*domain.Consumer, error) {
	for _, c := range r.byID {
		if c.Email == email && !c.Deleted && c.Status == domain.ConsumerActive {
			return cloneConsumer(c), nil
		}
	}
	return nil, domain.ErrConsumerNotFound
}

func (r *stubConsumerRepo) FindByID(_ context.Context, id int64) (*domain.Consumer, error) {
	c, ok := r.byID[id]
	if !ok || c.Deleted {
		return nil, domain.ErrConsumerNotFound
	}
	return cloneConsumer(c), nil
}

func (r *stubConsumerRepo) List(_ context.Context) ([]*domain.Consumer, error) {
	var out []*domain.Consumer
	for _, c := range r.byID {
		if !c.Deleted {
			out = append(out, cloneConsumer(c))
		}
	}
	return out, nil
}

func (r *stubConsumerRepo) Create(_ context.Context, c *domain.Consumer) (*domain.Consumer, error) {
	for _, existing := range r.byID {
		if existing.Email == c.Email && !existing.Deleted {
			return nil, domain.ErrDuplicateIdentity
		}
	}
	r.nextID++
	clone := cloneConsumer(c)
	clone.ID = r.nextID
	clone.Revision = 1
	r.byID[clone.ID] = cloneConsumer(clone)
	return clone, nil
}

func (r *stubConsumerRepo) Update(_ context.Context, c *domain.Consumer) error {
	existing, ok := r.byID[c.ID]
	if !ok || existing.Deleted {
		return domain.ErrConsumerNotFound
	}
	if existing.Revision != c.Revision {
		return domain.ErrConcurrentModification
	}
	clone := cloneConsumer(c)
	clone.Revision = existing.Revision + 1
	clone.PasswordHash = existing.PasswordHash
	r.byID[c.ID] = clone
	return nil
}

func (r *stubConsumerRepo) SoftDelete(_ context.Context, id int64, by string) error {
	c, ok := r.byID[id]
	if !ok || c.Deleted {
		return domain.ErrConsumerNotFound
	}
	c.Deleted = true
	c.Status = domain.ConsumerInactive
	c.UpdatedBy = by
	return nil
}

func (r *stubConsumerRepo) UpdatePassword(_ context.Context, id int64, newHash string) error {
	c, ok := r.byID[id]
	if !ok || c.Deleted {
		return domain.ErrConsumerNotFound
	}
	c.PasswordHash = newHash
	return nil
}

func newAuthService(ops *stubOperatorRepo, cons *stubConsumerRepo) *AuthService {
	return NewAuthService(ops, cons, NewTokenIssuer("secret", time.Hour), zerolog.Nop())
}

func seedConsumer(t *testing.T, repo *stubConsumerRepo, email, password, status string) *domain.Consumer {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	c, err := repo.Create(context.Background(), &domain.Consumer{
		Name:         "Test Consumer",
		Email:        email,
		PasswordHash: hash,
		Status:       status,
	})
	if err != nil {
		t.Fatalf("seed consumer: %v", err)
	}
	return c
}

func TestAuthService_Register_Success(t *testing.T) {
	ops := newStubOperatorRepo()
	svc := newAuthService(ops, newStubConsumerRepo())

	op, err := svc.Register(context.Background(), ports.RegisterOperatorInput{
		Username: "alice",
		Password: "s3cret!",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if op.PasswordHash == "s3cret!" {
		t.Fatalf("expected password to be hashed")
	}
	if !VerifyPassword("s3cret!", op.PasswordHash) {
		t.Fatalf("stored hash does not match password")
	}
	if !op.IsActive {
		t.Fatalf("expected new operator to be active")
	}
	if op.DisplayName != "alice" {
		t.Fatalf("expected display name to default to username, got %q", op.DisplayName)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newAuthService(newStubOperatorRepo(), newStubConsumerRepo())

	if _, err := svc.Register(context.Background(), ports.RegisterOperatorInput{Password: "s3cret!"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing username, got %v", err)
	}
	if _, err := svc.Register(context.Background(), ports.RegisterOperatorInput{Username: "bob", Password: "short"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for short password, got %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newAuthService(newStubOperatorRepo(), newStubConsumerRepo())

	if _, err := svc.Register(context.Background(), ports.RegisterOperatorInput{Username: "bob", Password: "password1"}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), ports.RegisterOperatorInput{Username: "bob", Password: "password2"}); !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	ops := newStubOperatorRepo()
	svc := newAuthService(ops, newStubConsumerRepo())

	if _, err := svc.Register(context.Background(), ports.RegisterOperatorInput{Username: "carol", Password: "s3cret!"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "carol", "s3cret!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if res.Operator == nil || res.Operator.Username != "carol" {
		t.Fatalf("unexpected operator: %+v", res.Operator)
	}
	if res.Operator.LastLoginUtc == nil {
		t.Fatalf("expected last login to be stamped")
	}

	p, err := NewTokenIssuer("secret", time.Hour).Parse(res.Token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if p.Role != domain.RoleUser {
		t.Fatalf("expected role %q, got %q", domain.RoleUser, p.Role)
	}
	if p.ID != res.Operator.ID {
		t.Fatalf("subject mismatch: %d vs %d", p.ID, res.Operator.ID)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	ops := newStubOperatorRepo()
	svc := newAuthService(ops, newStubConsumerRepo())

	op, err := svc.Register(context.Background(), ports.RegisterOperatorInput{Username: "dave", Password: "goodpass"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.Login(context.Background(), "dave", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, ok := ops.lastSeen[op.ID]; ok {
		t.Fatalf("last login must not be stamped on failed verification")
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	svc := newAuthService(newStubOperatorRepo(), newStubConsumerRepo())

	// Unknown username and wrong password are indistinguishable.
	if _, err := svc.Login(context.Background(), "ghost", "pass123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_EmptyInput(t *testing.T) {
	svc := newAuthService(newStubOperatorRepo(), newStubConsumerRepo())

	if _, err := svc.Login(context.Background(), "", "pass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty username, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "alice", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty password, got %v", err)
	}
}

func TestAuthService_ConsumerLogin_Success(t *testing.T) {
	cons := newStubConsumerRepo()
	svc := newAuthService(newStubOperatorRepo(), cons)

	seeded := seedConsumer(t, cons, "eve@example.com", "p4ssword", domain.ConsumerActive)

	res, err := svc.ConsumerLogin(context.Background(), "eve@example.com", "p4ssword")
	if err != nil {
		t.Fatalf("consumer login failed: %v", err)
	}
	if res.Consumer == nil || res.Consumer.ID != seeded.ID {
		t.Fatalf("unexpected consumer: %+v", res.Consumer)
	}

	p, err := NewTokenIssuer("secret", time.Hour).Parse(res.Token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if p.Role != domain.RoleConsumer {
		t.Fatalf("expected role %q, got %q", domain.RoleConsumer, p.Role)
	}
	if p.Kind != domain.KindConsumer {
		t.Fatalf("expected consumer kind, got %q", p.Kind)
	}
}

func TestAuthService_ConsumerLogin_InactiveOrDeleted(t *testing.T) {
	cons := newStubConsumerRepo()
	svc := newAuthService(newStubOperatorRepo(), cons)

	seedConsumer(t, cons, "inactive@example.com", "p4ssword", domain.ConsumerInactive)
	deleted := seedConsumer(t, cons, "gone@example.com", "p4ssword", domain.ConsumerActive)
	if err := cons.SoftDelete(context.Background(), deleted.ID, "test"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := svc.ConsumerLogin(context.Background(), "inactive@example.com", "p4ssword"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for inactive consumer, got %v", err)
	}
	if _, err := svc.ConsumerLogin(context.Background(), "gone@example.com", "p4ssword"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for deleted consumer, got %v", err)
	}
}

func TestAuthService_ChangePassword_Operator(t *testing.T) {
	ops := newStubOperatorRepo()
	svc := newAuthService(ops, newStubConsumerRepo())

	op, err := svc.Register(context.Background(), ports.RegisterOperatorInput{Username: "frank", Password: "oldpass1"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	p := domain.Principal{ID: op.ID, Kind: domain.KindOperator, Role: domain.RoleUser}

	err = svc.ChangePassword(context.Background(), p, ports.ChangePasswordInput{
		CurrentPassword: "oldpass1",
		NewPassword:     "newpass1",
		ConfirmPassword: "newpass1",
	})
	if err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	if _, err := svc.Login(context.Background(), "frank", "oldpass1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password still accepted")
	}
	if _, err := svc.Login(context.Background(), "frank", "newpass1"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestAuthService_ChangePassword_HashUntouchedOnFailure(t *testing.T) {
	ops := newStubOperatorRepo()
	svc := newAuthService(ops, newStubConsumerRepo())

	op, err := svc.Register(context.Background(), ports.RegisterOperatorInput{Username: "grace", Password: "oldpass1"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	p := domain.Principal{ID: op.ID, Kind: domain.KindOperator, Role: domain.RoleUser}

	cases := []struct {
		name string
		in   ports.ChangePasswordInput
		want error
	}{
		{
			name: "confirmation mismatch",
			in:   ports.ChangePasswordInput{CurrentPassword: "oldpass1", NewPassword: "newpass1", ConfirmPassword: "other"},
			want: domain.ErrValidation,
		},
		{
			name: "too short",
			in:   ports.ChangePasswordInput{CurrentPassword: "oldpass1", NewPassword: "abc", ConfirmPassword: "abc"},
			want: domain.ErrValidation,
		},
		{
			name: "wrong current password",
			in:   ports.ChangePasswordInput{CurrentPassword: "wrong", NewPassword: "newpass1", ConfirmPassword: "newpass1"},
			want: domain.ErrInvalidCredentials,
		},
	}

	for _, tc := range cases {
		if err := svc.ChangePassword(context.Background(), p, tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if _, err := svc.Login(context.Background(), "grace", "oldpass1"); err != nil {
			t.Fatalf("%s: stored hash changed on failed attempt: %v", tc.name, err)
		}
	}
}

func TestAuthService_ChangePassword_Consumer(t *testing.T) {
	cons := newStubConsumerRepo()
	svc := newAuthService(newStubOperatorRepo(), cons)

	c := seedConsumer(t, cons, "henry@example.com", "oldpass1", domain.ConsumerActive)
	p := domain.Principal{ID: c.ID, Kind: domain.KindConsumer, Role: domain.RoleConsumer}

	err := svc.ChangePassword(context.Background(), p, ports.ChangePasswordInput{
		CurrentPassword: "oldpass1",
		NewPassword:     "newpass1",
		ConfirmPassword: "newpass1",
	})
	if err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	if _, err := svc.ConsumerLogin(context.Background(), "henry@example.com", "newpass1"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

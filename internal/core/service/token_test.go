package service

import (
	"errors"
	"testing"
	"time"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

func TestTokenIssuer_IssueAndParse_Operator(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, expiresAt, err := issuer.Issue(domain.Principal{
		ID:   42,
		Kind: domain.KindOperator,
		Name: "alice",
	})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}

	p, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if p.ID != 42 {
		t.Fatalf("expected id 42, got %d", p.ID)
	}
	if p.Role != domain.RoleUser {
		t.Fatalf("expected role %q, got %q", domain.RoleUser, p.Role)
	}
	if p.Kind != domain.KindOperator {
		t.Fatalf("expected operator kind, got %q", p.Kind)
	}
	if p.Name != "alice" {
		t.Fatalf("expected name alice, got %q", p.Name)
	}
	if !p.ExpiresAt.Equal(expiresAt.Truncate(time.Second)) {
		t.Fatalf("expiry mismatch: issued %v, parsed %v", expiresAt, p.ExpiresAt)
	}
}

func TestTokenIssuer_IssueAndParse_Consumer(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, _, err := issuer.Issue(domain.Principal{ID: 7, Kind: domain.KindConsumer, Name: "Bob"})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	p, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if p.Role != domain.RoleConsumer {
		t.Fatalf("expected role %q, got %q", domain.RoleConsumer, p.Role)
	}
	if p.Kind != domain.KindConsumer {
		t.Fatalf("expected consumer kind, got %q", p.Kind)
	}
}

func TestTokenIssuer_Parse_ExpiryWindow(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	issuer := NewTokenIssuer("secret", time.Hour)
	issuer.now = func() time.Time { return issued }

	token, _, err := issuer.Issue(domain.Principal{ID: 1, Kind: domain.KindOperator, Name: "alice"})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// Just inside the window.
	issuer.now = func() time.Time { return issued.Add(59 * time.Minute) }
	if _, err := issuer.Parse(token); err != nil {
		t.Fatalf("expected token valid at +59m, got %v", err)
	}

	// Just past the window.
	issuer.now = func() time.Time { return issued.Add(61 * time.Minute) }
	if _, err := issuer.Parse(token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated at +61m, got %v", err)
	}
}

func TestTokenIssuer_Parse_WrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	other := NewTokenIssuer("different", time.Hour)

	token, _, err := issuer.Issue(domain.Principal{ID: 1, Kind: domain.KindOperator})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := other.Parse(token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestTokenIssuer_Parse_Garbage(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	if _, err := issuer.Parse("not-a-token"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := issuer.Parse(""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty token, got %v", err)
	}
}

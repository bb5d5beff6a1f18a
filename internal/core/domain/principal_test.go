package domain

import "testing"

func TestRoleForKind(t *testing.T) {
	if got := RoleForKind(KindOperator); got != RoleUser {
		t.Fatalf("operator role = %q, want %q", got, RoleUser)
	}
	if got := RoleForKind(KindConsumer); got != RoleConsumer {
		t.Fatalf("consumer role = %q, want %q", got, RoleConsumer)
	}
}

func TestKindForRole(t *testing.T) {
	if got := KindForRole(RoleUser); got != KindOperator {
		t.Fatalf("kind for User = %q, want operator", got)
	}
	if got := KindForRole(RoleConsumer); got != KindConsumer {
		t.Fatalf("kind for Consumer = %q, want consumer", got)
	}
	if got := KindForRole("admin"); got != "" {
		t.Fatalf("kind for unknown role = %q, want empty", got)
	}
}

func TestPrincipal_HasRole(t *testing.T) {
	p := Principal{Role: RoleConsumer}
	if !p.HasRole(RoleUser, RoleConsumer) {
		t.Fatalf("expected role in set")
	}
	if p.HasRole(RoleUser) {
		t.Fatalf("consumer should not satisfy User-only set")
	}
}

func TestPrincipal_CanAccessConsumer(t *testing.T) {
	operator := Principal{ID: 1, Kind: KindOperator, Role: RoleUser}
	if err := operator.CanAccessConsumer(42); err != nil {
		t.Fatalf("operator should access any consumer, got %v", err)
	}

	self := Principal{ID: 5, Kind: KindConsumer, Role: RoleConsumer}
	if err := self.CanAccessConsumer(5); err != nil {
		t.Fatalf("consumer should access own record, got %v", err)
	}
	if err := self.CanAccessConsumer(6); err != ErrForbidden {
		t.Fatalf("consumer accessing another record: got %v, want ErrForbidden", err)
	}

	unknown := Principal{ID: 5}
	if err := unknown.CanAccessConsumer(5); err != ErrForbidden {
		t.Fatalf("unknown kind must be denied, got %v", err)
	}
}

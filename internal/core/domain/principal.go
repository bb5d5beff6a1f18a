package domain

import "time"

// Role names as they appear in token claims.
const (
	RoleUser     = "User"
	RoleConsumer = "Consumer"
)

// PrincipalKind distinguishes the two disjoint identity classes.
type PrincipalKind string

const (
	KindOperator PrincipalKind = "operator"
	KindConsumer PrincipalKind = "consumer"
)

// RoleForKind maps a principal kind to its role claim. The two are never
// cross-assigned: an operator token always carries "User", a consumer token
// always carries "Consumer".
func RoleForKind(kind PrincipalKind) string {
	if kind == KindConsumer {
		return RoleConsumer
	}
	return RoleUser
}

// KindForRole is the inverse mapping, used when reconstructing a principal
// from token claims. Unknown roles return an empty kind.
func KindForRole(role string) PrincipalKind {
	switch role {
	case RoleUser:
		return KindOperator
	case RoleConsumer:
		return KindConsumer
	}
	return ""
}

// Principal is the runtime identity descriptor embedded in a token. It is
// derived, never persisted, and is passed explicitly to every
// authorization-sensitive function.
type Principal struct {
	ID        int64
	Kind      PrincipalKind
	Role      string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasRole reports whether the principal's role is in the allowed set.
func (p Principal) HasRole(roles ...string) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// CanAccessConsumer decides row-level access to a consumer record. Operators
// may access any record; a consumer only their own.
func (p Principal) CanAccessConsumer(consumerID int64) error {
	switch p.Kind {
	case KindOperator:
		return nil
	case KindConsumer:
		if p.ID == consumerID {
			return nil
		}
		return ErrForbidden
	}
	return ErrForbidden
}

// Operator is an internal staff account ("User" role). Operators are never
// hard-deleted; deactivation is via the IsActive flag.
type Operator struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"display_name"`
	PasswordHash string     `json:"-"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	IsActive     bool       `json:"is_active"`
	LastLoginUtc *time.Time `json:"last_login_utc,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Consumer statuses.
const (
	ConsumerActive   = "Active"
	ConsumerInactive = "Inactive"
)

// Consumer is an end-customer account. Consumers authenticate by email and
// are soft-deleted; every read path filters on the Deleted flag.
type Consumer struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Phone        string     `json:"phone,omitempty"`
	OrgUnitID    int64      `json:"org_unit_id"`
	TariffID     int64      `json:"tariff_id"`
	Status       string     `json:"status"`
	PhotoURL     string     `json:"photo_url,omitempty"`
	Deleted      bool       `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	CreatedBy    string     `json:"created_by"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	UpdatedBy    string     `json:"updated_by,omitempty"`
	Revision     int64      `json:"-"`
}

package service

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smartmeter/billing-system/internal/core/domain"
)

// Claims is the token payload shared by both principal kinds. The subject is
// the string-encoded numeric principal id; which kind it identifies is fully
// determined by the role claim.
type Claims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer builds and validates signed HS256 tokens. The signing key and
// validity window are fixed at construction; rotating the key invalidates all
// outstanding tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

const defaultTokenTTL = 60 * time.Minute

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the principal. Expiry is always issuance time plus
// the configured window.
func (i *TokenIssuer) Issue(p domain.Principal) (string, time.Time, error) {
	now := i.now().UTC()
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		Name: p.Name,
		Role: domain.RoleForKind(p.Kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates a token and reconstructs the principal descriptor. Any
// failure — bad signature, malformed structure, expiry, or a missing or
// unparseable claim — yields domain.ErrUnauthenticated; the guard never
// defaults to a permissive role.
func (i *TokenIssuer) Parse(tokenStr string) (domain.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return domain.Principal{}, domain.ErrUnauthenticated
	}

	kind := domain.KindForRole(claims.Role)
	if kind == "" {
		return domain.Principal{}, domain.ErrUnauthenticated
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return domain.Principal{}, domain.ErrUnauthenticated
	}

	return domain.Principal{
		ID:        id,
		Kind:      kind,
		Role:      claims.Role,
		Name:      claims.Name,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

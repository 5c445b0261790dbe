package token

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates access tokens from refresh tokens. The kind is
// embedded as a claim so one can never be replayed as the other.
type Kind string

const (
	// KindAccess marks a short-lived token presented on every request.
	KindAccess Kind = "access"
	// KindRefresh marks a longer-lived token exchanged for new access tokens.
	KindRefresh Kind = "refresh"
)

var (
	// ErrMalformed indicates the token failed signature or structural checks.
	ErrMalformed = errors.New("token malformed")
	// ErrExpired indicates the token's expiry has passed.
	ErrExpired = errors.New("token expired")
	// ErrWrongKind indicates a valid token presented where the other kind was expected.
	ErrWrongKind = errors.New("token has wrong kind")
	// ErrRevoked indicates the token was explicitly invalidated before its expiry.
	ErrRevoked = errors.New("token revoked")
)

// Claims is the signed claim set carried by every issued token.
type Claims struct {
	Role string `json:"role"`
	Kind Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// RevocationChecker is the registry lookup consulted on every Verify.
// Implementations live in the revocation package.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, hash [32]byte) (bool, error)
}

// Hash returns the stable key under which a token's wire form is tracked
// by the revocation registry. Revocation is keyed on the exact signed
// string, not on any embedded identifier.
func Hash(wire string) [32]byte {
	return sha256.Sum256([]byte(wire))
}

// Issuer signs and verifies credential tokens with a symmetric secret.
// It is immutable after construction and safe for concurrent use.
type Issuer struct {
	secret      []byte
	issuer      string
	revocations RevocationChecker
	now         func() time.Time
}

// NewIssuer builds an Issuer. The revocation checker may be nil, in which
// case Verify skips the registry lookup.
func NewIssuer(secret []byte, issuer string, revocations RevocationChecker, now func() time.Time) (*Issuer, error) {
	if len(secret) < 32 {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		secret:      secret,
		issuer:      issuer,
		revocations: revocations,
		now:         now,
	}, nil
}

// Issue signs a claim set for subject with the given kind and ttl and
// returns the wire string.
func (i *Issuer) Issue(subject, role string, kind Kind, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	now := i.now()
	claims := Claims{
		Role: role,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify validates wire and returns its claims. Checks run in order:
// signature integrity, expiry, kind, revocation registry. Each failure
// maps to a distinct sentinel (ErrMalformed, ErrExpired, ErrWrongKind,
// ErrRevoked) so callers can react differently. A single "now" is
// captured at entry and used for every time comparison in the call.
func (i *Issuer) Verify(ctx context.Context, wire string, expect Kind) (*Claims, error) {
	now := i.now()

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)

	parsed, err := parser.ParseWithClaims(wire, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if claims.Kind != expect {
		return nil, ErrWrongKind
	}

	if i.revocations != nil {
		revoked, err := i.revocations.IsRevoked(ctx, Hash(wire))
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrRevoked
		}
	}

	return claims, nil
}

// Peek decodes wire without verifying revocation state and returns its
// claims if the signature and structure are intact. Expired tokens are
// still returned: Logout needs the expiry of a token that may have just
// lapsed in order to bound its registry entry.
func (i *Issuer) Peek(wire string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.ParseWithClaims(wire, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, ErrMalformed
	}
	return claims, nil
}

package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimsVersion is bumped whenever the claims schema changes; tokens with a
// different version are rejected on parse.
const ClaimsVersion = 1

var (
	// ErrTokenInvalid is returned for malformed, unsigned, or tampered tokens.
	ErrTokenInvalid = errors.New("session: invalid token")

	// ErrTokenExpired is returned when the token signature is fine but the
	// session is past its expiry.
	ErrTokenExpired = errors.New("session: token expired")
)

// Claims is the immutable claims struct embedded in every session token.
// It carries only the role tag and the single id needed for scoping.
type Claims struct {
	Role Role `json:"role"`
	Ver  int  `json:"ver"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies HMAC-signed session tokens.
type Issuer struct {
	secret     []byte
	staffTTL   time.Duration
	patientTTL time.Duration
	now        func() time.Time
}

// NewIssuer creates an Issuer. staffTTL applies to admin, doctor and partner
// sessions; patientTTL to OTP-authenticated patient sessions.
func NewIssuer(secret string, staffTTL, patientTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("session: signing secret required")
	}
	if staffTTL <= 0 || patientTTL <= 0 {
		return nil, errors.New("session: TTLs must be positive")
	}
	return &Issuer{
		secret:     []byte(secret),
		staffTTL:   staffTTL,
		patientTTL: patientTTL,
		now:        time.Now,
	}, nil
}

// Issue signs a token for the principal and returns it with its expiry.
// There is no sliding renewal; callers wanting a fresh TTL re-issue explicitly.
func (i *Issuer) Issue(p Principal) (string, time.Time, error) {
	if err := p.Validate(); err != nil {
		return "", time.Time{}, err
	}

	ttl := i.staffTTL
	if p.Role == RolePatient {
		ttl = i.patientTTL
	}

	issuedAt := i.now().UTC()
	expiresAt := issuedAt.Add(ttl)

	claims := Claims{
		Role: p.Role,
		Ver:  ClaimsVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.SubjectID(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the token signature, expiry and claims version, and returns
// the embedded principal.
func (i *Issuer) Parse(tokenString string) (Principal, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrTokenExpired
		}
		return Principal{}, ErrTokenInvalid
	}
	if !token.Valid || claims.Ver != ClaimsVersion {
		return Principal{}, ErrTokenInvalid
	}

	p := principalFor(claims.Role, claims.Subject)
	if err := p.Validate(); err != nil {
		return Principal{}, ErrTokenInvalid
	}
	return p, nil
}

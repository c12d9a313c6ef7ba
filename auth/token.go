package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token validation errors. The gate collapses all of them to a single 401;
// they exist so the failure can be logged precisely.
var (
	// ErrTokenMalformed indicates the token is structurally invalid
	ErrTokenMalformed = errors.New("token is malformed")

	// ErrTokenSignature indicates the signature does not match the payload
	ErrTokenSignature = errors.New("token signature is invalid")

	// ErrTokenExpired indicates the token expiry has passed
	ErrTokenExpired = errors.New("token is expired")
)

// TokenService issues and validates HS512-signed bearer tokens. The signing
// key is loaded once at startup and shared read-only for the process
// lifetime, so issuance and validation are pure and safe for concurrent use.
//
// Tokens carry identity only (sub, iat, exp). Authorization state is
// re-resolved from the user store on every request, so role changes take
// effect without waiting for tokens to expire.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
}

// NewTokenService creates a TokenService over the given signing key and
// fixed expiration window.
func NewTokenService(signingKey []byte, ttl time.Duration) *TokenService {
	return &TokenService{
		signingKey: signingKey,
		ttl:        ttl,
	}
}

// TTL returns the configured expiration window
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue builds and signs a token for the subject with issuedAt = now and
// expiresAt = now + TTL.
func (s *TokenService) Issue(subject string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token string against the signing key and
// returns its subject. The signature is verified before any claim is
// trusted; the method allowlist rejects alg-substitution tokens. Failures
// map onto ErrTokenMalformed, ErrTokenSignature, and ErrTokenExpired.
func (s *TokenService) Validate(tokenString string, now time.Time) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	claims := &jwt.RegisteredClaims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.signingKey, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrTokenSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		default:
			// Unknown parser failures are structural as far as callers care
			return "", fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}

package utils // package utils provides helper functions for token creation and hashing

import (
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/juju/errors"
)

// Claims is the payload carried by every access token.  Subject holds the
// account email, Role the account role at the time of login.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// signingMethod resolves an HMAC algorithm name.  Only the HS family is
// accepted because tokens are signed with a shared secret.
func signingMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case "", jwt.SigningMethodHS256.Alg():
		return jwt.SigningMethodHS256, nil
	case jwt.SigningMethodHS384.Alg():
		return jwt.SigningMethodHS384, nil
	case jwt.SigningMethodHS512.Alg():
		return jwt.SigningMethodHS512, nil
	}
	return nil, errors.NotSupportedf("signing algorithm %q", alg)
}

// NewAccessToken builds and signs a JWT for subject.  The role claim is
// omitted when empty, in which case ParseAccessToken reports the anonymous
// role.
func NewAccessToken(secret, alg, subject, role string, ttl time.Duration) (AccessToken, error) {
	method, err := signingMethod(alg)
	if err != nil {
		return AccessToken{}, err
	}
	// Calculate the expiration time by adding the TTL to the current UTC time.
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, errors.Annotate(err, "sign access token")
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature, algorithm and expiry and returns the
// claims.  Every failure satisfies errors.Is(err, errors.Unauthorized).
func ParseAccessToken(secret, alg, raw string) (*Claims, error) {
	method, err := signingMethod(alg)
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{method.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Unauthorizedf("invalid token: %v", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.Unauthorizedf("invalid token")
	}
	if claims.Role == "" {
		claims.Role = "anonymous"
	}
	return claims, nil
}

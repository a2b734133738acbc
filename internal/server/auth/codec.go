// Package auth encodes and decodes the signed access tokens handed to
// clients. Tokens are HMAC-signed JWTs carrying sub, iat and exp.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the registered claims of an access token. Subject is the
// username.
type Claims struct {
	jwt.RegisteredClaims
}

// Codec signs and verifies access tokens with one secret and one HMAC
// algorithm. It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

type Option func(*Codec)

// WithClock replaces time.Now when checking expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a codec for algorithm HS256, HS384 or HS512.
func NewCodec(secret string, algorithm string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", algorithm)
	}

	c := &Codec{secret: []byte(secret), method: method, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ErrEmptySubject is returned by Encode; Decode never accepts such a token.
var ErrEmptySubject = errors.New("empty token subject")

// Encode signs {sub, iat, exp=iat+ttl}. Times are truncated to seconds,
// so equal inputs produce equal tokens.
func (c *Codec) Encode(subject string, issuedAt time.Time, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}
	issuedAt = issuedAt.UTC().Truncate(time.Second)

	token := jwt.NewWithClaims(c.method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature, algorithm, structure and expiry of token.
// Every failure matches common.ErrInvalidToken; an expired token also
// matches common.ErrTokenExpired.
func (c *Codec) Decode(token string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !parsed.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// Package identity verifies bearer credentials issued by the identity
// provider and yields the caller's verified email and subject id.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is a verified caller established once per request.
type Identity struct {
	Email   string
	Subject string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type JWTVerifier struct {
	secret   []byte
	audience string
}

func NewJWTVerifier(secret, audience string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), audience: audience}
}

func (v *JWTVerifier) Verify(_ context.Context, raw string) (*Identity, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithAudience(v.audience), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Email == "" {
		return nil, errors.New("token has no email claim")
	}
	return &Identity{Email: claims.Email, Subject: claims.Subject}, nil
}

// NewIDToken mints a signed identity token. Used by dev tooling and tests.
func NewIDToken(email, subject, secret, audience string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{audience},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

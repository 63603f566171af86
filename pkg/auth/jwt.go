package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const audience = "vms-api"

var ErrInvalidToken = errors.New("invalid token")

// Claims is the session payload carried by every admin token.
type Claims struct {
	AdminID int64  `json:"adminId"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

func NewAccessToken(adminID int64, role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		AdminID: adminID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{audience},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithAudience(audience))
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid && claims.AdminID > 0 {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// Issuer signs and verifies tokens with a fixed secret and lifetime.
type Issuer struct {
	secret string
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: secret, ttl: ttl}
}

func (i *Issuer) Sign(adminID int64, role string) (string, error) {
	return NewAccessToken(adminID, role, i.secret, i.ttl)
}

func (i *Issuer) Verify(token string) (*Claims, error) {
	return Parse(token, i.secret)
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

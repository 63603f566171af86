package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuerRoundTrip(t *testing.T) {
	iss := NewIssuer("secret", 24*time.Hour)

	token, err := iss.Sign(12, "Super Admin")
	require.NoError(t, err)

	claims, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(12), claims.AdminID)
	assert.Equal(t, "Super Admin", claims.Role)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewAccessToken(1, "Admin", "secret-a", time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "secret-b")
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := NewAccessToken(1, "Admin", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRejectsMissingAdmin(t *testing.T) {
	token, err := NewAccessToken(0, "Admin", "secret", time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{AdminID: 1, Role: "Admin", RegisteredClaims: jwt.RegisteredClaims{
		Audience:  []string{audience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = Parse(token, "secret")
	assert.Error(t, err)
}

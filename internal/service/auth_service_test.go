package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
)

func newAuthServiceForTest() *AuthService {
	return NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "sma-academic-core"})
}

func TestAuthServiceTokenRoundTrip(t *testing.T) {
	svc := newAuthServiceForTest()

	token, expiresAt, err := svc.GenerateToken(TokenSubject{UserID: "u-1", Role: models.RoleTeacher, Email: "t@school.id"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.True(t, claims.Role.Can(models.CapAttendanceWrite))
	assert.False(t, claims.Role.Can(models.CapScoreFinalize))
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	svc := newAuthServiceForTest()

	_, err := svc.ValidateToken("not-a-token")
	requireAppCode(t, err, appErrors.ErrUnauthorized)

	other := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other", Issuer: "sma-academic-core"})
	forged, _, err := other.GenerateToken(TokenSubject{UserID: "u-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	requireAppCode(t, err, appErrors.ErrUnauthorized)

	issued := time.Now().Add(-3 * time.Hour)
	svc.now = func() time.Time { return issued }
	expired, _, err := svc.GenerateToken(TokenSubject{UserID: "u-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.ValidateToken(expired)
	requireAppCode(t, err, appErrors.ErrUnauthorized)

	unknown := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{UserID: "u-2", Role: "JANITOR",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "sma-academic-core", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}})
	signed, err := unknown.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	requireAppCode(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceGenerateValidatesSubject(t *testing.T) {
	svc := newAuthServiceForTest()

	_, _, err := svc.GenerateToken(TokenSubject{Role: models.RoleAdmin})
	requireAppCode(t, err, appErrors.ErrValidation)

	_, _, err = svc.GenerateToken(TokenSubject{UserID: "u-1", Role: "GUEST"})
	requireAppCode(t, err, appErrors.ErrValidation)
}

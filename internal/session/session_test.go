package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestSessionFromToken(t *testing.T) {
	userID := uuid.New()
	agencyID := uuid.New()
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": userID.String(),
		"aud": "authenticated",
		"exp": time.Now().Add(time.Hour).Unix(),
		"app_metadata": map[string]interface{}{
			"role":      "dispatcher",
			"agency_id": agencyID.String(),
		},
	})

	s, err := NewJWTProvider(testSecret, "authenticated").SessionFromToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, s.UserID)
	assert.Equal(t, RoleDispatcher, s.Role)
	require.NotNil(t, s.AgencyID)
	assert.Equal(t, agencyID, *s.AgencyID)
}

func TestSessionFromTokenWithoutAgency(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":          userID.String(),
		"exp":          time.Now().Add(time.Hour).Unix(),
		"app_metadata": map[string]interface{}{"role": "engineer"},
	})

	s, err := NewJWTProvider(testSecret, "").SessionFromToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, RoleEngineer, s.Role)
	assert.Nil(t, s.AgencyID)
}

func TestSessionFromTokenRejects(t *testing.T) {
	provider := NewJWTProvider(testSecret, "authenticated")
	valid := jwt.MapClaims{
		"sub": uuid.NewString(),
		"aud": "authenticated",
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", signToken(t, "another-secret-another-secret-another", valid)},
		{"expired", signToken(t, testSecret, jwt.MapClaims{
			"sub": uuid.NewString(),
			"aud": "authenticated",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})},
		{"wrong audience", signToken(t, testSecret, jwt.MapClaims{
			"sub": uuid.NewString(),
			"aud": "anon",
			"exp": time.Now().Add(time.Hour).Unix(),
		})},
		{"non uuid subject", signToken(t, testSecret, jwt.MapClaims{
			"sub": "service-role",
			"aud": "authenticated",
			"exp": time.Now().Add(time.Hour).Unix(),
		})},
		{"garbage", "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provider.SessionFromToken(context.Background(), tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestSessionFromTokenWithoutSecret(t *testing.T) {
	_, err := NewJWTProvider("", "").SessionFromToken(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

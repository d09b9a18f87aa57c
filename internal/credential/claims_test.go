package credential

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestUserIDFromToken(t *testing.T) {
	tests := []struct {
		name    string
		claims  jwt.MapClaims
		want    int64
		wantErr bool
	}{
		{"id_usuario", jwt.MapClaims{"id_usuario": 42, "sub": "someone@example.com"}, 42, false},
		{"user_id", jwt.MapClaims{"user_id": 7}, 7, false},
		{"numeric sub", jwt.MapClaims{"sub": "19"}, 19, false},
		{"email sub only", jwt.MapClaims{"sub": "someone@example.com"}, 0, true},
		{"fractional id", jwt.MapClaims{"id": 1.5}, 0, true},
		{"no claims", jwt.MapClaims{"role": "estudiante"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UserIDFromToken(signed(t, tt.claims))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoUserClaim)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserIDFromToken_Garbage(t *testing.T) {
	_, err := UserIDFromToken("not-a-jwt")
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	expired, err := TokenExpired(signed(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()}), now)
	require.NoError(t, err)
	assert.True(t, expired)

	expired, err = TokenExpired(signed(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}), now)
	require.NoError(t, err)
	assert.False(t, expired)

	expired, err = TokenExpired(signed(t, jwt.MapClaims{"id_usuario": 1}), now)
	require.NoError(t, err)
	assert.False(t, expired)
}

package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abubakar312/chat-app-backend/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GenerateVerify(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.Generate("user-1")
	require.NoError(t, err)

	userID, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestManager_Verify_Rejects(t *testing.T) {
	m := NewManager("secret", time.Hour)
	good, err := m.Generate("user-1")
	require.NoError(t, err)

	expired := NewManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Generate("user-1")
	require.NoError(t, err)

	other, err := NewManager("other", time.Hour).Generate("user-1")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{User: UserClaim{ID: "user-1"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	empty, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"tampered", good + "x"},
		{"expired", old},
		{"wrong secret", other},
		{"alg none", unsigned},
		{"no user", empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrUnauthenticated))
		})
	}
}

func TestManager_Verify_SubjectFallback(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-2",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	userID, err := NewManager("secret", time.Hour).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", userID)
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"none", nil, ""},
		{"x-auth-token", map[string]string{"x-auth-token": "abc"}, "abc"},
		{"bearer", map[string]string{"Authorization": "Bearer abc"}, "abc"},
		{"bearer lowercase", map[string]string{"Authorization": "bearer abc"}, "abc"},
		{"basic ignored", map[string]string{"Authorization": "Basic abc"}, ""},
		{"x-auth-token wins", map[string]string{"x-auth-token": "one", "Authorization": "Bearer two"}, "one"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, TokenFromRequest(req))
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	ok, err := CheckPassword(hash, "password123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("not-a-hash", "password123")
	assert.Error(t, err)
}

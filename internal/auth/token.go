package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Abubakar312/chat-app-backend/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// HeaderToken is the header the web client sends the token in.
const HeaderToken = "x-auth-token"

var ErrInvalidToken = fmt.Errorf("%w: invalid token", common.ErrUnauthenticated)

type UserClaim struct {
	ID string `json:"id"`
}

// Claims carries the user id both in the "user" object the web client reads
// and in the standard subject.
type Claims struct {
	jwt.RegisteredClaims
	User UserClaim `json:"user"`
}

// Manager issues and verifies HS256 bearer tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *Manager) Generate(userID string) (string, error) {
	issued := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(m.ttl)),
		},
		User: UserClaim{ID: userID},
	})
	return token.SignedString(m.secret)
}

// Verify returns the user id carried by a valid, unexpired token.
func (m *Manager) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	userID := claims.User.ID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", errors.Join(ErrInvalidToken, errors.New("token carries no user"))
	}
	return userID, nil
}

// TokenFromRequest reads the token from the x-auth-token header or an
// Authorization bearer header.
func TokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(HeaderToken)); token != "" {
		return token
	}
	authz := r.Header.Get("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}

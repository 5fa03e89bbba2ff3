package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Abubakar312/chat-app-backend/internal/auth"
	"github.com/Abubakar312/chat-app-backend/internal/logging"
)

type contextKey string

const UserIDKey contextKey = "user_id"

type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// AuthMiddleware admits requests carrying a valid token and stores the user
// id in the request context.
func AuthMiddleware(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			if token == "" {
				writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			userID, err := tokens.Verify(token)
			if err != nil {
				writeMsg(w, http.StatusBadRequest, "Token is not valid")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			logger := logging.Ctx(ctx).With().Str(logging.FieldUserID, userID).Logger()
			ctx = logging.WithLogger(ctx, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFrom returns the authenticated user id stored by AuthMiddleware.
func UserIDFrom(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"msg": msg})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Abubakar312/chat-app-backend/internal/common"
	"github.com/Abubakar312/chat-app-backend/internal/logging"
	"github.com/Abubakar312/chat-app-backend/internal/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

// writeError maps err onto a status code. Unexpected errors are logged and
// answered without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, common.ErrForbidden), errors.Is(err, common.ErrUnauthenticated):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Msg("request failed")
		writeMsg(w, status, "Server Error")
		return
	}
	writeMsg(w, status, err.Error())
}

// currentUser returns the authenticated caller, answering 401 when the
// route was mounted without the auth middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
	}
	return userID, ok
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

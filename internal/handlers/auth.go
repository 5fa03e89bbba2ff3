package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Abubakar312/chat-app-backend/internal/auth"
	"github.com/Abubakar312/chat-app-backend/internal/common"
	"github.com/Abubakar312/chat-app-backend/internal/models"
	"github.com/Abubakar312/chat-app-backend/internal/store"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthHandler struct {
	Store  store.Store
	Tokens *auth.Manager
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if !decode(w, r, &creds) {
		return
	}

	username := strings.TrimSpace(creds.Username)
	if len(username) < minUsernameLength {
		writeMsg(w, http.StatusBadRequest, "Username must be at least 3 characters")
		return
	}
	if len(creds.Password) < minPasswordLength {
		writeMsg(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := &models.User{Username: username, Password: hash}
	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			writeMsg(w, http.StatusConflict, "User already exists")
			return
		}
		writeError(w, r, err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if !decode(w, r, &creds) {
		return
	}
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		writeMsg(w, http.StatusBadRequest, "Please provide a username and password")
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), strings.TrimSpace(creds.Username))
	if errors.Is(err, common.ErrNotFound) {
		writeMsg(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok, err := auth.CheckPassword(user.Password, creds.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.respondWithToken(w, r, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	token, err := h.Tokens.Generate(user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, AuthResponse{Token: token, User: user})
}

package handlers

import (
	"net/http"

	"github.com/Abubakar312/chat-app-backend/internal/store"
)

// OnlineLister reports the ids of users holding a live connection.
type OnlineLister interface {
	Online() []string
}

type UserHandler struct {
	Store    store.Store
	Presence OnlineLister
}

// List returns every user except the caller.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	users, err := h.Store.ListUsersExcept(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Online(w http.ResponseWriter, r *http.Request) {
	online := h.Presence.Online()
	if online == nil {
		online = []string{}
	}
	writeJSON(w, http.StatusOK, online)
}

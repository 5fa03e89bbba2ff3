package handlers

import (
	"errors"
	"net/http"

	"github.com/Abubakar312/chat-app-backend/internal/chat"
	"github.com/Abubakar312/chat-app-backend/internal/common"
	"github.com/Abubakar312/chat-app-backend/internal/store"
	"github.com/gorilla/mux"
)

type MessageHandler struct {
	Store store.Store
	Chat  *chat.Service
}

// List returns the conversation's messages, oldest first. Only members may
// read them.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	conversationID := mux.Vars(r)["conversationId"]

	isMember, err := h.Store.IsMember(r.Context(), conversationID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !isMember {
		writeMsg(w, http.StatusUnauthorized, "User not authorized")
		return
	}

	messages, err := h.Store.ListMessages(r.Context(), conversationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	err := h.Chat.Delete(r.Context(), mux.Vars(r)["id"], userID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeMsg(w, http.StatusNotFound, "Message not found")
	case errors.Is(err, common.ErrForbidden):
		writeMsg(w, http.StatusUnauthorized, "User not authorized")
	case err != nil:
		writeError(w, r, err)
	default:
		writeMsg(w, http.StatusOK, "Message removed")
	}
}

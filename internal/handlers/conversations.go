package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Abubakar312/chat-app-backend/internal/chat"
	"github.com/Abubakar312/chat-app-backend/internal/common"
	"github.com/Abubakar312/chat-app-backend/internal/store"
	"github.com/gorilla/mux"
)

type ConversationHandler struct {
	Store store.Store
	Chat  *chat.Service
}

type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type AddMemberRequest struct {
	UserIDToAdd string `json:"userIdToAdd"`
}

// CreateGroup creates a group administered by the caller, who is added to
// the members.
func (h *ConversationHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CreateGroupRequest
	if !decode(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(req.Members) == 0 {
		writeMsg(w, http.StatusBadRequest, "Please provide a group name and members")
		return
	}

	for _, id := range req.Members {
		if _, err := h.Store.GetUserByID(r.Context(), id); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				writeMsg(w, http.StatusBadRequest, "Unknown member "+id)
				return
			}
			writeError(w, r, err)
			return
		}
	}

	conv, err := h.Store.CreateGroup(r.Context(), name, userID, req.Members)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Chat.ConversationCreated(conv)
	writeJSON(w, http.StatusCreated, conv)
}

// List returns the caller's conversations, most recently active first.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	convs, err := h.Store.ListUserConversations(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

// FindOrCreateDM answers 200 with an existing direct conversation or 201
// with a new one.
func (h *ConversationHandler) FindOrCreateDM(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	recipientID := mux.Vars(r)["recipientId"]

	if recipientID == userID {
		writeMsg(w, http.StatusBadRequest, "Cannot start a conversation with yourself")
		return
	}
	if _, err := h.Store.GetUserByID(r.Context(), recipientID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeMsg(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, r, err)
		return
	}

	conv, created, err := h.Store.FindOrCreateDM(r.Context(), userID, recipientID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !created {
		writeJSON(w, http.StatusOK, conv)
		return
	}
	h.Chat.ConversationCreated(conv)
	writeJSON(w, http.StatusCreated, conv)
}

// AddMember adds a user to a group. Only the group admin may do so.
func (h *ConversationHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	conversationID := mux.Vars(r)["id"]

	var req AddMemberRequest
	if !decode(w, r, &req) {
		return
	}
	if req.UserIDToAdd == "" {
		writeMsg(w, http.StatusBadRequest, "Please provide userIdToAdd")
		return
	}

	conv, err := h.Store.GetConversation(r.Context(), conversationID)
	if errors.Is(err, common.ErrNotFound) {
		writeMsg(w, http.StatusNotFound, "Conversation not found")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !conv.IsAdmin(userID) {
		writeMsg(w, http.StatusUnauthorized, "Not authorized: Only the group admin can add members")
		return
	}

	if _, err := h.Store.GetUserByID(r.Context(), req.UserIDToAdd); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeMsg(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, r, err)
		return
	}

	wasMember := conv.HasMember(req.UserIDToAdd)
	if err := h.Store.AddMember(r.Context(), conversationID, req.UserIDToAdd); err != nil {
		writeError(w, r, err)
		return
	}
	conv, err = h.Store.GetConversation(r.Context(), conversationID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !wasMember {
		h.Chat.ConversationCreated(conv, req.UserIDToAdd)
	}
	writeJSON(w, http.StatusOK, conv)
}

// Delete removes a conversation with its messages. Groups can only be
// deleted by their admin, direct messages by either member.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	err := h.Chat.DeleteConversation(r.Context(), mux.Vars(r)["id"], userID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeMsg(w, http.StatusNotFound, "Conversation not found")
	case errors.Is(err, common.ErrForbidden):
		writeMsg(w, http.StatusUnauthorized, "User not authorized")
	case err != nil:
		writeError(w, r, err)
	default:
		writeMsg(w, http.StatusOK, "Conversation removed")
	}
}

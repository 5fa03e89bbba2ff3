// Package chat implements message delivery: persisting sends, propagating
// read receipts and deletions, and deciding who may join a conversation room.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abubakar312/chat-app-backend/internal/common"
	"github.com/Abubakar312/chat-app-backend/internal/logging"
	"github.com/Abubakar312/chat-app-backend/internal/metrics"
	"github.com/Abubakar312/chat-app-backend/internal/models"
	"github.com/Abubakar312/chat-app-backend/internal/store"
)

// Broadcaster fans events out to live connections. Implementations must not
// block on slow receivers.
type Broadcaster interface {
	BroadcastToRoom(conversationID, event string, data any)
	SendToUsers(userIDs []string, event string, data any)
}

type Service struct {
	store store.Store
	hub   Broadcaster
}

func NewService(st store.Store, hub Broadcaster) *Service {
	return &Service{store: st, hub: hub}
}

// AuthorizeJoin checks that userID may subscribe to the conversation's room.
func (s *Service) AuthorizeJoin(ctx context.Context, conversationID, userID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return fmt.Errorf("%w: conversationId is required", common.ErrValidation)
	}
	return s.requireMember(ctx, conversationID, userID)
}

func (s *Service) requireMember(ctx context.Context, conversationID, userID string) error {
	ok, err := s.store.IsMember(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: not a member of this conversation", common.ErrForbidden)
	}
	return nil
}

// Send persists a message from identityID and broadcasts it to the
// conversation room, sender included. The stored message is returned.
func (s *Service) Send(ctx context.Context, identityID string, in SendInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if in.ConversationID == "" {
		return nil, fmt.Errorf("%w: conversationId is required", common.ErrValidation)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", common.ErrValidation)
	}
	if in.SenderID != "" && in.SenderID != identityID {
		return nil, fmt.Errorf("%w: senderId does not match the connection", common.ErrUnauthenticated)
	}
	if err := s.requireMember(ctx, in.ConversationID, identityID); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(in.SenderUsername)
	if username == "" {
		user, err := s.store.GetUserByID(ctx, identityID)
		if err != nil {
			return nil, err
		}
		username = user.Username
	}

	msg := &models.Message{
		ConversationID: in.ConversationID,
		SenderID:       identityID,
		SenderUsername: username,
		Content:        content,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	logger := logging.Ctx(ctx)
	if err := s.store.SetLastMessage(ctx, msg.ConversationID, msg.ID); err != nil {
		logger.Error().Err(err).
			Str(logging.FieldConvID, msg.ConversationID).
			Str("message_id", msg.ID).
			Msg("failed to update last message")
	}

	metrics.MessagesSent.Inc()
	s.hub.BroadcastToRoom(msg.ConversationID, EventChatMessage, msg)
	return msg, nil
}

// MarkSeen adds identityID to the read set of every message in the
// conversation. The delta is broadcast to the room only when at least one
// message changed.
func (s *Service) MarkSeen(ctx context.Context, identityID string, in SeenInput) (*MessagesUpdated, error) {
	if in.ConversationID == "" {
		return nil, fmt.Errorf("%w: conversationId is required", common.ErrValidation)
	}
	if in.UserID != "" && in.UserID != identityID {
		return nil, fmt.Errorf("%w: userId does not match the connection", common.ErrUnauthenticated)
	}
	if err := s.requireMember(ctx, in.ConversationID, identityID); err != nil {
		return nil, err
	}

	updated, err := s.store.MarkConversationRead(ctx, in.ConversationID, identityID)
	if err != nil {
		return nil, err
	}

	delta := &MessagesUpdated{
		ConversationID:    in.ConversationID,
		UpdatedMessageIDs: updated,
		ReaderID:          identityID,
	}
	if len(updated) > 0 {
		metrics.ReadReceipts.Add(float64(len(updated)))
		s.hub.BroadcastToRoom(in.ConversationID, EventMessagesUpdated, delta)
	}
	return delta, nil
}

// Delete removes a message on behalf of its sender and tells the room.
func (s *Service) Delete(ctx context.Context, messageID, requesterID string) error {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != requesterID {
		return fmt.Errorf("%w: only the sender can delete a message", common.ErrForbidden)
	}
	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		return err
	}

	metrics.MessagesDeleted.Inc()
	s.hub.BroadcastToRoom(msg.ConversationID, EventMessageDeleted, MessageDeleted{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
	})
	return nil
}

// ConversationCreated tells the online members about a conversation they
// were made part of.
func (s *Service) ConversationCreated(conv *models.Conversation, userIDs ...string) {
	if len(userIDs) == 0 {
		userIDs = memberIDs(conv)
	}
	s.hub.SendToUsers(userIDs, EventConversationCreated, conv)
}

// DeleteConversation removes the conversation with everything it owns. A
// group may only be deleted by its admin, a direct message by either member.
func (s *Service) DeleteConversation(ctx context.Context, conversationID, requesterID string) error {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	allowed := conv.IsAdmin(requesterID) || (!conv.IsGroup && conv.HasMember(requesterID))
	if !allowed {
		return fmt.Errorf("%w: cannot delete this conversation", common.ErrForbidden)
	}
	if err := s.store.DeleteConversation(ctx, conversationID); err != nil {
		return err
	}

	payload := ConversationDeleted{ConversationID: conversationID}
	s.hub.SendToUsers(memberIDs(conv), EventConversationDeleted, payload)
	return nil
}

func memberIDs(conv *models.Conversation) []string {
	ids := make([]string, 0, len(conv.Members))
	for _, m := range conv.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

package store

import (
	"context"

	"github.com/Abubakar312/chat-app-backend/internal/models"
)

// Store is the persistent document store behind users, conversations and
// messages. Lookups of missing entities return common.ErrNotFound; driver
// failures are wrapped as "db error".
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsersExcept(ctx context.Context, id string) ([]models.User, error)

	// Conversation operations
	CreateGroup(ctx context.Context, name, adminID string, memberIDs []string) (*models.Conversation, error)
	FindOrCreateDM(ctx context.Context, userID, recipientID string) (conv *models.Conversation, created bool, err error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListUserConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	AddMember(ctx context.Context, conversationID, userID string) error
	IsMember(ctx context.Context, conversationID, userID string) (bool, error)
	SetLastMessage(ctx context.Context, conversationID, messageID string) error
	DeleteConversation(ctx context.Context, id string) error

	// Message operations
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, conversationID, readerID string) ([]string, error)
	DeleteMessage(ctx context.Context, id string) error
}

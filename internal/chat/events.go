package chat

// Client to server events.
const (
	EventSetup        = "setup"
	EventJoinRoom     = "join room"
	EventLeaveRoom    = "leave room"
	EventChatMessage  = "chat message"
	EventMessagesSeen = "messages seen"
)

// Server to client events. EventChatMessage is used in both directions.
const (
	EventOnlineUsers         = "online users"
	EventMessagesUpdated     = "messages updated"
	EventMessageDeleted      = "message deleted"
	EventConversationCreated = "conversation created"
	EventConversationDeleted = "conversation deleted"
	EventAck                 = "ack"
	EventError               = "error"
)

// SendInput is the payload of a client "chat message" event.
type SendInput struct {
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
	SenderUsername string `json:"senderUsername"`
	Content        string `json:"content"`
}

// SeenInput is the payload of a client "messages seen" event.
type SeenInput struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// MessagesUpdated is the read receipt delta broadcast to a room.
type MessagesUpdated struct {
	ConversationID    string   `json:"conversationId"`
	UpdatedMessageIDs []string `json:"updatedMessageIds"`
	ReaderID          string   `json:"readerId"`
}

type MessageDeleted struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

type ConversationDeleted struct {
	ConversationID string `json:"conversationId"`
}

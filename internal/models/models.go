package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Member is the populated view of a user inside a conversation.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// MessagePreview is what a conversation listing shows for its last message.
type MessagePreview struct {
	ID             string    `json:"id"`
	Content        string    `json:"content"`
	SenderUsername string    `json:"senderUsername"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Conversation struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	IsGroup     bool            `json:"isGroup"`
	Members     []Member        `json:"members"`
	GroupAdmin  *Member         `json:"groupAdmin,omitempty"`
	LastMessage *MessagePreview `json:"lastMessage,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// HasMember reports whether userID is one of the conversation members.
func (c *Conversation) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// IsAdmin reports whether userID administers the conversation. Direct
// messages have no admin.
func (c *Conversation) IsAdmin(userID string) bool {
	return c.IsGroup && c.GroupAdmin != nil && c.GroupAdmin.ID == userID
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	SenderUsername string    `json:"senderUsername"` // captured at send time
	Content        string    `json:"content"`
	ReadBy         []string  `json:"readBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// IsReadBy reports whether userID is in the message's read set.
func (m *Message) IsReadBy(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

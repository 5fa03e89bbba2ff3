package sqlstore

import (
	"context"
	"database/sql"

	"github.com/Abubakar312/chat-app-backend/internal/common"
	"github.com/Abubakar312/chat-app-backend/internal/models"
	"github.com/oklog/ulid/v2"
)

// CreateMessage persists msg with the store-assigned id and timestamps. The
// sender is the first entry of the read set.
func (s *SQLStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	ts := now()
	msg.CreatedAt, msg.UpdatedAt = ts, ts
	msg.ReadBy = []string{msg.SenderID}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		query := s.rebind(`INSERT INTO messages (id, conversation_id, sender_id, sender_username, content, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		_, err := tx.ExecContext(ctx, query, msg.ID, msg.ConversationID, msg.SenderID, msg.SenderUsername, msg.Content, ts, ts)
		if err != nil {
			return dbError(err)
		}

		query = s.rebind("INSERT INTO message_reads (message_id, user_id, read_at) VALUES (?, ?, ?)")
		_, err = tx.ExecContext(ctx, query, msg.ID, msg.SenderID, ts)
		return dbError(err)
	})
}

func (s *SQLStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	var m models.Message
	query := s.rebind(`SELECT id, conversation_id, sender_id, sender_username, content, created_at, updated_at
		FROM messages WHERE id = ?`)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderUsername,
		&m.Content, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, dbError(err)
	}

	query = s.rebind("SELECT user_id FROM message_reads WHERE message_id = ? ORDER BY read_at, user_id")
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	m.ReadBy = []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, dbError(err)
		}
		m.ReadBy = append(m.ReadBy, userID)
	}
	return &m, dbError(rows.Err())
}

// ListMessages returns the conversation's messages, oldest first.
func (s *SQLStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	query := s.rebind(`
		SELECT id, conversation_id, sender_id, sender_username, content, created_at, updated_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
	`)
	rows, err := s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, dbError(err)
	}

	messages := []models.Message{}
	index := map[string]int{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderUsername, &m.Content, &m.CreatedAt, &m.UpdatedAt); err != nil {
			rows.Close()
			return nil, dbError(err)
		}
		m.ReadBy = []string{}
		index[m.ID] = len(messages)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, dbError(err)
	}
	rows.Close()

	query = s.rebind(`
		SELECT r.message_id, r.user_id
		FROM message_reads r
		JOIN messages m ON m.id = r.message_id
		WHERE m.conversation_id = ?
		ORDER BY r.read_at, r.user_id
	`)
	rows, err = s.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var messageID, userID string
		if err := rows.Scan(&messageID, &userID); err != nil {
			return nil, dbError(err)
		}
		if i, ok := index[messageID]; ok {
			messages[i].ReadBy = append(messages[i].ReadBy, userID)
		}
	}
	return messages, dbError(rows.Err())
}

// MarkConversationRead adds readerID to the read set of every message of the
// conversation and returns the ids of the messages whose set grew. Read sets
// only ever grow, so calling it again returns nothing.
func (s *SQLStore) MarkConversationRead(ctx context.Context, conversationID, readerID string) ([]string, error) {
	updated := []string{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := s.rebind(`
			SELECT m.id FROM messages m
			WHERE m.conversation_id = ?
			AND NOT EXISTS (SELECT 1 FROM message_reads r WHERE r.message_id = m.id AND r.user_id = ?)
			ORDER BY m.created_at, m.id
		`)
		rows, err := tx.QueryContext(ctx, query, conversationID, readerID)
		if err != nil {
			return dbError(err)
		}
		var candidates []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return dbError(err)
			}
			candidates = append(candidates, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return dbError(err)
		}
		rows.Close()

		ts := now()
		insert := s.rebind(`INSERT INTO message_reads (message_id, user_id, read_at) VALUES (?, ?, ?)
			ON CONFLICT (message_id, user_id) DO NOTHING`)
		touch := s.rebind("UPDATE messages SET updated_at = ? WHERE id = ?")
		for _, id := range candidates {
			res, err := tx.ExecContext(ctx, insert, id, readerID, ts)
			if err != nil {
				return dbError(err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx, touch, ts, id); err != nil {
				return dbError(err)
			}
			updated = append(updated, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteMessage removes the message and its read receipts. When it was the
// conversation's last message the preview falls back to the newest
// remaining one.
func (s *SQLStore) DeleteMessage(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var conversationID string
		query := s.rebind("SELECT conversation_id FROM messages WHERE id = ?")
		if err := tx.QueryRowContext(ctx, query, id).Scan(&conversationID); err != nil {
			return dbError(err)
		}

		query = s.rebind("DELETE FROM message_reads WHERE message_id = ?")
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return dbError(err)
		}
		query = s.rebind("DELETE FROM messages WHERE id = ?")
		res, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			return dbError(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return common.ErrNotFound
		}

		query = s.rebind(`
			UPDATE conversations SET last_message_id = (
				SELECT id FROM messages WHERE conversation_id = ? ORDER BY created_at DESC, id DESC LIMIT 1
			)
			WHERE id = ? AND last_message_id = ?
		`)
		_, err = tx.ExecContext(ctx, query, conversationID, conversationID, id)
		return dbError(err)
	})
}

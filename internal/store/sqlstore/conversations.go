package sqlstore

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/Abubakar312/chat-app-backend/internal/common"
	"github.com/Abubakar312/chat-app-backend/internal/models"
	"github.com/google/uuid"
)

const conversationColumns = `
	c.id, c.name, c.is_group, c.group_admin_id, a.username, c.created_at, c.updated_at,
	m.id, m.content, m.sender_username, m.created_at
	FROM conversations c
	LEFT JOIN users a ON a.id = c.group_admin_id
	LEFT JOIN messages m ON m.id = c.last_message_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var (
		conv                            models.Conversation
		adminID, adminName              sql.NullString
		lastID, lastContent, lastSender sql.NullString
		lastAt                          sql.NullTime
	)
	err := row.Scan(&conv.ID, &conv.Name, &conv.IsGroup, &adminID, &adminName, &conv.CreatedAt, &conv.UpdatedAt,
		&lastID, &lastContent, &lastSender, &lastAt)
	if err != nil {
		return nil, err
	}
	if adminID.Valid {
		conv.GroupAdmin = &models.Member{ID: adminID.String, Username: adminName.String}
	}
	if lastID.Valid {
		conv.LastMessage = &models.MessagePreview{
			ID:             lastID.String,
			Content:        lastContent.String,
			SenderUsername: lastSender.String,
			CreatedAt:      lastAt.Time,
		}
	}
	conv.Members = []models.Member{}
	return &conv, nil
}

// dmKey is the unordered member pair of a direct message.
func dmKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}

// CreateGroup creates a group administered by adminID. Members keep their
// insertion order; duplicates are dropped and the admin is appended when
// missing.
func (s *SQLStore) CreateGroup(ctx context.Context, name, adminID string, memberIDs []string) (*models.Conversation, error) {
	ids := make([]string, 0, len(memberIDs)+1)
	seen := make(map[string]bool, len(memberIDs)+1)
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}
	for _, id := range memberIDs {
		add(id)
	}
	add(adminID)

	id := uuid.NewString()
	ts := now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := s.rebind(`INSERT INTO conversations (id, name, is_group, group_admin_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if _, err := tx.ExecContext(ctx, query, id, name, true, adminID, ts, ts); err != nil {
			return dbError(err)
		}
		return s.insertMembers(ctx, tx, id, ids)
	})
	if err != nil {
		return nil, err
	}
	return s.GetConversation(ctx, id)
}

func (s *SQLStore) insertMembers(ctx context.Context, tx DBTX, conversationID string, userIDs []string) error {
	query := s.rebind("INSERT INTO conversation_members (conversation_id, user_id, position) VALUES (?, ?, ?)")
	for i, userID := range userIDs {
		if _, err := tx.ExecContext(ctx, query, conversationID, userID, i); err != nil {
			return dbError(err)
		}
	}
	return nil
}

// FindOrCreateDM returns the direct conversation between the two users,
// creating it when absent. The unique dm_key makes the insert a conditional
// one, so concurrent callers converge on a single conversation.
func (s *SQLStore) FindOrCreateDM(ctx context.Context, userID, recipientID string) (*models.Conversation, bool, error) {
	key := dmKey(userID, recipientID)
	created := false

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		id := uuid.NewString()
		ts := now()
		query := s.rebind(`INSERT INTO conversations (id, name, is_group, dm_key, created_at, updated_at)
			VALUES (?, '', ?, ?, ?, ?)
			ON CONFLICT (dm_key) DO NOTHING`)
		res, err := tx.ExecContext(ctx, query, id, false, key, ts, ts)
		if err != nil {
			return dbError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return dbError(err)
		}
		if n == 0 {
			return nil
		}
		created = true
		return s.insertMembers(ctx, tx, id, []string{userID, recipientID})
	})
	if err != nil {
		return nil, false, err
	}

	var id string
	query := s.rebind("SELECT id FROM conversations WHERE dm_key = ?")
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&id); err != nil {
		return nil, false, dbError(err)
	}
	conv, err := s.GetConversation(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return conv, created, nil
}

func (s *SQLStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	query := s.rebind("SELECT " + conversationColumns + " WHERE c.id = ?")
	conv, err := scanConversation(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbError(err)
	}

	query = s.rebind(`
		SELECT u.id, u.username
		FROM conversation_members cm
		JOIN users u ON u.id = cm.user_id
		WHERE cm.conversation_id = ?
		ORDER BY cm.position
	`)
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Username); err != nil {
			return nil, dbError(err)
		}
		conv.Members = append(conv.Members, m)
	}
	return conv, dbError(rows.Err())
}

// ListUserConversations returns the conversations userID belongs to, most
// recently active first.
func (s *SQLStore) ListUserConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	query := s.rebind("SELECT " + conversationColumns + `
		JOIN conversation_members me ON me.conversation_id = c.id AND me.user_id = ?
		ORDER BY c.updated_at DESC, c.id`)
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dbError(err)
	}

	convs := []models.Conversation{}
	index := map[string]int{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			rows.Close()
			return nil, dbError(err)
		}
		index[conv.ID] = len(convs)
		convs = append(convs, *conv)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, dbError(err)
	}
	rows.Close()

	if len(convs) == 0 {
		return convs, nil
	}

	query = s.rebind(`
		SELECT cm.conversation_id, u.id, u.username
		FROM conversation_members cm
		JOIN users u ON u.id = cm.user_id
		WHERE cm.conversation_id IN (SELECT conversation_id FROM conversation_members WHERE user_id = ?)
		ORDER BY cm.conversation_id, cm.position
	`)
	rows, err = s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var convID string
		var m models.Member
		if err := rows.Scan(&convID, &m.ID, &m.Username); err != nil {
			return nil, dbError(err)
		}
		if i, ok := index[convID]; ok {
			convs[i].Members = append(convs[i].Members, m)
		}
	}
	return convs, dbError(rows.Err())
}

// AddMember appends userID to the conversation. Adding an existing member is
// a no-op.
func (s *SQLStore) AddMember(ctx context.Context, conversationID, userID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var next int
		query := s.rebind("SELECT COALESCE(MAX(position), -1) + 1 FROM conversation_members WHERE conversation_id = ?")
		if err := tx.QueryRowContext(ctx, query, conversationID).Scan(&next); err != nil {
			return dbError(err)
		}

		query = s.rebind(`INSERT INTO conversation_members (conversation_id, user_id, position) VALUES (?, ?, ?)
			ON CONFLICT (conversation_id, user_id) DO NOTHING`)
		res, err := tx.ExecContext(ctx, query, conversationID, userID, next)
		if err != nil {
			return dbError(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}

		query = s.rebind("UPDATE conversations SET updated_at = ? WHERE id = ?")
		_, err = tx.ExecContext(ctx, query, now(), conversationID)
		return dbError(err)
	})
}

func (s *SQLStore) IsMember(ctx context.Context, conversationID, userID string) (bool, error) {
	var exists bool
	query := s.rebind("SELECT EXISTS(SELECT 1 FROM conversation_members WHERE conversation_id = ? AND user_id = ?)")
	err := s.db.QueryRowContext(ctx, query, conversationID, userID).Scan(&exists)
	return exists, dbError(err)
}

// SetLastMessage points the conversation preview at messageID and marks the
// conversation as recently active.
func (s *SQLStore) SetLastMessage(ctx context.Context, conversationID, messageID string) error {
	query := s.rebind("UPDATE conversations SET last_message_id = ?, updated_at = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, query, messageID, now(), conversationID)
	if err != nil {
		return dbError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return dbError(err)
	} else if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteConversation removes the conversation together with its members,
// messages and read receipts.
func (s *SQLStore) DeleteConversation(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		// Delete read receipts and messages first (foreign key constraint)
		query := s.rebind("DELETE FROM message_reads WHERE message_id IN (SELECT id FROM messages WHERE conversation_id = ?)")
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return dbError(err)
		}
		query = s.rebind("DELETE FROM messages WHERE conversation_id = ?")
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return dbError(err)
		}

		query = s.rebind("DELETE FROM conversation_members WHERE conversation_id = ?")
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			return dbError(err)
		}

		query = s.rebind("DELETE FROM conversations WHERE id = ?")
		res, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			return dbError(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return common.ErrNotFound
		}
		return nil
	})
}

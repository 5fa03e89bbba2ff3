package sqlstore

import (
	"errors"
	"regexp"
	"testing"

	"github.com/Abubakar312/chat-app-backend/internal/common"
	"github.com/Abubakar312/chat-app-backend/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewWithDB(db, DriverPostgres), mock
}

func TestGetUserByID_DriverError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("u1").
		WillReturnError(errBoom)

	_, err := s.GetUserByID(ctx, "u1")
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "db error")
	assert.NotErrorIs(t, err, common.ErrNotFound)
}

func TestCreateUser_PostgresUniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id, username, password, created_at) VALUES ($1, $2, $3, $4)")).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	err := s.CreateUser(ctx, &models.User{Username: "alice", Password: "hash"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestCreateMessage_RollsBackOnFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO messages").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO message_reads").WillReturnError(errBoom)
	mock.ExpectRollback()

	err := s.CreateMessage(ctx, &models.Message{ConversationID: "c1", SenderID: "u1", Content: "hi"})
	assert.ErrorIs(t, err, errBoom)
}

func TestAddMember_CommitFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(2))
	mock.ExpectExec("INSERT INTO conversation_members").
		WithArgs("c1", "u2", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE conversations SET updated_at").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errBoom)

	err := s.AddMember(ctx, "c1", "u2")
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "db error")
}

func TestAddMember_ExistingMemberSkipsTouch(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE").WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(2))
	mock.ExpectExec("INSERT INTO conversation_members").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	assert.NoError(t, s.AddMember(ctx, "c1", "u1"))
}

func TestSetLastMessage_NoRows(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE conversations SET last_message_id = $1, updated_at = $2 WHERE id = $3")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.SetLastMessage(ctx, "c1", "m1"), common.ErrNotFound)
}

func TestDeleteConversation_BeginFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errBoom)

	err := s.DeleteConversation(ctx, "c1")
	assert.ErrorIs(t, err, errBoom)
}

func TestDeleteMessage_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT conversation_id FROM messages").
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"conversation_id"}))
	mock.ExpectRollback()

	assert.ErrorIs(t, s.DeleteMessage(ctx, "m1"), common.ErrNotFound)
}

func TestMarkConversationRead_RollsBackOnFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT m.id FROM messages m").
		WithArgs("c1", "u2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("m1").AddRow("m2"))
	mock.ExpectExec("INSERT INTO message_reads").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE messages SET updated_at").WillReturnError(errBoom)
	mock.ExpectRollback()

	updated, err := s.MarkConversationRead(ctx, "c1", "u2")
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, updated)
}

package sqlstore

import (
	"sync"
	"testing"

	"github.com/Abubakar312/chat-app-backend/internal/common"
	"github.com/Abubakar312/chat-app-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroup(t *testing.T) {
	s := SetupTestDB(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	carol := createUser(t, s, "carol")

	members := []string{bob.ID, carol.ID, bob.ID}
	conv, err := s.CreateGroup(ctx, "team", alice.ID, members)
	require.NoError(t, err)

	assert.Equal(t, []string{bob.ID, carol.ID, bob.ID}, members, "caller slice untouched")
	assert.True(t, conv.IsGroup)
	assert.Equal(t, "team", conv.Name)
	require.NotNil(t, conv.GroupAdmin)
	assert.Equal(t, alice.ID, conv.GroupAdmin.ID)
	assert.Equal(t, "alice", conv.GroupAdmin.Username)
	assert.Equal(t, []models.Member{
		{ID: bob.ID, Username: "bob"},
		{ID: carol.ID, Username: "carol"},
		{ID: alice.ID, Username: "alice"},
	}, conv.Members)
	assert.Nil(t, conv.LastMessage)
	assert.True(t, conv.IsAdmin(alice.ID))
	assert.False(t, conv.IsAdmin(bob.ID))
}

func TestCreateGroup_UnknownMemberRollsBack(t *testing.T) {
	s := SetupTestDB(t)
	alice := createUser(t, s, "alice")

	_, err := s.CreateGroup(ctx, "team", alice.ID, []string{"ghost"})
	require.Error(t, err)

	convs, err := s.ListUserConversations(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestFindOrCreateDM(t *testing.T) {
	s := SetupTestDB(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	first, created, err := s.FindOrCreateDM(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, first.IsGroup)
	assert.Nil(t, first.GroupAdmin)
	assert.Len(t, first.Members, 2)

	second, created, err := s.FindOrCreateDM(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestFindOrCreateDM_Concurrent(t *testing.T) {
	s := SetupTestDB(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	const callers = 8
	ids := make([]string, callers)
	var created int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := alice.ID, bob.ID
			if i%2 == 1 {
				a, b = b, a
			}
			conv, c, err := s.FindOrCreateDM(ctx, a, b)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[i] = conv.ID
			if c {
				created++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	convs, err := s.ListUserConversations(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestAddMember(t *testing.T) {
	s := SetupTestDB(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	conv, err := s.CreateGroup(ctx, "team", alice.ID, []string{alice.ID})
	require.NoError(t, err)

	ok, err := s.IsMember(ctx, conv.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.AddMember(ctx, conv.ID, bob.ID))
	require.NoError(t, s.AddMember(ctx, conv.ID, bob.ID))

	ok, err = s.IsMember(ctx, conv.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Member{{ID: alice.ID, Username: "alice"}, {ID: bob.ID, Username: "bob"}}, got.Members)
	assert.False(t, got.UpdatedAt.Before(conv.UpdatedAt))
}

func TestListUserConversations(t *testing.T) {
	s := SetupTestDB(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	carol := createUser(t, s, "carol")

	dm, _, err := s.FindOrCreateDM(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	group, err := s.CreateGroup(ctx, "team", carol.ID, []string{alice.ID})
	require.NoError(t, err)
	_, _, err = s.FindOrCreateDM(ctx, bob.ID, carol.ID)
	require.NoError(t, err)

	convs, err := s.ListUserConversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, group.ID, convs[0].ID)
	assert.Equal(t, dm.ID, convs[1].ID)
	assert.Len(t, convs[0].Members, 2)
	assert.Len(t, convs[1].Members, 2)

	msg := &models.Message{ConversationID: dm.ID, SenderID: bob.ID, SenderUsername: "bob", Content: "hey"}
	require.NoError(t, s.CreateMessage(ctx, msg))
	require.NoError(t, s.SetLastMessage(ctx, dm.ID, msg.ID))

	convs, err = s.ListUserConversations(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, dm.ID, convs[0].ID)
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, msg.ID, convs[0].LastMessage.ID)
	assert.Equal(t, "hey", convs[0].LastMessage.Content)

	none, err := s.ListUserConversations(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSetLastMessage_NotFound(t *testing.T) {
	s := SetupTestDB(t)
	assert.ErrorIs(t, s.SetLastMessage(ctx, "nope", "msg"), common.ErrNotFound)
}

func TestDeleteConversation(t *testing.T) {
	s := SetupTestDB(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	conv, _, err := s.FindOrCreateDM(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	msg := &models.Message{ConversationID: conv.ID, SenderID: alice.ID, SenderUsername: "alice", Content: "hi"}
	require.NoError(t, s.CreateMessage(ctx, msg))
	require.NoError(t, s.SetLastMessage(ctx, conv.ID, msg.ID))
	_, err = s.MarkConversationRead(ctx, conv.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteConversation(ctx, conv.ID))

	_, err = s.GetConversation(ctx, conv.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = s.GetMessage(ctx, msg.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	ok, err := s.IsMember(ctx, conv.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	var reads int
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM message_reads").Scan(&reads))
	assert.Zero(t, reads)

	assert.ErrorIs(t, s.DeleteConversation(ctx, conv.ID), common.ErrNotFound)

	// the pair can start over
	_, created, err := s.FindOrCreateDM(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, created)
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Abubakar312/chat-app-backend/internal/auth"
	"github.com/Abubakar312/chat-app-backend/internal/chat"
	"github.com/Abubakar312/chat-app-backend/internal/middleware"
	"github.com/Abubakar312/chat-app-backend/internal/models"
	"github.com/Abubakar312/chat-app-backend/internal/store/sqlstore"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type event struct {
	room  string
	users []string
	name  string
	data  any
}

type fakeHub struct {
	mu     sync.Mutex
	events []event
	online []string
}

func (h *fakeHub) BroadcastToRoom(conversationID, name string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event{room: conversationID, name: name, data: data})
}

func (h *fakeHub) SendToUsers(userIDs []string, name string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event{users: userIDs, name: name, data: data})
}

func (h *fakeHub) Online() []string {
	return h.online
}

type env struct {
	store *sqlstore.SQLStore
	hub   *fakeHub
	chat  *chat.Service
	users map[string]*models.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	st, err := sqlstore.New(ctx, sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	e := &env{store: st, hub: &fakeHub{}, users: map[string]*models.User{}}
	e.chat = chat.NewService(st, e.hub)
	for _, name := range []string{"alice", "bob", "carol"} {
		hash, err := auth.HashPassword("password123")
		require.NoError(t, err)
		u := &models.User{Username: name, Password: hash}
		require.NoError(t, st.CreateUser(ctx, u))
		e.users[name] = u
	}
	return e
}

// request builds a request authenticated as userID with the given mux vars.
func request(t *testing.T, method, target, userID string, vars map[string]string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

var testTokens = auth.NewManager("test-secret", time.Hour)

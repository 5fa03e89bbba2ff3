package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsers(t *testing.T) {
	e := newEnv(t)
	h := &UserHandler{Store: e.store, Presence: e.hub}

	rr := serve(h.List, request(t, "GET", "/api/users", e.users["bob"].ID, nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	users := decodeBody[[]map[string]any](t, rr)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0]["username"])
	assert.Equal(t, "carol", users[1]["username"])
	for _, u := range users {
		assert.NotContains(t, u, "password")
	}
}

func TestOnlineUsers(t *testing.T) {
	e := newEnv(t)
	h := &UserHandler{Store: e.store, Presence: e.hub}

	rr := serve(h.Online, request(t, "GET", "/api/users/online", e.users["bob"].ID, nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	e.hub.online = []string{e.users["alice"].ID}
	rr = serve(h.Online, request(t, "GET", "/api/users/online", e.users["bob"].ID, nil, nil))
	assert.Equal(t, []string{e.users["alice"].ID}, decodeBody[[]string](t, rr))
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	h := &HealthHandler{Store: e.store}

	rr := serve(h.Check, request(t, "GET", "/healthz", "", nil, nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	require.NoError(t, e.store.Close())
	rr = serve(h.Check, request(t, "GET", "/healthz", "", nil, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

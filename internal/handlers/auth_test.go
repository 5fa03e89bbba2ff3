package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	e := newEnv(t)
	handler := &AuthHandler{Store: e.store, Tokens: testTokens}

	creds := Credentials{Username: "  testuser ", Password: "password123"}
	rr := serve(handler.Register, request(t, "POST", "/api/auth/register", "", nil, creds))

	if status := rr.Code; status != http.StatusCreated {
		t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusCreated)
	}
	resp := decodeBody[map[string]any](t, rr)
	user := resp["user"].(map[string]any)
	assert.Equal(t, "testuser", user["username"])
	assert.NotContains(t, user, "password")

	userID, err := testTokens.Verify(resp["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, user["id"], userID)

	// Test duplicate user
	rr = serve(handler.Register, request(t, "POST", "/api/auth/register", "", nil, creds))
	if status := rr.Code; status != http.StatusConflict {
		t.Errorf("handler returned wrong status code for duplicate user: got %v want %v", status, http.StatusConflict)
	}
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)
	handler := &AuthHandler{Store: e.store, Tokens: testTokens}

	tests := []struct {
		name  string
		creds Credentials
	}{
		{"short username", Credentials{Username: "ab", Password: "password123"}},
		{"blank username", Credentials{Username: "     ", Password: "password123"}},
		{"short password", Credentials{Username: "dave", Password: "12345"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(handler.Register, request(t, "POST", "/api/auth/register", "", nil, tt.creds))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}

	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewBufferString("{"))
	assert.Equal(t, http.StatusBadRequest, serve(handler.Register, req).Code)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	handler := &AuthHandler{Store: e.store, Tokens: testTokens}

	rr := serve(handler.Login, request(t, "POST", "/api/auth/login", "", nil, Credentials{
		Username: "alice",
		Password: "password123",
	}))
	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	resp := decodeBody[AuthResponse](t, rr)
	assert.Equal(t, e.users["alice"].ID, resp.User.ID)
	userID, err := testTokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, e.users["alice"].ID, userID)

	tests := []struct {
		name   string
		creds  Credentials
		status int
	}{
		{"wrong password", Credentials{Username: "alice", Password: "nope-nope"}, http.StatusUnauthorized},
		{"unknown user", Credentials{Username: "mallory", Password: "password123"}, http.StatusUnauthorized},
		{"missing fields", Credentials{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(handler.Login, request(t, "POST", "/api/auth/login", "", nil, tt.creds))
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

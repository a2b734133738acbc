package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "secret123" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"a1","refresh_token":"r1","token_type":"bearer","expires_in":3600,"refresh_token_expires_in":604800}`))
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh_token"] != "r1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid or expired refresh token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"a2","refresh_token":"r2","token_type":"bearer","expires_in":3600,"refresh_token_expires_in":604800}`))
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Successfully logged out"}`))
	})
	mux.HandleFunc("POST /user/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"User already exists"}`))
	})
	mux.HandleFunc("GET /user/whoami", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer a1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Invalid token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"username":"alice"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_Flow(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL+"/", time.Second)
	ctx := context.Background()

	pair, err := c.Login(ctx, "alice", []byte("secret123"))
	require.NoError(t, err)
	assert.Equal(t, &TokenPair{AccessToken: "a1", RefreshToken: "r1", TokenType: "bearer", ExpiresIn: 3600, RefreshTokenExpiresIn: 604800}, pair)

	name, err := c.WhoAmI(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	next, err := c.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "r2", next.RefreshToken)

	assert.NoError(t, c.Logout(ctx, next.RefreshToken))
}

func TestHTTPClient_Errors(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, time.Second)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice", []byte("nope"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid_grant", apiErr.Code)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.WhoAmI(ctx, "forged")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.EqualError(t, err, "401: Invalid token")

	_, err = c.Register(ctx, "alice", []byte("x"))
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "User already exists", apiErr.Message)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestHTTPClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).WhoAmI(context.Background(), "a1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDecodeError_PlainBody(t *testing.T) {
	err := decodeError(http.StatusBadGateway, []byte("<html>bad gateway</html>"))
	assert.EqualError(t, err, "502: Bad Gateway")
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves /orders guarded by a bearer token and /auth/refresh
type fakeAPI struct {
	mu          sync.Mutex
	validAccess string
	refreshOK   bool
	alwaysDeny  bool
	refreshes   atomic.Int32
	calls       atomic.Int32
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/auth/refresh":
		f.refreshes.Add(1)
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !f.refreshOK || body.RefreshToken != "refresh-1" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"success":false,"error":"invalid refresh token"}`))
			return
		}
		f.mu.Lock()
		f.validAccess = "access-2"
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"success":true,"tokens":{"accessToken":"access-2","refreshToken":"refresh-2"}}`))
	case "/auth/login":
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":"invalid credentials"}`))
	case "/orders":
		f.calls.Add(1)
		f.mu.Lock()
		valid := "Bearer " + f.validAccess
		f.mu.Unlock()
		if f.alwaysDeny || r.Header.Get("Authorization") != valid {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"access token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":1}]`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, api *fakeAPI, tokens Tokens) (*Client, *MemoryTokenStore) {
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save(tokens))
	session, err := Open(store)
	require.NoError(t, err)
	return New(srv.URL, session), store
}

var staleTokens = Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"}

func TestDo_RefreshesOnceAndReplays(t *testing.T) {
	api := &fakeAPI{validAccess: "access-0", refreshOK: true}
	c, store := newTestClient(t, api, staleTokens)

	var out []map[string]int
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/orders", nil, &out))
	assert.Equal(t, []map[string]int{{"id": 1}}, out)
	assert.Equal(t, int32(1), api.refreshes.Load())
	assert.Equal(t, int32(2), api.calls.Load())

	saved, _ := store.Load()
	assert.Equal(t, Tokens{AccessToken: "access-2", RefreshToken: "refresh-2"}, saved)
}

func TestDo_SecondUnauthorizedIsReturned(t *testing.T) {
	api := &fakeAPI{refreshOK: true, alwaysDeny: true}
	c, _ := newTestClient(t, api, staleTokens)

	err := c.Do(context.Background(), http.MethodGet, "/orders", nil, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "access token expired", apiErr.Message)
	assert.Equal(t, int32(1), api.refreshes.Load())
	assert.Equal(t, int32(2), api.calls.Load())
}

func TestDo_RefreshFailureEndsSession(t *testing.T) {
	api := &fakeAPI{validAccess: "access-0", refreshOK: false}
	c, store := newTestClient(t, api, staleTokens)

	err := c.Do(context.Background(), http.MethodGet, "/orders", nil, nil)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.False(t, c.Session.LoggedIn())
	saved, _ := store.Load()
	assert.Equal(t, Tokens{}, saved)
}

func TestLogin_WrongPasswordKeepsSession(t *testing.T) {
	api := &fakeAPI{validAccess: "access-1", refreshOK: false}
	c, store := newTestClient(t, api, staleTokens)

	_, err := c.Login(context.Background(), "ann@example.com", "wrong")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid credentials", apiErr.Message)
	assert.NotErrorIs(t, err, ErrSessionExpired)
	assert.Zero(t, api.refreshes.Load())

	saved, _ := store.Load()
	assert.Equal(t, staleTokens, saved)
}

func TestDo_RefreshFailureKeepsCause(t *testing.T) {
	api := &fakeAPI{validAccess: "access-0", refreshOK: false}
	c, _ := newTestClient(t, api, staleTokens)

	err := c.Do(context.Background(), http.MethodGet, "/orders", nil, nil)
	assert.ErrorIs(t, err, ErrSessionExpired)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "invalid refresh token", apiErr.Message)
}

func TestDo_NoTokenNoRefresh(t *testing.T) {
	api := &fakeAPI{validAccess: "access-0", refreshOK: true}
	c, _ := newTestClient(t, api, Tokens{})

	err := c.Do(context.Background(), http.MethodGet, "/orders", nil, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Zero(t, api.refreshes.Load())
}

func TestDo_ConcurrentRequestsShareRefresh(t *testing.T) {
	api := &fakeAPI{validAccess: "access-0", refreshOK: true}
	c, _ := newTestClient(t, api, staleTokens)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Do(context.Background(), http.MethodGet, "/orders", nil, nil)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), api.refreshes.Load())
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := FileTokenStore{Path: path}

	tokens, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Tokens{}, tokens)

	require.NoError(t, store.Save(staleTokens))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	session, err := Open(store)
	require.NoError(t, err)
	assert.Equal(t, staleTokens, session.Tokens())

	require.NoError(t, session.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Clear())
}

func TestLogout_ClearsSession(t *testing.T) {
	var gotRefresh string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotRefresh = body["refreshToken"]
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	store := &MemoryTokenStore{}
	require.NoError(t, store.Save(staleTokens))
	session, err := Open(store)
	require.NoError(t, err)
	c := New(srv.URL, session)

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, "refresh-1", gotRefresh)
	assert.False(t, session.LoggedIn())
}

package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T, tokenURL string) (*SessionManager, *MemoryStore) {
	t.Helper()
	Init(Config{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		BaseURL:      "http://bridge.example",
		TokenURL:     tokenURL,
	})
	store := NewMemoryStore()
	return NewSessionManager(store), store
}

func TestAuthURL_EncodesSessionAndNonce(t *testing.T) {
	m, store := newTestSessionManager(t, "")
	ctx := context.Background()

	rawURL, err := m.AuthURL(ctx, "sess1", "/files?page=3")
	require.NoError(t, err)

	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	require.Equal(t, "client-123", u.Query().Get("client_id"))
	require.Equal(t, "http://bridge.example"+CallbackPath, u.Query().Get("redirect_uri"))
	require.Contains(t, u.Query().Get("scope"), "youtube.readonly")

	st, err := m.ConsumeState(ctx, u.Query().Get("state"))
	require.NoError(t, err)
	require.Equal(t, "sess1", st.SessionID)
	require.Equal(t, "/files?page=3", st.ReturnTo)

	// Nonce is single-use.
	_, err = m.ConsumeState(ctx, u.Query().Get("state"))
	require.Error(t, err)

	nonce, _ := store.Get(ctx, "sess1", sessKeyAuthNonce)
	require.Empty(t, nonce)
}

func TestConsumeState_RejectsGarbageAndForgery(t *testing.T) {
	m, _ := newTestSessionManager(t, "")
	ctx := context.Background()

	_, err := m.ConsumeState(ctx, "not base64 !!!")
	require.Error(t, err)

	// Well-formed state whose nonce was never issued for the session.
	forged := `eyJzaWQiOiJzZXNzMSIsInJldCI6Ii8iLCJub25jZSI6ImZvcmdlZCJ9`
	_, err = m.ConsumeState(ctx, forged)
	require.Error(t, err)
}

func TestAuthenticate_StoresTokenOnSuccess(t *testing.T) {
	var gotForm url.Values
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-777","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	m, store := newTestSessionManager(t, tokenSrv.URL)
	ctx := context.Background()

	require.NoError(t, m.Authenticate(ctx, "sess1", "code-abc"))
	require.Equal(t, "code-abc", gotForm.Get("code"))
	require.Equal(t, "authorization_code", gotForm.Get("grant_type"))

	tok, _ := store.Get(ctx, "sess1", sessKeyAccessToken)
	require.Equal(t, "at-777", tok)
	require.True(t, m.IsAuthenticated(ctx, "sess1"))
}

func TestAuthenticate_ExchangeFailureStoresNothing(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer tokenSrv.Close()

	m, store := newTestSessionManager(t, tokenSrv.URL)
	ctx := context.Background()

	err := m.Authenticate(ctx, "sess1", "bad-code")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "exchange"))

	tok, _ := store.Get(ctx, "sess1", sessKeyAccessToken)
	require.Empty(t, tok)
	require.False(t, m.IsAuthenticated(ctx, "sess1"))
}

func TestLogout_Idempotent(t *testing.T) {
	m, store := newTestSessionManager(t, "")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sess1", sessKeyAccessToken, "at"))
	require.NoError(t, m.Logout(ctx, "sess1"))
	require.False(t, m.IsAuthenticated(ctx, "sess1"))
	require.NoError(t, m.Logout(ctx, "sess1"))
}

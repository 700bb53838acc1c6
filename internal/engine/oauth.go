package engine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CallbackPath is the fixed redirect endpoint. The provider redirects the
// browser here after consent; the registered redirect URI must match
// Cfg.BaseURL + CallbackPath.
const CallbackPath = "/oauth2/callback"

// scopeYouTubeReadonly grants read-only access to the user's video catalog.
const scopeYouTubeReadonly = "https://www.googleapis.com/auth/youtube.readonly"

// Session keys. The access token is session-global; per-stream keys are built
// by the Repository.
const (
	sessKeyAccessToken = "accesstoken"
	sessKeyAuthNonce   = "oauthnonce"
)

// AuthState is the decoded OAuth state parameter: the caller's return
// location plus an anti-forgery nonce, bound to a session.
type AuthState struct {
	SessionID string `json:"sid"`
	ReturnTo  string `json:"ret"`
	Nonce     string `json:"nonce"`
}

// SessionManager owns the authorization-code exchange and the session-bound
// access token. Its only remote call is the one-time code exchange.
type SessionManager struct {
	oauth *oauth2.Config
	store SessionStore
}

// NewSessionManager builds a SessionManager from the engine configuration.
func NewSessionManager(store SessionStore) *SessionManager {
	endpoint := google.Endpoint
	if Cfg.AuthURL != "" {
		endpoint.AuthURL = Cfg.AuthURL
	}
	if Cfg.TokenURL != "" {
		endpoint.TokenURL = Cfg.TokenURL
	}
	return &SessionManager{
		oauth: &oauth2.Config{
			ClientID:     Cfg.ClientID,
			ClientSecret: Cfg.ClientSecret,
			RedirectURL:  Cfg.BaseURL + CallbackPath,
			Scopes:       []string{scopeYouTubeReadonly},
			Endpoint:     endpoint,
		},
		store: store,
	}
}

// AuthURL builds the provider consent URL for the given session. The state
// parameter encodes the session ID, the caller's return location, and a
// fresh nonce that the callback verifies via ConsumeState.
func (m *SessionManager) AuthURL(ctx context.Context, sessionID, returnTo string) (string, error) {
	nonce := uuid.NewString()
	if err := m.store.Set(ctx, sessionID, sessKeyAuthNonce, nonce); err != nil {
		return "", fmt.Errorf("store auth nonce: %w", err)
	}
	raw, err := json.Marshal(AuthState{SessionID: sessionID, ReturnTo: returnTo, Nonce: nonce})
	if err != nil {
		return "", fmt.Errorf("encode auth state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(raw)
	return m.oauth.AuthCodeURL(state), nil
}

// ConsumeState decodes and verifies a state parameter returned by the
// provider. The nonce is single-use: it is deleted on successful match.
func (m *SessionManager) ConsumeState(ctx context.Context, state string) (*AuthState, error) {
	raw, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		return nil, fmt.Errorf("decode auth state: %w", err)
	}
	var st AuthState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("parse auth state: %w", err)
	}
	if st.SessionID == "" || st.Nonce == "" {
		return nil, errors.New("auth state missing session or nonce")
	}
	stored, err := m.store.Get(ctx, st.SessionID, sessKeyAuthNonce)
	if err != nil {
		return nil, fmt.Errorf("load auth nonce: %w", err)
	}
	if stored == "" || stored != st.Nonce {
		return nil, errors.New("auth state nonce mismatch")
	}
	if err := m.store.Delete(ctx, st.SessionID, sessKeyAuthNonce); err != nil {
		slog.Warn("auth nonce cleanup failed", slog.Any("error", err))
	}
	return &st, nil
}

// Authenticate exchanges a one-time authorization code and stores the
// resulting access token in the session. On exchange failure nothing is
// stored; the caller only logs the error, since downstream code discovers
// the missing token lazily.
func (m *SessionManager) Authenticate(ctx context.Context, sessionID, code string) error {
	IncrTokenExchanges()
	tok, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		IncrTokenExchangeErrors()
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if tok.AccessToken == "" {
		IncrTokenExchangeErrors()
		return errors.New("exchange returned empty access token")
	}
	if err := m.store.Set(ctx, sessionID, sessKeyAccessToken, tok.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	return nil
}

// AccessToken returns the stored bearer token for the session, or "".
func (m *SessionManager) AccessToken(ctx context.Context, sessionID string) string {
	tok, err := m.store.Get(ctx, sessionID, sessKeyAccessToken)
	if err != nil {
		slog.Warn("access token lookup failed", slog.Any("error", err))
		return ""
	}
	return tok
}

// IsAuthenticated reports whether a non-empty access token is present.
func (m *SessionManager) IsAuthenticated(ctx context.Context, sessionID string) bool {
	return m.AccessToken(ctx, sessionID) != ""
}

// Logout clears the session's access token. Idempotent.
func (m *SessionManager) Logout(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID, sessKeyAccessToken)
}

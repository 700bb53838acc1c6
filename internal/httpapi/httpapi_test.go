package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mytubelab/mytube/internal/engine"
)

type stubCatalog struct {
	uploads *engine.UploadsPage
	search  *engine.SearchPage
	err     error
}

func (s *stubCatalog) ListUploads(context.Context, string, string, int) (*engine.UploadsPage, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.uploads == nil {
		return &engine.UploadsPage{}, nil
	}
	return s.uploads, nil
}

func (s *stubCatalog) SearchMine(context.Context, string, string, string, int, string) (*engine.SearchPage, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.search == nil {
		return &engine.SearchPage{}, nil
	}
	return s.search, nil
}

// newTestServer wires the router around a stub catalog and a token endpoint
// that always succeeds, so tests can run the real callback flow.
func newTestServer(t *testing.T, catalog engine.CatalogClient) (*httptest.Server, *engine.Repository) {
	t.Helper()

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer"}`))
	}))
	t.Cleanup(tokenSrv.Close)

	engine.Init(engine.Config{
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		BaseURL:      "http://bridge.example",
		TokenURL:     tokenSrv.URL,
	})
	store := engine.NewMemoryStore()
	auth := engine.NewSessionManager(store)
	repo := engine.NewRepository("tube", engine.RepoConfig{
		PageSize:                   27,
		SupportsTotalCount:         true,
		SupportsSortAndCursorReuse: true,
	}, store, auth, catalog)

	srv := httptest.NewServer(NewRouter(repo))
	t.Cleanup(srv.Close)
	return srv, repo
}

// authenticateSession runs login-URL issuance plus the provider callback, the
// same path a browser would take.
func authenticateSession(t *testing.T, srv *httptest.Server, repo *engine.Repository, sessionID string) {
	t.Helper()
	loginURL, err := repo.Auth().AuthURL(context.Background(), sessionID, "/done")
	require.NoError(t, err)
	u, err := url.Parse(loginURL)
	require.NoError(t, err)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + engine.CallbackPath + "?code=c1&state=" + url.QueryEscape(u.Query().Get("state")))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/done", resp.Header.Get("Location"))
}

func get(t *testing.T, srv *httptest.Server, path, sessionID string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestListing_Authenticated(t *testing.T) {
	srv, repo := newTestServer(t, &stubCatalog{uploads: &engine.UploadsPage{
		Items: []engine.CatalogItem{{
			VideoID:   "v1",
			Title:     "Clip",
			Thumbnail: engine.Thumbnail{URL: "http://t/1.jpg", Width: 120, Height: 90},
		}},
		Total:     1,
		ChannelID: "chan9",
	}})
	authenticateSession(t, srv, repo, "sess1")

	resp := get(t, srv, "/repo/tube/listing?page=1", "sess1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page engine.PageResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Equal(t, 1, page.Page)
	require.Len(t, page.List, 1)
	require.Equal(t, "Clip.mp4", page.List[0].Title)
	require.Equal(t, "https://www.youtube.com/channel/chan9", page.Manage)
	require.False(t, page.HasMore)
}

func TestListing_StaleSessionIs204(t *testing.T) {
	srv, _ := newTestServer(t, &stubCatalog{})
	resp := get(t, srv, "/repo/tube/listing", "sess-unknown")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestListing_MissingSessionHeaderIs400(t *testing.T) {
	srv, _ := newTestServer(t, &stubCatalog{})
	resp := get(t, srv, "/repo/tube/listing", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListing_UnknownRepoIs404(t *testing.T) {
	srv, _ := newTestServer(t, &stubCatalog{})
	resp := get(t, srv, "/repo/other/listing", "sess1")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListing_ProviderErrorIs502(t *testing.T) {
	srv, repo := newTestServer(t, &stubCatalog{err: &engine.ProviderError{Code: 403, Message: "Daily Limit Exceeded"}})
	authenticateSession(t, srv, repo, "sess1")

	resp := get(t, srv, "/repo/tube/listing", "sess1")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "Daily Limit Exceeded", body["error"])
}

func TestSearch_SetsSearchFlag(t *testing.T) {
	srv, repo := newTestServer(t, &stubCatalog{search: &engine.SearchPage{
		Items: []engine.CatalogItem{{VideoID: "v1", Title: "Hit"}},
	}})
	authenticateSession(t, srv, repo, "sess1")

	resp := get(t, srv, "/repo/tube/search?q=cats", "sess1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page engine.PageResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.True(t, page.SearchResults)
	require.Len(t, page.List, 1)
}

func TestLogin_ReturnsConsentURL(t *testing.T) {
	srv, _ := newTestServer(t, &stubCatalog{})
	resp := get(t, srv, "/repo/tube/login?return=/files", "sess1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body["login_url"])

	u, err := url.Parse(body["login_url"])
	require.NoError(t, err)
	require.Equal(t, "client-123", u.Query().Get("client_id"))
}

func TestCallback_MissingParamsIs400(t *testing.T) {
	srv, _ := newTestServer(t, &stubCatalog{})
	resp := get(t, srv, engine.CallbackPath+"?code=c1", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCallback_BadStateIs400(t *testing.T) {
	srv, _ := newTestServer(t, &stubCatalog{})
	resp := get(t, srv, engine.CallbackPath+"?code=c1&state=bogus", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogout_Is204(t *testing.T) {
	srv, repo := newTestServer(t, &stubCatalog{})
	authenticateSession(t, srv, repo, "sess1")

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/repo/tube/logout", nil)
	require.NoError(t, err)
	req.Header.Set("X-Session-ID", "sess1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.False(t, repo.Auth().IsAuthenticated(context.Background(), "sess1"))
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, &stubCatalog{})

	resp := get(t, srv, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, srv, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
}

func TestCapabilities(t *testing.T) {
	srv, _ := newTestServer(t, &stubCatalog{})
	resp := get(t, srv, "/repo/tube/capabilities", "sess1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var caps engine.Capabilities
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&caps))
	require.Equal(t, []string{"video"}, caps.ContentKinds)
	require.True(t, caps.ContainsPrivateData)
}

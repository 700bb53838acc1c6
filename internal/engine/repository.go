package engine

import (
	"context"
	"log/slog"
)

// Stream kinds. Each keeps independent pagination state in the session.
const (
	streamUploads = "uploads"
	streamSearch  = "search"
)

const (
	videoExt      = ".mp4"
	watchURLBase  = "https://www.youtube.com/watch?v="
	playerURLBase = "https://www.youtube.com/v/"
	manageURLBase = "https://www.youtube.com/channel/"
)

// RepoConfig selects between the two historical deployment variants without
// duplicating the orchestration logic.
type RepoConfig struct {
	// PageSize is the number of records per page (provider ceiling 50).
	PageSize int
	// SupportsTotalCount exposes the provider total in listing results.
	SupportsTotalCount bool
	// SupportsSortAndCursorReuse enables search-mode continuation tokens and
	// the cached keyword/sort "continue last search" affordance. When false,
	// every search call starts a fresh result set sorted by relevance.
	SupportsSortAndCursorReuse bool
}

// Repository translates the host's page-numbered listing and search requests
// into continuation-token calls against the remote catalog. It holds no
// per-request state of its own; everything lives in the session store.
type Repository struct {
	ID      string
	cfg     RepoConfig
	store   SessionStore
	auth    *SessionManager
	catalog CatalogClient
}

// NewRepository wires an orchestrator for one repository instance.
func NewRepository(id string, rc RepoConfig, store SessionStore, auth *SessionManager, catalog CatalogClient) *Repository {
	if rc.PageSize <= 0 {
		rc.PageSize = DefaultPageSize
	}
	if rc.PageSize > MaxPageSize {
		rc.PageSize = MaxPageSize
	}
	return &Repository{ID: id, cfg: rc, store: store, auth: auth, catalog: catalog}
}

// NormPage coerces a caller-supplied page number to a valid page (≥1).
func NormPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Session keys for per-stream state, scoped by repository instance.
func (r *Repository) pageTokenKey(stream string) string {
	return "repo." + r.ID + "." + stream + ".pagetoken"
}

func (r *Repository) keywordKey() string {
	return "repo." + r.ID + "." + streamSearch + ".keyword"
}

func (r *Repository) sortKey() string {
	return "repo." + r.ID + "." + streamSearch + ".sort"
}

// Auth returns the session manager, for surfaces that need login URLs.
func (r *Repository) Auth() *SessionManager {
	return r.auth
}

// PageSize returns the configured page size.
func (r *Repository) PageSize() int {
	return r.cfg.PageSize
}

// Capabilities declares what this repository supports to the host. Listings
// are private per user and must never be cached or shared across sessions.
func (r *Repository) Capabilities() Capabilities {
	return Capabilities{
		ContentKinds:         []string{"video"},
		ReturnTypes:          []string{"external"},
		ContainsPrivateData:  true,
		SupportsGlobalSearch: false,
	}
}

// GetListing returns page `page` of the user's uploads. A nil result with a
// nil error means the session is stale: the token was missing or rejected,
// the session has been logged out, and the host should show the login
// affordance. Provider API failures surface as *ProviderError.
func (r *Repository) GetListing(ctx context.Context, sessionID, path string, page int) (*PageResult, error) {
	IncrListingRequests()

	p := NormPage(page)
	start := (p-1)*r.cfg.PageSize + 1

	token := r.auth.AccessToken(ctx, sessionID)
	if token == "" {
		r.logoutStale(ctx, sessionID, "no access token")
		return nil, nil
	}

	// The provider paginates by opaque forward cursor, not page number. The
	// stored cursor is only meaningful past the first page; a first-page
	// request always starts fresh.
	pageToken := ""
	if start > 1 {
		pageToken, _ = r.store.Get(ctx, sessionID, r.pageTokenKey(streamUploads))
	}

	uploads, err := r.catalog.ListUploads(ctx, token, pageToken, r.cfg.PageSize)
	if err != nil {
		if IsAuthError(err) {
			r.logoutStale(ctx, sessionID, err.Error())
			return nil, nil
		}
		return nil, err
	}

	// The cursor is strictly forward-moving: overwrite on every successful
	// call, even with an empty value.
	if err := r.store.Set(ctx, sessionID, r.pageTokenKey(streamUploads), uploads.NextPageToken); err != nil {
		slog.Warn("page token store failed", slog.String("repo", r.ID), slog.Any("error", err))
	}

	res := &PageResult{
		Page: p,
		List: make([]ListingRecord, 0, len(uploads.Items)),
		Path: []PathEntry{{Name: "Uploads", Path: "/"}},
	}
	for _, it := range uploads.Items {
		res.List = append(res.List, normalizeItem(it, watchURLBase))
	}
	if r.cfg.SupportsTotalCount {
		res.Total = uploads.Total
	}
	if uploads.ChannelID != "" {
		res.Manage = manageURLBase + uploads.ChannelID
	}
	// A short page is declared the last page regardless of the provider's
	// own total or next token. Callers depend on this exact rule.
	res.HasMore = len(res.List) == r.cfg.PageSize
	return res, nil
}

// Search returns page `page` of results for keyword over the user's own
// videos. A page>1 request with an empty keyword continues the last search
// using the cached keyword and sort; an explicit keyword always overwrites
// the cache. Same stale-session contract as GetListing.
func (r *Repository) Search(ctx context.Context, sessionID, keyword, sort string, page int) (*PageResult, error) {
	IncrSearchRequests()

	p := NormPage(page)
	start := (p-1)*r.cfg.PageSize + 1

	if r.cfg.SupportsSortAndCursorReuse {
		if p > 1 && keyword == "" {
			keyword, _ = r.store.Get(ctx, sessionID, r.keywordKey())
		}
		if p > 1 && sort == "" {
			sort, _ = r.store.Get(ctx, sessionID, r.sortKey())
		}
	} else {
		// This variant always fetches a fresh relevance-ordered result set;
		// a caller-supplied sort is ignored.
		sort = ""
	}
	if sort == "" {
		sort = "relevance"
	}
	if r.cfg.SupportsSortAndCursorReuse {
		if err := r.store.Set(ctx, sessionID, r.keywordKey(), keyword); err != nil {
			slog.Warn("keyword store failed", slog.String("repo", r.ID), slog.Any("error", err))
		}
		if err := r.store.Set(ctx, sessionID, r.sortKey(), sort); err != nil {
			slog.Warn("sort store failed", slog.String("repo", r.ID), slog.Any("error", err))
		}
	}

	token := r.auth.AccessToken(ctx, sessionID)
	if token == "" {
		r.logoutStale(ctx, sessionID, "no access token")
		return nil, nil
	}

	pageToken := ""
	if r.cfg.SupportsSortAndCursorReuse && start > 1 {
		pageToken, _ = r.store.Get(ctx, sessionID, r.pageTokenKey(streamSearch))
	}

	results, err := r.catalog.SearchMine(ctx, token, keyword, pageToken, r.cfg.PageSize, sort)
	if err != nil {
		if IsAuthError(err) {
			r.logoutStale(ctx, sessionID, err.Error())
			return nil, nil
		}
		return nil, err
	}

	if r.cfg.SupportsSortAndCursorReuse {
		if err := r.store.Set(ctx, sessionID, r.pageTokenKey(streamSearch), results.NextPageToken); err != nil {
			slog.Warn("page token store failed", slog.String("repo", r.ID), slog.Any("error", err))
		}
	}

	res := &PageResult{
		Page:          p,
		List:          make([]ListingRecord, 0, len(results.Items)),
		SearchResults: true,
	}
	for _, it := range results.Items {
		res.List = append(res.List, normalizeItem(it, playerURLBase))
	}
	res.HasMore = len(res.List) == r.cfg.PageSize
	return res, nil
}

// logoutStale clears the session and records the auth failure. This is the
// canonical "session has gone stale" signal: the user simply re-authenticates
// on their next interaction.
func (r *Repository) logoutStale(ctx context.Context, sessionID, reason string) {
	IncrAuthFailures()
	if err := r.auth.Logout(ctx, sessionID); err != nil {
		slog.Warn("logout failed", slog.String("repo", r.ID), slog.Any("error", err))
	}
	slog.Info("session stale, logged out", slog.String("repo", r.ID), slog.String("reason", reason))
}

// normalizeItem maps one raw catalog item to the host-facing record. The
// ".mp4" suffix exists solely so the host's extension-based file filtering
// accepts the entry; the source deep link embeds both video id and title.
func normalizeItem(it CatalogItem, sourceBase string) ListingRecord {
	return ListingRecord{
		ShortTitle:      it.Title,
		ThumbnailTitle:  it.Description,
		Title:           it.Title + videoExt,
		Thumbnail:       it.Thumbnail.URL,
		ThumbnailWidth:  it.Thumbnail.Width,
		ThumbnailHeight: it.Thumbnail.Height,
		Size:            "",
		Date:            "",
		Source:          sourceBase + it.VideoID + "#" + it.Title,
	}
}

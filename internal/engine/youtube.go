package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

// YouTube Data API v3 over plain REST. Two operations: list the authenticated
// user's uploads (channels.list → playlistItems.list) and search the user's
// own videos (search.list with forMine).

const ytAPIBase = "https://www.googleapis.com/youtube/v3"

const (
	// MaxPageSize is the provider ceiling on maxResults.
	MaxPageSize = 50
	// DefaultPageSize is the page size used when none is configured.
	DefaultPageSize = 29
)

// --- wire types ---

type ytThumbnails struct {
	Default Thumbnail `json:"default"`
}

type ytSnippet struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Thumbnails  ytThumbnails `json:"thumbnails"`
	ResourceID  struct {
		VideoID string `json:"videoId"`
	} `json:"resourceId"`
}

type ytChannelsResp struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			RelatedPlaylists struct {
				Uploads string `json:"uploads"`
			} `json:"relatedPlaylists"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type ytPlaylistItemsResp struct {
	Items []struct {
		Snippet ytSnippet `json:"snippet"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
	PageInfo      struct {
		TotalResults int `json:"totalResults"`
	} `json:"pageInfo"`
}

type ytSearchResp struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet ytSnippet `json:"snippet"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

// ytErrorResp is the provider's structured error payload. Only the first
// entry's message may travel upward; the outer message and diagnostic fields
// echo the registered client credentials.
type ytErrorResp struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
			Reason  string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// CatalogClient is the remote video catalog abstraction consumed by the
// Repository. Implementations must classify provider failures into
// *AuthError and *ProviderError.
type CatalogClient interface {
	ListUploads(ctx context.Context, token, pageToken string, max int) (*UploadsPage, error)
	SearchMine(ctx context.Context, token, keyword, pageToken string, max int, order string) (*SearchPage, error)
}

// YouTubeClient talks to the YouTube Data API v3.
type YouTubeClient struct {
	base    string
	httpc   *http.Client
	limiter *rate.Limiter
}

// NewYouTubeClient creates a client from the engine configuration.
func NewYouTubeClient() *YouTubeClient {
	base := Cfg.APIBaseURL
	if base == "" {
		base = ytAPIBase
	}
	var limiter *rate.Limiter
	if Cfg.RateLimit > 0 {
		burst := Cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(Cfg.RateLimit), burst)
	}
	return &YouTubeClient{base: base, httpc: Cfg.HTTPClient, limiter: limiter}
}

// apiGet performs one authenticated GET against the Data API and decodes the
// response into out. Non-200 responses are classified via classifyError.
// No retries: a failed call surfaces immediately.
func (c *YouTubeClient) apiGet(ctx context.Context, token, resource string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/"+resource+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", resource, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("youtube %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode youtube %s response: %w", resource, err)
	}
	return nil
}

// classifyError turns a non-200 provider response into *AuthError or a
// sanitized *ProviderError.
func classifyError(resp *http.Response) error {
	var payload ytErrorResp
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	code := payload.Error.Code
	if code == 0 {
		code = resp.StatusCode
	}
	reason := ""
	if len(payload.Error.Errors) > 0 {
		reason = payload.Error.Errors[0].Reason
	}

	if code == http.StatusUnauthorized || (code == http.StatusForbidden && isAuthReason(reason)) {
		return &AuthError{Code: code, Reason: reason}
	}

	msg := ""
	if len(payload.Error.Errors) > 0 {
		msg = payload.Error.Errors[0].Message
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	IncrProviderErrors()
	return &ProviderError{Code: code, Message: msg}
}

// isAuthReason reports whether a 403 reason signals a credential problem
// rather than an API failure such as quotaExceeded.
func isAuthReason(reason string) bool {
	switch reason {
	case "authError", "expired", "required", "forbidden":
		return true
	}
	return false
}

// resolveUploads finds the authenticated user's channel and its canonical
// uploads playlist. Resolutions are cached for a short TTL keyed by a hash
// of the token.
func (c *YouTubeClient) resolveUploads(ctx context.Context, token string) (channelID, uploadsID string, err error) {
	cacheKey := CacheKey("uploads-channel", token)
	if v, ok := CacheGet(cacheKey); ok {
		channelID, uploadsID, _ = strings.Cut(v, "|")
		return channelID, uploadsID, nil
	}

	IncrChannelLookups()
	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("mine", "true")
	var chans ytChannelsResp
	if err := c.apiGet(ctx, token, "channels", params, &chans); err != nil {
		return "", "", err
	}
	if len(chans.Items) == 0 {
		return "", "", nil
	}

	ch := chans.Items[0]
	CacheSet(cacheKey, ch.ID+"|"+ch.ContentDetails.RelatedPlaylists.Uploads)
	return ch.ID, ch.ContentDetails.RelatedPlaylists.Uploads, nil
}

// ListUploads returns one page of the user's uploads stream. An empty
// pageToken starts from the first page. A user without a channel yields an
// empty page, not an error.
func (c *YouTubeClient) ListUploads(ctx context.Context, token, pageToken string, max int) (*UploadsPage, error) {
	channelID, uploadsID, err := c.resolveUploads(ctx, token)
	if err != nil {
		return nil, err
	}
	if uploadsID == "" {
		return &UploadsPage{}, nil
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("playlistId", uploadsID)
	params.Set("maxResults", strconv.Itoa(clampPageSize(max)))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
	var items ytPlaylistItemsResp
	if err := c.apiGet(ctx, token, "playlistItems", params, &items); err != nil {
		return nil, err
	}

	page := &UploadsPage{
		Items:         make([]CatalogItem, 0, len(items.Items)),
		NextPageToken: items.NextPageToken,
		Total:         items.PageInfo.TotalResults,
		ChannelID:     channelID,
	}
	for _, it := range items.Items {
		page.Items = append(page.Items, CatalogItem{
			VideoID:     it.Snippet.ResourceID.VideoID,
			Title:       it.Snippet.Title,
			Description: it.Snippet.Description,
			Thumbnail:   it.Snippet.Thumbnails.Default,
		})
	}
	return page, nil
}

// SearchMine searches the authenticated user's own videos for keyword,
// restricted to video-type results in the given order.
func (c *YouTubeClient) SearchMine(ctx context.Context, token, keyword, pageToken string, max int, order string) (*SearchPage, error) {
	if order == "" {
		order = "relevance"
	}
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", keyword)
	params.Set("type", "video")
	params.Set("forMine", "true")
	params.Set("order", order)
	params.Set("maxResults", strconv.Itoa(clampPageSize(max)))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
	var results ytSearchResp
	if err := c.apiGet(ctx, token, "search", params, &results); err != nil {
		return nil, err
	}

	page := &SearchPage{
		Items:         make([]CatalogItem, 0, len(results.Items)),
		NextPageToken: results.NextPageToken,
	}
	for _, it := range results.Items {
		if it.ID.VideoID == "" {
			continue
		}
		page.Items = append(page.Items, CatalogItem{
			VideoID:     it.ID.VideoID,
			Title:       it.Snippet.Title,
			Description: it.Snippet.Description,
			Thumbnail:   it.Snippet.Thumbnails.Default,
		})
	}
	return page, nil
}

// clampPageSize bounds maxResults to the provider ceiling.
func clampPageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

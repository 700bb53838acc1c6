package engine

// --- Raw provider shapes ---

// Thumbnail is the provider's "default" thumbnail variant for a video.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// CatalogItem is one raw video entry as returned by the remote catalog.
// It exists only within one response-processing pass.
type CatalogItem struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Thumbnail   Thumbnail `json:"thumbnail"`
}

// UploadsPage is one page of the authenticated user's uploads stream.
type UploadsPage struct {
	Items         []CatalogItem
	NextPageToken string
	Total         int
	ChannelID     string
}

// SearchPage is one page of search results over the user's own videos.
type SearchPage struct {
	Items         []CatalogItem
	NextPageToken string
}

// --- Host-facing shapes ---

// ListingRecord is the normalized representation of one video handed to the
// host for rendering. Field names are part of the wire contract: the host
// filters files by the ".mp4" suffix on Title.
type ListingRecord struct {
	ShortTitle      string `json:"shorttitle"`
	ThumbnailTitle  string `json:"thumbnail_title"`
	Title           string `json:"title"`
	Thumbnail       string `json:"thumbnail"`
	ThumbnailWidth  int    `json:"thumbnail_width"`
	ThumbnailHeight int    `json:"thumbnail_height"`
	Size            string `json:"size"`
	Date            string `json:"date"`
	Source          string `json:"source"`
}

// PathEntry is one breadcrumb segment in a listing response.
type PathEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// PageResult is the structured answer to one listing or search request.
// A nil PageResult (with nil error) means the session is not authenticated
// and the caller should present the login affordance.
type PageResult struct {
	Page          int             `json:"page"`
	List          []ListingRecord `json:"list"`
	Total         int             `json:"total,omitempty"`
	HasMore       bool            `json:"has_more"`
	Manage        string          `json:"manage,omitempty"`
	Path          []PathEntry     `json:"path,omitempty"`
	SearchResults bool            `json:"issearchresult,omitempty"`
}

// Capabilities describes what this repository supports, exposed statically
// to the host.
type Capabilities struct {
	ContentKinds         []string `json:"content_kinds"`
	ReturnTypes          []string `json:"return_types"`
	ContainsPrivateData  bool     `json:"contains_private_data"`
	SupportsGlobalSearch bool     `json:"supports_global_search"`
}

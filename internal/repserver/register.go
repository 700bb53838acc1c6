// Package repserver exposes the video repository as MCP tools so that MCP
// hosts can browse and search a user's personal catalog. Session identity is
// passed per call; the host owns session lifecycle.
package repserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mytubelab/mytube/internal/engine"
)

// RegisterTools registers all repository tools on the given MCP server:
// video_listing, video_search, auth_status, auth_logout, repo_capabilities.
func RegisterTools(server *mcp.Server, repo *engine.Repository) {
	registerVideoListing(server, repo)
	registerVideoSearch(server, repo)
	registerAuthStatus(server, repo)
	registerAuthLogout(server, repo)
	registerCapabilities(server, repo)
}

// PageOutput wraps a PageResult for tool callers. A stale session comes back
// as login_required plus a consent URL instead of an error, mirroring the
// engine's nil-result contract.
type PageOutput struct {
	LoginRequired bool               `json:"login_required,omitempty"`
	LoginURL      string             `json:"login_url,omitempty"`
	Result        *engine.PageResult `json:"result,omitempty"`
}

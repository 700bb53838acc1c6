package repserver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mytubelab/mytube/internal/engine"
)

// ListingInput is the input for video_listing.
type ListingInput struct {
	SessionID string `json:"session_id" jsonschema:"Host session identifier"`
	Path      string `json:"path,omitempty" jsonschema:"Listing path (only / is meaningful)"`
	Page      int    `json:"page,omitempty" jsonschema:"Page number, 1-based (default 1)"`
	ReturnTo  string `json:"return_to,omitempty" jsonschema:"Location to resume after login, embedded in the consent URL"`
}

func registerVideoListing(server *mcp.Server, repo *engine.Repository) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_listing",
		Description: "Browse the authenticated user's uploaded videos, one page at a time. Returns normalized records with thumbnails and external watch URLs. When the session is not authenticated the response carries login_required and a consent URL instead of results.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ListingInput) (*mcp.CallToolResult, PageOutput, error) {
		if input.SessionID == "" {
			return nil, PageOutput{}, errors.New("session_id is required")
		}
		result, err := repo.GetListing(ctx, input.SessionID, input.Path, input.Page)
		if err != nil {
			return nil, PageOutput{}, err
		}
		if result == nil {
			return nil, loginOutput(ctx, repo, input.SessionID, input.ReturnTo), nil
		}
		return nil, PageOutput{Result: result}, nil
	})
}

// loginOutput builds the login_required response for a stale session.
func loginOutput(ctx context.Context, repo *engine.Repository, sessionID, returnTo string) PageOutput {
	url, err := repo.Auth().AuthURL(ctx, sessionID, returnTo)
	if err != nil {
		slog.Warn("auth URL build failed", slog.Any("error", err))
	}
	return PageOutput{LoginRequired: true, LoginURL: url}
}

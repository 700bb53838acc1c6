package repserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mytubelab/mytube/internal/engine"
)

// SearchInput is the input for video_search.
type SearchInput struct {
	SessionID string `json:"session_id" jsonschema:"Host session identifier"`
	Keyword   string `json:"keyword,omitempty" jsonschema:"Search keyword; empty on page>1 continues the last search"`
	Sort      string `json:"sort,omitempty" jsonschema:"Sort order: relevance (default), date, rating, title, viewCount"`
	Page      int    `json:"page,omitempty" jsonschema:"Page number, 1-based (default 1)"`
	ReturnTo  string `json:"return_to,omitempty" jsonschema:"Location to resume after login, embedded in the consent URL"`
}

func registerVideoSearch(server *mcp.Server, repo *engine.Repository) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_search",
		Description: "Search the authenticated user's own videos by keyword. Paginated like video_listing; a page>1 call with an empty keyword reuses the previous search's keyword and sort order.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, PageOutput, error) {
		if input.SessionID == "" {
			return nil, PageOutput{}, errors.New("session_id is required")
		}
		result, err := repo.Search(ctx, input.SessionID, input.Keyword, input.Sort, input.Page)
		if err != nil {
			return nil, PageOutput{}, err
		}
		if result == nil {
			return nil, loginOutput(ctx, repo, input.SessionID, input.ReturnTo), nil
		}
		return nil, PageOutput{Result: result}, nil
	})
}

package repserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mytubelab/mytube/internal/engine"
)

// AuthInput identifies the session for auth_status and auth_logout.
type AuthInput struct {
	SessionID string `json:"session_id" jsonschema:"Host session identifier"`
	ReturnTo  string `json:"return_to,omitempty" jsonschema:"Location to resume after login (auth_status only)"`
}

// AuthStatusOutput reports the session's authentication state.
type AuthStatusOutput struct {
	Authenticated bool   `json:"authenticated"`
	LoginURL      string `json:"login_url,omitempty"`
}

// LogoutOutput confirms a logout.
type LogoutOutput struct {
	LoggedOut bool `json:"logged_out"`
}

func registerAuthStatus(server *mcp.Server, repo *engine.Repository) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "auth_status",
		Description: "Report whether the session holds a provider access token. When it does not, the response includes the OAuth consent URL to send the user to.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input AuthInput) (*mcp.CallToolResult, AuthStatusOutput, error) {
		if input.SessionID == "" {
			return nil, AuthStatusOutput{}, errors.New("session_id is required")
		}
		if repo.Auth().IsAuthenticated(ctx, input.SessionID) {
			return nil, AuthStatusOutput{Authenticated: true}, nil
		}
		url, err := repo.Auth().AuthURL(ctx, input.SessionID, input.ReturnTo)
		if err != nil {
			return nil, AuthStatusOutput{}, err
		}
		return nil, AuthStatusOutput{LoginURL: url}, nil
	})
}

func registerAuthLogout(server *mcp.Server, repo *engine.Repository) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "auth_logout",
		Description: "Clear the session's provider access token. Idempotent.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input AuthInput) (*mcp.CallToolResult, LogoutOutput, error) {
		if input.SessionID == "" {
			return nil, LogoutOutput{}, errors.New("session_id is required")
		}
		if err := repo.Auth().Logout(ctx, input.SessionID); err != nil {
			return nil, LogoutOutput{}, err
		}
		return nil, LogoutOutput{LoggedOut: true}, nil
	})
}

func registerCapabilities(server *mcp.Server, repo *engine.Repository) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "repo_capabilities",
		Description: "Describe what this repository supports: content kinds, return types, privacy of listings, and whether global search is available.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, engine.Capabilities, error) {
		return nil, repo.Capabilities(), nil
	})
}

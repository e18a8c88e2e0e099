// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only inkwell tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/inkwell/internal/comments"
	"github.com/starford/inkwell/internal/engagement"
	"github.com/starford/inkwell/internal/feed"
	"github.com/starford/inkwell/internal/related"
	"github.com/starford/inkwell/internal/social"
)

// Services are the read paths the tools call.
type Services struct {
	Feed       *feed.Composer
	Related    *related.Recommender
	Comments   *comments.Service
	Engagement *engagement.Service
	Social     *social.Service
}

// Server wraps the MCP server with inkwell tools.
type Server struct {
	mcp *server.MCPServer
	svc Services
}

// New creates a new MCP server with all tools registered.
func New(svc Services, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"inkwell",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("compose_feed",
		mcp.WithDescription("Compose one page of the post feed. In following mode only posts by accounts the viewer follows are included."),
		mcp.WithString("viewer_id", mcp.Description("Account id of the viewer (required for following mode)")),
		mcp.WithString("mode", mcp.Enum(string(feed.ModeAll), string(feed.ModeFollowing)), mcp.Description("Feed mode, default all")),
		mcp.WithString("sort", mcp.Enum(string(feed.SortNewest), string(feed.SortPopular)), mcp.Description("Sort order, default newest")),
		mcp.WithNumber("page", mcp.Description("Page number, 1-based")),
		mcp.WithNumber("page_size", mcp.Description("Posts per page")),
	), s.composeFeed)

	s.mcp.AddTool(mcp.NewTool("related_posts",
		mcp.WithDescription("Recommend posts related to a post: same category first, then the most viewed posts."),
		mcp.WithString("post_id", mcp.Required(), mcp.Description("Id of the source post")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of posts")),
	), s.relatedPosts)

	s.mcp.AddTool(mcp.NewTool("list_thread",
		mcp.WithDescription("List the comment thread of a post: top-level comments newest first, each with its replies oldest first."),
		mcp.WithString("post_id", mcp.Required(), mcp.Description("Id of the post")),
		mcp.WithNumber("page", mcp.Description("Page number, 1-based")),
		mcp.WithNumber("page_size", mcp.Description("Top-level comments per page")),
	), s.listThread)

	s.mcp.AddTool(mcp.NewTool("post_stats",
		mcp.WithDescription("Like and view counters of a post."),
		mcp.WithString("post_id", mcp.Required(), mcp.Description("Id of the post")),
		mcp.WithString("viewer_id", mcp.Description("Optional account id; adds whether it likes the post")),
	), s.postStats)

	s.mcp.AddTool(mcp.NewTool("is_following",
		mcp.WithDescription("Whether one account follows another."),
		mcp.WithString("follower_id", mcp.Required(), mcp.Description("Account that may follow")),
		mcp.WithString("following_id", mcp.Required(), mcp.Description("Account that may be followed")),
	), s.isFollowing)

	s.mcp.AddResource(
		mcp.NewResource(contentFormatURI, "Post File Format",
			mcp.WithResourceDescription("Frontmatter fields and reference files understood by the content importer."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContentFormat,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// jsonResult renders v as an indented JSON text result. Service errors are
// reported as tool errors so the client sees the caller-safe message.
func jsonResult(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) composeFeed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Feed.ComposeFeed(ctx, feed.Request{
		ViewerID: req.GetString("viewer_id", ""),
		Mode:     feed.Mode(req.GetString("mode", "")),
		Sort:     feed.Sort(req.GetString("sort", "")),
		Page:     req.GetInt("page", 1),
		PageSize: req.GetInt("page_size", 0),
	}))
}

func (s *Server) relatedPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postID, err := req.RequireString("post_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Related.RelatedPosts(ctx, postID, req.GetInt("limit", 0)))
}

func (s *Server) listThread(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postID, err := req.RequireString("post_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Comments.ListThread(ctx, postID, req.GetInt("page", 1), req.GetInt("page_size", 0)))
}

type postStats struct {
	PostID        string `json:"post_id"`
	LikeCount     int64  `json:"like_count"`
	ViewCount     int64  `json:"view_count"`
	LikedByViewer *bool  `json:"liked_by_viewer,omitempty"`
}

func (s *Server) postStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	postID, err := req.RequireString("post_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	likes, err := s.svc.Engagement.LikeCount(ctx, postID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	views, err := s.svc.Engagement.ViewCount(ctx, postID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := postStats{PostID: postID, LikeCount: likes, ViewCount: views}
	if viewer := req.GetString("viewer_id", ""); viewer != "" {
		liked, err := s.svc.Engagement.IsLiked(ctx, viewer, postID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out.LikedByViewer = &liked
	}
	return jsonResult(out, nil)
}

func (s *Server) isFollowing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	follower, err := req.RequireString("follower_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	following, err := req.RequireString("following_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ok, err := s.svc.Social.IsFollowing(ctx, follower, following)
	return jsonResult(map[string]bool{"following": ok}, err)
}

func (s *Server) readContentFormat(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contentFormatURI,
			MIMEType: "text/markdown",
			Text:     ContentFormat,
		},
	}, nil
}

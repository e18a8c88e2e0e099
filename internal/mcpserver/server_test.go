package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/inkwell/internal/comments"
	"github.com/starford/inkwell/internal/engagement"
	"github.com/starford/inkwell/internal/feed"
	"github.com/starford/inkwell/internal/hydrate"
	"github.com/starford/inkwell/internal/related"
	"github.com/starford/inkwell/internal/social"
	"github.com/starford/inkwell/internal/store"
	"github.com/starford/inkwell/internal/testutil"
)

func testServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	db := testutil.TestDB(t)
	testutil.Account(t, db, "alice")
	testutil.Account(t, db, "bob")
	testutil.Category(t, db, "go")
	testutil.Post(t, db, testutil.PostSpec{ID: "p1", AuthorID: "bob", CategoryID: "go", Views: 7})
	testutil.Post(t, db, testutil.PostSpec{ID: "p2", AuthorID: "alice", CategoryID: "go"})

	socialSvc := social.NewService(db)
	hyd := hydrate.New(db, nil)
	srv := New(Services{
		Feed:       feed.NewComposer(db, socialSvc, hyd),
		Related:    related.NewRecommender(db, hyd),
		Comments:   comments.NewService(db),
		Engagement: engagement.NewService(db),
		Social:     socialSvc,
	}, "test")
	return srv, db
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var (
		result *mcp.CallToolResult
		err    error
	)
	switch name {
	case "compose_feed":
		result, err = srv.composeFeed(ctx, req)
	case "related_posts":
		result, err = srv.relatedPosts(ctx, req)
	case "list_thread":
		result, err = srv.listThread(ctx, req)
	case "post_stats":
		result, err = srv.postStats(ctx, req)
	case "is_following":
		result, err = srv.isFollowing(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestComposeFeedTool(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "compose_feed", map[string]any{"sort": "newest", "page_size": 1})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	var page feed.Page
	if err := json.Unmarshal([]byte(resultText(r)), &page); err != nil {
		t.Fatal(err)
	}
	if len(page.Posts) != 1 || page.Pagination.TotalItems != 2 || !page.Pagination.HasNext {
		t.Errorf("page = %+v", page)
	}
}

func TestComposeFeedToolRejectsBadMode(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "compose_feed", map[string]any{"mode": "everything"})
	if !r.IsError {
		t.Errorf("expected tool error, got %s", resultText(r))
	}
}

func TestRelatedPostsTool(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "related_posts", map[string]any{"post_id": "p1"})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"id": "p2"`) || strings.Contains(resultText(r), `"id": "p1"`) {
		t.Errorf("related = %s", resultText(r))
	}

	r = callTool(t, srv, "related_posts", map[string]any{"post_id": "ghost"})
	if !r.IsError || resultText(r) != "post not found" {
		t.Errorf("unknown post: %v %q", r.IsError, resultText(r))
	}

	r = callTool(t, srv, "related_posts", map[string]any{})
	if !r.IsError {
		t.Error("missing post_id should be a tool error")
	}
}

func TestListThreadTool(t *testing.T) {
	srv, _ := testServer(t)
	ctx := context.Background()
	c, err := srv.svc.Comments.CreateComment(ctx, comments.CreateInput{Content: "first", PostID: "p1", AuthorID: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := srv.svc.Comments.CreateComment(ctx, comments.CreateInput{Content: "reply", PostID: "p1", AuthorID: "bob", ParentID: c.ID}); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "list_thread", map[string]any{"post_id": "p1"})
	var thread comments.Thread
	if err := json.Unmarshal([]byte(resultText(r)), &thread); err != nil {
		t.Fatal(err)
	}
	if len(thread.TopLevel) != 1 || len(thread.TopLevel[0].Replies) != 1 || thread.TopLevel[0].Replies[0].Content != "reply" {
		t.Errorf("thread = %+v", thread)
	}
}

func TestPostStatsTool(t *testing.T) {
	srv, db := testServer(t)
	testutil.Like(t, db, "alice", "p1")

	r := callTool(t, srv, "post_stats", map[string]any{"post_id": "p1", "viewer_id": "alice"})
	var stats postStats
	if err := json.Unmarshal([]byte(resultText(r)), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.LikeCount != 1 || stats.ViewCount != 7 || stats.LikedByViewer == nil || !*stats.LikedByViewer {
		t.Errorf("stats = %+v", stats)
	}

	r = callTool(t, srv, "post_stats", map[string]any{"post_id": "p2"})
	if strings.Contains(resultText(r), "liked_by_viewer") {
		t.Errorf("anonymous stats should omit liked_by_viewer: %s", resultText(r))
	}
}

func TestIsFollowingTool(t *testing.T) {
	srv, _ := testServer(t)
	if _, err := srv.svc.Social.Follow(context.Background(), "alice", "bob"); err != nil {
		t.Fatal(err)
	}
	r := callTool(t, srv, "is_following", map[string]any{"follower_id": "alice", "following_id": "bob"})
	if !strings.Contains(resultText(r), `"following": true`) {
		t.Errorf("alice→bob = %s", resultText(r))
	}
	r = callTool(t, srv, "is_following", map[string]any{"follower_id": "bob", "following_id": "alice"})
	if !strings.Contains(resultText(r), `"following": false`) {
		t.Errorf("bob→alice = %s", resultText(r))
	}
}

func TestContentFormatResource(t *testing.T) {
	srv, _ := testServer(t)
	res, err := srv.readContentFormat(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(res) != 1 {
		t.Fatalf("resource = %v, %v", res, err)
	}
	if tc, ok := res[0].(mcp.TextResourceContents); !ok || !strings.Contains(tc.Text, "author:") {
		t.Errorf("unexpected resource %+v", res[0])
	}
}

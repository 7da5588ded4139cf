// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes folio post tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/postservice"
)

// Server wraps the MCP server with folio tools.
type Server struct {
	mcp *server.MCPServer
	svc *postservice.Service
}

// New creates a new MCP server with all post tools registered.
func New(svc *postservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Folio",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List all blog posts, newest first, without their bodies."),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read a blog post with its metadata, Markdown body and etag."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug (file name without .md)")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("create_post",
		mcp.WithDescription("Create a new blog post. Never overwrites an existing post. "+
			"Read the format via get_post_format or the "+PostFormatURI+" resource first."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Post title")),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Desired slug; normalized before use")),
		mcp.WithString("date", mcp.Description("Publication date, YYYY-MM-DD. Defaults to today")),
		mcp.WithString("excerpt", mcp.Description("One-line summary")),
		mcp.WithString("content", mcp.Description("Markdown body without a header")),
	), s.createPost)

	s.mcp.AddTool(mcp.NewTool("update_post",
		mcp.WithDescription("Replace every field of an existing post, optionally moving it to a new slug."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Current slug of the post")),
		mcp.WithString("title", mcp.Description("Post title")),
		mcp.WithString("date", mcp.Description("Publication date, YYYY-MM-DD")),
		mcp.WithString("excerpt", mcp.Description("One-line summary")),
		mcp.WithString("content", mcp.Description("Markdown body without a header")),
		mcp.WithString("new_slug", mcp.Description("Move the post to this slug")),
		mcp.WithString("if_match", mcp.Description("etag from read_post; the update fails if the post changed since")),
	), s.updatePost)

	s.mcp.AddTool(mcp.NewTool("delete_post",
		mcp.WithDescription("Delete a blog post."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug")),
		mcp.WithString("if_match", mcp.Description("etag from read_post")),
	), s.deletePost)

	s.mcp.AddTool(mcp.NewTool("get_post_format",
		mcp.WithDescription("Returns how folio stores posts and how slugs are derived. "+
			"Call this before creating or updating posts."),
	), s.getPostFormat)

	s.mcp.AddResource(
		mcp.NewResource(PostFormatURI, "Post Format",
			mcp.WithResourceDescription("On-disk format of a folio blog post."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
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

type postSummary struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Excerpt string `json:"excerpt,omitempty"`
}

type postDetail struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Excerpt string `json:"excerpt"`
	Content string `json:"content"`
	ETag    string `json:"etag"`
}

func (s *Server) listPosts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	posts := s.svc.List(ctx)
	out := make([]postSummary, 0, len(posts))
	for _, p := range posts {
		out = append(out, postSummary{Slug: p.Slug, Title: p.Title, Date: p.Date, Excerpt: p.Excerpt})
	}
	return jsonResult(out)
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.Get(ctx, slug)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(postDetail{
		Slug:    p.Slug,
		Title:   p.Title,
		Date:    p.Date,
		Excerpt: p.Excerpt,
		Content: p.Content,
		ETag:    p.Checksum,
	})
}

func (s *Server) createPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	created, err := s.svc.Create(ctx, postservice.CreateInput{
		Title:   title,
		Slug:    slug,
		Date:    optString(req, "date"),
		Excerpt: optString(req, "excerpt"),
		Content: optString(req, "content"),
	})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", created)), nil
}

func (s *Server) updatePost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target := optString(req, "new_slug")
	if target == "" {
		target = current
	}
	slug, err := s.svc.Update(ctx, current, postservice.UpdateInput{
		Title:   optString(req, "title"),
		Slug:    target,
		Date:    optString(req, "date"),
		Excerpt: optString(req, "excerpt"),
		Content: optString(req, "content"),
		IfMatch: optString(req, "if_match"),
	})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", slug)), nil
}

func (s *Server) deletePost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Delete(ctx, slug, optString(req, "if_match")); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", slug)), nil
}

func (s *Server) getPostFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormat), nil
}

func (s *Server) readPostFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      PostFormatURI,
			MIMEType: "text/markdown",
			Text:     PostFormat,
		},
	}, nil
}

func optString(req mcp.CallToolRequest, key string) string {
	v, err := req.RequireString(key)
	if err != nil {
		return ""
	}
	return v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError turns a service error into a tool error prefixed with its kind,
// so clients can tell a conflict from a missing post.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(apperr.Kind(err) + ": " + err.Error())
}

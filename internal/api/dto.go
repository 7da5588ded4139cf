package api

import "github.com/starford/folio/internal/models"

const maxBodyBytes = 10 << 20

// PostRequest is the body of POST /api/posts and PUT /api/posts/{slug}.
type PostRequest struct {
	Title   string `json:"title" example:"My First Post"`
	Slug    string `json:"slug" example:"my-first-post"`
	Date    string `json:"date" example:"2025-03-14"`
	Excerpt string `json:"excerpt" example:"A short summary"`
	Content string `json:"content" example:"# Hello\nWorld"`
}

// PostListResponse wraps GET /api/posts.
type PostListResponse struct {
	Posts []models.Post `json:"posts" validate:"required"`
}

// MutationResponse is returned by create, update and delete.
type MutationResponse struct {
	Success bool   `json:"success" example:"true"`
	Slug    string `json:"slug,omitempty" example:"my-first-post"`
	Message string `json:"message" example:"Post created successfully"`
}

// RenderResponse is returned by GET /api/posts/{slug}/html.
type RenderResponse struct {
	Slug string `json:"slug" example:"my-first-post"`
	HTML string `json:"html" example:"<h1>Hello</h1>"`
}

// AuthStatusResponse is returned by GET /api/auth-status.
type AuthStatusResponse struct {
	Mode         string `json:"mode" example:"production"`
	RequiresAuth bool   `json:"requiresAuth" example:"true"`
	HasToken     bool   `json:"hasToken" example:"true"`
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/postservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *postservice.Service
	token  string
	mode   string
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc *postservice.Service, token, mode string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, token: token, mode: mode, logger: logger}
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List all posts, newest first
//	@Tags			posts
//	@Produce		json
//	@Success		200	{object}	PostListResponse
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PostListResponse{Posts: h.svc.List(r.Context())})
}

// GetPost handles GET /api/posts/{slug}.
//
//	@Summary		Get a single post
//	@Tags			posts
//	@Produce		json
//	@Param			slug	path		string	true	"Post slug"
//	@Success		200		{object}	models.Post
//	@Header			200		{string}	ETag	"SHA-256 of the stored file"
//	@Failure		404		{object}	errResponse
//	@Router			/posts/{slug} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	post, err := h.svc.Get(r.Context(), slug)
	if err != nil {
		writeServiceError(w, h.logger, "get post", slug, err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(post.Checksum))
	writeJSON(w, http.StatusOK, post)
}

// RenderPost handles GET /api/posts/{slug}/html.
//
//	@Summary		Render a post's content to HTML
//	@Tags			posts
//	@Produce		json
//	@Param			slug	path		string	true	"Post slug"
//	@Success		200		{object}	RenderResponse
//	@Failure		404		{object}	errResponse
//	@Router			/posts/{slug}/html [get]
func (h *Handler) RenderPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	html, err := h.svc.Render(r.Context(), slug)
	if err != nil {
		writeServiceError(w, h.logger, "render post", slug, err)
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{Slug: slug, HTML: html})
}

// CreatePost handles POST /api/posts.
//
//	@Summary		Create a new post
//	@Tags			posts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PostRequest	true	"Post to create"
//	@Success		201		{object}	MutationResponse
//	@Failure		400		{object}	errResponse
//	@Failure		401		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		AdminToken
//	@Router			/posts [post]
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}
	slug, err := h.svc.Create(r.Context(), postservice.CreateInput{
		Title:   req.Title,
		Slug:    req.Slug,
		Date:    req.Date,
		Excerpt: req.Excerpt,
		Content: req.Content,
	})
	if err != nil {
		writeServiceError(w, h.logger, "create post", req.Slug, err)
		return
	}
	writeJSON(w, http.StatusCreated, MutationResponse{
		Success: true,
		Slug:    slug,
		Message: "Post created successfully",
	})
}

// UpdatePost handles PUT /api/posts/{slug}.
//
//	@Summary		Replace a post, optionally moving it to a new slug
//	@Tags			posts
//	@Accept			json
//	@Produce		json
//	@Param			slug		path		string		true	"Current post slug"
//	@Param			If-Match	header		string		false	"ETag from GET; rejects the write if the file changed"
//	@Param			body		body		PostRequest	true	"New post fields"
//	@Success		200			{object}	MutationResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		412			{object}	errResponse
//	@Security		AdminToken
//	@Router			/posts/{slug} [put]
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	current := chi.URLParam(r, "slug")
	var req PostRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}
	slug, err := h.svc.Update(r.Context(), current, postservice.UpdateInput{
		Title:   req.Title,
		Slug:    req.Slug,
		Date:    req.Date,
		Excerpt: req.Excerpt,
		Content: req.Content,
		IfMatch: r.Header.Get("If-Match"),
	})
	if err != nil {
		writeServiceError(w, h.logger, "update post", current, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{
		Success: true,
		Slug:    slug,
		Message: "Post updated successfully",
	})
}

// DeletePost handles DELETE /api/posts/{slug}.
//
//	@Summary		Delete a post
//	@Tags			posts
//	@Produce		json
//	@Param			slug		path		string	true	"Post slug"
//	@Param			If-Match	header		string	false	"ETag from GET"
//	@Success		200			{object}	MutationResponse
//	@Failure		404			{object}	errResponse
//	@Failure		412			{object}	errResponse
//	@Security		AdminToken
//	@Router			/posts/{slug} [delete]
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.svc.Delete(r.Context(), slug, r.Header.Get("If-Match")); err != nil {
		writeServiceError(w, h.logger, "delete post", slug, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{
		Success: true,
		Message: "Post deleted successfully",
	})
}

// AuthStatus handles GET /api/auth-status.
//
//	@Summary		Report whether mutating requests need a token
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	AuthStatusResponse
//	@Router			/auth-status [get]
func (h *Handler) AuthStatus(w http.ResponseWriter, _ *http.Request) {
	hasToken := h.token != ""
	writeJSON(w, http.StatusOK, AuthStatusResponse{
		Mode:         h.mode,
		RequiresAuth: hasToken,
		HasToken:     hasToken,
	})
}

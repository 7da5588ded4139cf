// Package postservice implements the post store: reading, listing and
// writing blog posts kept as markdown files in a single directory.
package postservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/slug"
	"github.com/starford/folio/internal/storage"
)

const (
	// DateLayout is the on-disk date format.
	DateLayout = "2006-01-02"

	defaultTitle       = "Untitled"
	defaultReadWorkers = 16
)

// Renderer converts post content to HTML.
type Renderer interface {
	Render(source string) (string, error)
}

// CreateInput carries the fields of a new post.
type CreateInput struct {
	Title   string
	Slug    string
	Date    string
	Excerpt string
	Content string
}

// Validate checks the required fields.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required),
		validation.Field(&in.Slug, validation.Required),
	)
}

// UpdateInput carries the replacement fields of an existing post. A
// non-empty Slug renames the post. A non-empty IfMatch must match the
// checksum of the file being replaced.
type UpdateInput struct {
	Title   string
	Slug    string
	Date    string
	Excerpt string
	Content string
	IfMatch string
}

// Service owns all access to the post directory.
type Service struct {
	store       storage.Provider
	renderer    Renderer
	logger      *slog.Logger
	now         func() time.Time
	readWorkers int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for degraded reads and mutations.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRenderer replaces the default markdown renderer.
func WithRenderer(r Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithClock sets the source of "today" for date defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithReadWorkers bounds the number of files List reads at once.
func WithReadWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.readWorkers = n
		}
	}
}

// NewService creates a post service over store.
func NewService(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:       store,
		logger:      slog.Default(),
		now:         time.Now,
		readWorkers: defaultReadWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.renderer == nil {
		s.renderer = render.NewMarkdown()
	}
	return s
}

// List returns every post, newest first. Posts with the same date keep
// file-name order. It never fails: an unreadable directory yields an
// empty list and unreadable files are skipped, both logged.
func (s *Service) List(ctx context.Context) []models.Post {
	files, err := s.store.List()
	if err != nil {
		s.logger.Warn("list posts: directory unavailable", slog.String("error", err.Error()))
		return []models.Post{}
	}

	posts := make([]models.Post, len(files))
	read := make([]bool, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.readWorkers)
	for i, f := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			data, err := s.store.Read(f.Slug)
			if err != nil {
				s.logger.Warn("list posts: read failed", slog.String("slug", f.Slug), slog.String("error", err.Error()))
				return nil
			}
			posts[i] = s.decode(f.Slug, data)
			read[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Debug("list posts: cancelled", slog.String("error", err.Error()))
		return []models.Post{}
	}

	out := make([]models.Post, 0, len(posts))
	for i, p := range posts {
		if read[i] {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return out
}

// Get returns the post stored as <slugValue>.md. The slug is used as given,
// without normalization.
func (s *Service) Get(_ context.Context, slugValue string) (*models.Post, error) {
	data, err := s.read(slugValue)
	if err != nil {
		return nil, err
	}
	p := s.decode(slugValue, data)
	return &p, nil
}

// Render returns the post's content as HTML.
func (s *Service) Render(ctx context.Context, slugValue string) (string, error) {
	p, err := s.Get(ctx, slugValue)
	if err != nil {
		return "", err
	}
	out, err := s.renderer.Render(p.Content)
	if err != nil {
		return "", fmt.Errorf("render post %q: %w", slugValue, err)
	}
	return out, nil
}

// Create writes a new post and returns its normalized slug. It never
// overwrites: a post whose slug normalizes to an existing one is a conflict.
func (s *Service) Create(_ context.Context, in CreateInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", fmt.Errorf("%w: %s", apperr.ErrValidation, err.Error())
	}
	name := slug.Normalize(in.Slug)
	if name == "" {
		return "", fmt.Errorf("%w: slug %q has no usable characters", apperr.ErrValidation, in.Slug)
	}

	date := in.Date
	if date == "" {
		date = s.today()
	}
	data := encode(in.Title, date, in.Excerpt, in.Content)

	if err := s.store.Create(name, data); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("post %q: %w", name, apperr.ErrConflict)
		}
		return "", fmt.Errorf("create post %q: %w", name, err)
	}
	s.logger.Info("post created", slog.String("slug", name))
	return name, nil
}

// Update replaces the post stored under current and returns the slug it is
// stored under afterwards. When in.Slug normalizes to a different slug the
// post is moved: the new file is written before the old one is removed.
// Title and date are written as given, without validation.
func (s *Service) Update(_ context.Context, current string, in UpdateInput) (string, error) {
	existing, err := s.read(current)
	if err != nil {
		return "", err
	}
	if !checksum.Matches(in.IfMatch, existing) {
		return "", fmt.Errorf("post %q: %w", current, apperr.ErrStale)
	}

	data := encode(in.Title, in.Date, in.Excerpt, in.Content)

	target := current
	if in.Slug != "" && in.Slug != current {
		target = slug.Normalize(in.Slug)
		if target == "" {
			return "", fmt.Errorf("%w: slug %q has no usable characters", apperr.ErrValidation, in.Slug)
		}
	}

	if target == current {
		if err := s.store.Write(current, data); err != nil {
			return "", fmt.Errorf("update post %q: %w", current, err)
		}
		s.logger.Info("post updated", slog.String("slug", current))
		return current, nil
	}

	if err := s.store.Create(target, data); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("rename post %q to %q: %w", current, target, apperr.ErrConflict)
		}
		return "", fmt.Errorf("rename post %q to %q: %w", current, target, err)
	}
	if err := s.store.Delete(current); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error("rename left old post in place",
			slog.String("from", current), slog.String("to", target), slog.String("error", err.Error()))
		return "", fmt.Errorf("rename post %q to %q: remove old file: %w", current, target, err)
	}
	s.logger.Info("post renamed", slog.String("from", current), slog.String("to", target))
	return target, nil
}

// Delete removes a post. A non-empty ifMatch must match the file's checksum.
func (s *Service) Delete(_ context.Context, slugValue, ifMatch string) error {
	if ifMatch != "" {
		existing, err := s.read(slugValue)
		if err != nil {
			return err
		}
		if !checksum.Matches(ifMatch, existing) {
			return fmt.Errorf("post %q: %w", slugValue, apperr.ErrStale)
		}
	}

	if err := s.store.Delete(slugValue); err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrInvalidSlug) {
			return fmt.Errorf("post %q: %w", slugValue, apperr.ErrNotFound)
		}
		return fmt.Errorf("delete post %q: %w", slugValue, err)
	}
	s.logger.Info("post deleted", slog.String("slug", slugValue))
	return nil
}

// read loads a post file, mapping absent and unaddressable slugs to ErrNotFound.
func (s *Service) read(slugValue string) ([]byte, error) {
	data, err := s.store.Read(slugValue)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrInvalidSlug) {
			return nil, fmt.Errorf("post %q: %w", slugValue, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("read post %q: %w", slugValue, err)
	}
	return data, nil
}

// decode builds a Post from file bytes, filling in defaults for missing fields.
func (s *Service) decode(slugValue string, data []byte) models.Post {
	fm, body := frontmatter.Parse(string(data))

	title := fm[frontmatter.KeyTitle]
	if title == "" {
		title = defaultTitle
	}
	date := fm[frontmatter.KeyDate]
	if date == "" {
		date = s.today()
	}

	return models.Post{
		Slug:     slugValue,
		Title:    title,
		Date:     date,
		Excerpt:  fm[frontmatter.KeyExcerpt],
		Content:  body,
		Checksum: checksum.Sum(data),
	}
}

func (s *Service) today() string {
	return s.now().UTC().Format(DateLayout)
}

func encode(title, date, excerpt, content string) []byte {
	return []byte(frontmatter.Encode(map[string]string{
		frontmatter.KeyTitle:   title,
		frontmatter.KeyDate:    date,
		frontmatter.KeyExcerpt: excerpt,
	}, content))
}

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/folio/internal/models"
)

const tmpPattern = ".folio-tmp-*"

// ErrInvalidSlug is returned for slugs that cannot name a file in the post directory.
var ErrInvalidSlug = errors.New("storage: invalid slug")

// FS implements Provider backed by a single local directory.
type FS struct {
	root string // absolute path to the post directory
}

// NewFS creates a new FS provider rooted at dir. The directory does not
// have to exist yet; it is created on the first write. A path that exists
// but is not a directory is rejected.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err == nil && !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute post directory.
func (f *FS) Root() string {
	return f.root
}

// filePath maps a slug to its file under root and rejects anything that
// would leave the directory.
func (f *FS) filePath(slug string) (string, error) {
	if slug == "" || strings.HasPrefix(slug, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	if strings.ContainsAny(slug, `/\`) || strings.ContainsRune(slug, 0) {
		return "", fmt.Errorf("%w: %q escapes post directory", ErrInvalidSlug, slug)
	}
	abs := filepath.Join(f.root, slug+Ext)
	if filepath.Dir(abs) != f.root {
		return "", fmt.Errorf("%w: %q escapes post directory", ErrInvalidSlug, slug)
	}
	return abs, nil
}

// List reads the post directory and returns every .md file in it.
// Subdirectories are not descended into.
func (f *FS) List() ([]models.PostFile, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	out := make([]models.PostFile, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !IsPostFile(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		out = append(out, models.PostFile{
			Name:      name,
			Slug:      strings.TrimSuffix(name, Ext),
			UpdatedAt: info.ModTime(),
		})
	}
	return out, nil
}

// Read returns the raw bytes of a post file.
func (f *FS) Read(slug string) ([]byte, error) {
	abs, err := f.filePath(slug)
	if err != nil {
		return nil, err
	}
	if err := requireRegular(abs, slug); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", slug, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(slug string, content []byte) error {
	abs, err := f.filePath(slug)
	if err != nil {
		return err
	}
	tmpName, err := f.writeTemp(content)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpName, abs); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: rename: %w", err)
	}
	return nil
}

// Create writes content to a new post file. The file appears complete or
// not at all, and the call fails with an error wrapping os.ErrExist when
// the post file is already present.
func (f *FS) Create(slug string, content []byte) error {
	abs, err := f.filePath(slug)
	if err != nil {
		return err
	}
	tmpName, err := f.writeTemp(content)
	if err != nil {
		return err
	}
	defer os.Remove(tmpName)

	// link(2) refuses to replace an existing name.
	if err := os.Link(tmpName, abs); err != nil {
		return fmt.Errorf("storage: create %s: %w", slug, err)
	}
	return nil
}

// Delete removes a post file.
func (f *FS) Delete(slug string) error {
	abs, err := f.filePath(slug)
	if err != nil {
		return err
	}
	if err := requireRegular(abs, slug); err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", slug, err)
	}
	return nil
}

// requireRegular reports a missing post for anything at abs that is not a
// regular file, so a stray directory named like a post is never read or removed.
func requireRegular(abs, slug string) error {
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("storage: stat %s: %w", slug, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("storage: %s is not a regular file: %w", slug, os.ErrNotExist)
	}
	return nil
}

// writeTemp writes content to a synced temp file inside root and returns its name.
func (f *FS) writeTemp(content []byte) (string, error) {
	if err := os.MkdirAll(f.root, 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(f.root, tmpPattern)
	if err != nil {
		return "", fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return "", fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("storage: chmod temp: %w", err)
	}
	success = true
	return tmpName, nil
}

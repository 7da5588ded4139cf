// Package storage defines the post directory abstraction.
package storage

import (
	"strings"

	"github.com/starford/folio/internal/models"
)

// Ext is the file extension of every post file.
const Ext = ".md"

// IsPostFile reports whether a directory entry name holds a post: it ends
// in .md and is not hidden. Listing and watching both use it.
func IsPostFile(name string) bool {
	return strings.HasSuffix(name, Ext) && !strings.HasPrefix(name, ".")
}

// Provider is the interface for post file operations. Every method
// addresses a post by its slug; the provider maps it to <slug>.md.
type Provider interface {
	// List returns one entry per .md file in the post directory, ordered by file name.
	List() ([]models.PostFile, error)
	// Read returns the raw bytes of the post file.
	Read(slug string) ([]byte, error)
	// Create writes a new post file and fails with os.ErrExist if one is already present.
	Create(slug string, content []byte) error
	// Write atomically creates or replaces the post file.
	Write(slug string, content []byte) error
	// Delete removes the post file.
	Delete(slug string) error
}

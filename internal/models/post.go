// Package models defines the domain types for folio.
package models

import "time"

// Post is a blog post as stored in <slug>.md.
type Post struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Excerpt string `json:"excerpt"`
	Content string `json:"content"`

	// Checksum of the file the post was read from.
	Checksum string `json:"-"`
}

// PostFile is a lightweight directory entry returned by storage listings.
type PostFile struct {
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	UpdatedAt time.Time `json:"updated_at"`
}

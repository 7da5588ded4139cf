package postservice

import (
	"slices"
	"time"

	"github.com/starford/folio/internal/models"
)

// dateLayouts are tried in order when interpreting a post date.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// parseDate interprets a post date as a calendar timestamp. Dates that
// match no layout yield the zero time.
func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// sortNewestFirst orders posts by date descending. The sort is stable, so
// posts with equal (or equally unparseable) dates keep their input order.
func sortNewestFirst(posts []models.Post) {
	keys := make(map[string]time.Time, len(posts))
	for _, p := range posts {
		keys[p.Slug] = parseDate(p.Date)
	}
	slices.SortStableFunc(posts, func(a, b models.Post) int {
		return keys[b.Slug].Compare(keys[a.Slug])
	})
}

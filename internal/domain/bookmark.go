package domain

import "time"

// Bookmark is a saved link. The field names on the wire follow the
// external "links" table.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	ID string `json:"id"`

	// Owner is the tenant marker. Constant for a deployment.
	Owner string `json:"user_id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// URL must parse as an absolute URL at creation and on every update.
	URL string `json:"url"`

	Title string `json:"title"`

	// Description is optional; nil is stored as NULL.
	Description *string `json:"description"`

	// Tags has set semantics: no duplicates, order irrelevant.
	Tags []string `json:"tags"`

	// Pinned bookmarks always list ahead of unpinned ones.
	Pinned bool `json:"is_pinned"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookmarkInput carries the fields accepted by Create Bookmark.
type BookmarkInput struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags"`
}

// BookmarkPatch is a partial update. Nil fields are left untouched.
// A non-nil Description pointing at "" clears it.
type BookmarkPatch struct {
	URL         *string   `json:"url,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p BookmarkPatch) IsEmpty() bool {
	return p.URL == nil && p.Title == nil && p.Description == nil && p.Tags == nil
}

// Apply writes the patch onto b. Inputs are expected to be normalized.
func (p BookmarkPatch) Apply(b *Bookmark) {
	if p.URL != nil {
		b.URL = *p.URL
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		if *p.Description == "" {
			b.Description = nil
		} else {
			d := *p.Description
			b.Description = &d
		}
	}
	if p.Tags != nil {
		b.Tags = append([]string(nil), (*p.Tags)...)
	}
}

// BookmarkSortField is one of the sortable bookmark columns.
type BookmarkSortField string

const (
	BookmarkSortCreatedAt BookmarkSortField = "created_at"
	BookmarkSortUpdatedAt BookmarkSortField = "updated_at"
	BookmarkSortTitle     BookmarkSortField = "title"
)

// BookmarkFilter narrows List Bookmarks.
type BookmarkFilter struct {
	// Query matches title OR url, case-insensitive substring.
	Query string `json:"q,omitempty"`

	// Tags matches bookmarks sharing at least one tag (overlap).
	Tags []string `json:"tags,omitempty"`

	SortBy    BookmarkSortField `json:"sort_by,omitempty"`
	SortOrder SortOrder         `json:"sort_order,omitempty"`
}

// WithDefaults fills in the sort defaults.
func (f BookmarkFilter) WithDefaults() BookmarkFilter {
	switch f.SortBy {
	case BookmarkSortCreatedAt, BookmarkSortUpdatedAt, BookmarkSortTitle:
	default:
		f.SortBy = BookmarkSortCreatedAt
	}
	f.SortOrder = f.SortOrder.orDefault()
	f.Tags = NormalizeTags(f.Tags)
	return f
}

// Matches reports whether b passes the query and tag predicates.
func (f BookmarkFilter) Matches(b *Bookmark) bool {
	if f.Query != "" && !containsFold(b.Title, f.Query) && !containsFold(b.URL, f.Query) {
		return false
	}
	if len(f.Tags) > 0 && !Overlaps(b.Tags, f.Tags) {
		return false
	}
	return true
}

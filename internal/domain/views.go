package domain

import "time"

// View names a cached read view. A mutation marks one or more views stale.
type View string

const (
	ViewBookmarks View = "links"
	ViewKeywords  View = "keywords"
	ViewEntries   View = "keyword_entries"
)

// BookmarkViews are the views stale after any bookmark mutation.
func BookmarkViews() []View {
	return []View{ViewBookmarks}
}

// DocsViews are the views stale after any keyword or entry mutation.
// Both are listed because keyword lists embed entry counts.
func DocsViews() []View {
	return []View{ViewKeywords, ViewEntries}
}

// ChangeOp is the kind of row change carried by a ChangeEvent.
type ChangeOp string

const (
	OpInsert ChangeOp = "INSERT"
	OpUpdate ChangeOp = "UPDATE"
	OpDelete ChangeOp = "DELETE"
)

// ChangeEvent notifies subscribers that a table changed for a tenant.
// It is a refetch hint only; it never carries row data.
type ChangeEvent struct {
	Table  View      `json:"table"`
	Op     ChangeOp  `json:"op"`
	ID     string    `json:"id"`
	Tenant string    `json:"tenant"`
	At     time.Time `json:"at"`
}

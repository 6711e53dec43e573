package domain

import "time"

// Keyword is a wiki topic. Name is unique per owner.
type Keyword struct {
	ID          string    `json:"id"`
	Owner       string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// EntryCount is derived at read time and never stored.
	EntryCount int `json:"entry_count"`
}

type KeywordSortField string

const (
	KeywordSortUpdatedAt KeywordSortField = "updated_at"
	KeywordSortCreatedAt KeywordSortField = "created_at"
	KeywordSortName      KeywordSortField = "name"
)

// KeywordFilter narrows List Keywords.
type KeywordFilter struct {
	// Name is a case-insensitive substring of the keyword name.
	Name string `json:"q,omitempty"`

	// Tags matches keywords sharing at least one tag.
	Tags []string `json:"tags,omitempty"`

	SortBy    KeywordSortField `json:"sort_by,omitempty"`
	SortOrder SortOrder        `json:"sort_order,omitempty"`
}

func (f KeywordFilter) WithDefaults() KeywordFilter {
	switch f.SortBy {
	case KeywordSortUpdatedAt, KeywordSortCreatedAt, KeywordSortName:
	default:
		f.SortBy = KeywordSortUpdatedAt
	}
	f.SortOrder = f.SortOrder.orDefault()
	f.Tags = NormalizeTags(f.Tags)
	return f
}

func (f KeywordFilter) Matches(k *Keyword) bool {
	if f.Name != "" && !containsFold(k.Name, f.Name) {
		return false
	}
	if len(f.Tags) > 0 && !Overlaps(k.Tags, f.Tags) {
		return false
	}
	return true
}

package domain

import (
	"sort"
	"strings"
	"time"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) orDefault() SortOrder {
	if o == SortAsc {
		return SortAsc
	}
	return SortDesc
}

// SortBookmarks orders pinned bookmarks first, then applies the filter's
// sort field and order inside each pin group. The sort is stable.
func SortBookmarks(bookmarks []*Bookmark, f BookmarkFilter) {
	f = f.WithDefaults()
	asc := f.SortOrder == SortAsc
	sort.SliceStable(bookmarks, func(i, j int) bool {
		a, b := bookmarks[i], bookmarks[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		var c int
		switch f.SortBy {
		case BookmarkSortTitle:
			c = compareText(a.Title, b.Title)
		case BookmarkSortUpdatedAt:
			c = compareTime(a.UpdatedAt, b.UpdatedAt)
		default:
			c = compareTime(a.CreatedAt, b.CreatedAt)
		}
		if asc {
			return c < 0
		}
		return c > 0
	})
}

// SortKeywords applies the keyword filter's sort field and order.
func SortKeywords(keywords []*Keyword, f KeywordFilter) {
	f = f.WithDefaults()
	asc := f.SortOrder == SortAsc
	sort.SliceStable(keywords, func(i, j int) bool {
		a, b := keywords[i], keywords[j]
		var c int
		switch f.SortBy {
		case KeywordSortName:
			c = compareText(a.Name, b.Name)
		case KeywordSortCreatedAt:
			c = compareTime(a.CreatedAt, b.CreatedAt)
		default:
			c = compareTime(a.UpdatedAt, b.UpdatedAt)
		}
		if asc {
			return c < 0
		}
		return c > 0
	})
}

// SortEntries orders entries newest created_at first.
func SortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

func compareTime(a, b time.Time) int {
	return a.Compare(b)
}

func compareText(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

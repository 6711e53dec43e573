// Package store defines the contract between the data access layer and a
// relational backend. Every adapter is scoped to a single tenant at
// construction time; rows of other tenants are invisible.
package store

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/gieok/internal/domain"
)

// CacheTicket is the opaque handle a list cache hands out on lookup and
// takes back on fill. The zero value fills nothing.
type CacheTicket string

// Bookmarks persists the links table.
type Bookmarks interface {
	InsertBookmark(ctx context.Context, b *domain.Bookmark) error
	// UpdateBookmark applies p and stamps updated_at with at in one write.
	UpdateBookmark(ctx context.Context, id string, p domain.BookmarkPatch, at time.Time) (*domain.Bookmark, error)
	SetPinned(ctx context.Context, id string, pinned bool, at time.Time) (*domain.Bookmark, error)
	DeleteBookmark(ctx context.Context, id string) error
	GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error)
	// ListBookmarks filters and sorts. Pinned rows come first.
	ListBookmarks(ctx context.Context, f domain.BookmarkFilter) ([]*domain.Bookmark, error)
}

// Keywords persists the keywords table.
type Keywords interface {
	// CreateKeywordIfAbsent inserts k unless a keyword with the same name
	// exists. It returns the stored row and whether it was created. An
	// existing row is returned untouched.
	CreateKeywordIfAbsent(ctx context.Context, k *domain.Keyword) (*domain.Keyword, bool, error)
	GetKeyword(ctx context.Context, id string) (*domain.Keyword, error)
	GetKeywordByName(ctx context.Context, name string) (*domain.Keyword, error)
	// ListKeywords leaves EntryCount at zero.
	ListKeywords(ctx context.Context, f domain.KeywordFilter) ([]*domain.Keyword, error)
	// DeleteKeyword removes the keyword and its entries atomically and
	// reports how many entries went with it.
	DeleteKeyword(ctx context.Context, id string) (int, error)
}

// Entries persists the keyword_entries table.
type Entries interface {
	// InsertEntry fails with domain.ErrNotFound when the keyword is missing.
	InsertEntry(ctx context.Context, e *domain.Entry) error
	UpdateEntry(ctx context.Context, id string, p domain.EntryPatch, at time.Time) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	GetEntry(ctx context.Context, id string) (*domain.Entry, error)
	// ListEntries returns newest created_at first.
	ListEntries(ctx context.Context, keywordID string) ([]*domain.Entry, error)
	CountEntries(ctx context.Context, keywordID string) (int, error)
}

type Store interface {
	Bookmarks
	Keywords
	Entries

	Ping(ctx context.Context) error
	Close() error
}

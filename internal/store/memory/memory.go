// Package memory is an in-process store used for development and tests.
// A single RWMutex serializes writers, so every operation is atomic to
// readers, including the keyword cascade.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	tenant string

	mu        sync.RWMutex
	bookmarks map[string]*domain.Bookmark // ID -> Bookmark
	keywords  map[string]*domain.Keyword  // ID -> Keyword
	names     map[string]string           // keyword name -> ID
	entries   map[string]*domain.Entry    // ID -> Entry
}

// New creates an empty store scoped to tenant.
func New(tenant string) *Store {
	return &Store{
		tenant:    tenant,
		bookmarks: make(map[string]*domain.Bookmark),
		keywords:  make(map[string]*domain.Keyword),
		names:     make(map[string]string),
		entries:   make(map[string]*domain.Entry),
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// ─────────────────────────────────────────────────────────────────
// Bookmark methods
// ─────────────────────────────────────────────────────────────────

// InsertBookmark stores a copy of b
func (s *Store) InsertBookmark(_ context.Context, b *domain.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookmarks[b.ID]; exists {
		return fmt.Errorf("insert link %s: duplicate id", b.ID)
	}
	s.bookmarks[b.ID] = cloneBookmark(b)
	return nil
}

// UpdateBookmark applies a patch to an existing bookmark
func (s *Store) UpdateBookmark(_ context.Context, id string, p domain.BookmarkPatch, at time.Time) (*domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.ownBookmark(id)
	if !ok {
		return nil, fmt.Errorf("update link %s: %w", id, domain.ErrNotFound)
	}
	p.Apply(b)
	b.UpdatedAt = at
	return cloneBookmark(b), nil
}

// SetPinned flips the pin flag
func (s *Store) SetPinned(_ context.Context, id string, pinned bool, at time.Time) (*domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.ownBookmark(id)
	if !ok {
		return nil, fmt.Errorf("pin link %s: %w", id, domain.ErrNotFound)
	}
	b.Pinned = pinned
	b.UpdatedAt = at
	return cloneBookmark(b), nil
}

// DeleteBookmark removes a bookmark
func (s *Store) DeleteBookmark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownBookmark(id); !ok {
		return fmt.Errorf("delete link %s: %w", id, domain.ErrNotFound)
	}
	delete(s.bookmarks, id)
	return nil
}

// GetBookmark retrieves a bookmark by ID
func (s *Store) GetBookmark(_ context.Context, id string) (*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.ownBookmark(id)
	if !ok {
		return nil, fmt.Errorf("get link %s: %w", id, domain.ErrNotFound)
	}
	return cloneBookmark(b), nil
}

// ListBookmarks returns the matching bookmarks, pinned first
func (s *Store) ListBookmarks(_ context.Context, f domain.BookmarkFilter) ([]*domain.Bookmark, error) {
	f = f.WithDefaults()

	s.mu.RLock()
	out := make([]*domain.Bookmark, 0, len(s.bookmarks))
	for _, b := range s.bookmarks {
		if b.Owner == s.tenant && f.Matches(b) {
			out = append(out, cloneBookmark(b))
		}
	}
	s.mu.RUnlock()

	domain.SortBookmarks(out, f)
	return out, nil
}

func (s *Store) ownBookmark(id string) (*domain.Bookmark, bool) {
	b, ok := s.bookmarks[id]
	if !ok || b.Owner != s.tenant {
		return nil, false
	}
	return b, true
}

// ─────────────────────────────────────────────────────────────────
// Keyword methods
// ─────────────────────────────────────────────────────────────────

// CreateKeywordIfAbsent returns the keyword named k.Name, inserting k
// when there is none
func (s *Store) CreateKeywordIfAbsent(_ context.Context, k *domain.Keyword) (*domain.Keyword, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.names[k.Name]; ok {
		return cloneKeyword(s.keywords[id]), false, nil
	}
	if _, exists := s.keywords[k.ID]; exists {
		return nil, false, fmt.Errorf("insert keyword %s: duplicate id", k.ID)
	}
	s.keywords[k.ID] = cloneKeyword(k)
	s.names[k.Name] = k.ID
	return cloneKeyword(k), true, nil
}

// GetKeyword retrieves a keyword by ID
func (s *Store) GetKeyword(_ context.Context, id string) (*domain.Keyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.keywords[id]
	if !ok || k.Owner != s.tenant {
		return nil, fmt.Errorf("get keyword %s: %w", id, domain.ErrNotFound)
	}
	return cloneKeyword(k), nil
}

// GetKeywordByName retrieves a keyword by exact name
func (s *Store) GetKeywordByName(_ context.Context, name string) (*domain.Keyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.names[name]
	if !ok {
		return nil, fmt.Errorf("get keyword %q: %w", name, domain.ErrNotFound)
	}
	return cloneKeyword(s.keywords[id]), nil
}

// ListKeywords returns the matching keywords without entry counts
func (s *Store) ListKeywords(_ context.Context, f domain.KeywordFilter) ([]*domain.Keyword, error) {
	f = f.WithDefaults()

	s.mu.RLock()
	out := make([]*domain.Keyword, 0, len(s.keywords))
	for _, k := range s.keywords {
		if k.Owner == s.tenant && f.Matches(k) {
			c := cloneKeyword(k)
			c.EntryCount = 0
			out = append(out, c)
		}
	}
	s.mu.RUnlock()

	domain.SortKeywords(out, f)
	return out, nil
}

// DeleteKeyword removes a keyword and every entry under it
func (s *Store) DeleteKeyword(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.keywords[id]
	if !ok || k.Owner != s.tenant {
		return 0, fmt.Errorf("delete keyword %s: %w", id, domain.ErrNotFound)
	}

	removed := 0
	for eid, e := range s.entries {
		if e.KeywordID == id {
			delete(s.entries, eid)
			removed++
		}
	}
	delete(s.names, k.Name)
	delete(s.keywords, id)
	return removed, nil
}

// ─────────────────────────────────────────────────────────────────
// Entry methods
// ─────────────────────────────────────────────────────────────────

// InsertEntry stores a copy of e under an existing keyword
func (s *Store) InsertEntry(_ context.Context, e *domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if k, ok := s.keywords[e.KeywordID]; !ok || k.Owner != s.tenant {
		return fmt.Errorf("insert entry: keyword %s: %w", e.KeywordID, domain.ErrNotFound)
	}
	if _, exists := s.entries[e.ID]; exists {
		return fmt.Errorf("insert entry %s: duplicate id", e.ID)
	}
	s.entries[e.ID] = cloneEntry(e)
	return nil
}

// UpdateEntry applies a patch to an existing entry
func (s *Store) UpdateEntry(_ context.Context, id string, p domain.EntryPatch, at time.Time) (*domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.ownEntry(id)
	if !ok {
		return nil, fmt.Errorf("update entry %s: %w", id, domain.ErrNotFound)
	}
	p.Apply(e)
	e.UpdatedAt = at
	return cloneEntry(e), nil
}

// DeleteEntry removes an entry and leaves its keyword alone
func (s *Store) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ownEntry(id); !ok {
		return fmt.Errorf("delete entry %s: %w", id, domain.ErrNotFound)
	}
	delete(s.entries, id)
	return nil
}

// GetEntry retrieves an entry by ID
func (s *Store) GetEntry(_ context.Context, id string) (*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.ownEntry(id)
	if !ok {
		return nil, fmt.Errorf("get entry %s: %w", id, domain.ErrNotFound)
	}
	return cloneEntry(e), nil
}

// ListEntries returns the entries of a keyword, newest first
func (s *Store) ListEntries(_ context.Context, keywordID string) ([]*domain.Entry, error) {
	s.mu.RLock()
	out := make([]*domain.Entry, 0)
	for _, e := range s.entries {
		if e.KeywordID == keywordID {
			if _, ok := s.ownEntry(e.ID); ok {
				out = append(out, cloneEntry(e))
			}
		}
	}
	s.mu.RUnlock()

	domain.SortEntries(out)
	return out, nil
}

// CountEntries returns the number of entries under a keyword
func (s *Store) CountEntries(_ context.Context, keywordID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if e.KeywordID == keywordID {
			n++
		}
	}
	return n, nil
}

// ownEntry scopes entries through their keyword's owner.
func (s *Store) ownEntry(id string) (*domain.Entry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	k, ok := s.keywords[e.KeywordID]
	if !ok || k.Owner != s.tenant {
		return nil, false
	}
	return e, true
}

func cloneBookmark(b *domain.Bookmark) *domain.Bookmark {
	c := *b
	c.Tags = append([]string{}, b.Tags...)
	c.Description = cloneString(b.Description)
	return &c
}

func cloneKeyword(k *domain.Keyword) *domain.Keyword {
	c := *k
	c.Tags = append([]string{}, k.Tags...)
	c.Description = cloneString(k.Description)
	return &c
}

func cloneEntry(e *domain.Entry) *domain.Entry {
	c := *e
	c.Title = cloneString(e.Title)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

package data

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MrSnakeDoc/gieok/internal/accesskey"
	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/logger"
	"github.com/MrSnakeDoc/gieok/internal/store"
	"github.com/MrSnakeDoc/gieok/internal/store/memory"
)

const (
	testTenant = "tenant-1"
	testKey    = "correct horse"
)

// spyStore counts every call that could write.
type spyStore struct {
	*memory.Store
	writes atomic.Int32
	fail   error
}

func (s *spyStore) wrote() error {
	s.writes.Add(1)
	return s.fail
}

func (s *spyStore) InsertBookmark(ctx context.Context, b *domain.Bookmark) error {
	if err := s.wrote(); err != nil {
		return domain.Unavailable("insert link", err)
	}
	return s.Store.InsertBookmark(ctx, b)
}

func (s *spyStore) UpdateBookmark(ctx context.Context, id string, p domain.BookmarkPatch, at time.Time) (*domain.Bookmark, error) {
	if err := s.wrote(); err != nil {
		return nil, domain.Unavailable("update link", err)
	}
	return s.Store.UpdateBookmark(ctx, id, p, at)
}

func (s *spyStore) SetPinned(ctx context.Context, id string, pinned bool, at time.Time) (*domain.Bookmark, error) {
	if err := s.wrote(); err != nil {
		return nil, domain.Unavailable("pin link", err)
	}
	return s.Store.SetPinned(ctx, id, pinned, at)
}

func (s *spyStore) DeleteBookmark(ctx context.Context, id string) error {
	if err := s.wrote(); err != nil {
		return domain.Unavailable("delete link", err)
	}
	return s.Store.DeleteBookmark(ctx, id)
}

func (s *spyStore) CreateKeywordIfAbsent(ctx context.Context, k *domain.Keyword) (*domain.Keyword, bool, error) {
	if err := s.wrote(); err != nil {
		return nil, false, domain.Unavailable("insert keyword", err)
	}
	return s.Store.CreateKeywordIfAbsent(ctx, k)
}

func (s *spyStore) DeleteKeyword(ctx context.Context, id string) (int, error) {
	if err := s.wrote(); err != nil {
		return 0, domain.Unavailable("delete keyword", err)
	}
	return s.Store.DeleteKeyword(ctx, id)
}

func (s *spyStore) InsertEntry(ctx context.Context, e *domain.Entry) error {
	if err := s.wrote(); err != nil {
		return domain.Unavailable("insert entry", err)
	}
	return s.Store.InsertEntry(ctx, e)
}

func (s *spyStore) UpdateEntry(ctx context.Context, id string, p domain.EntryPatch, at time.Time) (*domain.Entry, error) {
	if err := s.wrote(); err != nil {
		return nil, domain.Unavailable("update entry", err)
	}
	return s.Store.UpdateEntry(ctx, id, p, at)
}

func (s *spyStore) DeleteEntry(ctx context.Context, id string) error {
	if err := s.wrote(); err != nil {
		return domain.Unavailable("delete entry", err)
	}
	return s.Store.DeleteEntry(ctx, id)
}

var _ store.Store = (*spyStore)(nil)

// recorder captures invalidations and notifications.
type recorder struct {
	mu          sync.Mutex
	invalidated [][]domain.View
	notified    []domain.View
}

func (r *recorder) Lookup(context.Context, domain.View, any, any) (store.CacheTicket, bool) {
	return "", false
}
func (r *recorder) Fill(context.Context, store.CacheTicket, any) {}
func (r *recorder) Invalidate(_ context.Context, views ...domain.View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, append([]domain.View(nil), views...))
	return nil
}
func (r *recorder) Notify(_ context.Context, _ domain.ChangeOp, _ string, views ...domain.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, views...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = nil
	r.notified = nil
}

type fixture struct {
	svc   *Service
	store *spyStore
	rec   *recorder
}

func newFixture(t *testing.T, secret string) *fixture {
	t.Helper()

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	st := &spyStore{Store: memory.New(testTenant)}
	rec := &recorder{}
	svc := New(Options{
		Tenant:    testTenant,
		Store:     st,
		Gate:      accesskey.New(secret, logger.NewNop(), nil),
		Validator: domain.NewValidator(domain.DefaultLimits),
		Cache:     rec,
		Notifier:  rec,
		Log:       logger.NewNop(),
		Now:       now,
	})
	return &fixture{svc: svc, store: st, rec: rec}
}

func (f *fixture) bookmark(t *testing.T, url, title string, tags ...string) *domain.Bookmark {
	t.Helper()
	b, err := f.svc.CreateBookmark(context.Background(), testKey, domain.BookmarkInput{URL: url, Title: title, Tags: tags})
	if err != nil {
		t.Fatalf("CreateBookmark(%s) error = %v", url, err)
	}
	return b
}

func strPtr(s string) *string { return &s }

// ─────────────────────────────────────────────────────────────────
// Access key
// ─────────────────────────────────────────────────────────────────

func mutations(f *fixture, key string) map[string]func() error {
	ctx := context.Background()
	return map[string]func() error{
		"create bookmark": func() error {
			_, err := f.svc.CreateBookmark(ctx, key, domain.BookmarkInput{URL: "https://a.com", Title: "A"})
			return err
		},
		"update bookmark": func() error {
			_, err := f.svc.UpdateBookmark(ctx, key, "x", domain.BookmarkPatch{Title: strPtr("B")})
			return err
		},
		"toggle pin": func() error {
			_, err := f.svc.TogglePin(ctx, key, "x", true)
			return err
		},
		"delete bookmark": func() error { return f.svc.DeleteBookmark(ctx, key, "x") },
		"create keyword": func() error {
			_, _, err := f.svc.CreateKeyword(ctx, key, "Go", nil)
			return err
		},
		"delete keyword": func() error {
			_, err := f.svc.DeleteKeyword(ctx, key, "x")
			return err
		},
		"create entry": func() error {
			_, err := f.svc.CreateEntry(ctx, key, domain.EntryInput{KeywordName: "Go", Content: "hi"})
			return err
		},
		"update entry": func() error {
			_, err := f.svc.UpdateEntry(ctx, key, "x", domain.EntryPatch{Content: strPtr("hi")})
			return err
		},
		"delete entry": func() error { return f.svc.DeleteEntry(ctx, key, "x") },
	}
}

func TestMutations_RejectWrongKey(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		key    string
	}{
		{name: "wrong key", secret: testKey, key: "nope"},
		{name: "empty key", secret: testKey, key: ""},
		{name: "unconfigured secret", secret: "", key: ""},
		{name: "unconfigured secret with a key", secret: "", key: testKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.secret)
			for op, call := range mutations(f, tt.key) {
				if err := call(); !errors.Is(err, domain.ErrInvalidAccessKey) {
					t.Errorf("%s: error = %v, want ErrInvalidAccessKey", op, err)
				}
			}
			if n := f.store.writes.Load(); n != 0 {
				t.Errorf("store saw %d writes, want 0", n)
			}
			if len(f.rec.invalidated) != 0 || len(f.rec.notified) != 0 {
				t.Error("rejected mutations must not invalidate anything")
			}
		})
	}
}

func TestReads_AreNotGated(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	if _, err := f.svc.ListBookmarks(ctx, domain.BookmarkFilter{}); err != nil {
		t.Errorf("ListBookmarks() error = %v", err)
	}
	if _, err := f.svc.ListKeywords(ctx, domain.KeywordFilter{}); err != nil {
		t.Errorf("ListKeywords() error = %v", err)
	}
	if _, err := f.svc.ListEntries(ctx, "missing"); err != nil {
		t.Errorf("ListEntries() error = %v", err)
	}
}

// ─────────────────────────────────────────────────────────────────
// Bookmarks
// ─────────────────────────────────────────────────────────────────

func TestCreateBookmark(t *testing.T) {
	f := newFixture(t, testKey)
	b := f.bookmark(t, "https://a.com", "A", "AI", "AI")

	if b.Owner != testTenant {
		t.Errorf("Owner = %q, want %q", b.Owner, testTenant)
	}
	if b.Pinned {
		t.Error("new bookmarks start unpinned")
	}
	if !b.CreatedAt.Equal(b.UpdatedAt) || b.CreatedAt.IsZero() {
		t.Errorf("timestamps not set: %v / %v", b.CreatedAt, b.UpdatedAt)
	}
	if len(b.Tags) != 1 || b.Tags[0] != "AI" {
		t.Errorf("Tags = %v, duplicate tags must collapse", b.Tags)
	}

	got, err := f.svc.GetBookmark(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("GetBookmark() error = %v", err)
	}
	if len(got.Tags) != 1 {
		t.Errorf("stored Tags = %v", got.Tags)
	}
}

func TestCreateBookmark_TagsRoundTrip(t *testing.T) {
	f := newFixture(t, testKey)
	b := f.bookmark(t, "https://a.com", "A", "AI", "React")

	got, err := f.svc.GetBookmark(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("GetBookmark() error = %v", err)
	}
	if !domain.SameTags(got.Tags, []string{"React", "AI"}) {
		t.Errorf("Tags = %v, want the set {AI, React}", got.Tags)
	}
}

func TestCreateBookmark_ValidationBeforeStore(t *testing.T) {
	tests := []struct {
		name  string
		in    domain.BookmarkInput
		field string
	}{
		{name: "not a url", in: domain.BookmarkInput{URL: "not-a-url", Title: "A"}, field: "url"},
		{name: "missing title", in: domain.BookmarkInput{URL: "https://a.com", Title: "  "}, field: "title"},
		{name: "too many tags", in: domain.BookmarkInput{URL: "https://a.com", Title: "A", Tags: []string{"1", "2", "3", "4", "5", "6"}}, field: "tags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testKey)
			_, err := f.svc.CreateBookmark(context.Background(), testKey, tt.in)

			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want a ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("Fields = %v, want %q", verr.Fields, tt.field)
			}
			if n := f.store.writes.Load(); n != 0 {
				t.Errorf("store saw %d writes, want 0", n)
			}
		})
	}
}

func TestUpdateBookmark(t *testing.T) {
	f := newFixture(t, testKey)
	ctx := context.Background()
	b := f.bookmark(t, "https://a.com", "A")

	got, err := f.svc.UpdateBookmark(ctx, testKey, b.ID, domain.BookmarkPatch{Title: strPtr(" B ")})
	if err != nil {
		t.Fatalf("UpdateBookmark() error = %v", err)
	}
	if got.Title != "B" || got.URL != "https://a.com" {
		t.Errorf("got %q %q, only the title should change", got.Title, got.URL)
	}
	if !got.UpdatedAt.After(b.UpdatedAt) {
		t.Error("UpdatedAt should move forward")
	}

	if _, err := f.svc.UpdateBookmark(ctx, testKey, b.ID, domain.BookmarkPatch{URL: strPtr("nope")}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad url patch error = %v, want ErrValidation", err)
	}
	if _, err := f.svc.UpdateBookmark(ctx, testKey, "missing", domain.BookmarkPatch{Title: strPtr("C")}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing id error = %v, want ErrNotFound", err)
	}
}

func TestDeleteBookmark_NotFound(t *testing.T) {
	f := newFixture(t, testKey)
	err := f.svc.DeleteBookmark(context.Background(), testKey, "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if errors.Is(err, domain.ErrValidation) {
		t.Error("not found must stay distinct from validation")
	}
}

func TestListBookmarks_PinnedFirst(t *testing.T) {
	f := newFixture(t, testKey)
	ctx := context.Background()

	older := f.bookmark(t, "https://b.com", "B")
	newer := f.bookmark(t, "https://a.com", "A")
	if _, err := f.svc.TogglePin(ctx, testKey, older.ID, true); err != nil {
		t.Fatalf("TogglePin() error = %v", err)
	}

	list, err := f.svc.ListBookmarks(ctx, domain.BookmarkFilter{SortBy: domain.BookmarkSortCreatedAt, SortOrder: domain.SortDesc})
	if err != nil {
		t.Fatalf("ListBookmarks() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != older.ID || list[1].ID != newer.ID {
		t.Errorf("order = %v, pinned bookmark must come first", ids(list))
	}

	// Unpinning restores recency order.
	if _, err := f.svc.TogglePin(ctx, testKey, older.ID, false); err != nil {
		t.Fatalf("TogglePin() error = %v", err)
	}
	list, _ = f.svc.ListBookmarks(ctx, domain.BookmarkFilter{})
	if list[0].ID != newer.ID {
		t.Errorf("order = %v, newest first once unpinned", ids(list))
	}
}

func TestListBookmarks_Filter(t *testing.T) {
	f := newFixture(t, testKey)
	ctx := context.Background()
	f.bookmark(t, "https://go.dev", "The Go site", "Go")
	f.bookmark(t, "https://react.dev", "React docs", "React", "JavaScript")
	f.bookmark(t, "https://example.com/golang", "Misc", "Misc")

	tests := []struct {
		name   string
		filter domain.BookmarkFilter
		want   int
	}{
		{name: "no filter", filter: domain.BookmarkFilter{}, want: 3},
		{name: "query matches title or url", filter: domain.BookmarkFilter{Query: "GO"}, want: 2},
		{name: "tag overlap", filter: domain.BookmarkFilter{Tags: []string{"Go", "JavaScript"}}, want: 2},
		{name: "query and tags", filter: domain.BookmarkFilter{Query: "react", Tags: []string{"Go"}}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := f.svc.ListBookmarks(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListBookmarks() error = %v", err)
			}
			if len(list) != tt.want {
				t.Errorf("len = %d, want %d", len(list), tt.want)
			}
		})
	}
}

// ─────────────────────────────────────────────────────────────────
// Keywords and entries
// ─────────────────────────────────────────────────────────────────

func TestCreateKeyword_ReusesByName(t *testing.T) {
	f := newFixture(t, testKey)
	ctx := context.Background()

	first, created, err := f.svc.CreateKeyword(ctx, testKey, "Testing", []string{"CS"})
	if err != nil || !created {
		t.Fatalf("first CreateKeyword() = %v, %v", created, err)
	}
	second, created, err := f.svc.CreateKeyword(ctx, testKey, " Testing ", []string{"AI"})
	if err != nil {
		t.Fatalf("second CreateKeyword() error = %v", err)
	}
	if created || second.ID != first.ID {
		t.Errorf("second call created=%v id=%s, want reuse of %s", created, second.ID, first.ID)
	}
	if !domain.SameTags(second.Tags, []string{"CS"}) {
		t.Errorf("Tags = %v, existing tags must not be merged", second.Tags)
	}

	list, _ := f.svc.ListKeywords(ctx, domain.KeywordFilter{})
	if len(list) != 1 {
		t.Errorf("keyword rows = %d, want 1", len(list))
	}
}

func TestCreateKeyword_ReuseLogsIgnoredTags(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	svc := New(Options{
		Tenant: testTenant,
		Store:  memory.New(testTenant),
		Gate:   accesskey.New(testKey, logger.NewNop(), nil),
		Log:    logger.FromZap(zap.New(core)),
	})
	ctx := context.Background()

	if _, _, err := svc.CreateKeyword(ctx, testKey, "Testing", []string{"CS"}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.CreateKeyword(ctx, testKey, "Testing", []string{" CS ", "CS"}); err != nil {
		t.Fatal(err)
	}
	if n := logs.FilterMessage("keyword exists, requested tags ignored").Len(); n != 0 {
		t.Errorf("same tags logged %d times, want 0", n)
	}

	if _, _, err := svc.CreateKeyword(ctx, testKey, "Testing", []string{"AI"}); err != nil {
		t.Fatal(err)
	}
	if n := logs.FilterMessage("keyword exists, requested tags ignored").Len(); n != 1 {
		t.Errorf("differing tags logged %d times, want 1", n)
	}
}

func TestCreateKeyword_ReuseDoesNotInvalidate(t *testing.T) {
	f := newFixture(t, testKey)
	ctx := context.Background()
	if _, _, err := f.svc.CreateKeyword(ctx, testKey, "Go", nil); err != nil {
		t.Fatal(err)
	}
	f.rec.reset()

	if _, _, err := f.svc.CreateKeyword(ctx, testKey, "Go", nil); err != nil {
		t.Fatal(err)
	}
	if len(f.rec.invalidated) != 0 {
		t.Errorf("invalidated = %v, a reuse changes nothing", f.rec.invalidated)
	}
}

func TestScenario_KeywordWithEntry(t *testing.T) {
	f := newFixture(t, testKey)
	ctx := context.Background()

	e, err := f.svc.CreateEntry(ctx, testKey, domain.EntryInput{KeywordName: "Testing", Title: "E1", Content: "# hi"})
	if err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}

	k, err := f.svc.GetKeywordByName(ctx, "Testing")
	if err != nil {
		t.Fatalf("GetKeywordByName() error = %v", err)
	}
	if e.KeywordID != k.ID {
		t.Errorf("entry keyword = %s, want %s", e.KeywordID, k.ID)
	}

	entries, err := f.svc.ListEntries(ctx, k.ID)
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Title == nil || *entries[0].Title != "E1" || entries[0].Content != "# hi" {
		t.Fatalf("entries = %+v", entries)
	}

	list, err := f.svc.ListKeywords(ctx, domain.KeywordFilter{})
	if err != nil {
		t.Fatalf("ListKeywords() error = %v", err)
	}
	if len(list) != 1 || list[0].EntryCount != 1 {
		t.Errorf("keywords = %+v, want Testing with entry_count 1", list)
	}
}

func TestCreateEntry_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    domain.EntryInput
		field string
	}{
		{name: "blank content", in: domain.EntryInput{KeywordName: "Go", Content: "   "}, field: "content"},
		{name: "no keyword", in: domain.EntryInput{Content: "x"}, field: "keyword"},
		{name: "both keyword forms", in: domain.EntryInput{KeywordID: "id", KeywordName: "Go", Content: "x"}, field: "keyword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testKey)
			_, err := f.svc.CreateEntry(context.Background(), testKey, tt.in)

			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want a ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("Fields = %v, want %q", verr.Fields, tt.field)
			}
			if n := f.store.writes.Load(); n != 0 {
				t.Errorf("store saw %d writes, want 0", n)
			}
		})
	}
}

func TestCreateEntry_UnknownKeywordID(t *testing.T) {
	f := newFixture(t, testKey)
	_, err := f.svc.CreateEntry(context.Background(), testKey, domain.EntryInput{KeywordID: "missing", Content: "x"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdateEntry_KeepsKeyword(t *testing.T) {
	f := newFixture(t, testKey)
	ctx := context.Background()
	e, err := f.svc.CreateEntry(ctx, testKey, domain.EntryInput{KeywordName: "Go", Title: "T", Content: "a"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.UpdateEntry(ctx, testKey, e.ID, domain.EntryPatch{Title: strPtr(""), Content: strPtr("b")})
	if err != nil {
		t.Fatalf("UpdateEntry() error = %v", err)
	}
	if got.KeywordID != e.KeywordID {
		t.Error("an entry never moves to another keyword")
	}
	if got.Title != nil {
		t.Errorf("Title = %q, an empty title is stored as null", *got.Title)
	}
	if got.Content != "b" || !got.UpdatedAt.After(e.UpdatedAt) {
		t.Errorf("got %+v", got)
	}
}

func TestDeleteEntry_KeepsKeyword(t *testing.T) {
	f := newFixture(t, testKey)
	ctx := context.Background()
	e, err := f.svc.CreateEntry(ctx, testKey, domain.EntryInput{KeywordName: "Go", Content: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteEntry(ctx, testKey, e.ID); err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}

	k, err := f.svc.GetKeyword(ctx, e.KeywordID)
	if err != nil {
		t.Fatalf("keyword should survive its entry: %v", err)
	}
	if k.EntryCount != 0 {
		t.Errorf("EntryCount = %d, want 0", k.EntryCount)
	}
}

func TestDeleteKeyword_Cascade(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("%d entries", n), func(t *testing.T) {
			f := newFixture(t, testKey)
			ctx := context.Background()

			k, _, err := f.svc.CreateKeyword(ctx, testKey, "Doomed", nil)
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i < n; i++ {
				if _, err := f.svc.CreateEntry(ctx, testKey, domain.EntryInput{KeywordID: k.ID, Content: fmt.Sprintf("e%d", i)}); err != nil {
					t.Fatal(err)
				}
			}

			removed, err := f.svc.DeleteKeyword(ctx, testKey, k.ID)
			if err != nil {
				t.Fatalf("DeleteKeyword() error = %v", err)
			}
			if removed != n {
				t.Errorf("removed = %d, want %d", removed, n)
			}
			entries, _ := f.svc.ListEntries(ctx, k.ID)
			if len(entries) != 0 {
				t.Errorf("%d entries still reference the keyword", len(entries))
			}
			if _, err := f.svc.GetKeyword(ctx, k.ID); !errors.Is(err, domain.ErrNotFound) {
				t.Errorf("GetKeyword() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestListKeywords_CountsEveryKeyword(t *testing.T) {
	f := newFixture(t, testKey)
	ctx := context.Background()

	want := map[string]int{}
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("kw-%02d", i)
		want[name] = i % 4
		for j := 0; j < i%4; j++ {
			if _, err := f.svc.CreateEntry(ctx, testKey, domain.EntryInput{KeywordName: name, Content: "x"}); err != nil {
				t.Fatal(err)
			}
		}
		if i%4 == 0 {
			if _, _, err := f.svc.CreateKeyword(ctx, testKey, name, nil); err != nil {
				t.Fatal(err)
			}
		}
	}

	list, err := f.svc.ListKeywords(ctx, domain.KeywordFilter{SortBy: domain.KeywordSortName, SortOrder: domain.SortAsc})
	if err != nil {
		t.Fatalf("ListKeywords() error = %v", err)
	}
	if len(list) != 20 {
		t.Fatalf("len = %d, want 20", len(list))
	}
	for _, k := range list {
		if k.EntryCount != want[k.Name] {
			t.Errorf("%s: EntryCount = %d, want %d", k.Name, k.EntryCount, want[k.Name])
		}
	}
	if list[0].Name != "kw-00" {
		t.Errorf("first = %s, want kw-00 (name asc)", list[0].Name)
	}
}

// ─────────────────────────────────────────────────────────────────
// Invalidation and failures
// ─────────────────────────────────────────────────────────────────

func TestInvalidation(t *testing.T) {
	f := newFixture(t, testKey)
	ctx := context.Background()

	b := f.bookmark(t, "https://a.com", "A")
	assertViews(t, f.rec, domain.ViewBookmarks)

	f.rec.reset()
	if _, err := f.svc.TogglePin(ctx, testKey, b.ID, true); err != nil {
		t.Fatal(err)
	}
	assertViews(t, f.rec, domain.ViewBookmarks)

	f.rec.reset()
	e, err := f.svc.CreateEntry(ctx, testKey, domain.EntryInput{KeywordName: "Go", Content: "x"})
	if err != nil {
		t.Fatal(err)
	}
	// New keyword and new entry each invalidate both docs views.
	if len(f.rec.invalidated) != 2 {
		t.Errorf("invalidations = %v, want 2", f.rec.invalidated)
	}

	f.rec.reset()
	if err := f.svc.DeleteEntry(ctx, testKey, e.ID); err != nil {
		t.Fatal(err)
	}
	assertViews(t, f.rec, domain.ViewKeywords, domain.ViewEntries)

	f.rec.reset()
	if err := f.svc.DeleteBookmark(ctx, testKey, "missing"); err == nil {
		t.Fatal("expected not found")
	}
	if len(f.rec.invalidated) != 0 || len(f.rec.notified) != 0 {
		t.Error("failed mutations must not invalidate")
	}
}

func assertViews(t *testing.T, r *recorder, want ...domain.View) {
	t.Helper()
	if len(r.invalidated) != 1 {
		t.Fatalf("invalidations = %v, want exactly one", r.invalidated)
	}
	got := r.invalidated[0]
	if len(got) != len(want) {
		t.Fatalf("views = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("views = %v, want %v", got, want)
		}
	}
	if len(r.notified) != len(want) {
		t.Errorf("notified = %v, want %v", r.notified, want)
	}
}

func TestStoreUnavailable(t *testing.T) {
	f := newFixture(t, testKey)
	f.store.fail = errors.New("connection refused")

	_, err := f.svc.CreateBookmark(context.Background(), testKey, domain.BookmarkInput{URL: "https://a.com", Title: "A"})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("error = %v, want ErrStoreUnavailable", err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Error("transport failures must not look like not found")
	}
	if len(f.rec.invalidated) != 0 {
		t.Error("failed writes must not invalidate")
	}
}

func ids(list []*domain.Bookmark) []string {
	out := make([]string, len(list))
	for i, b := range list {
		out[i] = b.ID
	}
	return out
}

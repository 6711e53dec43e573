package data

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/gieok/internal/accesskey"
	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/logger"
	"github.com/MrSnakeDoc/gieok/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/gieok/internal/store/redis"
)

type lookupCounter struct {
	nopRecorder
	hits, misses int
}

func (c *lookupCounter) CacheLookup(_ domain.View, hit bool) {
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

func TestListKeywords_ThroughRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	log := logger.NewNop()
	counter := &lookupCounter{}
	svc := New(Options{
		Tenant:  testTenant,
		Store:   memory.New(testTenant),
		Gate:    accesskey.New(testKey, log, nil),
		Cache:   redisstore.NewStore(client, testTenant, 0, log),
		Metrics: counter,
		Log:     log,
	})
	ctx := context.Background()

	if _, err := svc.CreateEntry(ctx, testKey, domain.EntryInput{KeywordName: "Go", Content: "x"}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		list, err := svc.ListKeywords(ctx, domain.KeywordFilter{})
		if err != nil {
			t.Fatalf("ListKeywords() error = %v", err)
		}
		if len(list) != 1 || list[0].EntryCount != 1 {
			t.Fatalf("list = %+v", list)
		}
	}
	if counter.misses != 1 || counter.hits != 1 {
		t.Errorf("misses=%d hits=%d, want 1/1", counter.misses, counter.hits)
	}

	// A new entry must be visible right away, with the updated count.
	list, _ := svc.ListKeywords(ctx, domain.KeywordFilter{})
	if _, err := svc.CreateEntry(ctx, testKey, domain.EntryInput{KeywordID: list[0].ID, Content: "y"}); err != nil {
		t.Fatal(err)
	}
	list, err := svc.ListKeywords(ctx, domain.KeywordFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if list[0].EntryCount != 2 {
		t.Errorf("EntryCount = %d after invalidation, want 2", list[0].EntryCount)
	}
}

func TestListBookmarks_RedisDownFallsBackToStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	log := logger.NewNop()
	svc := New(Options{
		Tenant: testTenant,
		Store:  memory.New(testTenant),
		Gate:   accesskey.New(testKey, log, nil),
		Cache:  redisstore.NewStore(client, testTenant, 0, log),
		Log:    log,
	})
	ctx := context.Background()

	mr.Close()

	// With Redis gone the write still succeeds and reads hit the store.
	if _, err := svc.CreateBookmark(ctx, testKey, domain.BookmarkInput{URL: "https://a.com", Title: "A"}); err != nil {
		t.Fatalf("CreateBookmark() error = %v", err)
	}
	list, err := svc.ListBookmarks(ctx, domain.BookmarkFilter{})
	if err != nil {
		t.Fatalf("ListBookmarks() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("len = %d, want 1", len(list))
	}
}

package data

import (
	"context"

	"github.com/MrSnakeDoc/gieok/internal/domain"
)

const entityBookmark = "bookmark"

// CreateBookmark stores a new unpinned bookmark owned by the tenant.
func (s *Service) CreateBookmark(ctx context.Context, key string, in domain.BookmarkInput) (*domain.Bookmark, error) {
	var out *domain.Bookmark
	err := s.mutate(entityBookmark, "create", key, func() error {
		if err := s.validate.BookmarkInput(&in); err != nil {
			return err
		}

		now := s.now()
		b := &domain.Bookmark{
			ID:          s.newID(),
			Owner:       s.tenant,
			URL:         in.URL,
			Title:       in.Title,
			Description: in.Description,
			Tags:        in.Tags,
			Pinned:      false,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.timed("insert_bookmark", func() error { return s.store.InsertBookmark(ctx, b) }); err != nil {
			return err
		}
		out = b
		s.invalidate(ctx, domain.OpInsert, b.ID, domain.BookmarkViews())
		return nil
	})
	return out, err
}

// UpdateBookmark applies the provided fields and bumps updated_at.
func (s *Service) UpdateBookmark(ctx context.Context, key, id string, p domain.BookmarkPatch) (*domain.Bookmark, error) {
	var out *domain.Bookmark
	err := s.mutate(entityBookmark, "update", key, func() error {
		if err := s.validate.BookmarkPatch(&p); err != nil {
			return err
		}
		err := s.timed("update_bookmark", func() (err error) {
			out, err = s.store.UpdateBookmark(ctx, id, p, s.now())
			return err
		})
		if err != nil {
			return err
		}
		s.invalidate(ctx, domain.OpUpdate, id, domain.BookmarkViews())
		return nil
	})
	return out, err
}

// TogglePin sets the pin flag to pinned.
func (s *Service) TogglePin(ctx context.Context, key, id string, pinned bool) (*domain.Bookmark, error) {
	var out *domain.Bookmark
	err := s.mutate(entityBookmark, "pin", key, func() error {
		err := s.timed("pin_bookmark", func() (err error) {
			out, err = s.store.SetPinned(ctx, id, pinned, s.now())
			return err
		})
		if err != nil {
			return err
		}
		s.invalidate(ctx, domain.OpUpdate, id, domain.BookmarkViews())
		return nil
	})
	return out, err
}

func (s *Service) DeleteBookmark(ctx context.Context, key, id string) error {
	return s.mutate(entityBookmark, "delete", key, func() error {
		if err := s.timed("delete_bookmark", func() error { return s.store.DeleteBookmark(ctx, id) }); err != nil {
			return err
		}
		s.invalidate(ctx, domain.OpDelete, id, domain.BookmarkViews())
		return nil
	})
}

func (s *Service) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	var b *domain.Bookmark
	err := s.timed("get_bookmark", func() (err error) {
		b, err = s.store.GetBookmark(ctx, id)
		return err
	})
	return b, err
}

// ListBookmarks returns pinned bookmarks first, then the requested order.
func (s *Service) ListBookmarks(ctx context.Context, f domain.BookmarkFilter) ([]*domain.Bookmark, error) {
	f = f.WithDefaults()
	return cachedList(ctx, s, domain.ViewBookmarks, f, func() ([]*domain.Bookmark, error) {
		var list []*domain.Bookmark
		err := s.timed("list_bookmarks", func() (err error) {
			list, err = s.store.ListBookmarks(ctx, f)
			return err
		})
		return list, err
	})
}

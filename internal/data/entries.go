package data

import (
	"context"

	"github.com/MrSnakeDoc/gieok/internal/domain"
)

const entityEntry = "entry"

// CreateEntry stores an entry under an existing keyword id, or under the
// keyword named in.KeywordName, which is created when missing.
func (s *Service) CreateEntry(ctx context.Context, key string, in domain.EntryInput) (*domain.Entry, error) {
	var out *domain.Entry
	err := s.mutate(entityEntry, "create", key, func() error {
		if err := s.validate.EntryInput(&in); err != nil {
			return err
		}

		keywordID := in.KeywordID
		if in.KeywordName != "" {
			k, _, err := s.keywordOrReuse(ctx, in.KeywordName, in.Tags)
			if err != nil {
				return err
			}
			keywordID = k.ID
		}

		now := s.now()
		e := &domain.Entry{
			ID:        s.newID(),
			KeywordID: keywordID,
			Title:     optional(in.Title),
			Content:   in.Content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.timed("insert_entry", func() error { return s.store.InsertEntry(ctx, e) }); err != nil {
			return err
		}
		out = e
		s.invalidate(ctx, domain.OpInsert, e.ID, domain.DocsViews())
		return nil
	})
	return out, err
}

// UpdateEntry changes title or content. The owning keyword never changes.
func (s *Service) UpdateEntry(ctx context.Context, key, id string, p domain.EntryPatch) (*domain.Entry, error) {
	var out *domain.Entry
	err := s.mutate(entityEntry, "update", key, func() error {
		if err := s.validate.EntryPatch(&p); err != nil {
			return err
		}
		err := s.timed("update_entry", func() (err error) {
			out, err = s.store.UpdateEntry(ctx, id, p, s.now())
			return err
		})
		if err != nil {
			return err
		}
		s.invalidate(ctx, domain.OpUpdate, id, domain.DocsViews())
		return nil
	})
	return out, err
}

// DeleteEntry removes one entry and leaves its keyword in place.
func (s *Service) DeleteEntry(ctx context.Context, key, id string) error {
	return s.mutate(entityEntry, "delete", key, func() error {
		if err := s.timed("delete_entry", func() error { return s.store.DeleteEntry(ctx, id) }); err != nil {
			return err
		}
		s.invalidate(ctx, domain.OpDelete, id, domain.DocsViews())
		return nil
	})
}

func (s *Service) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	var e *domain.Entry
	err := s.timed("get_entry", func() (err error) {
		e, err = s.store.GetEntry(ctx, id)
		return err
	})
	return e, err
}

// ListEntries returns the keyword's entries, newest first.
func (s *Service) ListEntries(ctx context.Context, keywordID string) ([]*domain.Entry, error) {
	filter := struct {
		KeywordID string `json:"keyword_id"`
	}{keywordID}

	return cachedList(ctx, s, domain.ViewEntries, filter, func() ([]*domain.Entry, error) {
		var list []*domain.Entry
		err := s.timed("list_entries", func() (err error) {
			list, err = s.store.ListEntries(ctx, keywordID)
			return err
		})
		return list, err
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package data

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/logger"
)

const (
	entityKeyword = "keyword"

	// maxCountQueries bounds the concurrent entry count queries of one list.
	maxCountQueries = 8
)

// CreateKeyword returns the keyword named name, creating it with tags when
// it does not exist yet. An existing keyword keeps its own tags.
func (s *Service) CreateKeyword(ctx context.Context, key, name string, tags []string) (*domain.Keyword, bool, error) {
	var (
		out     *domain.Keyword
		created bool
	)
	err := s.mutate(entityKeyword, "create", key, func() error {
		clean, err := s.validate.KeywordName(name)
		if err != nil {
			return err
		}
		out, created, err = s.keywordOrReuse(ctx, clean, tags)
		return err
	})
	return out, created, err
}

// keywordOrReuse expects a validated name and an already passed gate.
func (s *Service) keywordOrReuse(ctx context.Context, name string, tags []string) (*domain.Keyword, bool, error) {
	now := s.now()
	k := &domain.Keyword{
		ID:        s.newID(),
		Owner:     s.tenant,
		Name:      name,
		Tags:      domain.NormalizeTags(tags),
		CreatedAt: now,
		UpdatedAt: now,
	}

	var (
		out     *domain.Keyword
		created bool
	)
	err := s.timed("create_keyword", func() (err error) {
		out, created, err = s.store.CreateKeywordIfAbsent(ctx, k)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.invalidate(ctx, domain.OpInsert, out.ID, domain.DocsViews())
	} else if len(k.Tags) > 0 && !domain.SameTags(out.Tags, k.Tags) {
		s.log.Debug("keyword exists, requested tags ignored",
			logger.String("keyword_id", out.ID),
			logger.Strings("requested", k.Tags),
		)
	}
	return out, created, nil
}

func (s *Service) GetKeyword(ctx context.Context, id string) (*domain.Keyword, error) {
	var k *domain.Keyword
	err := s.timed("get_keyword", func() (err error) {
		k, err = s.store.GetKeyword(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return k, s.countEntries(ctx, []*domain.Keyword{k})
}

// GetKeywordByName resolves the /docs/{keyword} page.
func (s *Service) GetKeywordByName(ctx context.Context, name string) (*domain.Keyword, error) {
	var k *domain.Keyword
	err := s.timed("get_keyword_by_name", func() (err error) {
		k, err = s.store.GetKeywordByName(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return k, s.countEntries(ctx, []*domain.Keyword{k})
}

// ListKeywords returns the filtered keywords, each annotated with its entry
// count. Counts are fetched concurrently and all of them finish before the
// list is returned.
func (s *Service) ListKeywords(ctx context.Context, f domain.KeywordFilter) ([]*domain.Keyword, error) {
	f = f.WithDefaults()
	return cachedList(ctx, s, domain.ViewKeywords, f, func() ([]*domain.Keyword, error) {
		var list []*domain.Keyword
		err := s.timed("list_keywords", func() (err error) {
			list, err = s.store.ListKeywords(ctx, f)
			return err
		})
		if err != nil {
			return nil, err
		}
		if err := s.countEntries(ctx, list); err != nil {
			return nil, err
		}
		return list, nil
	})
}

// DeleteKeyword removes the keyword together with its entries and reports
// how many entries were removed.
func (s *Service) DeleteKeyword(ctx context.Context, key, id string) (int, error) {
	var removed int
	err := s.mutate(entityKeyword, "delete", key, func() error {
		err := s.timed("delete_keyword", func() (err error) {
			removed, err = s.store.DeleteKeyword(ctx, id)
			return err
		})
		if err != nil {
			return err
		}
		s.invalidate(ctx, domain.OpDelete, id, domain.DocsViews())
		return nil
	})
	return removed, err
}

func (s *Service) countEntries(ctx context.Context, keywords []*domain.Keyword) error {
	if len(keywords) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxCountQueries)
	for _, k := range keywords {
		g.Go(func() error {
			return s.timed("count_entries", func() error {
				n, err := s.store.CountEntries(gctx, k.ID)
				if err != nil {
					return err
				}
				k.EntryCount = n
				return nil
			})
		})
	}
	return g.Wait()
}

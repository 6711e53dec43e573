package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/MrSnakeDoc/gieok/internal/domain"
)

const bookmarkColumns = `id, user_id, url, title, description, tags, is_pinned, created_at, updated_at`

// bookmarkSortColumns whitelists ORDER BY targets.
var bookmarkSortColumns = map[domain.BookmarkSortField]string{
	domain.BookmarkSortCreatedAt: "created_at",
	domain.BookmarkSortUpdatedAt: "updated_at",
	domain.BookmarkSortTitle:     "lower(title)",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row rowScanner) (*domain.Bookmark, error) {
	var (
		b    domain.Bookmark
		desc sql.NullString
	)
	if err := row.Scan(
		&b.ID,
		&b.Owner,
		&b.URL,
		&b.Title,
		&desc,
		pq.Array(&b.Tags),
		&b.Pinned,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Description = fromNull(desc)
	b.Tags = tagsOrEmpty(b.Tags)
	return &b, nil
}

func (s *Store) InsertBookmark(ctx context.Context, b *domain.Bookmark) error {
	query := `
		INSERT INTO links (` + bookmarkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		b.ID,
		b.Owner,
		b.URL,
		b.Title,
		nullString(b.Description),
		pq.Array(tagsOrEmpty(b.Tags)),
		b.Pinned,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return translate("insert link", err)
	}
	return nil
}

func (s *Store) UpdateBookmark(ctx context.Context, id string, p domain.BookmarkPatch, at time.Time) (*domain.Bookmark, error) {
	var a args
	sets := make([]string, 0, 5)
	if p.URL != nil {
		sets = append(sets, "url = "+a.add(*p.URL))
	}
	if p.Title != nil {
		sets = append(sets, "title = "+a.add(*p.Title))
	}
	if p.Description != nil {
		var desc *string
		if *p.Description != "" {
			desc = p.Description
		}
		sets = append(sets, "description = "+a.add(nullString(desc)))
	}
	if p.Tags != nil {
		sets = append(sets, "tags = "+a.add(pq.Array(tagsOrEmpty(*p.Tags))))
	}
	sets = append(sets, "updated_at = "+a.add(at))

	// #nosec G202 -- column names are fixed, values are parameters
	query := `UPDATE links SET ` + strings.Join(sets, ", ") +
		` WHERE id = ` + a.add(id) + ` AND user_id = ` + a.add(s.tenant) +
		` RETURNING ` + bookmarkColumns

	b, err := scanBookmark(s.db.QueryRowContext(ctx, query, a...))
	if err != nil {
		return nil, translate("update link", err)
	}
	return b, nil
}

func (s *Store) SetPinned(ctx context.Context, id string, pinned bool, at time.Time) (*domain.Bookmark, error) {
	query := `
		UPDATE links SET is_pinned = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4
		RETURNING ` + bookmarkColumns

	b, err := scanBookmark(s.db.QueryRowContext(ctx, query, pinned, at, id, s.tenant))
	if err != nil {
		return nil, translate("pin link", err)
	}
	return b, nil
}

func (s *Store) DeleteBookmark(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE id = $1 AND user_id = $2`, id, s.tenant)
	if err != nil {
		return translate("delete link", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete link %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	query := `SELECT ` + bookmarkColumns + ` FROM links WHERE id = $1 AND user_id = $2`
	b, err := scanBookmark(s.db.QueryRowContext(ctx, query, id, s.tenant))
	if err != nil {
		return nil, translate("get link", err)
	}
	return b, nil
}

func (s *Store) ListBookmarks(ctx context.Context, f domain.BookmarkFilter) ([]*domain.Bookmark, error) {
	f = f.WithDefaults()

	var a args
	where := "user_id = " + a.add(s.tenant)
	if f.Query != "" {
		p := a.add(likePattern(f.Query))
		where += " AND (title ILIKE " + p + " OR url ILIKE " + p + ")"
	}
	if len(f.Tags) > 0 {
		where += " AND tags && " + a.add(pq.Array(f.Tags))
	}

	// #nosec G202 -- ORDER BY column comes from a whitelist
	query := `SELECT ` + bookmarkColumns + ` FROM links WHERE ` + where +
		` ORDER BY is_pinned DESC, ` + bookmarkSortColumns[f.SortBy] + ` ` + direction(f.SortOrder) + `, id`

	rows, err := s.db.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, translate("query links", err)
	}
	defer rows.Close()

	out := make([]*domain.Bookmark, 0)
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, translate("scan link", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("iterate links", err)
	}
	return out, nil
}

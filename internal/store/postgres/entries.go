package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/gieok/internal/domain"
)

const entryColumns = `e.id, e.keyword_id, e.title, e.content, e.created_at, e.updated_at`

func scanEntry(row rowScanner) (*domain.Entry, error) {
	var (
		e     domain.Entry
		title sql.NullString
	)
	if err := row.Scan(&e.ID, &e.KeywordID, &title, &e.Content, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Title = fromNull(title)
	return &e, nil
}

// InsertEntry only writes when the keyword exists for this tenant.
func (s *Store) InsertEntry(ctx context.Context, e *domain.Entry) error {
	query := `
		INSERT INTO keyword_entries (id, keyword_id, title, content, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE EXISTS (SELECT 1 FROM keywords WHERE id = $2 AND user_id = $7)
	`
	res, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.KeywordID,
		nullString(e.Title),
		e.Content,
		e.CreatedAt,
		e.UpdatedAt,
		s.tenant,
	)
	if err != nil {
		return translate("insert entry", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("insert entry: keyword %s: %w", e.KeywordID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) UpdateEntry(ctx context.Context, id string, p domain.EntryPatch, at time.Time) (*domain.Entry, error) {
	var a args
	sets := make([]string, 0, 3)
	if p.Title != nil {
		var title *string
		if *p.Title != "" {
			title = p.Title
		}
		sets = append(sets, "title = "+a.add(nullString(title)))
	}
	if p.Content != nil {
		sets = append(sets, "content = "+a.add(*p.Content))
	}
	sets = append(sets, "updated_at = "+a.add(at))

	// #nosec G202 -- column names are fixed, values are parameters
	query := `UPDATE keyword_entries e SET ` + strings.Join(sets, ", ") +
		` FROM keywords k WHERE e.id = ` + a.add(id) +
		` AND k.id = e.keyword_id AND k.user_id = ` + a.add(s.tenant) +
		` RETURNING ` + entryColumns

	e, err := scanEntry(s.db.QueryRowContext(ctx, query, a...))
	if err != nil {
		return nil, translate("update entry", err)
	}
	return e, nil
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM keyword_entries e
		USING keywords k
		WHERE e.id = $1 AND k.id = e.keyword_id AND k.user_id = $2`,
		id, s.tenant,
	)
	if err != nil {
		return translate("delete entry", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete entry %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	query := `SELECT ` + entryColumns + `
		FROM keyword_entries e
		JOIN keywords k ON k.id = e.keyword_id
		WHERE e.id = $1 AND k.user_id = $2`
	e, err := scanEntry(s.db.QueryRowContext(ctx, query, id, s.tenant))
	if err != nil {
		return nil, translate("get entry", err)
	}
	return e, nil
}

func (s *Store) ListEntries(ctx context.Context, keywordID string) ([]*domain.Entry, error) {
	query := `SELECT ` + entryColumns + `
		FROM keyword_entries e
		JOIN keywords k ON k.id = e.keyword_id
		WHERE e.keyword_id = $1 AND k.user_id = $2
		ORDER BY e.created_at DESC, e.id`

	rows, err := s.db.QueryContext(ctx, query, keywordID, s.tenant)
	if err != nil {
		return nil, translate("query entries", err)
	}
	defer rows.Close()

	out := make([]*domain.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, translate("scan entry", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("iterate entries", err)
	}
	return out, nil
}

// CountEntries is the per-keyword aggregate behind entry_count.
func (s *Store) CountEntries(ctx context.Context, keywordID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM keyword_entries WHERE keyword_id = $1`, keywordID,
	).Scan(&n)
	if err != nil {
		return 0, translate("count entries", err)
	}
	return n, nil
}

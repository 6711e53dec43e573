package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/logger"
)

const keywordColumns = `id, user_id, name, description, tags, created_at, updated_at`

var keywordSortColumns = map[domain.KeywordSortField]string{
	domain.KeywordSortUpdatedAt: "updated_at",
	domain.KeywordSortCreatedAt: "created_at",
	domain.KeywordSortName:      "lower(name)",
}

func scanKeyword(row rowScanner) (*domain.Keyword, error) {
	var (
		k    domain.Keyword
		desc sql.NullString
	)
	if err := row.Scan(
		&k.ID,
		&k.Owner,
		&k.Name,
		&desc,
		pq.Array(&k.Tags),
		&k.CreatedAt,
		&k.UpdatedAt,
	); err != nil {
		return nil, err
	}
	k.Description = fromNull(desc)
	k.Tags = tagsOrEmpty(k.Tags)
	return &k, nil
}

// CreateKeywordIfAbsent relies on the (user_id, name) unique constraint.
// When the insert is skipped the existing row is read back unchanged.
func (s *Store) CreateKeywordIfAbsent(ctx context.Context, k *domain.Keyword) (*domain.Keyword, bool, error) {
	insert := `
		INSERT INTO keywords (` + keywordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, name) DO NOTHING
		RETURNING ` + keywordColumns

	created, err := scanKeyword(s.db.QueryRowContext(ctx, insert,
		k.ID,
		s.tenant,
		k.Name,
		nullString(k.Description),
		pq.Array(tagsOrEmpty(k.Tags)),
		k.CreatedAt,
		k.UpdatedAt,
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, translate("insert keyword", err)
	}

	existing, err := s.GetKeywordByName(ctx, k.Name)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *Store) GetKeyword(ctx context.Context, id string) (*domain.Keyword, error) {
	query := `SELECT ` + keywordColumns + ` FROM keywords WHERE id = $1 AND user_id = $2`
	k, err := scanKeyword(s.db.QueryRowContext(ctx, query, id, s.tenant))
	if err != nil {
		return nil, translate("get keyword", err)
	}
	return k, nil
}

func (s *Store) GetKeywordByName(ctx context.Context, name string) (*domain.Keyword, error) {
	query := `SELECT ` + keywordColumns + ` FROM keywords WHERE user_id = $1 AND name = $2`
	k, err := scanKeyword(s.db.QueryRowContext(ctx, query, s.tenant, name))
	if err != nil {
		return nil, translate("get keyword by name", err)
	}
	return k, nil
}

func (s *Store) ListKeywords(ctx context.Context, f domain.KeywordFilter) ([]*domain.Keyword, error) {
	f = f.WithDefaults()

	var a args
	where := "user_id = " + a.add(s.tenant)
	if f.Name != "" {
		where += " AND name ILIKE " + a.add(likePattern(f.Name))
	}
	if len(f.Tags) > 0 {
		where += " AND tags && " + a.add(pq.Array(f.Tags))
	}

	// #nosec G202 -- ORDER BY column comes from a whitelist
	query := `SELECT ` + keywordColumns + ` FROM keywords WHERE ` + where +
		` ORDER BY ` + keywordSortColumns[f.SortBy] + ` ` + direction(f.SortOrder) + `, id`

	rows, err := s.db.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, translate("query keywords", err)
	}
	defer rows.Close()

	out := make([]*domain.Keyword, 0)
	for rows.Next() {
		k, err := scanKeyword(rows)
		if err != nil {
			return nil, translate("scan keyword", err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("iterate keywords", err)
	}
	return out, nil
}

// DeleteKeyword removes entries first, then the keyword, inside one
// transaction. The foreign key cascade covers writers that bypass this.
func (s *Store) DeleteKeyword(ctx context.Context, id string) (removed int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, translate("begin delete keyword", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Warn("rollback delete keyword failed", logger.Error(rbErr))
			}
		}
	}()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM keyword_entries e
		USING keywords k
		WHERE e.keyword_id = $1 AND k.id = e.keyword_id AND k.user_id = $2`,
		id, s.tenant,
	)
	if err != nil {
		return 0, translate("delete keyword entries", err)
	}
	n, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM keywords WHERE id = $1 AND user_id = $2`, id, s.tenant)
	if err != nil {
		return 0, translate("delete keyword", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		err = fmt.Errorf("delete keyword %s: %w", id, domain.ErrNotFound)
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, translate("commit delete keyword", err)
	}
	return int(n), nil
}

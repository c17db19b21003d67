package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/recapd/recapd/internal/models"
)

// TagRepo owns the global tag namespace and the links that attach tags to
// frames and audio chunks. Links have set semantics: the composite primary
// key makes every attach idempotent.
type TagRepo struct {
	db *DB
}

func NewTagRepo(db *DB) *TagRepo {
	return &TagRepo{db: db}
}

// Attach links the given tags to the target and returns how many links
// were actually created. Tags already present count zero.
func (r *TagRepo) Attach(ctx context.Context, q Querier, kind models.TagKind, targetID int64, tags []string) (int64, error) {
	var attached int64
	for _, tag := range tags {
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO tags (name) VALUES (?)`, tag); err != nil {
			return attached, classify(fmt.Errorf("failed to insert tag %q: %w", tag, err))
		}

		result, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO tag_links (tag_name, target_kind, target_id) VALUES (?, ?, ?)`,
			tag, string(kind), targetID)
		if err != nil {
			return attached, classify(fmt.Errorf("failed to link tag %q: %w", tag, err))
		}
		n, err := result.RowsAffected()
		if err != nil {
			return attached, fmt.Errorf("failed to count linked rows: %w", err)
		}
		attached += n
	}
	return attached, nil
}

// Detach removes the given tag links from the target and returns how many
// were actually deleted. Absent tags are a no-op.
func (r *TagRepo) Detach(ctx context.Context, q Querier, kind models.TagKind, targetID int64, tags []string) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}

	args := []any{string(kind), targetID}
	for _, tag := range tags {
		args = append(args, tag)
	}

	result, err := q.ExecContext(ctx,
		`DELETE FROM tag_links
		 WHERE target_kind = ? AND target_id = ? AND tag_name IN (`+placeholders(len(tags))+`)`,
		args...)
	if err != nil {
		return 0, classify(fmt.Errorf("failed to detach tags: %w", err))
	}
	return result.RowsAffected()
}

// TagsFor returns the current tag set of a target, sorted by name.
func (r *TagRepo) TagsFor(ctx context.Context, q Querier, kind models.TagKind, targetID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT tag_name FROM tag_links WHERE target_kind = ? AND target_id = ? ORDER BY tag_name`,
		string(kind), targetID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query tags: %w", err))
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, classify(fmt.Errorf("failed to scan tag: %w", err))
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

// tagContainmentCond builds a condition requiring ALL named tags to be
// linked to the row identified by idColumn.
func tagContainmentCond(idColumn string, kind models.TagKind, tags []string) (string, []any) {
	args := []any{string(kind)}
	for _, tag := range tags {
		args = append(args, tag)
	}
	args = append(args, len(tags))

	cond := idColumn + ` IN (
		SELECT target_id FROM tag_links
		WHERE target_kind = ? AND tag_name IN (` + placeholders(len(tags)) + `)
		GROUP BY target_id
		HAVING COUNT(DISTINCT tag_name) = ?)`
	return cond, args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

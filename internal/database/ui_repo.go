package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// UIRepo owns the ui_events table, the third entity parallel to frames and
// audio chunks. UI rows carry no tags.
type UIRepo struct {
	db *DB
}

func NewUIRepo(db *DB) *UIRepo {
	return &UIRepo{db: db}
}

type UIEventParams struct {
	Text       string
	AppName    *string
	WindowName *string
	Timestamp  *time.Time
}

type UIFilter struct {
	Query     string
	Start     *time.Time
	End       *time.Time
	MinLength int
	MaxLength int
}

type UIHit struct {
	ID         int64
	Text       string
	Timestamp  time.Time
	AppName    string
	WindowName string
}

func (r *UIRepo) InsertUIEvent(ctx context.Context, q Querier, params UIEventParams) (int64, error) {
	ts := time.Now().UTC()
	if params.Timestamp != nil {
		ts = params.Timestamp.UTC()
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO ui_events (text, app_name, window_name, timestamp) VALUES (?, ?, ?, ?)`,
		params.Text, params.AppName, params.WindowName, ts)
	if err != nil {
		return 0, classify(fmt.Errorf("failed to insert ui event: %w", err))
	}
	return result.LastInsertId()
}

func (r *UIRepo) FindUI(ctx context.Context, q Querier, filter UIFilter, limit, offset int) ([]UIHit, int64, error) {
	where, args := buildUIWhere(filter)

	var total int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM ui_events u`+where, args...).Scan(&total); err != nil {
		return nil, 0, classify(fmt.Errorf("failed to count ui events: %w", err))
	}

	query := `
		SELECT u.id, u.text, u.timestamp, COALESCE(u.app_name, ''), COALESCE(u.window_name, '')
		FROM ui_events u` + where + `
		ORDER BY u.timestamp DESC, u.id ASC
		LIMIT ? OFFSET ?`
	rows, err := q.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, classify(fmt.Errorf("failed to query ui events: %w", err))
	}
	defer rows.Close()

	var hits []UIHit
	for rows.Next() {
		var h UIHit
		if err := rows.Scan(&h.ID, &h.Text, &h.Timestamp, &h.AppName, &h.WindowName); err != nil {
			return nil, 0, classify(fmt.Errorf("failed to scan ui event: %w", err))
		}
		hits = append(hits, h)
	}
	return hits, total, rows.Err()
}

func buildUIWhere(filter UIFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Query != "" {
		conds = append(conds, "LOWER(u.text) LIKE '%' || LOWER(?) || '%'")
		args = append(args, filter.Query)
	}
	if filter.Start != nil {
		conds = append(conds, "u.timestamp >= ?")
		args = append(args, filter.Start.UTC())
	}
	if filter.End != nil {
		conds = append(conds, "u.timestamp <= ?")
		args = append(args, filter.End.UTC())
	}
	if filter.MinLength > 0 {
		conds = append(conds, "length(u.text) >= ?")
		args = append(args, filter.MinLength)
	}
	if filter.MaxLength > 0 {
		conds = append(conds, "length(u.text) <= ?")
		args = append(args, filter.MaxLength)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

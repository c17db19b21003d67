package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/recapd/recapd/internal/models"
)

// FrameRepo owns the vision side of the index: video_chunks, frames and
// their ocr_text rows.
type FrameRepo struct {
	db *DB
}

func NewFrameRepo(db *DB) *FrameRepo {
	return &FrameRepo{db: db}
}

// FrameParams are the caller-supplied fields of a new frame. Timestamp
// defaults to the current wall clock when nil.
type FrameParams struct {
	DeviceName   string
	VideoChunkID *int64
	Timestamp    *time.Time
	AppName      *string
	WindowName   *string
	Focused      bool
	BrowserURL   *string
}

// FrameFilter narrows the vision result set. Zero values mean "no
// constraint".
type FrameFilter struct {
	Query      string
	Tags       []string
	AppName    string
	WindowName string
	FrameName  string
	Start      *time.Time
	End        *time.Time
	MinLength  int
	MaxLength  int
}

// FrameHit is one filtered vision row together with its OCR text and the
// source video file path.
type FrameHit struct {
	FrameID    int64
	Text       string
	Timestamp  time.Time
	FilePath   string
	AppName    string
	WindowName string
	Focused    bool
	BrowserURL string
}

func (r *FrameRepo) InsertVideoChunk(ctx context.Context, q Querier, filePath, deviceName string) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO video_chunks (file_path, device_name, created_at) VALUES (?, ?, ?)`,
		filePath, deviceName, time.Now().UTC())
	if err != nil {
		return 0, classify(fmt.Errorf("failed to insert video chunk: %w", err))
	}
	return result.LastInsertId()
}

func (r *FrameRepo) InsertFrame(ctx context.Context, q Querier, params FrameParams) (int64, error) {
	ts := time.Now().UTC()
	if params.Timestamp != nil {
		ts = params.Timestamp.UTC()
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO frames (video_chunk_id, device_name, timestamp, app_name, window_name, focused, browser_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		params.VideoChunkID, params.DeviceName, ts,
		params.AppName, params.WindowName, params.Focused, params.BrowserURL)
	if err != nil {
		return 0, classify(fmt.Errorf("failed to insert frame: %w", err))
	}
	return result.LastInsertId()
}

// InsertOcrText records the single OCR result of a frame. A second insert
// for the same frame fails with a Conflict.
func (r *FrameRepo) InsertOcrText(ctx context.Context, q Querier, frameID int64, text, textJSON, engine string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO ocr_text (frame_id, text, text_json, ocr_engine) VALUES (?, ?, ?, ?)`,
		frameID, text, textJSON, engine)
	if err != nil {
		return classify(fmt.Errorf("failed to insert ocr text: %w", err))
	}
	return nil
}

func (r *FrameRepo) FrameExists(ctx context.Context, q Querier, id int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM frames WHERE id = ?`, id).Scan(&one)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, classify(fmt.Errorf("failed to check frame: %w", err))
	}
	return true, nil
}

// FindFrames returns the filtered vision rows ordered by timestamp
// descending then frame id ascending, plus the total count of the filtered
// set. limit and offset apply to the returned rows only.
func (r *FrameRepo) FindFrames(ctx context.Context, q Querier, filter FrameFilter, limit, offset int) ([]FrameHit, int64, error) {
	where, args := buildFrameWhere(filter)

	var total int64
	countQuery := `
		SELECT COUNT(*)
		FROM frames f
		JOIN ocr_text o ON o.frame_id = f.id
		LEFT JOIN video_chunks vc ON vc.id = f.video_chunk_id` + where
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, classify(fmt.Errorf("failed to count frames: %w", err))
	}

	query := `
		SELECT f.id, o.text, f.timestamp, COALESCE(vc.file_path, ''),
		       COALESCE(f.app_name, ''), COALESCE(f.window_name, ''),
		       f.focused, COALESCE(f.browser_url, '')
		FROM frames f
		JOIN ocr_text o ON o.frame_id = f.id
		LEFT JOIN video_chunks vc ON vc.id = f.video_chunk_id` + where + `
		ORDER BY f.timestamp DESC, f.id ASC
		LIMIT ? OFFSET ?`
	rows, err := q.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, classify(fmt.Errorf("failed to query frames: %w", err))
	}
	defer rows.Close()

	var hits []FrameHit
	for rows.Next() {
		var h FrameHit
		if err := rows.Scan(&h.FrameID, &h.Text, &h.Timestamp, &h.FilePath,
			&h.AppName, &h.WindowName, &h.Focused, &h.BrowserURL); err != nil {
			return nil, 0, classify(fmt.Errorf("failed to scan frame: %w", err))
		}
		hits = append(hits, h)
	}
	return hits, total, rows.Err()
}

func buildFrameWhere(filter FrameFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Query != "" {
		conds = append(conds, "LOWER(o.text) LIKE '%' || LOWER(?) || '%'")
		args = append(args, filter.Query)
	}
	if filter.AppName != "" {
		conds = append(conds, "f.app_name = ?")
		args = append(args, filter.AppName)
	}
	if filter.WindowName != "" {
		conds = append(conds, "f.window_name = ?")
		args = append(args, filter.WindowName)
	}
	if filter.FrameName != "" {
		conds = append(conds, "LOWER(vc.file_path) LIKE '%' || LOWER(?) || '%'")
		args = append(args, filter.FrameName)
	}
	if filter.Start != nil {
		conds = append(conds, "f.timestamp >= ?")
		args = append(args, filter.Start.UTC())
	}
	if filter.End != nil {
		conds = append(conds, "f.timestamp <= ?")
		args = append(args, filter.End.UTC())
	}
	if filter.MinLength > 0 {
		conds = append(conds, "length(o.text) >= ?")
		args = append(args, filter.MinLength)
	}
	if filter.MaxLength > 0 {
		conds = append(conds, "length(o.text) <= ?")
		args = append(args, filter.MaxLength)
	}
	if len(filter.Tags) > 0 {
		cond, tagArgs := tagContainmentCond("f.id", models.TagKindVision, filter.Tags)
		conds = append(conds, cond)
		args = append(args, tagArgs...)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}

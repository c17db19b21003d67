package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/recapd/recapd/internal/models"
)

// AudioRepo owns the audio side of the index: audio_chunks and their
// transcriptions.
type AudioRepo struct {
	db *DB
}

func NewAudioRepo(db *DB) *AudioRepo {
	return &AudioRepo{db: db}
}

// TranscriptionParams are the caller-supplied fields of a new
// transcription row.
type TranscriptionParams struct {
	AudioChunkID int64
	Text         string
	OffsetIndex  int64
	EngineTag    string
	Device       models.AudioDevice
	StartTime    *float64
	EndTime      *float64
	SpeakerID    *int64
}

// AudioFilter narrows the audio result set. Zero values mean "no
// constraint".
type AudioFilter struct {
	Query      string
	Tags       []string
	Start      *time.Time
	End        *time.Time
	MinLength  int
	MaxLength  int
	SpeakerIDs []int64
}

// AudioHit is one filtered transcription row together with its source
// chunk's file path.
type AudioHit struct {
	TranscriptionID int64
	ChunkID         int64
	Text            string
	Timestamp       time.Time
	FilePath        string
	OffsetIndex     int64
	DeviceName      string
	IsInput         bool
	StartTime       *float64
	EndTime         *float64
	SpeakerID       *int64
}

func (r *AudioRepo) InsertAudioChunk(ctx context.Context, q Querier, filePath string) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO audio_chunks (file_path, created_at) VALUES (?, ?)`,
		filePath, time.Now().UTC())
	if err != nil {
		return 0, classify(fmt.Errorf("failed to insert audio chunk: %w", err))
	}
	return result.LastInsertId()
}

func (r *AudioRepo) InsertTranscription(ctx context.Context, q Querier, params TranscriptionParams) (int64, error) {
	isInput := params.Device.Type == models.DeviceInput

	result, err := q.ExecContext(ctx, `
		INSERT INTO audio_transcriptions
			(audio_chunk_id, transcription, offset_index, transcription_engine,
			 device_name, is_input_device, start_time, end_time, speaker_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		params.AudioChunkID, params.Text, params.OffsetIndex, params.EngineTag,
		params.Device.Name, isInput, params.StartTime, params.EndTime,
		params.SpeakerID, time.Now().UTC())
	if err != nil {
		return 0, classify(fmt.Errorf("failed to insert transcription: %w", err))
	}
	return result.LastInsertId()
}

func (r *AudioRepo) ChunkExists(ctx context.Context, q Querier, id int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM audio_chunks WHERE id = ?`, id).Scan(&one)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, classify(fmt.Errorf("failed to check audio chunk: %w", err))
	}
	return true, nil
}

// FindAudio returns the filtered transcription rows ordered by timestamp
// descending then transcription id ascending, plus the total count of the
// filtered set.
func (r *AudioRepo) FindAudio(ctx context.Context, q Querier, filter AudioFilter, limit, offset int) ([]AudioHit, int64, error) {
	where, args := buildAudioWhere(filter)

	var total int64
	countQuery := `
		SELECT COUNT(*)
		FROM audio_transcriptions at
		JOIN audio_chunks ac ON ac.id = at.audio_chunk_id` + where
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, classify(fmt.Errorf("failed to count transcriptions: %w", err))
	}

	query := `
		SELECT at.id, at.audio_chunk_id, at.transcription, at.timestamp,
		       ac.file_path, at.offset_index, at.device_name, at.is_input_device,
		       at.start_time, at.end_time, at.speaker_id
		FROM audio_transcriptions at
		JOIN audio_chunks ac ON ac.id = at.audio_chunk_id` + where + `
		ORDER BY at.timestamp DESC, at.id ASC
		LIMIT ? OFFSET ?`
	rows, err := q.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, classify(fmt.Errorf("failed to query transcriptions: %w", err))
	}
	defer rows.Close()

	var hits []AudioHit
	for rows.Next() {
		var h AudioHit
		if err := rows.Scan(&h.TranscriptionID, &h.ChunkID, &h.Text, &h.Timestamp,
			&h.FilePath, &h.OffsetIndex, &h.DeviceName, &h.IsInput,
			&h.StartTime, &h.EndTime, &h.SpeakerID); err != nil {
			return nil, 0, classify(fmt.Errorf("failed to scan transcription: %w", err))
		}
		hits = append(hits, h)
	}
	return hits, total, rows.Err()
}

func buildAudioWhere(filter AudioFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Query != "" {
		conds = append(conds, "LOWER(at.transcription) LIKE '%' || LOWER(?) || '%'")
		args = append(args, filter.Query)
	}
	if filter.Start != nil {
		conds = append(conds, "at.timestamp >= ?")
		args = append(args, filter.Start.UTC())
	}
	if filter.End != nil {
		conds = append(conds, "at.timestamp <= ?")
		args = append(args, filter.End.UTC())
	}
	if filter.MinLength > 0 {
		conds = append(conds, "length(at.transcription) >= ?")
		args = append(args, filter.MinLength)
	}
	if filter.MaxLength > 0 {
		conds = append(conds, "length(at.transcription) <= ?")
		args = append(args, filter.MaxLength)
	}
	if len(filter.SpeakerIDs) > 0 {
		conds = append(conds, "at.speaker_id IN ("+placeholders(len(filter.SpeakerIDs))+")")
		for _, id := range filter.SpeakerIDs {
			args = append(args, id)
		}
	}
	if len(filter.Tags) > 0 {
		cond, tagArgs := tagContainmentCond("at.audio_chunk_id", models.TagKindAudio, filter.Tags)
		conds = append(conds, cond)
		args = append(args, tagArgs...)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}

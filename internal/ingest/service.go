// Package ingest is the transactional write facade used by capture
// producers. Every call is all-or-nothing; parents must exist before
// children are inserted.
package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/database"
	"github.com/recapd/recapd/internal/metrics"
	"github.com/recapd/recapd/internal/models"
)

type Service struct {
	db     *database.DB
	frames *database.FrameRepo
	audio  *database.AudioRepo
	ui     *database.UIRepo
	log    *zap.Logger
}

func New(db *database.DB, frames *database.FrameRepo, audio *database.AudioRepo, ui *database.UIRepo, log *zap.Logger) *Service {
	return &Service{db: db, frames: frames, audio: audio, ui: ui, log: log}
}

func (s *Service) InsertVideoChunk(ctx context.Context, filePath, deviceName string) (int64, error) {
	var id int64
	err := database.Retry(ctx, func() error {
		var err error
		id, err = s.frames.InsertVideoChunk(ctx, s.db.Conn(), filePath, deviceName)
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.IngestRows.WithLabelValues("video_chunk").Inc()
	return id, nil
}

func (s *Service) InsertFrame(ctx context.Context, params database.FrameParams) (int64, error) {
	var id int64
	err := database.Retry(ctx, func() error {
		var err error
		id, err = s.frames.InsertFrame(ctx, s.db.Conn(), params)
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.IngestRows.WithLabelValues("frame").Inc()
	return id, nil
}

// InsertOcrText attaches the OCR result to an existing frame. A missing
// frame fails with NotFound, a second OCR row for the same frame with
// Conflict.
func (s *Service) InsertOcrText(ctx context.Context, frameID int64, text, textJSON, engine string) error {
	err := database.Retry(ctx, func() error {
		return s.frames.InsertOcrText(ctx, s.db.Conn(), frameID, text, textJSON, engine)
	})
	if err != nil {
		return err
	}
	metrics.IngestRows.WithLabelValues("ocr_text").Inc()
	return nil
}

func (s *Service) InsertAudioChunk(ctx context.Context, filePath string) (int64, error) {
	var id int64
	err := database.Retry(ctx, func() error {
		var err error
		id, err = s.audio.InsertAudioChunk(ctx, s.db.Conn(), filePath)
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.IngestRows.WithLabelValues("audio_chunk").Inc()
	return id, nil
}

func (s *Service) InsertAudioTranscription(ctx context.Context, params database.TranscriptionParams) (int64, error) {
	var id int64
	err := database.Retry(ctx, func() error {
		var err error
		id, err = s.audio.InsertTranscription(ctx, s.db.Conn(), params)
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.IngestRows.WithLabelValues("audio_transcription").Inc()
	return id, nil
}

func (s *Service) InsertUIEvent(ctx context.Context, params database.UIEventParams) (int64, error) {
	var id int64
	err := database.Retry(ctx, func() error {
		var err error
		id, err = s.ui.InsertUIEvent(ctx, s.db.Conn(), params)
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.IngestRows.WithLabelValues("ui_event").Inc()
	return id, nil
}

// IngestVisionEvent inserts a frame and its OCR text in one transaction,
// so a failed OCR insert leaves no orphan frame behind.
func (s *Service) IngestVisionEvent(ctx context.Context, params database.FrameParams, text, textJSON, engine string) (int64, error) {
	var frameID int64
	err := database.Retry(ctx, func() error {
		return s.db.WithTx(ctx, func(tx *sql.Tx) error {
			var err error
			frameID, err = s.frames.InsertFrame(ctx, tx, params)
			if err != nil {
				return err
			}
			return s.frames.InsertOcrText(ctx, tx, frameID, text, textJSON, engine)
		})
	})
	if err != nil {
		return 0, err
	}
	metrics.IngestRows.WithLabelValues("frame").Inc()
	metrics.IngestRows.WithLabelValues("ocr_text").Inc()
	s.log.Debug("ingested vision event", zap.Int64("frame_id", frameID))
	return frameID, nil
}

// IngestAudioEvent inserts an audio chunk and its transcriptions in one
// transaction. The AudioChunkID of each transcription is overwritten with
// the new chunk's id.
func (s *Service) IngestAudioEvent(ctx context.Context, filePath string, transcriptions []database.TranscriptionParams) (int64, error) {
	if len(transcriptions) == 0 {
		return 0, fmt.Errorf("%w: audio event needs at least one transcription", models.ErrBadRequest)
	}

	var chunkID int64
	err := database.Retry(ctx, func() error {
		return s.db.WithTx(ctx, func(tx *sql.Tx) error {
			var err error
			chunkID, err = s.audio.InsertAudioChunk(ctx, tx, filePath)
			if err != nil {
				return err
			}
			for _, params := range transcriptions {
				params.AudioChunkID = chunkID
				if _, err := s.audio.InsertTranscription(ctx, tx, params); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	metrics.IngestRows.WithLabelValues("audio_chunk").Inc()
	metrics.IngestRows.WithLabelValues("audio_transcription").Add(float64(len(transcriptions)))
	s.log.Debug("ingested audio event",
		zap.Int64("chunk_id", chunkID),
		zap.Int("transcriptions", len(transcriptions)))
	return chunkID, nil
}

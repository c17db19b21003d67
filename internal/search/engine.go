// Package search executes filtered, paginated queries across the unified
// content index and merges the per-type results into one ordered stream.
package search

import (
	"context"
	"database/sql"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/database"
	"github.com/recapd/recapd/internal/metrics"
	"github.com/recapd/recapd/internal/models"
)

type Engine struct {
	db     *database.DB
	frames *database.FrameRepo
	audio  *database.AudioRepo
	ui     *database.UIRepo
	tags   *database.TagRepo
	log    *zap.Logger
}

func NewEngine(db *database.DB, frames *database.FrameRepo, audio *database.AudioRepo, ui *database.UIRepo, tagRepo *database.TagRepo, log *zap.Logger) *Engine {
	return &Engine{db: db, frames: frames, audio: audio, ui: ui, tags: tagRepo, log: log}
}

// Search runs the query and returns one page of the merged result stream.
// A transient store failure is retried once before surfacing.
func (e *Engine) Search(ctx context.Context, q Query) (*models.PaginatedResponse, error) {
	timer := prometheus.NewTimer(metrics.SearchDuration)
	defer timer.ObserveDuration()

	var resp *models.PaginatedResponse
	err := database.Retry(ctx, func() error {
		var err error
		resp, err = e.searchOnce(ctx, q)
		return err
	})
	return resp, err
}

// searchOnce runs every sub-query and the tag hydration on one snapshot
// transaction, so rows and their tag sets are mutually consistent.
func (e *Engine) searchOnce(ctx context.Context, q Query) (*models.PaginatedResponse, error) {
	tx, err := e.db.BeginSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Each sub-query only needs the first offset+limit rows of its own
	// ordered stream; anything beyond that cannot land in the page.
	fetch := q.Offset + q.Limit

	var merged []models.ContentItem
	var total int64

	if q.Types[kindVision] {
		hits, count, err := e.frames.FindFrames(ctx, tx, frameFilter(q), fetch, 0)
		if err != nil {
			return nil, err
		}
		total += count
		for _, h := range hits {
			merged = append(merged, models.OCRItem{
				Type:       "OCR",
				FrameID:    h.FrameID,
				Text:       h.Text,
				Timestamp:  h.Timestamp,
				FilePath:   h.FilePath,
				AppName:    h.AppName,
				WindowName: h.WindowName,
				Focused:    h.Focused,
				BrowserURL: h.BrowserURL,
				Tags:       []string{},
			})
		}
	}

	if q.Types[kindAudio] {
		hits, count, err := e.audio.FindAudio(ctx, tx, audioFilter(q), fetch, 0)
		if err != nil {
			return nil, err
		}
		total += count
		for _, h := range hits {
			merged = append(merged, models.AudioItem{
				Type:            "Audio",
				ChunkID:         h.ChunkID,
				Transcription:   h.Text,
				Timestamp:       h.Timestamp,
				FilePath:        h.FilePath,
				OffsetIndex:     h.OffsetIndex,
				DeviceName:      h.DeviceName,
				DeviceType:      deviceType(h.IsInput),
				SpeakerID:       h.SpeakerID,
				StartTime:       h.StartTime,
				EndTime:         h.EndTime,
				Tags:            []string{},
				TranscriptionID: h.TranscriptionID,
			})
		}
	}

	// UI rows carry no tags, so a tag filter empties the UI sub-query
	// instead of erroring.
	if q.Types[kindUI] && len(q.Tags) == 0 {
		hits, count, err := e.ui.FindUI(ctx, tx, uiFilter(q), fetch, 0)
		if err != nil {
			return nil, err
		}
		total += count
		for _, h := range hits {
			merged = append(merged, models.UIItem{
				Type:       "UI",
				ID:         h.ID,
				Text:       h.Text,
				Timestamp:  h.Timestamp,
				AppName:    h.AppName,
				WindowName: h.WindowName,
				Tags:       []string{},
			})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return models.Less(merged[i], merged[j])
	})

	page := window(merged, q.Offset, q.Limit)
	if err := e.hydrateTags(ctx, tx, page); err != nil {
		return nil, err
	}

	return &models.PaginatedResponse{
		Data: page,
		Pagination: models.Pagination{
			Limit:  q.Limit,
			Offset: q.Offset,
			Total:  total,
		},
	}, nil
}

func window(items []models.ContentItem, offset, limit int) []models.ContentItem {
	if offset >= len(items) {
		return []models.ContentItem{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// hydrateTags fills the current tag set of every returned row, on the same
// snapshot the rows were read from.
func (e *Engine) hydrateTags(ctx context.Context, tx *sql.Tx, items []models.ContentItem) error {
	for i, item := range items {
		switch it := item.(type) {
		case models.OCRItem:
			tags, err := e.tags.TagsFor(ctx, tx, models.TagKindVision, it.FrameID)
			if err != nil {
				return err
			}
			it.Tags = tags
			items[i] = it
		case models.AudioItem:
			tags, err := e.tags.TagsFor(ctx, tx, models.TagKindAudio, it.ChunkID)
			if err != nil {
				return err
			}
			it.Tags = tags
			items[i] = it
		}
	}
	return nil
}

func frameFilter(q Query) database.FrameFilter {
	return database.FrameFilter{
		Query:      q.Text,
		Tags:       q.Tags,
		AppName:    q.AppName,
		WindowName: q.WindowName,
		FrameName:  q.FrameName,
		Start:      q.Start,
		End:        q.End,
		MinLength:  q.MinLength,
		MaxLength:  q.MaxLength,
	}
}

func audioFilter(q Query) database.AudioFilter {
	return database.AudioFilter{
		Query:      q.Text,
		Tags:       q.Tags,
		Start:      q.Start,
		End:        q.End,
		MinLength:  q.MinLength,
		MaxLength:  q.MaxLength,
		SpeakerIDs: q.SpeakerIDs,
	}
}

func uiFilter(q Query) database.UIFilter {
	return database.UIFilter{
		Query:     q.Text,
		Start:     q.Start,
		End:       q.End,
		MinLength: q.MinLength,
		MaxLength: q.MaxLength,
	}
}

func deviceType(isInput bool) string {
	if isInput {
		return string(models.DeviceInput)
	}
	return string(models.DeviceOutput)
}

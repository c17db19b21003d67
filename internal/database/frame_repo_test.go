package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/recapd/recapd/internal/models"
)

func TestInsertFrameAndOcrText(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFrameRepo(db)
	ctx := context.Background()

	chunkID, err := repo.InsertVideoChunk(ctx, db.Conn(), "capture_001.mp4", "monitor-1")
	if err != nil {
		t.Fatalf("InsertVideoChunk failed: %v", err)
	}
	if chunkID == 0 {
		t.Fatal("Expected non-zero video chunk id")
	}

	app := "terminal"
	frameID, err := repo.InsertFrame(ctx, db.Conn(), FrameParams{
		DeviceName:   "monitor-1",
		VideoChunkID: &chunkID,
		AppName:      &app,
		Focused:      true,
	})
	if err != nil {
		t.Fatalf("InsertFrame failed: %v", err)
	}

	if err := repo.InsertOcrText(ctx, db.Conn(), frameID, "hello world", "{}", "tesseract"); err != nil {
		t.Fatalf("InsertOcrText failed: %v", err)
	}

	// A frame has exactly one OCR row; a second insert must conflict.
	err = repo.InsertOcrText(ctx, db.Conn(), frameID, "again", "{}", "tesseract")
	if !errors.Is(err, models.ErrConflict) {
		t.Errorf("Expected Conflict for duplicate OCR, got %v", err)
	}
}

func TestInsertOcrTextMissingFrame(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFrameRepo(db)

	err := repo.InsertOcrText(context.Background(), db.Conn(), 999, "orphan", "{}", "tesseract")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected NotFound for missing frame, got %v", err)
	}
}

func TestInsertFrameMissingVideoChunk(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFrameRepo(db)

	missing := int64(42)
	_, err := repo.InsertFrame(context.Background(), db.Conn(), FrameParams{
		DeviceName:   "monitor-1",
		VideoChunkID: &missing,
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected NotFound for missing video chunk, got %v", err)
	}
}

func TestFrameExists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFrameRepo(db)
	ctx := context.Background()

	frameID, err := repo.InsertFrame(ctx, db.Conn(), FrameParams{DeviceName: "monitor-1"})
	if err != nil {
		t.Fatalf("InsertFrame failed: %v", err)
	}

	exists, err := repo.FrameExists(ctx, db.Conn(), frameID)
	if err != nil {
		t.Fatalf("FrameExists failed: %v", err)
	}
	if !exists {
		t.Error("Expected frame to exist")
	}

	exists, err = repo.FrameExists(ctx, db.Conn(), frameID+100)
	if err != nil {
		t.Fatalf("FrameExists failed: %v", err)
	}
	if exists {
		t.Error("Expected frame to not exist")
	}
}

func seedFrame(t *testing.T, db *DB, repo *FrameRepo, device, text, appName string, ts time.Time) int64 {
	t.Helper()
	ctx := context.Background()

	var app *string
	if appName != "" {
		app = &appName
	}
	frameID, err := repo.InsertFrame(ctx, db.Conn(), FrameParams{
		DeviceName: device,
		Timestamp:  &ts,
		AppName:    app,
	})
	if err != nil {
		t.Fatalf("InsertFrame failed: %v", err)
	}
	if err := repo.InsertOcrText(ctx, db.Conn(), frameID, text, "{}", "tesseract"); err != nil {
		t.Fatalf("InsertOcrText failed: %v", err)
	}
	return frameID
}

func TestFindFrames(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFrameRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seedFrame(t, db, repo, "monitor-1", "meeting notes for the quarterly review", "notes-app", base)
	seedFrame(t, db, repo, "monitor-1", "terminal output", "terminal", base.Add(time.Minute))
	seedFrame(t, db, repo, "monitor-2", "more MEETING follow-ups", "browser", base.Add(2*time.Minute))

	tests := []struct {
		name      string
		filter    FrameFilter
		wantCount int
		wantTotal int64
	}{
		{"no filter", FrameFilter{}, 3, 3},
		{"substring case-insensitive", FrameFilter{Query: "meeting"}, 2, 2},
		{"app exact match", FrameFilter{AppName: "terminal"}, 1, 1},
		{"app no match", FrameFilter{AppName: "term"}, 0, 0},
		{"time window", FrameFilter{Start: &base, End: timePtr(base.Add(time.Minute))}, 2, 2},
		{"min length", FrameFilter{MinLength: 20}, 2, 2},
		{"max length", FrameFilter{MaxLength: 20}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, total, err := repo.FindFrames(ctx, db.Conn(), tt.filter, 100, 0)
			if err != nil {
				t.Fatalf("FindFrames failed: %v", err)
			}
			if len(hits) != tt.wantCount {
				t.Errorf("Expected %d hits, got %d", tt.wantCount, len(hits))
			}
			if total != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, total)
			}
		})
	}
}

func TestFindFramesOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFrameRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	older := seedFrame(t, db, repo, "monitor-1", "older", "", base)
	newer := seedFrame(t, db, repo, "monitor-1", "newer", "", base.Add(time.Hour))

	hits, _, err := repo.FindFrames(ctx, db.Conn(), FrameFilter{}, 100, 0)
	if err != nil {
		t.Fatalf("FindFrames failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(hits))
	}
	if hits[0].FrameID != newer || hits[1].FrameID != older {
		t.Errorf("Expected newest-first ordering, got %d then %d", hits[0].FrameID, hits[1].FrameID)
	}
}

func timePtr(t time.Time) *time.Time { return &t }

package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/database"
	"github.com/recapd/recapd/internal/models"
)

func setup(t *testing.T) (*Service, *database.DB) {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.NewMigrator(db, zap.NewNop()).Run(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	svc := New(db,
		database.NewFrameRepo(db),
		database.NewAudioRepo(db),
		database.NewUIRepo(db),
		zap.NewNop())
	return svc, db
}

func TestIngestVisionEventIsAtomic(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	frameID, err := svc.IngestVisionEvent(ctx,
		database.FrameParams{DeviceName: "monitor-1", Focused: true},
		"window contents", "{}", "tesseract")
	if err != nil {
		t.Fatalf("IngestVisionEvent failed: %v", err)
	}
	if frameID == 0 {
		t.Fatal("Expected non-zero frame id")
	}

	var frames, ocr int
	if err := db.Conn().QueryRow("SELECT COUNT(*) FROM frames").Scan(&frames); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if err := db.Conn().QueryRow("SELECT COUNT(*) FROM ocr_text").Scan(&ocr); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if frames != 1 || ocr != 1 {
		t.Errorf("Expected 1 frame and 1 ocr row, got %d and %d", frames, ocr)
	}
}

func TestInsertOcrTextConflictOnDuplicate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	frameID, err := svc.InsertFrame(ctx, database.FrameParams{DeviceName: "monitor-1"})
	if err != nil {
		t.Fatalf("InsertFrame failed: %v", err)
	}

	if err := svc.InsertOcrText(ctx, frameID, "first", "{}", "tesseract"); err != nil {
		t.Fatalf("InsertOcrText failed: %v", err)
	}
	err = svc.InsertOcrText(ctx, frameID, "second", "{}", "tesseract")
	if !errors.Is(err, models.ErrConflict) {
		t.Errorf("Expected Conflict, got %v", err)
	}
}

func TestInsertOcrTextMissingParent(t *testing.T) {
	svc, _ := setup(t)

	err := svc.InsertOcrText(context.Background(), 42, "orphan", "{}", "tesseract")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestIngestAudioEventIsAtomic(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()

	chunkID, err := svc.IngestAudioEvent(ctx, "meeting.wav", []database.TranscriptionParams{
		{Text: "first segment", OffsetIndex: 0, EngineTag: "whisper",
			Device: models.AudioDevice{Name: "mic", Type: models.DeviceInput}},
		{Text: "second segment", OffsetIndex: 1, EngineTag: "whisper",
			Device: models.AudioDevice{Name: "mic", Type: models.DeviceInput}},
	})
	if err != nil {
		t.Fatalf("IngestAudioEvent failed: %v", err)
	}

	var count int
	if err := db.Conn().QueryRow(
		"SELECT COUNT(*) FROM audio_transcriptions WHERE audio_chunk_id = ?", chunkID,
	).Scan(&count); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 transcriptions on the new chunk, got %d", count)
	}
}

func TestIngestAudioEventRequiresTranscriptions(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.IngestAudioEvent(context.Background(), "empty.wav", nil)
	if !errors.Is(err, models.ErrBadRequest) {
		t.Errorf("Expected BadRequest, got %v", err)
	}
}

func TestInsertUIEvent(t *testing.T) {
	svc, db := setup(t)

	app := "finder"
	id, err := svc.InsertUIEvent(context.Background(), database.UIEventParams{
		Text:    "menu clicked",
		AppName: &app,
	})
	if err != nil {
		t.Fatalf("InsertUIEvent failed: %v", err)
	}
	if id == 0 {
		t.Fatal("Expected non-zero ui event id")
	}

	var count int
	if err := db.Conn().QueryRow("SELECT COUNT(*) FROM ui_events").Scan(&count); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 ui event, got %d", count)
	}
}

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/api"
	"github.com/recapd/recapd/internal/database"
	"github.com/recapd/recapd/internal/ingest"
	"github.com/recapd/recapd/internal/models"
	"github.com/recapd/recapd/internal/search"
	"github.com/recapd/recapd/internal/tags"
)

type TestServer struct {
	Server *httptest.Server
	DB     *database.DB
	Ingest *ingest.Service
}

func setupTestServer(t *testing.T) *TestServer {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:     filepath.Join(t.TempDir(), "test.db"),
		PoolSize: 5,
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	log := zap.NewNop()
	if err := database.NewMigrator(db, log).Run(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	frameRepo := database.NewFrameRepo(db)
	audioRepo := database.NewAudioRepo(db)
	uiRepo := database.NewUIRepo(db)
	tagRepo := database.NewTagRepo(db)
	ingestSvc := ingest.New(db, frameRepo, audioRepo, uiRepo, log)

	app := &api.App{
		DB:     db,
		Tags:   tags.NewManager(db, frameRepo, audioRepo, tagRepo, log),
		Search: search.NewEngine(db, frameRepo, audioRepo, uiRepo, tagRepo, log),
		Ingest: ingestSvc,
		Limits: search.Limits{DefaultPageSize: 20, MaxPageSize: 1000},
		Log:    log,
	}

	server := httptest.NewServer(api.NewRouter(app))
	t.Cleanup(func() {
		server.Close()
		db.Close()
	})

	return &TestServer{Server: server, DB: db, Ingest: ingestSvc}
}

// seedTestData inserts one tagged-searchable frame and one audio chunk,
// both with id 1 on a fresh database.
func seedTestData(t *testing.T, ts *TestServer) {
	t.Helper()
	ctx := context.Background()

	if _, err := ts.Ingest.InsertVideoChunk(ctx, "test_video_file.mp4", "test_device"); err != nil {
		t.Fatalf("Failed to insert video chunk: %v", err)
	}

	app := "test_app"
	window := "test_window"
	frameID, err := ts.Ingest.InsertFrame(ctx, database.FrameParams{
		DeviceName: "test_device",
		AppName:    &app,
		WindowName: &window,
		Focused:    true,
	})
	if err != nil {
		t.Fatalf("Failed to insert frame: %v", err)
	}
	if err := ts.Ingest.InsertOcrText(ctx, frameID,
		"Test OCR text", `{"confidence": 0.9}`, "tesseract"); err != nil {
		t.Fatalf("Failed to insert ocr text: %v", err)
	}

	chunkID, err := ts.Ingest.InsertAudioChunk(ctx, "test_audio_file.wav")
	if err != nil {
		t.Fatalf("Failed to insert audio chunk: %v", err)
	}
	if _, err := ts.Ingest.InsertAudioTranscription(ctx, database.TranscriptionParams{
		AudioChunkID: chunkID,
		Text:         "Test audio transcription",
		OffsetIndex:  0,
		EngineTag:    "test_engine",
		Device:       models.AudioDevice{Name: "test", Type: models.DeviceOutput},
	}); err != nil {
		t.Fatalf("Failed to insert transcription: %v", err)
	}
}

func postTags(t *testing.T, server, kind string, id int64, tagNames []string) *http.Response {
	t.Helper()
	return tagsRequest(t, http.MethodPost, server, kind, id, tagNames)
}

func deleteTags(t *testing.T, server, kind string, id int64, tagNames []string) *http.Response {
	t.Helper()
	return tagsRequest(t, http.MethodDelete, server, kind, id, tagNames)
}

func tagsRequest(t *testing.T, method, server, kind string, id int64, tagNames []string) *http.Response {
	t.Helper()

	body, err := json.Marshal(map[string]any{"tags": tagNames})
	if err != nil {
		t.Fatalf("Failed to marshal tags: %v", err)
	}

	req, err := http.NewRequest(method,
		fmt.Sprintf("%s/tags/%s/%d", server, kind, id), bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Tag request failed: %v", err)
	}
	return resp
}

type searchItem struct {
	Type          string   `json:"type"`
	FrameID       int64    `json:"frame_id"`
	ChunkID       int64    `json:"chunk_id"`
	ID            int64    `json:"id"`
	Text          string   `json:"text"`
	Transcription string   `json:"transcription"`
	DeviceName    string   `json:"device_name"`
	DeviceType    string   `json:"device_type"`
	AppName       string   `json:"app_name"`
	WindowName    string   `json:"window_name"`
	Tags          []string `json:"tags"`
}

type searchResponse struct {
	Data       []searchItem `json:"data"`
	Pagination struct {
		Limit  int   `json:"limit"`
		Offset int   `json:"offset"`
		Total  int64 `json:"total"`
	} `json:"pagination"`
}

func getSearch(t *testing.T, server, query string) (*http.Response, *searchResponse) {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/search?%s", server, query))
	if err != nil {
		t.Fatalf("Search request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode search response: %v", err)
	}
	resp.Body.Close()
	return resp, &result
}

func tagCount(t *testing.T, resp *http.Response, field string) int64 {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode tag response: %v", err)
	}
	n, ok := body[field].(float64)
	if !ok {
		t.Fatalf("Expected numeric %q field in %v", field, body)
	}
	return int64(n)
}

func containsTag(tags []string, name string) bool {
	for _, tag := range tags {
		if tag == name {
			return true
		}
	}
	return false
}

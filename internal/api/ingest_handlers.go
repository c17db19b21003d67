package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/recapd/recapd/internal/database"
	"github.com/recapd/recapd/internal/models"
)

// Producer endpoints. Capture producers normally link the ingest service
// directly; these routes serve out-of-process producers over the same
// semantics.

type visionEventRequest struct {
	DeviceName   string     `json:"device_name"`
	VideoChunkID *int64     `json:"video_chunk_id,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	AppName      *string    `json:"app_name,omitempty"`
	WindowName   *string    `json:"window_name,omitempty"`
	Focused      bool       `json:"focused"`
	BrowserURL   *string    `json:"browser_url,omitempty"`
	Text         string     `json:"text"`
	TextJSON     string     `json:"text_json,omitempty"`
	OcrEngine    string     `json:"ocr_engine"`
}

func (app *App) IngestVisionHandler(w http.ResponseWriter, r *http.Request) {
	var req visionEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.writeError(w, r, fmt.Errorf("%w: malformed request body", models.ErrBadRequest))
		return
	}
	if req.DeviceName == "" || req.OcrEngine == "" {
		app.writeError(w, r, fmt.Errorf("%w: device_name and ocr_engine are required", models.ErrBadRequest))
		return
	}

	frameID, err := app.Ingest.IngestVisionEvent(r.Context(), database.FrameParams{
		DeviceName:   req.DeviceName,
		VideoChunkID: req.VideoChunkID,
		Timestamp:    req.Timestamp,
		AppName:      req.AppName,
		WindowName:   req.WindowName,
		Focused:      req.Focused,
		BrowserURL:   req.BrowserURL,
	}, req.Text, req.TextJSON, req.OcrEngine)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"frame_id": frameID})
}

type transcriptionRequest struct {
	Text        string   `json:"text"`
	OffsetIndex int64    `json:"offset_index"`
	Engine      string   `json:"engine"`
	DeviceName  string   `json:"device_name"`
	DeviceType  string   `json:"device_type"`
	StartTime   *float64 `json:"start_time,omitempty"`
	EndTime     *float64 `json:"end_time,omitempty"`
	SpeakerID   *int64   `json:"speaker_id,omitempty"`
}

type audioEventRequest struct {
	FilePath       string                 `json:"file_path"`
	Transcriptions []transcriptionRequest `json:"transcriptions"`
}

func (app *App) IngestAudioHandler(w http.ResponseWriter, r *http.Request) {
	var req audioEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.writeError(w, r, fmt.Errorf("%w: malformed request body", models.ErrBadRequest))
		return
	}

	params := make([]database.TranscriptionParams, 0, len(req.Transcriptions))
	for _, t := range req.Transcriptions {
		deviceType := models.DeviceOutput
		if t.DeviceType == string(models.DeviceInput) {
			deviceType = models.DeviceInput
		}
		params = append(params, database.TranscriptionParams{
			Text:        t.Text,
			OffsetIndex: t.OffsetIndex,
			EngineTag:   t.Engine,
			Device:      models.AudioDevice{Name: t.DeviceName, Type: deviceType},
			StartTime:   t.StartTime,
			EndTime:     t.EndTime,
			SpeakerID:   t.SpeakerID,
		})
	}

	chunkID, err := app.Ingest.IngestAudioEvent(r.Context(), req.FilePath, params)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"chunk_id": chunkID})
}

type videoChunkRequest struct {
	FilePath   string `json:"file_path"`
	DeviceName string `json:"device_name"`
}

func (app *App) IngestVideoChunkHandler(w http.ResponseWriter, r *http.Request) {
	var req videoChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.writeError(w, r, fmt.Errorf("%w: malformed request body", models.ErrBadRequest))
		return
	}
	if req.FilePath == "" || req.DeviceName == "" {
		app.writeError(w, r, fmt.Errorf("%w: file_path and device_name are required", models.ErrBadRequest))
		return
	}

	id, err := app.Ingest.InsertVideoChunk(r.Context(), req.FilePath, req.DeviceName)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

type uiEventRequest struct {
	Text       string     `json:"text"`
	AppName    *string    `json:"app_name,omitempty"`
	WindowName *string    `json:"window_name,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

func (app *App) IngestUIHandler(w http.ResponseWriter, r *http.Request) {
	var req uiEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.writeError(w, r, fmt.Errorf("%w: malformed request body", models.ErrBadRequest))
		return
	}
	if req.Text == "" {
		app.writeError(w, r, fmt.Errorf("%w: text is required", models.ErrBadRequest))
		return
	}

	id, err := app.Ingest.InsertUIEvent(r.Context(), database.UIEventParams{
		Text:       req.Text,
		AppName:    req.AppName,
		WindowName: req.WindowName,
		Timestamp:  req.Timestamp,
	})
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

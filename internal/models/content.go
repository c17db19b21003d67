package models

import (
	"fmt"
	"strings"
	"time"
)

// TagKind is the target category of a tag operation.
type TagKind string

const (
	TagKindVision TagKind = "vision"
	TagKindAudio  TagKind = "audio"
)

// ParseTagKind validates a kind string from the external surface.
func ParseTagKind(s string) (TagKind, error) {
	switch TagKind(strings.ToLower(s)) {
	case TagKindVision:
		return TagKindVision, nil
	case TagKindAudio:
		return TagKindAudio, nil
	}
	return "", fmt.Errorf("%w: unknown tag kind %q", ErrBadRequest, s)
}

// DeviceType distinguishes audio capture directions.
type DeviceType string

const (
	DeviceInput  DeviceType = "Input"
	DeviceOutput DeviceType = "Output"
)

// AudioDevice identifies the device a transcription came from.
type AudioDevice struct {
	Name string
	Type DeviceType
}

type VideoChunk struct {
	ID         int64
	FilePath   string
	DeviceName string
	CreatedAt  time.Time
}

type Frame struct {
	ID           int64
	VideoChunkID *int64
	DeviceName   string
	Timestamp    time.Time
	AppName      string
	WindowName   string
	Focused      bool
	BrowserURL   string
}

// OcrText is the single OCR record derived from a frame.
type OcrText struct {
	FrameID      int64
	Text         string
	MetadataJSON string
	EngineTag    string
}

type AudioChunk struct {
	ID        int64
	FilePath  string
	CreatedAt time.Time
}

type AudioTranscription struct {
	ID           int64
	AudioChunkID int64
	Text         string
	OffsetIndex  int64
	EngineTag    string
	Device       AudioDevice
	StartTime    *float64
	EndTime      *float64
	SpeakerID    *int64
	Timestamp    time.Time
}

// UIEvent is a monitored UI text event, parallel to Frame and AudioChunk.
type UIEvent struct {
	ID         int64
	Text       string
	AppName    string
	WindowName string
	Timestamp  time.Time
}

// CanonicalizeTags trims tag names, drops empties, and removes duplicates
// while preserving the caller's order.
func CanonicalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

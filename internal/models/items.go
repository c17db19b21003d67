package models

import "time"

// ContentItem is one entry of the unified search stream. The concrete types
// carry their own "type" discriminator so the union serializes flat.
type ContentItem interface {
	isContentItem()
	// SortKey returns the fields the merged stream is ordered by:
	// event timestamp, type priority (lower sorts first on ties), primary key.
	SortKey() (time.Time, int, int64)
}

const (
	priorityVision = 0
	priorityAudio  = 1
	priorityUI     = 2
)

// OCRItem is a frame together with its OCR text.
type OCRItem struct {
	Type       string    `json:"type"`
	FrameID    int64     `json:"frame_id"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	FilePath   string    `json:"file_path,omitempty"`
	AppName    string    `json:"app_name"`
	WindowName string    `json:"window_name"`
	Focused    bool      `json:"focused"`
	BrowserURL string    `json:"browser_url,omitempty"`
	Tags       []string  `json:"tags"`
}

func (OCRItem) isContentItem() {}

func (it OCRItem) SortKey() (time.Time, int, int64) {
	return it.Timestamp, priorityVision, it.FrameID
}

// AudioItem is a transcription together with its source chunk.
type AudioItem struct {
	Type          string    `json:"type"`
	ChunkID       int64     `json:"chunk_id"`
	Transcription string    `json:"transcription"`
	Timestamp     time.Time `json:"timestamp"`
	FilePath      string    `json:"file_path,omitempty"`
	OffsetIndex   int64     `json:"offset_index"`
	DeviceName    string    `json:"device_name"`
	DeviceType    string    `json:"device_type"`
	SpeakerID     *int64    `json:"speaker_id,omitempty"`
	StartTime     *float64  `json:"start_time,omitempty"`
	EndTime       *float64  `json:"end_time,omitempty"`
	Tags          []string  `json:"tags"`

	// TranscriptionID orders ties between transcriptions of the same chunk.
	TranscriptionID int64 `json:"-"`
}

func (AudioItem) isContentItem() {}

func (it AudioItem) SortKey() (time.Time, int, int64) {
	return it.Timestamp, priorityAudio, it.TranscriptionID
}

// UIItem is a monitored UI text event. UI rows are not taggable, so Tags is
// always empty.
type UIItem struct {
	Type       string    `json:"type"`
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	AppName    string    `json:"app_name"`
	WindowName string    `json:"window_name"`
	Tags       []string  `json:"tags"`
}

func (UIItem) isContentItem() {}

func (it UIItem) SortKey() (time.Time, int, int64) {
	return it.Timestamp, priorityUI, it.ID
}

// Pagination echoes the applied window and the merged filtered total.
type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// PaginatedResponse is the search result envelope.
type PaginatedResponse struct {
	Data       []ContentItem `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// Less reports whether a sorts before b in the merged stream: timestamp
// descending, then type priority ascending, then primary key ascending.
func Less(a, b ContentItem) bool {
	at, ap, ai := a.SortKey()
	bt, bp, bi := b.SortKey()
	if !at.Equal(bt) {
		return at.After(bt)
	}
	if ap != bp {
		return ap < bp
	}
	return ai < bi
}

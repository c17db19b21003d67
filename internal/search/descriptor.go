package search

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/recapd/recapd/internal/models"
)

type contentKind int

const (
	kindVision contentKind = iota
	kindAudio
	kindUI
)

// Query is the parsed search descriptor. Types is never empty after a
// successful parse.
type Query struct {
	Text       string
	Types      map[contentKind]bool
	Tags       []string
	AppName    string
	WindowName string
	FrameName  string
	Start      *time.Time
	End        *time.Time
	MinLength  int
	MaxLength  int
	SpeakerIDs []int64
	Limit      int
	Offset     int
}

// Limits carries the pagination defaults applied while parsing.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// ParseQuery builds a Query from URL parameters. Malformed values fail
// with BadRequest.
func ParseQuery(values url.Values, limits Limits) (Query, error) {
	q := Query{
		Text:       values.Get("q"),
		AppName:    values.Get("app_name"),
		WindowName: values.Get("window_name"),
		FrameName:  values.Get("frame_name"),
		Limit:      limits.DefaultPageSize,
	}

	types, err := parseContentTypes(values.Get("content_type"))
	if err != nil {
		return Query{}, err
	}
	q.Types = types

	q.Tags = models.CanonicalizeTags(splitList(values["tags"]))

	for _, s := range splitList(values["speaker_ids"]) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Query{}, fmt.Errorf("%w: invalid speaker id %q", models.ErrBadRequest, s)
		}
		q.SpeakerIDs = append(q.SpeakerIDs, id)
	}

	if q.Start, err = parseTime(values.Get("start_time")); err != nil {
		return Query{}, err
	}
	if q.End, err = parseTime(values.Get("end_time")); err != nil {
		return Query{}, err
	}

	if q.MinLength, err = parseNonNegative(values.Get("min_length"), 0); err != nil {
		return Query{}, err
	}
	if q.MaxLength, err = parseNonNegative(values.Get("max_length"), 0); err != nil {
		return Query{}, err
	}

	if q.Limit, err = parseNonNegative(values.Get("limit"), limits.DefaultPageSize); err != nil {
		return Query{}, err
	}
	if q.Limit == 0 {
		q.Limit = limits.DefaultPageSize
	}
	if q.Limit > limits.MaxPageSize {
		q.Limit = limits.MaxPageSize
	}
	if q.Offset, err = parseNonNegative(values.Get("offset"), 0); err != nil {
		return Query{}, err
	}

	return q, nil
}

// parseContentTypes expands the content_type parameter into the selected
// kinds. "all" selects every kind; unions join tokens with "+". A literal
// "+" in a query string decodes as a space, so both separators are
// accepted.
func parseContentTypes(s string) (map[contentKind]bool, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: content_type is required", models.ErrBadRequest)
	}

	types := make(map[contentKind]bool)
	normalized := strings.ReplaceAll(s, " ", "+")
	for _, token := range strings.Split(normalized, "+") {
		switch strings.ToLower(strings.TrimSpace(token)) {
		case "ocr":
			types[kindVision] = true
		case "audio":
			types[kindAudio] = true
		case "ui":
			types[kindUI] = true
		case "all":
			types[kindVision] = true
			types[kindAudio] = true
			types[kindUI] = true
		default:
			return nil, fmt.Errorf("%w: unknown content type %q", models.ErrBadRequest, token)
		}
	}
	return types, nil
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid timestamp %q", models.ErrBadRequest, s)
	}
	return &t, nil
}

func parseNonNegative(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number %q", models.ErrBadRequest, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative value %q", models.ErrBadRequest, s)
	}
	return n, nil
}

// splitList flattens repeated parameters and comma-separated values into
// one list.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Package embeds stores user-authored embed documents and renders them into
// Discord embeds.
package embeds

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidURL       = errors.New("invalid url")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidColor     = errors.New("invalid color")
	ErrInvalidName      = errors.New("invalid embed name")
	ErrNotFound         = errors.New("embed not found")
)

// Document is the persisted form of an embed. Text fields hold raw,
// unexpanded template text.
type Document struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Color          *int    `json:"color"`
	Author         Author  `json:"author"`
	Image          string  `json:"image"`
	Thumbnail      string  `json:"thumbnail"`
	Footer         Footer  `json:"footer"`
	Timestamp      *string `json:"timestamp"`
	MessageContent string  `json:"message_content"`
}

type Author struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url"`
}

type Footer struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url"`
}

const MaxColor = 0xFFFFFF

// ParseColor accepts "#RRGGBB", "0xRRGGBB" or bare hex digits.
func ParseColor(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "#")
	if len(value) > 2 && (value[:2] == "0x" || value[:2] == "0X") {
		value = value[2:]
	}
	if value == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, raw)
	}
	parsed, err := strconv.ParseUint(value, 16, 32)
	if err != nil || parsed > MaxColor {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, raw)
	}
	return int(parsed), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without an offset are
// taken as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

// FormatTimestamp is the inverse of ParseTimestamp for stored documents.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

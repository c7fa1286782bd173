// Package notify keeps per-guild welcome and goodbye settings and delivers
// the configured embed when members join or leave.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"herald/internal/storage"
)

type Kind string

const (
	Welcome Kind = "welcome"
	Goodbye Kind = "goodbye"
)

func ParseKind(value string) (Kind, bool) {
	switch Kind(value) {
	case Welcome, Goodbye:
		return Kind(value), true
	}
	return "", false
}

// Title is the capitalised kind used in user-facing text.
func (k Kind) Title() string {
	if k == Goodbye {
		return "Goodbye"
	}
	return "Welcome"
}

// Entry is one guild's settings for a kind. A nil pointer means unset.
type Entry struct {
	ChannelID *string `json:"channel_id"`
	EmbedName *string `json:"embed_name"`
	Enabled   bool    `json:"enabled"`
}

func (e Entry) Channel() string {
	if e.ChannelID == nil {
		return ""
	}
	return *e.ChannelID
}

func (e Entry) Embed() string {
	if e.EmbedName == nil {
		return ""
	}
	return *e.EmbedName
}

// UnmarshalJSON also accepts channel ids stored as JSON numbers.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		ChannelID json.RawMessage `json:"channel_id"`
		EmbedName *string         `json:"embed_name"`
		Enabled   bool            `json:"enabled"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.EmbedName = raw.EmbedName
	e.Enabled = raw.Enabled
	e.ChannelID = nil

	value := bytes.TrimSpace(raw.ChannelID)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return nil
	}
	var id string
	if value[0] == '"' {
		if err := json.Unmarshal(value, &id); err != nil {
			return err
		}
	} else {
		var number json.Number
		if err := json.Unmarshal(value, &number); err != nil {
			return fmt.Errorf("channel_id: %w", err)
		}
		id = number.String()
	}
	if id != "" {
		e.ChannelID = &id
	}
	return nil
}

// Store holds the settings of every guild in memory and writes the whole
// document of a kind through to storage on each change.
type Store struct {
	mu     sync.Mutex
	kv     storage.Store
	loaded map[Kind]map[string]Entry
}

func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv, loaded: make(map[Kind]map[string]Entry)}
}

func (s *Store) Get(ctx context.Context, kind Kind, guildID string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.entriesLocked(ctx, kind)
	if err != nil {
		return Entry{}, false, err
	}
	entry, ok := entries[guildID]
	return entry, ok, nil
}

// Update applies fn to the guild's entry, creating it with defaults first.
// The in-memory state is left untouched if persisting fails.
func (s *Store) Update(ctx context.Context, kind Kind, guildID string, fn func(*Entry)) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.entriesLocked(ctx, kind)
	if err != nil {
		return Entry{}, err
	}
	previous, existed := entries[guildID]
	entry := previous
	fn(&entry)
	entries[guildID] = entry

	if err := s.persistLocked(ctx, kind, entries); err != nil {
		if existed {
			entries[guildID] = previous
		} else {
			delete(entries, guildID)
		}
		return Entry{}, err
	}
	return entry, nil
}

// Ensure creates a default entry for the guild if there is none.
func (s *Store) Ensure(ctx context.Context, kind Kind, guildID string) (Entry, error) {
	return s.Update(ctx, kind, guildID, func(*Entry) {})
}

func (s *Store) Reset(ctx context.Context, kind Kind, guildID string) (Entry, error) {
	return s.Update(ctx, kind, guildID, func(e *Entry) { *e = Entry{} })
}

func (s *Store) entriesLocked(ctx context.Context, kind Kind) (map[string]Entry, error) {
	if entries, ok := s.loaded[kind]; ok {
		return entries, nil
	}
	entries := make(map[string]Entry)
	data, err := s.kv.Get(ctx, string(kind))
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load %s settings: %w", kind, err)
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode %s settings: %w", kind, err)
		}
	}
	s.loaded[kind] = entries
	return entries, nil
}

func (s *Store) persistLocked(ctx context.Context, kind Kind, entries map[string]Entry) error {
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, string(kind), data); err != nil {
		return fmt.Errorf("save %s settings: %w", kind, err)
	}
	return nil
}

package embeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"herald/internal/storage"
)

const MaxNameLength = 50

// Store persists documents under embeds/<guild>/<name>.
type Store struct {
	kv storage.Store
}

func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// NormalizeName trims name and strips a legacy ".json" suffix.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".json")
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength ||
		strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

func key(guildID, name string) string {
	return prefix(guildID) + name
}

func prefix(guildID string) string {
	return "embeds/" + guildID + "/"
}

func (s *Store) Save(ctx context.Context, guildID, name string, doc Document) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, key(guildID, name), data)
}

func (s *Store) Load(ctx context.Context, guildID, name string) (Document, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return Document{}, err
	}
	data, err := s.kv.Get(ctx, key(guildID, name))
	if errors.Is(err, storage.ErrNotFound) {
		return Document{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode embed %q: %w", name, err)
	}
	return doc, nil
}

func (s *Store) Delete(ctx context.Context, guildID, name string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	err = s.kv.Delete(ctx, key(guildID, name))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return err
}

// List returns the names of the guild's embeds, sorted.
func (s *Store) List(ctx context.Context, guildID string) ([]string, error) {
	keys, err := s.kv.List(ctx, prefix(guildID))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		name := strings.TrimPrefix(k, prefix(guildID))
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

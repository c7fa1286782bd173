package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"herald/internal/storage"

	"go.uber.org/zap"
)

const (
	LevelInfo = "INFO"
	LevelWarn = "WARN"
)

const defaultLimit = 20

// Entry records one configuration change made in a guild.
type Entry struct {
	GuildID   string    `json:"guild_id"`
	UserID    string    `json:"user_id"`
	Level     string    `json:"level"`
	Event     string    `json:"event"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

type Logger struct {
	mu     sync.Mutex
	store  storage.Store
	logger *zap.Logger
	limit  int
	now    func() time.Time
}

func NewLogger(store storage.Store, logger *zap.Logger, limit int) *Logger {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Logger{store: store, logger: logger, limit: limit, now: time.Now}
}

func historyKey(guildID string) string {
	return "audit/" + guildID
}

// Log writes a structured log line and appends the entry to the guild's
// history, dropping the oldest entries past the limit. Persistence failures
// are logged and otherwise ignored.
func (l *Logger) Log(ctx context.Context, level, guildID, userID, event, details string) {
	entry := Entry{
		GuildID:   guildID,
		UserID:    userID,
		Level:     level,
		Event:     event,
		Details:   details,
		CreatedAt: l.now().UTC(),
	}
	l.logger.Info("audit", zap.String("level", level), zap.String("guild_id", guildID), zap.String("user_id", userID), zap.String("event", event), zap.String("details", details))

	if l.store == nil || guildID == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.load(ctx, guildID)
	if err != nil {
		l.logger.Warn("audit history unreadable", zap.String("guild_id", guildID), zap.Error(err))
		history = nil
	}
	history = append(history, entry)
	if len(history) > l.limit {
		history = history[len(history)-l.limit:]
	}
	data, err := json.Marshal(history)
	if err != nil {
		return
	}
	if err := l.store.Put(ctx, historyKey(guildID), data); err != nil {
		l.logger.Warn("audit history not saved", zap.String("guild_id", guildID), zap.Error(err))
	}
}

// History returns the guild's entries, oldest first.
func (l *Logger) History(ctx context.Context, guildID string) ([]Entry, error) {
	if l.store == nil {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx, guildID)
}

// Last returns the newest entry whose event starts with prefix.
func (l *Logger) Last(ctx context.Context, guildID, prefix string) (Entry, bool, error) {
	history, err := l.History(ctx, guildID)
	if err != nil {
		return Entry{}, false, err
	}
	for i := len(history) - 1; i >= 0; i-- {
		if strings.HasPrefix(history[i].Event, prefix) {
			return history[i], true, nil
		}
	}
	return Entry{}, false, nil
}

func (l *Logger) load(ctx context.Context, guildID string) ([]Entry, error) {
	data, err := l.store.Get(ctx, historyKey(guildID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var history []Entry
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

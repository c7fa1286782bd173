package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"herald/internal/audit"
	"herald/internal/embeds"
)

var (
	// ErrConfirmationRequired is returned when a change would replace a
	// channel that still exists.
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrChannelNotSet        = errors.New("no channel set")
	ErrEmbedNotSet          = errors.New("no embed selected")
	// ErrMissingTarget means the configured channel no longer exists.
	ErrMissingTarget  = errors.New("channel no longer exists")
	ErrDeliveryFailed = errors.New("delivery failed")
)

// Settings implements the configuration subcommands shared by both kinds.
type Settings struct {
	store      *Store
	embeds     *embeds.Store
	platform   Platform
	dispatcher *Dispatcher
	audit      *audit.Logger
}

func NewSettings(store *Store, embedStore *embeds.Store, platform Platform, dispatcher *Dispatcher, auditLogger *audit.Logger) *Settings {
	return &Settings{store: store, embeds: embedStore, platform: platform, dispatcher: dispatcher, audit: auditLogger}
}

// Status is what the config subcommand shows.
type Status struct {
	Entry Entry
	// Channel is nil when unset or deleted.
	Channel    *discordgo.Channel
	LastChange *audit.Entry
}

// SetChannel points the kind at channelID. Replacing a different channel that
// still exists needs confirmed to be true.
func (s *Settings) SetChannel(ctx context.Context, kind Kind, guildID, actorID, channelID string, confirmed bool) (Entry, error) {
	current, err := s.store.Ensure(ctx, kind, guildID)
	if err != nil {
		return Entry{}, err
	}
	if !confirmed && current.Channel() != "" && current.Channel() != channelID {
		if channel, err := s.platform.Channel(current.Channel()); err == nil && channel != nil {
			return current, ErrConfirmationRequired
		}
	}

	entry, err := s.store.Update(ctx, kind, guildID, func(e *Entry) {
		id := channelID
		e.ChannelID = &id
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, kind, guildID, actorID, "channel", "<#"+channelID+">")
	return entry, nil
}

// ChooseEmbed selects a saved embed. The embed has to exist.
func (s *Settings) ChooseEmbed(ctx context.Context, kind Kind, guildID, actorID, name string) (Entry, error) {
	name, err := embeds.NormalizeName(name)
	if err != nil {
		return Entry{}, err
	}
	if _, err := s.embeds.Load(ctx, guildID, name); err != nil {
		return Entry{}, err
	}
	entry, err := s.store.Update(ctx, kind, guildID, func(e *Entry) {
		e.EmbedName = &name
	})
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, kind, guildID, actorID, "embed", name)
	return entry, nil
}

func (s *Settings) SetEnabled(ctx context.Context, kind Kind, guildID, actorID string, enabled bool) (Entry, error) {
	entry, err := s.store.Update(ctx, kind, guildID, func(e *Entry) {
		e.Enabled = enabled
	})
	if err != nil {
		return Entry{}, err
	}
	event := "disabled"
	if enabled {
		event = "enabled"
	}
	s.record(ctx, kind, guildID, actorID, event, "")
	return entry, nil
}

func (s *Settings) Reset(ctx context.Context, kind Kind, guildID, actorID string) (Entry, error) {
	entry, err := s.store.Reset(ctx, kind, guildID)
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, kind, guildID, actorID, "reset", "")
	return entry, nil
}

func (s *Settings) Status(ctx context.Context, kind Kind, guildID string) (Status, error) {
	entry, err := s.store.Ensure(ctx, kind, guildID)
	if err != nil {
		return Status{}, err
	}
	status := Status{Entry: entry}
	if entry.Channel() != "" {
		if channel, err := s.platform.Channel(entry.Channel()); err == nil {
			status.Channel = channel
		}
	}
	if s.audit != nil {
		if last, ok, err := s.audit.Last(ctx, guildID, string(kind)+"."); err == nil && ok {
			status.LastChange = &last
		}
	}
	return status, nil
}

// Preview sends the configured embed for member regardless of the enabled
// flag and returns the channel it went to. Unlike live dispatch every
// problem is reported to the caller.
func (s *Settings) Preview(ctx context.Context, kind Kind, guildID string, member *discordgo.Member) (*discordgo.Channel, error) {
	entry, err := s.store.Ensure(ctx, kind, guildID)
	if err != nil {
		return nil, err
	}
	if entry.Channel() == "" {
		return nil, ErrChannelNotSet
	}
	if entry.Embed() == "" {
		return nil, ErrEmbedNotSet
	}
	channel, err := s.platform.Channel(entry.Channel())
	if err != nil || channel == nil {
		return nil, ErrMissingTarget
	}

	switch outcome := s.dispatcher.Dispatch(ctx, kind, guildID, member, Preview); outcome {
	case Delivered:
		return channel, nil
	case MissingTarget:
		return nil, ErrMissingTarget
	case MissingEmbed:
		return nil, fmt.Errorf("%w: %q", embeds.ErrNotFound, entry.Embed())
	default:
		return nil, fmt.Errorf("%w: %s", ErrDeliveryFailed, outcome)
	}
}

func (s *Settings) record(ctx context.Context, kind Kind, guildID, actorID, change, details string) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, audit.LevelInfo, guildID, actorID, string(kind)+"."+change, details)
}

package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"herald/internal/audit"
	"herald/internal/embeds"
	"herald/internal/storage"
)

type sent struct {
	channelID string
	msg       *discordgo.MessageSend
}

type fakePlatform struct {
	mu       sync.Mutex
	guilds   map[string]*discordgo.Guild
	channels map[string]*discordgo.Channel
	sendErr  error
	sent     []sent
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		guilds:   map[string]*discordgo.Guild{"g1": {ID: "g1", Name: "Guild"}},
		channels: map[string]*discordgo.Channel{"c1": {ID: "c1", GuildID: "g1", Name: "lobby"}, "c2": {ID: "c2", GuildID: "g1", Name: "other"}},
	}
}

func (p *fakePlatform) Guild(id string) (*discordgo.Guild, error) {
	if g, ok := p.guilds[id]; ok {
		return g, nil
	}
	return nil, errors.New("unknown guild")
}

func (p *fakePlatform) Channel(id string) (*discordgo.Channel, error) {
	if c, ok := p.channels[id]; ok {
		return c, nil
	}
	return nil, errors.New("unknown channel")
}

func (p *fakePlatform) Send(_ context.Context, channelID string, msg *discordgo.MessageSend) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, sent{channelID: channelID, msg: msg})
	return nil
}

type fixture struct {
	kv         *storage.FileStore
	root       string
	store      *Store
	embeds     *embeds.Store
	platform   *fakePlatform
	dispatcher *Dispatcher
	settings   *Settings
}

func newFixture(t *testing.T, cfg DispatcherConfig) *fixture {
	t.Helper()
	root := t.TempDir()
	kv, err := storage.NewFileStore(root)
	require.NoError(t, err)

	f := &fixture{kv: kv, root: root, store: NewStore(kv), embeds: embeds.NewStore(kv), platform: newFakePlatform()}
	f.dispatcher = NewDispatcher(f.store, f.embeds, f.platform, zap.NewNop(), cfg)
	f.settings = NewSettings(f.store, f.embeds, f.platform, f.dispatcher, audit.NewLogger(kv, zap.NewNop(), 20))
	return f
}

func joiner() *discordgo.Member {
	return &discordgo.Member{GuildID: "g1", User: &discordgo.User{ID: "77", Username: "mia"}}
}

func (f *fixture) configure(t *testing.T, enabled bool) {
	t.Helper()
	ctx := context.Background()
	color := 0x00ff00
	require.NoError(t, f.embeds.Save(ctx, "g1", "greet", embeds.Document{Description: "Hi {user.mention}!", Color: &color}))
	_, err := f.settings.SetChannel(ctx, Welcome, "g1", "admin", "c1", false)
	require.NoError(t, err)
	_, err = f.settings.ChooseEmbed(ctx, Welcome, "g1", "admin", "greet")
	require.NoError(t, err)
	_, err = f.settings.SetEnabled(ctx, Welcome, "g1", "admin", enabled)
	require.NoError(t, err)
}

func TestDispatchWelcomeHappyPath(t *testing.T) {
	f := newFixture(t, DispatcherConfig{})
	f.configure(t, true)

	outcome := f.dispatcher.Dispatch(context.Background(), Welcome, "g1", joiner(), Live)
	require.Equal(t, Delivered, outcome)
	require.Len(t, f.platform.sent, 1)

	msg := f.platform.sent[0]
	assert.Equal(t, "c1", msg.channelID)
	assert.Empty(t, msg.msg.Content)
	require.Len(t, msg.msg.Embeds, 1)
	assert.Equal(t, "Hi <@77>!", msg.msg.Embeds[0].Description)
	assert.Equal(t, 0x00ff00, msg.msg.Embeds[0].Color)
}

func TestDispatchDisabled(t *testing.T) {
	f := newFixture(t, DispatcherConfig{})
	f.configure(t, false)
	ctx := context.Background()

	assert.Equal(t, Disabled, f.dispatcher.Dispatch(ctx, Welcome, "g1", joiner(), Live))
	assert.Empty(t, f.platform.sent)

	assert.Equal(t, Delivered, f.dispatcher.Dispatch(ctx, Welcome, "g1", joiner(), Preview))
	assert.Len(t, f.platform.sent, 1)
}

func TestDispatchNoOps(t *testing.T) {
	f := newFixture(t, DispatcherConfig{})
	ctx := context.Background()

	assert.Equal(t, Unconfigured, f.dispatcher.Dispatch(ctx, Goodbye, "g1", joiner(), Live))

	f.configure(t, true)
	require.NoError(t, f.embeds.Delete(ctx, "g1", "greet"))
	assert.Equal(t, MissingEmbed, f.dispatcher.Dispatch(ctx, Welcome, "g1", joiner(), Live))

	require.NoError(t, f.embeds.Save(ctx, "g1", "greet", embeds.Document{}))
	delete(f.platform.channels, "c1")
	assert.Equal(t, MissingTarget, f.dispatcher.Dispatch(ctx, Welcome, "g1", joiner(), Live))

	f.platform.channels["c1"] = &discordgo.Channel{ID: "c1"}
	f.platform.sendErr = errors.New("missing access")
	assert.Equal(t, Failed, f.dispatcher.Dispatch(ctx, Welcome, "g1", joiner(), Live))
	assert.Empty(t, f.platform.sent)
}

func TestDispatchFloodGuard(t *testing.T) {
	f := newFixture(t, DispatcherConfig{FloodJoins: 2, FloodWindow: time.Minute})
	f.configure(t, true)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.dispatcher.now = func() time.Time { return now }
	ctx := context.Background()

	assert.Equal(t, Delivered, f.dispatcher.Dispatch(ctx, Welcome, "g1", joiner(), Live))
	assert.Equal(t, Delivered, f.dispatcher.Dispatch(ctx, Welcome, "g1", joiner(), Live))
	assert.Equal(t, Suppressed, f.dispatcher.Dispatch(ctx, Welcome, "g1", joiner(), Live))
	assert.Equal(t, Delivered, f.dispatcher.Dispatch(ctx, Welcome, "g1", joiner(), Preview))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, Delivered, f.dispatcher.Dispatch(ctx, Welcome, "g1", joiner(), Live))
}

func TestFloodGuardForgetsQuietGuilds(t *testing.T) {
	f := newFixture(t, DispatcherConfig{FloodJoins: 2, FloodWindow: time.Minute})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.dispatcher.now = func() time.Time { return now }

	for _, guildID := range []string{"g1", "g2", "g3"} {
		assert.False(t, f.dispatcher.flooded(guildID))
	}
	assert.Len(t, f.dispatcher.floods, 3)

	now = now.Add(2 * time.Minute)
	assert.False(t, f.dispatcher.flooded("g4"))
	assert.Len(t, f.dispatcher.floods, 1)
	assert.Contains(t, f.dispatcher.floods, "g4")
}

func TestSetChannelNeedsConfirmation(t *testing.T) {
	f := newFixture(t, DispatcherConfig{})
	ctx := context.Background()

	_, err := f.settings.SetChannel(ctx, Welcome, "g1", "admin", "c1", false)
	require.NoError(t, err)

	entry, err := f.settings.SetChannel(ctx, Welcome, "g1", "admin", "c2", false)
	require.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Equal(t, "c1", entry.Channel())

	entry, err = f.settings.SetChannel(ctx, Welcome, "g1", "admin", "c2", true)
	require.NoError(t, err)
	assert.Equal(t, "c2", entry.Channel())

	delete(f.platform.channels, "c2")
	entry, err = f.settings.SetChannel(ctx, Welcome, "g1", "admin", "c1", false)
	require.NoError(t, err)
	assert.Equal(t, "c1", entry.Channel())
}

func TestChooseEmbedRequiresSavedEmbed(t *testing.T) {
	f := newFixture(t, DispatcherConfig{})
	ctx := context.Background()

	_, err := f.settings.ChooseEmbed(ctx, Goodbye, "g1", "admin", "missing")
	require.ErrorIs(t, err, embeds.ErrNotFound)

	require.NoError(t, f.embeds.Save(ctx, "g1", "bye", embeds.Document{}))
	entry, err := f.settings.ChooseEmbed(ctx, Goodbye, "g1", "admin", "bye.json")
	require.NoError(t, err)
	assert.Equal(t, "bye", entry.Embed())
}

func TestResetAndStatus(t *testing.T) {
	f := newFixture(t, DispatcherConfig{})
	f.configure(t, true)
	ctx := context.Background()

	status, err := f.settings.Status(ctx, Welcome, "g1")
	require.NoError(t, err)
	assert.True(t, status.Entry.Enabled)
	require.NotNil(t, status.Channel)
	assert.Equal(t, "lobby", status.Channel.Name)
	require.NotNil(t, status.LastChange)
	assert.Equal(t, "welcome.enabled", status.LastChange.Event)

	entry, err := f.settings.Reset(ctx, Welcome, "g1", "admin")
	require.NoError(t, err)
	assert.Equal(t, Entry{}, entry)

	reloaded := NewStore(f.kv)
	got, ok, err := reloaded.Get(ctx, Welcome, "g1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Entry{}, got)
}

func TestPreviewErrors(t *testing.T) {
	f := newFixture(t, DispatcherConfig{})
	ctx := context.Background()

	_, err := f.settings.Preview(ctx, Welcome, "g1", joiner())
	require.ErrorIs(t, err, ErrChannelNotSet)

	_, err = f.settings.SetChannel(ctx, Welcome, "g1", "admin", "c1", false)
	require.NoError(t, err)
	_, err = f.settings.Preview(ctx, Welcome, "g1", joiner())
	require.ErrorIs(t, err, ErrEmbedNotSet)

	f.configure(t, false)
	channel, err := f.settings.Preview(ctx, Welcome, "g1", joiner())
	require.NoError(t, err)
	assert.Equal(t, "c1", channel.ID)

	delete(f.platform.channels, "c1")
	_, err = f.settings.Preview(ctx, Welcome, "g1", joiner())
	require.ErrorIs(t, err, ErrMissingTarget)
}

func TestLegacySettingsFile(t *testing.T) {
	f := newFixture(t, DispatcherConfig{})
	legacy := `{"g1": {"channel_id": 123456789012345678, "embed_name": "greet.json", "enabled": true}}`
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "welcome.json"), []byte(legacy), 0o644))

	entry, ok, err := f.store.Get(context.Background(), Welcome, "g1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "123456789012345678", entry.Channel())
	assert.Equal(t, "greet.json", entry.Embed())
	assert.True(t, entry.Enabled)
}

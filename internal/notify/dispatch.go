package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"herald/internal/embeds"
	"herald/internal/utils"
	"herald/internal/variables"
)

// Platform is the part of the chat client the dispatcher needs.
type Platform interface {
	Guild(guildID string) (*discordgo.Guild, error)
	Channel(channelID string) (*discordgo.Channel, error)
	Send(ctx context.Context, channelID string, msg *discordgo.MessageSend) error
}

type Mode int

const (
	Live Mode = iota
	// Preview delivers even when the kind is disabled.
	Preview
)

type Outcome string

const (
	Delivered     Outcome = "delivered"
	Disabled      Outcome = "disabled"
	Unconfigured  Outcome = "unconfigured"
	MissingTarget Outcome = "missing_target"
	MissingEmbed  Outcome = "missing_embed"
	Suppressed    Outcome = "suppressed"
	Failed        Outcome = "failed"
)

type DispatcherConfig struct {
	DefaultColor   int
	SendsPerSecond float64
	SendBurst      int
	SendTimeout    time.Duration
	// FloodJoins suppresses live welcomes once more members than this join
	// within FloodWindow. Zero disables the guard.
	FloodJoins  int
	FloodWindow time.Duration
}

type Dispatcher struct {
	store    *Store
	embeds   *embeds.Store
	platform Platform
	logger   *zap.Logger
	cfg      DispatcherConfig
	limiter  *rate.Limiter
	now      func() time.Time

	floodMu    sync.Mutex
	floods     map[string]*utils.SlidingWindow
	floodSweep time.Time
}

func NewDispatcher(store *Store, embedStore *embeds.Store, platform Platform, logger *zap.Logger, cfg DispatcherConfig) *Dispatcher {
	limit := rate.Inf
	if cfg.SendsPerSecond > 0 {
		limit = rate.Limit(cfg.SendsPerSecond)
	}
	if cfg.SendBurst <= 0 {
		cfg.SendBurst = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.FloodWindow <= 0 {
		cfg.FloodWindow = 10 * time.Second
	}
	return &Dispatcher{
		store:    store,
		embeds:   embedStore,
		platform: platform,
		logger:   logger,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, cfg.SendBurst),
		now:      time.Now,
		floods:   make(map[string]*utils.SlidingWindow),
	}
}

// Dispatch renders the kind's configured embed for member and posts it to the
// configured channel. It never fails: anything that prevents delivery is
// reported as an Outcome and logged.
func (d *Dispatcher) Dispatch(ctx context.Context, kind Kind, guildID string, member *discordgo.Member, mode Mode) Outcome {
	outcome := d.dispatch(ctx, kind, guildID, member, mode)
	fields := []zap.Field{zap.String("guild_id", guildID), zap.String("kind", string(kind)), zap.String("outcome", string(outcome))}
	if member != nil && member.User != nil {
		fields = append(fields, zap.String("user_id", member.User.ID))
	}
	if outcome == Delivered {
		d.logger.Info("notification delivered", fields...)
	} else {
		d.logger.Debug("notification skipped", fields...)
	}
	return outcome
}

func (d *Dispatcher) dispatch(ctx context.Context, kind Kind, guildID string, member *discordgo.Member, mode Mode) Outcome {
	if kind == Welcome && mode == Live && d.flooded(guildID) {
		return Suppressed
	}

	entry, ok, err := d.store.Get(ctx, kind, guildID)
	if err != nil {
		d.logger.Warn("notification settings unavailable", zap.String("guild_id", guildID), zap.String("kind", string(kind)), zap.Error(err))
		return Failed
	}
	if !ok {
		return Unconfigured
	}
	if mode == Live && !entry.Enabled {
		return Disabled
	}
	if entry.Channel() == "" || entry.Embed() == "" {
		return Unconfigured
	}

	channel, err := d.platform.Channel(entry.Channel())
	if err != nil || channel == nil {
		return MissingTarget
	}

	guild, err := d.platform.Guild(guildID)
	if err != nil || guild == nil {
		guild = &discordgo.Guild{ID: guildID}
	}

	doc, err := d.embeds.Load(ctx, guildID, entry.Embed())
	if err != nil {
		if errors.Is(err, embeds.ErrNotFound) || errors.Is(err, embeds.ErrInvalidName) {
			return MissingEmbed
		}
		d.logger.Warn("embed unreadable", zap.String("guild_id", guildID), zap.String("embed", entry.Embed()), zap.Error(err))
		return Failed
	}

	rendered, err := embeds.Build(doc, variables.ForMember(member, guild), embeds.Options{Mode: embeds.Lenient, DefaultColor: d.cfg.DefaultColor})
	if err != nil {
		d.logger.Warn("embed render failed", zap.String("guild_id", guildID), zap.String("embed", entry.Embed()), zap.Error(err))
		return Failed
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()
	if err := d.limiter.Wait(sendCtx); err != nil {
		d.logger.Warn("notification throttled", zap.String("guild_id", guildID), zap.Error(err))
		return Failed
	}
	if err := d.platform.Send(sendCtx, channel.ID, rendered.MessageSend()); err != nil {
		d.logger.Warn("notification send failed", zap.String("guild_id", guildID), zap.String("channel_id", channel.ID), zap.Error(err))
		return Failed
	}
	return Delivered
}

func (d *Dispatcher) flooded(guildID string) bool {
	if d.cfg.FloodJoins <= 0 {
		return false
	}
	now := d.now()
	d.floodMu.Lock()
	defer d.floodMu.Unlock()

	if now.Sub(d.floodSweep) >= d.cfg.FloodWindow {
		d.sweepFloodsLocked(now)
	}
	window := d.floods[guildID]
	if window == nil {
		window = utils.NewSlidingWindow(d.cfg.FloodWindow)
		d.floods[guildID] = window
	}
	return window.Add(now) > d.cfg.FloodJoins
}

// sweepFloodsLocked drops guilds with no joins left in their window.
func (d *Dispatcher) sweepFloodsLocked(now time.Time) {
	for guildID, window := range d.floods {
		if window.Count(now) == 0 {
			delete(d.floods, guildID)
		}
	}
	d.floodSweep = now
}

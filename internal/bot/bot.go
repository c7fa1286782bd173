package bot

import (
	"context"
	"sync"
	"time"

	"herald/internal/audit"
	"herald/internal/authoring"
	"herald/internal/config"
	"herald/internal/confirm"
	"herald/internal/embeds"
	"herald/internal/notify"
	"herald/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Bot struct {
	cfg        config.Config
	logger     *zap.Logger
	session    *discordgo.Session
	platform   *discordPlatform
	embeds     *embeds.Store
	dispatcher *notify.Dispatcher
	settings   *notify.Settings
	authoring  *authoring.Manager
	confirms   *confirm.Registry
	audit      *audit.Logger

	promptMu sync.Mutex
	prompts  map[string]promptView
}

// promptView is the text a confirmation message switches to once answered.
type promptView struct {
	title    string
	accepted string
	declined string
	expired  string
}

func New(cfg config.Config, logger *zap.Logger, store storage.Store, auditLogger *audit.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers

	platform := &discordPlatform{session: session}
	embedStore := embeds.NewStore(store)
	notifyStore := notify.NewStore(store)
	dispatcher := notify.NewDispatcher(notifyStore, embedStore, platform, logger, notify.DispatcherConfig{
		DefaultColor:   cfg.EmbedColors.Default,
		SendsPerSecond: cfg.Notifications.SendsPerSecond,
		SendBurst:      cfg.Notifications.SendBurst,
		SendTimeout:    time.Duration(cfg.Notifications.SendTimeoutSeconds) * time.Second,
		FloodJoins:     cfg.Notifications.FloodJoins,
		FloodWindow:    time.Duration(cfg.Notifications.FloodWindowSeconds) * time.Second,
	})

	b := &Bot{
		cfg:        cfg,
		logger:     logger,
		session:    session,
		platform:   platform,
		embeds:     embedStore,
		dispatcher: dispatcher,
		settings:   notify.NewSettings(notifyStore, embedStore, platform, dispatcher, auditLogger),
		authoring:  authoring.NewManager(time.Duration(cfg.Sessions.AuthoringTimeoutMinutes) * time.Minute),
		confirms:   confirm.NewRegistry(time.Duration(cfg.Sessions.ConfirmTimeoutSeconds) * time.Second),
		audit:      auditLogger,
		prompts:    make(map[string]promptView),
	}
	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onGuildMemberRemove)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	return b.registerCommands()
}

// Close disconnects from the gateway, giving up when ctx is done.
func (b *Bot) Close(ctx context.Context) error {
	if b.session == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- b.session.Close() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", event.User.Username), zap.Int("guilds", len(event.Guilds)))
}

func (b *Bot) onGuildMemberAdd(session *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if event.Member == nil || event.Member.User == nil {
		return
	}
	b.dispatcher.Dispatch(context.Background(), notify.Welcome, event.GuildID, event.Member, notify.Live)
}

func (b *Bot) onGuildMemberRemove(session *discordgo.Session, event *discordgo.GuildMemberRemove) {
	if event.Member == nil || event.Member.User == nil {
		return
	}
	b.dispatcher.Dispatch(context.Background(), notify.Goodbye, event.GuildID, event.Member, notify.Live)
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	b.reply(session, interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	b.reply(session, interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}

// update replaces the message the component or modal was attached to.
func (b *Bot) update(session *discordgo.Session, interaction *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	b.reply(session, interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	})
}

func (b *Bot) reply(session *discordgo.Session, interaction *discordgo.InteractionCreate, response *discordgo.InteractionResponse) {
	if err := session.InteractionRespond(interaction.Interaction, response); err != nil {
		b.logger.Warn("interaction response failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
	}
}

// followup posts an ephemeral message after the interaction was answered.
func (b *Bot) followup(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	_, err := session.FollowupMessageCreate(interaction.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		b.logger.Warn("interaction followup failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
	}
}

func (b *Bot) commandEmbed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Fields:      fields,
	}
}

func (b *Bot) errorEmbed(description string) *discordgo.MessageEmbed {
	return b.commandEmbed("Error", description, b.cfg.EmbedColors.Error, nil)
}

func (b *Bot) successEmbed(description string) *discordgo.MessageEmbed {
	return b.commandEmbed("", description, b.cfg.EmbedColors.Success, nil)
}

func (b *Bot) infoEmbed(title, description string) *discordgo.MessageEmbed {
	return b.commandEmbed(title, description, b.cfg.EmbedColors.Default, nil)
}

func interactionUser(interaction *discordgo.InteractionCreate) *discordgo.User {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User
	}
	return interaction.User
}

func interactionUserID(interaction *discordgo.InteractionCreate) string {
	if user := interactionUser(interaction); user != nil {
		return user.ID
	}
	return ""
}

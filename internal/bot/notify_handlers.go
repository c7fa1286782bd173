package bot

import (
	"context"
	"errors"
	"fmt"

	"herald/internal/embeds"
	"herald/internal/notify"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) handleNotifyCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, kind notify.Kind, sub *discordgo.ApplicationCommandInteractionDataOption) {
	guildID := interaction.GuildID
	actorID := interactionUserID(interaction)

	switch sub.Name {
	case "set":
		channelID := optionString(sub.Options, "channel")
		if channelID == "" {
			b.respondEmbed(session, interaction, b.errorEmbed("Please specify a channel!"), true)
			return
		}
		b.setNotifyChannel(ctx, session, interaction, kind, channelID)
	case "message":
		b.promptEmbedChoice(ctx, session, interaction, customID(idNotifyEmbed, string(kind)), fmt.Sprintf("Select an embed for %s messages:", kind))
	case "view":
		channel, err := b.settings.Preview(ctx, kind, guildID, interaction.Member)
		if err != nil {
			b.respondEmbed(session, interaction, b.errorEmbed(notifyErrorText(kind, err)), true)
			return
		}
		b.respondEmbed(session, interaction, b.infoEmbed("", fmt.Sprintf("Preview sent to the %s channel! <#%s>", kind, channel.ID)), true)
	case "enable", "disable":
		enabled := sub.Name == "enable"
		if _, err := b.settings.SetEnabled(ctx, kind, guildID, actorID, enabled); err != nil {
			b.logger.Warn("notify update failed", zap.String("guild_id", guildID), zap.String("kind", string(kind)), zap.Error(err))
			b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
			return
		}
		b.respondEmbed(session, interaction, b.successEmbed(fmt.Sprintf("%s messages have been %sd!", kind.Title(), sub.Name)), true)
	case "reset":
		b.openPrompt(session, interaction,
			fmt.Sprintf("Are you sure you want to reset all %s settings? This will remove the %s channel and embed settings.", kind, kind),
			promptView{
				title:    "Reset " + kind.Title() + " Settings",
				accepted: kind.Title() + " settings have been reset!",
				declined: kind.Title() + " settings reset cancelled!",
			},
			func(ctx context.Context) error {
				_, err := b.settings.Reset(ctx, kind, guildID, actorID)
				return err
			})
	case "config":
		b.showNotifyConfig(ctx, session, interaction, kind)
	}
}

func (b *Bot) setNotifyChannel(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, kind notify.Kind, channelID string) {
	guildID := interaction.GuildID
	actorID := interactionUserID(interaction)

	current, err := b.settings.SetChannel(ctx, kind, guildID, actorID, channelID, false)
	switch {
	case errors.Is(err, notify.ErrConfirmationRequired):
		b.openPrompt(session, interaction,
			fmt.Sprintf("Current %s channel is <#%s>\nAre you sure you want to change it to <#%s>?", kind, current.Channel(), channelID),
			promptView{
				title:    "Change " + kind.Title() + " Channel",
				accepted: fmt.Sprintf("%s channel has been changed to <#%s>!", kind.Title(), channelID),
				declined: kind.Title() + " channel change cancelled!",
			},
			func(ctx context.Context) error {
				_, err := b.settings.SetChannel(ctx, kind, guildID, actorID, channelID, true)
				return err
			})
	case err != nil:
		b.logger.Warn("notify update failed", zap.String("guild_id", guildID), zap.String("kind", string(kind)), zap.Error(err))
		b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
	default:
		b.respondEmbed(session, interaction, b.successEmbed(fmt.Sprintf("%s channel set to <#%s>!", kind.Title(), channelID)), true)
	}
}

func (b *Bot) handleNotifyEmbedSelect(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, kind notify.Kind, values []string) {
	if len(values) == 0 {
		return
	}
	entry, err := b.settings.ChooseEmbed(ctx, kind, interaction.GuildID, interactionUserID(interaction), values[0])
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
		return
	}
	b.update(session, interaction, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{b.successEmbed(fmt.Sprintf("%s messages will now use the `%s` embed!", kind.Title(), entry.Embed()))},
		Components: []discordgo.MessageComponent{},
	})
}

func (b *Bot) showNotifyConfig(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, kind notify.Kind) {
	status, err := b.settings.Status(ctx, kind, interaction.GuildID)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
		return
	}
	embed := b.infoEmbed(kind.Title()+" Configuration", fmt.Sprintf("Current %s message settings for this server", kind))
	embed.Fields = configFields(kind, status)
	b.respondEmbed(session, interaction, embed, true)
}

func configFields(kind notify.Kind, status notify.Status) []*discordgo.MessageEmbedField {
	state := "❌ Disabled"
	if status.Entry.Enabled {
		state = "✅ Enabled"
	}

	channel := "❌ Not set"
	switch {
	case status.Channel != nil:
		channel = fmt.Sprintf("<#%s> (`%s`)", status.Channel.ID, status.Channel.Name)
	case status.Entry.Channel() != "":
		channel = "❌ Channel no longer exists"
	}

	embed := "❌ Not set"
	if name := status.Entry.Embed(); name != "" {
		if normalized, err := embeds.NormalizeName(name); err == nil {
			name = normalized
		}
		embed = "`" + name + "`"
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Status", Value: state},
		{Name: kind.Title() + " Channel", Value: channel},
		{Name: kind.Title() + " Embed", Value: embed},
	}
	if last := status.LastChange; last != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Last Change",
			Value: fmt.Sprintf("`%s` by <@%s> <t:%d:R>", last.Event, last.UserID, last.CreatedAt.Unix()),
		})
	}
	return fields
}

func notifyErrorText(kind notify.Kind, err error) string {
	switch {
	case errors.Is(err, notify.ErrChannelNotSet):
		return fmt.Sprintf("No %s channel set! Use `/%s set` first.", kind, kind)
	case errors.Is(err, notify.ErrEmbedNotSet):
		return fmt.Sprintf("No %s embed selected! Use `/%s message` first.", kind, kind)
	case errors.Is(err, notify.ErrMissingTarget):
		return fmt.Sprintf("The %s channel no longer exists! Please set a new %s channel using `/%s set`.", kind, kind, kind)
	case errors.Is(err, embeds.ErrNotFound):
		return fmt.Sprintf("The selected %s embed no longer exists! Use `/%s message` to choose another.", kind, kind)
	case errors.Is(err, notify.ErrDeliveryFailed):
		return fmt.Sprintf("Could not send the preview to the %s channel. Check my permissions there.", kind)
	default:
		return describeError(err)
	}
}

func optionString(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range options {
		if opt.Name != name {
			continue
		}
		if value, ok := opt.Value.(string); ok {
			return value
		}
	}
	return ""
}

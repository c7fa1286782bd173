package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"herald/internal/audit"
	"herald/internal/authoring"
	"herald/internal/embeds"
	"herald/internal/variables"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) handleEmbedCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	switch sub.Name {
	case "create":
		b.startEditor(session, interaction)
	case "send":
		b.promptEmbedChoice(ctx, session, interaction, idEmbedSend, "Select an embed to send:")
	case "delete":
		b.promptEmbedChoice(ctx, session, interaction, idEmbedDelete, "Select an embed to delete:")
	case "list":
		b.listEmbeds(ctx, session, interaction)
	}
}

// subject builds the variable context of an interaction, channel included.
func (b *Bot) subject(interaction *discordgo.InteractionCreate) variables.Subject {
	subject := variables.Subject{User: interactionUser(interaction), Member: interaction.Member}
	if guild, err := b.platform.Guild(interaction.GuildID); err == nil {
		subject.Guild = guild
	} else {
		subject.Guild = &discordgo.Guild{ID: interaction.GuildID}
	}
	if channel, err := b.platform.Channel(interaction.ChannelID); err == nil {
		subject.Channel = channel
	}
	return subject
}

func (b *Bot) startEditor(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	editor := b.authoring.Start(interaction.GuildID, interactionUserID(interaction))
	data, err := b.editorView(editor, b.subject(interaction))
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
		return
	}
	data.Flags = discordgo.MessageFlagsEphemeral
	b.reply(session, interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func (b *Bot) editorView(editor *authoring.Session, subject variables.Subject) (*discordgo.InteractionResponseData, error) {
	rendered, err := editor.Preview(subject, b.cfg.EmbedColors.Default)
	if err != nil {
		return nil, err
	}
	return &discordgo.InteractionResponseData{
		Content:    rendered.Content,
		Embeds:     []*discordgo.MessageEmbed{rendered.Embed},
		Components: editorComponents(editor.ID),
	}, nil
}

func (b *Bot) editorSession(session *discordgo.Session, interaction *discordgo.InteractionCreate, sessionID string) *authoring.Session {
	editor, err := b.authoring.Get(sessionID, interactionUserID(interaction))
	if err != nil {
		message := describeError(err)
		if !errors.Is(err, authoring.ErrExpired) {
			message = "You are not the author of this command!"
		}
		b.respondEmbed(session, interaction, b.errorEmbed(message), true)
		return nil
	}
	return editor
}

func (b *Bot) handleEditorSelect(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, sessionID string, values []string) {
	editor := b.editorSession(session, interaction, sessionID)
	if editor == nil || len(values) == 0 {
		return
	}

	switch values[0] {
	case editorReset:
		editor.Reset()
		data, err := b.editorView(editor, b.subject(interaction))
		if err != nil {
			b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
			return
		}
		b.update(session, interaction, data)
	case editorSave:
		b.reply(session, interaction, saveModal(editor.ID))
	default:
		field, err := authoring.ParseField(values[0])
		if err != nil {
			return
		}
		if err := editor.Select(field); err != nil {
			return
		}
		b.reply(session, interaction, editorModal(editor.ID, field, editor.Document()))
	}
}

func (b *Bot) handleEditorModal(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, sessionID, fieldName string, values map[string]string) {
	editor := b.editorSession(session, interaction, sessionID)
	if editor == nil {
		return
	}
	field, err := authoring.ParseField(fieldName)
	if err != nil {
		return
	}
	// A dismissed modal leaves the previous selection pending.
	if _, pending := editor.State(); pending != field {
		if err := editor.Select(field); err != nil {
			return
		}
	}

	subject := b.subject(interaction)
	input := authoring.Input{Primary: values[inputPrimary], Secondary: values[inputSecondary]}
	if err := editor.Submit(input, subject); err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
		return
	}
	data, err := b.editorView(editor, subject)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
		return
	}
	b.update(session, interaction, data)
}

func (b *Bot) handleEditorSave(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, sessionID string, values map[string]string) {
	editor := b.editorSession(session, interaction, sessionID)
	if editor == nil {
		return
	}
	name, err := editor.Save(ctx, b.embeds, values[inputPrimary], b.subject(interaction), b.cfg.EmbedColors.Default)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
		return
	}
	b.audit.Log(ctx, audit.LevelInfo, interaction.GuildID, interactionUserID(interaction), "embed.saved", name)

	// The editor stays open so the draft can be refined or saved again.
	data, err := b.editorView(editor, b.subject(interaction))
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
		return
	}
	b.update(session, interaction, data)
	b.followup(session, interaction, b.successEmbed(fmt.Sprintf("Embed saved as `%s`!", name)))
}

func (b *Bot) promptEmbedChoice(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, id, placeholder string) {
	names, err := b.embeds.List(ctx, interaction.GuildID)
	if err != nil {
		b.logger.Warn("list embeds failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
		return
	}
	if len(names) == 0 {
		b.respondEmbed(session, interaction, b.errorEmbed("No saved embeds found! Use `/embed create` to create an embed first."), true)
		return
	}

	components, truncated := nameSelect(id, placeholder, names)
	description := placeholder
	if truncated {
		description += fmt.Sprintf("\nOnly the first %d embeds are listed.", maxSelectOptions)
	}
	b.reply(session, interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{b.infoEmbed("", description)},
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

func (b *Bot) handleEmbedSendSelect(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, values []string) {
	if len(values) == 0 {
		return
	}
	doc, err := b.embeds.Load(ctx, interaction.GuildID, values[0])
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
		return
	}
	rendered, err := embeds.Build(doc, b.subject(interaction), embeds.Options{Mode: embeds.Lenient, DefaultColor: b.cfg.EmbedColors.Default})
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
		return
	}
	if err := b.platform.Send(ctx, interaction.ChannelID, rendered.MessageSend()); err != nil {
		b.logger.Warn("embed send failed", zap.String("guild_id", interaction.GuildID), zap.String("embed", values[0]), zap.Error(err))
		b.respondEmbed(session, interaction, b.errorEmbed("I could not send messages in this channel."), true)
		return
	}
	b.update(session, interaction, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{b.successEmbed(fmt.Sprintf("Embed `%s` sent!", values[0]))},
		Components: []discordgo.MessageComponent{},
	})
}

func (b *Bot) handleEmbedDeleteSelect(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, values []string) {
	if len(values) == 0 {
		return
	}
	if err := b.embeds.Delete(ctx, interaction.GuildID, values[0]); err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
		return
	}
	b.audit.Log(ctx, audit.LevelWarn, interaction.GuildID, interactionUserID(interaction), "embed.deleted", values[0])
	b.update(session, interaction, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{b.successEmbed(fmt.Sprintf("Embed `%s` has been deleted!", values[0]))},
		Components: []discordgo.MessageComponent{},
	})
}

func (b *Bot) listEmbeds(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	names, err := b.embeds.List(ctx, interaction.GuildID)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed(describeError(err)), true)
		return
	}
	if len(names) == 0 {
		b.respondEmbed(session, interaction, b.infoEmbed("Saved Embeds", "No saved embeds yet."), true)
		return
	}
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, "• `"+name+"`")
	}
	b.respondEmbed(session, interaction, b.infoEmbed("Saved Embeds", strings.Join(lines, "\n")), true)
}

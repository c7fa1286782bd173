package bot

import (
	"context"
	"errors"

	"herald/internal/access"
	"herald/internal/confirm"
	"herald/internal/notify"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	ctx := context.Background()
	if interaction.GuildID == "" {
		if interaction.Type == discordgo.InteractionApplicationCommand {
			b.respondEmbed(session, interaction, b.errorEmbed("This command can only be used in a server."), true)
		}
		return
	}

	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(ctx, session, interaction)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(ctx, session, interaction)
	case discordgo.InteractionModalSubmit:
		b.handleModal(ctx, session, interaction)
	}
}

func (b *Bot) handleCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	data := interaction.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]

	switch data.Name {
	case "embed":
		b.handleEmbedCommand(ctx, session, interaction, sub)
	case string(notify.Welcome), string(notify.Goodbye):
		kind, _ := notify.ParseKind(data.Name)
		b.handleNotifyCommand(ctx, session, interaction, kind, sub)
	}
}

func (b *Bot) handleComponent(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	data := interaction.MessageComponentData()
	group, args := parseCustomID(data.CustomID)

	switch group {
	case idEmbedEdit:
		if len(args) == 1 {
			b.handleEditorSelect(ctx, session, interaction, args[0], data.Values)
		}
	case idEmbedSend:
		b.handleEmbedSendSelect(ctx, session, interaction, data.Values)
	case idEmbedDelete:
		b.handleEmbedDeleteSelect(ctx, session, interaction, data.Values)
	case idNotifyEmbed:
		if len(args) == 1 {
			if kind, ok := notify.ParseKind(args[0]); ok {
				b.handleNotifyEmbedSelect(ctx, session, interaction, kind, data.Values)
			}
		}
	case idConfirm:
		if len(args) == 2 {
			b.handleConfirm(ctx, session, interaction, args[0], args[1] == answerYes)
		}
	default:
		b.logger.Debug("unknown component", zap.String("custom_id", data.CustomID))
	}
}

func (b *Bot) handleModal(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	data := interaction.ModalSubmitData()
	group, args := parseCustomID(data.CustomID)

	switch group {
	case idEmbedModal:
		if len(args) == 2 {
			b.handleEditorModal(ctx, session, interaction, args[0], args[1], modalValues(data))
		}
	case idEmbedSave:
		if len(args) == 1 {
			b.handleEditorSave(ctx, session, interaction, args[0], modalValues(data))
		}
	}
}

// modalValues maps text input custom ids to their submitted values.
func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, component := range data.Components {
		row, ok := component.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}

func (b *Bot) handleConfirm(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, gateID string, accept bool) {
	accepted, err := b.confirms.Resolve(ctx, gateID, interactionUserID(interaction), accept)
	switch {
	case errors.Is(err, access.ErrUnauthorized):
		b.respondEmbed(session, interaction, b.errorEmbed("You are not the author of this command!"), true)
		return
	case errors.Is(err, confirm.ErrExpired):
		b.respondEmbed(session, interaction, b.errorEmbed("This prompt has expired."), true)
		return
	}

	view := b.takePrompt(gateID)
	if err != nil {
		b.logger.Warn("confirmed change failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
		b.update(session, interaction, &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{b.errorEmbed(describeError(err))},
			Components: []discordgo.MessageComponent{},
		})
		return
	}

	embed := b.successEmbed(view.accepted)
	if !accepted {
		embed = b.commandEmbed(view.title, view.declined, b.cfg.EmbedColors.Error, nil)
	}
	b.update(session, interaction, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{},
	})
}
